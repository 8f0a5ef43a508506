package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"snapdiff/internal/config"
	"snapdiff/internal/domain"
	"snapdiff/internal/lock"
	"snapdiff/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.DataDir = t.TempDir()
	return cfg
}

func testWatch(t *testing.T, cfg *config.Config, from, to string) WatchConfig {
	t.Helper()

	opts := cfg.Options()
	opts.CacheMode = domain.CacheModeNever
	opts.Quiet = true

	return WatchConfig{
		FromRoot: from,
		ToRoot:   to,
		Options:  opts,
		Interval: 20 * time.Millisecond,
	}
}

func TestNewWatchService_Validation(t *testing.T) {
	cfg := testConfig(t)
	from, to := t.TempDir(), t.TempDir()

	cases := []struct {
		name  string
		cfg   *config.Config
		watch WatchConfig
	}{
		{"nil config", nil, testWatch(t, cfg, from, to)},
		{"missing roots", cfg, WatchConfig{Interval: time.Second}},
		{"same root", cfg, WatchConfig{FromRoot: from, ToRoot: from, Interval: time.Second}},
		{"zero interval", cfg, WatchConfig{FromRoot: from, ToRoot: to}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewWatchService(tc.cfg, tc.watch)
			if err == nil {
				svc.Close()
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWatchService_RunOnce(t *testing.T) {
	cfg := testConfig(t)
	from, to := t.TempDir(), t.TempDir()
	testutil.WriteTree(t, from, map[string]string{
		"etc/removed.txt": "gone\n",
	})
	testutil.WriteTree(t, to, map[string]string{
		"etc/added.txt": "here\n",
	})
	testutil.CreateTestFileWithSize(t, to, "payload.bin", 4096)

	watch := testWatch(t, cfg, from, to)

	var got *domain.FsDiffResults
	watch.OnResults = func(results *domain.FsDiffResults, cacheHit bool) {
		got = results
	}

	svc, err := NewWatchService(cfg, watch)
	if err != nil {
		t.Fatalf("NewWatchService failed: %v", err)
	}
	defer svc.Close()

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got == nil {
		t.Fatal("OnResults was not invoked")
	}
	if got.Counts.Added != 2 || got.Counts.Removed != 1 {
		t.Errorf("counts = %+v, want 2 added and 1 removed", got.Counts)
	}

	status := svc.Status()
	if status.LastComparison == nil {
		t.Fatal("comparison was not recorded in history")
	}
	if status.LastComparison.Added != 2 {
		t.Errorf("recorded added = %d, want 2", status.LastComparison.Added)
	}
}

func TestWatchService_StartStop(t *testing.T) {
	cfg := testConfig(t)
	from, to := t.TempDir(), t.TempDir()
	testutil.CreateTestFile(t, from, "a.txt", []byte("a\n"))

	svc, err := NewWatchService(cfg, testWatch(t, cfg, from, to))
	if err != nil {
		t.Fatalf("NewWatchService failed: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !svc.Status().Running {
		t.Error("watch should be running after Start")
	}

	testutil.AssertEventually(t, 5*time.Second, func() bool {
		status := svc.Status()
		return status.SchedulerStats != nil && status.SchedulerStats.SuccessfulRuns > 0
	}, "expected at least one successful run")

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if svc.Status().Running {
		t.Error("watch should not be running after Stop")
	}
}

func TestWatchService_LockPreventsSecondWatcher(t *testing.T) {
	cfg := testConfig(t)
	from, to := t.TempDir(), t.TempDir()

	first, err := NewWatchService(cfg, testWatch(t, cfg, from, to))
	if err != nil {
		t.Fatalf("NewWatchService failed: %v", err)
	}
	defer first.Close()

	second, err := NewWatchService(cfg, testWatch(t, cfg, from, to))
	if err != nil {
		t.Fatalf("NewWatchService failed: %v", err)
	}
	defer second.Close()

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	err = second.Start(ctx)
	if err == nil {
		t.Fatal("second Start should fail while first holds the lock")
	}
	if !lock.IsLockError(err) {
		t.Errorf("error = %v, want LockError", err)
	}
}

func TestWatchService_StopNotRunning(t *testing.T) {
	cfg := testConfig(t)
	from, to := t.TempDir(), t.TempDir()

	svc, err := NewWatchService(cfg, testWatch(t, cfg, from, to))
	if err != nil {
		t.Fatalf("NewWatchService failed: %v", err)
	}
	defer svc.Close()

	if err := svc.Stop(); err == nil {
		t.Error("Stop without Start should fail")
	}
}
