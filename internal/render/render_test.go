package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"snapdiff/internal/domain"
)

func sampleResults(t *testing.T) *domain.FsDiffResults {
	t.Helper()
	mtime := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	records := []domain.FsDiffRecord{
		{
			Path: "/etc/motd",
			Kind: domain.ChangeModified,
			OldEntry: &domain.FsEntry{
				Path: "/etc/motd", Kind: domain.KindRegular, Size: 4,
				Mode: 0644, ModTime: mtime,
			},
			NewEntry: &domain.FsEntry{
				Path: "/etc/motd", Kind: domain.KindRegular, Size: 6,
				Mode: 0644, ModTime: mtime.Add(time.Hour),
			},
			Changes: []domain.MetaChange{
				{Type: domain.MetaContent, Description: "content differs"},
			},
			ContentDiff: &domain.ContentDiff{
				Kind:    domain.ContentDiffUnified,
				Body:    "--- a/etc/motd\n+++ b/etc/motd\n@@ -1 +1 @@\n-old\n+newer\n",
				Added:   1,
				Removed: 1,
				Summary: "+1 -1",
			},
			FileType:     "text",
			FileTypeDesc: "plain text",
		},
		{
			Path: "/etc/new.conf",
			Kind: domain.ChangeAdded,
			NewEntry: &domain.FsEntry{
				Path: "/etc/new.conf", Kind: domain.KindRegular, Size: 3,
				Mode: 0600, ModTime: mtime,
			},
			ContentDiff: &domain.ContentDiff{
				Kind:    domain.ContentDiffUnified,
				Body:    "--- /dev/null\n+++ b/etc/new.conf\n@@ -0,0 +1 @@\n+hi\n",
				Added:   1,
				Summary: "+1 -0",
			},
			FileType:     "text",
			FileTypeDesc: "configuration file",
		},
		{
			Path:     "/srv/old.dat",
			Kind:     domain.ChangeMovedFrom,
			PairPath: "/srv/new.dat",
			OldEntry: &domain.FsEntry{
				Path: "/srv/old.dat", Kind: domain.KindRegular, Size: 9,
				Mode: 0644, ModTime: mtime,
			},
			FileType: "data",
		},
		{
			Path:     "/srv/new.dat",
			Kind:     domain.ChangeMovedTo,
			PairPath: "/srv/old.dat",
			NewEntry: &domain.FsEntry{
				Path: "/srv/new.dat", Kind: domain.KindRegular, Size: 9,
				Mode: 0644, ModTime: mtime,
			},
			FileType: "data",
		},
	}
	return domain.NewResults(records, "/from", "/to", mtime, domain.WalkStats{})
}

func plainRenderer(opts Options) *Renderer {
	opts.Color = ColorNever
	return New(opts)
}

func render(t *testing.T, r *Renderer, res *domain.FsDiffResults, f Format) string {
	t.Helper()
	var b strings.Builder
	if err := r.Render(&b, res, f); err != nil {
		t.Fatalf("Render(%s) error = %v", f, err)
	}
	return b.String()
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) succeeded, want error")
	}
}

func TestRender_Paths(t *testing.T) {
	out := render(t, plainRenderer(Options{}), sampleResults(t), FormatPaths)
	want := "/etc/motd\n/etc/new.conf\n/srv/old.dat\n/srv/new.dat\n"
	if out != want {
		t.Errorf("paths output = %q, want %q", out, want)
	}
}

func TestRender_Short(t *testing.T) {
	out := render(t, plainRenderer(Options{}), sampleResults(t), FormatShort)
	for _, want := range []string{
		"Path: /etc/motd",
		"  kind: modified",
		"  changes: content differs",
		"  content_diff_summary: +1 -1",
		"  kind: moved_from",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("short output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Full(t *testing.T) {
	out := render(t, plainRenderer(Options{}), sampleResults(t), FormatFull)
	for _, want := range []string{
		"  size_old: 4",
		"  size_new: 6",
		"  size_delta: 2",
		"  mode_new: 0644",
		"  content_changed: true",
		"  has_content_diff: true",
		"  moved_to: /srv/new.dat",
		"  moved_from: /srv/old.dat",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("full output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	out := render(t, plainRenderer(Options{Pretty: true}), sampleResults(t), FormatJSON)

	var records []domain.FsDiffRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("decoded %d records, want 4", len(records))
	}
	if records[0].Path != "/etc/motd" || records[0].Kind != domain.ChangeModified {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestRender_Diff(t *testing.T) {
	out := render(t, plainRenderer(Options{}), sampleResults(t), FormatDiff)
	for _, want := range []string{
		"diff a/etc/motd b/etc/motd",
		"--- a/etc/motd\t2026-03-14 09:26:53",
		"+++ b/etc/motd\t2026-03-14 10:26:53",
		"@@ -1 +1 @@",
		"-old",
		"+newer",
		"diff a/etc/new.conf b/etc/new.conf",
		"new file mode 0600",
		"--- /dev/null",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diff output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_DiffStat(t *testing.T) {
	out := render(t, plainRenderer(Options{DiffStat: true}), sampleResults(t), FormatDiff)
	for _, want := range []string{
		" etc/motd     |    2 +-",
		" etc/new.conf |    1 +",
		" 2 files changed, 2 insertions(+), 1 deletions(-)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diffstat output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Summary(t *testing.T) {
	out := render(t, plainRenderer(Options{}), sampleResults(t), FormatSummary)
	for _, want := range []string{
		"Total changes:     4",
		"Paths added:     1",
		"Paths removed:   0",
		"Paths modified:  1",
		"Paths withdiff:  2",
		"Paths moved:     2",
		"Paths different: 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Tree(t *testing.T) {
	out := render(t, plainRenderer(Options{}), sampleResults(t), FormatTree)
	for _, want := range []string{
		"/",
		"├── etc",
		"│   ├── [*] motd",
		"│   └── [+] new.conf",
		"└── srv",
		"    ├── [>] new.dat <- /srv/old.dat",
		"    └── [<] old.dat -> /srv/new.dat",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_TreeASCII(t *testing.T) {
	out := render(t, plainRenderer(Options{ASCII: true}), sampleResults(t), FormatTree)
	if strings.Contains(out, "├") || strings.Contains(out, "└") {
		t.Errorf("ASCII tree contains box drawing characters:\n%s", out)
	}
	if !strings.Contains(out, "|-- etc") {
		t.Errorf("ASCII tree missing |-- connector:\n%s", out)
	}
}

func TestRender_TreeDescriptions(t *testing.T) {
	out := render(t, plainRenderer(Options{Desc: DescFull}), sampleResults(t), FormatTree)
	if !strings.Contains(out, "motd (content differs)") {
		t.Errorf("tree output missing change description:\n%s", out)
	}

	out = render(t, plainRenderer(Options{Desc: DescShort}), sampleResults(t), FormatTree)
	if !strings.Contains(out, "motd (content)") {
		t.Errorf("tree output missing change type:\n%s", out)
	}
}

func TestRender_EmptyDiffIsEmpty(t *testing.T) {
	res := domain.NewResults(nil, "/from", "/to", time.Now(), domain.WalkStats{})
	out := render(t, plainRenderer(Options{}), res, FormatDiff)
	if out != "" {
		t.Errorf("diff of empty results = %q, want empty", out)
	}
}
