package render

import (
	"fmt"
	"strings"

	"snapdiff/internal/domain"
)

// diff renders git-style unified diffs for every record carrying a
// textual content diff, optionally preceded by a diffstat block
func (r *Renderer) diff(res *domain.FsDiffResults) string {
	records := withUnifiedDiffs(res)
	if len(records) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(records))
	for _, rec := range records {
		if one := r.renderUnified(rec); one != "" {
			rendered = append(rendered, one)
		}
	}

	out := strings.Join(rendered, "\n")
	if r.opts.DiffStat {
		if stat := r.diffStat(records); stat != "" {
			out = stat + "\n\n" + out
		}
	}
	return out
}

// renderUnified formats one record's unified diff with git-style
// headers and per-line coloring
func (r *Renderer) renderUnified(rec *domain.FsDiffRecord) string {
	body := strings.Split(strings.TrimSuffix(rec.ContentDiff.Body, "\n"), "\n")
	// The stored body leads with the --- / +++ file headers; they are
	// re-rendered below with timestamps
	if len(body) < 2 {
		return ""
	}
	body = body[2:]

	added := rec.NewEntry != nil && rec.OldEntry == nil
	deleted := rec.OldEntry != nil && rec.NewEntry == nil

	fromPath := "a" + rec.Path
	toPath := "b" + rec.Path

	lines := []string{fmt.Sprintf("diff %s %s", fromPath, toPath)}
	if added {
		lines = append(lines, "new file mode "+formatMode(rec.NewEntry))
		fromPath = "/dev/null"
	}
	if deleted {
		lines = append(lines, "deleted file mode "+formatMode(rec.OldEntry))
		toPath = "/dev/null"
	}

	lines = append(lines,
		fmt.Sprintf("--- %s\t%s", fromPath, formatMtime(rec.OldEntry)),
		fmt.Sprintf("+++ %s\t%s", toPath, formatMtime(rec.NewEntry)),
	)

	for _, line := range body {
		switch {
		case strings.HasPrefix(line, "-"):
			lines = append(lines, r.pal.red(line))
		case strings.HasPrefix(line, "+"):
			lines = append(lines, r.pal.green(line))
		case strings.HasPrefix(line, "@@"):
			lines = append(lines, r.hunkHeader(line))
		default:
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// hunkHeader colors the @@ range marker, leaving any trailing section
// heading uncolored
func (r *Renderer) hunkHeader(line string) string {
	idx := strings.Index(line, " @@")
	if idx < 0 {
		return line
	}
	return r.pal.cyan(line[:idx+3]) + strings.TrimRight(line[idx+3:], " ")
}

// diffStat renders a diffstat-style block for records with textual diffs
func (r *Renderer) diffStat(records []*domain.FsDiffRecord) string {
	if len(records) == 0 {
		return ""
	}

	pathWidth := 0
	for _, rec := range records {
		if n := len(strings.TrimPrefix(rec.Path, "/")); n > pathWidth {
			pathWidth = n
		}
	}

	var (
		lines      []string
		adds, dels int
	)
	plus := r.pal.green("+")
	minus := r.pal.red("-")
	for _, rec := range records {
		path := strings.TrimPrefix(rec.Path, "/")
		added, removed := rec.ContentDiff.Added, rec.ContentDiff.Removed
		adds += added
		dels += removed
		lines = append(lines, fmt.Sprintf(" %s%s | %4d %s%s",
			path, strings.Repeat(" ", pathWidth-len(path)),
			added+removed,
			strings.Repeat(plus, added), strings.Repeat(minus, removed)))
	}

	plural := ""
	if len(records) > 1 {
		plural = "s"
	}
	trailer := fmt.Sprintf(" %d file%s changed, %d insertions(+), %d deletions(-)",
		len(records), plural, adds, dels)
	return strings.Join(lines, "\n") + "\n" + trailer
}
