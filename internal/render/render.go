package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"snapdiff/internal/domain"
)

// Format names a report output format
type Format string

const (
	FormatPaths   Format = "paths"
	FormatFull    Format = "full"
	FormatShort   Format = "short"
	FormatJSON    Format = "json"
	FormatDiff    Format = "diff"
	FormatSummary Format = "summary"
	FormatTree    Format = "tree"
)

// Formats lists the supported output formats in presentation order
var Formats = []Format{
	FormatPaths, FormatFull, FormatShort, FormatJSON,
	FormatDiff, FormatSummary, FormatTree,
}

// ParseFormat maps a user supplied name onto a Format
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown output format %q", domain.ErrOptionConflict, s)
}

// DescMode controls per-node descriptions in the tree format
type DescMode string

const (
	DescNone  DescMode = "none"
	DescShort DescMode = "short"
	DescFull  DescMode = "full"
)

// ParseDescMode maps a user supplied name onto a DescMode
func ParseDescMode(s string) (DescMode, error) {
	switch DescMode(s) {
	case DescNone, DescShort, DescFull:
		return DescMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown description mode %q", domain.ErrOptionConflict, s)
}

// Options configures a Renderer
type Options struct {
	// Color controls ANSI escape emission
	Color ColorMode

	// Pretty indents JSON output
	Pretty bool

	// DiffStat prepends a diffstat block to diff and summary output
	DiffStat bool

	// Desc selects tree node descriptions
	Desc DescMode

	// ASCII forces ASCII tree connectors instead of box drawing
	ASCII bool
}

// Renderer formats comparison results for terminal or machine consumption
type Renderer struct {
	opts Options
	pal  *palette
}

// New constructs a Renderer for the given options
func New(opts Options) *Renderer {
	if opts.Desc == "" {
		opts.Desc = DescNone
	}
	return &Renderer{opts: opts, pal: newPalette(opts.Color)}
}

// Render writes results to w in the requested format
func (r *Renderer) Render(w io.Writer, res *domain.FsDiffResults, format Format) error {
	var out string
	switch format {
	case FormatPaths:
		out = strings.Join(res.Paths(), "\n")
	case FormatFull:
		out = r.full(res)
	case FormatShort:
		out = r.short(res)
	case FormatJSON:
		encoded, err := r.json(res)
		if err != nil {
			return err
		}
		out = encoded
	case FormatDiff:
		out = r.diff(res)
	case FormatSummary:
		out = r.summary(res)
	case FormatTree:
		out = r.tree(res)
	default:
		return fmt.Errorf("%w: unknown output format %q", domain.ErrOptionConflict, format)
	}
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

func formatMtime(e *domain.FsEntry) string {
	if e == nil {
		return ""
	}
	return e.ModTime.Format("2006-01-02 15:04:05")
}

func formatMode(e *domain.FsEntry) string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%04o", e.Mode.Perm())
}

func formatOwner(e *domain.FsEntry) string {
	if e == nil {
		return ""
	}
	return e.Owner()
}

// full renders every record field, one block per record
func (r *Renderer) full(res *domain.FsDiffResults) string {
	blocks := make([]string, 0, len(res.Records))
	for i := range res.Records {
		rec := &res.Records[i]
		var b strings.Builder

		fmt.Fprintf(&b, "Path: %s\n", rec.Path)
		fmt.Fprintf(&b, "  kind: %s\n", rec.Kind)
		if rec.PairPath != "" {
			switch rec.Kind {
			case domain.ChangeMovedFrom:
				fmt.Fprintf(&b, "  moved_to: %s\n", rec.PairPath)
			case domain.ChangeMovedTo:
				fmt.Fprintf(&b, "  moved_from: %s\n", rec.PairPath)
			}
		}
		if len(rec.Changes) > 0 {
			b.WriteString("  changes:\n")
			for _, chg := range rec.Changes {
				fmt.Fprintf(&b, "    %s: %s\n", chg.Type, chg.Description)
			}
		}
		fmt.Fprintf(&b, "  file_type: %s\n", rec.FileType)
		fmt.Fprintf(&b, "  file_type_desc: %s\n", rec.FileTypeDesc)
		fmt.Fprintf(&b, "  size_old: %d\n", rec.SizeOld())
		fmt.Fprintf(&b, "  size_new: %d\n", rec.SizeNew())
		fmt.Fprintf(&b, "  size_delta: %d\n", rec.SizeDelta())
		fmt.Fprintf(&b, "  mode_old: %s\n", formatMode(rec.OldEntry))
		fmt.Fprintf(&b, "  mode_new: %s\n", formatMode(rec.NewEntry))
		fmt.Fprintf(&b, "  owner_old: %s\n", formatOwner(rec.OldEntry))
		fmt.Fprintf(&b, "  owner_new: %s\n", formatOwner(rec.NewEntry))
		fmt.Fprintf(&b, "  mtime_old: %s\n", formatMtime(rec.OldEntry))
		fmt.Fprintf(&b, "  mtime_new: %s\n", formatMtime(rec.NewEntry))
		fmt.Fprintf(&b, "  content_changed: %t\n", rec.ContentChanged())
		fmt.Fprintf(&b, "  metadata_changed: %t\n", rec.MetadataChanged())
		fmt.Fprintf(&b, "  has_content_diff: %t", rec.ContentDiff != nil)
		if rec.ContentDiff != nil && rec.ContentDiff.Summary != "" {
			fmt.Fprintf(&b, "\n  content_diff_summary: %s", rec.ContentDiff.Summary)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// short renders a brief per-record block
func (r *Renderer) short(res *domain.FsDiffResults) string {
	blocks := make([]string, 0, len(res.Records))
	for i := range res.Records {
		rec := &res.Records[i]
		var b strings.Builder

		fmt.Fprintf(&b, "Path: %s\n", rec.Path)
		fmt.Fprintf(&b, "  kind: %s\n", rec.Kind)
		fmt.Fprintf(&b, "  file_type: %s\n", rec.FileType)
		fmt.Fprintf(&b, "  file_type_desc: %s", rec.FileTypeDesc)
		if len(rec.Changes) > 0 {
			descs := make([]string, 0, len(rec.Changes))
			for _, chg := range rec.Changes {
				descs = append(descs, chg.Description)
			}
			fmt.Fprintf(&b, "\n  changes: %s", strings.Join(descs, ", "))
		}
		if rec.ContentDiff != nil && rec.ContentDiff.Summary != "" {
			fmt.Fprintf(&b, "\n  content_diff_summary: %s", rec.ContentDiff.Summary)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// json renders the record list as a JSON array
func (r *Renderer) json(res *domain.FsDiffResults) (string, error) {
	var (
		data []byte
		err  error
	)
	if r.opts.Pretty {
		data, err = json.MarshalIndent(res.Records, "", "    ")
	} else {
		data, err = json.Marshal(res.Records)
	}
	if err != nil {
		return "", fmt.Errorf("encoding records: %w", err)
	}
	return string(data), nil
}

// summary renders the per-kind change counts
func (r *Renderer) summary(res *domain.FsDiffResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total changes:     %d\n", res.Len())
	fmt.Fprintf(&b, "  Paths %s %d\n", r.pal.green("added:    "), res.Counts.Added)
	fmt.Fprintf(&b, "  Paths %s %d\n", r.pal.red("removed:  "), res.Counts.Removed)
	fmt.Fprintf(&b, "  Paths %s %d\n", r.pal.yellow("modified: "), res.Counts.Modified)
	fmt.Fprintf(&b, "  Paths %s %d\n", r.pal.magenta("withdiff: "), res.Counts.WithDiff)
	fmt.Fprintf(&b, "  Paths %s %d\n", r.pal.cyan("moved:    "), res.Counts.Moved)
	fmt.Fprintf(&b, "  Paths %s %d", r.pal.blue("different:"), res.Counts.TypeChanged)

	if r.opts.DiffStat {
		if stat := r.diffStat(withUnifiedDiffs(res)); stat != "" {
			b.WriteString("\n\n" + stat)
		}
	}
	return b.String()
}

// withUnifiedDiffs selects the records carrying a textual diff body
func withUnifiedDiffs(res *domain.FsDiffResults) []*domain.FsDiffRecord {
	var out []*domain.FsDiffRecord
	for i := range res.Records {
		rec := &res.Records[i]
		if rec.ContentDiff != nil && rec.ContentDiff.Kind == domain.ContentDiffUnified &&
			rec.ContentDiff.Body != "" {
			out = append(out, rec)
		}
	}
	return out
}
