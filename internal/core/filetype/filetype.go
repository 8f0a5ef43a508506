package filetype

import (
	"path/filepath"
	"strings"

	"snapdiff/internal/domain"
)

// Category is the coarse classification used to pick a diff strategy
type Category string

const (
	CategoryText    Category = "text"
	CategoryBinary  Category = "binary"
	CategoryData    Category = "data"
	CategoryUnknown Category = "unknown"
)

// Info describes a detected file type
type Info struct {
	Category    Category
	Description string
}

// Detector resolves a path to a file type
type Detector interface {
	Detect(path string) Info
}

// textSuffixes maps lowercase extensions to text descriptions
var textSuffixes = map[string]string{
	".c":    "C source",
	".h":    "C header",
	".cc":   "C++ source",
	".cpp":  "C++ source",
	".go":   "Go source",
	".py":   "Python script",
	".rs":   "Rust source",
	".sh":   "shell script",
	".bash": "shell script",
	".pl":   "Perl script",
	".rb":   "Ruby script",
	".js":   "JavaScript source",
	".ts":   "TypeScript source",
	".java": "Java source",
	".sql":  "SQL script",
	".txt":  "ASCII text",
	".md":   "Markdown document",
	".rst":  "reStructuredText document",
	".html": "HTML document",
	".htm":  "HTML document",
	".xml":  "XML document",
	".css":  "CSS stylesheet",
	".json": "JSON data",
	".yaml": "YAML data",
	".yml":  "YAML data",
	".toml": "TOML data",
	".ini":  "INI configuration",
	".cfg":  "configuration file",
	".conf": "configuration file",
	".csv":  "CSV data",
	".tsv":  "TSV data",
	".log":  "log file",
	".spec": "RPM spec file",
	".repo": "repository configuration",
	".pem":  "PEM certificate or key",
	".crt":  "PEM certificate",
	".svg":  "SVG image",
	".tex":  "LaTeX document",
	".diff": "unified diff",
	".patch": "unified diff",
}

// binarySuffixes maps lowercase extensions to binary descriptions
var binarySuffixes = map[string]string{
	".so":    "shared object",
	".o":     "object file",
	".a":     "static library",
	".ko":    "kernel module",
	".bin":   "binary data",
	".exe":   "executable",
	".img":   "disk image",
	".iso":   "ISO image",
	".gz":    "gzip compressed data",
	".bz2":   "bzip2 compressed data",
	".xz":    "XZ compressed data",
	".zst":   "Zstandard compressed data",
	".lz4":   "LZ4 compressed data",
	".zip":   "Zip archive",
	".tar":   "tar archive",
	".rpm":   "RPM package",
	".deb":   "Debian package",
	".jar":   "Java archive",
	".pyc":   "Python bytecode",
	".png":   "PNG image data",
	".jpg":   "JPEG image data",
	".jpeg":  "JPEG image data",
	".gif":   "GIF image data",
	".webp":  "WebP image data",
	".ico":   "icon data",
	".pdf":   "PDF document",
	".sqlite": "SQLite database",
	".db":    "database file",
	".mp3":   "MPEG audio",
	".mp4":   "MPEG video",
	".ogg":   "Ogg media",
	".ttf":   "TrueType font",
	".otf":   "OpenType font",
	".woff":  "web font",
	".woff2": "web font",
	".wasm":  "WebAssembly binary",
}

// wellKnownNames maps exact basenames without a useful extension
var wellKnownNames = map[string]Info{
	"makefile":   {CategoryText, "makefile"},
	"gnumakefile": {CategoryText, "makefile"},
	"dockerfile": {CategoryText, "Dockerfile"},
	"readme":     {CategoryText, "ASCII text"},
	"license":    {CategoryText, "ASCII text"},
	"copying":    {CategoryText, "ASCII text"},
	"changelog":  {CategoryText, "ASCII text"},
	"authors":    {CategoryText, "ASCII text"},
	"fstab":      {CategoryText, "fstab configuration"},
	"passwd":     {CategoryText, "passwd database"},
	"group":      {CategoryText, "group database"},
	"shadow":     {CategoryText, "shadow database"},
	"hosts":      {CategoryText, "hosts file"},
	"crontab":    {CategoryText, "crontab"},
}

// SuffixDetector classifies by extension and well-known basenames.
// It never touches file content.
type SuffixDetector struct{}

// NewSuffixDetector returns the suffix-based detector
func NewSuffixDetector() *SuffixDetector {
	return &SuffixDetector{}
}

// Detect implements Detector
func (d *SuffixDetector) Detect(path string) Info {
	base := strings.ToLower(filepath.Base(path))

	if info, ok := wellKnownNames[base]; ok {
		return info
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext == base {
		// filepath.Ext returns the whole name for ".bashrc": a leading
		// dot with no further dot is not an extension
		ext = ""
	}
	if ext != "" {
		if desc, ok := textSuffixes[ext]; ok {
			return Info{CategoryText, desc}
		}
		if desc, ok := binarySuffixes[ext]; ok {
			return Info{CategoryBinary, desc}
		}
	}

	// dotfiles with no extension are usually configuration text
	if ext == "" && strings.HasPrefix(base, ".") {
		return Info{CategoryText, "configuration file"}
	}

	return Info{CategoryUnknown, "unknown"}
}

// DetectEntry resolves the type for a walked entry, giving non-regular
// nodes their kind description directly
func DetectEntry(d Detector, entry *domain.FsEntry) Info {
	if entry == nil {
		return Info{CategoryUnknown, "unknown"}
	}
	switch entry.Kind {
	case domain.KindRegular:
		return d.Detect(entry.Path)
	case domain.KindDirectory:
		return Info{CategoryData, entry.Kind.Description()}
	default:
		return Info{CategoryData, entry.Kind.Description()}
	}
}
