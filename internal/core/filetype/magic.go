package filetype

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MagicDetector classifies by content sniffing, falling back to the
// suffix detector when the file cannot be read
type MagicDetector struct {
	fallback *SuffixDetector
}

// NewMagicDetector returns the content-sniffing detector
func NewMagicDetector() *MagicDetector {
	return &MagicDetector{fallback: NewSuffixDetector()}
}

// Detect implements Detector. The path must be readable on the host;
// unreadable files degrade to suffix detection.
func (d *MagicDetector) Detect(path string) Info {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return d.fallback.Detect(path)
	}

	info := Info{
		Category:    categoryForMIME(mtype),
		Description: strings.TrimSuffix(mtype.String(), "; charset=utf-8"),
	}

	// octet-stream carries no information; a suffix match is better
	if mtype.String() == "application/octet-stream" {
		if fb := d.fallback.Detect(path); fb.Category != CategoryUnknown {
			return fb
		}
		info.Description = "binary data"
	}
	return info
}

// categoryForMIME maps a sniffed MIME type onto a diff category
func categoryForMIME(mtype *mimetype.MIME) Category {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return CategoryText
		}
	}
	s := mtype.String()
	switch {
	case strings.HasPrefix(s, "text/"):
		return CategoryText
	case s == "application/json" || s == "application/xml" ||
		strings.HasSuffix(s, "+json") || strings.HasSuffix(s, "+xml"):
		return CategoryText
	default:
		return CategoryBinary
	}
}

// ForOptions selects the detector matching the configured strategy
func ForOptions(useMagic bool) Detector {
	if useMagic {
		return NewMagicDetector()
	}
	return NewSuffixDetector()
}
