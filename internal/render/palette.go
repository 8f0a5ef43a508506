package render

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode controls ANSI color emission
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type sprintFunc func(a ...interface{}) string

// palette carries the per-role color functions. With color disabled
// every function degrades to plain fmt.Sprint.
type palette struct {
	green   sprintFunc
	red     sprintFunc
	yellow  sprintFunc
	cyan    sprintFunc
	blue    sprintFunc
	magenta sprintFunc
}

// newPalette builds a palette for the requested mode
func newPalette(mode ColorMode) *palette {
	enabled := false
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorNever:
		enabled = false
	default:
		enabled = isatty.IsTerminal(os.Stdout.Fd())
	}

	mk := func(attr color.Attribute) sprintFunc {
		c := color.New(attr)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}

	return &palette{
		green:   mk(color.FgGreen),
		red:     mk(color.FgRed),
		yellow:  mk(color.FgYellow),
		cyan:    mk(color.FgCyan),
		blue:    mk(color.FgBlue),
		magenta: mk(color.FgMagenta),
	}
}
