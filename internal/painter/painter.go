// Package painter renders colored and styled text for the shell prompt.
// The working directory and the prompt text are painted separately so that
// the prompt can signal a failed command.
package painter

import (
	"strings"

	"github.com/fatih/color"

	"mysh/internal/config"
)

// Painter holds the styles of the prompt parts.
type Painter struct {
	path    *color.Color // style of the working directory
	failure *color.Color // style of the prompt text after a failure
}

// NewPainter creates a Painter from the prompt settings. Unknown or empty
// colour names leave the corresponding part unstyled.
func NewPainter(cfg config.Prompt) Painter {

	var pathAttrs []color.Attribute
	if attr, ok := resolveColor(cfg.PathColour); ok {
		pathAttrs = append(pathAttrs, attr)
	}
	if cfg.PathColourBold {
		pathAttrs = append(pathAttrs, color.Bold)
	}

	var failureAttrs []color.Attribute
	if attr, ok := resolveColor(cfg.FailureColour); ok {
		failureAttrs = append(failureAttrs, attr)
	}

	return Painter{
		path:    newColor(pathAttrs),
		failure: newColor(failureAttrs),
	}

}

func newColor(attrs []color.Attribute) *color.Color {
	if len(attrs) == 0 {
		return nil
	}
	return color.New(attrs...)
}

// resolveColor converts a color name into its foreground attribute.
func resolveColor(colour string) (color.Attribute, bool) {

	switch strings.ToLower(strings.TrimSpace(colour)) {
	case "black":
		return color.FgBlack, true
	case "red":
		return color.FgRed, true
	case "green":
		return color.FgGreen, true
	case "yellow":
		return color.FgYellow, true
	case "bright yellow":
		return color.FgHiYellow, true
	case "blue":
		return color.FgHiBlue, true
	case "magenta":
		return color.FgMagenta, true
	case "cyan":
		return color.FgCyan, true
	case "white":
		return color.FgWhite, true
	}

	return 0, false

}

// Path paints the working directory part of the prompt.
func (p Painter) Path(text string) string {
	return paint(p.path, text)
}

// Status paints the prompt text, highlighting it when the last command
// failed.
func (p Painter) Status(text string, succeeded bool) string {
	if succeeded {
		return text
	}
	return paint(p.failure, text)
}

func paint(c *color.Color, text string) string {
	if c == nil {
		return text
	}
	return c.Sprint(text)
}
