package painter

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"mysh/internal/config"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	old := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = old })
}

func TestPaintPath(t *testing.T) {
	withColor(t, true)

	p := NewPainter(config.Prompt{PathColour: "green"})
	assert.Equal(t, "\x1b[32m~/src\x1b[0m", p.Path("~/src"))

	p = NewPainter(config.Prompt{PathColour: "green", PathColourBold: true})
	assert.Equal(t, "\x1b[32;1m~/src\x1b[0m", p.Path("~/src"))
}

func TestPaintStatus(t *testing.T) {
	withColor(t, true)

	p := NewPainter(config.Prompt{FailureColour: "Red"})
	assert.Equal(t, "mysh> ", p.Status("mysh> ", true))
	assert.Equal(t, "\x1b[31mmysh> \x1b[0m", p.Status("mysh> ", false))
}

func TestPaintUnknownColour(t *testing.T) {
	withColor(t, true)

	p := NewPainter(config.Prompt{PathColour: "octarine", FailureColour: ""})
	assert.Equal(t, "dir", p.Path("dir"))
	assert.Equal(t, "mysh> ", p.Status("mysh> ", false))
}

func TestPaintDisabled(t *testing.T) {
	withColor(t, false)

	p := NewPainter(config.Prompt{PathColour: "blue", FailureColour: "red"})
	assert.Equal(t, "dir", p.Path("dir"))
	assert.Equal(t, "mysh> ", p.Status("mysh> ", false))
}
