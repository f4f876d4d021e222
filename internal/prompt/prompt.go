// Package prompt builds the interactive mysh prompt: the current working
// directory, with the user's home abbreviated as "~", followed by the
// configured prompt text.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"mysh/internal/painter"
)

// Update returns the prompt for the next line. Paths deeper than three
// levels are shortened to ~/.../parent/child. The prompt text is painted
// as a failure when the previous command did not succeed. If the working
// directory cannot be determined only the text is shown.
func Update(painter painter.Painter, text string, succeeded bool) string {

	status := painter.Status(text, succeeded)

	currPath, err := os.Getwd()
	if err != nil {
		return status
	}

	return fmt.Sprintf("%s %s", painter.Path(Abbreviate(currPath)), status)

}

// Abbreviate replaces the home directory prefix of path with "~" and
// shortens long home-relative paths.
func Abbreviate(path string) string {

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	if path != home && !strings.HasPrefix(path, home+"/") {
		return path
	}
	path = "~" + strings.TrimPrefix(path, home)

	split := strings.Split(path, "/")
	if len(split) > 3 {
		path = fmt.Sprintf("~/.../%s/%s", split[len(split)-2], split[len(split)-1])
	}

	return path

}
