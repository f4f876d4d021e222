// Package wildcard expands glob patterns in a token list into the sorted
// names of the files they match.
package wildcard

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const metaChars = "*?"

// ErrAmbiguousRedirect reports a redirection target pattern matching more
// than one file.
var ErrAmbiguousRedirect = errors.New("ambiguous redirect")

// Expander performs single pass, left to right pattern expansion against a
// filesystem. Relative patterns are resolved against the working directory
// of the filesystem (the process working directory for afero.OsFs). A
// pattern starting with "~/" is looked up below the home directory.
type Expander struct {
	fs   afero.Fs
	home string
}

// New returns an Expander reading from fs. A nil fs means the host
// filesystem.
func New(fs afero.Fs) *Expander {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	home, _ := os.UserHomeDir()
	return &Expander{fs: fs, home: home}
}

// Expand returns a new token list in which every token containing '*' or
// '?' is replaced by its sorted matches. Tokens without matches, and
// malformed patterns, are kept literally. Names produced by an expansion are
// never expanded again.
func (e *Expander) Expand(tokens []string) []string {

	expanded := make([]string, 0, len(tokens))

	for _, token := range tokens {

		if !IsPattern(token) {
			expanded = append(expanded, token)
			continue
		}

		matches := e.match(token)
		if len(matches) == 0 {
			expanded = append(expanded, token)
			continue
		}

		expanded = append(expanded, matches...)

	}

	return expanded

}

// ExpandTarget expands a redirection target. A pattern must match at most
// one file; without a match the target is kept literally.
func (e *Expander) ExpandTarget(target string) (string, error) {

	if !IsPattern(target) {
		return target, nil
	}

	matches := e.match(target)
	switch len(matches) {
	case 0:
		return target, nil
	case 1:
		return matches[0], nil
	}

	return "", ErrAmbiguousRedirect

}

// IsPattern reports whether token contains a wildcard character.
func IsPattern(token string) bool {
	return strings.ContainsAny(token, metaChars)
}

// match globs pattern and drops hidden entries the pattern did not name
// explicitly, the way glob(3) does. The result is sorted on the whole path.
func (e *Expander) match(pattern string) []string {

	if e.home != "" && strings.HasPrefix(pattern, "~/") {
		pattern = e.home + pattern[1:]
	}

	matches, err := afero.Glob(e.fs, pattern)
	if err != nil {
		return nil
	}

	visible := matches
	if !strings.HasPrefix(filepath.Base(pattern), ".") {
		visible = matches[:0]
		for _, match := range matches {
			if !strings.HasPrefix(filepath.Base(match), ".") {
				visible = append(visible, match)
			}
		}
	}

	// afero.Glob sorts one directory level at a time.
	sort.Strings(visible)

	return visible

}
