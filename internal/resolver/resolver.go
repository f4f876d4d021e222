// Package resolver maps bare command names to executable files using an
// ordered list of search directories, the way a shell consults PATH.
package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrCommandNotFound is returned when no search directory holds an
// executable with the requested name.
var ErrCommandNotFound = errors.New("command not found")

// SearchPath is the ordered list of directories searched for commands.
type SearchPath []string

// FromEnv parses the PATH of the current process. An empty element stands
// for the current directory.
func FromEnv() SearchPath {
	return Parse(os.Getenv("PATH"))
}

// Parse splits a PATH style list into a SearchPath.
func Parse(list string) SearchPath {
	if list == "" {
		return nil
	}
	var dirs SearchPath
	for _, dir := range filepath.SplitList(list) {
		if dir == "" {
			dir = "."
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// Resolve returns the path that executing name would run. Names containing
// a slash are returned as they are; existence is checked when the process
// is started. Otherwise the first directory holding an executable regular
// file called name wins.
func (sp SearchPath) Resolve(name string) (string, error) {

	if name == "" {
		return "", ErrCommandNotFound
	}

	if strings.Contains(name, "/") {
		return name, nil
	}

	for _, dir := range sp {
		candidate := filepath.Join(dir, name)
		if dir == "." {
			// Join would drop the "./" and leave a bare name.
			candidate = "./" + name
		}
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", ErrCommandNotFound

}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
