package tasks

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"cogengine/internal/services"
)

// globFiles expands a doublestar pattern into regular files, sorted by path.
func globFiles(component, pattern string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, services.Wrap(services.ErrConfiguration, component, "glob", fmt.Sprintf("invalid input_path pattern %q", pattern), doublestar.ErrBadPattern)
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "glob", fmt.Sprintf("expand %q", pattern), err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}
	slices.Sort(files)
	return files, nil
}
