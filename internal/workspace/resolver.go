package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// ErrNotFound is returned by resolvers when a candidate doesn't exist.
var ErrNotFound = errors.New("file not found")

// Resolver turns an import candidate into a canonical name and its contents.
// from is the canonical name of the importing file, or empty for the entry
// stylesheet when it has no name.
type Resolver interface {
	Resolve(candidate, from string) (canonical string, contents []byte, err error)
}

// DirResolver reads files from disk, looking next to the importing file first
// and then in each load path in order.
type DirResolver struct {
	LoadPaths []string
}

func (r *DirResolver) Resolve(candidate, from string) (string, []byte, error) {
	candidate = filepath.FromSlash(candidate)

	var dirs []string
	if filepath.IsAbs(candidate) {
		dirs = []string{""}
	} else {
		if from != "" {
			dirs = append(dirs, filepath.Dir(from))
		} else {
			dirs = append(dirs, ".")
		}
		dirs = append(dirs, r.LoadPaths...)
	}

	for _, dir := range dirs {
		full := filepath.Join(dir, candidate)

		contents, err := os.ReadFile(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || isDirErr(full) {
				continue
			}
			return "", nil, err
		}

		if abs, err := filepath.Abs(full); err == nil {
			full = abs
		}
		return full, contents, nil
	}

	return "", nil, ErrNotFound
}

func isDirErr(name string) bool {
	st, err := os.Stat(name)
	return err == nil && st.IsDir()
}

// MapResolver serves files from memory, keyed by slash-separated path. Paths
// are looked up relative to the importing file's directory first and then
// from the root.
type MapResolver map[string]string

func (r MapResolver) Resolve(candidate, from string) (string, []byte, error) {
	var tries []string
	if from != "" {
		tries = append(tries, path.Join(path.Dir(from), candidate))
	}
	tries = append(tries, path.Clean(candidate))

	for _, name := range tries {
		if contents, ok := r[name]; ok {
			return name, []byte(contents), nil
		}
	}

	return "", nil, ErrNotFound
}
