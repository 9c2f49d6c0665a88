package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// File is one raw corpus module as read from a Source.
type File struct {
	Name string
	Data []byte
}

// ReadError reports a single file that could not be read. Loading continues
// past it.
type ReadError struct {
	Name string
	Err  error
}

// Source enumerates corpus files. Files must be returned sorted by name.
// A non-nil error means the corpus location itself is unusable; unreadable
// individual files are reported through the ReadError slice instead.
type Source interface {
	Files(ctx context.Context) ([]File, []ReadError, error)
	Location() string
}

// FSSource reads every *.json file at the root of an fs.FS.
type FSSource struct {
	FS   fs.FS
	Name string
}

// DirSource reads *.json files from a directory on disk.
func DirSource(dir string) *FSSource {
	return &FSSource{FS: os.DirFS(dir), Name: dir}
}

func (s *FSSource) Location() string {
	return s.Name
}

func (s *FSSource) Files(ctx context.Context) ([]File, []ReadError, error) {
	entries, err := fs.ReadDir(s.FS, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("read library dir %s: %w", s.Name, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make([]File, 0, len(names))
	var failed []ReadError
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		data, err := fs.ReadFile(s.FS, name)
		if err != nil {
			failed = append(failed, ReadError{Name: name, Err: err})
			continue
		}
		files = append(files, File{Name: name, Data: data})
	}
	return files, failed, nil
}

// moduleKey derives the module name from a file name: extension dropped and
// a leading "sofie_" or "sofia_" removed, case-insensitively.
func moduleKey(fileName string) string {
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))
	lower := strings.ToLower(stem)
	for _, prefix := range []string{"sofie_", "sofia_"} {
		if strings.HasPrefix(lower, prefix) {
			return stem[len(prefix):]
		}
	}
	return stem
}
