package resource

import (
	"errors"
	"io"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// FileSource serves templates from an afero filesystem. Directory sources,
// in-memory sources and read-only fs.FS sources (embed.FS included) are all
// FileSources over different afero backends.
type FileSource struct {
	name string
	fs   afero.Fs
}

var (
	_ Source = (*FileSource)(nil)
	_ Lister = (*FileSource)(nil)
)

// NewFileSource serves templates below root on fsys. An empty root serves
// fsys as is.
func NewFileSource(name string, fsys afero.Fs, root string) *FileSource {
	if root != "" {
		fsys = afero.NewBasePathFs(fsys, root)
	}

	return &FileSource{name: name, fs: fsys}
}

// NewDirSource serves templates from a directory on the local disk.
func NewDirSource(dir string) *FileSource {
	return NewFileSource(dir, afero.NewReadOnlyFs(afero.NewOsFs()), dir)
}

// NewFSSource serves templates from an fs.FS such as an embed.FS.
func NewFSSource(name string, fsys fs.FS) *FileSource {
	return &FileSource{name: name, fs: afero.FromIOFS{FS: fsys}}
}

// Name returns the source name used in diagnostics.
func (s *FileSource) Name() string {
	return s.name
}

// Resource looks location up. It never returns nil.
func (s *FileSource) Resource(location string) Resource {
	key, ok := Key(location)
	if !ok {
		return Missing(s.name, location)
	}

	info, err := s.fs.Stat(key)
	switch {
	case err == nil && info.IsDir():
		return Missing(s.name, location)
	case err != nil && isNotExist(err):
		return Missing(s.name, location)
	}

	// A stat failure other than absence is deferred to Open.
	return &fileResource{source: s, key: key, location: location}
}

// List returns the keys of all regular files matching pattern, sorted.
func (s *FileSource) List(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**"
	}

	matches, err := doublestar.Glob(afero.NewIOFS(s.fs), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	return matches, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

type fileResource struct {
	source   *FileSource
	key      string
	location string
}

func (r *fileResource) Exists() bool { return true }

func (r *fileResource) Open() (io.ReadCloser, error) {
	return r.source.fs.Open(r.key)
}

func (r *fileResource) Location() string { return r.location }

func (r *fileResource) Description() string {
	return r.source.name + ": " + r.key
}
