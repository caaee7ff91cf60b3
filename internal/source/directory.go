package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/pageerr"
)

// Directory is a folder of image files. Subfolders are not descended.
// The listing is fixed when the folder is opened; reopen it to pick up
// added or removed files.
type Directory struct {
	path  string
	files []string
}

var _ Source = (*Directory)(nil)

// OpenDirectory lists the images in path.
func OpenDirectory(path string) (*Directory, error) {
	des, err := os.ReadDir(path)
	if err != nil {
		return nil, pageerr.Archive("read directory", err)
	}
	var files []string
	for _, de := range des {
		if de.IsDir() || !decode.IsImageName(de.Name()) {
			continue
		}
		files = append(files, de.Name())
	}
	sort.Slice(files, func(i, j int) bool { return naturalLess(files[i], files[j]) })
	return &Directory{path: path, files: files}, nil
}

func (d *Directory) Path() string { return d.path }

func (d *Directory) Kind() Kind { return KindDirectory }

func (d *Directory) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	out := make([]Entry, len(d.files))
	for i, name := range d.files {
		out[i] = Entry{Name: name, InnerPath: filepath.Join(d.path, name)}
	}
	return out, nil
}

func (d *Directory) Open(ctx context.Context, index int) (io.ReadCloser, error) {
	if err := checkIndex(index, len(d.files)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	name := d.files[index]
	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pageerr.NotFound(index)
		}
		return nil, pageerr.Archive("open page", err)
	}
	return f, nil
}

func (d *Directory) Close() error { return nil }

// SingleImage is one image file presented as a one-page book.
type SingleImage struct {
	path string
}

var _ Source = (*SingleImage)(nil)

// OpenSingleImage wraps a lone image file.
func OpenSingleImage(path string) (*SingleImage, error) {
	return &SingleImage{path: path}, nil
}

func (s *SingleImage) Path() string { return s.path }

func (s *SingleImage) Kind() Kind { return KindSingleImage }

func (s *SingleImage) Entries(ctx context.Context) ([]Entry, error) {
	return []Entry{{Name: filepath.Base(s.path), InnerPath: s.path}}, nil
}

func (s *SingleImage) Open(ctx context.Context, index int) (io.ReadCloser, error) {
	if err := checkIndex(index, 1); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, pageerr.Archive("open image", err)
	}
	return f, nil
}

func (s *SingleImage) Close() error { return nil }
