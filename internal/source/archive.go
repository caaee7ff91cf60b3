package source

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/pageerr"
)

// Archive is a zip or cbz file. Image entries at any depth are pages,
// ordered naturally by their path inside the archive.
type Archive struct {
	path  string
	zr    *zip.ReadCloser
	files []*zip.File
}

var _ Source = (*Archive)(nil)

// OpenArchive reads the archive directory.
func OpenArchive(p string) (*Archive, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, pageerr.Archive("open archive", err)
	}

	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || hiddenEntry(f.Name) || !decode.IsImageName(f.Name) {
			continue
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return naturalLess(files[i].Name, files[j].Name) })

	return &Archive{path: p, zr: zr, files: files}, nil
}

// hiddenEntry skips resource forks and dot files some archivers add.
func hiddenEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}

func (a *Archive) Path() string { return a.path }

func (a *Archive) Kind() Kind { return KindArchive }

func (a *Archive) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	out := make([]Entry, len(a.files))
	for i, f := range a.files {
		out[i] = Entry{Name: f.Name, InnerPath: f.Name}
	}
	return out, nil
}

// Open is safe to call concurrently; zip entries read through ReadAt.
func (a *Archive) Open(ctx context.Context, index int) (io.ReadCloser, error) {
	if err := checkIndex(index, len(a.files)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	rc, err := a.files[index].Open()
	if err != nil {
		return nil, pageerr.Archive("open entry "+a.files[index].Name, err)
	}
	return rc, nil
}

func (a *Archive) Close() error {
	return a.zr.Close()
}
