// Package delivery turns authorized catalog entries into byte streams:
// single files, whole-folder archives and inline image previews.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"foldervault/internal/domain/access"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/storage"
)

const (
	FallbackArchiveName = "folder_files.zip"

	spoolPattern = "folder-*.zip"
)

// Resolver looks entries up and applies the permission model.
type Resolver interface {
	ResolveFile(ctx context.Context, caller access.Caller, id string, required access.Capability) (*catalog.File, error)
	ResolveFolder(ctx context.Context, caller access.Caller, id string, required access.Capability) (*catalog.Folder, error)
}

// Download is a ready-to-send stream. Body must be closed.
type Download struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

type Gateway struct {
	resolver Resolver
	blobs    storage.Store
	tempDir  string
}

// NewGateway builds a gateway. Archives are spooled under tempDir, or the
// system temp dir when empty.
func NewGateway(resolver Resolver, blobs storage.Store, tempDir string) *Gateway {
	return &Gateway{resolver: resolver, blobs: blobs, tempDir: tempDir}
}

// DownloadFile requires Download on the file's folder.
func (g *Gateway) DownloadFile(ctx context.Context, caller access.Caller, fileID string) (*Download, error) {
	file, err := g.resolver.ResolveFile(ctx, caller, fileID, access.Download)
	if err != nil {
		return nil, err
	}
	body, err := g.open(ctx, file)
	if err != nil {
		return nil, err
	}
	return &Download{
		Name:        file.Name,
		ContentType: contentTypeOr(file.ContentType, "application/octet-stream"),
		Size:        file.Size,
		Body:        body,
	}, nil
}

// DownloadFolder archives every file the folder holds when the call is
// made. The archive is fully built before anything is returned, so a
// failure midway never yields a truncated zip.
func (g *Gateway) DownloadFolder(ctx context.Context, caller access.Caller, folderID string) (*Download, error) {
	folder, err := g.resolver.ResolveFolder(ctx, caller, folderID, access.Download)
	if err != nil {
		return nil, err
	}

	spool, err := os.CreateTemp(g.tempDir, spoolPattern)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransientIO, "Could not prepare archive", err)
	}
	fail := func(err error) (*Download, error) {
		spool.Close()
		os.Remove(spool.Name())
		log.Warn().Err(err).Str("folder_id", folderID).Msg("archive build failed")
		if apperr.KindOf(err) == apperr.KindTransientIO {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindTransientIO, "Could not build archive", err)
	}

	if err := g.writeArchive(ctx, spool, folder.Files); err != nil {
		return fail(err)
	}
	size, err := spool.Seek(0, io.SeekCurrent)
	if err != nil {
		return fail(err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}

	return &Download{
		Name:        ArchiveName(folder.Name),
		ContentType: "application/zip",
		Size:        size,
		Body:        &tempFile{File: spool},
	}, nil
}

func (g *Gateway) writeArchive(ctx context.Context, w io.Writer, files []catalog.File) error {
	zw := zip.NewWriter(w)
	names := newEntryNames()

	for i := range files {
		f := &files[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := g.blobs.Open(ctx, f.StorageKey)
		if errors.Is(err, storage.ErrObjectNotFound) {
			// Deleted after the folder was read.
			log.Warn().Str("file_id", f.ID).Msg("archive: skipping file without content")
			continue
		}
		if err != nil {
			return err
		}

		method := zip.Deflate
		if f.IsImage() {
			method = zip.Store
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names.next(f.Name),
			Method:   method,
			Modified: f.CreatedAt,
		})
		if err != nil {
			body.Close()
			return err
		}
		_, err = io.Copy(entry, body)
		body.Close()
		if err != nil {
			return fmt.Errorf("archive %s: %w", f.ID, err)
		}
	}
	return zw.Close()
}

func (g *Gateway) open(ctx context.Context, f *catalog.File) (io.ReadCloser, error) {
	body, err := g.blobs.Open(ctx, f.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, catalog.ErrFileNotFound
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransientIO, "Could not read file", err)
	}
	return body, nil
}

// ArchiveName derives the zip name from a folder name.
func ArchiveName(folderName string) string {
	s := slug.Make(folderName)
	if s == "" {
		return FallbackArchiveName
	}
	return s + ".zip"
}

// entryNames hands out unique zip entry names: "a.txt", "a (1).txt", ...
type entryNames struct {
	used map[string]bool
}

func newEntryNames() *entryNames {
	return &entryNames{used: map[string]bool{}}
}

func (e *entryNames) next(name string) string {
	base := sanitizeEntryName(name)
	if !e.used[base] {
		e.used[base] = true
		return base
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !e.used[candidate] {
			e.used[candidate] = true
			return candidate
		}
	}
}

func sanitizeEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.ReplaceAll(name, "\x00", "")
	name = path.Base(path.Clean("/" + name))
	if name == "/" || name == "." || name == "" {
		return "file"
	}
	return name
}

func contentTypeOr(ct, fallback string) string {
	if strings.TrimSpace(ct) == "" {
		return fallback
	}
	return ct
}

// tempFile removes the spooled archive once the caller is done with it.
type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	if rmErr := os.Remove(t.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
