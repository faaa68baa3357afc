package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"foldervault/internal/domain/delivery"
	"foldervault/internal/pkg/apperr"
)

// File is a fully received download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// DownloadFile fetches one file. The body is read completely before
// returning so a broken transfer never looks like a short file.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (*File, error) {
	return c.fetch(ctx, "/api/client/files/"+url.PathEscape(fileID), fileID)
}

// DownloadFolder fetches the zip archive of a folder.
func (c *Client) DownloadFolder(ctx context.Context, folderID string) (*File, error) {
	return c.fetch(ctx, "/api/client/files/folder/"+url.PathEscape(folderID), delivery.FallbackArchiveName)
}

func (c *Client) fetch(ctx context.Context, path, fallback string) (*File, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransientIO, "Download interrupted", err)
	}
	return &File{
		Name:        FilenameFromDisposition(resp.Header.Get("Content-Disposition"), fallback),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// FilenameFromDisposition takes whatever follows the first "filename=" in a
// Content-Disposition header and strips quote characters. A missing header or
// marker yields fallback.
func FilenameFromDisposition(header, fallback string) string {
	const marker = "filename="
	i := strings.Index(header, marker)
	if i < 0 {
		return fallback
	}
	name := strings.ReplaceAll(header[i+len(marker):], `"`, "")
	if name == "" {
		return fallback
	}
	return name
}

// SaveTo writes the file into dir under its base name. The data lands in a
// temp file first and is renamed into place, so a failed write leaves nothing.
func (f *File) SaveTo(dir string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(f.Name, `\`, "/")))
	if name == "/" || name == "." || name == ".." {
		name = "download"
	}
	dst := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("rename to %s: %w", dst, err)
	}
	return dst, nil
}

// Preview is either an inline image or the reason none is available.
type Preview struct {
	Name        string
	Data        []byte
	ContentType string
	Unavailable delivery.Reason
}

func (p *Preview) Available() bool { return p.Unavailable == "" }

// PreviewFile fetches an inline preview. Denials, missing files and non-image
// files come back as an Unavailable preview, not an error.
func (c *Client) PreviewFile(ctx context.Context, fileID string) (*Preview, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/client/files/preview/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env, err := decodeErrorEnvelope(resp)
		if reason, ok := unavailableReason(env, err); ok {
			return &Preview{Unavailable: reason}, nil
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransientIO, "Preview interrupted", err)
	}
	return &Preview{
		Name:        FilenameFromDisposition(resp.Header.Get("Content-Disposition"), fileID),
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func unavailableReason(env *envelopeError, err error) (delivery.Reason, bool) {
	if env != nil && len(env.Details) > 0 {
		var d struct {
			Reason delivery.Reason `json:"reason"`
		}
		if json.Unmarshal(env.Details, &d) == nil && d.Reason != "" {
			return d.Reason, true
		}
	}
	switch apperr.KindOf(err) {
	case apperr.KindUnsupportedPreview:
		return delivery.ReasonWrongType, true
	case apperr.KindForbidden:
		return delivery.ReasonAccessDenied, true
	case apperr.KindNotFound:
		return delivery.ReasonNotFound, true
	}
	return "", false
}
