package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foldervault/internal/config"
	"foldervault/internal/database"
	"foldervault/internal/domain/access"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/domain/delivery"
	"foldervault/internal/domain/user"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/server"
	"foldervault/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	api      *httptest.Server
	admin    *Client
	consult  *Client
	stranger *Client
	folder   *catalog.Folder
	files    map[string]string // name -> id
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("file:client_" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, server.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppEnv:            "test",
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		UploadMaxFileSize: 1 << 20,
		ArchiveTempDir:    t.TempDir(),
		Paging: config.PagingConfig{
			AdminFolderPageSize:  9,
			ClientFolderPageSize: 6,
			FilePageSize:         2,
		},
	}
	srv := server.New(cfg, db, storage.NewMemoryStore())
	api := httptest.NewServer(srv.Engine)
	t.Cleanup(api.Close)

	ctx := context.Background()
	mk := func(name string, role access.Role) (*user.User, *Client) {
		u, err := srv.Users.Create(ctx, user.CreateInput{Name: name, Email: name + "@example.com", Role: string(role)})
		require.NoError(t, err)
		token, err := srv.JWT.GenerateToken(u.ID, string(role))
		require.NoError(t, err)
		id, err := IdentityFromToken(token)
		require.NoError(t, err)
		return u, New(api.URL, id, api.Client())
	}
	adminUser, admin := mk("admin", access.RoleAdmin)
	c1, consult := mk("c1", access.RoleClient)
	_, stranger := mk("c2", access.RoleClient)

	caller := access.Caller{UserID: adminUser.ID, Role: access.RoleAdmin}
	folder, err := srv.Catalog.CreateFolder(ctx, caller, catalog.CreateFolderInput{
		Name: "Reports", SharedWith: c1.ID, Permission: "consult",
	})
	require.NoError(t, err)

	payload := func(name string, data []byte) catalog.Payload {
		return catalog.Payload{
			Name: name,
			Size: int64(len(data)),
			Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		}
	}
	results, err := srv.Catalog.UploadFiles(ctx, caller, folder.ID, []catalog.Payload{
		payload("q1.pdf", []byte("%PDF-1.4 q1")),
		payload("chart.png", pngBytes),
		payload("notes.txt", []byte("hello")),
	})
	require.NoError(t, err)
	files := map[string]string{}
	for _, r := range results {
		require.NoError(t, r.Err)
		files[r.Name] = r.File.ID
	}

	return &fixture{api: api, admin: admin, consult: consult, stranger: stranger, folder: folder, files: files}
}

func TestIdentityFromToken(t *testing.T) {
	_, err := IdentityFromToken("  ")
	assert.ErrorIs(t, err, ErrNoCredential)

	_, err = IdentityFromToken("not-a-jwt")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestNoCredential_FailsBeforeRequest(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer ts.Close()

	c := New(ts.URL, Identity{Role: access.RoleClient}, ts.Client())
	_, err := c.ListFolders(context.Background(), "", 1)
	assert.ErrorIs(t, err, ErrNoCredential)
	_, err = c.DownloadFile(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoCredential)
	_, err = c.PreviewFile(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Zero(t, hits)
}

func TestListFolders_ByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page, err := f.admin.ListFolders(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Folders, 1)
	assert.NotEmpty(t, page.Folders[0].Shares)

	page, err = f.consult.ListFolders(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Folders, 1)
	assert.Equal(t, access.Consult, page.Folders[0].Permission)
	assert.Equal(t, 3, page.Folders[0].FileCount)

	page, err = f.stranger.ListFolders(ctx, "", 1)
	require.NoError(t, err)
	assert.Empty(t, page.Folders)
	assert.Equal(t, 0, page.Pagination.Total)
}

func TestListFolders_Query(t *testing.T) {
	f := newFixture(t)

	page, err := f.consult.ListFolders(context.Background(), "CHART", 1)
	require.NoError(t, err)
	require.Len(t, page.Folders, 1)
	require.Len(t, page.Folders[0].Files, 1)
	assert.Equal(t, "chart.png", page.Folders[0].Files[0].Name)
}

func TestListFiles_Pages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.consult.ListFiles(ctx, f.folder.ID, "", 1)
	require.NoError(t, err)
	assert.Len(t, first.Files, 2)
	assert.Equal(t, 2, first.Pagination.TotalPages)

	second, err := f.consult.ListFiles(ctx, f.folder.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, second.Files, 1)
	assert.Equal(t, "notes.txt", second.Files[0].Name)

	_, err = f.stranger.ListFiles(ctx, f.folder.ID, "", 1)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestDownload_CapabilityGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.consult.DownloadFile(ctx, f.files["q1.pdf"])
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.False(t, apperr.KindOf(err).Retryable())

	_, err = f.consult.DownloadFolder(ctx, f.folder.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	file, err := f.admin.DownloadFile(ctx, f.files["q1.pdf"])
	require.NoError(t, err)
	assert.Equal(t, "q1.pdf", file.Name)
	assert.Equal(t, []byte("%PDF-1.4 q1"), file.Data)

	archive, err := f.admin.DownloadFolder(ctx, f.folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports.zip", archive.Name)
	assert.Equal(t, "application/zip", archive.ContentType)
	assert.NotEmpty(t, archive.Data)

	_, err = f.admin.DownloadFile(ctx, uuid.NewString())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPreviewFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.consult.PreviewFile(ctx, f.files["chart.png"])
	require.NoError(t, err)
	require.True(t, p.Available())
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, "chart.png", p.Name)
	assert.Equal(t, pngBytes, p.Data)

	p, err = f.consult.PreviewFile(ctx, f.files["q1.pdf"])
	require.NoError(t, err)
	assert.Equal(t, delivery.ReasonWrongType, p.Unavailable)

	p, err = f.stranger.PreviewFile(ctx, f.files["chart.png"])
	require.NoError(t, err)
	assert.Equal(t, delivery.ReasonAccessDenied, p.Unavailable)

	p, err = f.consult.PreviewFile(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, delivery.ReasonNotFound, p.Unavailable)
}

func TestTransportFailureIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	c := New(base, Identity{Token: "t", Role: access.RoleAdmin}, nil)
	_, err := c.DownloadFile(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransientIO, apperr.KindOf(err))
	assert.True(t, apperr.KindOf(err).Retryable())
}

func TestErrorWithoutEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(ts.URL, Identity{Token: "t"}, ts.Client())
	_, err := c.ListFolders(context.Background(), "", 1)
	assert.Equal(t, apperr.KindTransientIO, apperr.KindOf(err))
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		fallback string
		want     string
	}{
		{"quoted", `attachment; filename="report.pdf"`, "id-1", "report.pdf"},
		{"bare", `attachment; filename=report.pdf`, "id-1", "report.pdf"},
		{"missing header", "", "id-1", "id-1"},
		{"no marker", "attachment", "folder_files.zip", "folder_files.zip"},
		{"empty value", `attachment; filename=""`, "id-1", "id-1"},
		{"after extended form", `attachment; filename*=UTF-8''caf%C3%A9.txt; filename="caf_.txt"`, "id-1", "caf_.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromDisposition(tt.header, tt.fallback))
		})
	}
}

func TestSaveTo(t *testing.T) {
	dir := t.TempDir()

	path, err := (&File{Name: "../../etc/q1.pdf", Data: []byte("pdf")}).SaveTo(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "q1.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	_, err = (&File{Name: "x.txt", Data: []byte("x")}).SaveTo(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
