package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foldervault/internal/config"
	"foldervault/internal/database"
	"foldervault/internal/domain/user"
	"foldervault/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type E2ETestSuite struct {
	srv         *Server
	adminToken  string
	clientToken string
	clientID    int64
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:            "test",
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		UploadMaxFileSize: 1 << 20,
		ArchiveTempDir:    t.TempDir(),
		Paging: config.PagingConfig{
			AdminFolderPageSize:  9,
			ClientFolderPageSize: 6,
			FilePageSize:         6,
		},
	}
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("file:server_" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	srv := New(testConfig(t), db, storage.NewMemoryStore())
	ctx := context.Background()

	adminUser, err := srv.Users.Create(ctx, user.CreateInput{Name: "Admin", Email: "admin@example.com", Role: "admin"})
	require.NoError(t, err)
	c1, err := srv.Users.Create(ctx, user.CreateInput{Name: "C1", Email: "c1@example.com", Role: "client"})
	require.NoError(t, err)

	adminToken, err := srv.JWT.GenerateToken(adminUser.ID, "admin")
	require.NoError(t, err)
	clientToken, err := srv.JWT.GenerateToken(c1.ID, "client")
	require.NoError(t, err)

	return &E2ETestSuite{srv: srv, adminToken: adminToken, clientToken: clientToken, clientID: c1.ID}
}

func (s *E2ETestSuite) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.srv.Engine.ServeHTTP(w, req)

	var resp TestResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (s *E2ETestSuite) call(t *testing.T, method, url, token string, body any) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, token)
}

func (s *E2ETestSuite) upload(t *testing.T, folderID string, files map[string][]byte) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write(data)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/folders/"+folderID+"/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req, s.adminToken)
}

func TestReportsSharedForConsult(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.call(t, http.MethodPost, "/api/admin/folders", s.adminToken, gin.H{
		"name": "Reports", "sharedWith": s.clientID, "permission": "consult",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var folder struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &folder))

	w, resp = s.upload(t, folder.ID, map[string][]byte{"chart.png": pngBytes})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var uploaded []struct {
		File struct {
			ID string `json:"id"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))
	require.Len(t, uploaded, 1)
	fileID := uploaded[0].File.ID

	w, resp = s.call(t, http.MethodGet, "/api/client/folders", s.clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"name":"Reports"`)

	w, resp = s.call(t, http.MethodGet, "/api/client/files/"+fileID, s.clientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	w, _ = s.call(t, http.MethodGet, "/api/client/files/preview/"+fileID, s.clientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w, _ = s.call(t, http.MethodGet, "/api/client/files/"+fileID, s.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="chart.png"`, w.Header().Get("Content-Disposition"))
}

func TestAdminRoutesRejectClients(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.call(t, http.MethodGet, "/api/admin/folders", s.clientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	w, resp = s.call(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", resp.Error.Code)
}

func TestDeleteFolderCascadesOverHTTP(t *testing.T) {
	s := setupTestSuite(t)

	_, resp := s.call(t, http.MethodPost, "/api/admin/folders", s.adminToken, gin.H{
		"name": "Reports", "sharedWith": s.clientID, "permission": "download",
	})
	var folder struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &folder))

	_, resp = s.upload(t, folder.ID, map[string][]byte{"a.txt": []byte("alpha")})
	var uploaded []struct {
		File struct {
			ID string `json:"id"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))

	w, _ := s.call(t, http.MethodDelete, "/api/admin/folders/"+folder.ID, s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = s.call(t, http.MethodGet, "/api/client/files/"+uploaded[0].File.ID, s.clientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	w, _ = s.call(t, http.MethodGet, "/api/client/files/folder/"+folder.ID, s.clientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersDirectory(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.call(t, http.MethodGet, "/api/admin/users?role=client", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []user.User
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "c1@example.com", users[0].Email)
}

func TestHealthAndNoRoute(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, _ = s.call(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
