package catalog

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foldervault/internal/domain/access"
	"foldervault/internal/domain/query"
	"foldervault/internal/middleware"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/pkg/response"
	"foldervault/internal/pkg/validator"
)

// PageSizes are the fixed page sizes of the listing endpoints.
type PageSizes struct {
	AdminFolders  int
	ClientFolders int
	Files         int
}

type Handler struct {
	service *Service
	pages   PageSizes
}

func NewHandler(service *Service, pages PageSizes) *Handler {
	return &Handler{service: service, pages: pages}
}

// ListFolders handles GET /folders?q=&page=
func (h *Handler) ListFolders(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	folders, err := h.service.ListFolders(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}

	size := h.pages.ClientFolders
	if caller.IsAdmin() {
		size = h.pages.AdminFolders
	}
	matched := query.Search(NewFolderViews(folders, caller), c.Query("q"))
	page := query.Paginate(matched, pageParam(c), size)

	response.Success(c, http.StatusOK, FolderPage{
		Folders:    page.Items,
		Pagination: PaginationOf(page),
	})
}

// GetFolder handles GET /folders/:id
func (h *Handler) GetFolder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	folder, err := h.service.GetFolder(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewFolderView(folder, caller))
}

// ListFiles handles GET /folders/:id/files?q=&page=
func (h *Handler) ListFiles(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	folder, err := h.service.GetFolder(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	files := SearchFiles(NewFolderView(folder, caller), c.Query("q"))
	page := query.Paginate(files, pageParam(c), h.pages.Files)
	response.Success(c, http.StatusOK, FilePage{
		FolderID:   folder.ID,
		Files:      page.Items,
		Pagination: PaginationOf(page),
	})
}

// CreateFolder handles POST /folders
func (h *Handler) CreateFolder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	folder, err := h.service.CreateFolder(c.Request.Context(), caller, CreateFolderInput{
		Name:       req.Name,
		SharedWith: req.SharedWith,
		Permission: req.Permission,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewFolderView(folder, caller))
}

// RenameFolder handles PATCH /folders/:id
func (h *Handler) RenameFolder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	var req RenameFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	folder, err := h.service.RenameFolder(c.Request.Context(), caller, c.Param("id"), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewFolderView(folder, caller))
}

// DeleteFolder handles DELETE /folders/:id
func (h *Handler) DeleteFolder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	if err := h.service.DeleteFolder(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Folder deleted"})
}

// UpdatePermissions handles PUT /folders/:id/permissions
func (h *Handler) UpdatePermissions(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	var req UpdatePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	folder, err := h.service.UpdatePermissions(c.Request.Context(), caller, c.Param("id"), req.SharedWith, req.Permission)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewFolderView(folder, caller))
}

// RevokePermission handles DELETE /folders/:id/permissions/:userId
func (h *Handler) RevokePermission(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), "Invalid user ID")
		return
	}

	folder, err := h.service.RevokePermission(c.Request.Context(), caller, c.Param("id"), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewFolderView(folder, caller))
}

// UploadFiles handles POST /folders/:id/files (multipart, field "files").
// 201 when every file was stored, 207 with per-file results otherwise.
func (h *Handler) UploadFiles(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		response.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), "No files provided")
		return
	}

	headers := form.File["files"]
	payloads := make([]Payload, 0, len(headers))
	for _, fh := range headers {
		payloads = append(payloads, payloadFromHeader(fh))
	}

	results, err := h.service.UploadFiles(c.Request.Context(), caller, c.Param("id"), payloads)
	if err != nil {
		response.FromError(c, err)
		return
	}

	views, failed := uploadResultViews(results)
	if failed == 0 {
		response.Success(c, http.StatusCreated, views)
		return
	}
	kind := apperr.KindPartialUpload
	response.ErrorWithDetails(c, kind.HTTPStatus(), kind.Code(),
		strconv.Itoa(failed)+" of "+strconv.Itoa(len(results))+" files failed to upload", views)
}

// DeleteFile handles DELETE /files/:id
func (h *Handler) DeleteFile(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	if err := h.service.DeleteFile(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "File deleted"})
}

func payloadFromHeader(fh *multipart.FileHeader) Payload {
	return Payload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func uploadResultViews(results []UploadResult) ([]UploadResultView, int) {
	views := make([]UploadResultView, 0, len(results))
	failed := 0
	for _, r := range results {
		v := UploadResultView{Name: r.Name}
		if r.Err != nil {
			failed++
			v.Error = &ErrorView{Code: apperr.KindOf(r.Err).Code(), Message: apperr.MessageOf(r.Err)}
		} else {
			fv := NewFileView(r.File)
			v.File = &fv
		}
		views = append(views, v)
	}
	return views, failed
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, apperr.KindValidation.Code(), "Validation failed", errs)
		return false
	}
	return true
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

var _ access.SharingList = (*Folder)(nil)
