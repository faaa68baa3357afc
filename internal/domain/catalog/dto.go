package catalog

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"foldervault/internal/domain/access"
	"foldervault/internal/domain/query"
)

// Permission values are checked by access.ParseCapability, which ignores case.
type CreateFolderRequest struct {
	Name       string `json:"name" validate:"required"`
	SharedWith int64  `json:"sharedWith" validate:"required,gt=0"`
	Permission string `json:"permission" validate:"required"`
}

type RenameFolderRequest struct {
	Name string `json:"name" validate:"required"`
}

type UpdatePermissionsRequest struct {
	SharedWith int64  `json:"sharedWith" validate:"required,gt=0"`
	Permission string `json:"permission" validate:"required"`
}

type ShareView struct {
	UserID     int64             `json:"user_id"`
	Permission access.Capability `json:"permission"`
}

type FileView struct {
	ID          string    `json:"id"`
	FolderID    string    `json:"folder_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	SizeHuman   string    `json:"size_human"`
	IsImage     bool      `json:"is_image"`
	CreatedAt   time.Time `json:"created_at"`
}

// FolderView is a folder as one caller sees it. Clients get their own
// capability in Permission; admins get the full sharing list instead.
type FolderView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CreatedAt  time.Time         `json:"created_at"`
	FileCount  int               `json:"file_count"`
	Size       int64             `json:"size"`
	SizeHuman  string            `json:"size_human"`
	Permission access.Capability `json:"permission,omitempty"`
	Shares     []ShareView       `json:"shares,omitempty"`
	Files      []FileView        `json:"files"`
}

type FolderPage struct {
	Folders    []FolderView `json:"folders"`
	Pagination Pagination   `json:"pagination"`
}

type FilePage struct {
	FolderID   string     `json:"folder_id"`
	Files      []FileView `json:"files"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type UploadResultView struct {
	Name  string     `json:"name"`
	File  *FileView  `json:"file,omitempty"`
	Error *ErrorView `json:"error,omitempty"`
}

type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewFileView(f *File) FileView {
	return FileView{
		ID:          f.ID,
		FolderID:    f.FolderID,
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		SizeHuman:   humanize.Bytes(uint64(max(f.Size, 0))),
		IsImage:     f.IsImage(),
		CreatedAt:   f.CreatedAt,
	}
}

func NewFolderView(f *Folder, caller access.Caller) FolderView {
	files := make([]FileView, 0, len(f.Files))
	for i := range f.Files {
		files = append(files, NewFileView(&f.Files[i]))
	}
	v := FolderView{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		Files:     files,
	}
	if caller.IsAdmin() {
		v.Shares = make([]ShareView, 0, len(f.Shares))
		for _, s := range f.Shares {
			v.Shares = append(v.Shares, ShareView{UserID: s.UserID, Permission: s.Level})
		}
	} else if level, ok := f.LevelFor(caller.UserID); ok {
		v.Permission = level
	}
	return v.withTotals()
}

func NewFolderViews(folders []*Folder, caller access.Caller) []FolderView {
	views := make([]FolderView, 0, len(folders))
	for _, f := range folders {
		views = append(views, NewFolderView(f, caller))
	}
	return views
}

func (v FolderView) withTotals() FolderView {
	v.FileCount = len(v.Files)
	v.Size = 0
	for _, f := range v.Files {
		v.Size += f.Size
	}
	v.SizeHuman = humanize.Bytes(uint64(v.Size))
	return v
}

func (v FolderView) DisplayName() string { return v.Name }

// Narrow implements query.Searchable. Totals follow the narrowed file list.
func (v FolderView) Narrow(keep func(string) bool) (FolderView, int) {
	out := v
	out.Files = make([]FileView, 0, len(v.Files))
	for _, f := range v.Files {
		if keep(f.Name) {
			out.Files = append(out.Files, f)
		}
	}
	return out.withTotals(), len(out.Files)
}

// SearchFiles narrows one folder's files to q unless the folder name itself
// matches, mirroring how Search treats a folder.
func SearchFiles(v FolderView, q string) []FileView {
	needle := query.Normalize(q)
	if needle == "" || strings.Contains(strings.ToLower(v.Name), needle) {
		return v.Files
	}
	narrowed, _ := v.Narrow(func(name string) bool {
		return strings.Contains(strings.ToLower(name), needle)
	})
	return narrowed.Files
}

func PaginationOf[T any](p query.Page[T]) Pagination {
	return Pagination{Page: p.Page, PageSize: p.PageSize, Total: p.Total, TotalPages: p.TotalPages}
}

var _ query.Searchable[FolderView] = FolderView{}
