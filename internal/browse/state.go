// Package browse keeps the per-session view state of a folder listing: the
// search query, the folder page, and which folders are expanded at which
// file page.
package browse

import (
	"foldervault/internal/domain/catalog"
	"foldervault/internal/domain/query"
)

type FolderState struct {
	Expanded bool
	FilePage int
}

// State is not safe for concurrent use; each session owns one.
type State struct {
	query      string
	folderPage int
	folders    map[string]FolderState
}

func NewState() *State {
	return &State{folderPage: 1, folders: make(map[string]FolderState)}
}

func (s *State) Query() string   { return s.query }
func (s *State) FolderPage() int { return s.folderPage }

// SetQuery changes the search and goes back to the first folder page.
// Per-folder file pages and expansion are left alone.
func (s *State) SetQuery(q string) {
	s.query = q
	s.folderPage = 1
}

func (s *State) SetFolderPage(n int) {
	s.folderPage = max(n, 1)
}

// Folder returns the state of one folder; unknown folders are collapsed at page 1.
func (s *State) Folder(id string) FolderState {
	fs, ok := s.folders[id]
	if !ok {
		return FolderState{FilePage: 1}
	}
	return fs
}

func (s *State) Toggle(id string) {
	fs := s.Folder(id)
	fs.Expanded = !fs.Expanded
	s.folders[id] = fs
}

func (s *State) SetFilePage(id string, n int) {
	fs := s.Folder(id)
	fs.FilePage = max(n, 1)
	s.folders[id] = fs
}

// FolderRow is one folder on the current folder page. Files holds the current
// file page and is nil for collapsed folders.
type FolderRow struct {
	Folder   catalog.FolderView
	Expanded bool
	Files    *query.Page[catalog.FileView]
}

type View struct {
	Folders query.Page[FolderRow]
}

// View applies the query and both paginations to folders.
func (s *State) View(folders []catalog.FolderView, folderSize, fileSize int) View {
	matched := query.Search(folders, s.query)
	page := query.Paginate(matched, s.folderPage, folderSize)

	rows := make([]FolderRow, 0, len(page.Items))
	for _, f := range page.Items {
		fs := s.Folder(f.ID)
		row := FolderRow{Folder: f, Expanded: fs.Expanded}
		if fs.Expanded {
			files := query.Paginate(f.Files, fs.FilePage, fileSize)
			row.Files = &files
		}
		rows = append(rows, row)
	}

	return View{Folders: query.Page[FolderRow]{
		Items:      rows,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}}
}
