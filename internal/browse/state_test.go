package browse

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foldervault/internal/domain/catalog"
)

func folder(id, name string, files ...string) catalog.FolderView {
	v := catalog.FolderView{ID: id, Name: name}
	for i, f := range files {
		v.Files = append(v.Files, catalog.FileView{ID: fmt.Sprintf("%s-%d", id, i), FolderID: id, Name: f})
	}
	return v
}

func manyFiles(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("file-%02d.txt", i)
	}
	return out
}

func TestState_DefaultsAndToggle(t *testing.T) {
	s := NewState()
	assert.Equal(t, 1, s.FolderPage())
	assert.Equal(t, FolderState{FilePage: 1}, s.Folder("a"))

	s.Toggle("a")
	assert.True(t, s.Folder("a").Expanded)
	s.Toggle("a")
	assert.False(t, s.Folder("a").Expanded)
}

func TestState_FilePagesAreIsolated(t *testing.T) {
	s := NewState()
	s.SetFilePage("a", 3)

	assert.Equal(t, 3, s.Folder("a").FilePage)
	assert.Equal(t, 1, s.Folder("b").FilePage)

	s.SetFilePage("b", 0)
	assert.Equal(t, 1, s.Folder("b").FilePage)
	assert.Equal(t, 3, s.Folder("a").FilePage)
}

func TestState_SetQueryResetsOnlyFolderPage(t *testing.T) {
	s := NewState()
	s.SetFolderPage(4)
	s.Toggle("a")
	s.SetFilePage("a", 2)

	s.SetQuery("inv")

	assert.Equal(t, "inv", s.Query())
	assert.Equal(t, 1, s.FolderPage())
	assert.Equal(t, FolderState{Expanded: true, FilePage: 2}, s.Folder("a"))
}

func TestState_View(t *testing.T) {
	folders := []catalog.FolderView{
		folder("a", "Accounting", manyFiles(8)...),
		folder("b", "Misc", "invoice-1.pdf", "photo.png", "invoice-2.pdf"),
		folder("c", "Empty"),
	}

	s := NewState()
	s.Toggle("a")
	s.SetFilePage("a", 2)

	v := s.View(folders, 2, 6)
	assert.Equal(t, 3, v.Folders.Total)
	assert.Equal(t, 2, v.Folders.TotalPages)
	require.Len(t, v.Folders.Items, 2)

	a := v.Folders.Items[0]
	require.True(t, a.Expanded)
	require.NotNil(t, a.Files)
	assert.Len(t, a.Files.Items, 2)
	assert.Equal(t, "file-06.txt", a.Files.Items[0].Name)
	assert.Nil(t, v.Folders.Items[1].Files, "collapsed folders carry no file page")

	s.SetQuery("INVOICE")
	v = s.View(folders, 2, 6)
	require.Len(t, v.Folders.Items, 1)
	b := v.Folders.Items[0].Folder
	assert.Equal(t, "b", b.ID)
	require.Len(t, b.Files, 2)
	assert.Equal(t, "invoice-1.pdf", b.Files[0].Name)
	assert.Equal(t, "invoice-2.pdf", b.Files[1].Name)
}

func TestState_ViewPastLastPage(t *testing.T) {
	s := NewState()
	s.SetFolderPage(5)

	v := s.View([]catalog.FolderView{folder("a", "A")}, 6, 6)
	assert.Empty(t, v.Folders.Items)
	assert.Equal(t, 1, v.Folders.Total)
}

func TestLatest_DropsStaleResponses(t *testing.T) {
	var l Latest[string]
	_, ok := l.Get()
	assert.False(t, ok)

	first := l.Begin()
	second := l.Begin()

	assert.True(t, l.Apply(second, "new"))
	assert.False(t, l.Apply(first, "old"), "a superseded request must not overwrite")

	got, ok := l.Get()
	require.True(t, ok)
	assert.Equal(t, "new", got)

	assert.False(t, l.Apply(second, "again"))
}

func TestLatest_OutOfOrderBeforeApply(t *testing.T) {
	var l Latest[int]
	first := l.Begin()
	second := l.Begin()

	assert.False(t, l.Apply(first, 1))
	_, ok := l.Get()
	assert.False(t, ok)

	assert.True(t, l.Apply(second, 2))
}

func TestLatest_Concurrent(t *testing.T) {
	var l Latest[int]
	var wg sync.WaitGroup
	tickets := make([]Ticket, 50)
	for i := range tickets {
		tickets[i] = l.Begin()
	}
	for i, tk := range tickets {
		i, tk := i, tk
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Apply(tk, i)
		}()
	}
	wg.Wait()

	got, ok := l.Get()
	require.True(t, ok)
	assert.Equal(t, len(tickets)-1, got)
}
