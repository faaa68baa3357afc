package catalog

import (
	"time"

	"foldervault/internal/domain/access"
)

// Folder groups files and carries the sharing list that decides which
// clients can see it.
type Folder struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedBy int64     `gorm:"column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	Shares []Share `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"shares"`
	Files  []File  `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"files"`
}

func (Folder) TableName() string { return "folders" }

// LevelFor implements access.SharingList.
func (f *Folder) LevelFor(userID int64) (access.Capability, bool) {
	for _, s := range f.Shares {
		if s.UserID == userID {
			return s.Level, true
		}
	}
	return "", false
}

// Audience is every user on the sharing list.
func (f *Folder) Audience() []int64 {
	ids := make([]int64, 0, len(f.Shares))
	for _, s := range f.Shares {
		ids = append(ids, s.UserID)
	}
	return ids
}

const SharesTable = "folder_shares"

// Share is one sharing entry. The composite key keeps it to one per user.
type Share struct {
	FolderID  string            `gorm:"column:folder_id;primaryKey" json:"folder_id"`
	UserID    int64             `gorm:"column:user_id;primaryKey;index" json:"user_id"`
	Level     access.Capability `gorm:"column:level;not null" json:"permission"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Share) TableName() string { return SharesTable }

// File belongs to exactly one folder. Position is the insertion order inside
// that folder and is what listings sort by.
type File struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	FolderID    string    `gorm:"column:folder_id;not null;uniqueIndex:idx_files_folder_position" json:"folder_id"`
	Position    int       `gorm:"column:position;not null;uniqueIndex:idx_files_folder_position" json:"position"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	Size        int64     `gorm:"column:size" json:"size"`
	Checksum    string    `gorm:"column:checksum" json:"checksum"`
	StorageKey  string    `gorm:"column:storage_key;not null" json:"-"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (File) TableName() string { return "folder_files" }

// IsImage reports whether the file may be previewed inline.
func (f *File) IsImage() bool {
	return IsImageType(f.ContentType)
}

// Models lists the tables this package owns, for migrations.
func Models() []any {
	return []any{&Folder{}, &Share{}, &File{}}
}
