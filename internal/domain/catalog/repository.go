package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// positionRetries bounds how often AddFile re-reads the next position after
// losing a race with a concurrent upload into the same folder.
const positionRetries = 5

type Repository interface {
	CreateFolder(ctx context.Context, f *Folder) error
	GetFolder(ctx context.Context, id string) (*Folder, error)
	ListFolders(ctx context.Context) ([]*Folder, error)
	ListFoldersSharedWith(ctx context.Context, userID int64) ([]*Folder, error)
	RenameFolder(ctx context.Context, id, name string) error
	// DeleteFolder removes the folder with its shares and files in one
	// transaction and returns the removed files so their bytes can be freed.
	DeleteFolder(ctx context.Context, id string) ([]File, error)

	UpsertShare(ctx context.Context, s *Share) error
	DeleteShare(ctx context.Context, folderID string, userID int64) error
	// PruneShares removes sharing entries whose user no longer exists.
	PruneShares(ctx context.Context, usersTable string) (int64, error)

	AddFile(ctx context.Context, f *File) error
	GetFile(ctx context.Context, id string) (*File, error)
	DeleteFile(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func withContents(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Shares", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, user_id ASC") }).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *repository) CreateFolder(ctx context.Context, f *Folder) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *repository) GetFolder(ctx context.Context, id string) (*Folder, error) {
	var f Folder
	err := withContents(r.db.WithContext(ctx)).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) ListFolders(ctx context.Context) ([]*Folder, error) {
	var folders []*Folder
	err := withContents(r.db.WithContext(ctx)).
		Order("created_at ASC, id ASC").
		Find(&folders).Error
	return folders, err
}

func (r *repository) ListFoldersSharedWith(ctx context.Context, userID int64) ([]*Folder, error) {
	var folders []*Folder
	shared := r.db.Table(SharesTable).Select("folder_id").Where("user_id = ?", userID)
	err := withContents(r.db.WithContext(ctx)).
		Where("id IN (?)", shared).
		Order("created_at ASC, id ASC").
		Find(&folders).Error
	return folders, err
}

func (r *repository) RenameFolder(ctx context.Context, id, name string) error {
	res := r.db.WithContext(ctx).Model(&Folder{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFolderNotFound
	}
	return nil
}

func (r *repository) DeleteFolder(ctx context.Context, id string) ([]File, error) {
	var removed []File
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("folder_id = ?", id).Order("position ASC").Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", id).Delete(&File{}).Error; err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", id).Delete(&Share{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Folder{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrFolderNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *repository) UpsertShare(ctx context.Context, s *Share) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := folderExists(tx, s.FolderID); err != nil {
			return err
		}
		now := time.Now().UTC()
		s.CreatedAt, s.UpdatedAt = now, now
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "folder_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"level", "updated_at"}),
		}).Create(s).Error
	})
}

func (r *repository) DeleteShare(ctx context.Context, folderID string, userID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := folderExists(tx, folderID); err != nil {
			return err
		}
		res := tx.Where("folder_id = ? AND user_id = ?", folderID, userID).Delete(&Share{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrShareNotFound
		}
		return nil
	})
}

func (r *repository) PruneShares(ctx context.Context, usersTable string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id NOT IN (?)", r.db.Table(usersTable).Select("id")).
		Delete(&Share{})
	return res.RowsAffected, res.Error
}

// AddFile appends f to its folder, assigning the next position.
func (r *repository) AddFile(ctx context.Context, f *File) error {
	var err error
	for attempt := 0; attempt < positionRetries; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := folderExists(tx, f.FolderID); err != nil {
				return err
			}
			var next int
			if err := tx.Model(&File{}).
				Where("folder_id = ?", f.FolderID).
				Select("COALESCE(MAX(position), 0) + 1").
				Scan(&next).Error; err != nil {
				return err
			}
			f.Position = next
			return tx.Create(f).Error
		})
		if !isUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *repository) GetFile(ctx context.Context, id string) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) DeleteFile(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&File{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func folderExists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&Folder{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
