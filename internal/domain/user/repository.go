package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foldervault/internal/domain/access"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, role string) ([]*User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// Delete removes the user and, in the same transaction, every row of
	// sharesTable that references them.
	Delete(ctx context.Context, id int64, sharesTable string) error
}

type userModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Role      string    `gorm:"column:role;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// Table is the users table; other domains reference it in raw SQL.
const Table = "users"

func (userModel) TableName() string { return Table }

// Model is the table this package owns, for migrations.
func Model() any { return &userModel{} }

func toDomainUser(m userModel) *User {
	return &User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      access.Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

func toUserModel(u *User) userModel {
	return userModel{
		ID:        u.ID,
		Name:      strings.TrimSpace(u.Name),
		Email:     strings.TrimSpace(strings.ToLower(u.Email)),
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainUser(m), nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var m userModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainUser(m), nil
}

func (r *repository) List(ctx context.Context, role string) ([]*User, error) {
	var models []userModel
	q := r.db.WithContext(ctx).Order("id ASC")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(models))
	for _, m := range models {
		users = append(users, toDomainUser(m))
	}
	return users, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *repository) Delete(ctx context.Context, id int64, sharesTable string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM ? WHERE user_id = ?", clause.Table{Name: sharesTable}, id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&userModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
