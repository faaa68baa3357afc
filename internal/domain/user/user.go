// Package user is the directory of people folders can be shared with.
// Accounts are issued elsewhere; this package lists, creates and removes
// them.
package user

import (
	"time"

	"foldervault/internal/domain/access"
	"foldervault/internal/pkg/apperr"
)

type User struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type CreateInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin client"`
}

var (
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "User not found")
	ErrEmailExists  = apperr.New(apperr.KindValidation, "email already exists")
	ErrDeleteSelf   = apperr.New(apperr.KindValidation, "you cannot delete your own account")
)
