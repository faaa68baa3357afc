// Package access is the permission model: who a caller is, what a sharing
// entry grants, and whether a caller may act on a folder.
package access

import (
	"fmt"
	"strings"

	"foldervault/internal/pkg/apperr"
)

// Role is resolved once from the bearer credential; everything downstream
// switches on it instead of re-reading the token.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleClient:
		return RoleClient, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Capability is the level a sharing entry grants. Download implies Consult.
type Capability string

const (
	Consult  Capability = "consult"
	Download Capability = "download"
)

func ParseCapability(s string) (Capability, error) {
	switch Capability(strings.ToLower(strings.TrimSpace(s))) {
	case Consult:
		return Consult, nil
	case Download:
		return Download, nil
	}
	return "", ErrInvalidCapability
}

// Allows reports whether holding c satisfies required.
func (c Capability) Allows(required Capability) bool {
	switch required {
	case Consult:
		return c == Consult || c == Download
	case Download:
		return c == Download
	}
	return false
}

type Caller struct {
	UserID int64
	Role   Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// SharingList answers which capability, if any, a user holds on a folder.
type SharingList interface {
	LevelFor(userID int64) (Capability, bool)
}

var (
	ErrForbidden         = apperr.New(apperr.KindForbidden, "Access denied")
	ErrAdminOnly         = apperr.New(apperr.KindForbidden, "Admin access required")
	ErrInvalidCapability = apperr.New(apperr.KindValidation, "permission must be one of: consult, download")
)

// Authorize returns nil when caller may act on the folder with the required
// capability and ErrForbidden otherwise. Admins bypass the sharing list.
func Authorize(caller Caller, folder SharingList, required Capability) error {
	if caller.IsAdmin() {
		return nil
	}
	level, ok := folder.LevelFor(caller.UserID)
	if !ok || !level.Allows(required) {
		return ErrForbidden
	}
	return nil
}

// CanObserve reports whether the folder shows up in caller's listings.
func CanObserve(caller Caller, folder SharingList) bool {
	return Authorize(caller, folder, Consult) == nil
}

func RequireAdmin(caller Caller) error {
	if !caller.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}
