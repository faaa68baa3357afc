package catalog

import "foldervault/internal/pkg/apperr"

var (
	ErrFolderNotFound = apperr.New(apperr.KindNotFound, "Folder not found")
	ErrFileNotFound   = apperr.New(apperr.KindNotFound, "File not found")
	ErrShareNotFound  = apperr.New(apperr.KindNotFound, "Folder is not shared with this user")

	ErrNameRequired       = apperr.New(apperr.KindValidation, "name is required")
	ErrSharedWithRequired = apperr.New(apperr.KindValidation, "sharedWith is required")
	ErrPermissionRequired = apperr.New(apperr.KindValidation, "permission is required")
	ErrUnknownUser        = apperr.New(apperr.KindValidation, "sharedWith does not match any user")
	ErrFileNameRequired   = apperr.New(apperr.KindValidation, "file name is required")
	ErrEmptyFile          = apperr.New(apperr.KindValidation, "file is empty")
	ErrFileTooLarge       = apperr.New(apperr.KindValidation, "file exceeds maximum allowed size")
)
