package catalog

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"foldervault/internal/domain/access"
	"foldervault/internal/domain/events"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/storage"
)

const sniffLen = 3072

// UserDirectory resolves sharing targets.
type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type Notifier interface {
	Publish(ev events.Event, audience []int64)
}

type CreateFolderInput struct {
	Name       string
	SharedWith int64
	Permission string
}

// Payload is one file of an upload batch. Size is the declared length, or a
// negative value when unknown.
type Payload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadResult is the outcome for one payload: File on success, Err otherwise.
type UploadResult struct {
	Name string
	File *File
	Err  error
}

type Service struct {
	repo        Repository
	blobs       storage.Store
	users       UserDirectory
	notifier    Notifier
	maxFileSize int64
}

func NewService(repo Repository, blobs storage.Store, users UserDirectory, notifier Notifier, maxFileSize int64) *Service {
	return &Service{
		repo:        repo,
		blobs:       blobs,
		users:       users,
		notifier:    notifier,
		maxFileSize: maxFileSize,
	}
}

func (s *Service) CreateFolder(ctx context.Context, caller access.Caller, in CreateFolderInput) (*Folder, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	level, err := s.sharingTarget(ctx, in.SharedWith, in.Permission)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder := &Folder{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		Shares: []Share{{
			UserID:    in.SharedWith,
			Level:     level,
			CreatedAt: now,
			UpdatedAt: now,
		}},
		Files: []File{},
	}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	log.Info().Str("folder_id", folder.ID).Str("name", name).Int64("shared_with", in.SharedWith).Msg("folder created")
	s.publish(events.FolderCreated, folder, nil)
	return folder, nil
}

// ListFolders returns the folders caller can observe: all of them for an
// admin, only those shared with a client.
func (s *Service) ListFolders(ctx context.Context, caller access.Caller) ([]*Folder, error) {
	var (
		folders []*Folder
		err     error
	)
	if caller.IsAdmin() {
		folders, err = s.repo.ListFolders(ctx)
	} else {
		folders, err = s.repo.ListFoldersSharedWith(ctx, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	visible := folders[:0]
	for _, f := range folders {
		if access.CanObserve(caller, f) {
			visible = append(visible, f)
		}
	}
	return visible, nil
}

func (s *Service) GetFolder(ctx context.Context, caller access.Caller, id string) (*Folder, error) {
	return s.ResolveFolder(ctx, caller, id, access.Consult)
}

func (s *Service) RenameFolder(ctx context.Context, caller access.Caller, id, name string) (*Folder, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := s.repo.RenameFolder(ctx, id, name); err != nil {
		return nil, err
	}
	folder, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(events.FolderRenamed, folder, nil)
	return folder, nil
}

// DeleteFolder removes the folder and everything in it. Catalog rows go in
// one transaction; blobs are freed afterwards and a failure there only
// leaves orphaned bytes behind.
func (s *Service) DeleteFolder(ctx context.Context, caller access.Caller, id string) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}
	folder, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.repo.DeleteFolder(ctx, id)
	if err != nil {
		return err
	}

	for _, f := range removed {
		if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
			log.Warn().Err(err).Str("file_id", f.ID).Str("key", f.StorageKey).Msg("orphaned blob after folder delete")
		}
	}

	log.Info().Str("folder_id", id).Int("files", len(removed)).Msg("folder deleted")
	s.publish(events.FolderDeleted, folder, nil)
	return nil
}

// UpdatePermissions inserts or replaces the sharing entry for one user.
func (s *Service) UpdatePermissions(ctx context.Context, caller access.Caller, folderID string, sharedWith int64, permission string) (*Folder, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	level, err := s.sharingTarget(ctx, sharedWith, permission)
	if err != nil {
		return nil, err
	}
	before, err := s.repo.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertShare(ctx, &Share{FolderID: folderID, UserID: sharedWith, Level: level}); err != nil {
		return nil, err
	}
	folder, err := s.repo.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	s.publish(events.PermissionsUpdated, folder, before.Audience())
	return folder, nil
}

func (s *Service) RevokePermission(ctx context.Context, caller access.Caller, folderID string, userID int64) (*Folder, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteShare(ctx, folderID, userID); err != nil {
		return nil, err
	}
	folder, err := s.repo.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	s.publish(events.PermissionsUpdated, folder, []int64{userID})
	return folder, nil
}

// UploadFiles stores each payload as a new file at the end of the folder.
// Payloads succeed or fail on their own; the returned error is only set
// when the batch cannot start at all.
func (s *Service) UploadFiles(ctx context.Context, caller access.Caller, folderID string, payloads []Payload) ([]UploadResult, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	folder, err := s.repo.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	results := make([]UploadResult, 0, len(payloads))
	var stored []string
	for _, p := range payloads {
		file, err := s.storeOne(ctx, folderID, p)
		if err != nil {
			log.Warn().Err(err).Str("folder_id", folderID).Str("name", p.Name).Msg("upload failed")
		} else {
			stored = append(stored, file.ID)
		}
		results = append(results, UploadResult{Name: p.Name, File: file, Err: err})
	}

	if len(stored) > 0 {
		s.publish(events.FilesUploaded, folder, nil, stored...)
	}
	return results, nil
}

func (s *Service) storeOne(ctx context.Context, folderID string, p Payload) (*File, error) {
	name := cleanFileName(p.Name)
	if name == "" {
		return nil, ErrFileNameRequired
	}
	if p.Size == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxFileSize > 0 && p.Size > s.maxFileSize {
		return nil, ErrFileTooLarge
	}
	if p.Open == nil {
		return nil, ErrEmptyFile
	}

	src, err := p.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransientIO, "Could not read uploaded file", err)
	}
	defer src.Close()

	var limited io.Reader = src
	if s.maxFileSize > 0 {
		limited = io.LimitReader(src, s.maxFileSize+1)
	}
	buffered := bufio.NewReaderSize(limited, sniffLen)
	head, _ := buffered.Peek(sniffLen)
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}

	id := uuid.NewString()
	key := folderID + "/" + id
	contentType := resolveContentType(p.ContentType, head)

	hash := sha256.New()
	counter := &countingReader{r: io.TeeReader(buffered, hash)}
	if err := s.blobs.Put(ctx, key, counter, p.Size, contentType); err != nil {
		return nil, apperr.Wrap(apperr.KindTransientIO, "Could not store file", err)
	}
	if s.maxFileSize > 0 && counter.n > s.maxFileSize {
		s.discard(key)
		return nil, ErrFileTooLarge
	}

	file := &File{
		ID:          id,
		FolderID:    folderID,
		Name:        name,
		ContentType: contentType,
		Size:        counter.n,
		Checksum:    hex.EncodeToString(hash.Sum(nil)),
		StorageKey:  key,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.AddFile(ctx, file); err != nil {
		s.discard(key)
		if errors.Is(err, ErrFolderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("record file: %w", err)
	}
	return file, nil
}

func (s *Service) DeleteFile(ctx context.Context, caller access.Caller, fileID string) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}
	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		log.Warn().Err(err).Str("file_id", fileID).Msg("orphaned blob after file delete")
	}

	if folder, err := s.repo.GetFolder(ctx, file.FolderID); err == nil {
		s.publish(events.FileDeleted, folder, nil, fileID)
	}
	return nil
}

// ResolveFolder loads a folder and checks caller holds required on it.
// Unknown ids are NotFound for everyone; a client without the capability
// gets Forbidden.
func (s *Service) ResolveFolder(ctx context.Context, caller access.Caller, id string, required access.Capability) (*Folder, error) {
	folder, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, folder, required); err != nil {
		return nil, err
	}
	return folder, nil
}

// ResolveFile loads a file and checks caller holds required on its folder.
func (s *Service) ResolveFile(ctx context.Context, caller access.Caller, id string, required access.Capability) (*File, error) {
	file, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	folder, err := s.repo.GetFolder(ctx, file.FolderID)
	if err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if err := access.Authorize(caller, folder, required); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *Service) sharingTarget(ctx context.Context, userID int64, permission string) (access.Capability, error) {
	if userID <= 0 {
		return "", ErrSharedWithRequired
	}
	if strings.TrimSpace(permission) == "" {
		return "", ErrPermissionRequired
	}
	level, err := access.ParseCapability(permission)
	if err != nil {
		return "", err
	}
	if s.users != nil {
		ok, err := s.users.Exists(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("look up user: %w", err)
		}
		if !ok {
			return "", ErrUnknownUser
		}
	}
	return level, nil
}

// publish notifies admins, the folder's sharing list and any extra users.
func (s *Service) publish(kind string, folder *Folder, extra []int64, fileIDs ...string) {
	if s.notifier == nil {
		return
	}
	audience := append(folder.Audience(), extra...)
	s.notifier.Publish(events.Event{Type: kind, FolderID: folder.ID, FileIDs: fileIDs}, audience)
}

func (s *Service) discard(key string) {
	if err := s.blobs.Delete(context.Background(), key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("could not remove blob of failed upload")
	}
}

// cleanFileName keeps only the last path element of a client-supplied name.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return strings.TrimSpace(base)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
