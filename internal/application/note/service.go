package note

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-notes-api/internal/domain"
	"github.com/go-notes-api/internal/pkg/id"
)

// presignTTL bounds how long an attachment download link stays valid.
const presignTTL = 15 * time.Minute

type UploadAttachmentInput struct {
	NoteID      string
	OwnerID     string
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	List(ctx context.Context, ownerID string) ([]domain.Note, error)
	Create(ctx context.Context, ownerID string, req domain.CreateNoteRequest) (*domain.Note, error)
	Get(ctx context.Context, noteID, ownerID string) (*domain.Note, error)
	Update(ctx context.Context, noteID, ownerID string, req domain.UpdateNoteRequest) (*domain.Note, error)
	Delete(ctx context.Context, noteID, ownerID string) error
	Summarize(ctx context.Context, noteID, ownerID string) (string, error)

	UploadAttachment(ctx context.Context, input UploadAttachmentInput) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, noteID, ownerID string) ([]domain.Attachment, error)
	AttachmentURL(ctx context.Context, noteID, attachmentID, ownerID string) (string, error)
	DownloadAttachment(ctx context.Context, noteID, attachmentID, ownerID string) (*domain.Attachment, io.ReadCloser, error)
	DeleteAttachment(ctx context.Context, noteID, attachmentID, ownerID string) error
}

type noteStore interface {
	Put(ctx context.Context, n *domain.Note) error
	Get(ctx context.Context, noteID string) (*domain.Note, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Note, error)
	Update(ctx context.Context, noteID string, updates map[string]interface{}) error
	Delete(ctx context.Context, noteID string) error
}

type attachmentStore interface {
	Put(ctx context.Context, a *domain.Attachment) error
	Get(ctx context.Context, attachmentID string) (*domain.Attachment, error)
	ListByNote(ctx context.Context, noteID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, attachmentID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

type service struct {
	repo           noteStore
	attachmentRepo attachmentStore
	objects        objectStore
	summarizer     summarizer
}

type ServiceDeps struct {
	NoteRepo       noteStore
	AttachmentRepo attachmentStore
	Objects        objectStore
	Summarizer     summarizer // nil when no API key is configured
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:           deps.NoteRepo,
		attachmentRepo: deps.AttachmentRepo,
		objects:        deps.Objects,
		summarizer:     deps.Summarizer,
	}
}

func (s *service) List(ctx context.Context, ownerID string) ([]domain.Note, error) {
	return s.repo.ListByUser(ctx, ownerID)
}

func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateNoteRequest) (*domain.Note, error) {
	now := time.Now().UTC()
	n := &domain.Note{
		NoteID:    id.New(),
		UserID:    ownerID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Get returns the note only when it belongs to ownerID. A note owned by
// someone else reads as not-found so existence is never disclosed.
func (s *service) Get(ctx context.Context, noteID, ownerID string) (*domain.Note, error) {
	n, err := s.repo.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.UserID != ownerID {
		return nil, fmt.Errorf("note not found: %w", domain.ErrNotFound)
	}
	return n, nil
}

func (s *service) Update(ctx context.Context, noteID, ownerID string, req domain.UpdateNoteRequest) (*domain.Note, error) {
	if _, err := s.Get(ctx, noteID, ownerID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if len(updates) == 0 {
		return s.Get(ctx, noteID, ownerID)
	}
	if err := s.repo.Update(ctx, noteID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, noteID, ownerID)
}

func (s *service) Delete(ctx context.Context, noteID, ownerID string) error {
	if _, err := s.Get(ctx, noteID, ownerID); err != nil {
		return err
	}
	attachments, err := s.attachmentRepo.ListByNote(ctx, noteID)
	if err != nil {
		return err
	}
	for _, a := range attachments {
		if err := s.objects.Delete(ctx, a.Object); err != nil {
			return err
		}
		if err := s.attachmentRepo.Delete(ctx, a.AttachmentID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, noteID)
}

func (s *service) Summarize(ctx context.Context, noteID, ownerID string) (string, error) {
	if s.summarizer == nil {
		return "", fmt.Errorf("summarization not configured: %w", domain.ErrUnavailable)
	}
	n, err := s.Get(ctx, noteID, ownerID)
	if err != nil {
		return "", err
	}
	return s.summarizer.Summarize(ctx, n.Content)
}

func (s *service) UploadAttachment(ctx context.Context, input UploadAttachmentInput) (*domain.Attachment, error) {
	if _, err := s.Get(ctx, input.NoteID, input.OwnerID); err != nil {
		return nil, err
	}
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("notes/%s/%s/%s", input.OwnerID, input.NoteID, safeName)
	hasher := sha256.New()
	tee := io.TeeReader(input.Reader, hasher)
	if _, err := s.objects.Upload(ctx, key, tee, input.ContentType); err != nil {
		return nil, err
	}
	a := &domain.Attachment{
		AttachmentID: id.New(),
		NoteID:       input.NoteID,
		Object:       key,
		Name:         safeName,
		Type:         input.ContentType,
		Size:         input.Size,
		Hash:         hex.EncodeToString(hasher.Sum(nil)),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.attachmentRepo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) ListAttachments(ctx context.Context, noteID, ownerID string) ([]domain.Attachment, error) {
	if _, err := s.Get(ctx, noteID, ownerID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByNote(ctx, noteID)
}

func (s *service) AttachmentURL(ctx context.Context, noteID, attachmentID, ownerID string) (string, error) {
	a, err := s.getAttachment(ctx, noteID, attachmentID, ownerID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, a.Object, presignTTL)
}

// DownloadAttachment streams the stored object after the ownership check.
// The caller owns the returned ReadCloser.
func (s *service) DownloadAttachment(ctx context.Context, noteID, attachmentID, ownerID string) (*domain.Attachment, io.ReadCloser, error) {
	a, err := s.getAttachment(ctx, noteID, attachmentID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.objects.Download(ctx, a.Object)
	if err != nil {
		return nil, nil, err
	}
	return a, body, nil
}

func (s *service) DeleteAttachment(ctx context.Context, noteID, attachmentID, ownerID string) error {
	a, err := s.getAttachment(ctx, noteID, attachmentID, ownerID)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, a.Object); err != nil {
		return err
	}
	return s.attachmentRepo.Delete(ctx, attachmentID)
}

// getAttachment loads the attachment after the ownership check on its note.
func (s *service) getAttachment(ctx context.Context, noteID, attachmentID, ownerID string) (*domain.Attachment, error) {
	if _, err := s.Get(ctx, noteID, ownerID); err != nil {
		return nil, err
	}
	a, err := s.attachmentRepo.Get(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if a.NoteID != noteID {
		return nil, fmt.Errorf("attachment not found: %w", domain.ErrNotFound)
	}
	return a, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
