package http

import (
	"github.com/go-notes-api/internal/infrastructure/dynamo"
	"github.com/go-notes-api/internal/infrastructure/gemini"
	"github.com/go-notes-api/internal/infrastructure/google"
	jwtinfra "github.com/go-notes-api/internal/infrastructure/jwt"
	s3infra "github.com/go-notes-api/internal/infrastructure/s3"
	"github.com/go-notes-api/internal/infrastructure/smtp"
	"github.com/go-notes-api/internal/infrastructure/sns"
	"github.com/go-notes-api/internal/pkg/password"
)

// Deps holds all infrastructure dependencies for the router.
// GoogleVerifier, Summarizer, Events and Mailer may be nil; the routes that
// need them degrade gracefully.
type Deps struct {
	UserRepo       *dynamo.UserRepo
	NoteRepo       *dynamo.NoteRepo
	AttachmentRepo *dynamo.AttachmentRepo
	S3Store        *s3infra.Store
	Hasher         *password.Hasher
	JWTProvider    *jwtinfra.Provider
	GoogleVerifier *google.Verifier
	Summarizer     *gemini.Client
	Events         sns.EventPublisher
	Mailer         smtp.Mailer
}
