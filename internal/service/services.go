package service

import (
	"context"
	"errors"

	"github.com/pipeline-entry/internal/models"
)

// Sentinel errors returned by a Picker
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrCancelled        = errors.New("selection cancelled")
)

// Authenticator defines the credential exchange with the remote API
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// Submitter defines the record submission calls. CreateRecord must complete
// before UploadAttachment can be called with the returned identifier.
type Submitter interface {
	CreateRecord(ctx context.Context, payload *models.PipelinePayload) (*models.CreateRecordResponse, error)
	UploadAttachment(ctx context.Context, recordID string, kind models.AttachmentKind, fileRef string) error
}

// Picker defines the user-mediated selection of a local file. It returns a
// local resource reference, or ErrPermissionDenied / ErrCancelled.
type Picker interface {
	Pick(ctx context.Context, kind models.AttachmentKind) (string, error)
}

// TokenSource supplies the bearer token of the current session, if any
type TokenSource interface {
	Token() string
}
