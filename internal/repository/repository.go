package repository

import (
	"context"
	"errors"

	"github.com/pipeline-entry/internal/config"
	"github.com/pipeline-entry/internal/models"
)

// ErrNotFound is returned when a write targets a record that does not exist
var ErrNotFound = errors.New("record not found")

// PipelineRepository defines the interface for pipeline record operations
type PipelineRepository interface {
	Create(ctx context.Context, payload *models.PipelinePayload, createdBy string) (*models.PipelineRecord, error)
	GetByID(ctx context.Context, id int64) (*models.PipelineRecord, error)
	AddAttachment(ctx context.Context, id int64, kind models.AttachmentKind, attachment models.Attachment) error
	Count(ctx context.Context) (int, error)
}

// AccountRepository defines the interface for stub account operations
type AccountRepository interface {
	Authenticate(ctx context.Context, username, password string) (*Account, error)
	IssueToken(ctx context.Context, account *Account) (string, error)
	GetByToken(ctx context.Context, token string) (*Account, error)
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Pipeline PipelineRepository
	Account  AccountRepository
}

// New creates all repositories, seeding accounts from the stub users
func New(users []config.StubUser) *Repositories {
	return &Repositories{
		Pipeline: NewPipelineRepo(),
		Account:  NewAccountRepo(users),
	}
}
