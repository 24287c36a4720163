package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/service"
)

// ErrMock is returned by mocks configured to fail
var ErrMock = errors.New("mock failure")

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Accounts         map[string]MockAccount
	Calls            int
}

// MockAccount is a credential accepted by MockAuthenticator
type MockAccount struct {
	Password string
	Role     string
}

// Verify interface compliance
var _ service.Authenticator = (*MockAuthenticator)(nil)

func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{
		Accounts: make(map[string]MockAccount),
	}
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	m.Calls++
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password)
	}
	account, ok := m.Accounts[username]
	if !ok || account.Password != password {
		return nil, fmt.Errorf("authenticate %s: %w", username, ErrMock)
	}
	return &models.LoginResponse{Role: account.Role}, nil
}

// UploadCall records one UploadAttachment invocation
type UploadCall struct {
	RecordID string
	Kind     models.AttachmentKind
	FileRef  string
}

// MockSubmitter is a mock implementation of Submitter
type MockSubmitter struct {
	CreateFunc func(ctx context.Context, payload *models.PipelinePayload) (*models.CreateRecordResponse, error)
	UploadFunc func(ctx context.Context, recordID string, kind models.AttachmentKind, fileRef string) error

	mu      sync.Mutex
	Created []*models.PipelinePayload
	Uploads []UploadCall
	nextID  int
}

// Verify interface compliance
var _ service.Submitter = (*MockSubmitter)(nil)

func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		Created: make([]*models.PipelinePayload, 0),
		Uploads: make([]UploadCall, 0),
		nextID:  1,
	}
}

func (m *MockSubmitter) CreateRecord(ctx context.Context, payload *models.PipelinePayload) (*models.CreateRecordResponse, error) {
	m.mu.Lock()
	m.Created = append(m.Created, payload)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return &models.CreateRecordResponse{ID: models.FlexibleID(fmt.Sprint(id))}, nil
}

func (m *MockSubmitter) UploadAttachment(ctx context.Context, recordID string, kind models.AttachmentKind, fileRef string) error {
	m.mu.Lock()
	m.Uploads = append(m.Uploads, UploadCall{RecordID: recordID, Kind: kind, FileRef: fileRef})
	m.mu.Unlock()

	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, recordID, kind, fileRef)
	}
	return nil
}

// CreateCount returns how many creation calls were made
func (m *MockSubmitter) CreateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}

// UploadCount returns how many upload calls were made
func (m *MockSubmitter) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Uploads)
}

// MockPicker is a mock implementation of Picker
type MockPicker struct {
	Refs  map[models.AttachmentKind]string
	Err   error
	Calls int
}

// Verify interface compliance
var _ service.Picker = (*MockPicker)(nil)

func NewMockPicker() *MockPicker {
	return &MockPicker{
		Refs: make(map[models.AttachmentKind]string),
	}
}

func (m *MockPicker) Pick(ctx context.Context, kind models.AttachmentKind) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	ref, ok := m.Refs[kind]
	if !ok {
		return "", service.ErrCancelled
	}
	return ref, nil
}
