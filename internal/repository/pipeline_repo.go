package repository

import (
	"context"
	"sync"
	"time"

	"github.com/pipeline-entry/internal/models"
)

// pipelineRepo is the in-memory implementation of PipelineRepository
type pipelineRepo struct {
	mu      sync.RWMutex
	records map[int64]*models.PipelineRecord
	nextID  int64
}

// NewPipelineRepo creates an empty pipeline repository
func NewPipelineRepo() PipelineRepository {
	return &pipelineRepo{
		records: make(map[int64]*models.PipelineRecord),
		nextID:  1,
	}
}

// Create stores a record and assigns it the next sequential id
func (r *pipelineRepo) Create(ctx context.Context, payload *models.PipelinePayload, createdBy string) (*models.PipelineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record := &models.PipelineRecord{
		ID:              r.nextID,
		PipelinePayload: *payload,
		Images:          []models.Attachment{},
		Documents:       []models.Attachment{},
		CreatedBy:       createdBy,
		CreatedAt:       time.Now().UTC(),
	}
	if record.Competitions == nil {
		record.Competitions = []models.CompetitionPayload{}
	} else {
		record.Competitions = append([]models.CompetitionPayload(nil), payload.Competitions...)
	}
	r.records[record.ID] = record
	r.nextID++

	return copyRecord(record), nil
}

// GetByID retrieves a record by id. A missing record yields nil, nil.
func (r *pipelineRepo) GetByID(ctx context.Context, id int64) (*models.PipelineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return copyRecord(record), nil
}

// AddAttachment appends an attachment to the record's photos or documents
func (r *pipelineRepo) AddAttachment(ctx context.Context, id int64, kind models.AttachmentKind, attachment models.Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if attachment.UploadedAt.IsZero() {
		attachment.UploadedAt = time.Now().UTC()
	}

	switch kind {
	case models.AttachmentPhoto:
		record.Images = append(record.Images, attachment)
	default:
		record.Documents = append(record.Documents, attachment)
	}
	return nil
}

// Count returns the total number of records
func (r *pipelineRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

func copyRecord(r *models.PipelineRecord) *models.PipelineRecord {
	cp := *r
	cp.Competitions = append([]models.CompetitionPayload{}, r.Competitions...)
	cp.Images = append([]models.Attachment{}, r.Images...)
	cp.Documents = append([]models.Attachment{}, r.Documents...)
	return &cp
}
