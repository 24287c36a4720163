// Package form implements the pipeline record form: field state, incremental
// error repair, competition entries, attachment selection and submission.
package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/service"
	"github.com/pipeline-entry/internal/validation"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownField     = errors.New("unknown field")
	ErrNotEditable      = errors.New("field is not directly editable")
	ErrIndexOutOfRange  = errors.New("competition index out of range")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

var competitionKeyRegex = regexp.MustCompile(`^competitions\[(\d+)\]\.(\w+)$`)

// State is the position of the form in its submission lifecycle
type State int

const (
	StateEditing State = iota
	StateValidating
	StateSubmitting
	StateSubmittedOK
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSubmittedOK:
		return "submitted_ok"
	case StateSubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

// Option configures a Form
type Option func(*Form)

// WithStateObserver registers a callback invoked on every state transition.
// It is called with the form lock held and must not call back into the form.
func WithStateObserver(fn func(from, to State)) Option {
	return func(f *Form) {
		f.onTransition = fn
	}
}

// Form is the editable pipeline record
type Form struct {
	submitter service.Submitter
	picker    service.Picker
	validator *validation.Validator
	log       zerolog.Logger

	onTransition func(from, to State)

	mu           sync.Mutex
	state        State
	values       map[string]string
	dates        map[string]time.Time
	competitions []models.CompetitionStation
	attachments  map[models.AttachmentKind]string
	errors       validation.ErrorSet
}

// New creates an empty form in the editing state
func New(submitter service.Submitter, picker service.Picker, log zerolog.Logger, opts ...Option) *Form {
	f := &Form{
		submitter: submitter,
		picker:    picker,
		validator: validation.NewValidator(),
		log:       log.With().Str("component", "form").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.resetLocked()
	return f
}

// State returns the current lifecycle state
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fields returns the field catalogue in display order
func (f *Form) Fields() []validation.Field {
	return f.validator.Fields()
}

// Value returns the current text of a scalar field. Date fields held as a
// time value are rendered in ISO calendar form.
func (f *Form) Value(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valueLocked(key)
}

// Values returns a snapshot of every scalar field
func (f *Form) Values() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valuesLocked()
}

// Errors returns a copy of the current error set
func (f *Form) Errors() validation.ErrorSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// UpdateField merges a new value into the form. A recorded error on that
// field, and only that field, is cleared.
func (f *Form) UpdateField(key, value string) error {
	field, ok := f.validator.Field(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch field.Kind {
	case validation.KindGroup:
		return fmt.Errorf("%w: %s", ErrNotEditable, key)
	case validation.KindFile:
		kind := attachmentKindFor(key)
		if value == "" {
			delete(f.attachments, kind)
		} else {
			f.attachments[kind] = value
		}
	case validation.KindDate:
		delete(f.dates, key)
		f.values[key] = value
	default:
		f.values[key] = value
	}

	delete(f.errors, key)
	return nil
}

// SetDate holds a date field as a time value rather than typed text
func (f *Form) SetDate(key string, t time.Time) error {
	field, ok := f.validator.Field(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if field.Kind != validation.KindDate {
		return fmt.Errorf("%w: %s is not a date field", ErrNotEditable, key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates[key] = t
	delete(f.values, key)
	delete(f.errors, key)
	return nil
}

// Competitions returns a copy of the competition entries
func (f *Form) Competitions() []models.CompetitionStation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CompetitionStation(nil), f.competitions...)
}

// AddCompetitionEntry appends a blank competition entry
func (f *Form) AddCompetitionEntry() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.competitions = append(f.competitions, models.CompetitionStation{})
}

// RemoveCompetitionEntry drops the entry at index. Later entries shift down.
// An out-of-range index is ignored.
func (f *Form) RemoveCompetitionEntry(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.competitions) {
		return
	}

	kept := make([]models.CompetitionStation, 0, len(f.competitions)-1)
	for i, c := range f.competitions {
		if i != index {
			kept = append(kept, c)
		}
	}
	f.competitions = kept
	f.reindexCompetitionErrorsLocked(index)
}

// UpdateCompetition sets one field of a competition entry
func (f *Form) UpdateCompetition(index int, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.competitions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	entry := &f.competitions[index]
	switch key {
	case models.CompetitionCompanyName:
		entry.CompanyName = value
	case models.CompetitionStationSales:
		entry.StationSales = value
	case models.CompetitionDieselSales:
		entry.DieselSales = value
	case models.CompetitionGasolineSales:
		entry.GasolineSales = value
	case models.CompetitionComments:
		entry.Comments = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}

	delete(f.errors, validation.CompetitionKey(index, key))
	return nil
}

// Attachment returns the local reference selected for kind
func (f *Form) Attachment(kind models.AttachmentKind) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.attachments[kind]
	return ref, ok
}

// SelectAttachment asks the picker for a file. On success the reference is
// stored and nil is returned. Denial, cancellation and picker failures leave
// the form unchanged and return an informational notice.
func (f *Form) SelectAttachment(ctx context.Context, kind models.AttachmentKind) *models.Notice {
	if !kind.Valid() {
		return &models.Notice{
			Level:   models.NoticeWarning,
			Title:   "Unsupported attachment",
			Message: fmt.Sprintf("%q is not a supported attachment type.", kind),
		}
	}

	ref, err := f.picker.Pick(ctx, kind)
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		f.log.Info().Str("kind", string(kind)).Msg("Attachment permission denied")
		return &models.Notice{
			Level:   models.NoticeInfo,
			Title:   "Permission required",
			Message: fmt.Sprintf("Permission is needed to attach a %s.", kind),
		}
	case errors.Is(err, service.ErrCancelled):
		return &models.Notice{
			Level:   models.NoticeInfo,
			Title:   "No file selected",
			Message: fmt.Sprintf("No %s was attached.", kind),
		}
	case err != nil:
		f.log.Warn().Err(err).Str("kind", string(kind)).Msg("Attachment selection failed")
		return &models.Notice{
			Level:   models.NoticeWarning,
			Title:   "Attachment failed",
			Message: fmt.Sprintf("Could not attach the %s. Please try again.", kind),
		}
	case ref == "":
		return &models.Notice{
			Level:   models.NoticeInfo,
			Title:   "No file selected",
			Message: fmt.Sprintf("No %s was attached.", kind),
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments[kind] = ref
	delete(f.errors, fieldFor(kind))
	return nil
}

// Validate recomputes the full error set and records it on the form
func (f *Form) Validate() validation.ErrorSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = f.validateLocked()
	return f.errors.Clone()
}

// Reset discards everything and returns to an empty editing form
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) validateLocked() validation.ErrorSet {
	return f.validator.ValidateRecord(f.valuesLocked(), f.competitions)
}

func (f *Form) resetLocked() {
	f.values = make(map[string]string)
	f.dates = make(map[string]time.Time)
	// one blank slot is always offered for editing
	f.competitions = []models.CompetitionStation{{}}
	f.attachments = make(map[models.AttachmentKind]string)
	f.errors = make(validation.ErrorSet)
	f.transitionLocked(StateEditing)
}

func (f *Form) transitionLocked(to State) {
	from := f.state
	f.state = to
	if f.onTransition != nil && from != to {
		f.onTransition(from, to)
	}
}

func (f *Form) valueLocked(key string) string {
	if t, ok := f.dates[key]; ok {
		return t.Format(models.DateLayout)
	}
	return f.values[key]
}

func (f *Form) valuesLocked() map[string]string {
	out := make(map[string]string, len(f.values)+len(f.dates))
	for k, v := range f.values {
		out[k] = v
	}
	for k := range f.dates {
		out[k] = f.valueLocked(k)
	}
	return out
}

// reindexCompetitionErrorsLocked keeps competition error keys aligned with
// entry positions after the entry at removed has been dropped.
func (f *Form) reindexCompetitionErrorsLocked(removed int) {
	reindexed := make(validation.ErrorSet, len(f.errors))
	for key, msg := range f.errors {
		m := competitionKeyRegex.FindStringSubmatch(key)
		if m == nil {
			reindexed[key] = msg
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		switch {
		case idx < removed:
			reindexed[key] = msg
		case idx > removed:
			reindexed[validation.CompetitionKey(idx-1, m[2])] = msg
		}
	}
	f.errors = reindexed
}

func attachmentKindFor(key string) models.AttachmentKind {
	if key == models.FieldDocument {
		return models.AttachmentDocument
	}
	return models.AttachmentPhoto
}

func fieldFor(kind models.AttachmentKind) string {
	if kind == models.AttachmentDocument {
		return models.FieldDocument
	}
	return models.FieldPhoto
}
