package form

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/validation"
)

// Status is the overall result of a submit attempt
type Status int

const (
	// StatusBlocked means validation failed and nothing was sent
	StatusBlocked Status = iota
	// StatusSucceeded means the record was created
	StatusSucceeded
	// StatusFailed means the creation call failed and the form is kept for retry
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusBlocked:
		return "blocked"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes what happened on Submit and what to show the user
type Outcome struct {
	Status            Status
	RecordID          string
	Errors            validation.ErrorSet
	Notices           []models.Notice
	ReturnToDashboard bool
}

// Submit validates the form and, when valid, creates the record and uploads
// any selected attachments against the new record id. Upload failures are
// reported as warnings and do not affect the outcome. Only a concurrent
// Submit call produces an error.
func (f *Form) Submit(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if f.state == StateSubmitting || f.state == StateValidating {
		f.mu.Unlock()
		return Outcome{}, ErrSubmitInProgress
	}

	f.transitionLocked(StateValidating)
	f.errors = f.validateLocked()
	if !f.errors.Empty() {
		errs := f.errors.Clone()
		f.transitionLocked(StateEditing)
		f.mu.Unlock()

		f.log.Debug().Int("error_count", len(errs)).Msg("Submission blocked by validation")
		return Outcome{Status: StatusBlocked, Errors: errs}, nil
	}

	payload, err := f.payloadLocked()
	if err != nil {
		// unreachable once validation has passed
		f.transitionLocked(StateEditing)
		f.mu.Unlock()
		return Outcome{}, err
	}
	attachments := make(map[models.AttachmentKind]string, len(f.attachments))
	for k, v := range f.attachments {
		attachments[k] = v
	}
	f.transitionLocked(StateSubmitting)
	f.mu.Unlock()

	start := time.Now()
	created, err := f.submitter.CreateRecord(ctx, payload)
	if err == nil && (created == nil || created.ID == "") {
		err = fmt.Errorf("create record: response carried no id")
	}
	if err != nil {
		f.log.Error().Err(err).Str("site_name", payload.SiteName).Msg("Failed to create pipeline record")

		f.mu.Lock()
		f.transitionLocked(StateSubmitFailed)
		errs := f.errors.Clone()
		f.transitionLocked(StateEditing)
		f.mu.Unlock()

		return Outcome{
			Status: StatusFailed,
			Errors: errs,
			Notices: []models.Notice{{
				Level:   models.NoticeError,
				Title:   "Error",
				Message: "Failed to submit site data. Please try again.",
			}},
		}, nil
	}

	recordID := created.ID.String()
	notices := f.uploadAttachments(ctx, recordID, attachments)

	f.log.Info().
		Str("record_id", recordID).
		Int("competitions", len(payload.Competitions)).
		Int("attachments", len(attachments)).
		Int("upload_warnings", len(notices)).
		Dur("duration", time.Since(start)).
		Msg("Pipeline record submitted")

	notices = append(notices, models.Notice{
		Level:   models.NoticeSuccess,
		Title:   "Success",
		Message: "Site data submitted successfully!",
	})

	f.mu.Lock()
	f.transitionLocked(StateSubmittedOK)
	f.resetLocked()
	f.mu.Unlock()

	return Outcome{
		Status:            StatusSucceeded,
		RecordID:          recordID,
		Errors:            validation.ErrorSet{},
		Notices:           notices,
		ReturnToDashboard: true,
	}, nil
}

// Payload validates the form and returns the transport payload without
// submitting it or changing the form's state.
func (f *Form) Payload() (*models.PipelinePayload, validation.ErrorSet) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if errs := f.validateLocked(); !errs.Empty() {
		return nil, errs
	}
	payload, err := f.payloadLocked()
	if err != nil {
		return nil, validation.ErrorSet{models.FieldDateSiteAdded: err.Error()}
	}
	return payload, nil
}

// uploadAttachments uploads photo and document independently. Each failure
// becomes a warning notice; a failure of one does not stop the other.
func (f *Form) uploadAttachments(ctx context.Context, recordID string, attachments map[models.AttachmentKind]string) []models.Notice {
	order := []models.AttachmentKind{models.AttachmentPhoto, models.AttachmentDocument}
	warnings := make([]*models.Notice, len(order))

	var wg sync.WaitGroup
	for i, kind := range order {
		ref, ok := attachments[kind]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, kind models.AttachmentKind, ref string) {
			defer wg.Done()
			if err := f.submitter.UploadAttachment(ctx, recordID, kind, ref); err != nil {
				f.log.Warn().
					Err(err).
					Str("record_id", recordID).
					Str("kind", string(kind)).
					Msg("Attachment upload failed")
				warnings[i] = &models.Notice{
					Level:   models.NoticeWarning,
					Title:   "Upload failed",
					Message: fmt.Sprintf("The record was saved, but the %s could not be uploaded.", kind),
				}
			}
		}(i, kind, ref)
	}
	wg.Wait()

	var notices []models.Notice
	for _, w := range warnings {
		if w != nil {
			notices = append(notices, *w)
		}
	}
	return notices
}

// payloadLocked converts the editable form into the transport shape. It
// assumes validation has passed.
func (f *Form) payloadLocked() (*models.PipelinePayload, error) {
	num := func(key string) float64 {
		return validation.ParseNumberOrZero(f.values[key])
	}
	option := func(key string) string {
		return strings.TrimSpace(f.values[key])
	}

	date, err := f.isoDateLocked(models.FieldDateSiteAdded)
	if err != nil {
		return nil, err
	}

	competitions := make([]models.CompetitionPayload, 0, len(f.competitions))
	for _, c := range f.competitions {
		if validation.IsBlankCompetition(c) {
			continue
		}
		competitions = append(competitions, models.CompetitionPayload{
			CompanyName:   c.CompanyName,
			StationSales:  validation.ParseNumberOrZero(c.StationSales),
			DieselSales:   validation.ParseNumberOrZero(c.DieselSales),
			GasolineSales: validation.ParseNumberOrZero(c.GasolineSales),
			Comments:      c.Comments,
		})
	}

	return &models.PipelinePayload{
		SiteName:            f.values[models.FieldSiteName],
		City:                f.values[models.FieldCity],
		Area:                f.values[models.FieldArea],
		StationOrLand:       option(models.FieldStationOrLand),
		RevenueType:         option(models.FieldRevenueType),
		LocationCoordinates: f.values[models.FieldLocationCoordinates],
		DateSiteAdded:       date,
		SiteAddedBy:         f.values[models.FieldSiteAddedBy],
		ProjectType:         f.values[models.FieldProjectType],
		RealEstateTeam:      f.values[models.FieldRealEstateTeam],
		TrafficCount5Min:    num(models.FieldTrafficCount),
		GasolineSales:       num(models.FieldGasolineSales),
		DieselSales:         num(models.FieldDieselSales),
		RealEstateRevenue:   num(models.FieldRealEstateRevenue),
		RentalDemand:        num(models.FieldRentalDemand),
		LeaseTenure:         num(models.FieldLeaseTenure),
		Stage:               f.values[models.FieldStage],
		ApprovalStatus:      option(models.FieldApprovalStatus),
		InitialComments:     f.values[models.FieldInitialComments],
		Competitions:        competitions,
	}, nil
}

// isoDateLocked renders a date field as YYYY-MM-DD whether it is held as a
// time value or as typed text.
func (f *Form) isoDateLocked(key string) (string, error) {
	if t, ok := f.dates[key]; ok {
		return t.Format(models.DateLayout), nil
	}
	t, err := validation.ParseDate(f.values[key])
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", f.values[key], err)
	}
	return t.Format(models.DateLayout), nil
}
