package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pipeline-entry/internal/config"
	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/repository"
	"github.com/rs/zerolog"
)

// PipelineHandler handles pipeline record endpoints
type PipelineHandler struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *PipelineHandler {
	return &PipelineHandler{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("handler", "pipeline").Logger(),
	}
}

// CreatePipeline handles POST /pipelines/ and /pipelines/with-competition
func (h *PipelineHandler) CreatePipeline(c *gin.Context) {
	ctx := c.Request.Context()

	var payload models.PipelinePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail": "invalid pipeline payload",
			"errors": bindingErrors(err),
		})
		return
	}
	if payload.Competitions == nil {
		payload.Competitions = []models.CompetitionPayload{}
	}

	record, err := h.repos.Pipeline.Create(ctx, &payload, currentUsername(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create pipeline")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create pipeline"})
		return
	}

	h.log.Info().
		Int64("id", record.ID).
		Str("site_name", record.SiteName).
		Int("competitions", len(record.Competitions)).
		Msg("Pipeline created")

	c.JSON(http.StatusCreated, record)
}

// GetPipeline handles GET /pipelines/:id
func (h *PipelineHandler) GetPipeline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := h.repos.Pipeline.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to get pipeline")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to get pipeline"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "pipeline not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// UploadImages handles POST /pipelines/:id/upload-images
func (h *PipelineHandler) UploadImages(c *gin.Context) {
	h.upload(c, models.AttachmentPhoto)
}

// UploadDocs handles POST /pipelines/:id/upload-docs
func (h *PipelineHandler) UploadDocs(c *gin.Context) {
	h.upload(c, models.AttachmentDocument)
}

func (h *PipelineHandler) upload(c *gin.Context, kind models.AttachmentKind) {
	ctx := c.Request.Context()

	id, ok := parseID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "multipart field 'file' is required"})
		return
	}

	// Validate file size
	if header.Size > h.cfg.Upload.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"detail": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Upload.MaxUploadSize/(1024*1024)),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to read file"})
		return
	}

	mtype := mimetype.Detect(data)
	if kind == models.AttachmentPhoto && !strings.HasPrefix(mtype.String(), "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"detail": fmt.Sprintf("photos must be images, got %s", mtype.String()),
		})
		return
	}

	attachment := models.Attachment{
		ObjectName:  fmt.Sprintf("pipelines/%d/%s/%s%s", id, kind, uuid.New().String(), mtype.Extension()),
		FileName:    header.Filename,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
		UploadedAt:  time.Now().UTC(),
	}

	if err := h.repos.Pipeline.AddAttachment(ctx, id, kind, attachment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "pipeline not found"})
			return
		}
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to store attachment")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to store attachment"})
		return
	}

	h.log.Info().
		Int64("id", id).
		Str("kind", string(kind)).
		Str("object_name", attachment.ObjectName).
		Str("content_type", attachment.ContentType).
		Int64("size", attachment.Size).
		Msg("Attachment stored")

	c.JSON(http.StatusOK, attachment)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// bindingErrors flattens validator errors into field → tag pairs
func bindingErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Namespace()] = fe.Tag()
		}
		return out
	}
	out["body"] = err.Error()
	return out
}
