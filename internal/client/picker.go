package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/service"
)

// FilePicker resolves attachments from local paths chosen up front, such as
// command-line flags. A kind with no path behaves like a cancelled dialog.
type FilePicker struct {
	Paths map[models.AttachmentKind]string
}

// Verify interface compliance
var _ service.Picker = (*FilePicker)(nil)

// NewFilePicker creates a picker for the given photo and document paths.
// Either may be empty.
func NewFilePicker(photo, document string) *FilePicker {
	paths := make(map[models.AttachmentKind]string)
	if photo != "" {
		paths[models.AttachmentPhoto] = photo
	}
	if document != "" {
		paths[models.AttachmentDocument] = document
	}
	return &FilePicker{Paths: paths}
}

// Pick checks that the file for kind exists and is readable
func (p *FilePicker) Pick(ctx context.Context, kind models.AttachmentKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref, ok := p.Paths[kind]
	if !ok || ref == "" {
		return "", service.ErrCancelled
	}

	path := LocalPath(ref)
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrPermission):
		return "", fmt.Errorf("%s: %w", path, service.ErrPermissionDenied)
	case err != nil:
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return ref, nil
}
