package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pipeline-entry/internal/models"
)

// ErrFileTooLarge is wrapped when an attachment exceeds the upload ceiling
var ErrFileTooLarge = errors.New("file too large")

// UploadPath returns the endpoint path for an attachment kind
func UploadPath(recordID string, kind models.AttachmentKind) (string, error) {
	id := url.PathEscape(recordID)
	switch kind {
	case models.AttachmentPhoto:
		return "/pipelines/" + id + "/upload-images", nil
	case models.AttachmentDocument:
		return "/pipelines/" + id + "/upload-docs", nil
	default:
		return "", fmt.Errorf("unsupported attachment kind %q", kind)
	}
}

// UploadAttachment sends a local file as the multipart field "file" to the
// photo or document endpoint of a record. fileRef is a path or a file:// URI.
func (c *Client) UploadAttachment(ctx context.Context, recordID string, kind models.AttachmentKind, fileRef string) error {
	op := fmt.Sprintf("upload %s", kind)

	path, err := UploadPath(recordID, kind)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}

	data, name, err := c.readAttachment(fileRef)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}

	mtype := mimetype.Detect(data)
	if kind == models.AttachmentPhoto {
		data, mtype, name = c.downscalePhoto(data, mtype, name)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", mtype.String())
	part, err := writer.CreatePart(header)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		return &RequestError{Op: op, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if err := c.do(req, op, nil); err != nil {
		return err
	}

	c.log.Info().
		Str("record_id", recordID).
		Str("kind", string(kind)).
		Str("file_name", name).
		Str("content_type", mtype.String()).
		Int("size", len(data)).
		Msg("Attachment uploaded")
	return nil
}

// readAttachment loads the referenced file, enforcing the size ceiling. The
// file handle is closed before returning.
func (c *Client) readAttachment(fileRef string) ([]byte, string, error) {
	path := LocalPath(fileRef)
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	limit := c.maxUploadSize
	if limit <= 0 {
		data, err := io.ReadAll(f)
		return data, filepath.Base(path), err
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read attachment: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, filepath.Base(path), limit)
	}
	return data, filepath.Base(path), nil
}

// downscalePhoto shrinks images whose longer side exceeds the configured
// bound and re-encodes them as JPEG. Anything it cannot decode is sent as is.
func (c *Client) downscalePhoto(data []byte, mtype *mimetype.MIME, name string) ([]byte, *mimetype.MIME, string) {
	if c.photoMaxDimension <= 0 || !strings.HasPrefix(mtype.String(), "image/") {
		return data, mtype, name
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		c.log.Debug().Err(err).Str("file_name", name).Msg("Photo not decodable, uploading original")
		return data, mtype, name
	}

	bounds := img.Bounds()
	if bounds.Dx() <= c.photoMaxDimension && bounds.Dy() <= c.photoMaxDimension {
		return data, mtype, name
	}

	resized := imaging.Fit(img, c.photoMaxDimension, c.photoMaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		c.log.Warn().Err(err).Str("file_name", name).Msg("Failed to re-encode photo, uploading original")
		return data, mtype, name
	}

	c.log.Debug().
		Str("file_name", name).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("max_dimension", c.photoMaxDimension).
		Msg("Photo downscaled")

	jpegName := strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	return buf.Bytes(), mimetype.Detect(buf.Bytes()), jpegName
}

// LocalPath turns a file:// URI into a filesystem path. Plain paths are
// returned unchanged.
func LocalPath(fileRef string) string {
	if strings.HasPrefix(fileRef, "file://") {
		if u, err := url.Parse(fileRef); err == nil {
			return u.Path
		}
	}
	return fileRef
}
