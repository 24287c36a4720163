package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pipeline-entry/internal/api"
	"github.com/pipeline-entry/internal/client"
	"github.com/pipeline-entry/internal/config"
	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/repository"
	"github.com/pipeline-entry/internal/service"
	"github.com/rs/zerolog"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(baseURL string, opts ...client.Option) *client.Client {
	return client.New(
		config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		config.UploadConfig{MaxUploadSize: 1024 * 1024, PhotoMaxDimension: 64},
		zerolog.Nop(),
		opts...,
	)
}

func newStubServer(t *testing.T) (*httptest.Server, *repository.Repositories) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Upload: config.UploadConfig{MaxUploadSize: 1024 * 1024},
		Stub: config.StubConfig{
			Users: []config.StubUser{
				{Username: "agent", Password: "agent123", Role: "Agent"},
			},
		},
	}
	repos := repository.New(cfg.Stub.Users)
	srv := httptest.NewServer(api.NewRouter(repos, cfg, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, repos
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writePNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return path
}

func TestAuthenticate(t *testing.T) {
	var gotContentType, gotUser, gotPass, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		r.ParseForm()
		gotUser, gotPass = r.PostForm.Get("username"), r.PostForm.Get("password")
		w.Write([]byte(`{"role":"Agent","id":17,"access_token":"tok"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL + "/").Authenticate(context.Background(), "field1", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Expected form encoding, got %q", gotContentType)
	}
	if gotUser != "field1" || gotPass != "s3cret" {
		t.Errorf("credentials not sent: %q %q", gotUser, gotPass)
	}
	if gotRequestID == "" {
		t.Error("Expected X-Request-ID header")
	}
	if resp.Role != "Agent" || resp.ID != "17" || resp.AccessToken != "tok" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Invalid credentials"}`))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL).Authenticate(context.Background(), "u", "p")
			if !errors.Is(err, client.ErrRequestFailed) {
				t.Fatalf("Expected ErrRequestFailed, got %v", err)
			}
			var reqErr *client.RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("Expected *RequestError, got %T", err)
			}
			if reqErr.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, reqErr.StatusCode)
			}
		})
	}
}

func TestAuthenticate_UndecodableBodyStillSucceeds(t *testing.T) {
	bodies := []string{`OK`, ``, `{"role": 3}`}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			resp, err := newTestClient(srv.URL).Authenticate(context.Background(), "u", "p")
			if err != nil {
				t.Fatalf("Expected 2xx to succeed, got %v", err)
			}
			if resp.Role != "" || resp.ID != "" {
				t.Errorf("Expected empty response, got %+v", resp)
			}
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).CreateRecord(context.Background(), &models.PipelinePayload{})
	if !errors.Is(err, client.ErrRequestFailed) {
		t.Errorf("Expected ErrRequestFailed, got %v", err)
	}

	calls := 0
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("dial refused")
	})}
	_, err = newTestClient("http://pipeline.invalid", client.WithHTTPClient(hc)).Authenticate(context.Background(), "u", "p")
	if !errors.Is(err, client.ErrRequestFailed) || calls != 1 {
		t.Errorf("Expected custom transport to fail once, got err=%v calls=%d", err, calls)
	}
}

func TestCreateRecord(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  string
		wantErr bool
	}{
		{"numeric id", `{"id": 42, "site_name": "x"}`, "42", false},
		{"string id", `{"id": "abc-1"}`, "abc-1", false},
		{"missing id", `{"site_name": "x"}`, "", true},
		{"unusable id", `{"id": true}`, "", true},
		{"malformed body", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.PipelinePayload
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, client.WithTokenSource(staticToken("t0k")))
			resp, err := c.CreateRecord(context.Background(), &models.PipelinePayload{
				SiteName:     "Plot 3",
				Competitions: []models.CompetitionPayload{},
			})

			if tt.wantErr {
				if !errors.Is(err, client.ErrRequestFailed) {
					t.Errorf("Expected ErrRequestFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateRecord failed: %v", err)
			}
			if resp.ID.String() != tt.wantID {
				t.Errorf("Expected id %q, got %q", tt.wantID, resp.ID)
			}
			if got.SiteName != "Plot 3" {
				t.Errorf("payload not sent, got %+v", got)
			}
			if auth != "Bearer t0k" {
				t.Errorf("Expected bearer token, got %q", auth)
			}
		})
	}
}

func TestCreateRecord_EmptyCompetitionsSerialisedAsArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	newTestClient(srv.URL).CreateRecord(context.Background(), &models.PipelinePayload{
		Competitions: []models.CompetitionPayload{},
	})

	if string(raw["competitions"]) != "[]" {
		t.Errorf("Expected competitions to be [], got %s", raw["competitions"])
	}
}

func TestUploadPath(t *testing.T) {
	tests := []struct {
		kind    models.AttachmentKind
		want    string
		wantErr bool
	}{
		{models.AttachmentPhoto, "/pipelines/9/upload-images", false},
		{models.AttachmentDocument, "/pipelines/9/upload-docs", false},
		{models.AttachmentKind("video"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := client.UploadPath("9", tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UploadPath error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("UploadPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUploadAttachment_Multipart(t *testing.T) {
	var gotPath, gotField, gotName, gotType string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		reader, err := r.MultipartReader()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		part, err := reader.NextPart()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotField, gotName, gotType = part.FormName(), part.FileName(), part.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(part)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	path := writeFile(t, "deed.pdf", []byte("%PDF-1.4\n%test document\n"))
	err := newTestClient(srv.URL).UploadAttachment(context.Background(), "5", models.AttachmentDocument, "file://"+path)
	if err != nil {
		t.Fatalf("UploadAttachment failed: %v", err)
	}

	if gotPath != "/pipelines/5/upload-docs" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotField != "file" || gotName != "deed.pdf" {
		t.Errorf("unexpected part %q %q", gotField, gotName)
	}
	if gotType != "application/pdf" {
		t.Errorf("Expected sniffed application/pdf, got %q", gotType)
	}
	if !strings.HasPrefix(string(gotData), "%PDF-1.4") {
		t.Errorf("file content not sent intact")
	}
}

func TestUploadAttachment_DownscalesLargePhotos(t *testing.T) {
	var gotType, gotName string
	var decoded image.Config
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotType, gotName = header.Header.Get("Content-Type"), header.Filename
		decoded, _, _ = image.DecodeConfig(file)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	path := writePNG(t, "site.png", 256, 128)
	if err := newTestClient(srv.URL).UploadAttachment(context.Background(), "1", models.AttachmentPhoto, path); err != nil {
		t.Fatalf("UploadAttachment failed: %v", err)
	}

	if gotType != "image/jpeg" || gotName != "site.jpg" {
		t.Errorf("Expected re-encoded jpeg, got %q %q", gotType, gotName)
	}
	if decoded.Width != 64 || decoded.Height != 32 {
		t.Errorf("Expected 64x32, got %dx%d", decoded.Width, decoded.Height)
	}
}

func TestUploadAttachment_LocalFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := client.New(
		config.APIConfig{BaseURL: srv.URL},
		config.UploadConfig{MaxUploadSize: 8},
		zerolog.Nop(),
	)

	err := c.UploadAttachment(context.Background(), "1", models.AttachmentDocument, writeFile(t, "big.txt", []byte("more than eight bytes")))
	if !errors.Is(err, client.ErrFileTooLarge) || !errors.Is(err, client.ErrRequestFailed) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}

	err = c.UploadAttachment(context.Background(), "1", models.AttachmentDocument, filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, client.ErrRequestFailed) {
		t.Errorf("Expected ErrRequestFailed for missing file, got %v", err)
	}

	if calls != 0 {
		t.Errorf("Expected no network calls, got %d", calls)
	}
}

func TestAgainstStubServer(t *testing.T) {
	srv, repos := newStubServer(t)
	ctx := context.Background()
	c := newTestClient(srv.URL)

	auth, err := c.Authenticate(ctx, "agent", "agent123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	c.SetTokenSource(staticToken(auth.AccessToken))

	created, err := c.CreateRecord(ctx, &models.PipelinePayload{
		SiteName:            "Plot 1",
		City:                "Riyadh",
		Area:                "Olaya",
		StationOrLand:       "Station",
		RevenueType:         "Fuel",
		LocationCoordinates: "24.7,46.6",
		DateSiteAdded:       "2024-06-01",
		SiteAddedBy:         "agent",
		ProjectType:         "Rebrand",
		RealEstateTeam:      "Central",
		Stage:               "Survey",
		Competitions:        []models.CompetitionPayload{},
	})
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	if err := c.UploadAttachment(ctx, created.ID.String(), models.AttachmentPhoto, writePNG(t, "p.png", 8, 8)); err != nil {
		t.Fatalf("photo upload failed: %v", err)
	}
	if err := c.UploadAttachment(ctx, created.ID.String(), models.AttachmentDocument, writeFile(t, "n.txt", []byte("notes"))); err != nil {
		t.Fatalf("document upload failed: %v", err)
	}

	record, err := c.GetRecord(ctx, created.ID.String())
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if record.CreatedBy != "agent" || len(record.Images) != 1 || len(record.Documents) != 1 {
		t.Errorf("unexpected stored record %+v", record)
	}

	count, _ := repos.Pipeline.Count(ctx)
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
}

func TestFilePicker(t *testing.T) {
	existing := writeFile(t, "a.pdf", []byte("%PDF-1.4"))

	tests := []struct {
		name    string
		picker  *client.FilePicker
		kind    models.AttachmentKind
		want    string
		wantErr error
	}{
		{"selected", client.NewFilePicker("", existing), models.AttachmentDocument, existing, nil},
		{"not chosen", client.NewFilePicker("", existing), models.AttachmentPhoto, "", service.ErrCancelled},
		{"missing file", client.NewFilePicker(filepath.Join(t.TempDir(), "nope.jpg"), ""), models.AttachmentPhoto, "", os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.picker.Pick(context.Background(), tt.kind)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Pick = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}
