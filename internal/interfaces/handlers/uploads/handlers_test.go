package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uploadsvc "teamhub-backend/internal/application/uploads"
	"teamhub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	bucket string
	path   string
	err    error
}

func (f *fakeStorage) CreateSignedUploadURL(_ context.Context, bucket, path string) (string, error) {
	f.bucket, f.path = bucket, path
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.test/upload/" + path + "?token=t", nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	return "https://storage.test/public/" + bucket + "/" + path
}

func setupUploadsTest(storage *fakeStorage) *fiber.App {
	h := &Handlers{Service: &uploadsvc.Service{
		Client: storage,
		Now:    func() time.Time { return time.UnixMilli(1700000000000) },
	}}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Post("/api/v1/uploads/:orgId/logo", h.UploadOrgLogo)
	app.Post("/api/v1/uploads/:orgId/document", h.UploadOrgDocument)
	return app
}

func post(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestUploadOrgLogo(t *testing.T) {
	storage := &fakeStorage{}
	app := setupUploadsTest(storage)

	resp := post(t, app, "/api/v1/uploads/org-1/logo", map[string]string{"file_name": "my logo.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Data uploadsvc.UploadResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, uploadsvc.BucketLogos, storage.bucket)
	assert.Equal(t, "org-1/1700000000000-my_logo.png", env.Data.Path)
	assert.Equal(t, "https://storage.test/public/org-logos/org-1/1700000000000-my_logo.png", env.Data.PublicURL)
}

func TestUploadOrgDocument_Bucket(t *testing.T) {
	storage := &fakeStorage{}
	app := setupUploadsTest(storage)

	resp := post(t, app, "/api/v1/uploads/org-1/document", map[string]string{"file_name": "deed.pdf"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uploadsvc.BucketDocuments, storage.bucket)
}

func TestUpload_MissingFileName(t *testing.T) {
	app := setupUploadsTest(&fakeStorage{})
	resp := post(t, app, "/api/v1/uploads/org-1/logo", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_StorageFailure(t *testing.T) {
	app := setupUploadsTest(&fakeStorage{err: errors.New("storage down")})
	resp := post(t, app, "/api/v1/uploads/org-1/logo", map[string]string{"file_name": "a.png"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "Could not prepare the upload", env.Error.Message)
}
