package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Post("/upload", UploadMiddleware(cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/upload", UploadMiddleware(cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func multipartBody(t *testing.T, modelName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if modelName != "" {
		require.NoError(t, writer.WriteField("model_name", modelName))
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile("file", "data.csv")
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	app := newUploadApp(Config{})

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUploadRejectsMissingModelName(t *testing.T) {
	app := newUploadApp(Config{})

	body, contentType := multipartBody(t, "", []byte("id\n1\n"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	app := newUploadApp(Config{MaxFileSize: 8})

	body, contentType := multipartBody(t, "passenger-v1", []byte("id,Class\n1,Eco\n2,Eco\n"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestUploadAllowsValidSubmission(t *testing.T) {
	app := newUploadApp(Config{})

	body, contentType := multipartBody(t, "passenger-v1", []byte("id\n1\n"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUploadIgnoresNonPost(t *testing.T) {
	app := newUploadApp(Config{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/upload", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
