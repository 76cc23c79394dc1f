package mlbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/metrics"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/config"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

// ErrNotConfigured is returned before any I/O when no backend base URL is set.
var ErrNotConfigured = errors.New("classification backend URL is not configured")

const genericFailure = "classification backend request failed"

var quotedName = regexp.MustCompile(`'([^']+)'`)

type Client struct {
	baseURL         string
	httpClient      *http.Client
	trainTimeout    time.Duration
	classifyTimeout time.Duration
	deleteTimeout   time.Duration
	healthTimeout   time.Duration
}

func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:      &http.Client{},
		trainTimeout:    time.Duration(cfg.TrainTimeoutSec) * time.Second,
		classifyTimeout: time.Duration(cfg.ClassifyTimeoutSec) * time.Second,
		deleteTimeout:   time.Duration(cfg.DeleteTimeoutSec) * time.Second,
		healthTimeout:   time.Duration(cfg.HealthTimeoutSec) * time.Second,
	}
}

type HealthResponse struct {
	Version string `json:"version"`
}

type TrainRequest struct {
	File           []byte
	FileName       string
	ModelName      string
	TargetColumn   string
	FeatureColumns []string
}

type ClassMetric struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Metrics struct {
	Accuracy        float64                `json:"accuracy"`
	Precision       float64                `json:"precision"`
	Recall          float64                `json:"recall"`
	F1              float64                `json:"f1"`
	ClassMetrics    map[string]ClassMetric `json:"class_metrics"`
	ConfusionMatrix [][]int                `json:"confusion_matrix"`
}

type TrainResponse struct {
	ModelName        string   `json:"modelName"`
	TargetColumn     string   `json:"targetColumn"`
	FeatureColumns   []string `json:"featureColumns"`
	Classes          []string `json:"classes"`
	Accuracy         float64  `json:"accuracy"`
	ModelData        string   `json:"modelData"`
	EncodersData     string   `json:"encodersData"`
	LabelEncoderData string   `json:"labelEncoderData"`
	Metrics          *Metrics `json:"metrics,omitempty"`
}

type ClassifyRequest struct {
	File      []byte
	FileName  string
	ModelName string
}

// ClassifyResult is one prediction row. The backend's per-row shape is
// treated as opaque except for the class and confidence keys extracted below.
type ClassifyResult map[string]interface{}

type ClassifyResponse struct {
	Results []ClassifyResult `json:"results"`
	Metrics *Metrics         `json:"metrics,omitempty"`
}

func (r ClassifyResult) PredictedClass() string {
	for _, key := range []string{"predicted_class", "prediction"} {
		if v, ok := r[key].(string); ok {
			return v
		}
	}
	return ""
}

func (r ClassifyResult) ActualClass() *string {
	for _, key := range []string{"actual_class", "actual"} {
		if v, ok := r[key].(string); ok && v != "" {
			return &v
		}
	}
	return nil
}

func (r ClassifyResult) Confidence() float64 {
	if v, ok := r["confidence"].(float64); ok {
		return v
	}
	return 0
}

// BackendError carries a non-2xx response from the backend. Error() returns
// the full serialized detail when the backend sent a structured one, so
// downstream callers can parse missing column lists back out of the text.
type BackendError struct {
	Status         int
	Message        string
	Detail         string
	MissingColumns []string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// MissingColumns recovers the missing-column list from a classify failure,
// whether the error is still typed or has been flattened to text.
func MissingColumns(err error) []string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.MissingColumns
	}
	if err == nil {
		return nil
	}
	var detail struct {
		MissingColumns []string `json:"missing_columns"`
	}
	if jsonErr := json.Unmarshal([]byte(err.Error()), &detail); jsonErr == nil {
		return detail.MissingColumns
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BackendRequestDuration.WithLabelValues("health").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newBackendError(resp)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}

	return &health, nil
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.trainTimeout)
	defer cancel()

	featureJSON, err := json.Marshal(req.FeatureColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature columns: %w", err)
	}

	fields := map[string]string{
		"model_name":      req.ModelName,
		"target_column":   req.TargetColumn,
		"feature_columns": string(featureJSON),
	}

	body, contentType, err := buildMultipart(req.File, req.FileName, fields)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/train", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	logger.Info("Forwarding train request",
		zap.String("model_name", req.ModelName),
		zap.String("file_name", req.FileName),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.BackendRequestDuration.WithLabelValues("train").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newBackendError(resp)
	}

	var trainResp TrainResponse
	if err := json.NewDecoder(resp.Body).Decode(&trainResp); err != nil {
		return nil, fmt.Errorf("failed to decode train response: %w", err)
	}

	return &trainResp, nil
}

func (c *Client) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.classifyTimeout)
	defer cancel()

	body, contentType, err := buildMultipart(req.File, req.FileName, map[string]string{
		"model_name": req.ModelName,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/classify", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	logger.Info("Forwarding classify request",
		zap.String("model_name", req.ModelName),
		zap.String("file_name", req.FileName),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.BackendRequestDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newBackendError(resp)
	}

	var classifyResp ClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&classifyResp); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}

	return &classifyResp, nil
}

func (c *Client) DeleteModel(ctx context.Context, name string) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.deleteTimeout)
	defer cancel()

	endpoint := c.baseURL + "/api/models/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BackendRequestDuration.WithLabelValues("delete_model").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newBackendError(resp)
	}

	return nil
}

func buildMultipart(file []byte, fileName string, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// newBackendError translates a non-2xx backend response into a BackendError,
// applying the ordered rules for classify/train failures:
//  1. a structured detail object carrying a message is surfaced serialized,
//     keeping missing_columns recoverable from the error text;
//  2. a 404 whose detail mentions "Model" becomes a model-not-found error
//     naming the first single-quoted substring, or 'unknown';
//  3. otherwise the raw detail text, or a generic fallback.
func newBackendError(resp *http.Response) *BackendError {
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return &BackendError{Status: resp.StatusCode, Message: genericFailure}
	}

	var structured struct {
		Message        string   `json:"message"`
		MissingColumns []string `json:"missing_columns"`
	}
	if err := json.Unmarshal(envelope.Detail, &structured); err == nil && structured.Message != "" {
		return &BackendError{
			Status:         resp.StatusCode,
			Message:        structured.Message,
			Detail:         string(envelope.Detail),
			MissingColumns: structured.MissingColumns,
		}
	}

	var detailText string
	if err := json.Unmarshal(envelope.Detail, &detailText); err != nil {
		detailText = string(envelope.Detail)
	}

	if resp.StatusCode == http.StatusNotFound && strings.Contains(detailText, "Model") {
		name := "unknown"
		if match := quotedName.FindStringSubmatch(detailText); match != nil {
			name = match[1]
		}
		return &BackendError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("model not found: '%s'", name),
		}
	}

	if detailText == "" {
		detailText = genericFailure
	}

	return &BackendError{Status: resp.StatusCode, Message: detailText}
}
