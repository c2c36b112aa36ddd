package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iago/briefcase/internal/domain"
)

const DefaultBaseURL = "http://localhost:5002/api"

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client is a stateless wrapper over the dossier job endpoints.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(config Config) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(config.BaseURL), "/"),
		token:      strings.TrimSpace(config.Token),
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
		logger:     config.Logger,
	}
}

type submitRequest struct {
	URL string `json:"url"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

type exportResponse struct {
	NotionURL string `json:"notion_url"`
	Error     string `json:"error"`
}

// Submit creates a dossier job for url and returns its id.
func (c *Client) Submit(ctx context.Context, teamURL string) (string, error) {
	payload, err := json.Marshal(submitRequest{URL: teamURL})
	if err != nil {
		return "", fmt.Errorf("marshal submit payload: %w", err)
	}

	statusCode, body, err := c.do(ctx, "submit", http.MethodPost, "/dossier", payload)
	if err != nil {
		return "", &SubmissionError{Message: submitFallbackMessage, Err: err}
	}

	var decoded submitResponse
	decodeErr := json.Unmarshal(body, &decoded)
	if statusCode < 200 || statusCode > 299 {
		message := submitFallbackMessage
		if decodeErr == nil && strings.TrimSpace(decoded.Error) != "" {
			message = strings.TrimSpace(decoded.Error)
		}
		return "", &SubmissionError{Message: message}
	}
	if decodeErr != nil {
		return "", &SubmissionError{Message: submitFallbackMessage, Err: &decodeError{Op: "submit", Err: decodeErr}}
	}
	if strings.TrimSpace(decoded.JobID) == "" {
		return "", &SubmissionError{Message: submitFallbackMessage, Err: errors.New("response without job_id")}
	}
	return decoded.JobID, nil
}

// Poll fetches the current snapshot of a job.
func (c *Client) Poll(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	statusCode, body, err := c.do(ctx, "poll", http.MethodGet, "/dossier/"+url.PathEscape(jobID), nil)
	if err != nil {
		return domain.JobSnapshot{}, err
	}

	if statusCode < 200 || statusCode > 299 {
		return domain.JobSnapshot{}, &StatusError{
			Op:         "poll",
			StatusCode: statusCode,
			Message:    errorMessage(body, http.StatusText(statusCode)),
		}
	}

	var snapshot domain.JobSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return domain.JobSnapshot{}, &decodeError{Op: "poll", Err: err}
	}
	if snapshot.Status != domain.JobStatusComplete {
		snapshot.Result = nil
	}
	return snapshot, nil
}

// Export asks the backend to materialize the dossier on the external service
// and returns the resulting page URL. It is never retried.
func (c *Client) Export(ctx context.Context, jobID string) (string, error) {
	_, body, err := c.do(ctx, "export", http.MethodPost, "/dossier/"+url.PathEscape(jobID)+"/export-notion", nil)
	if err != nil {
		return "", &ExportError{Message: exportFallbackMessage + ": " + err.Error(), Err: err}
	}

	var decoded exportResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &ExportError{Message: exportFallbackMessage, Err: &decodeError{Op: "export", Err: err}}
	}
	if strings.TrimSpace(decoded.NotionURL) == "" {
		return "", &ExportError{Message: firstNonEmpty(decoded.Error, exportFallbackMessage)}
	}
	return decoded.NotionURL, nil
}

func (c *Client) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	payload []byte,
) (int, []byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(timeoutCtx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s request: %w", op, err)
	}
	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-Id", requestID)
	if payload != nil || method == http.MethodPost {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if c.logger != nil {
		c.logger.Printf(
			"jobapi request_id=%s op=%s status=%d duration_ms=%d",
			requestID,
			op,
			response.StatusCode,
			time.Since(start).Milliseconds(),
		)
	}
	return response.StatusCode, body, nil
}

func errorMessage(body []byte, fallback string) string {
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && strings.TrimSpace(decoded.Error) != "" {
		return strings.TrimSpace(decoded.Error)
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
