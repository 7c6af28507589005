// Package ingest provides the HTTP client for the remote log-ingestion
// service. It is the module's sole network boundary: callers hand it a
// sequence of encoded records and it submits them to the data collection
// rule and stream named in the request.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/sawmill-io/sawmill/ingest"

// TokenProvider supplies a bearer token for outbound calls. Implementations
// must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// UploadStatus is the service's verdict on an upload call.
type UploadStatus string

const (
	UploadSuccess        UploadStatus = "Success"
	UploadPartialFailure UploadStatus = "PartialFailure"
)

// UploadResult carries the outcome of an accepted upload call. On partial
// failure, FailedLogs holds the entries the service rejected.
type UploadResult struct {
	Status     UploadStatus     `json:"status"`
	FailedLogs []map[string]any `json:"failedLogs,omitempty"`
}

// Config holds the settings needed to construct a Client.
type Config struct {
	// Endpoint is the root URL of the ingestion service
	// (e.g. "https://dce-pipeline.ingest.example.com").
	Endpoint string

	// Credential authenticates outbound upload calls.
	Credential TokenProvider

	// HTTPClient is an optional custom HTTP client. If nil, a default
	// client with Timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual upload requests when HTTPClient is nil.
	// Defaults to 30 seconds.
	Timeout time.Duration

	// UserAgent overrides the User-Agent header sent with uploads.
	UserAgent string
}

// Client submits encoded log records to the ingestion service.
// All methods are safe for concurrent use.
type Client struct {
	endpoint  string
	cred      TokenProvider
	client    *http.Client
	userAgent string
	tracer    trace.Tracer
	uploads   metric.Int64Counter
}

// NewClient creates a Client from the given configuration.
// Returns an error if Endpoint or Credential is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ingest: Endpoint is required")
	}
	if cfg.Credential == nil {
		return nil, fmt.Errorf("ingest: Credential is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "sawmill-go/0.1.0"
	}

	uploads, err := otel.Meter(instrumentationName).Int64Counter(
		"sawmill.uploads",
		metric.WithDescription("Upload calls to the ingestion service, by outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("ingest: create upload counter: %w", err)
	}

	return &Client{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		cred:      cfg.Credential,
		client:    httpClient,
		userAgent: userAgent,
		tracer:    otel.Tracer(instrumentationName),
		uploads:   uploads,
	}, nil
}

// Upload submits logs to the data collection rule and stream. It blocks
// until the service responds; timeout policy belongs to the HTTP client.
// A *Error is returned when the service answers with an error response;
// any other error indicates a transport or encoding failure.
func (c *Client) Upload(ctx context.Context, ruleID, streamName string, logs []map[string]any) (*UploadResult, error) {
	ctx, span := c.tracer.Start(ctx, "ingest.Upload",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("sawmill.rule_id", ruleID),
			attribute.String("sawmill.stream_name", streamName),
			attribute.Int("sawmill.log_count", len(logs)),
		),
	)
	defer span.End()

	result, err := c.upload(ctx, ruleID, streamName, logs)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case result.Status != UploadSuccess:
		outcome = "partial_failure"
	}
	c.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return result, err
}

func (c *Client) upload(ctx context.Context, ruleID, streamName string, logs []map[string]any) (*UploadResult, error) {
	encoded, err := json.Marshal(logs)
	if err != nil {
		return nil, fmt.Errorf("ingest: marshal logs: %w", err)
	}

	path := c.endpoint + "/rules/" + url.PathEscape(ruleID) + "/streams/" + url.PathEscape(streamName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("ingest: create request: %w", err)
	}

	token, err := c.cred.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: acquire token: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ingest: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	// 204 No Content: everything accepted.
	if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return &UploadResult{Status: UploadSuccess}, nil
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ingest: decode upload result: %w", err)
	}
	if result.Status == "" {
		result.Status = UploadSuccess
	}
	return &result, nil
}
