// Package sawmill reports the lifecycle of a named process execution to a
// remote log-ingestion endpoint. Pipeline jobs use it to emit standardized
// telemetry — status, timestamps, error messages, artifact links — into a
// central log store:
//
//	reporter, err := sawmill.New()
//	if err != nil { ... }
//	err = reporter.Scope("task-pipeline#train").Run(ctx, func(ctx context.Context) error {
//	    return doWork(ctx)
//	})
//
// The Scope guard guarantees the record is completed and shipped on every
// exit path. Callers that need finer control drive the Reporter directly:
// Setup at the start of work, then Complete+Log on success or LogError on
// failure.
package sawmill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/sawmill-io/sawmill/ingest"
	"github.com/sawmill-io/sawmill/internal/config"
	"github.com/sawmill-io/sawmill/internal/credentials"
)

// Uploader is the narrow interface to the ingestion service consumed by
// the Reporter. *ingest.Client satisfies it; tests substitute fakes.
type Uploader interface {
	Upload(ctx context.Context, ruleID, streamName string, logs []map[string]any) (*ingest.UploadResult, error)
}

// Reporter owns the metrics record for one process execution. Construct
// one per unit of work with New().
//
// A Reporter is not safe for concurrent lifecycle calls on the same
// instance; goroutines sharing one must serialize through Scope's
// WithLock option.
type Reporter struct {
	record     *Record
	ruleID     string
	streamName string
	uploader   Uploader
	logger     *slog.Logger
	now        func() time.Time
}

// New resolves configuration and credentials, constructs the ingestion
// client, and initializes an empty record. Configuration or credential
// failures are fatal — they surface here, never during reporting.
func New(opts ...Option) (*Reporter, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("sawmill: load config: %w", err)
	}
	applyOverrides(&cfg, o)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sawmill: config: %w", err)
	}

	uploader := o.uploader
	if uploader == nil {
		cred := o.credential
		if cred == nil {
			switch {
			case cfg.APIToken != "":
				cred = credentials.NewStatic(cfg.APIToken)
			case cfg.TokenURL != "":
				cred = credentials.NewClientSecret(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, o.httpClient)
			default:
				return nil, fmt.Errorf("sawmill: no credentials configured (set SAWMILL_API_TOKEN or SAWMILL_TOKEN_URL)")
			}
		}

		client, err := ingest.NewClient(ingest.Config{
			Endpoint:   cfg.Endpoint,
			Credential: cred,
			HTTPClient: o.httpClient,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("sawmill: ingestion client: %w", err)
		}
		uploader = client
	}

	return &Reporter{
		record:     newRecord(Environment(cfg.Environment)),
		ruleID:     cfg.RuleID,
		streamName: cfg.StreamName,
		uploader:   uploader,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func applyOverrides(cfg *config.Config, o resolvedOptions) {
	if o.environment != "" {
		cfg.Environment = string(o.environment)
	}
	if o.ruleID != "" {
		cfg.RuleID = o.ruleID
	}
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.streamName != "" {
		cfg.StreamName = o.streamName
	}
	if o.apiToken != "" {
		cfg.APIToken = o.apiToken
	}
}

// Setup initializes the record at the start of a process: process name,
// start time (UTC, ISO-8601), and the derived execution id
// "{name}@{start_time}". Calling Setup again overwrites the start fields —
// last call wins.
func (r *Reporter) Setup(processName string) error {
	if processName == "" {
		return fmt.Errorf("sawmill: process name is required")
	}

	start := r.now().UTC().Format(time.RFC3339Nano)
	executionID := processName + "@" + start

	r.record.ProcessName = &processName
	r.record.ExecutionID = &executionID
	r.record.StartTime = &start
	return nil
}

// Complete stamps the terminal fields at the end of a process: status,
// artifact URL, and end time (UTC, ISO-8601). It does not upload — pair
// it with Log.
func (r *Reporter) Complete(status Status, artifactURL *string) {
	end := r.now().UTC().Format(time.RFC3339Nano)

	r.record.Status = status
	r.record.MlflowURL = artifactURL
	r.record.EndTime = &end
}

// Log stamps the record's emission time, encodes it to the wire schema,
// and submits it as a single-element batch.
//
// Error policy ("best-effort telemetry"): a service error response is
// logged and swallowed so metrics reporting never crashes the caller's
// real workload; any other upload error is logged and returned since it
// may indicate a programming error. A partial-failure result is logged as
// a warning and returned for optional inspection.
func (r *Reporter) Log(ctx context.Context) (*ingest.UploadResult, error) {
	stamp := r.now().UTC().Format(time.RFC3339Nano)
	r.record.TimeGenerated = &stamp

	logs := []map[string]any{r.record.Encode()}

	result, err := r.uploader.Upload(ctx, r.ruleID, r.streamName, logs)
	if err != nil {
		if ingest.IsServiceError(err) {
			r.logger.Error("unable to upload the metrics record",
				"error", err, "execution_id", strField(r.record.ExecutionID))
			return nil, nil
		}
		r.logger.Error("metrics upload failed unexpectedly", "error", err)
		return nil, err
	}

	if result.Status != ingest.UploadSuccess {
		r.logger.Warn("ingestion service rejected some entries",
			"status", result.Status, "failed_logs", result.FailedLogs)
		return result, nil
	}

	r.logger.Info("metrics record uploaded",
		"status", result.Status, "execution_id", strField(r.record.ExecutionID))
	return result, nil
}

// LogError appends msg to the record's error messages, forces the status
// to FAILURE, and ships the record via Log. Complete need not have run:
// end time and artifact URL may remain unset on the error path.
func (r *Reporter) LogError(ctx context.Context, msg string) (*ingest.UploadResult, error) {
	r.record.ErrorMessage = append(r.record.ErrorMessage, msg)
	r.record.Status = StatusFailure
	return r.Log(ctx)
}

// Record exposes the underlying record, e.g. to attach execution details.
func (r *Reporter) Record() *Record {
	return r.record
}

// SetDetail attaches caller-supplied context to the record's execution details.
func (r *Reporter) SetDetail(key string, value any) {
	r.record.ExecutionDetails[key] = value
}
