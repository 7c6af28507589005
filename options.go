package sawmill

import (
	"log/slog"
	"net/http"

	"github.com/sawmill-io/sawmill/ingest"
)

// Option configures a Reporter.
type Option func(*resolvedOptions)

// resolvedOptions holds all overrides after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger      *slog.Logger
	environment Environment
	ruleID      string
	endpoint    string
	streamName  string
	apiToken    string
	httpClient  *http.Client
	credential  ingest.TokenProvider
	uploader    Uploader
}

// WithLogger sets the structured logger for the Reporter.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithEnvironment overrides the deployment stage from config
// (SAWMILL_ENVIRONMENT env var).
func WithEnvironment(env Environment) Option {
	return func(o *resolvedOptions) { o.environment = env }
}

// WithRuleID overrides the data collection rule id from config
// (SAWMILL_RULE_ID env var).
func WithRuleID(ruleID string) Option {
	return func(o *resolvedOptions) { o.ruleID = ruleID }
}

// WithEndpoint overrides the ingestion endpoint from config
// (SAWMILL_ENDPOINT env var).
func WithEndpoint(endpoint string) Option {
	return func(o *resolvedOptions) { o.endpoint = endpoint }
}

// WithStreamName overrides the data collection stream name from config
// (SAWMILL_STREAM_NAME env var).
func WithStreamName(streamName string) Option {
	return func(o *resolvedOptions) { o.streamName = streamName }
}

// WithAPIToken overrides the static bearer token from config
// (SAWMILL_API_TOKEN env var).
func WithAPIToken(token string) Option {
	return func(o *resolvedOptions) { o.apiToken = token }
}

// WithHTTPClient sets the HTTP client used for uploads and token
// acquisition. If not set, defaults with the configured timeout are used.
func WithHTTPClient(client *http.Client) Option {
	return func(o *resolvedOptions) { o.httpClient = client }
}

// WithCredential replaces the credential provider resolved from config.
func WithCredential(cred ingest.TokenProvider) Option {
	return func(o *resolvedOptions) { o.credential = cred }
}

// WithUploader replaces the ingestion client entirely. The endpoint and
// credential configuration are ignored when an uploader is supplied.
func WithUploader(uploader Uploader) Option {
	return func(o *resolvedOptions) { o.uploader = uploader }
}
