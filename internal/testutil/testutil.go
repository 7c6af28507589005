// Package testutil provides shared test doubles for the ingestion boundary.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/sawmill-io/sawmill/ingest"
)

// CapturingUploader is a sawmill.Uploader that records every upload call
// and answers with scripted results. Safe for concurrent use.
type CapturingUploader struct {
	// Result and Err are returned from every Upload call. A nil Result
	// with a nil Err yields a plain success result.
	Result *ingest.UploadResult
	Err    error

	mu    sync.Mutex
	calls []UploadCall
}

// UploadCall is one recorded Upload invocation.
type UploadCall struct {
	RuleID     string
	StreamName string
	Logs       []map[string]any
}

// Upload records the call and returns the scripted outcome.
func (u *CapturingUploader) Upload(ctx context.Context, ruleID, streamName string, logs []map[string]any) (*ingest.UploadResult, error) {
	u.mu.Lock()
	u.calls = append(u.calls, UploadCall{RuleID: ruleID, StreamName: streamName, Logs: logs})
	u.mu.Unlock()

	if u.Err != nil {
		return nil, u.Err
	}
	if u.Result != nil {
		return u.Result, nil
	}
	return &ingest.UploadResult{Status: ingest.UploadSuccess}, nil
}

// Calls returns a copy of the recorded upload calls.
func (u *CapturingUploader) Calls() []UploadCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]UploadCall(nil), u.calls...)
}

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
