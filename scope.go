package sawmill

import (
	"context"
	"fmt"
	"sync"
)

// Scope ties reporting to a unit of work: it acquires the optional lock,
// runs Setup, executes the guarded function, and guarantees
// Complete+Log/LogError on every exit path — normal return, error, or
// panic. Construct with Reporter.Scope, run with Run.
type Scope struct {
	reporter    *Reporter
	processName string
	artifactURL *string
	suppress    bool
	lock        sync.Locker
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithArtifactURL records the location of the process's artifacts
// (logs/metrics/model) on the completed record.
func WithArtifactURL(url string) ScopeOption {
	return func(s *Scope) { s.artifactURL = &url }
}

// WithSuppress discards the error returned by the guarded function after
// it has been reported. Not a replacement for error handling — use
// responsibly.
func WithSuppress() ScopeOption {
	return func(s *Scope) { s.suppress = true }
}

// WithLock serializes scoped reporting across goroutines sharing one
// Reporter. The lock is acquired (blocking) before Setup runs and released
// unconditionally after the record has been shipped.
func WithLock(lock sync.Locker) ScopeOption {
	return func(s *Scope) { s.lock = lock }
}

// Scope creates a reporting guard for one unit of work. The process name
// is typically of the form "task-<pipeline>#<process_desc>".
func (r *Reporter) Scope(processName string, opts ...ScopeOption) *Scope {
	s := &Scope{reporter: r, processName: processName}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Run executes fn under the guard. The outcome is SUCCESS when fn returns
// nil and FAILURE otherwise; the record is completed and shipped either
// way. A panic inside fn is reported as a failure and re-raised —
// suppression never applies to panics.
//
// Reporting errors that Log does not swallow propagate from Run after the
// lock is released; when fn also failed, the reporting error takes its
// place. This can mask the in-scope error — an accepted limitation of
// exit-path reporting.
func (s *Scope) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.lock != nil {
		s.lock.Lock()
		// Deferred first so the release runs after the reporting deferral
		// below, and regardless of what that deferral does.
		defer s.lock.Unlock()
	}

	if setupErr := s.reporter.Setup(s.processName); setupErr != nil {
		return setupErr
	}

	defer func() {
		panicked := recover()

		status := StatusSuccess
		if err != nil || panicked != nil {
			status = StatusFailure
		}
		s.reporter.Complete(status, s.artifactURL)

		var reportErr error
		switch {
		case panicked != nil:
			_, reportErr = s.reporter.LogError(ctx, fmt.Sprintf("panic: %v", panicked))
		case err != nil:
			_, reportErr = s.reporter.LogError(ctx, err.Error())
		default:
			_, reportErr = s.reporter.Log(ctx)
		}

		if panicked != nil {
			panic(panicked)
		}
		if reportErr != nil {
			err = fmt.Errorf("sawmill: report metrics: %w", reportErr)
			return
		}
		if s.suppress {
			err = nil
		}
	}()

	err = fn(ctx)
	return err
}
