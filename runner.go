package ouroboros

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/mockserver"
)

// ProtocolHandler initializes the specification for one protocol (e.g.
// "http", "websocket") at startup. Initialize may fail; the runner catches
// per-protocol and continues.
type ProtocolHandler interface {
	// Name identifies the protocol in logs.
	Name() string
	// Initialize performs the protocol's spec setup (scan, reconcile, enrich).
	Initialize(ctx context.Context) error
}

// ProtocolHandlerFunc adapts a function to the ProtocolHandler interface.
type ProtocolHandlerFunc struct {
	// Protocol is the protocol name reported by Name.
	Protocol string
	// Fn is invoked by Initialize.
	Fn func(ctx context.Context) error
}

// Name implements ProtocolHandler.
func (p ProtocolHandlerFunc) Name() string { return p.Protocol }

// Initialize implements ProtocolHandler.
func (p ProtocolHandlerFunc) Initialize(ctx context.Context) error { return p.Fn(ctx) }

// Runner orchestrates startup: every protocol handler and the initial mock
// registry load each run inside their own error boundary, logged and skipped
// on failure. One subsystem's failure never aborts the others, and Run never
// returns an error: startup of the host application must not be blocked.
type Runner struct {
	handlers []ProtocolHandler
	registry *mockserver.Registry
	loader   *mockserver.Loader
	log      document.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger used during startup. Defaults to NopLogger.
func WithRunnerLogger(log document.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithProtocolHandler registers a protocol handler. Handlers run in
// registration order.
func WithProtocolHandler(h ProtocolHandler) RunnerOption {
	return func(r *Runner) {
		if h != nil {
			r.handlers = append(r.handlers, h)
		}
	}
}

// WithRegistryLoad registers the mock registry to load once after all
// protocol handlers ran.
func WithRegistryLoad(reg *mockserver.Registry, loader *mockserver.Loader) RunnerOption {
	return func(r *Runner) {
		r.registry = reg
		r.loader = loader
	}
}

// NewRunner creates a startup runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{log: document.NopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes startup. It never returns an error.
func (r *Runner) Run(ctx context.Context) {
	for _, h := range r.handlers {
		if err := h.Initialize(ctx); err != nil {
			r.log.Error("protocol initialization failed, continuing startup",
				"protocol", h.Name(), "error", err)
			continue
		}
		r.log.Info("protocol initialized", "protocol", h.Name())
	}
	if r.registry != nil && r.loader != nil {
		if err := r.registry.Reload(r.loader); err != nil {
			r.log.Error("initial mock registry load failed, continuing startup", "error", err)
		}
	}
}

// FetchScannedSpec fetches the host application's generated OpenAPI document
// over HTTP, as the scanned spec for reconciliation. The client carries an
// explicit timeout so a slow self-call cannot hang startup.
func FetchScannedSpec(ctx context.Context, url string, timeout time.Duration) (*document.Map, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent())
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch scanned spec from %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	return document.LoadBytes(data)
}
