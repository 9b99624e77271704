// Package llm owns the shared connection to the upstream OpenAI-compatible
// chat service. One Manager instance is constructed at process start and
// passed explicitly to the completion services; there is no ambient global
// client.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ChatClient is the subset of the upstream client the completion services
// use. *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Config represents upstream LLM connection configuration.
type Config struct {
	Provider string // groq, openai, ollama, or any OpenAI-compatible provider
	APIKey   string
	BaseURL  string // optional, has a default per provider
	Timeout  int    // request timeout in seconds (default: 120)

	// HeartbeatInterval is how long a handle is trusted between liveness
	// checks (default: 60s).
	HeartbeatInterval time.Duration

	// RequestsPerSecond bounds the upstream call rate across all in-flight
	// requests (default: 10, burst 20).
	RequestsPerSecond float64
}

// Provider default base URLs, used when BaseURL is not explicitly set.
var providerDefaults = map[string]string{
	"groq":   "https://api.groq.com/openai/v1",
	"openai": "https://api.openai.com/v1",
	"ollama": "http://localhost:11434/v1",
}

// Manager owns the single long-lived upstream connection handle shared by all
// concurrent requests. It verifies liveness on a heartbeat interval and
// rebuilds the handle transparently when the upstream goes stale.
type Manager struct {
	mu        sync.Mutex
	client    *openai.Client
	lastCheck time.Time
	failed    bool

	cfg       Config
	limiter   *rate.Limiter
	heartbeat time.Duration
}

// NewManager validates the configuration and returns a Manager. The handle
// itself is built lazily on first Acquire. A missing API key is a
// configuration error the caller must treat as fatal: no recovery is possible
// without operator intervention.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is missing")
	}
	if cfg.BaseURL == "" {
		if def, ok := providerDefaults[cfg.Provider]; ok {
			cfg.BaseURL = def
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 60 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &Manager{
		cfg:       cfg,
		heartbeat: heartbeat,
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)*2),
	}, nil
}

// Acquire returns a ready-to-use connection handle. Concurrent callers
// observe either the current valid handle or a freshly rebuilt one; the
// check-and-rebuild sequence runs under the mutex so a half-constructed
// handle is never visible.
func (m *Manager) Acquire(ctx context.Context) (ChatClient, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		m.client = m.build()
		m.lastCheck = time.Now()
		m.failed = false
		slog.Info("llm: connection handle built",
			"provider", m.cfg.Provider,
			"base_url", m.cfg.BaseURL)
		return m.client, nil
	}

	if m.failed || time.Since(m.lastCheck) > m.heartbeat {
		if err := m.ping(ctx); err != nil {
			slog.Warn("llm: heartbeat failed, rebuilding handle", "error", err)
			m.client = m.build()
		}
		m.lastCheck = time.Now()
		m.failed = false
	}

	return m.client, nil
}

// MarkFailed records that the handle failed since its last successful use.
// The next Acquire will verify liveness immediately instead of waiting for
// the heartbeat interval.
func (m *Manager) MarkFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = true
}

// Ping issues a minimal request against the upstream service to verify the
// configured credentials and endpoint. Used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		m.client = m.build()
		m.lastCheck = time.Now()
	}
	return m.ping(ctx)
}

// build constructs a fresh upstream client. Must be called with m.mu held.
func (m *Manager) build() *openai.Client {
	clientConfig := openai.DefaultConfig(m.cfg.APIKey)
	if m.cfg.BaseURL != "" {
		clientConfig.BaseURL = m.cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(time.Duration(m.cfg.Timeout) * time.Second)
	return openai.NewClientWithConfig(clientConfig)
}

// ping issues a minimal models listing against the upstream service.
// Must be called with m.mu held.
func (m *Manager) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := m.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// newHTTPClient builds an HTTP client with sane connection pooling for a
// long-lived API dependency.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}
