package pool

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PoolConfig defines the transport settings shared by outbound clients
type PoolConfig struct {
	ConnectionTimeout   time.Duration `json:"connection_timeout"`
	RequestTimeout      time.Duration `json:"request_timeout"`
	IdleTimeout         time.Duration `json:"idle_timeout"`
	MaxIdleConns        int           `json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
}

// DefaultPoolConfig returns sensible defaults
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		ConnectionTimeout:   5 * time.Second,
		RequestTimeout:      10 * time.Second,
		IdleTimeout:         90 * time.Second,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
	}
}

// BackendHealth tracks the outcome of calls to one upstream host
type BackendHealth struct {
	Address      string
	IsHealthy    bool
	LastCheck    time.Time
	LastError    error
	FailureCount int
	SuccessCount int
}

// ConnectionPool hands out one pooled HTTP client per upstream host and
// records the health of every call made through it.
type ConnectionPool struct {
	mu          sync.RWMutex
	httpClients map[string]*http.Client
	healthStats map[string]*BackendHealth
	config      PoolConfig
	logger      *zap.Logger
}

func NewConnectionPool(config PoolConfig, logger *zap.Logger) *ConnectionPool {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConnectionPool{
		httpClients: make(map[string]*http.Client),
		healthStats: make(map[string]*BackendHealth),
		config:      config,
		logger:      logger,
	}
}

// HostOf reduces a base URL to the host key used by the pool.
func HostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}

// GetHTTPClient returns the client for baseURL, creating it on first use.
func (p *ConnectionPool) GetHTTPClient(baseURL string) *http.Client {
	address := HostOf(baseURL)

	p.mu.RLock()
	client, exists := p.httpClients[address]
	p.mu.RUnlock()

	if exists {
		return client
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double check after acquiring write lock
	if client, exists = p.httpClients[address]; exists {
		return client
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   p.config.ConnectionTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          p.config.MaxIdleConns,
		MaxIdleConnsPerHost:   p.config.MaxIdleConnsPerHost,
		IdleConnTimeout:       p.config.IdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	client = &http.Client{
		Transport: &recordingTransport{base: transport, pool: p, address: address},
		Timeout:   p.config.RequestTimeout,
	}

	p.httpClients[address] = client
	p.healthStats[address] = &BackendHealth{
		Address:   address,
		IsHealthy: true,
		LastCheck: time.Now(),
	}

	p.logger.Info("Created new HTTP client", zap.String("address", address))
	return client
}

// recordingTransport reports every round trip to the pool. Transport
// errors and 5xx answers count as failures.
type recordingTransport struct {
	base    http.RoundTripper
	pool    *ConnectionPool
	address string
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	switch {
	case err != nil:
		if req.Context().Err() == nil {
			t.pool.RecordFailure(t.address, err)
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		t.pool.RecordFailure(t.address, fmt.Errorf("upstream answered %d", resp.StatusCode))
	default:
		t.pool.RecordSuccess(t.address)
	}
	return resp, err
}

// RecordSuccess records a successful request to a backend
func (p *ConnectionPool) RecordSuccess(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if health, exists := p.healthStats[address]; exists {
		health.IsHealthy = true
		health.SuccessCount++
		health.LastCheck = time.Now()
		health.LastError = nil
	}
}

// RecordFailure records a failed request to a backend
func (p *ConnectionPool) RecordFailure(address string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if health, exists := p.healthStats[address]; exists {
		health.IsHealthy = false
		health.FailureCount++
		health.LastCheck = time.Now()
		health.LastError = err
	}
}

// IsHealthy reports whether the last call to a backend succeeded.
// Untracked backends are assumed healthy.
func (p *ConnectionPool) IsHealthy(address string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if health, exists := p.healthStats[address]; exists {
		return health.IsHealthy
	}
	return true
}

// LastError returns the error of the last failed call, or nil while the
// backend is healthy.
func (p *ConnectionPool) LastError(address string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	health, exists := p.healthStats[address]
	if !exists || health.IsHealthy {
		return nil
	}
	if health.LastError == nil {
		return fmt.Errorf("%s is unhealthy", address)
	}
	return health.LastError
}

// GetHealthStats returns health stats for all backends
func (p *ConnectionPool) GetHealthStats() map[string]*BackendHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]*BackendHealth, len(p.healthStats))
	for addr, health := range p.healthStats {
		statsCopy := *health
		stats[addr] = &statsCopy
	}
	return stats
}

// CloseAllConnections drops idle connections and forgets every client
func (p *ConnectionPool) CloseAllConnections() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for addr, client := range p.httpClients {
		if rt, ok := client.Transport.(*recordingTransport); ok {
			if transport, ok := rt.base.(*http.Transport); ok {
				transport.CloseIdleConnections()
			}
		}
		delete(p.httpClients, addr)
	}

	p.logger.Info("Closed all connections")
}

// Stats returns pool statistics
func (p *ConnectionPool) Stats() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	unhealthy := 0
	for _, h := range p.healthStats {
		if !h.IsHealthy {
			unhealthy++
		}
	}
	return map[string]any{
		"http_clients": len(p.httpClients),
		"backends":     len(p.healthStats),
		"unhealthy":    unhealthy,
	}
}
