package proxy

import (
	"math/rand"
	"sync"
)

// Manager rotates the browser identity (proxy endpoint and user
// agent) the fetch workers present, so repeat crawls of the same site
// do not hammer it from a single fingerprint.
type Manager struct {
	proxies    []string
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// NewManager builds a rotation manager. With no proxies configured
// the fetchers connect directly.
func NewManager(proxies ...string) *Manager {
	return &Manager{
		proxies:    proxies,
		userAgents: defaultUserAgents,
	}
}

// NextProxy returns the next proxy URL in sequence, or "" when none
// are configured.
func (m *Manager) NextProxy() string {
	if len(m.proxies) == 0 {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p
}

// UserAgent returns a random user agent string.
func (m *Manager) UserAgent() string {
	if len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[rand.Intn(len(m.userAgents))]
}
