// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkforge/linkwatch/internal/logger"
)

const (
	// DefaultRateLimitWindow is the default window for rate limiting.
	DefaultRateLimitWindow = 5 * time.Second
	// DefaultRateLimit is the default number of requests allowed per window.
	DefaultRateLimit = 20
)

// TimeProvider abstracts the clock for rate limit testing.
type TimeProvider interface {
	Now() time.Time
}

// realTimeProvider uses the system clock.
type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// rateLimitInfo holds rate limiting state for one client.
type rateLimitInfo struct {
	count      int
	lastAccess time.Time
}

// SecurityMiddleware gates the interactive API behind an API key and a
// per-IP rate limit. An empty key disables the key check but keeps the
// rate limit and security headers.
type SecurityMiddleware struct {
	apiKey          string
	log             logger.Interface
	rateLimiter     map[string]rateLimitInfo
	mu              sync.Mutex
	timeProvider    TimeProvider
	rateLimitWindow time.Duration
	maxRequests     int
}

// NewSecurityMiddleware creates a security middleware instance.
func NewSecurityMiddleware(apiKey string, log logger.Interface) *SecurityMiddleware {
	return &SecurityMiddleware{
		apiKey:          apiKey,
		log:             log,
		rateLimiter:     make(map[string]rateLimitInfo),
		timeProvider:    realTimeProvider{},
		rateLimitWindow: DefaultRateLimitWindow,
		maxRequests:     DefaultRateLimit,
	}
}

// SetTimeProvider sets a custom time provider for testing.
func (m *SecurityMiddleware) SetTimeProvider(provider TimeProvider) {
	m.timeProvider = provider
}

// SetMaxRequests sets the number of requests allowed per window.
func (m *SecurityMiddleware) SetMaxRequests(limit int) {
	m.maxRequests = limit
}

// Middleware returns the security middleware function.
func (m *SecurityMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.apiKey != "" && c.GetHeader("X-API-Key") != m.apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		if !m.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		addSecurityHeaders(c)
		c.Next()
	}
}

// allow checks and updates the rate limit state for a client IP.
func (m *SecurityMiddleware) allow(clientIP string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.timeProvider.Now()

	info, exists := m.rateLimiter[clientIP]
	if !exists || now.Sub(info.lastAccess) > m.rateLimitWindow {
		m.rateLimiter[clientIP] = rateLimitInfo{count: 1, lastAccess: now}
		return true
	}

	if info.count >= m.maxRequests {
		return false
	}

	info.count++
	info.lastAccess = now
	m.rateLimiter[clientIP] = info

	return true
}

// addSecurityHeaders adds security headers to the response.
func addSecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
}

// Cleanup periodically removes expired rate limit entries until ctx is done.
func (m *SecurityMiddleware) Cleanup(done <-chan struct{}) {
	ticker := time.NewTicker(m.rateLimitWindow)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			expiry := m.timeProvider.Now().Add(-m.rateLimitWindow)

			m.mu.Lock()
			for ip, info := range m.rateLimiter {
				if info.lastAccess.Before(expiry) {
					delete(m.rateLimiter, ip)
				}
			}
			m.mu.Unlock()
		}
	}
}
