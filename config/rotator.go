package config

import (
	"math/rand"
	"sync"
)

// UserAgentRotator hands out User-Agent strings from the configured pool.
// Phase 1 page fetches walk the pool in order via GetUserAgent; batch-call
// retries pick at random via GetRandomUserAgent so repeated attempts do not
// present a predictable fingerprint sequence.
type UserAgentRotator struct {
	config *HTTPConfig
	index  int
	mu     sync.Mutex
}

func NewUserAgentRotator(httpConfig *HTTPConfig) *UserAgentRotator {
	return &UserAgentRotator{
		config: httpConfig,
	}
}

// GetUserAgent returns the next agent in round-robin order, or the fixed
// agent when rotation is disabled or the pool is empty.
func (uar *UserAgentRotator) GetUserAgent() string {
	if !uar.config.UserAgentRotation || len(uar.config.UserAgents) == 0 {
		return uar.config.UserAgent
	}

	uar.mu.Lock()
	defer uar.mu.Unlock()

	userAgent := uar.config.UserAgents[uar.index]
	uar.index = (uar.index + 1) % len(uar.config.UserAgents)

	return userAgent
}

// GetRandomUserAgent returns a uniformly random agent from the pool without
// advancing the round-robin index.
func (uar *UserAgentRotator) GetRandomUserAgent() string {
	if !uar.config.UserAgentRotation || len(uar.config.UserAgents) == 0 {
		return uar.config.UserAgent
	}

	// Go 1.20+ seeds math/rand automatically.
	return uar.config.UserAgents[rand.Intn(len(uar.config.UserAgents))]
}
