// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config loads process configuration from the environment and the
// rule set from a YAML file.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the process configuration
type Config struct {
	Addr          string `env:"GHPILOT_ADDR,default=0.0.0.0"`
	Port          int    `env:"GHPILOT_PORT,default=8080"`
	WebhookSecret string `env:"GHPILOT_WEBHOOK_SECRET,required"`

	// Token authentication
	GitHubToken string `env:"GITHUB_TOKEN"`

	// GitHub App authentication, used when AppID is set
	AppID          int64  `env:"GITHUB_APP_ID"`
	InstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	PrivateKeyPath string `env:"GITHUB_PRIVATE_KEY_PATH"`

	// EnterpriseURL is the base URL of a GitHub Enterprise Server instance
	EnterpriseURL string `env:"GITHUB_ENTERPRISE_URL"`

	RulesFile string `env:"GHPILOT_RULES_FILE,default=gh-pilot.yaml"`

	// Webhook deliveries accepted per second per repository
	RateLimit float64 `env:"GHPILOT_RATE_LIMIT,default=10"`
	RateBurst int     `env:"GHPILOT_RATE_BURST,default=20"`

	// Recently accepted delivery IDs remembered for duplicate detection
	DeliveryCacheSize int `env:"GHPILOT_DELIVERY_CACHE_SIZE,default=1024"`

	Development bool `env:"GHPILOT_DEV,default=false"`
}

// Load reads the configuration from the process environment
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the configuration from lookuper
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UsesApp reports whether GitHub App authentication is configured
func (c *Config) UsesApp() bool {
	return c.AppID != 0
}

// Validate checks that exactly one authentication mode is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive, got %g and %d", c.RateLimit, c.RateBurst)
	}

	if c.UsesApp() {
		if c.InstallationID == 0 || c.PrivateKeyPath == "" {
			return errors.New("GitHub App authentication needs GITHUB_INSTALLATION_ID and GITHUB_PRIVATE_KEY_PATH")
		}
		return nil
	}
	if c.GitHubToken == "" {
		return errors.New("either GITHUB_TOKEN or GITHUB_APP_ID must be set")
	}
	return nil
}
