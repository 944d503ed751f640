package config

import "fmt"

// APIConfig defines the HTTP listener settings.
type APIConfig struct {
	// Addr is the listen address, host:port.
	Addr string `json:"addr"`
	// BearerToken, when set, is required on every request.
	BearerToken string `json:"bearer_token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}
