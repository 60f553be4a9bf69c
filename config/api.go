package config

// APIConfig holds settings for the HTTP surface.
type APIConfig struct {
	// Listen is the address the gin server binds, e.g. ":8080".
	Listen string `json:"listen"`
	// AckTimeoutSeconds bounds how long plan acceptance waits for field
	// acknowledgments before reporting them as pending.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.AckTimeoutSeconds <= 0 {
		c.AckTimeoutSeconds = 5
	}
}
