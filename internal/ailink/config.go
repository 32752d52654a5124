package ailink

import "time"

// Config defines the completion provider settings under `ailink.*`.
type Config struct {
	// Provider selects the driver. Only "openrouter" is built in.
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`

	// Referer and Title are OpenRouter attribution headers.
	Referer string `mapstructure:"referer"`
	Title   string `mapstructure:"title"`
}

// Enabled reports whether a provider key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}
