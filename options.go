package qrda2qpp

import "log/slog"

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds the toggles read by Convert.
type converterConfig struct {
	validation bool
	defaults   bool
}

// WithValidation toggles the validation stage. When disabled, decoded
// trees go straight to the encoder.
func WithValidation(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.validation = enabled
	}
}

// WithDefaults toggles default-node substitution during decoding.
func WithDefaults(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.defaults = enabled
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}
