package config

import "fmt"

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.GitHub.Owner == "" {
		errs = append(errs, ValidationError{"github.owner", "required"})
	}
	if cfg.GitHub.Repo == "" {
		errs = append(errs, ValidationError{"github.repo", "required"})
	}

	if cfg.Qdrant.URL == "" {
		errs = append(errs, ValidationError{"qdrant.url", "required"})
	}

	if cfg.Embedding.Primary.Provider == "" {
		errs = append(errs, ValidationError{"embedding.primary.provider", "required"})
	} else if !validProvider(cfg.Embedding.Primary.Provider) {
		errs = append(errs, ValidationError{"embedding.primary.provider", "must be 'openai' or 'gemini'"})
	}

	if cfg.Embedding.Primary.APIKey == "" {
		errs = append(errs, ValidationError{"embedding.primary.api_key", "required"})
	}

	if cfg.Embedding.Fallback.Provider != "" && !validProvider(cfg.Embedding.Fallback.Provider) {
		errs = append(errs, ValidationError{"embedding.fallback.provider", "must be 'openai' or 'gemini'"})
	}

	if cfg.Database.URL == "" {
		errs = append(errs, ValidationError{"database.url", "required"})
	}

	if cfg.Sync.FullCheckIntervalMinutes < 0 {
		errs = append(errs, ValidationError{"sync.full_check_interval_minutes", "must not be negative"})
	}

	return errs
}

func validProvider(p string) bool {
	return p == "openai" || p == "gemini"
}
