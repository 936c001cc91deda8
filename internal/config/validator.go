package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/multistair/internal/quest"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "staircase.n_trials")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidPolicies returns the list of valid selection policies
func ValidPolicies() []string {
	return []string{"SEQUENTIAL", "RANDOM", "FULL_RANDOM"}
}

// ValidOutputFormats returns the list of valid trial data formats
func ValidOutputFormats() []string {
	return []string{"json", "csv"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateStaircase()...)
	errors = append(errors, c.validateQuest()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateBatch()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateStaircase validates the StaircaseConfig
func (c *Config) validateStaircase() []ValidationError {
	var errors []ValidationError
	s := c.Staircase

	if s.Policy != "" && !slices.Contains(ValidPolicies(), strings.ToUpper(s.Policy)) {
		errors = append(errors, ValidationError{
			Field:   "staircase.policy",
			Value:   s.Policy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPolicies(), ", ")),
		})
	}
	if s.NTrials <= 0 {
		errors = append(errors, ValidationError{
			Field:   "staircase.n_trials",
			Value:   s.NTrials,
			Message: "must be positive",
		})
	}
	if s.Duplicates < 1 {
		errors = append(errors, ValidationError{
			Field:   "staircase.duplicates",
			Value:   s.Duplicates,
			Message: "must be at least 1",
		})
	}
	if s.Duplicates > 1 && strings.ToUpper(s.Policy) != "FULL_RANDOM" {
		errors = append(errors, ValidationError{
			Field:   "staircase.duplicates",
			Value:   s.Duplicates,
			Message: "duplicates only apply to the FULL_RANDOM policy",
		})
	}
	if s.StairType != "" && !strings.EqualFold(s.StairType, "QUEST") {
		errors = append(errors, ValidationError{
			Field:   "staircase.stair_type",
			Value:   s.StairType,
			Message: "only QUEST staircases are supported",
		})
	}

	return errors
}

// validateQuest validates the QuestConfig
func (c *Config) validateQuest() []ValidationError {
	var errors []ValidationError
	q := c.Quest

	if q.Gamma < 0 || q.Gamma >= 1 {
		errors = append(errors, ValidationError{Field: "quest.gamma", Value: q.Gamma, Message: "must lie in [0, 1)"})
	}
	if q.Delta < 0 || q.Delta >= 1 {
		errors = append(errors, ValidationError{Field: "quest.delta", Value: q.Delta, Message: "must lie in [0, 1)"})
	}
	if q.PThreshold <= q.Gamma || q.PThreshold >= 1 {
		errors = append(errors, ValidationError{
			Field:   "quest.p_threshold",
			Value:   q.PThreshold,
			Message: "must lie strictly between gamma and 1",
		})
	}
	if q.Beta <= 0 {
		errors = append(errors, ValidationError{Field: "quest.beta", Value: q.Beta, Message: "must be positive"})
	}
	if q.Grain <= 0 {
		errors = append(errors, ValidationError{Field: "quest.grain", Value: q.Grain, Message: "must be positive"})
	}
	if q.Range < 0 {
		errors = append(errors, ValidationError{Field: "quest.range", Value: q.Range, Message: "must be non-negative"})
	}
	if q.StopInterval < 0 {
		errors = append(errors, ValidationError{Field: "quest.stop_interval", Value: q.StopInterval, Message: "must be non-negative"})
	}
	if _, err := quest.ParseMethod(q.Method); err != nil {
		errors = append(errors, ValidationError{
			Field:   "quest.method",
			Value:   q.Method,
			Message: "must be one of: quantile, mean, mode",
		})
	}
	if q.MinVal != nil && q.MaxVal != nil && *q.MinVal > *q.MaxVal {
		errors = append(errors, ValidationError{
			Field:   "quest.min_val",
			Value:   *q.MinVal,
			Message: fmt.Sprintf("must not exceed quest.max_val (%v)", *q.MaxVal),
		})
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidOutputFormats(), strings.ToLower(c.Output.Format)) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		errors = append(errors, ValidationError{
			Field:   "output.dir",
			Value:   c.Output.Dir,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateBatch validates the BatchConfig
func (c *Config) validateBatch() []ValidationError {
	var errors []ValidationError

	if c.Batch.Sessions <= 0 {
		errors = append(errors, ValidationError{
			Field:   "batch.sessions",
			Value:   c.Batch.Sessions,
			Message: "must be positive",
		})
	}
	if c.Batch.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "batch.workers",
			Value:   c.Batch.Workers,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
