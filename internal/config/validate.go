package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLanguage indicates an unsupported analysis language
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidVersion indicates a malformed Python version
	ErrInvalidVersion = errors.New("invalid python version")

	// ErrEmptyInclude indicates missing include patterns
	ErrEmptyInclude = errors.New("empty include patterns")

	// ErrEmptyOutDir indicates a missing output directory
	ErrEmptyOutDir = errors.New("empty output directory")

	// ErrInvalidThreshold indicates a negative metric threshold
	ErrInvalidThreshold = errors.New("invalid metric threshold")
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// SupportedLanguages lists the values accepted for the language key.
var SupportedLanguages = []string{"python"}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	lang := strings.ToLower(cfg.Language)
	supported := false
	for _, l := range SupportedLanguages {
		if lang == l {
			supported = true
		}
	}
	if !supported {
		errs = append(errs, fmt.Errorf("%w: must be one of %s, got '%s'",
			ErrInvalidLanguage, strings.Join(SupportedLanguages, ", "), cfg.Language))
	}

	if !versionPattern.MatchString(cfg.Python.Version) {
		errs = append(errs, fmt.Errorf("%w: expected major.minor, got '%s'", ErrInvalidVersion, cfg.Python.Version))
	}

	if err := validateProject(&cfg.Project); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.OutDir) == "" {
		errs = append(errs, fmt.Errorf("%w: out_dir is required", ErrEmptyOutDir))
	}

	if err := validateThresholds("file", cfg.Metrics.File); err != nil {
		errs = append(errs, err)
	}
	if err := validateThresholds("symbol", cfg.Metrics.Symbol); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateProject(cfg *ProjectConfig) error {
	// Exclude can be empty
	if len(cfg.Include) == 0 {
		return fmt.Errorf("%w: at least one include pattern required", ErrEmptyInclude)
	}
	for _, p := range cfg.Include {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: include pattern cannot be blank", ErrEmptyInclude)
		}
	}
	return nil
}

func validateThresholds(scope string, t Thresholds) error {
	var errs []error

	for i, val := range thresholdValues(t) {
		if val < 0 {
			errs = append(errs, fmt.Errorf("%w: metrics.%s.%s cannot be negative, got %d",
				ErrInvalidThreshold, scope, thresholdKeys[i], val))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
