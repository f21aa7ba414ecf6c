package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/conneroisu/viewkit/internal/logging"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/provider"
)

// Validate checks every section and reports all problems at once.
func Validate(config *Config) error {
	var result *multierror.Error

	result = multierror.Append(result, validateTemplatesConfig(&config.Templates)...)
	result = multierror.Append(result, validateLoggingConfig(&config.Logging)...)
	result = multierror.Append(result, validateWatchConfig(&config.Watch)...)

	return result.ErrorOrNil()
}

func invalid(format string, args ...interface{}) error {
	return viewerrors.NewConfigError(viewerrors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...))
}

func validateTemplatesConfig(config *TemplatesConfig) []error {
	var errs []error

	if config.Engine != EngineAuto {
		if _, err := provider.ParseKind(config.Engine); err != nil {
			errs = append(errs, invalid("templates.engine: %q is not one of auto, %s",
				config.Engine, strings.Join(provider.Names(), ", ")))
		}
	}

	if len(config.Sources) == 0 {
		errs = append(errs, invalid("templates.sources: at least one source is required"))
	}
	for _, source := range config.Sources {
		if err := validatePath(source); err != nil {
			errs = append(errs, invalid("templates.sources: invalid source %q: %v", source, err))
		}
	}

	for _, decoration := range []struct{ key, value string }{
		{"templates.prefix", config.Prefix},
		{"templates.suffix", config.Suffix},
	} {
		if strings.ContainsRune(decoration.value, 0) {
			errs = append(errs, invalid("%s: contains a NUL byte", decoration.key))
		}
	}

	for from, to := range config.Aliases {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			errs = append(errs, invalid("templates.aliases: %q -> %q has an empty side", from, to))
		}
	}

	if config.Layout.Name != "" && strings.TrimSpace(config.Layout.ContentKey) == "" {
		errs = append(errs, invalid("templates.layout.content_key: required when a layout is set"))
	}

	return errs
}

func validateLoggingConfig(config *LoggingConfig) []error {
	var errs []error

	if _, err := logging.ParseLevel(config.Level); err != nil {
		errs = append(errs, invalid("logging.level: %v", err))
	}
	if !slices.Contains([]string{"text", "json"}, config.Format) {
		errs = append(errs, invalid("logging.format: %q is not text or json", config.Format))
	}

	return errs
}

func validateWatchConfig(config *WatchConfig) []error {
	if config.Debounce < 0 {
		return []error{invalid("watch.debounce: %s is negative", config.Debounce)}
	}

	return nil
}

// validatePath validates a source directory path.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
