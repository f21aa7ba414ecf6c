package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/viewkit/pkg/view"
)

// OutputFormats are the formats structured commands can print.
var OutputFormats = []string{"table", "json", "yaml"}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Model flags
	Model     string `flag:"model" desc:"Template model (JSON or @file.json|@file.yaml)" default:""`
	ModelFile string `flag:"model-file,f" desc:"Model file (JSON or YAML)" default:""`

	// Resolution flags
	Aliases  map[string]string `flag:"alias,a" desc:"Temporary partial alias name=target, repeatable"`
	Layout   string            `flag:"layout" desc:"Layout to wrap the view in" default:""`
	NoLayout bool              `flag:"no-layout" desc:"Render without the configured layout" default:"false"`

	// Output flags
	OutputFormat string `flag:"output,o" desc:"Output format (table|json|yaml)" default:"table"`
	Quiet        bool   `flag:"quiet,q" desc:"Suppress informational output" default:"false"`
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "model":
			addModelFlags(cmd, flags)
		case "aliases":
			addAliasFlags(cmd, flags)
		case "layout":
			addLayoutFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addModelFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.Model, "model", "", "Template model (JSON or @file.json|@file.yaml)")
	cmd.Flags().StringVarP(&flags.ModelFile, "model-file", "f", "", "Model file (JSON or YAML)")
}

func addAliasFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringToStringVarP(&flags.Aliases, "alias", "a", nil, "Temporary partial alias name=target, repeatable")
}

func addLayoutFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.Layout, "layout", "", "Layout to wrap the view in")
	cmd.Flags().BoolVar(&flags.NoLayout, "no-layout", false, "Render without the configured layout")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress informational output")

	AddFlagValidation(cmd, "output", func(format string) error {
		return ValidateFormatWithSuggestion(format, OutputFormats)
	})
}

// ParseModel parses the template model with support for file references
func (f *StandardFlags) ParseModel() (map[string]interface{}, error) {
	switch {
	case f.ModelFile != "":
		return readModelFile(f.ModelFile)
	case strings.HasPrefix(f.Model, "@"):
		return readModelFile(strings.TrimPrefix(f.Model, "@"))
	case f.Model != "":
		var model map[string]interface{}
		if err := json.Unmarshal([]byte(f.Model), &model); err != nil {
			return nil, fmt.Errorf("invalid JSON in model: %w", err)
		}
		return model, nil
	default:
		return make(map[string]interface{}), nil
	}
}

func readModelFile(filename string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", filename, err)
	}

	model := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("invalid YAML in model file %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("invalid JSON in model file %s: %w", filename, err)
		}
	}

	return model, nil
}

// RenderOptions converts the resolution flags into renderer options.
func (f *StandardFlags) RenderOptions() []view.RenderOption {
	var opts []view.RenderOption
	if len(f.Aliases) > 0 {
		opts = append(opts, view.WithAliases(f.Aliases))
	}
	switch {
	case f.NoLayout:
		opts = append(opts, view.WithoutLayout())
	case f.Layout != "":
		opts = append(opts, view.WithLayout(f.Layout))
	}

	return opts
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.Model != "" && f.ModelFile != "" {
		return fmt.Errorf("cannot specify both --model and --model-file")
	}
	if f.Layout != "" && f.NoLayout {
		return fmt.Errorf("cannot specify both --layout and --no-layout")
	}
	for from, to := range f.Aliases {
		if from == "" || to == "" {
			return fmt.Errorf("alias %q=%q has an empty side", from, to)
		}
	}
	if f.OutputFormat != "" {
		if err := ValidateFormatWithSuggestion(f.OutputFormat, OutputFormats); err != nil {
			return err
		}
	}

	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormatWithSuggestion rejects values outside valid and suggests
// the closest one.
func ValidateFormatWithSuggestion(value string, valid []string) error {
	if slices.Contains(valid, value) {
		return nil
	}

	if suggestion := closest(value, valid); suggestion != "" {
		return fmt.Errorf("invalid value %q, did you mean %q? (valid: %s)",
			value, suggestion, strings.Join(valid, ", "))
	}

	return fmt.Errorf("invalid value %q (valid: %s)", value, strings.Join(valid, ", "))
}

// closest returns the candidate within two edits of value, if any.
func closest(value string, candidates []string) string {
	best, bestDistance := "", 3
	for _, candidate := range candidates {
		if d := levenshtein.Distance(strings.ToLower(value), candidate, nil); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}

	return best
}
