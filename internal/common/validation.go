package common

import (
	"cmp"
	"fmt"
	"slices"
)

// ValidateOutputFormat checks format against the configured allow-list.
// An empty list accepts anything.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats)
}

// ResolveOutputFormat picks the requested format or the configured default
// and validates the result
func ResolveOutputFormat(requested, defaultFormat string, supportedFormats []string) (string, error) {
	format := cmp.Or(requested, defaultFormat)
	if err := ValidateOutputFormat(format, supportedFormats); err != nil {
		return "", err
	}
	return format, nil
}
