package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat checks a requested report format against the
// formats configured under app.supportedFormats (json, text and
// markdown out of the box)
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the configured report formats, used by
// the --format flag completions
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
