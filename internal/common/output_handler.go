package common

import (
	"fmt"

	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/formatters"
)

// CommandConfig holds the output options shared by the research,
// check, cost and sources commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders research payloads and writes them to stdout or
// a report file
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger),
		registry:      formatters.GlobalRegistry,
		logger:        logger,
	}
}

// HandleOutput formats a research payload and writes it to the
// configured destination
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	// Validate output file
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	// Format output using the registry
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	// Write output
	if config.OutputFile != "" {
		err = oh.fileProcessor.WriteFile(config.OutputFile, output)
		if err != nil {
			return err // Error already wrapped by WriteFile
		}

		// Log success
		oh.logger.Info("Research report written",
			"file", config.OutputFile, "format", config.OutputFormat)
	} else {
		fmt.Println(output)
	}

	return nil
}

// GetSupportedFormats returns the formats the formatter registry can
// render research payloads in
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
