package common

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
	"github.com/ayushhunt/jobhelp-sub000/internal/utils"
)

// LoadResearchRequest reads a research request from a JSON file.
// Fields set on the returned request can still be overridden by
// command-line flags before submission.
func LoadResearchRequest(logger *errors.Logger, filename string) (types.CompanyResearchRequest, error) {
	var req types.CompanyResearchRequest

	if err := utils.ValidateInputFile(filename); err != nil {
		return req, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsJSONFile(filename) {
		if logger != nil {
			logger.Warn("Request file does not have a .json extension", "filename", filename)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s does not have a .json extension\n", filename)
		}
	}

	fileProcessor := NewFileProcessor(logger)
	content, err := fileProcessor.ReadFile(filename)
	if err != nil {
		return req, err // Error already wrapped by ReadFile
	}

	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return req, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Request file is not valid JSON: %s", filename), err)
	}

	return req, nil
}
