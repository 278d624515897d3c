package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"careercoach/internal/errors"
	"careercoach/internal/types"
	"careercoach/internal/utils"

	"github.com/tidwall/gjson"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a new file processor instance. Input files
// larger than maxSize bytes are rejected; zero means unlimited.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsDraftFile(filename) {
			if fp.logger != nil {
				fp.logger.Warn("File may not be a JSON draft", "filename", filename)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: %s may not be a JSON draft\n", filename)
			}
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}

// DecodeDraft reads a resume draft from JSON. A resume printed with
// "-o json" is accepted as is; server-derived fields are ignored.
// experienceYears may be a number or a numeric string and techSkills
// may be an array or a comma-separated string.
func DecodeDraft(content string) (types.CreateResumeRequest, error) {
	var draft types.CreateResumeRequest

	if !gjson.Valid(content) {
		return draft, errors.NewValidationError(errors.ErrCodeInvalidDraft, "Draft is not valid JSON", nil)
	}
	doc := gjson.Parse(content)
	if !doc.IsObject() {
		return draft, errors.NewValidationError(errors.ErrCodeInvalidDraft, "Draft must be a JSON object", nil)
	}

	draft.CareerSummary = doc.Get("careerSummary").String()
	draft.JobRole = types.JobRole(doc.Get("jobRole").String())
	draft.ProjectExperience = doc.Get("projectExperience").String()

	years := doc.Get("experienceYears")
	switch years.Type {
	case gjson.Null:
	case gjson.Number:
		draft.ExperienceYears = int(years.Int())
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(years.Str))
		if err != nil {
			return draft, errors.NewValidationError(errors.ErrCodeInvalidDraft,
				fmt.Sprintf("experienceYears is not a number: %q", years.Str), err)
		}
		draft.ExperienceYears = n
	default:
		return draft, errors.NewValidationError(errors.ErrCodeInvalidDraft,
			"experienceYears must be a number", nil)
	}

	skills := doc.Get("techSkills")
	switch {
	case skills.IsArray():
		for _, s := range skills.Array() {
			draft.TechSkills = appendSkill(draft.TechSkills, s.String())
		}
	case skills.Type == gjson.String:
		for s := range strings.SplitSeq(skills.Str, ",") {
			draft.TechSkills = appendSkill(draft.TechSkills, s)
		}
	}

	return draft, nil
}

// appendSkill trims the skill and drops blanks and duplicates
func appendSkill(skills []string, skill string) []string {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return skills
	}
	if slices.Contains(skills, skill) {
		return skills
	}
	return append(skills, skill)
}
