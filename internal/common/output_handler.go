package common

import (
	"fmt"
	"io"

	"careercoach/internal/errors"
	"careercoach/internal/formatters"
)

// CommandConfig is where and how a command renders its result
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders results through the formatter registry and writes
// them to a file or to the command's writer
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
	w        io.Writer
}

// NewOutputHandler prints to w whenever no output file is configured
func NewOutputHandler(logger *errors.Logger, w io.Writer) *OutputHandler {
	if logger == nil {
		logger = errors.Discard()
	}
	return &OutputHandler{
		files:    NewFileProcessor(logger, 0),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		w:        w,
	}
}

// HandleOutput formats data and writes it to the configured destination
func (oh *OutputHandler) HandleOutput(data any, cfg CommandConfig) error {
	if err := oh.files.ValidateOutputFile(cfg.OutputFile); err != nil {
		return err
	}

	rendered, err := oh.registry.Format(data, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		if _, err := io.WriteString(oh.w, rendered); err != nil {
			return errors.NewIOError("STDOUT_WRITE_FAILED", "Cannot write output", err)
		}
		return nil
	}

	if err := oh.files.WriteFile(cfg.OutputFile, rendered); err != nil {
		return err
	}
	oh.logger.Info("Output written", "file", cfg.OutputFile, "format", cfg.OutputFormat)
	return nil
}

// Message prints a plain status line such as a deletion notice
func (oh *OutputHandler) Message(format string, args ...any) {
	_, _ = fmt.Fprintf(oh.w, format+"\n", args...)
}
