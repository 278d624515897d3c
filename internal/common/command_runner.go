package common

import (
	"context"
	"fmt"

	"careercoach/internal/errors"
)

// CreateInputFunc defines how to create the command input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is the backend call a file-based command performs.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// FileCommand carries what every file-based command needs
type FileCommand struct {
	Logger      *errors.Logger
	Output      *OutputHandler
	MaxFileSize int64
	Config      CommandConfig
}

// RunFileCommand reads the given files, turns them into an input, runs
// the operation and writes its result through the output handler.
func RunFileCommand[Input, Output any](
	ctx context.Context,
	cmd FileCommand,
	files []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(cmd.Logger, cmd.MaxFileSize)

	contents, err := fileProcessor.ValidateAndReadFiles(files...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmd.Config)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return cmd.Output.HandleOutput(result, cmd.Config)
}
