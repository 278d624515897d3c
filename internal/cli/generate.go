package cli

import (
	"careercoach/internal/views"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate AI interview preparation for a resume",
		Long: `Ask the resume service to generate fresh content for a stored resume.
Every run produces a new result; nothing is cached.`,
	}

	cmd.AddCommand(newGenerateQuestionsCmd())
	cmd.AddCommand(newGenerateLearningPathCmd())
	return cmd
}

func newGenerateQuestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questions ID",
		Aliases: []string{"interview"},
		Short:   "Generate interview questions for a resume",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := views.ParseID(args[0])
			if err != nil {
				return err
			}
			return runGeneration(cmd, views.NewInterviewView(getBackend(cmd), id))
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func newGenerateLearningPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learning-path ID",
		Short: "Generate a learning path for a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := views.ParseID(args[0])
			if err != nil {
				return err
			}
			return runGeneration(cmd, views.NewLearningPathView(getBackend(cmd), id))
		},
	}
	addOutputFlags(cmd)
	return cmd
}

// runGeneration drives a generation view once and prints its result
func runGeneration[T any](cmd *cobra.Command, view *views.Generation[T]) error {
	logger := getLoggerFromContext(cmd.Context())
	cmdConfig, output, err := commandOutput(cmd)
	if err != nil {
		return err
	}

	view.Mount(cmd.Context(), logger)
	defer view.Unmount()

	logger.Info("Generating content", "resume_id", view.ResumeID(), "format", cmdConfig.OutputFormat)
	if err := view.Generate(); err != nil {
		return describeBackendError(err, view.Message())
	}

	result, _ := view.Result()
	return output.HandleOutput(result, cmdConfig)
}
