package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"careercoach/internal/api"
	"careercoach/internal/common"
	"careercoach/internal/errors"
	"careercoach/internal/types"
	"careercoach/internal/views"

	"github.com/spf13/cobra"
)

func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resume",
		Aliases: []string{"resumes"},
		Short:   "Create, browse, edit and delete resumes",
	}

	cmd.AddCommand(newResumeListCmd())
	cmd.AddCommand(newResumeGetCmd())
	cmd.AddCommand(newResumeCreateCmd())
	cmd.AddCommand(newResumeUpdateCmd())
	cmd.AddCommand(newResumeDeleteCmd())
	return cmd
}

func newResumeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resumes",
		Long: `List resumes stored by the resume service.

The backend can narrow the list by job role, experience range or tech
skill; only one of those may be used at a time. --search then filters
the result locally on career summary, project experience and skills,
like the web list.`,
		Args: cobra.NoArgs,
		RunE: runResumeList,
	}

	cmd.Flags().String("role", "", "Job role, e.g. BACKEND_DEVELOPER")
	cmd.Flags().Int("min-years", 0, "Minimum years of experience")
	cmd.Flags().Int("max-years", 0, "Maximum years of experience")
	cmd.Flags().String("skill", "", "Tech skill")
	cmd.Flags().String("search", "", "Case-insensitive search on summary, project experience and skills")
	cmd.MarkFlagsRequiredTogether("min-years", "max-years")
	cmd.MarkFlagsMutuallyExclusive("role", "min-years")
	cmd.MarkFlagsMutuallyExclusive("role", "skill")
	cmd.MarkFlagsMutuallyExclusive("skill", "min-years")
	addOutputFlags(cmd)
	return cmd
}

func runResumeList(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	cmdConfig, output, err := commandOutput(cmd)
	if err != nil {
		return err
	}
	backend := getBackend(cmd)
	ctx := cmd.Context()

	flags := cmd.Flags()
	var (
		resumes []types.Resume
		role    types.JobRole
	)
	switch {
	case flags.Changed("role"):
		raw, _ := flags.GetString("role")
		var ok bool
		if role, ok = types.ParseJobRole(strings.ToUpper(raw)); !ok {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Unknown job role %q", raw), nil).WithContext("roles", types.AllJobRoles())
		}
		resumes, err = backend.ListByJobRole(ctx, role)
	case flags.Changed("min-years"):
		minYears, _ := flags.GetInt("min-years")
		maxYears, _ := flags.GetInt("max-years")
		resumes, err = backend.ListByExperienceRange(ctx, minYears, maxYears)
	case flags.Changed("skill"):
		skill, _ := flags.GetString("skill")
		resumes, err = backend.ListByTechSkill(ctx, strings.TrimSpace(skill))
	default:
		resumes, err = backend.ListResumes(ctx)
	}
	if err != nil {
		return describeBackendError(err, views.MsgLoadFailed)
	}

	search, _ := flags.GetString("search")
	filtered := views.FilterResumes(resumes, search, role)
	logger.Debug("Listed resumes", "total", len(resumes), "shown", len(filtered))

	if len(resumes) > 0 && len(filtered) == 0 && cmdConfig.OutputFormat != "json" {
		output.Message("%s", views.MsgNoSearchResults)
		return nil
	}
	return output.HandleOutput(filtered, cmdConfig)
}

func newResumeGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdConfig, output, err := commandOutput(cmd)
			if err != nil {
				return err
			}

			view := views.NewDetailView(getBackend(cmd))
			view.Mount(cmd.Context(), getLoggerFromContext(cmd.Context()))
			defer view.Unmount()

			if err := view.Load(args[0]); err != nil {
				return describeBackendError(err, view.Message())
			}
			return output.HandleOutput(view.Resume(), cmdConfig)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func newResumeCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Create a resume from a JSON draft",
		Long: `Create a resume from a JSON draft file.

The draft carries careerSummary, jobRole, experienceYears and optionally
projectExperience and techSkills. A resume printed with "-f json" is a
valid draft.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := views.NewCreateForm(getBackend(cmd))
			return runDraftCommand(cmd, view, args[0])
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func newResumeUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID FILE",
		Short: "Replace a resume with a JSON draft",
		Long: `Replace every editable field of a resume with the values in a JSON
draft file. Fields missing from the draft are cleared.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := views.ParseID(args[0])
			if err != nil {
				return err
			}

			view := views.NewEditForm(getBackend(cmd), id)
			view.Mount(cmd.Context(), getLoggerFromContext(cmd.Context()))
			if err := view.Load(); err != nil {
				view.Unmount()
				return describeBackendError(err, view.Message())
			}
			return runDraftCommand(cmd, view, args[1])
		},
	}
	addOutputFlags(cmd)
	return cmd
}

// runDraftCommand reads a draft file into the form and submits it
func runDraftCommand(cmd *cobra.Command, view *views.FormView, file string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	cmdConfig, output, err := commandOutput(cmd)
	if err != nil {
		return err
	}

	view.Mount(cmd.Context(), logger)
	defer view.Unmount()

	return common.RunFileCommand(cmd.Context(),
		common.FileCommand{Logger: logger, Output: output, MaxFileSize: cfg.App.MaxFileSize, Config: cmdConfig},
		[]string{file},
		func(contents []string) (types.CreateResumeRequest, error) {
			return common.DecodeDraft(contents[0])
		},
		func(_ context.Context, draft types.CreateResumeRequest) (*types.Resume, error) {
			view.SetDraft(draft)
			saved, err := view.Submit()
			if err != nil {
				return nil, formError(view, err)
			}
			return saved, nil
		},
		func(draft types.CreateResumeRequest, cfg common.CommandConfig) {
			logger.Info("Submitting resume",
				"mode", string(view.Mode()),
				"resume_id", view.ResumeID(),
				"job_role", string(draft.JobRole),
				"skills", len(draft.TechSkills),
				"format", cfg.OutputFormat)
		},
	)
}

func newResumeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := views.NewDetailView(getBackend(cmd))
			view.Mount(cmd.Context(), getLoggerFromContext(cmd.Context()))
			defer view.Unmount()

			if err := view.Select(args[0]); err != nil {
				return err
			}
			if err := view.Delete(); err != nil {
				return describeBackendError(err, views.MsgDeleteFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted resume %d\n", view.ResumeID())
			return nil
		},
	}
}

// formError folds the form's message and field errors into one error
func formError(view *views.FormView, err error) error {
	fields := view.FieldErrors()
	if len(fields) == 0 {
		return describeBackendError(err, view.Message())
	}

	var b strings.Builder
	b.WriteString(view.Message())
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, "\n  %s: %s", field, fields[field])
	}
	return errors.NewValidationError(errors.ErrCodeInvalidDraft, b.String(), err)
}

// describeBackendError prefers the backend's own message over the fallback
func describeBackendError(err error, fallback string) error {
	if api.IsCanceled(err) {
		return err
	}
	msg := fallback
	if m, ok := api.Message(err); ok {
		msg = m
	}
	if msg == "" {
		return err
	}
	if appErr, ok := errors.As(err); ok {
		return &errors.AppError{Type: appErr.Type, Code: appErr.Code, Message: msg, Cause: err}
	}
	return errors.NewBackendError(errors.ErrCodeBackendError, msg, err)
}
