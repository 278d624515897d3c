package views

import (
	"strconv"

	"careercoach/internal/errors"
	"careercoach/internal/types"
)

// DetailState is the render state of the resume detail page
type DetailState string

const (
	DetailLoading  DetailState = "loading"
	DetailLoaded   DetailState = "loaded"
	DetailNotFound DetailState = "not_found"
)

// DetailView shows one resume
type DetailView struct {
	Scope

	svc    ResumeService
	id     int64
	resume *types.Resume
	state  DetailState
	reason string
}

// NewDetailView creates a detail view in the loading state
func NewDetailView(svc ResumeService) *DetailView {
	return &DetailView{svc: svc, state: DetailLoading}
}

// Load fetches the resume named by rawID. Any failure, including a
// malformed id, ends in the not-found state.
func (v *DetailView) Load(rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		v.state = DetailNotFound
		v.reason = "invalid_id"
		v.log().Debug("Invalid resume id", "view", "detail", "raw_id", rawID)
		return err
	}
	v.id = id

	ctx, token := v.Begin()
	resume, err := v.svc.GetResume(ctx, id)
	if !v.Accept(token) {
		return ctx.Err()
	}
	if err != nil {
		v.state = DetailNotFound
		v.reason = describeFailure(err)
		v.log().Warn("Resume unavailable",
			"view", "detail",
			"resume_id", id,
			"reason", v.reason,
			"error", err.Error())
		return err
	}

	v.resume = resume
	v.state = DetailLoaded
	return nil
}

// Select targets a resume by id without fetching it
func (v *DetailView) Select(rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	v.id = id
	return nil
}

// Delete removes the shown resume. The caller navigates to the list on success.
func (v *DetailView) Delete() error {
	ctx, _ := v.Begin()
	if err := v.svc.DeleteResume(ctx, v.id); err != nil {
		v.log().LogError(err, "Failed to delete resume", "view", "detail", "resume_id", v.id)
		return err
	}
	return nil
}

// State reports what the page should render
func (v *DetailView) State() DetailState { return v.state }

// Resume returns the loaded resume, or nil
func (v *DetailView) Resume() *types.Resume { return v.resume }

// ResumeID returns the resume id being shown
func (v *DetailView) ResumeID() int64 { return v.id }

// Reason reports why the view ended up not-found ("not_found", "backend_error", ...)
func (v *DetailView) Reason() string { return v.reason }

// Message returns the not-found text when nothing can be shown
func (v *DetailView) Message() string {
	if v.state == DetailNotFound {
		return MsgResumeNotFound
	}
	return ""
}

// ProjectExperience returns the project text or its placeholder
func (v *DetailView) ProjectExperience() string {
	if v.resume == nil || v.resume.ProjectExperience == "" {
		return MsgNoProjects
	}
	return v.resume.ProjectExperience
}

// ParseID parses a positive resume id from a path segment
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err == nil && id <= 0 {
		err = strconv.ErrRange
	}
	if err != nil {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"invalid resume id", err).WithContext("id", raw)
	}
	return id, nil
}
