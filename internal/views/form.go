package views

import (
	stderrors "errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"careercoach/internal/api"
	"careercoach/internal/errors"
	"careercoach/internal/types"

	"github.com/go-playground/validator/v10"
)

// FormState is the render state of the create/edit form
type FormState string

const (
	FormLoading FormState = "loading"
	FormIdle    FormState = "idle"
	FormSaving  FormState = "saving"
	FormError   FormState = "error"
)

// FormMode tells whether the form creates a new resume or edits one
type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("jobrole", func(fl validator.FieldLevel) bool {
		return types.JobRole(fl.Field().String()).Valid()
	})
	return v
}

var fieldMessages = map[string]string{
	"careerSummary":   "경력 요약은 필수입니다.",
	"jobRole":         "직무를 선택해주세요.",
	"experienceYears": "경력 연수는 0년 이상 50년 이하여야 합니다.",
}

// FormView edits a resume draft and submits it as one full payload
type FormView struct {
	Scope

	svc  ResumeService
	mode FormMode
	id   int64

	mu          sync.Mutex
	draft       types.CreateResumeRequest
	state       FormState
	message     string
	fieldErrors map[string]string
	loadFailed  bool

	gate    *SaveGate
	draftID string
}

// NewCreateForm returns a form with the default draft
func NewCreateForm(svc ResumeService) *FormView {
	return &FormView{
		svc:     svc,
		mode:    FormCreate,
		draft:   DefaultDraft(),
		state:   FormIdle,
		draftID: NewDraftID(),
	}
}

// NewEditForm returns a form that must be pre-filled with Load
func NewEditForm(svc ResumeService, id int64) *FormView {
	return &FormView{
		svc:     svc,
		mode:    FormEdit,
		id:      id,
		draft:   DefaultDraft(),
		state:   FormLoading,
		draftID: NewDraftID(),
	}
}

// Bind shares the saving flag of draftID through gate, so another view
// instance submitting the same draft is held off. An invalid draftID keeps
// the view's own token.
func (f *FormView) Bind(gate *SaveGate, draftID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
	if ValidDraftID(draftID) {
		f.draftID = draftID
	}
}

// DraftID is the token the browser sends back with the draft
func (f *FormView) DraftID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draftID
}

// DefaultDraft is the draft a new resume starts from
func DefaultDraft() types.CreateResumeRequest {
	return types.CreateResumeRequest{
		JobRole:    types.DefaultJobRole(),
		TechSkills: []string{},
	}
}

// Load pre-fills an edit form from the stored resume
func (f *FormView) Load() error {
	if f.mode != FormEdit {
		return nil
	}

	ctx, token := f.Begin()
	resume, err := f.svc.GetResume(ctx, f.id)
	if !f.Accept(token) {
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = FormError
		f.message = MsgLoadFailed
		f.loadFailed = true
		f.log().LogError(err, "Failed to load resume for editing",
			"view", "form", "resume_id", f.id, "reason", describeFailure(err))
		return err
	}
	f.draft = resume.ToRequest()
	f.state = FormIdle
	return nil
}

// SetDraft replaces the draft, e.g. with values posted back by the browser
func (f *FormView) SetDraft(d types.CreateResumeRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.TechSkills == nil {
		d.TechSkills = []string{}
	}
	f.draft = d
	if f.state == FormLoading {
		f.state = FormIdle
	}
}

// Draft returns a copy of the current draft
func (f *FormView) Draft() types.CreateResumeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	d.TechSkills = slices.Clone(f.draft.TechSkills)
	return d
}

// AddSkill appends a trimmed skill. Empty input and exact duplicates are ignored.
func (f *FormView) AddSkill(skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.draft.TechSkills, skill) {
		return false
	}
	f.draft.TechSkills = append(f.draft.TechSkills, skill)
	return true
}

// RemoveSkill drops every occurrence of skill. Removing an absent skill is a no-op.
func (f *FormView) RemoveSkill(skill string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.TechSkills = slices.DeleteFunc(f.draft.TechSkills, func(s string) bool {
		return s == skill
	})
}

// Submit validates the draft and sends it as a create or a full update.
// A submit while another is in flight is rejected. On failure the draft is kept.
func (f *FormView) Submit() (*types.Resume, error) {
	f.mu.Lock()
	if f.state == FormSaving {
		f.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeSaveInProgress, "a save is already in progress", nil)
	}
	draft := f.draft
	draft.TechSkills = slices.Clone(f.draft.TechSkills)

	if fields := validateDraft(draft); len(fields) > 0 {
		f.state = FormError
		f.message = MsgInvalidDraft
		f.fieldErrors = fields
		f.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeInvalidDraft, "draft is missing required fields", nil).
			WithContext("fields", fields)
	}

	if f.gate != nil && !f.gate.acquire(f.draftID) {
		f.state = FormSaving
		f.message = MsgSaving
		f.fieldErrors = nil
		f.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeSaveInProgress, "a save is already in progress", nil).
			WithContext("draft_id", f.draftID)
	}
	f.state = FormSaving
	f.message = ""
	f.fieldErrors = nil
	gate, draftID := f.gate, f.draftID
	f.mu.Unlock()
	if gate != nil {
		defer gate.release(draftID)
	}

	ctx, token := f.Begin()
	var (
		saved *types.Resume
		err   error
	)
	if f.mode == FormEdit {
		saved, err = f.svc.UpdateResume(ctx, f.id, draft)
	} else {
		saved, err = f.svc.CreateResume(ctx, draft)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Accept(token) {
		f.state = FormIdle
		if err == nil {
			err = ctx.Err()
		}
		return nil, err
	}
	if err != nil {
		f.state = FormError
		f.message = MsgSaveFailed
		if msg, ok := api.Message(err); ok {
			f.message = msg
		}
		f.fieldErrors = api.FieldErrors(err)
		f.log().LogError(err, "Failed to save resume", "view", "form", "mode", string(f.mode))
		return nil, err
	}
	f.state = FormIdle
	return saved, nil
}

// validateDraft returns a field -> message map of required-field failures
func validateDraft(d types.CreateResumeRequest) map[string]string {
	err := draftValidator.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		out[fe.Field()] = msg
	}
	return out
}

// Mode reports whether the form creates or edits
func (f *FormView) Mode() FormMode { return f.mode }

// ResumeID is the id being edited, zero when creating
func (f *FormView) ResumeID() int64 { return f.id }

// State reports what the form should render
func (f *FormView) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message is the error text shown above the form
func (f *FormView) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// FieldErrors are per-field messages from local or backend validation
func (f *FormView) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrors
}

// Editable reports whether the draft may be shown and submitted
func (f *FormView) Editable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loadFailed && f.state != FormLoading
}
