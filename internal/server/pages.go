package server

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"careercoach/internal/api"
	"careercoach/internal/errors"
	"careercoach/internal/types"
	"careercoach/internal/views"
)

type dashboardContent struct {
	Total   int
	Recent  []types.Resume
	Message string
}

type listContent struct {
	Resumes        []types.Resume
	Roles          []types.JobRole
	SearchTerm     string
	RoleFilter     types.JobRole
	Message        string
	Notice         string
	ShowCreate     bool
	ConfirmMessage string
}

type detailContent struct {
	Resume            *types.Resume
	ProjectExperience string
	Message           string
	ConfirmMessage    string
}

type formContent struct {
	DraftID     string
	Edit        bool
	Action      string
	Draft       types.CreateResumeRequest
	Roles       []types.JobRole
	MaxYears    int
	Message     string
	FieldErrors map[string]string
	Editable    bool
}

type interviewContent struct {
	ResumeID int64
	Result   *types.InterviewQuestions
	Numbered []string
	Message  string
}

type learningPathContent struct {
	ResumeID int64
	Result   *types.LearningPath
	Message  string
}

type errorContent struct {
	Message string
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	view := views.NewDashboardView(s.Backend)
	view.Mount(r.Context(), s.viewLogger(r))
	defer view.Unmount()

	_ = view.Load()
	s.renderPage(w, r, http.StatusOK, "dashboard", "대시보드", dashboardContent{
		Total:   view.Total(),
		Recent:  view.Recent(),
		Message: view.Message(),
	})
}

func (s *Server) listPage(w http.ResponseWriter, r *http.Request) {
	view := views.NewListView(s.Backend)
	view.Mount(r.Context(), s.viewLogger(r))
	defer view.Unmount()

	_ = view.Load()
	applyListFilters(view, r.URL.Query())
	s.renderList(w, r, http.StatusOK, view, "")
}

// listDelete deletes from the list page. The rows already fetched for the
// page are trimmed locally, so the backend list is not queried again.
func (s *Server) listDelete(w http.ResponseWriter, r *http.Request) {
	view := views.NewListView(s.Backend)
	view.Mount(r.Context(), s.viewLogger(r))
	defer view.Unmount()

	id, err := views.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, views.MsgResumeNotFound)
		return
	}

	_ = view.Load()
	applyListFilters(view, r.PostForm)

	if err := view.Delete(id); err != nil {
		status := http.StatusBadGateway
		if api.IsNotFound(err) {
			status = http.StatusNotFound
		}
		s.renderList(w, r, status, view, views.MsgDeleteFailed)
		return
	}
	s.renderList(w, r, http.StatusOK, view, "")
}

func applyListFilters(view *views.ListView, values url.Values) {
	view.SetSearchTerm(values.Get("q"))
	if role, ok := types.ParseJobRole(values.Get("role")); ok {
		view.SetRoleFilter(role)
	}
}

func (s *Server) renderList(w http.ResponseWriter, r *http.Request, status int, view *views.ListView, notice string) {
	s.renderPage(w, r, status, "list", "이력서 관리", listContent{
		Resumes:        view.Filtered(),
		Roles:          types.AllJobRoles(),
		SearchTerm:     view.SearchTerm(),
		RoleFilter:     view.RoleFilter(),
		Message:        view.Message(),
		Notice:         notice,
		ShowCreate:     view.State() == views.ListEmpty,
		ConfirmMessage: views.MsgDeleteConfirm,
	})
}

func (s *Server) detailPage(w http.ResponseWriter, r *http.Request) {
	view := views.NewDetailView(s.Backend)
	view.Mount(r.Context(), s.viewLogger(r))
	defer view.Unmount()

	_ = view.Load(r.PathValue("id"))

	status := http.StatusOK
	if view.State() == views.DetailNotFound {
		status = http.StatusNotFound
	}
	s.renderPage(w, r, status, "detail", "이력서 상세", detailContent{
		Resume:            view.Resume(),
		ProjectExperience: view.ProjectExperience(),
		Message:           view.Message(),
		ConfirmMessage:    views.MsgDeleteConfirm,
	})
}

func (s *Server) createPage(w http.ResponseWriter, r *http.Request) {
	form := views.NewCreateForm(s.Backend)
	s.renderForm(w, r, http.StatusOK, form)
}

func (s *Server) editPage(w http.ResponseWriter, r *http.Request) {
	id, err := views.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, views.MsgResumeNotFound)
		return
	}

	form := views.NewEditForm(s.Backend, id)
	form.Mount(r.Context(), s.viewLogger(r))
	defer form.Unmount()

	status := http.StatusOK
	if err := form.Load(); err != nil {
		status = http.StatusBadGateway
		if api.IsNotFound(err) {
			status = http.StatusNotFound
		}
	}
	s.renderForm(w, r, status, form)
}

func (s *Server) createSubmit(w http.ResponseWriter, r *http.Request) {
	form := views.NewCreateForm(s.Backend)
	s.handleFormPost(w, r, form)
}

func (s *Server) editSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := views.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, views.MsgResumeNotFound)
		return
	}
	s.handleFormPost(w, r, views.NewEditForm(s.Backend, id))
}

// handleFormPost restores the draft posted by the browser, then either edits
// the skill list and re-renders, or submits the draft
func (s *Server) handleFormPost(w http.ResponseWriter, r *http.Request, form *views.FormView) {
	form.Mount(r.Context(), s.viewLogger(r))
	defer form.Unmount()

	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.renderError(w, r, http.StatusRequestEntityTooLarge, "입력 내용이 너무 깁니다.")
			return
		}
		s.renderError(w, r, http.StatusBadRequest, "요청을 처리할 수 없습니다.")
		return
	}
	form.Bind(s.drafts, r.PostForm.Get("draftId"))
	form.SetDraft(draftFromForm(r))

	if skill := r.PostForm.Get("remove_skill"); skill != "" {
		form.RemoveSkill(skill)
		s.renderForm(w, r, http.StatusOK, form)
		return
	}
	if r.PostForm.Get("action") == "add_skill" {
		form.AddSkill(r.PostForm.Get("skillInput"))
		s.renderForm(w, r, http.StatusOK, form)
		return
	}

	if _, err := form.Submit(); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.HasCode(err, errors.ErrCodeSaveInProgress) {
			status = http.StatusConflict
		}
		s.renderForm(w, r, status, form)
		return
	}
	http.Redirect(w, r, "/resumes", http.StatusSeeOther)
}

func (s *Server) deleteSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "요청을 처리할 수 없습니다.")
		return
	}
	if r.PostForm.Get("from") == "list" {
		s.listDelete(w, r)
		return
	}

	view := views.NewDetailView(s.Backend)
	view.Mount(r.Context(), s.viewLogger(r))
	defer view.Unmount()

	if err := view.Select(r.PathValue("id")); err != nil {
		s.renderError(w, r, http.StatusNotFound, views.MsgResumeNotFound)
		return
	}
	if err := view.Delete(); err != nil {
		s.renderError(w, r, http.StatusBadGateway, views.MsgDeleteFailed)
		return
	}
	http.Redirect(w, r, "/resumes", http.StatusSeeOther)
}

func (s *Server) interviewPage(w http.ResponseWriter, r *http.Request) {
	id, err := views.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, views.MsgResumeNotFound)
		return
	}

	gen := views.NewInterviewView(s.Backend, id)
	gen.Mount(r.Context(), s.viewLogger(r))
	defer gen.Unmount()

	status := http.StatusOK
	if err := gen.Generate(); err != nil {
		status = http.StatusBadGateway
	}
	result, _ := gen.Result()
	s.renderPage(w, r, status, "interview", "인터뷰 질문", interviewContent{
		ResumeID: id,
		Result:   result,
		Numbered: views.NumberedQuestions(result),
		Message:  gen.Message(),
	})
}

func (s *Server) learningPathPage(w http.ResponseWriter, r *http.Request) {
	id, err := views.ParseID(r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, views.MsgResumeNotFound)
		return
	}

	gen := views.NewLearningPathView(s.Backend, id)
	gen.Mount(r.Context(), s.viewLogger(r))
	defer gen.Unmount()

	status := http.StatusOK
	if err := gen.Generate(); err != nil {
		status = http.StatusBadGateway
	}
	result, _ := gen.Result()
	s.renderPage(w, r, status, "learning_path", "학습 경로", learningPathContent{
		ResumeID: id,
		Result:   result,
		Message:  gen.Message(),
	})
}

func (s *Server) notFoundPage(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "페이지를 찾을 수 없습니다.")
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, form *views.FormView) {
	content := formContent{
		DraftID:     form.DraftID(),
		Edit:        form.Mode() == views.FormEdit,
		Action:      "/resumes",
		Draft:       form.Draft(),
		Roles:       types.AllJobRoles(),
		MaxYears:    types.MaxExperienceYears,
		Message:     form.Message(),
		FieldErrors: form.FieldErrors(),
		Editable:    form.Editable(),
	}
	title := "이력서 작성"
	if content.Edit {
		content.Action = fmt.Sprintf("/resumes/%d", form.ResumeID())
		title = "이력서 수정"
	}
	s.renderPage(w, r, status, "form", title, content)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.renderPage(w, r, status, "error", "오류", errorContent{Message: message})
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name, title string, content any) {
	if err := s.pages.render(w, r, status, name, title, content); err != nil {
		s.Logger.LogError(err, "Failed to render page",
			"page", name, "request_id", requestIDFrom(r.Context()))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// draftFromForm rebuilds the draft the browser carried in the form fields
func draftFromForm(r *http.Request) types.CreateResumeRequest {
	years, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("experienceYears")))
	if err != nil {
		years = 0
	}
	skills := make([]string, 0, len(r.PostForm["techSkills"]))
	for _, skill := range r.PostForm["techSkills"] {
		if skill != "" {
			skills = append(skills, skill)
		}
	}
	return types.CreateResumeRequest{
		CareerSummary:     r.PostForm.Get("careerSummary"),
		JobRole:           types.JobRole(r.PostForm.Get("jobRole")),
		ExperienceYears:   years,
		ProjectExperience: r.PostForm.Get("projectExperience"),
		TechSkills:        skills,
	}
}

func (s *Server) viewLogger(r *http.Request) *errors.Logger {
	return s.Logger.With("request_id", requestIDFrom(r.Context()))
}
