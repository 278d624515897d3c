package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/types"
	"careercoach/internal/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardShowsTotalAndRecent(t *testing.T) {
	var resumes []types.Resume
	for i := 1; i <= 6; i++ {
		resumes = append(resumes, types.Resume{
			ID:            int64(i),
			CareerSummary: fmt.Sprintf("summary-%d", i),
			JobRole:       types.JobRoleBackendDeveloper,
		})
	}
	h := newTestServer(t, newFakeBackend(resumes...)).Handler(nil)

	rec := get(t, h, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>6</h2>")
	for i := 1; i <= 5; i++ {
		assert.Contains(t, body, fmt.Sprintf("summary-%d", i))
	}
	assert.NotContains(t, body, "summary-6")
}

func TestDashboardEmpty(t *testing.T) {
	h := newTestServer(t, newFakeBackend()).Handler(nil)

	rec := get(t, h, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), views.MsgDashboardEmpty)
}

func TestNavigationMarksExactPath(t *testing.T) {
	h := newTestServer(t, newFakeBackend()).Handler(nil)

	body := get(t, h, "/resumes/new").Body.String()
	assert.Contains(t, body, `<a href="/resumes/new" class="active">`)
	assert.NotContains(t, body, `<a href="/resumes" class="active">`)
	assert.NotContains(t, body, `<a href="/" class="active">`)

	body = get(t, h, "/").Body.String()
	assert.Contains(t, body, `<a href="/" class="active">`)
}

func TestListFiltersByQueryAndRole(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...)).Handler(nil)

	body := get(t, h, "/resumes?q=go").Body.String()
	assert.Contains(t, body, "Go backend engineer")
	assert.Contains(t, body, "Platform SRE")
	assert.NotContains(t, body, "React specialist")

	body = get(t, h, "/resumes?q=go&role=DEVOPS_ENGINEER").Body.String()
	assert.NotContains(t, body, "Go backend engineer")
	assert.Contains(t, body, "Platform SRE")

	body = get(t, h, "/resumes?q=cobol").Body.String()
	assert.Contains(t, body, views.MsgNoSearchResults)
}

func TestListSkillPreview(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...)).Handler(nil)

	body := get(t, h, "/resumes").Body.String()
	assert.Contains(t, body, "+1")
	assert.Contains(t, body, "5년 경력")
}

func TestListEmptyOffersCreate(t *testing.T) {
	h := newTestServer(t, newFakeBackend()).Handler(nil)

	body := get(t, h, "/resumes").Body.String()
	assert.Contains(t, body, views.MsgNoResumes)
	assert.Contains(t, body, "이력서 작성하기")
}

func TestDetailPage(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...)).Handler(nil)

	rec := get(t, h, "/resumes/2")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "React specialist")
	assert.Contains(t, body, views.MsgNoProjects)
	assert.Contains(t, body, `/resumes/2/interview`)
}

func TestDetailNotFound(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...)).Handler(nil)

	for _, target := range []string{"/resumes/99", "/resumes/abc", "/resumes/0"} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), views.MsgResumeNotFound, target)
	}
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	h := newTestServer(t, newFakeBackend()).Handler(nil)

	rec := get(t, h, "/nowhere")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestCreateFormDefaults(t *testing.T) {
	h := newTestServer(t, newFakeBackend()).Handler(nil)

	body := get(t, h, "/resumes/new").Body.String()
	assert.Contains(t, body, `<option value="BACKEND_DEVELOPER" selected>`)
	assert.Contains(t, body, `action="/resumes"`)
}

func TestCreateFormSkillEditing(t *testing.T) {
	backend := newFakeBackend()
	h := newTestServer(t, backend).Handler(nil)

	form := url.Values{
		"careerSummary":   {"draft"},
		"jobRole":         {"BACKEND_DEVELOPER"},
		"experienceYears": {"3"},
		"techSkills":      {"Go"},
		"skillInput":      {"  Rust  "},
		"action":          {"add_skill"},
	}
	rec := postForm(t, h, "/resumes", form)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="techSkills" value="Go"`)
	assert.Contains(t, body, `name="techSkills" value="Rust"`)
	assert.Contains(t, body, `value="draft"`)
	assert.Empty(t, backend.created)

	form.Set("remove_skill", "Go")
	form["techSkills"] = []string{"Go", "Rust"}
	rec = postForm(t, h, "/resumes", form)

	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.NotContains(t, body, `name="techSkills" value="Go"`)
	assert.Contains(t, body, `name="techSkills" value="Rust"`)
	assert.Empty(t, backend.created)
}

func TestCreateSubmitRedirectsToList(t *testing.T) {
	backend := newFakeBackend()
	h := newTestServer(t, backend).Handler(nil)

	rec := postForm(t, h, "/resumes", url.Values{
		"careerSummary":     {"Backend engineer"},
		"jobRole":           {"DATA_ENGINEER"},
		"experienceYears":   {"4"},
		"projectExperience": {"Streaming pipelines"},
		"techSkills":        {"Go", "Flink"},
		"action":            {"save"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/resumes", rec.Header().Get("Location"))
	require.Len(t, backend.created, 1)
	assert.Equal(t, types.CreateResumeRequest{
		CareerSummary:     "Backend engineer",
		JobRole:           types.JobRoleDataEngineer,
		ExperienceYears:   4,
		ProjectExperience: "Streaming pipelines",
		TechSkills:        []string{"Go", "Flink"},
	}, backend.created[0])
}

func TestCreateSubmitInvalidDraft(t *testing.T) {
	backend := newFakeBackend()
	h := newTestServer(t, backend).Handler(nil)

	rec := postForm(t, h, "/resumes", url.Values{
		"careerSummary":   {""},
		"jobRole":         {"BACKEND_DEVELOPER"},
		"experienceYears": {"51"},
		"action":          {"save"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "경력 요약은 필수입니다.")
	assert.Contains(t, body, "경력 연수는 0년 이상 50년 이하여야 합니다.")
	assert.Empty(t, backend.created)
}

func TestCreateSubmitTooLarge(t *testing.T) {
	backend := newFakeBackend()
	h := newTestServer(t, backend, func(c *config.Config) { c.Server.MaxRequestSize = 16 }).Handler(nil)

	rec := postForm(t, h, "/resumes", url.Values{
		"careerSummary": {"a summary that is longer than sixteen bytes"},
		"action":        {"save"},
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, backend.created)
}

func TestDoubleSubmitCreatesOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.createEntered = make(chan struct{}, 1)
	backend.holdCreate = make(chan struct{})
	h := newTestServer(t, backend).Handler(nil)

	page := get(t, h, "/resumes/new").Body.String()
	require.Contains(t, page, `name="draftId"`)

	form := url.Values{
		"draftId":         {views.NewDraftID()},
		"careerSummary":   {"Backend engineer"},
		"jobRole":         {"BACKEND_DEVELOPER"},
		"experienceYears": {"4"},
		"action":          {"save"},
	}

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- postForm(t, h, "/resumes", form)
	}()
	select {
	case <-backend.createEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("first save never reached the backend")
	}

	rec := postForm(t, h, "/resumes", form)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), views.MsgSaving)

	close(backend.holdCreate)
	rec = <-first
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, backend.createCount())

	// The draft is free again once the first save finished
	backend.createEntered = nil
	rec = postForm(t, h, "/resumes", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 2, backend.createCount())
}

func TestEditFormLoadsAndUpdates(t *testing.T) {
	backend := newFakeBackend(sampleResumes()...)
	h := newTestServer(t, backend).Handler(nil)

	body := get(t, h, "/resumes/1/edit").Body.String()
	assert.Contains(t, body, `value="Go backend engineer"`)
	assert.Contains(t, body, `action="/resumes/1"`)

	rec := postForm(t, h, "/resumes/1", url.Values{
		"careerSummary":   {"Staff Go engineer"},
		"jobRole":         {"BACKEND_DEVELOPER"},
		"experienceYears": {"6"},
		"action":          {"save"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/resumes", rec.Header().Get("Location"))
	updated, err := backend.GetResume(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Staff Go engineer", updated.CareerSummary)
	assert.Empty(t, updated.TechSkills)
}

func TestEditFormMissingResume(t *testing.T) {
	backend := newFakeBackend()
	h := newTestServer(t, backend).Handler(nil)

	rec := get(t, h, "/resumes/7/edit")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, views.MsgLoadFailed)
	assert.NotContains(t, body, `name="careerSummary"`)

	backend.getErr = errors.NewBackendError(errors.ErrCodeBackendError, "500", nil)
	rec = get(t, h, "/resumes/7/edit")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), views.MsgLoadFailed)
}

func TestDeleteRedirectsToList(t *testing.T) {
	backend := newFakeBackend(sampleResumes()...)
	h := newTestServer(t, backend).Handler(nil)

	rec := postForm(t, h, "/resumes/2/delete", url.Values{})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/resumes", rec.Header().Get("Location"))
	assert.Equal(t, []int64{2}, backend.deleted)

	rec = postForm(t, h, "/resumes/2/delete", url.Values{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), views.MsgDeleteFailed)
}

func TestListDeleteKeepsFiltersWithoutRefetch(t *testing.T) {
	backend := newFakeBackend(sampleResumes()...)
	h := newTestServer(t, backend).Handler(nil)

	rec := postForm(t, h, "/resumes/1/delete", url.Values{
		"from": {"list"},
		"q":    {"go"},
		"role": {""},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1}, backend.deleted)
	assert.Equal(t, 1, backend.listCount(), "only the initial load hits the backend list")

	body := rec.Body.String()
	assert.Contains(t, body, `name="q" value="go"`)
	assert.NotContains(t, body, "Go backend engineer")
	assert.Contains(t, body, "Platform SRE", "project experience still matches the term")
	assert.NotContains(t, body, "React specialist", "filtered out by the search term")
}

func TestListPageDeleteFailureKeepsRows(t *testing.T) {
	backend := newFakeBackend(sampleResumes()...)
	h := newTestServer(t, backend).Handler(nil)

	rec := postForm(t, h, "/resumes/42/delete", url.Values{"from": {"list"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, views.MsgDeleteFailed)
	assert.Contains(t, body, "React specialist")
	assert.Equal(t, 1, backend.listCount())
}

func TestInterviewPage(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...)).Handler(nil)

	rec := get(t, h, "/resumes/1/interview")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "1. 고루틴 누수를 어떻게 찾나요?")
	assert.Contains(t, body, "2. 채널과 뮤텍스 중 무엇을 고르나요?")
	assert.Contains(t, body, "동시성 경험이 풍부합니다.")
	assert.Contains(t, body, "미들")
}

func TestGenerationFailure(t *testing.T) {
	backend := newFakeBackend(sampleResumes()...)
	backend.genErr = errors.NewBackendError(errors.ErrCodeBackendError, "model timeout", nil)
	h := newTestServer(t, backend).Handler(nil)

	rec := get(t, h, "/resumes/1/interview")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), views.MsgInterviewFailed)

	rec = get(t, h, "/resumes/1/learning-path")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), views.MsgLearningPathFailed)
}

func TestLearningPathPage(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...)).Handler(nil)

	rec := get(t, h, "/resumes/3/learning-path")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "1. Raft 읽기")
	assert.Contains(t, body, "중급")
	assert.Contains(t, body, "raft.github.io")
}

func TestGenerationIsRateLimited(t *testing.T) {
	h := newTestServer(t, newFakeBackend(sampleResumes()...), func(c *config.Config) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1}
	}).Handler(nil)

	first := get(t, h, "/resumes/1/interview")
	assert.Equal(t, http.StatusOK, first.Code)

	second := get(t, h, "/resumes/1/learning-path")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	// Plain pages are never limited
	assert.Equal(t, http.StatusOK, get(t, h, "/resumes/1").Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t, newFakeBackend()).Handler(nil)

	rec := get(t, h, "/")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var seen string
	inner := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	inner.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	h := s.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := get(t, h, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPanicRecoveredInsideRequestChain(t *testing.T) {
	backend := newFakeBackend()
	backend.panicOnList = "list exploded"
	h := newTestServer(t, backend).Handler(nil)

	req := httptest.NewRequest(http.MethodGet, "/resumes", nil)
	req.Header.Set(requestIDHeader, "panic-1")
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, req) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "panic-1", rec.Header().Get(requestIDHeader))
}
