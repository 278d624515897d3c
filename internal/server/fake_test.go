package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/types"

	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory resume backend
type fakeBackend struct {
	mu      sync.Mutex
	nextID  int64
	resumes []types.Resume

	created   []types.CreateResumeRequest
	deleted   []int64
	listCalls int

	// createEntered is signalled once a create is recorded; holdCreate,
	// when set, then keeps that create open until it is closed
	createEntered chan struct{}
	holdCreate    chan struct{}

	pingErr   error
	getErr    error
	genErr    error
	unhealthy bool

	// panicOnList makes ListResumes panic with this value
	panicOnList any
}

func newFakeBackend(resumes ...types.Resume) *fakeBackend {
	f := &fakeBackend{nextID: 1}
	for _, r := range resumes {
		f.nextID = max(f.nextID, r.ID+1)
		f.resumes = append(f.resumes, r)
	}
	return f
}

func notFound(id int64) error {
	return errors.NewNotFoundError(errors.ErrCodeResumeNotFound,
		fmt.Sprintf("이력서를 찾을 수 없습니다. ID: %d", id), nil)
}

func (f *fakeBackend) ListResumes(ctx context.Context) ([]types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.panicOnList != nil {
		panic(f.panicOnList)
	}
	return slices.Clone(f.resumes), nil
}

func (f *fakeBackend) GetResume(ctx context.Context, id int64) (*types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, r := range f.resumes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, notFound(id)
}

func (f *fakeBackend) CreateResume(ctx context.Context, req types.CreateResumeRequest) (*types.Resume, error) {
	f.mu.Lock()
	f.created = append(f.created, req)
	entered, hold := f.createEntered, f.holdCreate
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	r := types.Resume{
		ID:              f.nextID,
		CareerSummary:   req.CareerSummary,
		JobRole:         req.JobRole,
		ExperienceYears: req.ExperienceYears,
		TechSkills:      req.TechSkills,
	}
	f.nextID++
	f.resumes = append(f.resumes, r)
	return &r, nil
}

func (f *fakeBackend) UpdateResume(ctx context.Context, id int64, req types.CreateResumeRequest) (*types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.resumes {
		if r.ID == id {
			r.CareerSummary = req.CareerSummary
			r.JobRole = req.JobRole
			r.ExperienceYears = req.ExperienceYears
			r.ProjectExperience = req.ProjectExperience
			r.TechSkills = req.TechSkills
			f.resumes[i] = r
			return &r, nil
		}
	}
	return nil, notFound(id)
}

func (f *fakeBackend) DeleteResume(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.resumes {
		if r.ID == id {
			f.resumes = slices.Delete(f.resumes, i, i+1)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return notFound(id)
}

func (f *fakeBackend) GenerateInterviewQuestions(ctx context.Context, id int64) (*types.InterviewQuestions, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	if _, err := f.GetResume(ctx, id); err != nil {
		return nil, err
	}
	return &types.InterviewQuestions{
		ResumeID:      id,
		Difficulty:    types.DifficultyMiddle,
		Questions:     []string{"고루틴 누수를 어떻게 찾나요?", "채널과 뮤텍스 중 무엇을 고르나요?"},
		Analysis:      "동시성 경험이 풍부합니다.",
		QuestionCount: 2,
	}, nil
}

func (f *fakeBackend) GenerateLearningPath(ctx context.Context, id int64) (*types.LearningPath, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	if _, err := f.GetResume(ctx, id); err != nil {
		return nil, err
	}
	return &types.LearningPath{
		ResumeID:        id,
		JobRole:         "BACKEND_DEVELOPER",
		OverallStrategy: "분산 시스템 기초부터 다집니다.",
		LearningSteps: []types.LearningStep{
			{Title: "Raft 읽기", Difficulty: "INTERMEDIATE", Resources: []string{"raft.github.io"}},
		},
		TotalSteps: 1,
	}, nil
}

func (f *fakeBackend) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeBackend) BreakerStats() map[string]any {
	return map[string]any{"interview": map[string]any{"enabled": false}}
}

func (f *fakeBackend) GenerationHealthy() bool {
	return !f.unhealthy
}

func (f *fakeBackend) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func sampleResumes() []types.Resume {
	return []types.Resume{
		{ID: 1, CareerSummary: "Go backend engineer", JobRole: types.JobRoleBackendDeveloper, ExperienceYears: 5,
			TechSkills: []string{"Go", "PostgreSQL", "Kafka", "gRPC"}, InterviewDifficulty: types.DifficultyMiddle},
		{ID: 2, CareerSummary: "React specialist", JobRole: types.JobRoleFrontendDeveloper, ExperienceYears: 2,
			TechSkills: []string{"React"}, InterviewDifficulty: types.DifficultyJunior},
		{ID: 3, CareerSummary: "Platform SRE", JobRole: types.JobRoleDevOpsEngineer, ExperienceYears: 9,
			ProjectExperience: "Go operators for Kubernetes", InterviewDifficulty: types.DifficultySenior},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{BaseURL: "http://backend.test"},
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			MaxRequestSize: 1 << 20,
			TLS:            config.TLSConfig{Mode: "disabled"},
		},
	}
}

func newTestServer(t *testing.T, backend Backend, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	s, err := NewServer(cfg, backend, "test", errors.Discard())
	require.NoError(t, err)
	t.Cleanup(s.cleanup)
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
