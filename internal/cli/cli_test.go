package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/types"

	"github.com/stretchr/testify/require"
)

// resumeService is an in-memory stand-in for the REST backend
type resumeService struct {
	mu      sync.Mutex
	nextID  int64
	resumes []types.Resume
	calls   []string
	genFail bool
}

func newResumeService(t *testing.T, resumes ...types.Resume) (*resumeService, string) {
	t.Helper()
	s := &resumeService{nextID: 1}
	for _, r := range resumes {
		s.nextID = max(s.nextID, r.ID+1)
		s.resumes = append(s.resumes, r)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/resumes", s.list)
	mux.HandleFunc("POST /api/resumes", s.create)
	mux.HandleFunc("GET /api/resumes/{id}", s.get)
	mux.HandleFunc("PUT /api/resumes/{id}", s.update)
	mux.HandleFunc("DELETE /api/resumes/{id}", s.remove)
	mux.HandleFunc("GET /api/resumes/job-role/{role}", s.list)
	mux.HandleFunc("GET /api/resumes/experience-range", s.list)
	mux.HandleFunc("GET /api/resumes/tech-skill/{skill}", s.list)
	mux.HandleFunc("POST /api/resumes/{id}/interview-questions", s.interview)
	mux.HandleFunc("POST /api/resumes/{id}/learning-path", s.learningPath)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.RequestURI())
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return s, srv.URL + "/api"
}

func (s *resumeService) lastCall() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return ""
	}
	return s.calls[len(s.calls)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{
		Status:  http.StatusNotFound,
		Error:   "Not Found",
		Message: "이력서를 찾을 수 없습니다. ID: " + id,
		Path:    "/api/resumes/" + id,
	})
}

func (s *resumeService) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []types.Resume{}
	for _, res := range s.resumes {
		if role := r.PathValue("role"); role != "" && string(res.JobRole) != role {
			continue
		}
		if skill := r.PathValue("skill"); skill != "" && !slices.Contains(res.TechSkills, skill) {
			continue
		}
		if minYears := r.URL.Query().Get("minYears"); minYears != "" {
			lo, _ := strconv.Atoi(minYears)
			hi, _ := strconv.Atoi(r.URL.Query().Get("maxYears"))
			if res.ExperienceYears < lo || res.ExperienceYears > hi {
				continue
			}
		}
		out = append(out, res)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *resumeService) find(id string) (int, bool) {
	for i, res := range s.resumes {
		if strconv.FormatInt(res.ID, 10) == id {
			return i, true
		}
	}
	return 0, false
}

func (s *resumeService) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(r.PathValue("id"))
	if !ok {
		notFound(w, r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, s.resumes[i])
}

func (s *resumeService) create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res := types.Resume{
		ID:                  s.nextID,
		CareerSummary:       req.CareerSummary,
		JobRole:             req.JobRole,
		ExperienceYears:     req.ExperienceYears,
		ProjectExperience:   req.ProjectExperience,
		TechSkills:          req.TechSkills,
		CreatedAt:           "2024-05-01T09:00:00",
		InterviewDifficulty: types.DifficultyJunior,
	}
	s.nextID++
	s.resumes = append(s.resumes, res)
	writeJSON(w, http.StatusCreated, res)
}

func (s *resumeService) update(w http.ResponseWriter, r *http.Request) {
	var req types.CreateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(r.PathValue("id"))
	if !ok {
		notFound(w, r.PathValue("id"))
		return
	}
	res := s.resumes[i]
	res.CareerSummary = req.CareerSummary
	res.JobRole = req.JobRole
	res.ExperienceYears = req.ExperienceYears
	res.ProjectExperience = req.ProjectExperience
	res.TechSkills = req.TechSkills
	s.resumes[i] = res
	writeJSON(w, http.StatusOK, res)
}

func (s *resumeService) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(r.PathValue("id"))
	if !ok {
		notFound(w, r.PathValue("id"))
		return
	}
	s.resumes = slices.Delete(s.resumes, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *resumeService) interview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.genFail
	s.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusServiceUnavailable, types.ErrorResponse{Status: http.StatusServiceUnavailable})
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	writeJSON(w, http.StatusOK, types.InterviewQuestions{
		ResumeID:      id,
		Difficulty:    types.DifficultyMiddle,
		Questions:     []string{"Goroutine leak를 어떻게 찾나요?", "gRPC 스트리밍 경험은?"},
		Analysis:      "백엔드 경험이 풍부합니다.",
		QuestionCount: 2,
	})
}

func (s *resumeService) learningPath(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	writeJSON(w, http.StatusOK, types.LearningPath{
		ResumeID:          id,
		JobRole:           "BACKEND_DEVELOPER",
		ExperienceLevel:   "MIDDLE",
		EstimatedDuration: "8주",
		TotalSteps:        1,
		LearningSteps: []types.LearningStep{{
			Title:      "분산 추적",
			Difficulty: "INTERMEDIATE",
			Resources:  []string{"OpenTelemetry 문서"},
		}},
	})
}

func sampleResumes() []types.Resume {
	return []types.Resume{
		{
			ID:                  1,
			CareerSummary:       "Go backend engineer",
			JobRole:             types.JobRoleBackendDeveloper,
			ExperienceYears:     5,
			TechSkills:          []string{"Go", "PostgreSQL", "Kafka", "Redis"},
			InterviewDifficulty: types.DifficultyMiddle,
		},
		{
			ID:                  2,
			CareerSummary:       "React specialist",
			JobRole:             types.JobRoleFrontendDeveloper,
			ExperienceYears:     2,
			TechSkills:          []string{"React", "TypeScript"},
			InterviewDifficulty: types.DifficultyJunior,
		},
		{
			ID:                  3,
			CareerSummary:       "Platform SRE",
			JobRole:             types.JobRoleDevOpsEngineer,
			ExperienceYears:     9,
			ProjectExperience:   "Go operators for Kubernetes",
			TechSkills:          []string{"Go", "Kubernetes"},
			InterviewDifficulty: types.DifficultySenior,
		},
	}
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			BaseURL:   baseURL,
			Timeout:   5 * time.Second,
			UserAgent: "careercoach-test",
		},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: "0",
			TLS:  config.TLSConfig{Mode: "disabled"},
		},
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "text",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1024 * 1024,
		},
	}
}

// run executes the command line against cfg and returns what it printed
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	ctx := context.WithValue(t.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, errors.Discard())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeDraft(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)), 0o600))
	return path
}

func decodeResume(t *testing.T, out string) types.Resume {
	t.Helper()
	var r types.Resume
	require.NoError(t, json.Unmarshal([]byte(out), &r), fmt.Sprintf("output: %s", out))
	return r
}
