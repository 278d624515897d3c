package views

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"careercoach/internal/errors"
	"careercoach/internal/types"
)

// fakeService is an in-memory backend that derives server-side fields
type fakeService struct {
	mu      sync.Mutex
	nextID  int64
	resumes []types.Resume

	listErr   error
	saveErr   error
	deleteErr error
	genErr    error
	genCalls  int

	// block, when set, holds calls until the context is done
	block chan struct{}
}

func newFakeService(resumes ...types.Resume) *fakeService {
	f := &fakeService{nextID: 1}
	for _, r := range resumes {
		if r.ID >= f.nextID {
			f.nextID = r.ID + 1
		}
		f.resumes = append(f.resumes, r)
	}
	return f
}

func (f *fakeService) wait(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func difficultyFor(years int) types.InterviewDifficulty {
	switch {
	case years <= 2:
		return types.DifficultyJunior
	case years <= 6:
		return types.DifficultyMiddle
	default:
		return types.DifficultySenior
	}
}

func notFound(id int64) error {
	return errors.NewNotFoundError(errors.ErrCodeResumeNotFound,
		fmt.Sprintf("이력서를 찾을 수 없습니다. ID: %d", id), nil)
}

func (f *fakeService) ListResumes(ctx context.Context) ([]types.Resume, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.resumes), nil
}

func (f *fakeService) GetResume(ctx context.Context, id int64) (*types.Resume, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.resumes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, notFound(id)
}

func (f *fakeService) CreateResume(ctx context.Context, req types.CreateResumeRequest) (*types.Resume, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	r := types.Resume{
		ID:                  f.nextID,
		CareerSummary:       req.CareerSummary,
		JobRole:             req.JobRole,
		ExperienceYears:     req.ExperienceYears,
		ProjectExperience:   req.ProjectExperience,
		TechSkills:          slices.Clone(req.TechSkills),
		CreatedAt:           "2025-01-01T00:00:00",
		InterviewDifficulty: difficultyFor(req.ExperienceYears),
		ExperienceLevel:     string(difficultyFor(req.ExperienceYears)),
	}
	f.nextID++
	f.resumes = append(f.resumes, r)
	return &r, nil
}

func (f *fakeService) UpdateResume(ctx context.Context, id int64, req types.CreateResumeRequest) (*types.Resume, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	for i, r := range f.resumes {
		if r.ID == id {
			r.CareerSummary = req.CareerSummary
			r.JobRole = req.JobRole
			r.ExperienceYears = req.ExperienceYears
			r.ProjectExperience = req.ProjectExperience
			r.TechSkills = slices.Clone(req.TechSkills)
			r.InterviewDifficulty = difficultyFor(req.ExperienceYears)
			f.resumes[i] = r
			return &r, nil
		}
	}
	return nil, notFound(id)
}

func (f *fakeService) DeleteResume(ctx context.Context, id int64) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.resumes = slices.DeleteFunc(f.resumes, func(r types.Resume) bool { return r.ID == id })
	return nil
}

func (f *fakeService) GenerateInterviewQuestions(ctx context.Context, id int64) (*types.InterviewQuestions, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &types.InterviewQuestions{
		ResumeID:      id,
		Difficulty:    types.DifficultyMiddle,
		Questions:     []string{fmt.Sprintf("질문 세트 %d", f.genCalls)},
		QuestionCount: 1,
	}, nil
}

func (f *fakeService) GenerateLearningPath(ctx context.Context, id int64) (*types.LearningPath, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &types.LearningPath{
		ResumeID:        id,
		OverallStrategy: fmt.Sprintf("전략 %d", f.genCalls),
		LearningSteps:   []types.LearningStep{{Title: "Go", Difficulty: "BEGINNER"}},
		TotalSteps:      1,
	}, nil
}

func sampleResumes() []types.Resume {
	return []types.Resume{
		{ID: 1, CareerSummary: "Spring 백엔드 개발", JobRole: types.JobRoleBackendDeveloper, ExperienceYears: 5, TechSkills: []string{"Java", "Spring"}},
		{ID: 2, CareerSummary: "React 프론트엔드", JobRole: types.JobRoleFrontendDeveloper, ExperienceYears: 2, ProjectExperience: "쇼핑몰 리뉴얼", TechSkills: []string{"React", "TypeScript"}},
		{ID: 3, CareerSummary: "데이터 파이프라인 구축", JobRole: types.JobRoleDataEngineer, ExperienceYears: 7, TechSkills: []string{"Spark", "Kafka", "Airflow", "Python"}},
		{ID: 4, CareerSummary: "Go 기반 MSA", JobRole: types.JobRoleBackendDeveloper, ExperienceYears: 3, TechSkills: []string{"Go", "Kafka"}},
	}
}
