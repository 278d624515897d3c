package views

import (
	"fmt"
	"strings"
	"sync"

	"careercoach/internal/api"
	"careercoach/internal/errors"
	"careercoach/internal/types"
)

// ListState is the render state of the resume list
type ListState string

const (
	ListLoading       ListState = "loading"
	ListLoaded        ListState = "loaded"
	ListEmpty         ListState = "empty"
	ListFilteredEmpty ListState = "filtered_empty"
	ListError         ListState = "error"
)

// ListView holds every resume fetched for one list page
type ListView struct {
	Scope

	svc ResumeService

	mu         sync.Mutex
	resumes    []types.Resume
	loading    bool
	loadErr    error
	searchTerm string
	roleFilter types.JobRole
}

// NewListView creates a list view in the loading state
func NewListView(svc ResumeService) *ListView {
	return &ListView{svc: svc, loading: true}
}

// Load fetches all resumes, replacing whatever was loaded before
func (v *ListView) Load() error {
	ctx, token := v.Begin()

	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	resumes, err := v.svc.ListResumes(ctx)
	if !v.Accept(token) {
		return ctx.Err()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		v.loadErr = err
		v.resumes = nil
		v.log().LogError(err, "Failed to load resumes", "view", "list")
		return err
	}
	v.loadErr = nil
	v.resumes = resumes
	return nil
}

// SetSearchTerm sets the free-text filter. Filtering never re-queries.
func (v *ListView) SetSearchTerm(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchTerm = term
}

// SetRoleFilter sets the job role filter; the empty role matches all
func (v *ListView) SetRoleFilter(role types.JobRole) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roleFilter = role
}

// SearchTerm returns the current free-text filter
func (v *ListView) SearchTerm() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.searchTerm
}

// RoleFilter returns the current job role filter
func (v *ListView) RoleFilter() types.JobRole {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.roleFilter
}

// Resumes returns every loaded resume, unfiltered
func (v *ListView) Resumes() []types.Resume {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]types.Resume(nil), v.resumes...)
}

// Filtered returns the loaded resumes matching both filters
func (v *ListView) Filtered() []types.Resume {
	v.mu.Lock()
	defer v.mu.Unlock()
	return FilterResumes(v.resumes, v.searchTerm, v.roleFilter)
}

// State reports what the list page should render
func (v *ListView) State() ListState {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.loading:
		return ListLoading
	case v.loadErr != nil:
		return ListError
	case len(v.resumes) == 0:
		return ListEmpty
	case len(FilterResumes(v.resumes, v.searchTerm, v.roleFilter)) == 0:
		return ListFilteredEmpty
	default:
		return ListLoaded
	}
}

// Message returns the placeholder text for the current state, if any
func (v *ListView) Message() string {
	switch v.State() {
	case ListEmpty:
		return MsgNoResumes
	case ListFilteredEmpty:
		return MsgNoSearchResults
	case ListError:
		return MsgLoadFailed
	default:
		return ""
	}
}

// Delete removes a resume on the backend and then drops its row locally.
// A failed delete leaves the rows untouched.
func (v *ListView) Delete(id int64) error {
	ctx, token := v.Begin()

	err := v.svc.DeleteResume(ctx, id)
	if err != nil {
		v.log().LogError(err, "Failed to delete resume", "view", "list", "resume_id", id)
		return err
	}
	if !v.Accept(token) {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.resumes[:0:0]
	for _, r := range v.resumes {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	v.resumes = kept
	return nil
}

// FilterResumes applies the search term and role filter conjunctively.
// The term matches case-insensitively against the career summary, the
// project experience or any skill. An empty term or role matches all.
func FilterResumes(resumes []types.Resume, term string, role types.JobRole) []types.Resume {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]types.Resume, 0, len(resumes))
	for _, r := range resumes {
		if role != "" && r.JobRole != role {
			continue
		}
		if needle != "" && !matchesTerm(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesTerm(r types.Resume, needle string) bool {
	if strings.Contains(strings.ToLower(r.CareerSummary), needle) ||
		strings.Contains(strings.ToLower(r.ProjectExperience), needle) {
		return true
	}
	for _, skill := range r.TechSkills {
		if strings.Contains(strings.ToLower(skill), needle) {
			return true
		}
	}
	return false
}

// SkillPreviewLimit is how many skills a resume card shows before "+N"
const SkillPreviewLimit = 3

// SkillPreview splits skills into the shown prefix and the overflow count
func SkillPreview(skills []string) ([]string, int) {
	if len(skills) <= SkillPreviewLimit {
		return skills, 0
	}
	return skills[:SkillPreviewLimit], len(skills) - SkillPreviewLimit
}

// ExperienceLabel renders years of experience, e.g. "3년 경력"
func ExperienceLabel(years int) string {
	return fmt.Sprintf("%d년 경력", years)
}

// describeFailure distinguishes a missing resume from other failures in logs
func describeFailure(err error) string {
	switch {
	case api.IsNotFound(err):
		return "not_found"
	case api.IsCanceled(err):
		return "canceled"
	case errors.IsType(err, errors.ErrorTypeNetwork):
		return "unreachable"
	default:
		return "backend_error"
	}
}
