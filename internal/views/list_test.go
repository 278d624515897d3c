package views

import (
	"context"
	"testing"

	"careercoach/internal/errors"
	"careercoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedList(t *testing.T, svc *fakeService) *ListView {
	t.Helper()
	v := NewListView(svc)
	v.Mount(context.Background(), errors.Discard())
	t.Cleanup(v.Unmount)
	require.NoError(t, v.Load())
	return v
}

func TestListStates(t *testing.T) {
	v := NewListView(newFakeService())
	assert.Equal(t, ListLoading, v.State())

	v.Mount(context.Background(), nil)
	defer v.Unmount()
	require.NoError(t, v.Load())
	assert.Equal(t, ListEmpty, v.State())
	assert.Equal(t, MsgNoResumes, v.Message())

	v = loadedList(t, newFakeService(sampleResumes()...))
	assert.Equal(t, ListLoaded, v.State())
	assert.Empty(t, v.Message())

	v.SetSearchTerm("없는 키워드")
	assert.Equal(t, ListFilteredEmpty, v.State())
	assert.Equal(t, MsgNoSearchResults, v.Message())
}

func TestListLoadFailureIsReported(t *testing.T) {
	svc := newFakeService(sampleResumes()...)
	svc.listErr = errors.NewNetworkError(errors.ErrCodeBackendUnreachable, "down", nil)

	v := NewListView(svc)
	v.Mount(context.Background(), nil)
	defer v.Unmount()

	require.Error(t, v.Load())
	assert.Equal(t, ListError, v.State())
	assert.Equal(t, MsgLoadFailed, v.Message())
}

func TestListIDsAreDistinct(t *testing.T) {
	v := loadedList(t, newFakeService(sampleResumes()...))
	seen := map[int64]bool{}
	for _, r := range v.Resumes() {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestFilterResumes(t *testing.T) {
	resumes := sampleResumes()

	tests := []struct {
		name     string
		term     string
		role     types.JobRole
		expected []int64
	}{
		{"no filters", "", "", []int64{1, 2, 3, 4}},
		{"summary match is case-insensitive", "spring", "", []int64{1}},
		{"project experience match", "쇼핑몰", "", []int64{2}},
		{"skill match", "KAFKA", "", []int64{3, 4}},
		{"role only", "", types.JobRoleBackendDeveloper, []int64{1, 4}},
		{"role and term", "kafka", types.JobRoleBackendDeveloper, []int64{4}},
		{"whitespace term matches all", "   ", "", []int64{1, 2, 3, 4}},
		{"no match", "rust", "", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterResumes(resumes, tt.term, tt.role)
			ids := make([]int64, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
				// Soundness: every row satisfies both predicates
				if tt.role != "" {
					assert.Equal(t, tt.role, r.JobRole)
				}
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestFilterIsIdempotentAndCommutes(t *testing.T) {
	resumes := sampleResumes()
	term, role := "kafka", types.JobRoleBackendDeveloper

	once := FilterResumes(resumes, term, role)
	twice := FilterResumes(once, term, role)
	assert.Equal(t, once, twice)

	roleFirst := FilterResumes(FilterResumes(resumes, "", role), term, "")
	termFirst := FilterResumes(FilterResumes(resumes, term, ""), "", role)
	assert.Equal(t, roleFirst, termFirst)
	assert.Equal(t, once, roleFirst)
}

func TestListDeleteRemovesRowLocally(t *testing.T) {
	svc := newFakeService(sampleResumes()...)
	v := loadedList(t, svc)

	// The list must not re-query after a delete
	svc.listErr = errors.NewInternalError("UNEXPECTED", "list called after delete", nil)

	require.NoError(t, v.Delete(2))
	for _, r := range v.Resumes() {
		assert.NotEqual(t, int64(2), r.ID)
	}
	assert.Len(t, v.Resumes(), 3)

	detail := NewDetailView(svc)
	detail.Mount(context.Background(), nil)
	defer detail.Unmount()
	require.Error(t, detail.Load("2"))
	assert.Equal(t, DetailNotFound, detail.State())
	assert.Equal(t, "not_found", detail.Reason())
}

func TestListDeleteFailureKeepsRows(t *testing.T) {
	svc := newFakeService(sampleResumes()...)
	v := loadedList(t, svc)
	svc.deleteErr = errors.NewBackendError(errors.ErrCodeBackendError, "boom", nil)

	require.Error(t, v.Delete(1))
	assert.Len(t, v.Resumes(), 4)
}

func TestSkillPreview(t *testing.T) {
	shown, more := SkillPreview([]string{"Spark", "Kafka", "Airflow", "Python", "SQL"})
	assert.Equal(t, []string{"Spark", "Kafka", "Airflow"}, shown)
	assert.Equal(t, 2, more)

	shown, more = SkillPreview([]string{"Go"})
	assert.Equal(t, []string{"Go"}, shown)
	assert.Zero(t, more)
}

func TestExperienceLabel(t *testing.T) {
	assert.Equal(t, "0년 경력", ExperienceLabel(0))
	assert.Equal(t, "12년 경력", ExperienceLabel(12))
}

func TestDashboard(t *testing.T) {
	resumes := sampleResumes()
	resumes = append(resumes,
		types.Resume{ID: 5, JobRole: types.JobRoleQAEngineer},
		types.Resume{ID: 6, JobRole: types.JobRoleMLEngineer},
	)

	v := NewDashboardView(newFakeService(resumes...))
	v.Mount(context.Background(), nil)
	defer v.Unmount()
	require.NoError(t, v.Load())

	assert.Equal(t, 6, v.Total())
	require.Len(t, v.Recent(), RecentLimit)
	assert.Equal(t, int64(1), v.Recent()[0].ID, "recent keeps backend order")
	assert.Empty(t, v.Message())

	empty := NewDashboardView(newFakeService())
	empty.Mount(context.Background(), nil)
	defer empty.Unmount()
	require.NoError(t, empty.Load())
	assert.Equal(t, MsgDashboardEmpty, empty.Message())
}
