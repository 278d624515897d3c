package views

import (
	"careercoach/internal/types"
)

// RecentLimit is the number of resumes the dashboard lists
const RecentLimit = 5

// DashboardView summarises the stored resumes
type DashboardView struct {
	Scope

	svc     ResumeService
	loaded  bool
	total   int
	recent  []types.Resume
	loadErr error
}

// NewDashboardView creates an unloaded dashboard
func NewDashboardView(svc ResumeService) *DashboardView {
	return &DashboardView{svc: svc}
}

// Load fetches the resume list and keeps the count and the first few entries
func (v *DashboardView) Load() error {
	ctx, token := v.Begin()

	resumes, err := v.svc.ListResumes(ctx)
	if !v.Accept(token) {
		return ctx.Err()
	}
	v.loaded = true
	if err != nil {
		v.loadErr = err
		v.log().LogError(err, "Failed to load dashboard", "view", "dashboard")
		return err
	}

	v.total = len(resumes)
	n := min(len(resumes), RecentLimit)
	v.recent = append([]types.Resume(nil), resumes[:n]...)
	return nil
}

// Total is the number of stored resumes
func (v *DashboardView) Total() int { return v.total }

// Recent returns up to RecentLimit resumes in backend order
func (v *DashboardView) Recent() []types.Resume { return v.recent }

// Failed reports whether the last load failed
func (v *DashboardView) Failed() bool { return v.loadErr != nil }

// Message returns the empty-state text, if the dashboard has nothing to show
func (v *DashboardView) Message() string {
	switch {
	case !v.loaded:
		return ""
	case v.loadErr != nil:
		return MsgLoadFailed
	case v.total == 0:
		return MsgDashboardEmpty
	default:
		return ""
	}
}
