package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"careercoach/internal/errors"
	"careercoach/internal/types"
)

// CreateResume stores a new resume and returns it with its assigned id
func (c *Client) CreateResume(ctx context.Context, req types.CreateResumeRequest) (*types.Resume, error) {
	var out types.Resume
	err := c.execute(ctx, call{
		method: http.MethodPost,
		route:  "/resumes",
		body:   req,
	}, &out)
	c.om.RecordResumeChange(ctx, "create", err == nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResume fetches one resume by id
func (c *Client) GetResume(ctx context.Context, id int64) (*types.Resume, error) {
	var out types.Resume
	if err := c.execute(ctx, call{
		method: http.MethodGet,
		route:  "/resumes/{id}",
		params: idParam(id),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateResume fully replaces the editable fields of a resume
func (c *Client) UpdateResume(ctx context.Context, id int64, req types.CreateResumeRequest) (*types.Resume, error) {
	var out types.Resume
	err := c.execute(ctx, call{
		method: http.MethodPut,
		route:  "/resumes/{id}",
		params: idParam(id),
		body:   req,
	}, &out)
	c.om.RecordResumeChange(ctx, "update", err == nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteResume removes a resume. The response body is ignored.
func (c *Client) DeleteResume(ctx context.Context, id int64) error {
	err := c.execute(ctx, call{
		method: http.MethodDelete,
		route:  "/resumes/{id}",
		params: idParam(id),
	}, nil)
	c.om.RecordResumeChange(ctx, "delete", err == nil)
	return err
}

// ListResumes returns every resume in backend order
func (c *Client) ListResumes(ctx context.Context) ([]types.Resume, error) {
	return c.list(ctx, call{method: http.MethodGet, route: "/resumes"})
}

// ListByJobRole returns the resumes targeting role
func (c *Client) ListByJobRole(ctx context.Context, role types.JobRole) ([]types.Resume, error) {
	return c.list(ctx, call{
		method: http.MethodGet,
		route:  "/resumes/job-role/{role}",
		params: map[string]string{"role": string(role)},
	})
}

// ListByExperienceRange returns resumes with minYears <= experience <= maxYears
func (c *Client) ListByExperienceRange(ctx context.Context, minYears, maxYears int) ([]types.Resume, error) {
	if minYears < 0 || maxYears < minYears {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRange,
			fmt.Sprintf("invalid experience range %d-%d", minYears, maxYears), nil)
	}
	return c.list(ctx, call{
		method: http.MethodGet,
		route:  "/resumes/experience-range",
		query: map[string]string{
			"minYears": strconv.Itoa(minYears),
			"maxYears": strconv.Itoa(maxYears),
		},
	})
}

// ListByTechSkill returns resumes listing skill
func (c *Client) ListByTechSkill(ctx context.Context, skill string) ([]types.Resume, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "skill must not be empty", nil)
	}
	return c.list(ctx, call{
		method: http.MethodGet,
		route:  "/resumes/tech-skill/{skill}",
		params: map[string]string{"skill": skill},
	})
}

// Ping checks that the backend answers the list endpoint
func (c *Client) Ping(ctx context.Context) error {
	return c.execute(ctx, call{method: http.MethodGet, route: "/resumes"}, nil)
}

func (c *Client) list(ctx context.Context, cl call) ([]types.Resume, error) {
	var out []types.Resume
	if err := c.execute(ctx, cl, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Resume{}
	}
	return out, nil
}

func idParam(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}
