package api

import (
	"context"
	"net/http"

	"careercoach/internal/types"
)

type (
	interviewResult    = *types.InterviewQuestions
	learningPathResult = *types.LearningPath
)

// GenerateInterviewQuestions asks the backend for a fresh question set.
// Each call produces new content; nothing is cached.
func (c *Client) GenerateInterviewQuestions(ctx context.Context, id int64) (*types.InterviewQuestions, error) {
	var result *types.InterviewQuestions
	err := c.om.TrackGeneration(ctx, "interview", id, func(ctx context.Context) error {
		var err error
		result, err = c.interviewBreaker.Execute(func() (interviewResult, error) {
			var out types.InterviewQuestions
			if err := c.execute(ctx, call{
				method: http.MethodPost,
				route:  "/resumes/{id}/interview-questions",
				params: idParam(id),
			}, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateLearningPath asks the backend for a fresh learning path
func (c *Client) GenerateLearningPath(ctx context.Context, id int64) (*types.LearningPath, error) {
	var result *types.LearningPath
	err := c.om.TrackGeneration(ctx, "learning_path", id, func(ctx context.Context) error {
		var err error
		result, err = c.learningPathBreaker.Execute(func() (learningPathResult, error) {
			var out types.LearningPath
			if err := c.execute(ctx, call{
				method: http.MethodPost,
				route:  "/resumes/{id}/learning-path",
				params: idParam(id),
			}, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BreakerStats reports the generation circuit breakers
func (c *Client) BreakerStats() map[string]any {
	return map[string]any{
		"interview":     c.interviewBreaker.GetStats(),
		"learning_path": c.learningPathBreaker.GetStats(),
	}
}

// GenerationHealthy reports whether no generation breaker is open
func (c *Client) GenerationHealthy() bool {
	return c.interviewBreaker.IsHealthy() && c.learningPathBreaker.IsHealthy()
}
