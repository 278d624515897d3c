package views

import (
	"context"
	"fmt"
	"sync"

	"careercoach/internal/types"
)

// GenerationState is the render state of a generation page
type GenerationState string

const (
	GenerationIdle    GenerationState = "idle"
	GenerationLoading GenerationState = "loading"
	GenerationLoaded  GenerationState = "loaded"
	GenerationError   GenerationState = "error"
)

// Generation holds the single latest generated result for one resume
type Generation[T any] struct {
	Scope

	kind     string
	resumeID int64
	generate func(ctx context.Context, id int64) (T, error)
	failMsg  string

	mu      sync.Mutex
	state   GenerationState
	result  T
	has     bool
	message string
}

// NewInterviewView generates interview questions for a resume
func NewInterviewView(svc ResumeService, resumeID int64) *Generation[*types.InterviewQuestions] {
	return &Generation[*types.InterviewQuestions]{
		kind:     "interview",
		resumeID: resumeID,
		generate: svc.GenerateInterviewQuestions,
		failMsg:  MsgInterviewFailed,
		state:    GenerationIdle,
	}
}

// NewLearningPathView generates a learning path for a resume
func NewLearningPathView(svc ResumeService, resumeID int64) *Generation[*types.LearningPath] {
	return &Generation[*types.LearningPath]{
		kind:     "learning_path",
		resumeID: resumeID,
		generate: svc.GenerateLearningPath,
		failMsg:  MsgLearningPathFailed,
		state:    GenerationIdle,
	}
}

// Generate requests fresh content. The previous result is replaced on
// success and cleared on failure.
func (g *Generation[T]) Generate() error {
	ctx, token := g.Begin()

	g.mu.Lock()
	g.state = GenerationLoading
	g.message = ""
	g.mu.Unlock()

	result, err := g.generate(ctx, g.resumeID)
	if !g.Accept(token) {
		return ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		var zero T
		g.result, g.has = zero, false
		g.state = GenerationError
		g.message = g.failMsg
		g.log().LogError(err, "Generation failed",
			"view", g.kind, "resume_id", g.resumeID, "reason", describeFailure(err))
		return err
	}
	g.result, g.has = result, true
	g.state = GenerationLoaded
	return nil
}

// Result returns the latest result, if there is one
func (g *Generation[T]) Result() (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result, g.has
}

// State reports what the page should render
func (g *Generation[T]) State() GenerationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Message is the failure text, empty unless the last attempt failed
func (g *Generation[T]) Message() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.message
}

// ResumeID is the resume the content is generated for
func (g *Generation[T]) ResumeID() int64 { return g.resumeID }

// NumberedQuestions renders questions as "1. ...", "2. ..."
func NumberedQuestions(q *types.InterviewQuestions) []string {
	if q == nil {
		return nil
	}
	out := make([]string, len(q.Questions))
	for i, question := range q.Questions {
		out[i] = fmt.Sprintf("%d. %s", i+1, question)
	}
	return out
}
