package views

import (
	"context"

	"careercoach/internal/types"
)

// ResumeService is the part of the backend client the views depend on.
// *api.Client satisfies it.
type ResumeService interface {
	ListResumes(ctx context.Context) ([]types.Resume, error)
	GetResume(ctx context.Context, id int64) (*types.Resume, error)
	CreateResume(ctx context.Context, req types.CreateResumeRequest) (*types.Resume, error)
	UpdateResume(ctx context.Context, id int64, req types.CreateResumeRequest) (*types.Resume, error)
	DeleteResume(ctx context.Context, id int64) error
	GenerateInterviewQuestions(ctx context.Context, id int64) (*types.InterviewQuestions, error)
	GenerateLearningPath(ctx context.Context, id int64) (*types.LearningPath, error)
}

// User-visible messages
const (
	MsgNoResumes          = "등록된 이력서가 없습니다."
	MsgNoSearchResults    = "검색 결과가 없습니다."
	MsgResumeNotFound     = "이력서를 찾을 수 없습니다."
	MsgSaveFailed         = "저장에 실패했습니다."
	MsgSaving             = "저장 중입니다. 잠시만 기다려주세요."
	MsgLoadFailed         = "이력서를 불러오는데 실패했습니다."
	MsgInterviewFailed    = "인터뷰 질문 생성에 실패했습니다."
	MsgLearningPathFailed = "학습 경로 생성에 실패했습니다."
	MsgNoProjects         = "프로젝트 경험이 없습니다."
	MsgDeleteFailed       = "삭제에 실패했습니다."
	MsgInvalidDraft       = "필수 항목을 확인해주세요."
	MsgDeleteConfirm      = "정말로 이 이력서를 삭제하시겠습니까?"
	MsgDashboardEmpty     = "등록된 이력서가 없습니다. 첫 번째 이력서를 작성해보세요!"
)
