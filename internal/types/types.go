package types

// JobRole is the fixed classification of a resume's target profession
type JobRole string

const (
	JobRoleBackendDeveloper   JobRole = "BACKEND_DEVELOPER"
	JobRoleFrontendDeveloper  JobRole = "FRONTEND_DEVELOPER"
	JobRoleFullstackDeveloper JobRole = "FULLSTACK_DEVELOPER"
	JobRoleDevOpsEngineer     JobRole = "DEVOPS_ENGINEER"
	JobRoleDataScientist      JobRole = "DATA_SCIENTIST"
	JobRoleDataEngineer       JobRole = "DATA_ENGINEER"
	JobRoleMLEngineer         JobRole = "ML_ENGINEER"
	JobRoleAIEngineer         JobRole = "AI_ENGINEER"
	JobRoleProductManager     JobRole = "PRODUCT_MANAGER"
	JobRoleQAEngineer         JobRole = "QA_ENGINEER"
	JobRoleSecurityEngineer   JobRole = "SECURITY_ENGINEER"
	JobRoleSystemArchitect    JobRole = "SYSTEM_ARCHITECT"
)

// InterviewDifficulty is derived by the backend from years of experience
type InterviewDifficulty string

const (
	DifficultyJunior InterviewDifficulty = "JUNIOR"
	DifficultyMiddle InterviewDifficulty = "MIDDLE"
	DifficultySenior InterviewDifficulty = "SENIOR"
)

// MaxExperienceYears bounds the experience years a draft may carry
const MaxExperienceYears = 50

// CreateResumeRequest is the payload for both create and full-replace update.
// It deliberately has no id, timestamp or derived fields.
type CreateResumeRequest struct {
	CareerSummary     string   `json:"careerSummary" validate:"required"`
	JobRole           JobRole  `json:"jobRole" validate:"required,jobrole"`
	ExperienceYears   int      `json:"experienceYears" validate:"min=0,max=50"`
	ProjectExperience string   `json:"projectExperience,omitempty"`
	TechSkills        []string `json:"techSkills,omitempty"`
}

// Resume is a resume as returned by the backend
type Resume struct {
	ID                  int64               `json:"id"`
	CareerSummary       string              `json:"careerSummary"`
	JobRole             JobRole             `json:"jobRole"`
	ExperienceYears     int                 `json:"experienceYears"`
	ProjectExperience   string              `json:"projectExperience,omitempty"`
	TechSkills          []string            `json:"techSkills,omitempty"`
	CreatedAt           string              `json:"createdAt"`
	InterviewDifficulty InterviewDifficulty `json:"interviewDifficulty"` // Server-derived
	ExperienceLevel     string              `json:"experienceLevel"`     // Server-derived
}

// ToRequest returns the editable part of a resume
func (r Resume) ToRequest() CreateResumeRequest {
	skills := make([]string, len(r.TechSkills))
	copy(skills, r.TechSkills)
	return CreateResumeRequest{
		CareerSummary:     r.CareerSummary,
		JobRole:           r.JobRole,
		ExperienceYears:   r.ExperienceYears,
		ProjectExperience: r.ProjectExperience,
		TechSkills:        skills,
	}
}

// InterviewQuestions is one generated question set for a resume
type InterviewQuestions struct {
	ResumeID              int64               `json:"resumeId"`
	Difficulty            InterviewDifficulty `json:"difficulty"`
	Questions             []string            `json:"questions"`
	Analysis              string              `json:"analysis"`
	GeneratedAt           string              `json:"generatedAt"`
	PromptUsed            string              `json:"promptUsed,omitempty"`
	QuestionCount         int                 `json:"questionCount"`
	DifficultyDescription string              `json:"difficultyDescription"`
}

// LearningStep is one unit of a generated learning path
type LearningStep struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Difficulty        string   `json:"difficulty"` // BEGINNER, INTERMEDIATE or ADVANCED
	EstimatedTime     string   `json:"estimatedTime"`
	Resources         []string `json:"resources"`
	LearningObjective string   `json:"learningObjective"`
}

// LearningPath is one generated learning path for a resume
type LearningPath struct {
	ResumeID          int64          `json:"resumeId"`
	JobRole           string         `json:"jobRole"`
	ExperienceLevel   string         `json:"experienceLevel"`
	LearningSteps     []LearningStep `json:"learningSteps"`
	OverallStrategy   string         `json:"overallStrategy"`
	EstimatedDuration string         `json:"estimatedDuration"`
	GeneratedAt       string         `json:"generatedAt"`
	TotalSteps        int            `json:"totalSteps"`
}

// ErrorResponse is the backend's error envelope
type ErrorResponse struct {
	Timestamp        string            `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	Field            string            `json:"field,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	ServiceName      string            `json:"serviceName,omitempty"`
	ErrorCode        string            `json:"errorCode,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}
