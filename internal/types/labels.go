package types

import "slices"

var jobRoles = []JobRole{
	JobRoleBackendDeveloper,
	JobRoleFrontendDeveloper,
	JobRoleFullstackDeveloper,
	JobRoleDevOpsEngineer,
	JobRoleDataScientist,
	JobRoleDataEngineer,
	JobRoleMLEngineer,
	JobRoleAIEngineer,
	JobRoleProductManager,
	JobRoleQAEngineer,
	JobRoleSecurityEngineer,
	JobRoleSystemArchitect,
}

var jobRoleLabels = map[JobRole]string{
	JobRoleBackendDeveloper:   "백엔드 개발자",
	JobRoleFrontendDeveloper:  "프론트엔드 개발자",
	JobRoleFullstackDeveloper: "풀스택 개발자",
	JobRoleDevOpsEngineer:     "DevOps 엔지니어",
	JobRoleDataScientist:      "데이터 사이언티스트",
	JobRoleDataEngineer:       "데이터 엔지니어",
	JobRoleMLEngineer:         "ML 엔지니어",
	JobRoleAIEngineer:         "AI 엔지니어",
	JobRoleProductManager:     "프로덕트 매니저",
	JobRoleQAEngineer:         "QA 엔지니어",
	JobRoleSecurityEngineer:   "보안 엔지니어",
	JobRoleSystemArchitect:    "시스템 아키텍트",
}

var difficultyLabels = map[InterviewDifficulty]string{
	DifficultyJunior: "주니어",
	DifficultyMiddle: "미들",
	DifficultySenior: "시니어",
}

var difficultyTones = map[InterviewDifficulty]string{
	DifficultyJunior: "success",
	DifficultyMiddle: "warning",
	DifficultySenior: "error",
}

var stepDifficultyLabels = map[string]string{
	"BEGINNER":     "초급",
	"INTERMEDIATE": "중급",
	"ADVANCED":     "고급",
}

var stepDifficultyTones = map[string]string{
	"BEGINNER":     "success",
	"INTERMEDIATE": "warning",
	"ADVANCED":     "error",
}

// AllJobRoles returns the job roles in display order. The first one is the form default.
func AllJobRoles() []JobRole {
	return slices.Clone(jobRoles)
}

// DefaultJobRole is the role a new draft starts with
func DefaultJobRole() JobRole {
	return jobRoles[0]
}

// Valid reports whether r is one of the fixed job roles
func (r JobRole) Valid() bool {
	_, ok := jobRoleLabels[r]
	return ok
}

// Label returns the display label, or the raw value for unknown roles
func (r JobRole) Label() string {
	return lookup(jobRoleLabels, r)
}

// ParseJobRole accepts only members of the fixed set
func ParseJobRole(s string) (JobRole, bool) {
	r := JobRole(s)
	return r, r.Valid()
}

// Label returns the display label, or the raw value for unknown difficulties
func (d InterviewDifficulty) Label() string {
	return lookup(difficultyLabels, d)
}

// Tone returns the badge tone for the difficulty; unknown values get "default"
func (d InterviewDifficulty) Tone() string {
	if tone, ok := difficultyTones[d]; ok {
		return tone
	}
	return "default"
}

// StepDifficultyLabel maps a learning-step difficulty to its display label
func StepDifficultyLabel(difficulty string) string {
	return lookup(stepDifficultyLabels, difficulty)
}

// StepDifficultyTone maps a learning-step difficulty to its badge tone
func StepDifficultyTone(difficulty string) string {
	if tone, ok := stepDifficultyTones[difficulty]; ok {
		return tone
	}
	return "default"
}

// lookup falls back to the raw value when no label is registered
func lookup[K ~string](labels map[K]string, key K) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return string(key)
}
