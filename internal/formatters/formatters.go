package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"careercoach/internal/types"
	"careercoach/internal/views"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI output handler
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Resume", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "Resume", &ResumeMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeList", &ResumeListTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeList", &ResumeListMarkdownFormatter{})
	registry.RegisterFormatter("text", "InterviewQuestions", &InterviewTextFormatter{})
	registry.RegisterFormatter("markdown", "InterviewQuestions", &InterviewMarkdownFormatter{})
	registry.RegisterFormatter("text", "LearningPath", &LearningPathTextFormatter{})
	registry.RegisterFormatter("markdown", "LearningPath", &LearningPathMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// deref lets callers pass the pointers the client returns
func deref(data any) any {
	switch v := data.(type) {
	case *types.Resume:
		if v != nil {
			return *v
		}
	case *types.InterviewQuestions:
		if v != nil {
			return *v
		}
	case *types.LearningPath:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.Resume:
		return "Resume"
	case []types.Resume:
		return "ResumeList"
	case types.InterviewQuestions:
		return "InterviewQuestions"
	case types.LearningPath:
		return "LearningPath"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ResumeTextFormatter prints one resume the way the detail page lays it out
type ResumeTextFormatter struct{}

func (f *ResumeTextFormatter) Format(data any) (string, error) {
	r, ok := data.(types.Resume)
	if !ok {
		return "", fmt.Errorf("expected Resume, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== RESUME #%d ===\n\n", r.ID)
	fmt.Fprintf(&out, "%s\n", r.CareerSummary)
	fmt.Fprintf(&out, "%s · %s · %s\n", r.JobRole.Label(), views.ExperienceLabel(r.ExperienceYears), r.InterviewDifficulty.Label())
	if r.CreatedAt != "" {
		fmt.Fprintf(&out, "등록일: %s\n", r.CreatedAt)
	}

	out.WriteString("\n기술 스택:\n")
	if len(r.TechSkills) == 0 {
		out.WriteString("  (없음)\n")
	}
	for _, skill := range r.TechSkills {
		fmt.Fprintf(&out, "  - %s\n", skill)
	}

	out.WriteString("\n프로젝트 경험:\n")
	out.WriteString(projectText(r.ProjectExperience))
	out.WriteString("\n")
	return out.String(), nil
}

func (f *ResumeTextFormatter) SupportedType() string {
	return "Resume"
}

// ResumeMarkdownFormatter renders one resume as markdown
type ResumeMarkdownFormatter struct{}

func (f *ResumeMarkdownFormatter) Format(data any) (string, error) {
	r, ok := data.(types.Resume)
	if !ok {
		return "", fmt.Errorf("expected Resume, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# %s\n\n", r.CareerSummary)
	fmt.Fprintf(&out, "- **ID:** %d\n", r.ID)
	fmt.Fprintf(&out, "- **직무:** %s\n", r.JobRole.Label())
	fmt.Fprintf(&out, "- **경력:** %s\n", views.ExperienceLabel(r.ExperienceYears))
	fmt.Fprintf(&out, "- **면접 난이도:** %s\n", r.InterviewDifficulty.Label())
	if r.CreatedAt != "" {
		fmt.Fprintf(&out, "- **등록일:** %s\n", r.CreatedAt)
	}

	out.WriteString("\n## 기술 스택\n\n")
	if len(r.TechSkills) == 0 {
		out.WriteString("_없음_\n")
	}
	for _, skill := range r.TechSkills {
		fmt.Fprintf(&out, "- %s\n", skill)
	}

	out.WriteString("\n## 프로젝트 경험\n\n")
	out.WriteString(projectText(r.ProjectExperience))
	out.WriteString("\n")
	return out.String(), nil
}

func (f *ResumeMarkdownFormatter) SupportedType() string {
	return "Resume"
}

// ResumeListTextFormatter prints one line per resume, like the list cards
type ResumeListTextFormatter struct{}

func (f *ResumeListTextFormatter) Format(data any) (string, error) {
	list, ok := data.([]types.Resume)
	if !ok {
		return "", fmt.Errorf("expected []Resume, got %T", data)
	}
	if len(list) == 0 {
		return views.MsgNoResumes + "\n", nil
	}

	var out strings.Builder
	for _, r := range list {
		fmt.Fprintf(&out, "#%-4d %s\n", r.ID, r.CareerSummary)
		fmt.Fprintf(&out, "      %s · %s · %s", r.JobRole.Label(), views.ExperienceLabel(r.ExperienceYears), r.InterviewDifficulty.Label())
		if chips := skillChips(r.TechSkills); chips != "" {
			fmt.Fprintf(&out, " · %s", chips)
		}
		out.WriteString("\n")
	}
	fmt.Fprintf(&out, "\n총 %d건\n", len(list))
	return out.String(), nil
}

func (f *ResumeListTextFormatter) SupportedType() string {
	return "ResumeList"
}

// ResumeListMarkdownFormatter renders resumes as a markdown table
type ResumeListMarkdownFormatter struct{}

func (f *ResumeListMarkdownFormatter) Format(data any) (string, error) {
	list, ok := data.([]types.Resume)
	if !ok {
		return "", fmt.Errorf("expected []Resume, got %T", data)
	}
	if len(list) == 0 {
		return "_" + views.MsgNoResumes + "_\n", nil
	}

	var out strings.Builder
	out.WriteString("| ID | 경력 요약 | 직무 | 경력 | 난이도 | 기술 |\n")
	out.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range list {
		fmt.Fprintf(&out, "| %d | %s | %s | %s | %s | %s |\n",
			r.ID,
			escapeCell(r.CareerSummary),
			r.JobRole.Label(),
			views.ExperienceLabel(r.ExperienceYears),
			r.InterviewDifficulty.Label(),
			escapeCell(skillChips(r.TechSkills)))
	}
	return out.String(), nil
}

func (f *ResumeListMarkdownFormatter) SupportedType() string {
	return "ResumeList"
}

// InterviewTextFormatter prints generated interview questions
type InterviewTextFormatter struct{}

func (f *InterviewTextFormatter) Format(data any) (string, error) {
	q, ok := data.(types.InterviewQuestions)
	if !ok {
		return "", fmt.Errorf("expected InterviewQuestions, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== AI 인터뷰 질문 ===\n")
	fmt.Fprintf(&out, "난이도: %s", q.Difficulty.Label())
	if q.DifficultyDescription != "" {
		fmt.Fprintf(&out, " (%s)", q.DifficultyDescription)
	}
	fmt.Fprintf(&out, "\n질문 수: %d\n", q.QuestionCount)

	if q.Analysis != "" {
		out.WriteString("\n이력서 분석:\n")
		out.WriteString(q.Analysis)
		out.WriteString("\n")
	}

	out.WriteString("\n예상 면접 질문:\n")
	for _, line := range views.NumberedQuestions(&q) {
		fmt.Fprintf(&out, "  %s\n", line)
	}
	return out.String(), nil
}

func (f *InterviewTextFormatter) SupportedType() string {
	return "InterviewQuestions"
}

// InterviewMarkdownFormatter renders interview questions as markdown
type InterviewMarkdownFormatter struct{}

func (f *InterviewMarkdownFormatter) Format(data any) (string, error) {
	q, ok := data.(types.InterviewQuestions)
	if !ok {
		return "", fmt.Errorf("expected InterviewQuestions, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# AI 인터뷰 질문\n\n")
	fmt.Fprintf(&out, "**난이도:** %s", q.Difficulty.Label())
	if q.DifficultyDescription != "" {
		fmt.Fprintf(&out, " (%s)", q.DifficultyDescription)
	}
	fmt.Fprintf(&out, "  \n**질문 수:** %d\n", q.QuestionCount)

	if q.Analysis != "" {
		fmt.Fprintf(&out, "\n## 이력서 분석\n\n%s\n", q.Analysis)
	}

	out.WriteString("\n## 예상 면접 질문\n\n")
	for i, question := range q.Questions {
		fmt.Fprintf(&out, "%d. %s\n", i+1, question)
	}
	return out.String(), nil
}

func (f *InterviewMarkdownFormatter) SupportedType() string {
	return "InterviewQuestions"
}

// LearningPathTextFormatter prints a generated learning path
type LearningPathTextFormatter struct{}

func (f *LearningPathTextFormatter) Format(data any) (string, error) {
	p, ok := data.(types.LearningPath)
	if !ok {
		return "", fmt.Errorf("expected LearningPath, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== AI 학습 경로 ===\n")
	fmt.Fprintf(&out, "직무: %s · 수준: %s\n", p.JobRole, p.ExperienceLevel)
	fmt.Fprintf(&out, "예상 기간: %s · 단계 수: %d\n", p.EstimatedDuration, p.TotalSteps)

	if p.OverallStrategy != "" {
		out.WriteString("\n전체 학습 전략:\n")
		out.WriteString(p.OverallStrategy)
		out.WriteString("\n")
	}

	for i, step := range p.LearningSteps {
		fmt.Fprintf(&out, "\n%d. %s [%s]", i+1, step.Title, types.StepDifficultyLabel(step.Difficulty))
		if step.EstimatedTime != "" {
			fmt.Fprintf(&out, " %s", step.EstimatedTime)
		}
		out.WriteString("\n")
		if step.Description != "" {
			fmt.Fprintf(&out, "   %s\n", step.Description)
		}
		if step.LearningObjective != "" {
			fmt.Fprintf(&out, "   학습 목표: %s\n", step.LearningObjective)
		}
		for _, res := range step.Resources {
			fmt.Fprintf(&out, "   - %s\n", res)
		}
	}
	return out.String(), nil
}

func (f *LearningPathTextFormatter) SupportedType() string {
	return "LearningPath"
}

// LearningPathMarkdownFormatter renders a learning path as markdown
type LearningPathMarkdownFormatter struct{}

func (f *LearningPathMarkdownFormatter) Format(data any) (string, error) {
	p, ok := data.(types.LearningPath)
	if !ok {
		return "", fmt.Errorf("expected LearningPath, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# AI 학습 경로\n\n")
	fmt.Fprintf(&out, "- **직무:** %s\n", p.JobRole)
	fmt.Fprintf(&out, "- **수준:** %s\n", p.ExperienceLevel)
	fmt.Fprintf(&out, "- **예상 기간:** %s\n", p.EstimatedDuration)
	fmt.Fprintf(&out, "- **단계 수:** %d\n", p.TotalSteps)

	if p.OverallStrategy != "" {
		fmt.Fprintf(&out, "\n## 전체 학습 전략\n\n%s\n", p.OverallStrategy)
	}

	for i, step := range p.LearningSteps {
		fmt.Fprintf(&out, "\n## %d. %s\n\n", i+1, step.Title)
		fmt.Fprintf(&out, "**난이도:** %s", types.StepDifficultyLabel(step.Difficulty))
		if step.EstimatedTime != "" {
			fmt.Fprintf(&out, " · **예상 시간:** %s", step.EstimatedTime)
		}
		out.WriteString("\n")
		if step.Description != "" {
			fmt.Fprintf(&out, "\n%s\n", step.Description)
		}
		if step.LearningObjective != "" {
			fmt.Fprintf(&out, "\n**학습 목표:** %s\n", step.LearningObjective)
		}
		if len(step.Resources) > 0 {
			out.WriteString("\n**추천 자료**\n\n")
			for _, res := range step.Resources {
				fmt.Fprintf(&out, "- %s\n", res)
			}
		}
	}
	return out.String(), nil
}

func (f *LearningPathMarkdownFormatter) SupportedType() string {
	return "LearningPath"
}

func projectText(s string) string {
	if strings.TrimSpace(s) == "" {
		return views.MsgNoProjects
	}
	return s
}

// skillChips renders the skill preview used by list cards
func skillChips(skills []string) string {
	shown, more := views.SkillPreview(skills)
	out := strings.Join(shown, ", ")
	if more > 0 {
		out += fmt.Sprintf(" +%d", more)
	}
	return out
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
