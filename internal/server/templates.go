package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"careercoach/internal/types"
	"careercoach/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"dashboard", "list", "detail", "form", "interview", "learning_path", "error"}

// navLink is one entry of the header navigation
type navLink struct {
	Label  string
	Href   string
	Active bool
}

var navigation = []navLink{
	{Label: "대시보드", Href: "/"},
	{Label: "이력서 관리", Href: "/resumes"},
	{Label: "이력서 작성", Href: "/resumes/new"},
	{Label: "학습 경로", Href: "/resumes"},
}

// navFor marks the links whose target is exactly the current path
func navFor(path string) []navLink {
	links := make([]navLink, len(navigation))
	for i, link := range navigation {
		link.Active = link.Href == path
		links[i] = link
	}
	return links
}

type layoutData struct {
	Title   string
	Nav     []navLink
	Content any
}

type skillPreview struct {
	Shown []string
	More  int
}

type pageRenderer struct {
	pages map[string]*template.Template
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"roleLabel":       func(r types.JobRole) string { return r.Label() },
		"difficultyLabel": func(d types.InterviewDifficulty) string { return d.Label() },
		"difficultyTone":  func(d types.InterviewDifficulty) string { return d.Tone() },
		"stepLabel":       types.StepDifficultyLabel,
		"stepTone":        types.StepDifficultyTone,
		"experience":      views.ExperienceLabel,
		"preview": func(skills []string) skillPreview {
			shown, more := views.SkillPreview(skills)
			return skillPreview{Shown: shown, More: more}
		},
		"date": formatDate,
		"inc":  func(i int) int { return i + 1 },
	}
}

func newPageRenderer() (*pageRenderer, error) {
	p := &pageRenderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").
			Funcs(templateFuncs()).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.pages[name] = tpl
	}
	return p, nil
}

// render executes a page into a buffer first so a template failure never
// produces a half-written response
func (p *pageRenderer) render(w http.ResponseWriter, r *http.Request, status int, name, title string, content any) error {
	tpl, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	data := layoutData{Title: title, Nav: navFor(r.URL.Path), Content: content}
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// formatDate shows the date part of a backend timestamp
func formatDate(ts string) string {
	if ts == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("2006. 1. 2.")
		}
	}
	if date, _, ok := strings.Cut(ts, "T"); ok {
		return date
	}
	return ts
}
