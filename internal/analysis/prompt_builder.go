package analysis

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/appraise-tools/appraise/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultMaxDocumentChars bounds how much document text is embedded in a
// prompt before head+tail truncation kicks in.
const DefaultMaxDocumentChars = 35000

// Prompt is a built analysis request. Truncated is set when the document
// text was cut down to fit, so the resulting report can flag it.
type Prompt struct {
	Text      string
	Truncated bool
}

// PromptBuilder composes analysis prompts from a rubric and document text
// using templates.
type PromptBuilder struct {
	templates        map[string]*template.Template
	maxDocumentChars int
}

// NewPromptBuilder creates a PromptBuilder with loaded templates.
// maxDocumentChars <= 0 selects the default limit.
func NewPromptBuilder(maxDocumentChars int) (*PromptBuilder, error) {
	if maxDocumentChars <= 0 {
		maxDocumentChars = DefaultMaxDocumentChars
	}

	pb := &PromptBuilder{
		templates:        make(map[string]*template.Template),
		maxDocumentChars: maxDocumentChars,
	}

	funcMap := template.FuncMap{
		"inc":      func(i int) int { return i + 1 },
		"totalMax": func() int { return model.TotalMaxScore },
	}

	for _, name := range []string{"appraisal_prompt"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(fmt.Sprintf("%s.tmpl", name)).Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pb.templates[name] = tmpl
	}

	return pb, nil
}

// promptData contains all data needed for the appraisal prompt.
type promptData struct {
	Rubric       *model.Rubric
	DocumentText string
	Truncated    bool
}

// BuildAppraisalPrompt creates the analysis prompt. Over-long documents are
// truncated deterministically, keeping the head and tail and dropping the
// middle; the truncation is reported on the returned Prompt.
func (pb *PromptBuilder) BuildAppraisalPrompt(rubric *model.Rubric, documentText string) (Prompt, error) {
	text, truncated := truncateMiddle(documentText, pb.maxDocumentChars)

	data := promptData{
		Rubric:       rubric,
		DocumentText: text,
		Truncated:    truncated,
	}

	var buf bytes.Buffer
	if err := pb.templates["appraisal_prompt"].ExecuteTemplate(&buf, "appraisal_prompt.tmpl", data); err != nil {
		return Prompt{}, fmt.Errorf("failed to execute appraisal_prompt template: %w", err)
	}

	return Prompt{Text: buf.String(), Truncated: truncated}, nil
}

const omissionMarker = "\n[... middle of document omitted ...]\n"

// truncateMiddle keeps the first two thirds and last third of the budget,
// dropping the middle. The same input always produces the same output.
func truncateMiddle(s string, maxLen int) (string, bool) {
	if len(s) <= maxLen {
		return s, false
	}

	head := maxLen * 2 / 3
	tail := maxLen - head
	return s[:head] + omissionMarker + s[len(s)-tail:], true
}
