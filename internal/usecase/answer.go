package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"kbrag/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

// PromptData is rendered into the user message.
type PromptData struct {
	Context  string
	Question string
}

// AnswerComposer asks the completion model to answer a question from the
// retrieved chunks only.
type AnswerComposer struct {
	llm          port.LLM
	systemPrompt string
	userPrompt   *template.Template
}

// NewAnswerComposer uses the built-in grounding instruction when systemPrompt
// is empty.
func NewAnswerComposer(llm port.LLM, systemPrompt string) (*AnswerComposer, error) {
	if systemPrompt == "" {
		data, err := promptTemplates.ReadFile("templates/system_prompt.txt")
		if err != nil {
			return nil, fmt.Errorf("template not found: %w", err)
		}
		systemPrompt = string(data)
	}

	tmpl, err := template.ParseFS(promptTemplates, "templates/user_prompt.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &AnswerComposer{
		llm:          llm,
		systemPrompt: systemPrompt,
		userPrompt:   tmpl,
	}, nil
}

// Compose returns the model's answer verbatim.
func (c *AnswerComposer) Compose(ctx context.Context, question string, chunks []string) (string, error) {
	prompt, err := c.UserPrompt(question, chunks)
	if err != nil {
		return "", err
	}

	answer, err := c.llm.GenerateWithSystem(ctx, c.systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// UserPrompt renders the user message for question over chunks.
func (c *AnswerComposer) UserPrompt(question string, chunks []string) (string, error) {
	var buf bytes.Buffer
	data := PromptData{
		Context:  strings.Join(chunks, "\n\n"),
		Question: question,
	}
	if err := c.userPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func (c *AnswerComposer) SystemPrompt() string {
	return c.systemPrompt
}
