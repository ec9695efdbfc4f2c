// Package notify renders notification messages from text templates with
// the sprig function set.
package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = `{{ .Username | default "Someone" | trim }} reacted to your review {{ .ReviewTitle | trunc 60 | quote }} of {{ .PlaceName | default "a place" }}`

// Message is the data available to templates.
type Message struct {
	Username    string
	PlaceName   string
	ReviewTitle string
}

type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses text, falling back to DefaultTemplate when empty.
func NewRenderer(text string) (*Renderer, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("notification").
		Option("missingkey=zero").
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(msg Message) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
