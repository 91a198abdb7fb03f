package extract

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/ShipCreekGroup/email-parser/internal/schema"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for email extraction.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt: the extraction task, the embedded
// schema, and the raw text verbatim.
func UserPrompt(text string) string {
	var buf bytes.Buffer
	data := struct {
		Schema string
		Text   string
	}{Schema: schema.JSONText(), Text: text}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
