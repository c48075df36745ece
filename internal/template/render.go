// Package template implements the pure TemplateRenderer.
package template

import (
	"fmt"
	"strings"
)

// Rendered is the (subject, body) pair produced by Render.
type Rendered struct {
	Subject string
	Body    string
}

// Render replaces every {{key}} placeholder in subjectTemplate and
// bodyTemplate with its value from variables. Missing variables are left
// as untouched placeholders; this is not an error. Stateless, deterministic,
// no escaping is applied — the template author owns escaping.
func Render(subjectTemplate, bodyTemplate string, variables map[string]string) Rendered {
	subject, body := subjectTemplate, bodyTemplate
	for key, value := range variables {
		placeholder := fmt.Sprintf("{{%s}}", key)
		subject = strings.ReplaceAll(subject, placeholder, value)
		body = strings.ReplaceAll(body, placeholder, value)
	}
	return Rendered{Subject: subject, Body: body}
}
