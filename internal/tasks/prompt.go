package tasks

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cogengine/internal/services"
)

const contentPlaceholder = "{content}"

// metadataDateLayout renders dates as DD-MM-YYYY.
const metadataDateLayout = "02-01-2006"

// loadPrompt reads a prompt template and checks it carries the {content}
// placeholder.
func loadPrompt(component, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrExternalIO, component, "load prompt", fmt.Sprintf("prompt file not found: %s", path), err)
	}
	template := string(data)
	if !strings.Contains(template, contentPlaceholder) {
		return "", services.Wrap(services.ErrConfiguration, component, "load prompt", fmt.Sprintf("prompt file %s has no %s placeholder", path, contentPlaceholder), nil)
	}
	return template, nil
}

func renderPrompt(template, content string) string {
	return strings.ReplaceAll(template, contentPlaceholder, content)
}

type metadata struct {
	date   time.Time
	source string
	model  string
	prompt string
}

func (m metadata) render() string {
	var b strings.Builder
	b.WriteString("## Metadata\n")
	fmt.Fprintf(&b, "- **Date:** %s\n", m.date.Format(metadataDateLayout))
	if m.source != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", m.source)
	}
	fmt.Fprintf(&b, "- **Model:** %s\n", m.model)
	fmt.Fprintf(&b, "- **Prompt:** %s\n\n", m.prompt)
	return b.String()
}
