package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"cogengine/internal/fileutil"
	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
)

var sectionDelimiter = regexp.MustCompile(`^%%%\s+(.+)$`)

// TextFileSplitter splits one file into documents on "%%% name" lines.
type TextFileSplitter struct {
	base
}

// Describe implements task.Describer.
func (t *TextFileSplitter) Describe() string {
	return "Split a file on %%% delimiter lines into a document list"
}

// Execute implements task.Task.
func (t *TextFileSplitter) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	inputFile, err := params.String("input_file", "")
	if err != nil {
		return nil, err
	}
	outputKey, err := params.String("output_key", "split_docs")
	if err != nil {
		return nil, err
	}
	saveToDisk, err := params.Bool("save_to_disk", false)
	if err != nil {
		return nil, err
	}
	outputDir, err := params.String("output_dir", filepath.Join(t.cfg().Paths.OutputDir, "split_files"))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(inputFile) == "" {
		return nil, services.Wrap(services.ErrExternalIO, t.name, "open input", "input file not found: input_file is empty", nil)
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, t.name, "open input", fmt.Sprintf("input file not found: %s", inputFile), err)
	}
	content := string(data)

	sections := splitSections(content)
	if len(sections) == 0 {
		logging.WarnWithContext(logger, "no %%% delimiters found; treating file as a single document", "split_fallback",
			logging.String("input_file", inputFile),
		)
		sections = []section{{name: filepath.Base(inputFile), body: content}}
	}

	docs := make([]state.Document, 0, len(sections))
	for _, sec := range sections {
		name := splitFileName(sec.name)
		docs = append(docs, state.Document{
			Filename: name,
			Filepath: "virtual/" + name,
			Content:  sec.body,
		})
		if saveToDisk {
			path := filepath.Join(outputDir, name)
			if err := fileutil.WriteText(path, sec.body); err != nil {
				return nil, services.Wrap(services.ErrExternalIO, t.name, "save section", path, err)
			}
			logger.Debug("saved split file", logging.String("path", path))
		}
	}

	st.Set(outputKey, state.Documents(docs))
	logger.Info("split file into documents",
		logging.String("input_file", inputFile),
		logging.String("output_key", outputKey),
		logging.Int("documents", len(docs)),
	)
	return st, nil
}

type section struct {
	name string
	body string
}

// splitSections collects the text after each delimiter line. Text before the
// first delimiter is dropped, and a trailing delimiter with no lines after it
// produces no section.
func splitSections(content string) []section {
	var (
		sections []section
		current  string
		open     bool
		buffer   []string
	)
	for _, line := range splitLines(content) {
		if match := sectionDelimiter.FindStringSubmatch(line); match != nil {
			if open {
				sections = append(sections, section{name: current, body: strings.TrimSpace(strings.Join(buffer, "\n"))})
			}
			current = strings.TrimSpace(match[1])
			open = current != ""
			buffer = buffer[:0]
			continue
		}
		if open {
			buffer = append(buffer, line)
		}
	}
	if open && len(buffer) > 0 {
		sections = append(sections, section{name: current, body: strings.TrimSpace(strings.Join(buffer, "\n"))})
	}
	return sections
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// splitFileName keeps letters, numeric characters, underscore, dash, and space, and adds
// ".txt" unless the raw name already ends with it.
func splitFileName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == ' ' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if strings.HasSuffix(raw, ".txt") {
		// The dot was stripped with the other punctuation; restore the extension.
		return strings.TrimSuffix(clean, "txt") + ".txt"
	}
	return clean + ".txt"
}
