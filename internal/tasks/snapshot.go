package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"cogengine/internal/fileutil"
	"cogengine/internal/logging"
	"cogengine/internal/services"
	"cogengine/internal/state"
	"cogengine/internal/task"
	"cogengine/internal/textutil"
)

var defaultIgnoreDirs = []string{
	"__pycache__", ".git", ".idea", ".vscode", "venv", "env",
	"node_modules", "dist", "build", "migrations", "coverage",
}

var defaultIncludeExtensions = []string{
	".py", ".js", ".ts", ".html", ".css", ".md", ".json", ".yaml", ".yml",
	".sql", ".toml", ".txt", ".java", ".c", ".cpp", ".go",
}

const treeIndent = "    "

// CodebaseSnapshot renders a source tree as one markdown document: a
// directory tree followed by every included file in a fenced block.
type CodebaseSnapshot struct {
	base
}

// Describe implements task.Describer.
func (t *CodebaseSnapshot) Describe() string {
	return "Render a source directory as a single markdown context document"
}

// HealthCheck implements task.HealthChecker.
func (t *CodebaseSnapshot) HealthCheck(_ context.Context, params task.Params) task.Health {
	target, err := params.RequireString("target_dir")
	if err != nil {
		return task.Unhealthy(t.name, err.Error())
	}
	if err := checkDir(t.name, target); err != nil {
		return task.Unhealthy(t.name, err.Error())
	}
	return task.Healthy(t.name)
}

// Execute implements task.Task.
func (t *CodebaseSnapshot) Execute(ctx context.Context, st *state.State, params task.Params) (*state.State, error) {
	logger := t.log(ctx)
	target, err := params.RequireString("target_dir")
	if err != nil {
		return nil, err
	}
	outputFile, err := params.String("output_file", "")
	if err != nil {
		return nil, err
	}
	outputKey, err := params.String("output_key", "codebase_context")
	if err != nil {
		return nil, err
	}
	ignore, err := stringSetParam(params, "ignore_dirs", defaultIgnoreDirs, func(s string) string { return s })
	if err != nil {
		return nil, err
	}
	include, err := stringSetParam(params, "include_extensions", defaultIncludeExtensions, textutil.NormalizeExtension)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(target)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, t.name, "resolve target", target, err)
	}
	if err := checkDir(t.name, root); err != nil {
		return nil, err
	}
	logger.Info("scanning codebase", logging.String("target_dir", root))

	scan := &snapshotScan{root: root, ignore: ignore, include: include, logger: logger}
	if err := scan.walk(ctx, root, 0); err != nil {
		return nil, err
	}
	doc := scan.render()
	st.Set(outputKey, doc)

	if strings.TrimSpace(outputFile) != "" {
		if err := fileutil.WriteText(outputFile, doc); err != nil {
			return nil, services.Wrap(services.ErrExternalIO, t.name, "write snapshot", outputFile, err)
		}
		logger.Info("snapshot written", logging.String("path", outputFile))
	}
	logger.Info("snapshot complete",
		logging.String("output_key", outputKey),
		logging.Int("files", len(scan.files)),
		logging.Int("chars", len(doc)),
		logging.Int("estimated_tokens", textutil.EstimateTokens(doc)),
	)
	return st, nil
}

func checkDir(component, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrExternalIO, component, "stat target", fmt.Sprintf("target directory not found: %s", path), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, component, "stat target", fmt.Sprintf("target is not a directory: %s", path), nil)
	}
	return nil
}

func stringSetParam(params task.Params, key string, defaults []string, normalize func(string) string) (map[string]struct{}, error) {
	values := defaults
	if params.Has(key) {
		custom, err := params.StringList(key)
		if err != nil {
			return nil, err
		}
		values = custom
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = normalize(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set, nil
}

type snapshotFile struct {
	rel     string
	content string
}

type snapshotScan struct {
	root    string
	ignore  map[string]struct{}
	include map[string]struct{}
	logger  *slog.Logger

	tree  []string
	files []snapshotFile
}

// walk lists a directory's included files before descending into its
// subdirectories, both in name order.
func (s *snapshotScan) walk(ctx context.Context, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == s.root {
			return services.Wrap(services.ErrExternalIO, "CodebaseSnapshot", "read dir", dir, err)
		}
		s.logger.Warn("skipping unreadable directory", logging.String("dir", dir), logging.Error(err))
		return nil
	}
	if depth == 0 {
		s.tree = append(s.tree, fmt.Sprintf("Directory Tree for: %s/", filepath.Base(s.root)))
	} else {
		s.tree = append(s.tree, strings.Repeat(treeIndent, depth-1)+filepath.Base(dir)+"/")
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if _, skip := s.ignore[name]; !skip {
				subdirs = append(subdirs, name)
			}
			continue
		}
		if _, ok := s.include[textutil.NormalizeExtension(filepath.Ext(name))]; !ok {
			continue
		}
		s.tree = append(s.tree, strings.Repeat(treeIndent, depth)+name)
		s.collect(filepath.Join(dir, name))
	}
	slices.Sort(subdirs)
	for _, name := range subdirs {
		if err := s.walk(ctx, filepath.Join(dir, name), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *snapshotScan) collect(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("could not read file", logging.String("file", path), logging.Error(err))
		return
	}
	if !utf8.Valid(data) {
		s.logger.Warn("skipping binary or non-utf8 file", logging.String("file", path))
		return
	}
	rel, err := filepath.Rel(filepath.Dir(s.root), path)
	if err != nil {
		rel = path
	}
	s.files = append(s.files, snapshotFile{rel: filepath.ToSlash(rel), content: string(data)})
}

func (s *snapshotScan) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Codebase Context: %s\n\n", filepath.Base(s.root))
	b.WriteString("## 1. Directory Structure\n```text\n")
	b.WriteString(strings.Join(s.tree, "\n"))
	b.WriteString("\n```\n\n---\n\n## 2. File Contents\n\n")
	for _, f := range s.files {
		fmt.Fprintf(&b, "### `%s`\n\n", f.rel)
		fmt.Fprintf(&b, "```%s\n", strings.TrimPrefix(filepath.Ext(f.rel), "."))
		b.WriteString(f.content)
		b.WriteString("\n```\n\n")
	}
	return b.String()
}
