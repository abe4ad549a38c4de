package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cogengine/internal/config"
	"cogengine/internal/services/llm"
)

const (
	hostedCheckTimeout = 30 * time.Second
	ollamaCheckTimeout = 5 * time.Second
)

// CheckLLM sends one probe completion to the hosted API. Retries are off so a
// bad key fails fast.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return fail(name, "API key missing")
	}
	ctx, cancel := context.WithTimeout(ctx, hostedCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config(cfg), llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(ctx); err != nil {
		return fail(name, summarizeLLMError(err))
	}
	return pass(name, fmt.Sprintf("API reachable (model %s)", cfg.Model))
}

// CheckOllama lists the local server's models. An empty list passes, since the
// server pulls on first use; a non-empty list must contain the model.
func CheckOllama(ctx context.Context, cfg config.LocalLLMConfig) Result {
	const name = "Ollama"
	base := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	model := strings.TrimSpace(cfg.Model)
	switch {
	case base == "":
		return fail(name, "missing url")
	case model == "":
		return fail(name, "missing model")
	}

	ctx, cancel := context.WithTimeout(ctx, ollamaCheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/tags", nil)
	if err != nil {
		return fail(name, fmt.Sprintf("bad url (%v)", err))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fail(name, fmt.Sprintf("unreachable (%v)", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fail(name, fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, base))
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fail(name, fmt.Sprintf("unreadable model list (%v)", err))
	}
	if len(tags.Models) == 0 {
		return pass(name, fmt.Sprintf("reachable, no models pulled yet (model %s)", model))
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	if slices.Contains(names, model) || slices.Contains(names, model+":latest") {
		return pass(name, fmt.Sprintf("reachable (model %s)", model))
	}
	return fail(name, fmt.Sprintf("model %s not pulled (have %s)", model, strings.Join(names, ", ")))
}

// CheckDirectoryAccess requires an existing directory the process can read,
// write and traverse.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fail(name, path+" does not exist")
	case err != nil:
		return fail(name, fmt.Sprintf("%s: %v", path, err))
	case !info.IsDir():
		return fail(name, path+" is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(name, fmt.Sprintf("%s not writable: %v", path, err))
	}
	return pass(name, path+" writable")
}

// CheckCreatableDirectory passes when path is an accessible directory or can
// be created under its nearest existing ancestor.
func CheckCreatableDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return fail(name, "not configured")
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(filepath.Clean(path))
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	if !CheckDirectoryAccess(name, ancestor).Passed {
		return fail(name, fmt.Sprintf("%s cannot be created under %s", path, ancestor))
	}
	return pass(name, path+" will be created")
}

func pass(name, detail string) Result { return Result{Name: name, Passed: true, Detail: detail} }
func fail(name, detail string) Result { return Result{Name: name, Detail: detail} }

func summarizeLLMError(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timed out waiting for the API"
	}
	var status *llm.StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Sprintf("API key rejected (http %d)", status.Code)
		case http.StatusNotFound:
			return fmt.Sprintf("endpoint or model not found (http %d)", status.Code)
		}
	}
	return err.Error()
}
