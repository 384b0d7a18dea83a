package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"docharvest/internal/util"
)

// PdftotextEngine is the fallback: an external command-line extractor. Its
// absence is a normal condition, not an error; a dependency installer is
// expected to provide it where wanted.
type PdftotextEngine struct {
	tool      string
	available bool
}

func NewPdftotextEngine(tool string) *PdftotextEngine {
	_, err := exec.LookPath(tool)
	return &PdftotextEngine{tool: tool, available: err == nil}
}

func (e *PdftotextEngine) Name() string { return e.tool }

func (e *PdftotextEngine) Available() bool { return e.available }

func (e *PdftotextEngine) ExtractPages(ctx context.Context, pdfPath string) ([]PageText, error) {
	if !e.available {
		return nil, util.ErrEngineUnavailable
	}
	cmd := exec.CommandContext(ctx, e.tool, "-layout", pdfPath, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %s: %w", e.tool, msg, err)
		}
		return nil, fmt.Errorf("%s: %w", e.tool, err)
	}

	// pdftotext separates pages with form feeds and emits a trailing one.
	raw := strings.Split(stdout.String(), "\f")
	if len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}
	pages := make([]PageText, 0, len(raw))
	for i, text := range raw {
		pages = append(pages, PageText{Number: i + 1, Text: text})
	}
	return pages, nil
}
