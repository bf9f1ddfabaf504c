// Package paddle runs a local PaddleOCR runner per image. The runner prints the
// engine's raw result (a JSON list of pages) on stdout.
package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/util"
)

const stderrTail = 512

var placeholder = regexp.MustCompile(`(?i)\{\{\s*(file|lang)\s*\}\}`)

type Engine struct {
	argv    []string
	lang    string
	workdir string
}

// New parses a command template such as
// "python3 scripts/paddle_runner.py --lang {{lang}} {{file}}". Placeholders
// are substituted per argument, no shell is involved. A template without
// {{file}} gets the image path appended.
func New(command, lang, workdir string) (*Engine, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("paddle: empty command")
	}
	hasFile := false
	for _, a := range argv {
		for _, m := range placeholder.FindAllStringSubmatch(a, -1) {
			if strings.EqualFold(m[1], "file") {
				hasFile = true
			}
		}
	}
	if !hasFile {
		argv = append(argv, "{{file}}")
	}
	return &Engine{argv: argv, lang: lang, workdir: workdir}, nil
}

func (e *Engine) Name() string { return "paddle" }

func (e *Engine) args(imagePath string) []string {
	out := make([]string, len(e.argv))
	for i, a := range e.argv {
		out[i] = placeholder.ReplaceAllStringFunc(a, func(m string) string {
			if strings.Contains(strings.ToLower(m), "file") {
				return imagePath
			}
			return e.lang
		})
	}
	return out
}

func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	argv := e.args(imagePath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.workdir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("paddle runner: %w: %s", err, tail(stderr.String(), stderrTail))
	}
	return Decode(stdout.Bytes())
}

// Decode parses runner output. Empty output means the engine produced nothing.
func Decode(out []byte) (*types.RawResult, error) {
	s := util.StripCodeFences(string(out))
	if s == "" {
		return nil, nil
	}
	var raw types.RawResult
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("paddle runner output: %w", err)
	}
	return &raw, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}
