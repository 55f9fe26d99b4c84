// Package llm adapts completion providers behind a single request/response shape.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned by providers that cannot serve completions.
var ErrUnavailable = errors.New("llm: completion provider unavailable")

// Role is a chat message role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role
	Content string
}

// Schema constrains the completion to a JSON document.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request is a single completion call.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
	Schema      *Schema
}

// Response carries the raw completion text.
type Response struct {
	Content string
	Model   string
}

// Completer produces one completion per request.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Offline never completes. Agents fall back to their baseline results.
type Offline struct{}

// Complete always returns ErrUnavailable.
func (Offline) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
}

// ExtractJSON trims code fences and leading prose around a JSON object.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}

// schemaInstruction renders a schema as a prompt suffix for providers
// without native structured output.
func schemaInstruction(s *Schema) (string, error) {
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return "", fmt.Errorf("marshal schema %s: %w", s.Name, err)
	}
	return fmt.Sprintf("\n\nRespond with a single JSON object and nothing else. It must validate against this JSON schema (%s):\n%s", s.Name, raw), nil
}
