package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

var ErrEmptyResponse = errors.New("empty response")

// NormalizeRole maps provider and legacy role names onto user/assistant/tool.
// Unknown roles return "".
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user":
		return RoleUser
	case "assistant", "agent", "model":
		return RoleAssistant
	case "tool", "function":
		return RoleTool
	default:
		return ""
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	Attachments json.RawMessage `json:"attachments,omitempty"`
	ToolCalls   json.RawMessage `json:"tool_calls,omitempty"`
	ToolResults json.RawMessage `json:"tool_results,omitempty"`
}

type ToolKind string

const ToolFileSearch ToolKind = "file_search"

// Tool is a provider-side capability attached to a request.
type Tool struct {
	Kind ToolKind
	// StoreNames scopes a file search tool to the given corpora.
	StoreNames []string
}

func FileSearch(storeNames ...string) Tool {
	return Tool{Kind: ToolFileSearch, StoreNames: storeNames}
}

type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
}

type Request struct {
	Instructions string
	Messages     []Message
	Tools        []Tool
	Config       GenerationConfig
}

// Source is one grounding item backing part of an answer.
type Source struct {
	File       string   `json:"file"`
	Confidence *float64 `json:"confidence"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the provider-neutral shape of a model reply.
type Result struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
	Usage   *Usage   `json:"usage,omitempty"`
	Model   string   `json:"model,omitempty"`
}

type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
