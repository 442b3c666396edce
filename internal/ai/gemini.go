package ai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

type GeminiProvider struct {
	Model  string
	APIKey string
	client *resty.Client
}

func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiProvider{
		Model:  model,
		APIKey: apiKey,
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json"),
	}
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiFileSearch struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type geminiTool struct {
	FileSearch *geminiFileSearch `json:"fileSearch,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiChunkSource struct {
	DisplayName string `json:"displayName,omitempty"`
	URI         string `json:"uri,omitempty"`
	Title       string `json:"title,omitempty"`
}

type geminiGroundingChunk struct {
	File             *geminiChunkSource `json:"file,omitempty"`
	RetrievedContext *geminiChunkSource `json:"retrievedContext,omitempty"`
	Web              *geminiChunkSource `json:"web,omitempty"`
	Confidence       *float64           `json:"confidence,omitempty"`
}

type geminiCandidate struct {
	Content           geminiContent `json:"content"`
	FinishReason      string        `json:"finishReason,omitempty"`
	GroundingMetadata *struct {
		GroundingChunks []geminiGroundingChunk `json:"groundingChunks"`
	} `json:"groundingMetadata,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

type geminiErrorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return nil, errors.New("gemini: model is required")
	}

	var decoded geminiResponse
	var apiErr geminiErrorResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", p.APIKey).
		SetBody(buildGeminiRequest(req)).
		SetResult(&decoded).
		SetError(&apiErr).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(model)))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini: %s", apiErr.Error.Message)
		}
		msg := strings.TrimSpace(resp.String())
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode())
		}
		return nil, fmt.Errorf("gemini: %s", msg)
	}

	if len(decoded.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	res := translateGeminiResponse(&decoded)
	if res.Model == "" {
		res.Model = model
	}
	return res, nil
}

func buildGeminiRequest(req Request) geminiRequest {
	out := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Messages)),
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.Instructions}}}
	}

	for _, m := range req.Messages {
		// gemini only knows "user" and "model"; tool output is fed back as user context
		role := "user"
		if NormalizeRole(m.Role) == RoleAssistant {
			role = "model"
		}
		out.Contents = append(out.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	for _, t := range req.Tools {
		if t.Kind == ToolFileSearch {
			out.Tools = append(out.Tools, geminiTool{
				FileSearch: &geminiFileSearch{FileSearchStoreNames: t.StoreNames},
			})
		}
	}

	if req.Config.Temperature != 0 || req.Config.MaxOutputTokens != 0 {
		temp := req.Config.Temperature
		out.GenerationConfig = &geminiGenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: req.Config.MaxOutputTokens,
		}
	}
	return out
}
