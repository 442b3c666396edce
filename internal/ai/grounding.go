package ai

import "strings"

// DefaultSourceLabel names a grounding chunk that carries neither a display
// name nor a uri.
const DefaultSourceLabel = "Workshop database"

// translateGeminiResponse is the only place that reads the gemini response
// shape; everything downstream sees Result.
func translateGeminiResponse(resp *geminiResponse) *Result {
	res := &Result{
		Sources: []Source{},
		Model:   resp.ModelVersion,
	}
	if resp.UsageMetadata != nil {
		res.Usage = &Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	if len(resp.Candidates) == 0 {
		return res
	}

	first := resp.Candidates[0]
	var b strings.Builder
	for _, part := range first.Content.Parts {
		b.WriteString(part.Text)
	}
	res.Text = b.String()

	if first.GroundingMetadata != nil {
		for _, chunk := range first.GroundingMetadata.GroundingChunks {
			res.Sources = append(res.Sources, Source{
				File:       sourceLabel(chunk),
				Confidence: chunk.Confidence,
			})
		}
	}
	return res
}

func sourceLabel(chunk geminiGroundingChunk) string {
	info := chunk.File
	if info == nil {
		info = chunk.RetrievedContext
	}
	if info == nil {
		info = chunk.Web
	}
	if info == nil {
		return DefaultSourceLabel
	}
	if info.DisplayName != "" {
		return info.DisplayName
	}
	if info.URI != "" {
		return info.URI
	}
	return DefaultSourceLabel
}
