// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"strings"
)

// ChatTurn is one prior exchange in a review conversation.
type ChatTurn struct {
	Role string // "user" or "model"
	Text string
}

// ChatRequest asks a question about an already-extracted case. Context
// carries the case's current metadata rendered as JSON.
type ChatRequest struct {
	History  []ChatTurn
	Context  string
	Question string
}

const chatInstruction = `You are assisting an operator reviewing extracted paper metadata. Answer questions about the record below concisely. When asked to correct a field, reply with the corrected value only.`

// Chat runs a single best-effort turn. No retry policy applies; review
// questions are cheap to re-ask.
func (g *GeminiBackend) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("chat: empty question")
	}

	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Text}}})
	}

	var prompt strings.Builder
	if req.Context != "" {
		prompt.WriteString("--- CURRENT RECORD ---\n")
		prompt.WriteString(req.Context)
		prompt.WriteString("\n----------------------\n\n")
	}
	prompt.WriteString(req.Question)
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt.String()}}})

	body := geminiRequest{
		Contents:          contents,
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: chatInstruction}}},
		GenerationConfig:  geminiGenConfig{Temperature: 0.3},
	}

	return g.generate(ctx, body)
}
