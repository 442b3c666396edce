// Package agent composes a persona, an optional conversation memory and an
// optional tool set into something that can be prompted against a provider.
package agent

import (
	"context"
	"fmt"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
)

// Promptable supplies the instructions sent with every prompt.
type Promptable interface {
	Name() string
	Instructions() string
}

// Conversational loads prior turns and persists the new exchange.
type Conversational interface {
	Messages(ctx context.Context) ([]ai.Message, error)
	Remember(ctx context.Context, prompt string, reply *ai.Result) error
}

// HasTools lists provider-side tools the agent may use.
type HasTools interface {
	Tools() []ai.Tool
}

type Agent struct {
	Persona Promptable
	Memory  Conversational
	Toolset HasTools
}

func New(persona Promptable, memory Conversational, tools HasTools) *Agent {
	return &Agent{Persona: persona, Memory: memory, Toolset: tools}
}

// Prompt sends the instructions, the remembered history and message to the
// provider. The exchange is remembered only when the provider call succeeds.
func (a *Agent) Prompt(ctx context.Context, provider ai.Provider, message string, cfg ai.GenerationConfig) (*ai.Result, error) {
	var history []ai.Message
	if a.Memory != nil {
		msgs, err := a.Memory.Messages(ctx)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		history = msgs
	}

	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: message})

	var tools []ai.Tool
	if a.Toolset != nil {
		tools = a.Toolset.Tools()
	}

	res, err := provider.Generate(ctx, ai.Request{
		Instructions: a.Persona.Instructions(),
		Messages:     msgs,
		Tools:        tools,
		Config:       cfg,
	})
	if err != nil {
		return nil, err
	}

	if a.Memory != nil {
		if err := a.Memory.Remember(ctx, message, res); err != nil {
			return nil, fmt.Errorf("remember: %w", err)
		}
	}
	return res, nil
}

// Tools is a fixed tool list.
type Tools []ai.Tool

func (t Tools) Tools() []ai.Tool { return t }
