package agent

import "github.com/suPer8Hu/tcg-chat/internal/prompt"

type Persona struct {
	name     string
	template string
	vars     map[string]string
}

func NewPersona(name, template string, vars map[string]string) *Persona {
	return &Persona{name: name, template: template, vars: vars}
}

func (p *Persona) Name() string { return p.name }

func (p *Persona) Instructions() string { return prompt.Format(p.template, p.vars) }

const TCGAssistantName = "tcg-assistant"

const tcgAssistantTemplate = "You are a TCG (Trading Card Game) expert and SEO expert\n" +
	"\"hero\" refers to a section in a website that highlights its main purpose\n" +
	"conversation is always in {language}\n" +
	"answer:\n"

// TCGAssistant is the trading card game persona used on the agent chat path.
func TCGAssistant(language string) *Persona {
	if language == "" {
		language = "English"
	}
	return NewPersona(TCGAssistantName, tcgAssistantTemplate, map[string]string{
		"language": language,
	})
}
