package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "single placeholder",
			template: "conversation is always in {language}",
			data:     map[string]string{"language": "Spanish"},
			want:     "conversation is always in Spanish",
		},
		{
			name:     "unknown placeholder kept",
			template: "hello {foo}",
			data:     map[string]string{"language": "Spanish"},
			want:     "hello {foo}",
		},
		{
			name:     "every occurrence replaced",
			template: "{a}-{a}-{b}",
			data:     map[string]string{"a": "1", "b": "2"},
			want:     "1-1-2",
		},
		{
			name:     "no recursive expansion",
			template: "{a} {b}",
			data:     map[string]string{"a": "{b}", "b": "x"},
			want:     "{b} x",
		},
		{
			name:     "no escaping",
			template: "{v}",
			data:     map[string]string{"v": "<b>&</b>"},
			want:     "<b>&</b>",
		},
		{
			name:     "nil data",
			template: "as is {x}",
			data:     nil,
			want:     "as is {x}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestBase(t *testing.T) {
	got := Base("You are :role.\nquestion: :question", "a TCG expert", "what is a hero?")
	assert.Equal(t, "You are a TCG expert.\nquestion: what is a hero?", got)

	// the question is user input; markers inside it must not be expanded again
	got = Base(":question / :role", "r", "say :role")
	assert.Equal(t, "say :role / r", got)

	// role is filled before question
	got = Base("You are :role", "the one who answers :question", "why?")
	assert.Equal(t, "You are the one who answers why?", got)
}
