// Package prompt renders instruction templates for the chat agents.
package prompt

import (
	"sort"
	"strings"
)

// Format replaces every "{key}" in template with data[key]. The substitution is
// a single literal pass: replacement values are never re-scanned and
// placeholders without a key are left as they are.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Base fills the ":role" markers first and then the ":question" markers of
// the direct chat prompt. A ":question" inside role is therefore filled too,
// while markers inside question are left alone.
func Base(template, role, question string) string {
	out := strings.ReplaceAll(template, ":role", role)
	return strings.ReplaceAll(out, ":question", question)
}
