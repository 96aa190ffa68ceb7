package util

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RenderTemplate renders instruction text against session state. Two forms
// are supported: Go templates ({{.key}}, with helper funcs) and single brace
// placeholders ({key}). Unknown single brace placeholders are left intact so
// literal braces in prompts survive.
func RenderTemplate(text string, state map[string]any) (string, error) {
	text = RenderPlaceholders(text, state)

	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(sep string, items []any) string {
			strItems := make([]string, len(items))
			for i, item := range items {
				strItems[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strItems, sep)
		},
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}

	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// RenderPlaceholders substitutes {key} occurrences whose key exists in state.
func RenderPlaceholders(text string, state map[string]any) string {
	if !strings.Contains(text, "{") {
		return text
	}

	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		key := m[1 : len(m)-1]

		v, ok := state[key]
		if !ok {
			return m
		}

		if v == nil {
			return ""
		}

		return fmt.Sprint(v)
	})
}
