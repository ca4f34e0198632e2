package conversation

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
)

// ResolvedState is a state rendered for one language against a concrete
// parameter set.
type ResolvedState struct {
	Name         string
	Language     Language
	Instructions string
	Tools        []Tool
}

// Render resolves the prompt and tool descriptors of state. The template is
// never modified. A prompt missing for lang falls back to DefaultLanguage.
func Render(state *State, params map[string]string, lang Language) (ResolvedState, error) {
	prompt, ok := state.Prompts[lang]
	if !ok {
		if prompt, ok = state.Prompts[DefaultLanguage]; !ok {
			return ResolvedState{}, &TemplateResolutionError{State: state.Name, Language: lang, Err: ErrNoPrompt}
		}
	}

	resolved := ResolvedState{Name: state.Name, Language: lang}

	var err error
	if resolved.Instructions, err = resolvePlaceholders(prompt, params); err != nil {
		return ResolvedState{}, wrapResolution(state, lang, err)
	}

	if len(state.Tools) == 0 {
		return resolved, nil
	}
	if err := copier.CopyWithOption(&resolved.Tools, state.Tools, copier.Option{DeepCopy: true}); err != nil {
		return ResolvedState{}, fmt.Errorf("failed to copy tools of state %q: %w", state.Name, err)
	}
	for i := range resolved.Tools {
		if err := resolveTool(&resolved.Tools[i], params); err != nil {
			return ResolvedState{}, wrapResolution(state, lang, err)
		}
	}

	return resolved, nil
}

func resolveTool(tool *Tool, params map[string]string) error {
	var err error
	if tool.Name, err = resolvePlaceholders(tool.Name, params); err != nil {
		return err
	}
	if tool.Description, err = resolvePlaceholders(tool.Description, params); err != nil {
		return err
	}
	for name, parameter := range tool.Parameters.Properties {
		if parameter.Description, err = resolvePlaceholders(parameter.Description, params); err != nil {
			return err
		}
		tool.Parameters.Properties[name] = parameter
	}
	return nil
}

type missingParameterError string

func (e missingParameterError) Error() string { return fmt.Sprintf("missing parameter %q", string(e)) }

func wrapResolution(state *State, lang Language, err error) error {
	if key, ok := err.(missingParameterError); ok {
		return &TemplateResolutionError{State: state.Name, Language: lang, Key: string(key)}
	}
	return &TemplateResolutionError{State: state.Name, Language: lang, Err: err}
}

// resolvePlaceholders substitutes {key} with params[key]. Doubled braces
// produce literal braces.
func resolvePlaceholders(template string, params map[string]string) (string, error) {
	if !strings.ContainsAny(template, "{}") {
		return template, nil
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			key := template[i+1 : i+1+end]
			value, ok := params[key]
			if !ok {
				return "", missingParameterError(key)
			}
			b.WriteString(value)
			i += end + 1
		case c == '}':
			return "", fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
