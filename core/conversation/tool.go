package conversation

import (
	"github.com/invopop/jsonschema"
)

// Tool is a function descriptor offered to the speech model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

type ParameterSchema struct {
	Type       string               `json:"type"`
	Properties map[string]Parameter `json:"properties"`
	Required   []string             `json:"required,omitempty"`
}

type Parameter struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// NewTool builds a tool descriptor from a parameters struct. Field
// descriptions come from `jsonschema_description` tags and may contain
// placeholders; params may be nil for tools without arguments.
func NewTool(name, description string, params any) Tool {
	tool := Tool{
		Name:        name,
		Description: description,
		Parameters:  ParameterSchema{Type: "object", Properties: map[string]Parameter{}},
	}
	if params == nil {
		return tool
	}

	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(params)
	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			parameter := Parameter{Type: pair.Value.Type, Description: pair.Value.Description}
			for _, value := range pair.Value.Enum {
				if s, ok := value.(string); ok {
					parameter.Enum = append(parameter.Enum, s)
				}
			}
			tool.Parameters.Properties[pair.Key] = parameter
		}
	}
	tool.Parameters.Required = append([]string(nil), schema.Required...)

	return tool
}
