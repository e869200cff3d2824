package schema

import "github.com/google/jsonschema-go/jsonschema"

// forbidden is the JSON Schema "false": nothing validates against it.
func forbidden() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func score() *jsonschema.Schema {
	lo, hi := 0.0, 1.0
	return &jsonschema.Schema{Type: "number", Minimum: &lo, Maximum: &hi}
}

func designAspectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"component": {Type: "string"},
			"score":     score(),
			"feedback":  {Type: "string"},
			"issues":    {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required:             []string{"component", "score", "feedback", "issues"},
		AdditionalProperties: forbidden(),
	}
}

func critiqueSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"design_aspects": {Type: "array", Items: designAspectSchema()},
			"diagram_score":  score(),
			"verbal_score":   score(),
			"overall_score":  score(),
			"follow_up":      {Types: []string{"string", "null"}},
		},
		Required:             []string{"design_aspects", "diagram_score", "verbal_score", "overall_score"},
		AdditionalProperties: forbidden(),
	}
}

// routerSchema only requires emotion to be a string; unknown labels degrade
// to neutral during merge.
func routerSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"emotion":          {Type: "string"},
			"should_interrupt": {Type: "boolean"},
			"response":         {Type: "string"},
		},
		Required:             []string{"emotion", "should_interrupt", "response"},
		AdditionalProperties: forbidden(),
	}
}
