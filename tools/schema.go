package tools

// JSON Schema construction helpers for tool input definitions.

// ObjectSchema builds an object schema from named properties.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty builds a string property.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// IntegerProperty builds an integer property.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// ArrayProperty builds an array property whose items match itemType.
func ArrayProperty(description string, itemType map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       itemType,
	}
}

// WithThought returns a copy of schema extended with a "thought" property.
// Drafting tools set requireThought so the model must state its reasoning
// before any transaction is proposed.
func WithThought(schema map[string]interface{}, requireThought bool) map[string]interface{} {
	result := make(map[string]interface{}, len(schema))
	for k, v := range schema {
		result[k] = v
	}

	props, ok := result["properties"].(map[string]interface{})
	if !ok {
		props = make(map[string]interface{})
		result["properties"] = props
	}
	props["thought"] = StringProperty(
		"Why this operation is appropriate right now: what you checked, " +
			"what the user asked for, and what the draft will do.",
	)

	if requireThought {
		required, _ := result["required"].([]string)
		result["required"] = append(required, "thought")
	}
	return result
}

// BuildSchemaWithThought composes ObjectSchema and WithThought in one call.
func BuildSchemaWithThought(properties map[string]interface{}, requireThought bool, required ...string) map[string]interface{} {
	schema := ObjectSchema(properties, required...)
	return WithThought(schema, requireThought)
}
