package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectArgs struct {
	Name  string   `json:"name" description:"Patient name"`
	Phone *string  `json:"phone"`
	Kind  string   `json:"kind,omitempty" enum:"feat,fix"`
	Tags  []string `json:"tags,omitempty" jsonschema:"Free form tags"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(collectArgs{})

	props := schema["properties"].(map[string]any)
	assert.Equal(t, "string", props["name"].(map[string]any)["type"])
	assert.Equal(t, "Patient name", props["name"].(map[string]any)["description"])
	assert.Equal(t, "Free form tags", props["tags"].(map[string]any)["description"])
	assert.Equal(t, map[string]any{"type": "string"}, props["tags"].(map[string]any)["items"])
	assert.Equal(t, []string{"name"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(collectArgs{})

	require.NoError(t, ValidateParameters(map[string]any{"name": "Ana"}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	err = ValidateParameters(map[string]any{"name": 3}, schema)
	assert.Error(t, err)

	err = ValidateParameters(map[string]any{"name": "Ana", "kind": "docs"}, schema)
	assert.ErrorContains(t, err, "must be one of")
}

func TestValidateParameters_DecodedSchema(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"limit": map[string]any{"type": "integer"}},
		"required":   []any{"limit"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"limit": float64(10)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"limit": 1.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
}

func TestDecodeArgs(t *testing.T) {
	var args collectArgs
	require.NoError(t, DecodeArgs(map[string]any{"name": "Ana", "tags": []any{"a"}}, &args))
	assert.Equal(t, "Ana", args.Name)
	assert.Equal(t, []string{"a"}, args.Tags)
	assert.Nil(t, args.Phone)
}

func TestToMap(t *testing.T) {
	m, err := ToMap([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, float64(1), m["a"])

	m, err = ToMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestRenderTemplate(t *testing.T) {
	state := map[string]any{"user_name": "Ana", "user_id": "u-1", "city": "Rome"}

	out, err := RenderTemplate("Current user info: {user_name}, {user_cpf}", state)
	require.NoError(t, err)
	assert.Equal(t, "Current user info: Ana, {user_cpf}", out)

	out, err = RenderTemplate("Hello {{.user_name}} from {{upper .city}}{{.missing}}", state)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ana from ROME", out)

	out, err = RenderTemplate(`<context>You are interacting with the user: {user_id}</context>`, state)
	require.NoError(t, err)
	assert.Equal(t, "<context>You are interacting with the user: u-1</context>", out)
}
