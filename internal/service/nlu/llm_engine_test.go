package nlu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTurnResultClean(t *testing.T) {
	out, err := decodeTurnResult(`{"intent":"getForecast","entities":{"location":[{"value":"Madrid"}]},"reply":"Checking Madrid."}`)
	require.NoError(t, err)

	assert.Equal(t, "getForecast", out.Intent)
	assert.Equal(t, "Checking Madrid.", out.Reply)
	loc, ok := out.Entities.First("location")
	require.True(t, ok)
	assert.Equal(t, "Madrid", loc)
}

func TestDecodeTurnResultWrappedInProse(t *testing.T) {
	raw := "Sure! Here is the classification:\n```json\n{\"intent\":\"none\",\"entities\":{},\"reply\":\"Hi there.\"}\n```"
	out, err := decodeTurnResult(raw)
	require.NoError(t, err)

	assert.Equal(t, "none", out.Intent)
	assert.Equal(t, "Hi there.", out.Reply)
}

func TestDecodeTurnResultNoJSON(t *testing.T) {
	_, err := decodeTurnResult("I could not classify that.")
	assert.Error(t, err)
}

func TestDecodeTurnResultNilEntities(t *testing.T) {
	out, err := decodeTurnResult(`{"intent":"none","reply":"ok"}`)
	require.NoError(t, err)
	require.NotNil(t, out.Entities)

	_, ok := out.Entities.First("location")
	assert.False(t, ok)
}

func TestEntityValueForms(t *testing.T) {
	var entities Entities
	raw := `{"location":[{"value":"Madrid"},"Paris",7,{"value":7},{"value":1.5}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &entities))

	values := entities["location"]
	require.Len(t, values, 5)
	assert.Equal(t, "Madrid", values[0].Value)
	assert.Equal(t, "Paris", values[1].Value)
	assert.Equal(t, "7", values[2].Value)
	assert.Equal(t, "7", values[3].Value)
	assert.Equal(t, "1.5", values[4].Value)
}
