package boardapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDescriptorsSingle(t *testing.T) {
	body := []byte(`{
		"group_name": "Sprint 1",
		"group_fields": [{"field_name": "Task Name", "field_type": "text"}]
	}`)

	got, err := decodeDescriptors(body)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sprint 1", got[0].GroupName)
}

func TestDecodeDescriptorsArray(t *testing.T) {
	body := []byte(`  [
		{"group_name": "Sprint 1", "group_fields": []},
		{"group_name": "Sprint 2", "group_fields": []}
	]`)

	got, err := decodeDescriptors(body)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sprint 2", got[1].GroupName)
}

func TestDecodeDescriptorsRejects(t *testing.T) {
	_, err := decodeDescriptors(nil)
	assert.Error(t, err, "empty body")

	_, err = decodeDescriptors([]byte(`[]`))
	assert.Error(t, err, "empty list")

	_, err = decodeDescriptors([]byte(`{"group_name":`))
	assert.Error(t, err, "truncated json")
}
