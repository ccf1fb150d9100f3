package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPatchTracksPresence(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		title    bool
		desc     bool
		complete bool
		empty    bool
	}{
		{name: "empty object", body: `{}`, empty: true},
		{name: "title only", body: `{"title":"x"}`, title: true},
		{name: "explicit null description", body: `{"description":null}`, desc: true},
		{name: "completed false", body: `{"completed":false}`, complete: true},
		{name: "all fields", body: `{"title":"a","description":"b","completed":true}`, title: true, desc: true, complete: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var patch TaskPatch
			require.NoError(t, json.Unmarshal([]byte(tc.body), &patch))
			assert.Equal(t, tc.title, patch.Title.Set)
			assert.Equal(t, tc.desc, patch.Description.Set)
			assert.Equal(t, tc.complete, patch.Completed.Set)
			assert.Equal(t, tc.empty, patch.Empty())
		})
	}
}

func TestTaskPatchNullDescriptionClears(t *testing.T) {
	var patch TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":null}`), &patch))
	assert.True(t, patch.Description.Set)
	assert.Nil(t, patch.Description.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"description":"2%"}`), &patch))
	require.NotNil(t, patch.Description.Value)
	assert.Equal(t, "2%", *patch.Description.Value)
}
