// internal/mgmt/edit_test.go
package mgmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangedFields_OnlyDifferences(t *testing.T) {
	actual := map[string]any{
		"name":                         "test",
		"housekeepingCheckPeriod":      float64(30000),
		"housekeepingThreadCount":      float64(4),
		"queue.deadLetterQueueEnabled": false,
	}

	got, err := ChangedFields(actual, map[string]string{
		"name":                         "test",
		"housekeepingCheckPeriod":      "30000",
		"housekeepingThreadCount":      "8",
		"queue.deadLetterQueueEnabled": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"housekeepingThreadCount":      int64(8),
		"queue.deadLetterQueueEnabled": true,
	}, got)
}

func TestChangedFields_ContextVariableAccepted(t *testing.T) {
	got, err := ChangedFields(map[string]any{}, map[string]string{
		"storeTransactionIdleTimeoutWarn": "${idle.warn}",
	})
	require.NoError(t, err)
	assert.Equal(t, "${idle.warn}", got["storeTransactionIdleTimeoutWarn"])
}

func TestChangedFields_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"not editable": {"type": "JDBC"},
		"bad number":   {"housekeepingThreadCount": "four"},
		"bad bool":     {"queue.deadLetterQueueEnabled": "maybe"},
		"empty name":   {"name": ""},
		"bad context":  {"context": "{"},
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ChangedFields(nil, input)
			assert.Error(t, err)
		})
	}
}

func TestChangedFields_Context(t *testing.T) {
	actual := map[string]any{"context": map[string]any{"a": "1"}}

	got, err := ChangedFields(actual, map[string]string{"context": `{"a":"1"}`})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ChangedFields(actual, map[string]string{"context": `{"a":"2"}`})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "2"}, got["context"])
}
