package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneDetachesMutableParts(t *testing.T) {
	d := int64(42)
	tx := Transaction{
		ID: "txn_1",
		Messages: []CorrelatedMessage{{
			ID:       "req_1",
			Duration: &d,
			Errors:   []ProtocolMessage{{Type: "error", Code: "a"}},
			HTTP:     &HTTPDetails{Method: "POST", Headers: map[string]string{"x": "1"}},
		}},
	}
	cp := tx.Clone()
	*cp.Messages[0].Duration = 7
	cp.Messages[0].Errors[0].Code = "b"
	cp.Messages[0].HTTP.Headers["x"] = "2"
	cp.Messages[0].HTTP.Method = "GET"

	orig := tx.Messages[0]
	require.NotNil(t, orig.Duration)
	assert.EqualValues(t, 42, *orig.Duration)
	assert.Equal(t, "a", orig.Errors[0].Code)
	assert.Equal(t, "1", orig.HTTP.Headers["x"])
	assert.Equal(t, "POST", orig.HTTP.Method)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, Status("done").Valid())
}
