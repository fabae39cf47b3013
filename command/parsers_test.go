package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlice(t *testing.T) {
	tests := []struct {
		name string
		body string
		args []any
		want string
	}{
		{"negative stop", "103.5 1", []any{-2}, "103.5"},
		{"positive stop", "abcdef", []any{3}, "abc"},
		{"start and stop", "abcdef", []any{1, 4}, "bcd"},
		{"negative start", "abcdef", []any{-3, 6}, "def"},
		{"stop past end clamps", "ab", []any{10}, "ab"},
		{"crossed indices", "abcdef", []any{4, 2}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slice(tt.body, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSliceBadArgs(t *testing.T) {
	_, err := Slice("abc")
	assert.Error(t, err)

	_, err = Slice("abc", "one")
	assert.Error(t, err)
}

func TestStrip(t *testing.T) {
	got, err := Strip("*103.5\r\n", "*", "\r\n")
	require.NoError(t, err)
	assert.Equal(t, "103.5", got)

	// Affixes absent leave the body untouched.
	got, err = Strip("103.5", "*", "\r\n")
	require.NoError(t, err)
	assert.Equal(t, "103.5", got)
}

func TestFind(t *testing.T) {
	got, err := Find("pump v42 ready", `v(\d+)`)
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = Find("status=RUN", `RUN|STOP`)
	require.NoError(t, err)
	assert.Equal(t, "RUN", got)

	_, err = Find("status=IDLE", `RUN|STOP`)
	assert.Error(t, err)
}

func TestStripAffixes(t *testing.T) {
	// Multi-character terminators strip as one unit, not a character set.
	assert.Equal(t, "ab\r", StripAffixes("ab\r\r\n", "", "\r\n"))
	assert.Equal(t, "body", StripAffixes("CMD body\r\n", "CMD ", "\r\n"))
}
