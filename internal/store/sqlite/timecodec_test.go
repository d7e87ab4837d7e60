// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeLexicalOrderIsChronological(t *testing.T) {
	// A whole-second timestamp must sort before a later one in the same
	// second that carries a fraction; trimmed-zero encodings get this
	// wrong ("...00Z" > "...00.5Z").
	whole := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := whole.Add(500 * time.Millisecond)

	a, b := formatTime(whole), formatTime(later)
	assert.Less(t, a, b)
	assert.Len(t, a, len(b))
}

func TestTimeCodecRoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC)
	out := parseTime(formatTime(in))
	require.True(t, out.Equal(in))

	// Legacy rows written without a fraction still parse.
	legacy := parseTime("2026-03-01T12:30:45Z")
	require.False(t, legacy.IsZero())
	assert.Equal(t, 45, legacy.Second())
}
