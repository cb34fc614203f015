package securityrules

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRulesFile_ContentRoundTrip(t *testing.T) {
	source := "service aegis.docstore {\n  // no access\n}\n"

	fromString := NewRulesFile("docstore.rules", source)
	assert.Equal(t, "docstore.rules", fromString.Name)
	assert.Equal(t, source, fromString.Content)

	fromBytes, err := NewRulesFileFromBytes("docstore.rules", []byte(source))
	require.NoError(t, err)
	assert.Equal(t, fromString, fromBytes)
}

func TestNewRulesFileFromBytes_InvalidUTF8(t *testing.T) {
	_, err := NewRulesFileFromBytes("broken.rules", []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestCreateTimeRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2024, 3, 1, 10, 11, 12, 0, time.UTC),
		time.Date(2024, 3, 1, 10, 11, 12, 500_000_000, time.UTC),
		time.Date(2031, 12, 31, 23, 59, 59, 0, time.FixedZone("CET", 3600)),
		time.Unix(0, 0),
	}

	for _, tc := range cases {
		formatted := FormatCreateTime(tc)
		parsed, err := ParseCreateTime(formatted)
		require.NoError(t, err, formatted)
		assert.Equal(t, formatted, FormatCreateTime(parsed), "round trip must be stable")
	}
}

func TestParseCreateTime_Malformed(t *testing.T) {
	_, err := ParseCreateTime("2024-03-01T10:11:12Z")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestValidRulesetName(t *testing.T) {
	valid := []string{"abc", "ABC-123", "0", "a-b-c-d"}
	for _, name := range valid {
		assert.True(t, ValidRulesetName(name), name)
	}

	invalid := []string{"", "a_b", "a.b", "a b", "projects/demo/rulesets/abc", "ruleset!"}
	for _, name := range invalid {
		assert.False(t, ValidRulesetName(name), name)
	}
}

func TestErrorPredicates(t *testing.T) {
	invalidArg := &Error{Code: CodeInvalidArgument, Message: "bad name"}
	notFound := &Error{Code: CodeNotFound, Message: "gone"}

	assert.True(t, IsInvalidArgument(invalidArg))
	assert.False(t, IsInvalidArgument(notFound))
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(invalidArg))

	assert.True(t, IsFailedPrecondition(&Error{Code: CodeFailedPrecondition}))
	assert.False(t, IsFailedPrecondition(notFound))
	assert.True(t, IsResourceExhausted(&Error{Code: CodeResourceExhausted}))
	assert.False(t, IsResourceExhausted(notFound))

	// Predicates see through wrapping.
	wrapped := fmt.Errorf("lookup ruleset: %w", notFound)
	assert.True(t, IsNotFound(wrapped))

	assert.False(t, IsNotFound(errors.New("plain error")))
	assert.False(t, IsNotFound(nil))
}

func TestErrorString(t *testing.T) {
	err := &Error{Code: CodeNotFound, Message: "ruleset not found"}
	assert.Equal(t, "security-rules/not-found: ruleset not found", err.Error())
}
