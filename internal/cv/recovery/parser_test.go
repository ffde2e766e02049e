package recovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecoversObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare object", `{"basic_info":{"first_name":"Ana"}}`},
		{"json fence", "```json\n{\"basic_info\":{\"first_name\":\"Ana\"}}\n```"},
		{"plain fence", "```\n{\"basic_info\":{\"first_name\":\"Ana\"}}\n```"},
		{"leading prose", "Here is the extracted data:\n{\"basic_info\":{\"first_name\":\"Ana\"}}"},
		{"trailing prose", "{\"basic_info\":{\"first_name\":\"Ana\"}}\nLet me know if you need anything else."},
		{"prose and fence", "Sure!\n```json\n{\"basic_info\":{\"first_name\":\"Ana\"}}\n```\nDone."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "Ana", data.Get("basic_info.first_name").String())
			assert.True(t, strings.HasPrefix(data.Raw(), "{"))
			assert.True(t, data.Root().IsObject())
		})
	}
}

func TestParseNoBraces(t *testing.T) {
	for _, input := range []string{"", "I could not read this document.", "} backwards {"} {
		_, err := Parse(input)
		require.Error(t, err)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, ReasonNoJSON, perr.Reason)
		assert.Equal(t, "no valid JSON found in response", err.Error())
	}
}

func TestParseInvalidJSON(t *testing.T) {
	input := "Result: {\"basic_info\": {\"first_name\": \"Ana\",}} " + strings.Repeat("x", 500)

	_, err := Parse(input)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonInvalidJSON, perr.Reason)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to parse extracted data as JSON: Result:"))
	assert.LessOrEqual(t, len(perr.Preview), PreviewLength+len("..."))
	assert.True(t, strings.HasSuffix(perr.Preview, "..."))
}

func TestParseKeepsOuterSpan(t *testing.T) {
	data, err := Parse(`note {"a":{"b":1}} end`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.Get("a.b").Int())
}
