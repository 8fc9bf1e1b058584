package toolcall

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatcore/model"
)

func TestAccumulator_ReassemblesFragments(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Fragment{Index: 0, ID: "1", Name: "f", Arguments: `{"a":`})
	acc.Add(Fragment{Index: 0, Arguments: `1}`})

	calls, err := acc.Finish()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "1", calls[0].ID)
	assert.Equal(t, "f", calls[0].Name)

	args, err := calls[0].ParsedArguments()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, args)
}

func TestAccumulator_NameAndIDArriveLate(t *testing.T) {
	acc := NewAccumulator()
	snap := acc.Add(Fragment{Index: 0, Arguments: `{"q":`})
	assert.Empty(t, snap.ID)
	assert.Empty(t, snap.Name)

	acc.Add(Fragment{Index: 0, ID: "call_9"})
	snap = acc.Add(Fragment{Index: 0, Name: "search", Arguments: `"go"}`})
	assert.Equal(t, "call_9", snap.ID)
	assert.Equal(t, "search", snap.Name)
	assert.Equal(t, `{"q":"go"}`, snap.Arguments)
}

func TestAccumulator_ArrivalOrderPerSlot(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Fragment{Index: 1, ID: "b", Name: "second", Arguments: `{"x":`})
	acc.Add(Fragment{Index: 0, ID: "a", Name: "first", Arguments: `{"y":`})
	acc.Add(Fragment{Index: 1, Arguments: `"1"`})
	acc.Add(Fragment{Index: 0, Arguments: `2}`})
	acc.Add(Fragment{Index: 1, Arguments: `}`})

	calls, err := acc.Finish()
	require.NoError(t, err)
	require.Len(t, calls, 2)

	// Output follows first-seen slot order, not index order.
	assert.Equal(t, "second", calls[0].Name)
	assert.Equal(t, `{"x":"1"}`, calls[0].Arguments)
	assert.Equal(t, "first", calls[1].Name)
	assert.Equal(t, `{"y":2}`, calls[1].Arguments)
}

func TestAccumulator_ReusedIndexWithNewIDStartsNewSlot(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Fragment{Index: 0, ID: "a", Name: "one", Arguments: `{}`})
	acc.Add(Fragment{Index: 0, ID: "b", Name: "two", Arguments: `{"k":1}`})

	calls, err := acc.Finish()
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "one", calls[0].Name)
	assert.Equal(t, "two", calls[1].Name)
	assert.Equal(t, 0, acc.Len(), "finish resets the accumulator")
}

func TestAccumulator_MissingIDIsGenerated(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Fragment{Index: 0, Name: "now"})

	calls, err := acc.Finish()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0].ID, "call_"))
	assert.Equal(t, "{}", calls[0].Arguments)
}

func TestAccumulator_UnrepairableArguments(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Fragment{Index: 0, ID: "x", Name: "broken", Arguments: `{"a":`})

	_, err := acc.Finish()
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrToolArguments))

	var decodeErr *model.ToolArgumentDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "broken", decodeErr.Tool)
}

func TestNormalizeArguments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "{}"},
		{"valid", `{ "a" : 1 }`, `{"a":1}`},
		{"string encoded", `"{\"a\":1}"`, `{"a":1}`},
		{"empty string encoded", `""`, `{}`},
		{"missing closer", `{"a":{"b":[1,2`, `{"a":{"b":[1,2]}}`},
		{"unterminated string", `{"path":"/tmp/x`, `{"path":"/tmp/x"}`},
		{"trailing comma", `{"a":1,}`, `{"a":1}`},
		{"trailing comma before end", `{"a":1,`, `{"a":1}`},
		{"trailing comma in array", `{"list":[1,2, ],"s":", ]"`, `{"list":[1,2],"s":", ]"}`},
		{"comma and closer inside string", `{"note":"a, }b",}`, `{"note":"a, }b"}`},
		{"unterminated string with closer", `{"q":"x, ]`, `{"q":"x, ]"}`},
		{"duplicated object", `{"a":1}{"a":1}`, `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", `Here you go: {"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeArguments(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeArguments_RejectsNonObject(t *testing.T) {
	_, err := NormalizeArguments(`[1,2,3]`)
	assert.Error(t, err)

	_, err = NormalizeArguments(`{"a":`)
	assert.Error(t, err)
}

func TestFromRaw(t *testing.T) {
	assert.Equal(t, `{"a":1}`, FromRaw(json.RawMessage(`{"a":1}`)))
	assert.Equal(t, `{"a":1}`, FromRaw(json.RawMessage(`"{\"a\":1}"`)))
	assert.Equal(t, "", FromRaw(json.RawMessage(`null`)))
	assert.Equal(t, "", FromRaw(nil))
}

func TestPlaceholderContent(t *testing.T) {
	tc := model.ToolCall{ID: "call_1", Name: "f"}

	assert.Equal(t, "call_1", PlaceholderContent("", tc))
	assert.Equal(t, "call_1", PlaceholderContent("  ", tc))
	assert.Equal(t, "done", PlaceholderContent("done", tc))
}
