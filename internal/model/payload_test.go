package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadSortsKeys(t *testing.T) {
	p, err := ParsePayload([]byte(`{"b": 1, "a": [3, 2, 1], "c": {"z": true, "y": null}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":[3,2,1],"b":1,"c":{"y":null,"z":true}}`, string(p))
}

func TestParsePayloadNormalizesStrings(t *testing.T) {
	// "e" followed by a combining acute accent becomes the single code point.
	p, err := ParsePayload([]byte("{\"label\": \"Cafe\u0301\"}"))
	require.NoError(t, err)
	assert.Equal(t, "{\"label\":\"Caf\u00e9\"}", string(p))
}

func TestParsePayloadKeepsNumbersAndHTML(t *testing.T) {
	p, err := ParsePayload([]byte(`{"max": 5, "step": 0.5, "hint": "<b>&</b>"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"hint":"<b>&</b>","max":5,"step":0.5}`, string(p))
}

func TestParsePayloadRejectsInvalid(t *testing.T) {
	_, err := ParsePayload([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = ParsePayload([]byte(`{} {}`))
	assert.Error(t, err)
}

func TestPayloadRoundTrip(t *testing.T) {
	p := MustPayload([]string{"yes", "no"})
	assert.Equal(t, `["yes","no"]`, string(p))

	var choices []string
	require.NoError(t, p.Decode(&choices))
	assert.Equal(t, []string{"yes", "no"}, choices)

	v, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, `["yes","no"]`, v)

	var scanned Payload
	require.NoError(t, scanned.Scan([]byte(`["yes","no"]`)))
	assert.Equal(t, p, scanned)
}

func TestPayloadNil(t *testing.T) {
	var p Payload
	v, err := p.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, p.Scan(nil))
	assert.Nil(t, p)
	assert.Error(t, p.Decode(&struct{}{}))
}
