package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysByUTF16(t *testing.T) {
	obj := map[string]any{
		"b":   1,
		"a":   2,
		"aa":  3,
		"é": 4, // é sorts after ASCII
	}

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"aa":3,"b":1,"é":4}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"item": "<gear> & bolt"})
	require.NoError(t, err)
	assert.Equal(t, `{"item":"<gear> & bolt"}`, string(data))
}

func TestMarshalCanonical_Floats(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{60, "60"},
		{13.3, "13.3"},
		{0, "0"},
		{-0.5, "-0.5"},
	}
	for _, tt := range tests {
		data, err := MarshalCanonical(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))
	}

	// Negative zero normalizes to plain zero.
	negZero, err := MarshalCanonical(math.Copysign(0, -1))
	require.NoError(t, err)
	assert.Equal(t, "0", string(negZero))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.Inf(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")
}

func TestMarshalCanonical_NFCNormalizesStrings(t *testing.T) {
	// "é" as combining sequence (e + U+0301) normalizes to precomposed.
	composed, err := MarshalCanonical("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_NestedArraysAndNull(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"modules": []any{nil, map[string]any{"id": "speed-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"modules":[null,{"id":"speed-1"}]}`, string(data))
}

func TestDocumentHash_StableAndOrderSensitive(t *testing.T) {
	target := 30.0
	doc := Document{
		Nodes: []Node{{ID: "n1", RecipeID: "gear", SpeedMultiplier: 1, TargetPerMin: &target}},
		Edges: []Edge{{ID: "e1", FromNode: "n1", ToNode: "n2", Item: "iron-gear-wheel"}},
	}

	h1, err := DocumentHash(doc)
	require.NoError(t, err)
	h2, err := DocumentHash(doc.Clone())
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "clone hashes identically")

	changed := doc.Clone()
	*changed.Nodes[0].TargetPerMin = 60
	h3, err := DocumentHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
