package valuetree

import (
	"encoding/json"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	n, err := Parse([]byte(`{"b": 1, "a": [true, null, "x", 2.5], "c": {"z": "9"}}`))
	require.NoError(t, err)

	assert.Equal(t, KindObject, n.Kind())
	assert.Equal(t, 3, n.Len())

	children := n.Children()
	require.Len(t, children, 3)
	// object keys keep document order
	assert.Equal(t, "1", children[0].Text())
	assert.Equal(t, KindArray, children[1].Kind())
	assert.Equal(t, KindObject, children[2].Kind())

	arr, ok := n.Field("a")
	require.True(t, ok)
	assert.Equal(t, 4, arr.Len())
	assert.True(t, arr.Children()[1].IsNull())

	last, ok := arr.Last()
	require.True(t, ok)
	assert.Equal(t, KindNumber, last.Kind())
	_, ok = last.Int()
	assert.False(t, ok, "fractional numbers are not integers")

	z, ok := children[2].Field("z")
	require.True(t, ok)
	v, ok := z.Int()
	require.True(t, ok)
	assert.True(t, v.Equal(sdkmath.NewInt(9)))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"a": `))
	require.Error(t, err)

	_, err = Parse([]byte(`{} {}`))
	require.Error(t, err)
}

func TestNode_Int(t *testing.T) {
	cases := []struct {
		name string
		node Node
		want int64
		ok   bool
	}{
		{"number", Number("42"), 42, true},
		{"numeric string", String("1000000"), 1000000, true},
		{"padded string", String(" 7 "), 7, true},
		{"empty string", String(""), 0, false},
		{"word", String("abc"), 0, false},
		{"exponent", Number("1e6"), 0, false},
		{"object", Object("a", Number("1")), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := tc.node.Int()
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, v.Equal(sdkmath.NewInt(tc.want)), "got %s", v)
			}
		})
	}

	big, ok := String("123456789012345678901234567890").Int()
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", big.String())
}

func TestFindAmountPairs(t *testing.T) {
	doc := []byte(`[
		{"storage": {"withdrawal_queue": [
			{"xtz_amount": "100", "token_amount": "90"},
			{"xtz_amount": "200", "token_amount": "180"}
		]}},
		{"diffs": [{"content": {"value": {"xtz_amount": 300, "token_amount": 270, "nested": {"xtz_amount": "1", "token_amount": "1"}}}}]},
		{"only": {"xtz_amount": "5"}},
		{"bad": {"xtz_amount": "x", "token_amount": "1"}}
	]`)
	root, err := Parse(doc)
	require.NoError(t, err)

	pairs := FindAmountPairs(root, "xtz_amount", "token_amount")
	require.Len(t, pairs, 4)

	got := make([]string, 0, len(pairs))
	for _, p := range pairs {
		got = append(got, p.Base.String()+"/"+p.Derivative.String())
	}
	// parents come before their children, siblings in document order
	assert.Equal(t, []string{"100/90", "200/180", "300/270", "1/1"}, got)
}

func TestSelectPair(t *testing.T) {
	pairs := []AmountPair{
		{Base: sdkmath.NewInt(100), Derivative: sdkmath.NewInt(90)},
		{Base: sdkmath.NewInt(150), Derivative: sdkmath.NewInt(90)},
		{Base: sdkmath.NewInt(300), Derivative: sdkmath.NewInt(270)},
	}

	t.Run("exact match wins", func(t *testing.T) {
		p, ok := SelectPair(pairs, sdkmath.NewInt(90))
		require.True(t, ok)
		assert.True(t, p.Base.Equal(sdkmath.NewInt(100)))
	})

	t.Run("falls back to last pair", func(t *testing.T) {
		p, ok := SelectPair(pairs, sdkmath.NewInt(1))
		require.True(t, ok)
		assert.True(t, p.Base.Equal(sdkmath.NewInt(300)))
	})

	t.Run("no pairs", func(t *testing.T) {
		_, ok := SelectPair(nil, sdkmath.NewInt(1))
		assert.False(t, ok)
	})
}

func TestNode_UnmarshalJSON(t *testing.T) {
	var holder struct {
		Value Node `json:"value"`
	}
	err := json.Unmarshal([]byte(`{"value": {"amount": "12"}}`), &holder)
	require.NoError(t, err)

	amount, ok := holder.Value.Field("amount")
	require.True(t, ok)
	v, ok := amount.Int()
	require.True(t, ok)
	assert.Equal(t, int64(12), v.Int64())
}

func TestNode_MarshalJSON(t *testing.T) {
	const doc = `{"z":1,"a":[true,null,"x\"y"],"m":{"k":-2.50}}`
	n, err := Parse([]byte(doc))
	require.NoError(t, err)

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, doc, string(out))

	var zero Node
	out, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
