package decode

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/micheline"
)

func metadataNode(entries ...micheline.Node) micheline.Node {
	return micheline.Prim("Pair", micheline.Int(0), micheline.Seq(entries...))
}

func elt(k string, v []byte) micheline.Node {
	return micheline.Prim("Elt", micheline.String(k), micheline.Bytes(v))
}

func TestMetadataMapEmpty(t *testing.T) {
	kvs, err := MetadataMap(metadataNode())
	require.NoError(t, err)
	assert.Empty(t, kvs)
	assert.NotNil(t, kvs)
}

func TestMetadataMapSymbol(t *testing.T) {
	kvs, err := MetadataMap(metadataNode(elt("symbol", []byte{0x41, 0x42, 0x43})))
	require.NoError(t, err)
	assert.Equal(t, []KV{{Key: "symbol", Value: "ABC"}}, kvs)
}

func TestMetadataMapKeepsOrderAndHexFallback(t *testing.T) {
	kvs, err := MetadataMap(metadataNode(
		elt("name", []byte("Wrapped Tez")),
		elt("decimals", []byte("6")),
		elt("thumbnail", []byte{0xff, 0xfe}),
	))
	require.NoError(t, err)
	assert.Equal(t, []KV{
		{Key: "name", Value: "Wrapped Tez"},
		{Key: "decimals", Value: "6"},
		{Key: "thumbnail", Value: "0xfffe"},
	}, kvs)
}

func TestMetadataMapRejectsOtherShapes(t *testing.T) {
	tests := []struct {
		name string
		node micheline.Node
	}{
		{"bare int", micheline.Int(3)},
		{"pair with non-seq", micheline.Prim("Pair", micheline.Int(0), micheline.Int(1))},
		{"string values", metadataNode(micheline.Prim("Elt", micheline.String("a"), micheline.String("b")))},
		{"int keys", metadataNode(micheline.Prim("Elt", micheline.Int(1), micheline.Bytes(nil)))},
		{"triple", micheline.Prim("Pair", micheline.Int(0), micheline.Seq(), micheline.Seq())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MetadataMap(tt.node)
			require.Error(t, err)
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, micheline.Render(tt.node), f.Rendered)
		})
	}
}

func TestIntList(t *testing.T) {
	ids, err := IntList(micheline.Seq(micheline.Int(0), micheline.Int(1), micheline.Int(2)))
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i, id := range ids {
		assert.Equal(t, int64(i), id.Int64())
	}

	empty, err := IntList(micheline.Seq())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIntListRejectsNonSequence(t *testing.T) {
	_, err := IntList(micheline.Int(0))
	assert.Error(t, err)

	_, err = IntList(micheline.Seq(micheline.Int(0), micheline.String("1")))
	assert.Error(t, err)
}

func TestNat(t *testing.T) {
	n, err := Nat(micheline.Int(1500000))
	require.NoError(t, err)
	assert.Equal(t, int64(1500000), n.Int64())

	_, err = Nat(micheline.Prim("Unit"))
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	six := 6
	zero := 0
	neg := -1
	huge := 400
	tests := []struct {
		name     string
		raw      int64
		decimals *int
		want     string
	}{
		{"six decimals", 1500000, &six, "1.5"},
		{"zero decimals", 1500000, &zero, "1500000"},
		{"no decimals", 1500000, nil, "1500000"},
		{"negative decimals", 42, &neg, "42"},
		{"below one", 5, &six, "0.000005"},
		{"past float range", 105, &huge, "1.05e-398"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := big.NewInt(tt.raw)
			amount := Scale(raw, tt.decimals)
			assert.Equal(t, tt.want, amount.Display)
			assert.Equal(t, tt.raw, amount.Raw.Int64())
		})
	}
}

func TestParseDecimals(t *testing.T) {
	require.NotNil(t, ParseDecimals("6"))
	assert.Equal(t, 6, *ParseDecimals("6"))
	assert.Nil(t, ParseDecimals("six"))
	assert.Nil(t, ParseDecimals("-2"))
}
