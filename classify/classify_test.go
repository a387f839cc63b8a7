package classify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/validation"
)

const fa2 = `{
  "name": "FA2 fixture",
  "interfaces": ["TZIP-012-2020-11-17"],
  "views": [
    {"name": "all_tokens", "implementations": [{"michelsonStorageView": {
      "returnType": {"prim": "list", "args": [{"prim": "nat"}]}, "code": []}}]},
    {"name": "total_supply", "implementations": [{"michelsonStorageView": {
      "parameter": {"prim": "nat"}, "returnType": {"prim": "nat"}, "code": []}}]},
    {"name": "is_operator", "implementations": [{"michelsonStorageView": {
      "parameter": {"prim": "pair", "args": [{"prim": "address"}, {"prim": "pair", "args": [{"prim": "address"}, {"prim": "nat"}]}]},
      "returnType": {"prim": "bool"}, "code": []}}]},
    {"name": "token_metadata", "implementations": [{"michelsonStorageView": {
      "parameter": {"prim": "nat"},
      "returnType": {"prim": "pair", "args": [{"prim": "nat"}, {"prim": "map", "args": [{"prim": "string"}, {"prim": "bytes"}]}]},
      "code": []}}]}
  ]
}`

func parse(t *testing.T, raw string) *metadata.Document {
	t.Helper()
	doc, err := metadata.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestClassifyBaseOnly(t *testing.T) {
	r := Classify(parse(t, `{"name": "plain", "interfaces": ["TZIP-012"], "views": [
		{"name": "get_balance", "implementations": []}
	]}`))
	assert.Equal(t, BaseOnly, r.Kind)
	assert.False(t, r.GloballyValid())
	assert.Empty(t, r.Warnings())
	assert.Nil(t, r.Views())
}

func TestClassifyTokenStandard(t *testing.T) {
	r := Classify(parse(t, fa2))
	require.Equal(t, TokenStandard, r.Kind)

	assert.Equal(t, validation.ClaimValid, r.Interface.Status)
	assert.Equal(t, "2020-11-17", r.Interface.Version)
	assert.Equal(t, validation.Missing, r.GetBalance.Kind)
	assert.True(t, r.TotalSupply.IsValid())
	assert.True(t, r.AllTokens.IsValid())
	assert.True(t, r.IsOperator.IsValid())
	assert.True(t, r.TokenMetadata.IsValid())
	assert.Nil(t, r.Permissions)

	assert.True(t, r.GloballyValid(), "missing get_balance must not affect validity")
	assert.Empty(t, r.Warnings())
}

func TestClassifyInterfaceMismatchIsOnlyAWarning(t *testing.T) {
	doc := parse(t, fa2)
	doc.Interfaces = []string{"TZIP-12"}

	r := Classify(doc)
	assert.Equal(t, TokenStandard, r.Kind)
	assert.False(t, r.GloballyValid())
	require.Len(t, r.Warnings(), 1)
	assert.Contains(t, r.Warnings()[0], "TZIP-12")
}

func TestClassifyMalformedPermissions(t *testing.T) {
	doc := parse(t, fa2)
	doc.Extra["permissions"] = json.RawMessage(`{"operator": "everyone"}`)

	r := Classify(doc)
	require.NotNil(t, r.Permissions)
	assert.False(t, r.Permissions.Ok())
	assert.False(t, r.GloballyValid())
	assert.NotEmpty(t, r.Warnings())
}

func TestClassifyWrongTypeWarning(t *testing.T) {
	r := Classify(parse(t, `{"interfaces": ["TZIP-012"], "views": [
		{"name": "all_tokens", "implementations": [{"michelsonStorageView": {
			"returnType": {"prim": "set", "args": [{"prim": "nat"}]}, "code": []}}]}
	]}`))
	assert.Equal(t, TokenStandard, r.Kind)
	assert.Equal(t, validation.Invalid, r.AllTokens.Kind)
	assert.False(t, r.GloballyValid())

	warnings := r.Warnings()
	assert.Contains(t, warnings, "view all_tokens has the wrong type: parameter ok, return wrong (found set nat)")
	assert.Contains(t, warnings, "view total_supply is missing")
}

func TestClassifyIsPure(t *testing.T) {
	fixtures := []string{
		fa2,
		`{}`,
		`{"views": [{"name": "all_tokens", "implementations": []}]}`,
		`{"permissions": {"sender": "x"}, "views": [{"name": "all_tokens", "implementations": []}]}`,
	}
	for _, raw := range fixtures {
		doc := parse(t, raw)
		first, err := json.Marshal(Classify(doc))
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := json.Marshal(Classify(doc))
			require.NoError(t, err)
			assert.JSONEq(t, string(first), string(again))
		}
		assert.Equal(t, Classify(doc), Classify(doc))
	}
}

func TestClassifyJSON(t *testing.T) {
	out, err := json.Marshal(Classify(parse(t, fa2)))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "token-standard", decoded["kind"])
	assert.Equal(t, true, decoded["globally_valid"])
	assert.Len(t, decoded["canonical_views"], 5)
}
