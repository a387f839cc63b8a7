package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/micheline"
)

const fa2Document = `{
  "name": "Example FA2",
  "version": "1.0.0",
  "license": {"name": "MIT"},
  "authors": ["alice <alice@example.com>"],
  "interfaces": ["TZIP-012-2020-11-17", "TZIP-016"],
  "permissions": {"operator": "owner-transfer"},
  "errors": [
    {"error": {"int": "1"}, "expansion": {"string": "FA2_TOKEN_UNDEFINED"}, "languages": ["en"]},
    {"view": "translate_error"}
  ],
  "views": [
    {
      "name": "all_tokens",
      "pure": true,
      "implementations": [
        {"michelsonStorageView": {
          "returnType": {"prim": "list", "args": [{"prim": "nat"}]},
          "code": [{"prim": "DROP"}, {"prim": "NIL", "args": [{"prim": "nat"}]}]
        }}
      ]
    },
    {
      "name": "docs",
      "implementations": [
        {"restApiQuery": {"specificationUri": "https://example.com/openapi.json", "path": "/docs"}}
      ]
    }
  ]
}`

func TestParseDocument(t *testing.T) {
	doc, err := Parse([]byte(fa2Document))
	require.NoError(t, err)

	require.NotNil(t, doc.Name)
	assert.Equal(t, "Example FA2", *doc.Name)
	assert.Nil(t, doc.Description)
	require.NotNil(t, doc.License)
	assert.Equal(t, "MIT", doc.License.Name)
	assert.Equal(t, []string{"alice <alice@example.com>"}, doc.Authors)
	assert.Equal(t, []string{"TZIP-012-2020-11-17", "TZIP-016"}, doc.Interfaces)

	require.Len(t, doc.Errors, 2)
	require.NotNil(t, doc.Errors[0].Static)
	assert.Equal(t, "FA2_TOKEN_UNDEFINED", doc.Errors[0].Static.Expansion.Str)
	require.NotNil(t, doc.Errors[1].Dynamic)
	assert.Equal(t, "translate_error", doc.Errors[1].Dynamic.View)

	require.Len(t, doc.Views, 2)
	assert.True(t, doc.Views[0].Pure)
	assert.False(t, doc.Views[1].Pure)

	msv, ok := doc.Views[0].Implementations[0].(*MichelsonStorageView)
	require.True(t, ok)
	assert.Nil(t, msv.Parameter)
	assert.True(t, micheline.EqualType(micheline.Prim("list", micheline.Prim("nat")), msv.ReturnType))

	rest, ok := doc.Views[1].Implementations[0].(*RestAPIQuery)
	require.True(t, ok)
	assert.Equal(t, "GET", rest.Method)
	assert.Equal(t, "/docs", rest.Path)
	assert.Nil(t, rest.BaseURI)
}

func TestParseKeepsUnknownKeysVerbatim(t *testing.T) {
	doc, err := Parse([]byte(fa2Document))
	require.NoError(t, err)

	assert.Equal(t, []string{"permissions"}, doc.ExtraKeys())
	assert.JSONEq(t, `{"operator": "owner-transfer"}`, string(doc.Extra["permissions"]))
}

func TestParseEmptyObject(t *testing.T) {
	doc, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Views)
	assert.Empty(t, doc.ExtraKeys())
}

func TestParseErrorPaths(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
	}{
		{"not an object", `[1,2]`, "$"},
		{"name not string", `{"name": 3}`, "name"},
		{"author not string", `{"authors": ["a", 2]}`, "authors[1]"},
		{"license without name", `{"license": {}}`, "license.name"},
		{"view without name", `{"views": [{"implementations": []}]}`, "views[0].name"},
		{
			"nested return type",
			`{"views": [
				{"name": "a", "implementations": []},
				{"name": "b", "implementations": []},
				{"name": "c", "implementations": [
					{"michelsonStorageView": {"returnType": {"int": 5}, "code": []}}
				]}
			]}`,
			"views[2].implementations[0].michelsonStorageView.returnType",
		},
		{
			"unknown implementation",
			`{"views": [{"name": "a", "implementations": [{"wasm": {}}]}]}`,
			"views[0].implementations[0]",
		},
		{
			"bad rest method",
			`{"views": [{"name": "a", "implementations": [
				{"restApiQuery": {"specificationUri": "x", "path": "/", "method": "DELETE"}}
			]}]}`,
			"views[0].implementations[0].restApiQuery.method",
		},
		{"pure not bool", `{"views": [{"name": "a", "pure": "yes", "implementations": []}]}`, "views[0].pure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.wantPath, de.Path.String())
			assert.NotEmpty(t, de.Expected)
		})
	}
}

func TestDecodeErrorJSON(t *testing.T) {
	_, err := Parse([]byte(`{"name": 3}`))
	var de *DecodeError
	require.True(t, errors.As(err, &de))

	out, jerr := json.Marshal(de)
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"path": "name", "expected": "string", "actual": 3}`, string(out))
}

func TestFindViewLowestIndexWins(t *testing.T) {
	doc, err := Parse([]byte(`{"views": [
		{"name": "dup", "description": "first", "implementations": []},
		{"name": "other", "implementations": []},
		{"name": "dup", "description": "second", "implementations": []}
	]}`))
	require.NoError(t, err)

	v, idx, ok := doc.FindView("dup")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "first", *v.Description)

	_, _, ok = doc.FindView("missing")
	assert.False(t, ok)
}

func TestParseURI(t *testing.T) {
	t.Run("tezos-storage short form", func(t *testing.T) {
		u, err := ParseURI("tezos-storage:here")
		require.NoError(t, err)
		assert.Equal(t, SchemeTezosStorage, u.Scheme)
		assert.Equal(t, "here", u.Key)
		assert.Empty(t, u.Contract)
	})

	t.Run("tezos-storage with contract and network", func(t *testing.T) {
		u, err := ParseURI("tezos-storage://KT1QDFEu8JijYbsJqzoXq7mKvfaQQamHD1kX.mainnet/%2Ffoo")
		require.NoError(t, err)
		assert.Equal(t, "KT1QDFEu8JijYbsJqzoXq7mKvfaQQamHD1kX", u.Contract)
		assert.Equal(t, "mainnet", u.Network)
		assert.Equal(t, "/foo", u.Key)
	})

	t.Run("https", func(t *testing.T) {
		u, err := ParseURI("https://example.com/metadata.json")
		require.NoError(t, err)
		assert.Equal(t, SchemeHTTPS, u.Scheme)
	})

	t.Run("ipfs", func(t *testing.T) {
		u, err := ParseURI("ipfs://QmWDcp3BpBjvu8uJYxVqb7JLfr1pcyXsL97Cfkt3y1758o/meta.json")
		require.NoError(t, err)
		assert.Equal(t, "QmWDcp3BpBjvu8uJYxVqb7JLfr1pcyXsL97Cfkt3y1758o", u.CID)
		assert.Equal(t, "meta.json", u.Path)
	})

	t.Run("sha256 wrapping https", func(t *testing.T) {
		u, err := ParseURI("sha256://0xeaa42ea06b95d7917d22135a630e65352cfd0a721ae88155a1512468a95cb750/https:%2F%2Ftezos.com")
		require.NoError(t, err)
		assert.Equal(t, SchemeSHA256, u.Scheme)
		assert.Len(t, u.Hash, 32)
		require.NotNil(t, u.Inner)
		assert.Equal(t, SchemeHTTPS, u.Inner.Scheme)
		assert.Equal(t, "https://tezos.com", u.Inner.Raw)
	})

	for _, bad := range []string{
		"ftp://example.com/x",
		"no-scheme",
		"tezos-storage:",
		"tezos-storage://tz1abc/key",
		"ipfs://",
		"sha256://abcd/https:%2F%2Ftezos.com",
		"sha256://0x1234/https:%2F%2Ftezos.com",
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseURI(bad)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUnsupportedURI))
		})
	}
}
