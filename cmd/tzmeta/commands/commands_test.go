package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/micheline"
)

const kt1 = "KT1QDFEu8JijYbsJqzoXq7mKvfaQQamHD1kX"

const fa2 = `{
  "name": "FA2 fixture",
  "interfaces": ["TZIP-012"],
  "views": [
    {"name": "all_tokens", "implementations": [{"michelsonStorageView": {
      "returnType": {"prim": "list", "args": [{"prim": "nat"}]}, "code": []}}]},
    {"name": "total_supply", "implementations": [
      {"restApiQuery": {"specificationUri": "https://example.com/api.json", "path": "/supply"}},
      {"michelsonStorageView": {"parameter": {"prim": "nat"}, "returnType": {"prim": "nat"}, "code": []}}]},
    {"name": "rest_only", "implementations": [
      {"restApiQuery": {"specificationUri": "https://example.com/api.json", "path": "/x"}}]}
  ]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(fa2), 0o644))
	return path
}

func viewCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "call-view"}
	cmd.Flags().String("contract", "", "")
	cmd.Flags().String("param", "", "")
	cmd.Flags().String("storage", "", "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestLoadClassifiedFromFile(t *testing.T) {
	result, err := loadClassified(context.Background(), &am.Config{}, writeFixture(t))
	require.NoError(t, err)
	assert.Equal(t, classify.TokenStandard, result.Kind)
	assert.True(t, result.TotalSupply.IsValid())
}

func TestLoadClassifiedMissingFile(t *testing.T) {
	_, err := loadClassified(context.Background(), &am.Config{}, filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRequireContract(t *testing.T) {
	_, err := requireContract(viewCmd(t))
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "--contract")

	_, err = requireContract(viewCmd(t, "--contract", "tz1notacontract"))
	assert.Error(t, err)

	address, err := requireContract(viewCmd(t, "--contract", kt1))
	require.NoError(t, err)
	assert.Equal(t, kt1, address)
}

func TestBuildViewRequest(t *testing.T) {
	result, err := loadClassified(context.Background(), &am.Config{}, writeFixture(t))
	require.NoError(t, err)
	doc := result.Document

	t.Run("selects the Michelson implementation", func(t *testing.T) {
		req, err := buildViewRequest(viewCmd(t, "--param", `{"int": "3"}`), doc, kt1, "total_supply")
		require.NoError(t, err)
		require.NotNil(t, req.View)
		require.NotNil(t, req.Parameter)
		assert.Equal(t, micheline.Render(micheline.Int(3)), micheline.Render(*req.Parameter))
		assert.Nil(t, req.StorageHint)
	})

	t.Run("storage override", func(t *testing.T) {
		req, err := buildViewRequest(viewCmd(t, "--storage", `{"prim": "Unit"}`), doc, kt1, "all_tokens")
		require.NoError(t, err)
		require.NotNil(t, req.StorageHint)
		assert.Nil(t, req.Parameter)
	})

	t.Run("unknown view", func(t *testing.T) {
		_, err := buildViewRequest(viewCmd(t), doc, kt1, "nope")
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("rest only view", func(t *testing.T) {
		_, err := buildViewRequest(viewCmd(t), doc, kt1, "rest_only")
		assert.True(t, errors.IsInvalidRequestError(err))
	})

	t.Run("malformed parameter", func(t *testing.T) {
		_, err := buildViewRequest(viewCmd(t, "--param", `{"int": 3`), doc, kt1, "total_supply")
		assert.Error(t, err)
	})
}
