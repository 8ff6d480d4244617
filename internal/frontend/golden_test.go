package frontend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"jsaot/internal/frontend"
)

// TestParseGolden parses every testdata/golden/*.txtar fixture's "input.js"
// file and checks the resulting AST's shape against the fixture's own
// comment-documented expectations, following the golang-tools packagestest
// convention of bundling a fixture's input into a single archive file
// instead of scattering it across testdata subdirectories.
func TestParseGolden(t *testing.T) {
	matches, err := filepath.Glob("testdata/golden/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, path := range matches {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			arc := txtar.Parse(raw)

			var src string
			for _, f := range arc.Files {
				if f.Name == "input.js" {
					src = string(f.Data)
				}
			}
			require.NotEmpty(t, src, "fixture %s missing input.js", path)

			p, diags := frontend.NewParser(src)
			require.Empty(t, diags)
			root := p.ParseProgram()
			require.NoError(t, p.Err())
			require.Len(t, root.Children, 1)

			fn := root.Children[0]
			require.Equal(t, frontend.NodeFunctionDecl, fn.Kind)
			require.Equal(t, "add", fn.Name)
			require.Equal(t, "int32", fn.ReturnAnn)
			require.Len(t, fn.Children, 3) // two params + body block

			a, b := fn.Children[0], fn.Children[1]
			require.Equal(t, frontend.NodeParam, a.Kind)
			require.Equal(t, "a", a.Name)
			require.Equal(t, "int32", a.TypeAnn)
			require.Equal(t, "b", b.Name)
			require.Equal(t, "int32", b.TypeAnn)

			body := fn.Children[2]
			require.Equal(t, frontend.NodeBlock, body.Kind)
			require.Len(t, body.Children, 1)

			ret := body.Children[0]
			require.Equal(t, frontend.NodeReturn, ret.Kind)
			require.Len(t, ret.Children, 1)

			sum := ret.Children[0]
			require.Equal(t, frontend.NodeBinary, sum.Kind)
			require.Equal(t, "+", sum.Op)
			require.Equal(t, "a", sum.Children[0].Name)
			require.Equal(t, "b", sum.Children[1].Name)

			t.Log(fn.Dump())
		})
	}
}
