package host

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/util"
)

func TestCompileFallsBackOnTotalParseFailure(t *testing.T) {
	res, err := Compile(util.Options{Threads: 1}, "}}}")
	require.NoError(t, err)
	require.Equal(t, "}}}", res.Source)
	require.Nil(t, res.Object)
	require.Empty(t, res.Compiled)
}

func TestCompileWithNoCandidatesReturnsSourceUnchanged(t *testing.T) {
	src := "let x = 1;\nlet y = 2;\n"
	res, err := Compile(util.Options{Threads: 1}, src)
	require.NoError(t, err)
	require.Equal(t, src, res.Source)
	require.Nil(t, res.Object)
}

func TestCompileSkipsUntypedFunctions(t *testing.T) {
	src := `function untyped(a, b) { return a + b; }` + "\n"
	res, err := Compile(util.Options{Threads: 1}, src)
	require.NoError(t, err)
	require.Equal(t, src, res.Source)
	require.NotEmpty(t, res.Skipped)
}
