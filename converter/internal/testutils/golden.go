package testutils

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// UpdateGolden is registered in every test binary that imports this package.
// Run `go test ./... -update-golden` to rewrite the golden files.
var UpdateGolden = flag.Bool("update-golden", false, "rewrite golden test outputs")

// GoldenTest is a helper for "golden tests," which compare an actual output to
// a known good output that's saved to a file and committed to the repository.
type GoldenTest[T any] struct {
	// FileExtension defaults to '.json'.
	FileExtension string
	// Marshal defaults to a wrapper around json.MarshalIndent
	Marshal func(v T) ([]byte, error)
	// Unmarshal defaults to json.Unmarshal
	Unmarshal func(data []byte, v *T) error
	// Compare defaults to require.Equal
	Compare func(t testing.TB, expected, actual T)
}

// TextGoldenTest compares plain text output, such as rendered reports.
func TextGoldenTest() *GoldenTest[string] {
	return &GoldenTest[string]{
		FileExtension: ".txt",
		Marshal: func(v string) ([]byte, error) {
			return []byte(v), nil
		},
		Unmarshal: func(data []byte, v *string) error {
			*v = string(data)
			return nil
		},
	}
}

func (g *GoldenTest[T]) path(t testing.TB) string {
	ext := ".json"
	if g.FileExtension != "" {
		ext = g.FileExtension
	}
	return filepath.Join("golden_test", t.Name()+ext)
}

func (g *GoldenTest[T]) marshal(v T) ([]byte, error) {
	if g.Marshal != nil {
		return g.Marshal(v)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

func (g *GoldenTest[T]) unmarshal(data []byte, v *T) error {
	if g.Unmarshal != nil {
		return g.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func (g *GoldenTest[T]) update(t testing.TB, actual T) {
	data, err := g.marshal(actual)
	require.NoError(t, err)

	expectedPath := g.path(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(expectedPath), 0o755))
	require.NoError(t, os.WriteFile(expectedPath, data, 0o644))
}

// Run compares actual to the golden file for the current test, rewriting the
// file first when -update-golden is set.
func (g *GoldenTest[T]) Run(t testing.TB, actual T) {
	t.Helper()

	if *UpdateGolden {
		g.update(t, actual)
	}

	expectedPath := g.path(t)
	data, err := os.ReadFile(expectedPath)
	if errors.Is(err, os.ErrNotExist) {
		t.Fatalf("golden test output %s does not exist. re-run this test with -update-golden to create it.", expectedPath)
	} else if err != nil {
		t.Fatalf("failed to read golden test output %s: %s", expectedPath, err)
	}

	var expected T
	require.NoError(t, g.unmarshal(data, &expected))

	if g.Compare != nil {
		g.Compare(t, expected, actual)
	} else {
		require.Equal(t, expected, actual)
	}
}
