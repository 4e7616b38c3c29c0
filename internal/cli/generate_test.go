package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testloom/testloom/internal/generator"
)

// Test Plan for batch generation:
// - testPath maps Maven layouts to src/test/java and suffixes Test
// - Discovery honors the glob pattern and skips build directories
// - A run writes one test file per source and skips existing ones
// - --force overwrites, and placeholder output gets a header comment

func TestTestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "maven layout",
			in:   filepath.Join("proj", "src", "main", "java", "com", "example", "Order.java"),
			want: filepath.Join("proj", "src", "test", "java", "com", "example", "OrderTest.java"),
		},
		{
			name: "flat layout",
			in:   filepath.Join("lib", "Order.java"),
			want: filepath.Join("lib", "OrderTest.java"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, testPath(tt.in))
		})
	}
}

type stubGenerator struct {
	fallback bool
	calls    int
}

func (s *stubGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Response, error) {
	s.calls++
	return &generator.Response{
		Text:       "public class StubTest {}",
		IsFallback: s.fallback,
	}, nil
}

func writeSource(t *testing.T, root string, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("public class Order {}"), 0o644))
	return path
}

func TestBatchRunner_Run(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/main/java/com/example/Order.java")
	writeSource(t, root, "src/main/java/com/example/Payment.java")
	writeSource(t, root, "target/src/main/java/Generated.java")

	stub := &stubGenerator{}
	runner := &batchRunner{
		gen:     stub,
		matcher: glob.MustCompile("**/src/main/java/**/*.java", '/'),
		quiet:   true,
	}

	require.NoError(t, runner.run(context.Background(), root))
	assert.Equal(t, 2, stub.calls)

	out := filepath.Join(root, "src", "test", "java", "com", "example", "OrderTest.java")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "public class StubTest {}", string(data))
}

func TestBatchRunner_SkipsExisting(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/main/java/com/example/Order.java")

	existing := filepath.Join(root, "src", "test", "java", "com", "example", "OrderTest.java")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("// handwritten"), 0o644))

	stub := &stubGenerator{}
	runner := &batchRunner{
		gen:     stub,
		matcher: glob.MustCompile("**/src/main/java/**/*.java", '/'),
		quiet:   true,
	}

	require.NoError(t, runner.run(context.Background(), root))
	assert.Zero(t, stub.calls)

	data, _ := os.ReadFile(existing)
	assert.Equal(t, "// handwritten", string(data))

	runner.force = true
	require.NoError(t, runner.run(context.Background(), root))
	assert.Equal(t, 1, stub.calls)
}

func TestBatchRunner_PlaceholderHeader(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/main/java/com/example/Order.java")

	runner := &batchRunner{
		gen:     &stubGenerator{fallback: true},
		matcher: glob.MustCompile("**/src/main/java/**/*.java", '/'),
		quiet:   true,
	}

	require.NoError(t, runner.run(context.Background(), root))

	out := filepath.Join(root, "src", "test", "java", "com", "example", "OrderTest.java")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// PLACEHOLDER")
}
