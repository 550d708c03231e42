package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/fibbing-it/internal/game/rng"
)

func TestDefault_Loads(t *testing.T) {
	t.Parallel()

	b := Default()
	assert.GreaterOrEqual(t, b.Len(), 10)

	p, ok := b.Get("fib-001")
	require.True(t, ok)
	assert.Equal(t, "flamboyance", p.Answer)
}

func TestParse_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "prompts: []"},
		{"missing answer", "prompts:\n  - id: a\n    question: q\n"},
		{"duplicate id", "prompts:\n  - {id: a, question: q, answer: x}\n  - {id: a, question: q2, answer: y}\n"},
		{"bad yaml", "prompts: [:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  - {id: x1, question: q, answer: a}\n"), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	b, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), b.Len())
}

func TestPick_SkipsUsedAndReportsExhaustion(t *testing.T) {
	t.Parallel()

	b := NewBank(
		Prompt{ID: "a", Question: "qa", Answer: "A"},
		Prompt{ID: "b", Question: "qb", Answer: "B"},
	)
	src := rng.New(5)

	p, ok := b.Pick([]string{"a"}, src)
	require.True(t, ok)
	assert.Equal(t, "b", p.ID)

	_, ok = b.Pick([]string{"a", "b"}, src)
	assert.False(t, ok)
}
