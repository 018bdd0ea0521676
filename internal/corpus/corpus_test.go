package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StepBoard/internal/llm"
)

func TestLoadMissing(t *testing.T) {
	records, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppendAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training_data.json")

	n, err := Append(path, " a black box ", "Step 1, select color black;Step 2, draw a Rectangle, move shape to (10, 10).")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = Append(path, "a red dot", "Step 1, select color red;Step 2, draw a Circle, move shape to (5, 5), set radius to 2px.")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := Count(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a black box", records[0].Input)
	assert.Equal(t, llm.SystemPrompt(), records[0].Instruction)
	assert.Equal(t, "a red dot", records[1].Input)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestAppendRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	_, err := Append(path, "  ", "Step 1, clear canvas.")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = Append(path, "x", "\n")
	assert.ErrorIs(t, err, ErrEmptyOutput)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNonArrayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	original := []byte(`{"input":"x"}`)
	require.NoError(t, os.WriteFile(path, original, 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Append(path, "x", "Step 1, clear canvas.")
	assert.Error(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}
