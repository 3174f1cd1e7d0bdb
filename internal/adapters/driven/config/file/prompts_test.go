package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenden-labs/lenden/internal/core/ports/driven"
	"github.com/lenden-labs/lenden/internal/core/services"
)

func TestNewPromptStore_NoIOInConstructor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	require.NotNil(t, store)

	// Directory must not exist until first Load.
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPromptStore_LoadCreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGrounding)

	require.NoError(t, err)
	assert.Equal(t, services.DefaultGroundingPrompt, prompt)

	// Default file and README were written on first access.
	_, statErr := os.Stat(filepath.Join(dir, driven.PromptGrounding+".txt"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, statErr)
}

func TestPromptStore_LoadCustomisedPrompt(t *testing.T) {
	dir := t.TempDir()
	custom := "You are a terse assistant. Answer from context only."
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptGrounding+".txt"), []byte(custom+"\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGrounding)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_LoadUnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")

	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Prime the cache with the default.
	_, err = store.Load(driven.PromptGrounding)
	require.NoError(t, err)

	// Edit the file on disk, then reload.
	edited := "Edited grounding rules."
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptGrounding+".txt"), []byte(edited), 0600))
	store.Reload()

	prompt, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)
	assert.Equal(t, edited, prompt)
}
