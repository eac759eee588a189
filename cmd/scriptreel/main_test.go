package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keagan/scriptreel/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWPM(t *testing.T) {
	cfg := config.Default()
	t.Cleanup(func() { wpm = 0 })

	wpm = 0
	rate, err := resolveWPM(cfg)
	require.NoError(t, err)
	assert.Equal(t, 150, rate)

	wpm = 220
	rate, err = resolveWPM(cfg)
	require.NoError(t, err)
	assert.Equal(t, 220, rate)

	for _, bad := range []int{99, 251, -1} {
		wpm = bad
		_, err = resolveWPM(cfg)
		assert.Error(t, err, "wpm %d", bad)
	}
}

func TestReadScript(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("Cena: um gato.\nCena: um cão."))

	text, err := readScript(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "Cena: um gato.\nCena: um cão.", text)

	path := filepath.Join(t.TempDir(), "roteiro.txt")
	require.NoError(t, os.WriteFile(path, []byte("A cat plays."), 0644))
	text, err = readScript(cmd, []string{path})
	require.NoError(t, err)
	assert.Equal(t, "A cat plays.", text)

	_, err = readScript(cmd, []string{filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n  text", 48))
	long := strings.Repeat("palavra ", 20)
	got := preview(long, 20)
	assert.Len(t, []rune(got), 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}
