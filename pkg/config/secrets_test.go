package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, SecretsFileExists(dir))

	in := Secrets{"OPENAI_API_KEY": "sk-test", "ANTHROPIC_API_KEY": "ant-test"}
	require.NoError(t, SaveSecrets(dir, "hunter2", in))
	assert.True(t, SecretsFileExists(dir))

	info, err := os.Stat(SecretsPath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	raw, err := os.ReadFile(SecretsPath(dir))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-test")

	out, err := LoadSecrets(dir, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY"}, out.Names())
}

func TestLoadSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveSecrets(dir, "right", Secrets{"K": "v"}))

	_, err := LoadSecrets(dir, "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestLoadSecretsMissingFile(t *testing.T) {
	secrets, err := LoadSecrets(t.TempDir(), "any")
	require.NoError(t, err)
	assert.Empty(t, secrets)
}

func TestSaveSecretsRequiresPassword(t *testing.T) {
	require.Error(t, SaveSecrets(t.TempDir(), "", Secrets{}))
}
