package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	input := strings.Join([]string{"openai", "sk-test", "", "8080", "", "gpt-4o", ""}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(input), &out, path))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", env["LLM_PROVIDER"])
	assert.Equal(t, "sk-test", env["OPENAI_API_KEY"])
	assert.NotContains(t, env, "OPENAI_BASE_URL")
	assert.Equal(t, "8080", env["PORT"])
	assert.Equal(t, "gpt-4o-mini", env["PERSONAL_BOT_MODEL"])
	assert.Equal(t, "gpt-4o", env["TATA_AIG_BOT_MODEL"])
	assert.Equal(t, "./user-profile.json", env["PROFILE_PATH"])
	assert.Contains(t, out.String(), "http://localhost:8080")
}

func TestRunOfflineNeedsNoKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, run(strings.NewReader("offline\n\n\n\n\n"), &bytes.Buffer{}, path))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "offline", env["LLM_PROVIDER"])
	assert.Equal(t, "3000", env["PORT"])
}

func TestRunRequiresKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	err := run(strings.NewReader("openai\n\n"), &bytes.Buffer{}, path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunKeepsExistingWithoutConfirmation(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=1234\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader("n\n"), &out, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PORT=1234\n", string(data))
	assert.Contains(t, out.String(), "Aborted.")
}
