package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSourcesInOrder(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"mongo_db":"from_json","queue_workers":8,"mongo_transactions":true}`), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nMONGO_DB=\"from_env\"\nAPP_URL=https://shop.example.com/\n"), 0o644))

	out := defaultValues()
	require.NoError(t, mergeJSONConfig(jsonPath, out))
	assert.Equal(t, "from_json", out["MONGO_DB"])
	assert.Equal(t, "8", out["QUEUE_WORKERS"])
	assert.Equal(t, "true", out["MONGO_TRANSACTIONS"])

	require.NoError(t, mergeDotEnv(envPath, out))
	assert.Equal(t, "from_env", out["MONGO_DB"])
	assert.Equal(t, "https://shop.example.com/", out["APP_URL"])
}

func TestMissingFilesAreNotErrors(t *testing.T) {
	dir := t.TempDir()
	err := loadFromFiles(filepath.Join(dir, "nope.json"), filepath.Join(dir, ".nope"))
	require.NoError(t, err)
	assert.Equal(t, defaultMongoDB, get("MONGO_DB", ""))
}

func TestProcessEnvWins(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://replica:27017")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.example.com/x")

	out := defaultValues()
	mergeProcessEnv(out)

	assert.Equal(t, "mongodb://replica:27017", out["MONGO_URI"])
	assert.Equal(t, "https://hooks.example.com/x", out["SLACK_WEBHOOK_URL"])
}

func TestTypedAccessors(t *testing.T) {
	Set("CACHE_TTL", "90s")
	Set("QUEUE_WORKERS", "not-a-number")
	Set("MONGO_TRANSACTIONS", "true")
	Set("APP_URL", "https://shop.example.com/")

	assert.Equal(t, 90*time.Second, CacheTTL())
	assert.Equal(t, 4, QueueWorkers())
	assert.True(t, MongoTransactions())
	assert.Equal(t, "https://shop.example.com", AppURL())
	assert.Equal(t, "fallback", Get("UNSET_KEY", "fallback"))
}
