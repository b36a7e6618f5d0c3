package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firefly/cli/internal/browser"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "https://hsdshdflab.hdfgroup.org", c.Endpoint)
	assert.Equal(t, "firefly-hsds", c.Bucket)
	assert.Equal(t, "/FIREfly/h5/", c.Folder)
	assert.Equal(t, 50, c.BatchSize)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 10*time.Minute, c.Cache.TTL)
	assert.Equal(t, "127.0.0.1:7407", c.Bridge.Addr)
	assert.Equal(t, "firefly_domains", c.Export.Table)
	assert.NoError(t, c.Validate())
	assert.Len(t, c.Schema(), 25)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
	  "bucket": "mybucket",
	  "batch_size": 8,
	  "cache": {"redis_addr": "localhost:6379", "ttl": "1h"},
	  "attributes": [{"name": "tail_number", "kind": "text"}, {"name": "max_speed", "kind": "number"}]
	}`), 0o600))

	t.Setenv("FIREFLY_FOLDER", "/other/")
	t.Setenv("FIREFLY_CACHE_REDIS_ADDR", "redis:6380")

	c, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "mybucket", c.Bucket)
	assert.Equal(t, 8, c.BatchSize)
	assert.Equal(t, "/other/", c.Folder)
	assert.Equal(t, "redis:6380", c.Cache.RedisAddr)
	assert.Equal(t, time.Hour, c.Cache.TTL)
	assert.Equal(t, browser.Schema{{Name: "tail_number", Kind: browser.KindText}, {Name: "max_speed", Kind: browser.KindNumber}}, c.Schema())

	fileOnly, err := LoadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "/FIREfly/h5/", fileOnly.Folder)
}

func TestSaveRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "config.json")
	c := Default()
	require.NoError(t, c.Set("batch_size", "12"))
	require.NoError(t, c.Set("timeout", "5s"))
	require.NoError(t, c.Set("metrics.addr", ":9100"))
	require.NoError(t, Save(file, c))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	back, err := LoadFile(file)
	require.NoError(t, err)
	assert.Equal(t, 12, back.BatchSize)
	assert.Equal(t, 5*time.Second, back.Timeout)
	assert.Equal(t, ":9100", back.Metrics.Addr)
	assert.Equal(t, c.Endpoint, back.Endpoint)
}

func TestSetAndGet(t *testing.T) {
	c := Default()
	assert.Error(t, c.Set("nope", "1"))
	assert.Error(t, c.Set("batch_size", "many"))
	assert.Error(t, c.Set("cache.ttl", "soon"))

	require.NoError(t, c.Set("rate_limit", "2.5"))
	got, err := c.Get("rate_limit")
	require.NoError(t, err)
	assert.Equal(t, "2.5", got)

	_, err = c.Get("nope")
	assert.Error(t, err)
	assert.Contains(t, Keys(), "cache.redis_addr")
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Endpoint = " "
	c.BatchSize = 0
	c.Attrs = []browser.AttributeSpec{{Name: "x", Kind: "blob"}}

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "attributes")
}
