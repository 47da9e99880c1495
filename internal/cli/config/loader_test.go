package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/forceql/forceql/pkg/adapters/salesforce"
)

func loadInDir(t *testing.T, dir, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	ResetConfig()
	return LoadConfig(cfgFile, flags)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadInDir(t, t.TempDir(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "salesforce", cfg.Type)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, "59.0", cfg.APIVersion)
	assert.Equal(t, "Id", cfg.PKField)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultCacheFile, cfg.CachePath)
	assert.False(t, cfg.LazyConnect)
	assert.False(t, cfg.QuietKnownBugs)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
host: https://test.salesforce.com
username: demo@example.com
password: secret
consumer_key: key
consumer_secret: secret2
pk_field: id
options:
  query_all: "true"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forceql.yaml"), []byte(content), 0o644))

	cfg, err := loadInDir(t, dir, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://test.salesforce.com", cfg.Host)
	assert.Equal(t, "demo@example.com", cfg.Username)
	assert.Equal(t, "id", cfg.PKField)
	assert.Equal(t, "true", cfg.Options["query_all"])
	assert.Equal(t, "forceql.yaml", GetConfigFileUsed())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forceql.yaml"),
		[]byte("username: from-file\nhost: https://file.example.com\n"), 0o644))

	t.Setenv("SF_USER", "from-env@example.com")
	t.Setenv("SF_PASSWORD", "pw")
	t.Setenv("SF_CONSUMER_KEY", "ck")
	t.Setenv("SF_CONSUMER_SECRET", "cs")
	t.Setenv("SF_PK", "id")
	t.Setenv("SF_LAZY_CONNECT", "true")

	cfg, err := loadInDir(t, dir, "", nil)
	require.NoError(t, err)

	// SF_USER maps to username, SF_PK to pk_field
	assert.Equal(t, "from-env@example.com", cfg.Username)
	assert.Equal(t, "pw", cfg.Password)
	assert.Equal(t, "ck", cfg.ConsumerKey)
	assert.Equal(t, "id", cfg.PKField)
	assert.True(t, cfg.LazyConnect)
	// File value survives where no env var competes
	assert.Equal(t, "https://file.example.com", cfg.Host)
}

func TestLoadConfigQuietKnownBugsEnv(t *testing.T) {
	t.Setenv("QUIET_KNOWN_BUGS", "on")

	cfg, err := loadInDir(t, t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.True(t, cfg.QuietKnownBugs)
}

func TestLoadConfigFlagsWin(t *testing.T) {
	t.Setenv("SF_HOST", "https://env.example.com")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "", "")
	flags.String("pk-field", "", "")
	flags.String("cache", "", "")
	require.NoError(t, flags.Set("host", "https://flag.example.com"))
	require.NoError(t, flags.Set("pk-field", "id"))
	require.NoError(t, flags.Set("cache", "/tmp/schema.db"))

	cfg, err := loadInDir(t, t.TempDir(), "", flags)
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.com", cfg.Host)
	assert.Equal(t, "id", cfg.PKField)
	assert.Equal(t, "/tmp/schema.db", cfg.CachePath)
}

func TestLoadConfigUnknownType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forceql.yaml"),
		[]byte("type: mysql\n"), 0o644))

	_, err := loadInDir(t, dir, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")
}

func TestLoadConfigInvalidOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forceql.yaml"),
		[]byte("output: xml\n"), 0o644))

	_, err := loadInDir(t, dir, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestValidateCredentials(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SF_USER")

	cfg.Username = "u"
	cfg.Password = "p"
	err = cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SF_CONSUMER_KEY")

	cfg.ConsumerKey = "k"
	cfg.ConsumerSecret = "s"
	assert.NoError(t, cfg.ValidateCredentials())
}
