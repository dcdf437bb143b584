package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigFile(t *testing.T) {
	// Save original value and restore after test
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "default config file",
			cfgValue: "",
			want:     "",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			got := GetConfigFile()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootCommandStructure(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "polyseed", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRootCommandPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	// Test config flag
	configFlag, err := flags.GetString("config")
	assert.NoError(t, err)
	assert.Equal(t, "polyseed.yaml", configFlag)

	// Test log-level flag
	logLevelFlag, err := flags.GetString("log-level")
	assert.NoError(t, err)
	assert.Equal(t, "", logLevelFlag)

	// Test log-format flag
	logFormatFlag, err := flags.GetString("log-format")
	assert.NoError(t, err)
	assert.Equal(t, "", logFormatFlag)

	// Test environment flag
	environmentFlag, err := flags.GetString("environment")
	assert.NoError(t, err)
	assert.Equal(t, "", environmentFlag)

	// Test retry-attempts flag
	retryFlag, err := flags.GetInt("retry-attempts")
	assert.NoError(t, err)
	assert.Equal(t, 0, retryFlag)
}

func TestRootCommandSubcommands(t *testing.T) {
	commands := rootCmd.Commands()
	commandNames := make([]string, len(commands))
	for i, cmd := range commands {
		commandNames[i] = cmd.Name()
	}

	expectedCommands := []string{
		"seed",
		"plan",
		"health",
		"clean",
		"versions",
		"version",
	}

	for _, expected := range expectedCommands {
		assert.Contains(t, commandNames, expected, "Expected command %s not found", expected)
	}
}

func TestSeedCommandFlags(t *testing.T) {
	flags := seedCmd.Flags()

	// Count flags default to -1 so zero is a valid explicit value
	for _, name := range []string{"users", "products", "orders", "tasks", "messages", "vectors"} {
		v, err := flags.GetInt(name)
		assert.NoError(t, err)
		assert.Equal(t, -1, v, "flag %s should default to -1", name)
	}

	scenario, err := flags.GetString("scenario")
	assert.NoError(t, err)
	assert.Equal(t, "", scenario)

	for _, name := range []string{"cleanup", "relationships", "validate", "parallel", "no-rollback", "force"} {
		v, err := flags.GetBool(name)
		assert.NoError(t, err)
		assert.False(t, v, "flag %s should default to false", name)
	}
}
