package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommandStructure(t *testing.T) {
	assert.NotNil(t, versionCmd)
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotEmpty(t, versionCmd.Long)
	assert.NotNil(t, versionCmd.Run)
}

func TestRunVersion(t *testing.T) {
	// Save original values and restore after test
	originalVersion := Version
	originalCommit := Commit
	defer func() {
		Version = originalVersion
		Commit = originalCommit
	}()

	Version = "1.0.0"
	Commit = "abc123def456"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)

	runVersion(versionCmd, []string{})

	output := buf.String()
	assert.Contains(t, output, "polyseed version 1.0.0")
	assert.Contains(t, output, "Commit: abc123def456")
	assert.Contains(t, output, "Go version: "+runtime.Version())
	assert.Contains(t, output, runtime.GOOS+"/"+runtime.GOARCH)
}
