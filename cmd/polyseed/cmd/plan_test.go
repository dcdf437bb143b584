package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCommandStructure(t *testing.T) {
	assert.NotNil(t, planCmd)
	assert.Equal(t, "plan", planCmd.Use)
	assert.NotEmpty(t, planCmd.Short)
	assert.NotNil(t, planCmd.RunE)
}

func TestRunPlan_WithRelationships(t *testing.T) {
	originalRel := planRelationships
	originalPar := planParallel
	originalCfg := cfgFile
	defer func() {
		planRelationships = originalRel
		planParallel = originalPar
		cfgFile = originalCfg
		resetOutputWriter()
	}()

	cfgFile = "nonexistent.yaml" // forces built-in defaults
	planRelationships = true
	planParallel = false

	var buf bytes.Buffer
	setOutputWriter(&buf)

	err := runPlan(planCmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Execution Plan")
	assert.Contains(t, output, "mysql")
	assert.Contains(t, output, "vector")
	assert.Contains(t, output, "Dependencies")
	assert.Contains(t, output, "mysql -> mongo")
}

func TestRunPlan_SingleStageParallel(t *testing.T) {
	originalRel := planRelationships
	originalPar := planParallel
	originalCfg := cfgFile
	defer func() {
		planRelationships = originalRel
		planParallel = originalPar
		cfgFile = originalCfg
		resetOutputWriter()
	}()

	cfgFile = "nonexistent.yaml"
	planRelationships = false
	planParallel = true

	var buf bytes.Buffer
	setOutputWriter(&buf)

	err := runPlan(planCmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "parallel")
	assert.NotContains(t, output, "Dependencies")
}
