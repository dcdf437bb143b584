package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/seed"
	"github.com/dbsmedya/polyseed/internal/version"
)

func TestVersionsCommandStructure(t *testing.T) {
	assert.NotNil(t, versionsCmd)
	assert.Equal(t, "versions", versionsCmd.Use)

	subNames := make([]string, 0, 3)
	for _, sub := range versionsCmd.Commands() {
		subNames = append(subNames, sub.Name())
	}
	assert.Contains(t, subNames, "list")
	assert.Contains(t, subNames, "apply")
	assert.Contains(t, subNames, "rollback")
}

func TestTransitiveDependents(t *testing.T) {
	mgr := version.NewManager(nil, logger.NewNop())
	require.NoError(t, mgr.Register("base", "1.0.0", nil, seed.Options{}))
	require.NoError(t, mgr.Register("mid", "1.1.0", []string{"base"}, seed.Options{}))
	require.NoError(t, mgr.Register("top", "2.0.0", []string{"mid"}, seed.Options{}))
	require.NoError(t, mgr.Register("other", "3.0.0", nil, seed.Options{}))

	deps := transitiveDependents(mgr.List(), "base")

	names := make([]string, len(deps))
	for i, v := range deps {
		names[i] = v.Name
	}
	// Deepest dependent first so rollback order is safe
	assert.Equal(t, []string{"top", "mid"}, names)
}

func TestTransitiveDependents_NoneRegistered(t *testing.T) {
	mgr := version.NewManager(nil, logger.NewNop())
	require.NoError(t, mgr.Register("solo", "1.0.0", nil, seed.Options{}))

	assert.Empty(t, transitiveDependents(mgr.List(), "solo"))
}
