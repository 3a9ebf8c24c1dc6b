package fixtures

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadControlScenarios(t *testing.T) {
	f, err := Load("testdata/control_scenarios.yaml")
	require.NoError(t, err)
	require.Len(t, f.Scenarios, 2)

	s, ok := f.Scenario("one_shot_success")
	require.True(t, ok)
	require.Len(t, s.FromCLI(), 3)
	require.Empty(t, s.ToCLI())

	deny, ok := f.Scenario("permission_deny_with_interrupt")
	require.True(t, ok)
	require.Len(t, deny.FromCLI(), 1)
	require.Len(t, deny.ToCLI(), 1)
}

func TestScenarioLookupMiss(t *testing.T) {
	f, err := Load("testdata/control_scenarios.yaml")
	require.NoError(t, err)

	_, ok := f.Scenario("does-not-exist")
	require.False(t, ok)
}
