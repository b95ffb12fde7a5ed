package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
	"github.com/futurehomeno/edge-psa-setup/internal/storage"
)

func persistSetup(t *testing.T, dir, prefix string, controls charge.Controls) {
	t.Helper()

	require.NoError(t, storage.NewFile(dir, prefix+"config.json").Save(account.Config{
		Params: account.Params{CustomerID: "AP-12345"},
		Token:  &oauth2.Token{AccessToken: "token"},
	}))
	require.NoError(t, storage.NewFile(dir, prefix+"cars.json").Save([]*account.Vehicle{
		{VIN: "VIN1", Label: "208"},
		{VIN: "VIN2", Label: account.UnknownLabel},
	}))
	require.NoError(t, charge.NewStore(dir, prefix).Save(controls))
}

func TestRemoteController(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	persistSetup(t, dir, "test_", charge.Controls{
		"VIN1": charge.NewDefaultControl("VIN1"),
		"VIN2": charge.NewDefaultControl("VIN2"),
	})

	c := newRemoteController(dir, "test_")

	assert.EqualError(t, c.StartRemoteControl(), "remote control cannot start before the configuration is loaded")

	require.NoError(t, c.LoadApp())
	assert.Len(t, c.vehicles, 2)
	assert.Equal(t, "AP-12345", c.config.Params.CustomerID)

	assert.NoError(t, c.StartRemoteControl())
}

func TestRemoteController_LoadAppFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	persistSetup(t, dir, "", charge.Controls{"VIN1": charge.NewDefaultControl("VIN1")})

	assert.ErrorContains(t, newRemoteController(dir, "").LoadApp(), "no charge control configured for vehicle VIN2")
	assert.ErrorContains(t, newRemoteController(dir, "other_").LoadApp(), "failed to load account config")
}
