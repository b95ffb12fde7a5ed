package account_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/michalkurzeja/go-clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/api"
)

var testParams = account.Params{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	CustomerID:   "AP-12345",
	Realm:        "clientsB2CPeugeot",
	CountryCode:  "FR",
	BrandCode:    "AP",
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	_, err := account.NewHTTPClient(account.Params{Realm: "unknown", ClientID: "a", ClientSecret: "b"}, account.Options{})
	assert.ErrorContains(t, err, "failed to resolve account brand")

	_, err = account.NewHTTPClient(account.Params{Realm: testParams.Realm, ClientID: "a"}, account.Options{})
	assert.ErrorContains(t, err, "client id and client secret are required")

	c, err := account.NewFactory(account.Options{})(testParams)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestHTTPClient_AuthorizeURL(t *testing.T) {
	t.Parallel()

	c, err := account.NewHTTPClient(testParams, account.Options{})
	require.NoError(t, err)

	u, err := url.Parse(c.AuthorizeURL())
	require.NoError(t, err)

	assert.Equal(t, "idpcvs.peugeot.com", u.Host)
	assert.Equal(t, "/am/oauth2/authorize", u.Path)
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "mymap://oauth2redirect/fr", u.Query().Get("redirect_uri"))
	assert.Equal(t, "openid profile", u.Query().Get("scope"))
	assert.Equal(t, "clientsB2CPeugeot", u.Query().Get("realm"))
}

func TestHTTPClient_Connect(t *testing.T) { //nolint:paralleltest
	now := time.Date(2024, time.March, 10, 8, 0, 12, 0, time.UTC)

	clock.Mock(now)
	t.Cleanup(clock.Restore)

	mux := http.NewServeMux()
	mux.HandleFunc("/am/oauth2/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "mymap://oauth2redirect/fr", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"account-token","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	})
	mux.HandleFunc("/api/user/vehicles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer account-token", r.Header.Get("Authorization"))
		assert.Equal(t, "clientsB2CPeugeot", r.Header.Get("x-introspect-realm"))
		assert.Equal(t, "client-id", r.URL.Query().Get("client_id"))

		_, _ = w.Write([]byte(`{"_embedded":{"vehicles":[{"id":"v1","vin":"VF3ABC","brand":"Peugeot"},{"id":"v2"},{"id":"v3","vin":"VF3XYZ"}]}}`))
	})

	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	dir := t.TempDir()

	params := testParams
	params.Prefix = "test_"

	c, err := account.NewHTTPClient(params, account.Options{
		WorkDir:     dir,
		APIBaseURL:  s.URL + "/api/",
		AuthBaseURL: s.URL,
		Timeout:     3 * time.Second,
	})
	require.NoError(t, err)

	_, err = c.Vehicles(context.Background())
	assert.ErrorIs(t, err, account.ErrNotConnected)
	assert.ErrorIs(t, c.SaveConfig("test_config.json"), account.ErrNotConnected)
	assert.ErrorIs(t, c.SaveVehicles(), account.ErrNotConnected)

	require.NoError(t, c.Connect(context.Background(), " the-code\n"))

	vehicles, err := c.Vehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, &account.Vehicle{ID: "v1", VIN: "VF3ABC", Label: account.UnknownLabel, Brand: "Peugeot"}, vehicles[0])
	assert.Equal(t, "VF3XYZ", vehicles[1].VIN)

	v, ok := c.VehicleByVIN("VF3XYZ")
	require.True(t, ok)
	assert.Same(t, vehicles[1], v)

	_, ok = c.VehicleByVIN("missing")
	assert.False(t, ok)

	v.Label = "208"

	require.NoError(t, c.SaveConfig("test_config.json"))
	require.NoError(t, c.SaveVehicles())

	cfg, err := account.LoadConfig(dir, "test_config.json")
	require.NoError(t, err)
	assert.Equal(t, params, cfg.Params)
	assert.Equal(t, "account-token", cfg.Token.AccessToken)
	assert.Equal(t, "refresh", cfg.Token.RefreshToken)
	assert.True(t, now.Equal(cfg.ConfiguredAt))

	assert.NoFileExists(t, filepath.Join(dir, "cars.json"))

	saved, err := account.LoadVehicles(dir, "test_")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "208", saved[1].Label)
	assert.True(t, now.Equal(saved[0].UpdatedAt))
}

func TestHTTPClient_Connect_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		tokenCode    int
		vehiclesCode int
		vehiclesBody string
		wantErr      string
		wantStatus   int
	}{
		{
			name:      "code exchange rejected",
			tokenCode: http.StatusBadRequest,
			wantErr:   "failed to exchange authorization code",
		},
		{
			name:         "vehicles endpoint failure",
			tokenCode:    http.StatusOK,
			vehiclesCode: http.StatusInternalServerError,
			vehiclesBody: `{"error":"upstream unavailable"}`,
			wantErr:      `body: {"error":"upstream unavailable"}`,
			wantStatus:   http.StatusInternalServerError,
		},
		{
			name:         "malformed vehicles response",
			tokenCode:    http.StatusOK,
			vehiclesCode: http.StatusOK,
			vehiclesBody: `{"_embedded":`,
			wantErr:      "could not decode response body",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("/am/oauth2/access_token", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.tokenCode)

				if tt.tokenCode == http.StatusOK {
					_, _ = w.Write([]byte(`{"access_token":"account-token","token_type":"Bearer"}`))

					return
				}

				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			})
			mux.HandleFunc("/user/vehicles", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.vehiclesCode)
				_, _ = w.Write([]byte(tt.vehiclesBody))
			})

			s := httptest.NewServer(mux)
			t.Cleanup(s.Close)

			c, err := account.NewHTTPClient(testParams, account.Options{
				WorkDir:     t.TempDir(),
				APIBaseURL:  s.URL,
				AuthBaseURL: s.URL,
				Timeout:     3 * time.Second,
			})
			require.NoError(t, err)

			err = c.Connect(context.Background(), "code")
			assert.ErrorContains(t, err, tt.wantErr)

			if tt.wantStatus != 0 {
				var httpErr api.HTTPError

				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			}

			vehicles, err := c.Vehicles(context.Background())
			assert.ErrorIs(t, err, account.ErrNotConnected)
			assert.Empty(t, vehicles)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := account.LoadConfig(t.TempDir(), "missing.json")
	assert.ErrorContains(t, err, "failed to load account config")

	_, err = account.LoadVehicles(t.TempDir(), "missing_")
	assert.ErrorContains(t, err, "failed to load account vehicles")
}
