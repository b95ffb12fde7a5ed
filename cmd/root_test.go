package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/api"
	"github.com/futurehomeno/edge-psa-setup/internal/config"
	"github.com/futurehomeno/edge-psa-setup/internal/extractor"
	"github.com/futurehomeno/edge-psa-setup/internal/setup"
	"github.com/futurehomeno/edge-psa-setup/internal/test"
	"github.com/futurehomeno/edge-psa-setup/internal/test/fakes"
)

type remoteControllerMock struct {
	mock.Mock
}

func (m *remoteControllerMock) LoadApp() error {
	args := m.Called()
	return args.Error(0) //nolint
}

func (m *remoteControllerMock) StartRemoteControl() error {
	args := m.Called()
	return args.Error(0) //nolint
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := loadConfig(dir, "")
	require.NoError(t, err)
	assert.Equal(t, config.New(dir), cfg)

	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"http_timeout":"5s","app_version":"2.0.0","cert_file":"/etc/psa/public.pem"}`), 0o600))

	cfg, err = loadConfig(dir, file)
	require.NoError(t, err)

	svc := config.NewService(cfg)
	assert.Equal(t, 5*time.Second, svc.GetHTTPTimeout())
	assert.Equal(t, "2.0.0", svc.GetAppVersion())
	assert.Equal(t, "/etc/psa/public.pem", svc.GetKeyPair().CertFile)
	assert.Equal(t, "certs/private.pem", svc.GetKeyPair().KeyFile)
	assert.Equal(t, dir, svc.GetWorkDir())

	_, err = loadConfig(dir, filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read configuration file")
}

func newTestContainer(t *testing.T, controller setup.RemoteController, remote []*account.Vehicle) *serviceContainer {
	t.Helper()

	_, chargeStore := fakes.NewChargeStore()

	services := newServiceContainer(config.New(t.TempDir()), "test_")
	services.controller = controller
	services.runner = setup.NewRunner(setup.Dependencies{
		Extractor: &fakes.Extractor{Credentials: &extractor.Credentials{
			Culture:      test.Culture,
			SiteCode:     test.SiteCode,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AuthHost:     "https://id-dcr.peugeot.com",
		}},
		Authenticator: &fakes.Authenticator{Token: test.AccessToken},
		ProfileFetcher: &fakes.ProfileFetcher{Profile: &api.UserProfile{
			ID:       test.UserID,
			Vehicles: []api.ProfileVehicle{{VIN: test.VIN, ShortLabel: "NEW 2008"}},
		}},
		AccountFactory: fakes.AccountFactory(&fakes.AccountClient{Remote: remote}),
		ChargeStore:    chargeStore,
	})

	return services
}

func newTestOptions(code string) *SetupOptions {
	o := NewSetupOptions()
	o.PackageID = test.PackageID
	o.Email = "user@example.com"
	o.Password = "secret"
	o.Country = test.CountryCode
	o.Prefix = "test_"
	o.Code = code

	return o
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		code       string
		stdin      string
		remote     []*account.Vehicle
		setupMock  func(m *remoteControllerMock)
		wantErr    string
		wantOutput []string
	}{
		{
			name:  "code read from the standard input",
			stdin: "the-code\n",
			remote: []*account.Vehicle{
				{VIN: test.VIN, Label: account.UnknownLabel},
			},
			setupMock: func(m *remoteControllerMock) {
				m.On("LoadApp").Return(nil).Once()
				m.On("StartRemoteControl").Return(nil).Once()
			},
			wantOutput: []string{
				"https://idp.example.com/authorize?client_id=client-id",
				"Code: ",
				"VF3ABC\t2008",
			},
		},
		{
			name: "code given as option",
			code: "the-code",
			remote: []*account.Vehicle{
				{VIN: test.VIN, Label: "Mine"},
			},
			setupMock: func(m *remoteControllerMock) {
				m.On("LoadApp").Return(nil).Once()
				m.On("StartRemoteControl").Return(nil).Once()
			},
			wantOutput: []string{"VF3ABC\tMine"},
		},
		{
			name:    "empty code",
			stdin:   "\n",
			wantErr: "authorization code is required",
		},
		{
			name:    "no compatible vehicle",
			code:    "the-code",
			wantErr: "No vehicle in your account is compatible with this API, your vehicle is probably too old...",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			controller := &remoteControllerMock{}
			if tt.setupMock != nil {
				tt.setupMock(controller)
			}

			out := &bytes.Buffer{}
			services := newTestContainer(t, controller, tt.remote)

			err := run(context.Background(), strings.NewReader(tt.stdin), out, newTestOptions(tt.code), services)

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}

			controller.AssertExpectations(t)
		})
	}
}

func TestRootCommand_ValidatesOptions(t *testing.T) { //nolint:paralleltest
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--env-file", "", "--package", "com.example.app", "--country", "FR"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "unknown application package")
	assert.Contains(t, err.Error(), "--email is required")
	assert.Contains(t, err.Error(), "--password is required")
	assert.NotContains(t, err.Error(), "--country")
}

func TestRootCommand_RequiresClientCertificate(t *testing.T) { //nolint:paralleltest
	dir := t.TempDir()
	cert := filepath.Join(dir, "missing.pem")

	cfgFile := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`{"cert_file":"`+cert+`","key_file":"`+cert+`"}`), 0o600))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{
		"--env-file", "",
		"--work-dir", dir,
		"--config", cfgFile,
		"--package", test.PackageID,
		"--country", test.CountryCode,
		"--email", "user@example.com",
		"--password", "secret",
	})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client certificate file "+cert+" is not accessible")
}

func TestLogFailure(t *testing.T) { //nolint:paralleltest
	hook := logtest.NewGlobal()

	logFailure(&api.AuthenticationError{
		Op:       "failed to perform access token request",
		Host:     "https://id-dcr.peugeot.com",
		SiteCode: test.SiteCode,
		Err:      errors.New("connection refused"),
	})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.ErrorLevel, entry.Level)

	stack, ok := entry.Data["stack"].(string)
	require.True(t, ok)
	assert.Contains(t, stack, "host: https://id-dcr.peugeot.com")
	assert.Contains(t, stack, "site code: "+test.SiteCode)
	assert.Contains(t, stack, "caused by: connection refused")
	assert.Contains(t, stack, "cmd.TestLogFailure")
}
