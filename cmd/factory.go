package cmd

import (
	"net/http"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/api"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
	"github.com/futurehomeno/edge-psa-setup/internal/config"
	"github.com/futurehomeno/edge-psa-setup/internal/extractor"
	"github.com/futurehomeno/edge-psa-setup/internal/setup"
)

// serviceContainer is a type representing a dependency injection container to be used during a single setup run.
type serviceContainer struct {
	configService *config.Service
	prefix        string

	httpClient     *http.Client
	authenticator  api.Authenticator
	profileFetcher api.ProfileFetcher
	extractor      extractor.Extractor
	accountFactory account.Factory
	runner         *setup.Runner
	controller     setup.RemoteController
}

func newServiceContainer(cfg *config.Config, prefix string) *serviceContainer {
	return &serviceContainer{
		configService: config.NewService(cfg),
		prefix:        prefix,
	}
}

// getHTTPClient creates or returns existing HTTP client.
func (s *serviceContainer) getHTTPClient() *http.Client {
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: s.configService.GetHTTPTimeout()}
	}

	return s.httpClient
}

// getAuthenticator creates or returns existing authenticator.
func (s *serviceContainer) getAuthenticator() api.Authenticator {
	if s.authenticator == nil {
		s.authenticator = api.NewAuthenticator(s.getHTTPClient())
	}

	return s.authenticator
}

// getProfileFetcher creates or returns existing user profile fetcher.
func (s *serviceContainer) getProfileFetcher() api.ProfileFetcher {
	if s.profileFetcher == nil {
		s.profileFetcher = api.NewProfileFetcher(api.ProfileOptions{
			HostTemplate: s.configService.GetProfileHostTemplate(),
			AppVersion:   s.configService.GetAppVersion(),
			KeyPair:      s.configService.GetKeyPair(),
			Timeout:      s.configService.GetHTTPTimeout(),
		})
	}

	return s.profileFetcher
}

// getExtractor creates or returns existing credential extractor.
func (s *serviceContainer) getExtractor() extractor.Extractor {
	if s.extractor == nil {
		s.extractor = extractor.NewFileExtractor(s.configService.GetExtractorDir())
	}

	return s.extractor
}

// getAccountFactory creates or returns existing account client factory.
func (s *serviceContainer) getAccountFactory() account.Factory {
	if s.accountFactory == nil {
		s.accountFactory = account.NewFactory(account.Options{
			WorkDir:    s.configService.GetWorkDir(),
			APIBaseURL: s.configService.GetAccountAPIBaseURL(),
			Timeout:    s.configService.GetHTTPTimeout(),
		})
	}

	return s.accountFactory
}

func (s *serviceContainer) getChargeStore(prefix string) charge.Store {
	return charge.NewStore(s.configService.GetWorkDir(), prefix)
}

// getRunner creates or returns existing setup runner.
func (s *serviceContainer) getRunner() *setup.Runner {
	if s.runner == nil {
		s.runner = setup.NewRunner(setup.Dependencies{
			Extractor:      s.getExtractor(),
			Authenticator:  s.getAuthenticator(),
			ProfileFetcher: s.getProfileFetcher(),
			AccountFactory: s.getAccountFactory(),
			ChargeStore:    s.getChargeStore,
		})
	}

	return s.runner
}

// getController creates or returns existing remote controller.
func (s *serviceContainer) getController() setup.RemoteController {
	if s.controller == nil {
		s.controller = newRemoteController(s.configService.GetWorkDir(), s.prefix)
	}

	return s.controller
}
