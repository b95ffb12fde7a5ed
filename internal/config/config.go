package config

import (
	"crypto/tls"
	"os"
	"sync"
	"time"

	"github.com/futurehomeno/cliffhanger/config"
	"github.com/pkg/errors"
)

const (
	defaultHTTPTimeout         = 10 * time.Second
	defaultAppVersion          = "1.48.8"
	defaultProfileHostTemplate = "https://mw-%s-m2c.mym.awsmpsa.com"
	defaultAccountAPIBaseURL   = "https://api.groupe-psa.com/connectedcar/v4"
)

// Config is a model containing all setup configuration settings.
type Config struct {
	config.Default `mapstructure:",squash"`

	HTTPTimeout         string `json:"httpTimeout" mapstructure:"http_timeout"`
	AppVersion          string `json:"appVersion" mapstructure:"app_version"`
	ProfileHostTemplate string `json:"profileHostTemplate" mapstructure:"profile_host_template"`
	CertFile            string `json:"certFile" mapstructure:"cert_file"`
	KeyFile             string `json:"keyFile" mapstructure:"key_file"`
	ExtractorDir        string `json:"extractorDir" mapstructure:"extractor_dir"`
	AccountAPIBaseURL   string `json:"accountApiBaseURL" mapstructure:"account_api_base_url"`
}

// New creates new instance of a configuration object with default settings.
func New(workDir string) *Config {
	cfg := &Config{
		Default:             config.NewDefault(workDir),
		HTTPTimeout:         defaultHTTPTimeout.String(),
		AppVersion:          defaultAppVersion,
		ProfileHostTemplate: defaultProfileHostTemplate,
		CertFile:            "certs/public.pem",
		KeyFile:             "certs/private.pem",
		ExtractorDir:        workDir,
		AccountAPIBaseURL:   defaultAccountAPIBaseURL,
	}

	cfg.WorkDir = workDir

	return cfg
}

// KeyPair points at the PEM files of the client certificate used for mutual TLS.
type KeyPair struct {
	CertFile string
	KeyFile  string
}

// Load reads the key pair from disk.
func (k KeyPair) Load() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(k.CertFile, k.KeyFile)
	if err != nil {
		return tls.Certificate{}, errors.Wrapf(err, "failed to load client certificate %s", k.CertFile)
	}

	return cert, nil
}

// Validate checks that both files of the key pair are present.
func (k KeyPair) Validate() error {
	for _, f := range []string{k.CertFile, k.KeyFile} {
		if f == "" {
			return errors.New("client certificate and key files are required")
		}

		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "client certificate file %s is not accessible", f)
		}
	}

	return nil
}

// Service is a configuration service providing concurrency safe access to settings.
type Service struct {
	cfg  *Config
	lock *sync.RWMutex
}

// NewService creates a new configuration service.
func NewService(cfg *Config) *Service {
	return &Service{
		cfg:  cfg,
		lock: &sync.RWMutex{},
	}
}

// GetWorkDir allows to safely access a configuration setting.
func (cs *Service) GetWorkDir() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.cfg.WorkDir
}

// GetHTTPTimeout allows to safely access a configuration setting.
func (cs *Service) GetHTTPTimeout() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	duration, err := time.ParseDuration(cs.cfg.HTTPTimeout)
	if err != nil || duration <= 0 {
		return defaultHTTPTimeout
	}

	return duration
}

// GetAppVersion allows to safely access a configuration setting.
func (cs *Service) GetAppVersion() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if cs.cfg.AppVersion == "" {
		return defaultAppVersion
	}

	return cs.cfg.AppVersion
}

// GetProfileHostTemplate allows to safely access a configuration setting.
func (cs *Service) GetProfileHostTemplate() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if cs.cfg.ProfileHostTemplate == "" {
		return defaultProfileHostTemplate
	}

	return cs.cfg.ProfileHostTemplate
}

// GetKeyPair allows to safely access a configuration setting.
func (cs *Service) GetKeyPair() KeyPair {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return KeyPair{
		CertFile: cs.cfg.CertFile,
		KeyFile:  cs.cfg.KeyFile,
	}
}

// GetExtractorDir allows to safely access a configuration setting.
func (cs *Service) GetExtractorDir() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if cs.cfg.ExtractorDir == "" {
		return cs.cfg.WorkDir
	}

	return cs.cfg.ExtractorDir
}

// GetAccountAPIBaseURL allows to safely access a configuration setting.
func (cs *Service) GetAccountAPIBaseURL() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if cs.cfg.AccountAPIBaseURL == "" {
		return defaultAccountAPIBaseURL
	}

	return cs.cfg.AccountAPIBaseURL
}

