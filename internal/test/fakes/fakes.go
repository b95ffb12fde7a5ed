package fakes

import (
	"context"
	"sync"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/api"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
	"github.com/futurehomeno/edge-psa-setup/internal/extractor"
)

// Extractor is a fake implementation of extractor.Extractor.
// Not suitable for production use.
type Extractor struct {
	Credentials *extractor.Credentials
	Err         error
	Calls       int
}

// Extract returns the configured credentials.
func (f *Extractor) Extract(_ context.Context, _, _ string) (*extractor.Credentials, error) {
	f.Calls++

	if f.Err != nil {
		return nil, f.Err
	}

	c := *f.Credentials

	return &c, nil
}

// Authenticator is a fake implementation of api.Authenticator.
// Not suitable for production use.
type Authenticator struct {
	Token    string
	Err      error
	Requests []api.AuthRequest
}

// Authenticate records the request and returns the configured token.
func (f *Authenticator) Authenticate(_ context.Context, req api.AuthRequest) (string, error) {
	f.Requests = append(f.Requests, req)

	if f.Err != nil {
		return "", f.Err
	}

	return f.Token, nil
}

// ProfileFetcher is a fake implementation of api.ProfileFetcher.
// Not suitable for production use.
type ProfileFetcher struct {
	Profile  *api.UserProfile
	Err      error
	Requests []api.ProfileRequest
}

// FetchProfile records the request and returns the configured profile.
func (f *ProfileFetcher) FetchProfile(_ context.Context, req api.ProfileRequest) (*api.UserProfile, error) {
	f.Requests = append(f.Requests, req)

	if f.Err != nil {
		return nil, f.Err
	}

	return f.Profile, nil
}

// AccountClient is an in-memory implementation of account.Client.
// Not suitable for production use.
type AccountClient struct {
	Params         account.Params
	Remote         []*account.Vehicle
	ConnectErr     error
	SaveConfigErr  error
	SaveVehicleErr error

	Code           string
	SavedConfigs   []string
	SavedVehicles  [][]account.Vehicle
	connected      bool
	loadedVehicles []*account.Vehicle
}

// AuthorizeURL returns a fixed address.
func (f *AccountClient) AuthorizeURL() string {
	return "https://idp.example.com/authorize?client_id=" + f.Params.ClientID
}

// Connect records the code and loads the remote vehicles.
func (f *AccountClient) Connect(_ context.Context, code string) error {
	f.Code = code

	if f.ConnectErr != nil {
		return f.ConnectErr
	}

	f.connected = true
	f.loadedVehicles = f.Remote

	return nil
}

// SaveConfig records the name of the saved config.
func (f *AccountClient) SaveConfig(name string) error {
	if !f.connected {
		return account.ErrNotConnected
	}

	if f.SaveConfigErr != nil {
		return f.SaveConfigErr
	}

	f.SavedConfigs = append(f.SavedConfigs, name)

	return nil
}

// Vehicles returns the loaded vehicles.
func (f *AccountClient) Vehicles(_ context.Context) ([]*account.Vehicle, error) {
	if !f.connected {
		return nil, account.ErrNotConnected
	}

	return f.loadedVehicles, nil
}

// VehicleByVIN looks the VIN up in the loaded vehicles.
func (f *AccountClient) VehicleByVIN(vin string) (*account.Vehicle, bool) {
	for _, v := range f.loadedVehicles {
		if v.VIN == vin {
			return v, true
		}
	}

	return nil, false
}

// SaveVehicles records a snapshot of the loaded vehicles.
func (f *AccountClient) SaveVehicles() error {
	if !f.connected {
		return account.ErrNotConnected
	}

	if f.SaveVehicleErr != nil {
		return f.SaveVehicleErr
	}

	snapshot := make([]account.Vehicle, 0, len(f.loadedVehicles))
	for _, v := range f.loadedVehicles {
		snapshot = append(snapshot, *v)
	}

	f.SavedVehicles = append(f.SavedVehicles, snapshot)

	return nil
}

// AccountFactory returns a factory handing out client after recording the params.
func AccountFactory(client *AccountClient) account.Factory {
	return func(params account.Params) (account.Client, error) {
		client.Params = params

		return client, nil
	}
}

// ChargeStore is an in-memory implementation of charge.Store.
// Not suitable for production use.
type ChargeStore struct {
	mu       sync.RWMutex
	prefix   string
	controls charge.Controls
	SaveErr  error
}

// NewChargeStore returns a fake store factory sharing one store across prefixes.
func NewChargeStore() (*ChargeStore, func(prefix string) charge.Store) {
	s := &ChargeStore{}

	return s, func(prefix string) charge.Store {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.prefix = prefix

		return s
	}
}

// Save keeps a copy of controls.
func (s *ChargeStore) Save(controls charge.Controls) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}

	s.controls = make(charge.Controls, len(controls))
	for vin, c := range controls {
		s.controls[vin] = c
	}

	return nil
}

// Load returns the saved controls.
func (s *ChargeStore) Load() (charge.Controls, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.controls, nil
}

// Path returns a pseudo path containing the prefix.
func (s *ChargeStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return "memory://" + s.prefix + "charge_config.json"
}
