package setup

import (
	"context"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/api"
	"github.com/futurehomeno/edge-psa-setup/internal/brand"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
	"github.com/futurehomeno/edge-psa-setup/internal/extractor"
)

// Session states.
const (
	StateCreated                 = "created"
	StateCredentialsExtracted    = "credentials_extracted"
	StateAuthenticated           = "authenticated"
	StateProfileFetched          = "profile_fetched"
	StateClientConnected         = "client_connected"
	StateVehiclesCorrelated      = "vehicles_correlated"
	StateChargeControlsPersisted = "charge_controls_persisted"
	StateCompleted               = "completed"
	StateFailed                  = "failed"
)

const (
	eventExtract      = "extract"
	eventAuthenticate = "authenticate"
	eventFetchProfile = "fetch_profile"
	eventConnect      = "connect"
	eventCorrelate    = "correlate"
	eventPersist      = "persist"
	eventComplete     = "complete"
	eventFail         = "fail"

	accountConfigFile = "config.json"
)

// RemoteController is the long-running service started once the account is configured.
type RemoteController interface {
	// LoadApp loads the persisted account and charge configuration.
	LoadApp() error
	// StartRemoteControl starts serving remote commands.
	StartRemoteControl() error
}

// Dependencies are the collaborators of a setup session.
type Dependencies struct {
	Extractor      extractor.Extractor
	Authenticator  api.Authenticator
	ProfileFetcher api.ProfileFetcher
	AccountFactory account.Factory
	// ChargeStore returns the store of charge controls for a configuration prefix.
	ChargeStore func(prefix string) charge.Store
}

func (d Dependencies) validate() error {
	switch {
	case d.Extractor == nil:
		return errors.New("extractor is required")
	case d.Authenticator == nil:
		return errors.New("authenticator is required")
	case d.ProfileFetcher == nil:
		return errors.New("profile fetcher is required")
	case d.AccountFactory == nil:
		return errors.New("account factory is required")
	case d.ChargeStore == nil:
		return errors.New("charge store is required")
	}

	return nil
}

// Request is the end-user input of a setup session.
type Request struct {
	PackageID   string
	CountryCode string
	Email       string
	Password    string
	// Prefix is prepended to the names of all persisted documents.
	Prefix string
}

func (r Request) validate() error {
	switch {
	case r.CountryCode == "":
		return errors.New("country code is required")
	case r.Email == "":
		return errors.New("email is required")
	case r.Password == "":
		return errors.New("password is required")
	}

	return nil
}

type core struct {
	id    string
	fsm   *fsm.FSM
	deps  Dependencies
	req   Request
	brand brand.Brand
}

// ID returns the identifier used to correlate the session logs.
func (c *core) ID() string {
	return c.id
}

// State returns the current session state.
func (c *core) State() string {
	return c.fsm.Current()
}

// advance runs fn and fires event when the session is still in state from.
// An error returned by fn moves the session to the failed state and is returned as is.
func (c *core) advance(ctx context.Context, from, event string, fn func() error) error {
	if current := c.fsm.Current(); current != from || !c.fsm.Can(event) {
		return errors.Wrapf(ErrInvalidTransition, "cannot %s in state %s", event, current)
	}

	if err := fn(); err != nil {
		c.fail(ctx, event, err)

		return err
	}

	if err := c.fsm.Event(ctx, event); err != nil {
		return errors.Wrapf(ErrInvalidTransition, "%s: %s", event, err)
	}

	return nil
}

func (c *core) fail(ctx context.Context, event string, cause error) {
	if err := c.fsm.Event(ctx, eventFail, event, cause); err != nil {
		log.WithError(err).WithField("session", c.id).Error("setup: failed to mark the session as failed")
	}
}

func (c *core) logger() *log.Entry {
	return log.WithField("session", c.id).WithField("package", c.req.PackageID)
}

// Session is a setup session that has not started yet.
type Session struct {
	*core
}

// NewSession creates a new setup session. Unknown application packages are rejected.
func NewSession(deps Dependencies, req Request) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	b, err := brand.ForPackage(req.PackageID)
	if err != nil {
		return nil, err
	}

	if err = req.validate(); err != nil {
		return nil, err
	}

	c := &core{
		id:    uuid.NewString(),
		deps:  deps,
		req:   req,
		brand: b,
	}

	c.fsm = newStateMachine(c)

	return &Session{core: c}, nil
}

func newStateMachine(c *core) *fsm.FSM {
	active := []string{
		StateCreated,
		StateCredentialsExtracted,
		StateAuthenticated,
		StateProfileFetched,
		StateClientConnected,
		StateVehiclesCorrelated,
		StateChargeControlsPersisted,
	}

	return fsm.NewFSM(
		StateCreated,
		fsm.Events{
			{Name: eventExtract, Src: []string{StateCreated}, Dst: StateCredentialsExtracted},
			{Name: eventAuthenticate, Src: []string{StateCredentialsExtracted}, Dst: StateAuthenticated},
			{Name: eventFetchProfile, Src: []string{StateAuthenticated}, Dst: StateProfileFetched},
			{Name: eventConnect, Src: []string{StateProfileFetched}, Dst: StateClientConnected},
			{Name: eventCorrelate, Src: []string{StateClientConnected}, Dst: StateVehiclesCorrelated},
			{Name: eventPersist, Src: []string{StateVehiclesCorrelated}, Dst: StateChargeControlsPersisted},
			{Name: eventComplete, Src: []string{StateChargeControlsPersisted}, Dst: StateCompleted},
			{Name: eventFail, Src: active, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger().WithField("from", e.Src).WithField("to", e.Dst).Debug("setup: session state changed")
			},
			"enter_" + StateFailed: func(_ context.Context, e *fsm.Event) {
				entry := c.logger()

				if len(e.Args) == 2 { //nolint:gomnd
					if step, ok := e.Args[0].(string); ok {
						entry = entry.WithField("step", step)
					}

					if err, ok := e.Args[1].(error); ok {
						entry = entry.WithError(err)
					}
				}

				entry.Warn("setup: session failed")
			},
		},
	)
}

// ExtractCredentials obtains the brand secrets from the application package.
func (s *Session) ExtractCredentials(ctx context.Context) (*Extracted, error) {
	var creds *extractor.Credentials

	err := s.advance(ctx, StateCreated, eventExtract, func() error {
		var err error

		creds, err = s.deps.Extractor.Extract(ctx, s.req.PackageID, s.req.CountryCode)

		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger().WithField("site_code", creds.SiteCode).Info("setup: credentials extracted")

	return &Extracted{core: s.core, creds: creds}, nil
}

// Extracted is a session holding the brand credentials.
type Extracted struct {
	*core
	creds *extractor.Credentials
}

// Authenticate performs the brand authentication handshake.
func (s *Extracted) Authenticate(ctx context.Context) (*Authenticated, error) {
	var token string

	err := s.advance(ctx, StateCredentialsExtracted, eventAuthenticate, func() error {
		var err error

		token, err = s.deps.Authenticator.Authenticate(ctx, api.AuthRequest{
			SiteCode: s.creds.SiteCode,
			Culture:  s.creds.Culture,
			Email:    s.req.Email,
			Password: s.req.Password,
			Host:     s.creds.AuthHost,
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger().Info("setup: authenticated")

	return &Authenticated{core: s.core, creds: s.creds, token: token}, nil
}

// Authenticated is a session holding an access token.
type Authenticated struct {
	*core
	creds *extractor.Credentials
	token string
}

// FetchProfile fetches the user profile and creates the account client of the user.
func (s *Authenticated) FetchProfile(ctx context.Context) (*Profiled, error) {
	p := &Profiled{core: s.core}

	err := s.advance(ctx, StateAuthenticated, eventFetchProfile, func() error {
		profile, err := s.deps.ProfileFetcher.FetchProfile(ctx, api.ProfileRequest{
			Token:     s.token,
			Culture:   s.creds.Culture,
			SiteCode:  s.creds.SiteCode,
			BrandCode: s.brand.Code,
		})
		if err != nil {
			return err
		}

		p.profile = profile
		p.customerID = CustomerID(s.brand.Code, profile.ID)

		p.client, err = s.deps.AccountFactory(account.Params{
			ClientID:     s.creds.ClientID,
			ClientSecret: s.creds.ClientSecret,
			CustomerID:   p.customerID,
			Realm:        s.brand.Realm,
			CountryCode:  s.req.CountryCode,
			BrandCode:    s.brand.Code,
			Prefix:       s.req.Prefix,
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger().WithField("customer_id", p.customerID).
		WithField("vehicles", len(p.profile.Vehicles)).
		Info("setup: user profile fetched")

	return p, nil
}

// Profiled is a session holding the user profile and an unconnected account client.
type Profiled struct {
	*core
	profile    *api.UserProfile
	customerID string
	client     account.Client
}

// CustomerID returns the account customer identifier of the user.
func (s *Profiled) CustomerID() string {
	return s.customerID
}

// Profile returns the fetched user profile.
func (s *Profiled) Profile() *api.UserProfile {
	return s.profile
}

// AuthorizeURL returns the address the user opens to obtain the code passed to Connect.
func (s *Profiled) AuthorizeURL() string {
	return s.client.AuthorizeURL()
}

// Connect connects the account client with the authorization code and persists its configuration.
func (s *Profiled) Connect(ctx context.Context, code string) (*Connected, error) {
	var vehicles []*account.Vehicle

	err := s.advance(ctx, StateProfileFetched, eventConnect, func() error {
		if err := s.client.Connect(ctx, code); err != nil {
			return err
		}

		if err := s.client.SaveConfig(s.req.Prefix + accountConfigFile); err != nil {
			return err
		}

		var err error

		vehicles, err = s.client.Vehicles(ctx)
		if err != nil {
			return err
		}

		if len(vehicles) == 0 {
			return &NoCompatibleVehicleError{}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger().WithField("vehicles", len(vehicles)).Info("setup: account connected")

	return &Connected{core: s.core, profile: s.profile, client: s.client, vehicles: vehicles}, nil
}

// Connected is a session holding a connected account client.
type Connected struct {
	*core
	profile  *api.UserProfile
	client   account.Client
	vehicles []*account.Vehicle
}

// Vehicles returns the account vehicles.
func (s *Connected) Vehicles() []*account.Vehicle {
	return s.vehicles
}

// Correlate backfills vehicle labels from the user profile and persists the vehicles.
func (s *Connected) Correlate(ctx context.Context) (*Correlated, error) {
	var labeled int

	err := s.advance(ctx, StateClientConnected, eventCorrelate, func() error {
		labeled = Correlate(s.profile.Vehicles, s.client)

		return s.client.SaveVehicles()
	})
	if err != nil {
		return nil, err
	}

	s.logger().WithField("labeled", labeled).Info("setup: vehicles correlated")

	return &Correlated{core: s.core, vehicles: s.vehicles, labeled: labeled}, nil
}

// Correlated is a session whose vehicles have been correlated with the user profile.
type Correlated struct {
	*core
	vehicles []*account.Vehicle
	labeled  int
}

// Labeled returns the number of vehicle labels resolved from the user profile.
func (s *Correlated) Labeled() int {
	return s.labeled
}

// PersistChargeControls stores default charge controls for every vehicle.
func (s *Correlated) PersistChargeControls(ctx context.Context) (*Persisted, error) {
	var controls charge.Controls

	err := s.advance(ctx, StateVehiclesCorrelated, eventPersist, func() error {
		var err error

		controls, err = Bootstrap(s.vehicles)
		if err != nil {
			return err
		}

		return s.deps.ChargeStore(s.req.Prefix).Save(controls)
	})
	if err != nil {
		return nil, err
	}

	return &Persisted{core: s.core, vehicles: s.vehicles, controls: controls}, nil
}

// Persisted is a session whose configuration has been fully persisted.
type Persisted struct {
	*core
	vehicles []*account.Vehicle
	controls charge.Controls
}

// Vehicles returns the configured vehicles.
func (s *Persisted) Vehicles() []*account.Vehicle {
	return s.vehicles
}

// Controls returns the persisted charge controls.
func (s *Persisted) Controls() charge.Controls {
	return s.controls
}

// Complete hands the persisted configuration over to the remote controller and starts it.
func (s *Persisted) Complete(ctx context.Context, controller RemoteController) error {
	if controller == nil {
		return errors.New("remote controller is required")
	}

	err := s.advance(ctx, StateChargeControlsPersisted, eventComplete, func() error {
		if err := controller.LoadApp(); err != nil {
			return err
		}

		return controller.StartRemoteControl()
	})
	if err != nil {
		return err
	}

	s.logger().Info("setup: completed")

	return nil
}
