package setup

import (
	"context"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
)

// Result summarises a completed setup.
type Result struct {
	SessionID  string
	CustomerID string
	Vehicles   []*account.Vehicle
	Controls   charge.Controls
	// Labeled is the number of vehicle labels resolved from the user profile.
	Labeled int
}

// Runner runs setup sessions in two phases. Begin runs the steps that need the user credentials,
// Finish the steps that need the authorization code the user obtains in between.
type Runner struct {
	deps Dependencies
}

// NewRunner creates a new setup runner.
func NewRunner(deps Dependencies) *Runner {
	return &Runner{
		deps: deps,
	}
}

// Begin creates a session and runs it up to the user profile.
func (r *Runner) Begin(ctx context.Context, req Request) (*Profiled, error) {
	s, err := NewSession(r.deps, req)
	if err != nil {
		return nil, err
	}

	extracted, err := s.ExtractCredentials(ctx)
	if err != nil {
		return nil, err
	}

	authenticated, err := extracted.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	return authenticated.FetchProfile(ctx)
}

// Finish connects the account with the authorization code and completes the session.
func (r *Runner) Finish(ctx context.Context, p *Profiled, code string, controller RemoteController) (*Result, error) {
	connected, err := p.Connect(ctx, code)
	if err != nil {
		return nil, err
	}

	correlated, err := connected.Correlate(ctx)
	if err != nil {
		return nil, err
	}

	persisted, err := correlated.PersistChargeControls(ctx)
	if err != nil {
		return nil, err
	}

	if err = persisted.Complete(ctx, controller); err != nil {
		return nil, err
	}

	return &Result{
		SessionID:  p.ID(),
		CustomerID: p.CustomerID(),
		Vehicles:   persisted.Vehicles(),
		Controls:   persisted.Controls(),
		Labeled:    correlated.Labeled(),
	}, nil
}
