package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/michalkurzeja/go-clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/thoas/go-funk"
	"golang.org/x/oauth2"

	"github.com/futurehomeno/edge-psa-setup/internal/api"
	"github.com/futurehomeno/edge-psa-setup/internal/brand"
	"github.com/futurehomeno/edge-psa-setup/internal/storage"
)

const (
	vehiclesURI = "/user/vehicles"

	realmHeader  = "x-introspect-realm"
	acceptHeader = "Accept"
	halJSON      = "application/hal+json"

	carsFile = "cars.json"

	maxBodySize = 1 << 20
)

var (
	// ErrNotConnected is returned when an operation requires a token but Connect has not succeeded yet.
	ErrNotConnected = errors.New("account client is not connected")

	defaultScopes = []string{"openid", "profile"}
)

// Options configures the HTTP account client.
type Options struct {
	// WorkDir is the directory persisted documents are written to.
	WorkDir string
	// APIBaseURL is the connected-car API root.
	APIBaseURL string
	// AuthBaseURL overrides the brand identity provider root, e.g. in tests.
	AuthBaseURL string
	Timeout     time.Duration
}

// Config is the persisted state of a connected account client.
type Config struct {
	Params       Params        `json:"params"`
	Token        *oauth2.Token `json:"token"`
	ConfiguredAt time.Time     `json:"configured_at"`
}

type httpClient struct {
	params   Params
	opts     Options
	oauth    *oauth2.Config
	token    *oauth2.Token
	vehicles []*Vehicle
}

// NewHTTPClient creates a new account client talking to the connected-car API.
func NewHTTPClient(params Params, opts Options) (Client, error) {
	b, err := brand.ForRealm(params.Realm)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve account brand")
	}

	if funk.IsEmpty(params.ClientID) || funk.IsEmpty(params.ClientSecret) {
		return nil, errors.New("client id and client secret are required")
	}

	authURL, tokenURL := b.AuthorizeURL(), b.TokenURL()
	if opts.AuthBaseURL != "" {
		base := strings.TrimSuffix(opts.AuthBaseURL, "/")
		authURL, tokenURL = base+"/am/oauth2/authorize", base+"/am/oauth2/access_token"
	}

	return &httpClient{
		params: params,
		opts:   opts,
		oauth: &oauth2.Config{
			ClientID:     params.ClientID,
			ClientSecret: params.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			RedirectURL: b.RedirectURL(params.CountryCode),
			Scopes:      defaultScopes,
		},
	}, nil
}

// NewFactory returns a Factory creating HTTP account clients with the provided options.
func NewFactory(opts Options) Factory {
	return func(params Params) (Client, error) {
		return NewHTTPClient(params, opts)
	}
}

func (c *httpClient) AuthorizeURL() string {
	return c.oauth.AuthCodeURL("", oauth2.SetAuthURLParam("realm", c.params.Realm))
}

func (c *httpClient) Connect(ctx context.Context, code string) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: c.opts.Timeout})

	token, err := c.oauth.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return errors.Wrap(err, "failed to exchange authorization code")
	}

	log.WithField("customer_id", c.params.CustomerID).
		WithField("expires_at", token.Expiry.Format(time.RFC3339)).
		Info("account: authorization code exchanged")

	vehicles, err := c.fetchVehicles(ctx, token)
	if err != nil {
		return err
	}

	c.token = token
	c.vehicles = vehicles

	return nil
}

func (c *httpClient) SaveConfig(name string) error {
	if c.token == nil {
		return ErrNotConnected
	}

	cfg := Config{
		Params:       c.params,
		Token:        c.token,
		ConfiguredAt: clock.Now().UTC(),
	}

	if err := storage.NewFile(c.opts.WorkDir, name).Save(cfg); err != nil {
		return errors.Wrap(err, "failed to save account config")
	}

	return nil
}

func (c *httpClient) Vehicles(_ context.Context) ([]*Vehicle, error) {
	if c.token == nil {
		return nil, ErrNotConnected
	}

	return c.vehicles, nil
}

func (c *httpClient) VehicleByVIN(vin string) (*Vehicle, bool) {
	for _, v := range c.vehicles {
		if v.VIN == vin {
			return v, true
		}
	}

	return nil, false
}

func (c *httpClient) SaveVehicles() error {
	if c.token == nil {
		return ErrNotConnected
	}

	now := clock.Now().UTC()
	for _, v := range c.vehicles {
		v.UpdatedAt = now
	}

	if err := storage.NewFile(c.opts.WorkDir, c.params.Prefix+carsFile).Save(c.vehicles); err != nil {
		return errors.Wrap(err, "failed to save account vehicles")
	}

	return nil
}

func (c *httpClient) fetchVehicles(ctx context.Context, token *oauth2.Token) ([]*Vehicle, error) {
	u := strings.TrimSuffix(c.opts.APIBaseURL, "/") + vehiclesURI + "?" +
		url.Values{"client_id": []string{c.params.ClientID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vehicles request")
	}

	req.Header.Set(realmHeader, c.params.Realm)
	req.Header.Set(acceptHeader, halJSON)

	hc := c.oauth.Client(ctx, token)
	hc.Timeout = c.opts.Timeout

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform vehicles api call")
	}

	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode != http.StatusOK {
		return nil, api.HTTPError{
			Err:        fmt.Errorf("expected response code to be %d, but got %d instead", http.StatusOK, resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       string(b),
		}
	}

	if err != nil {
		return nil, errors.Wrap(err, "could not read response body")
	}

	body := vehiclesResponse{}

	if err = json.Unmarshal(b, &body); err != nil {
		return nil, errors.Wrap(err, "could not decode response body")
	}

	vehicles := make([]*Vehicle, 0, len(body.Embedded.Vehicles))

	for _, v := range body.Embedded.Vehicles {
		if funk.IsEmpty(v.VIN) {
			log.WithField("id", v.ID).Warn("account: skipping a vehicle without VIN")

			continue
		}

		vehicles = append(vehicles, &Vehicle{
			ID:    v.ID,
			VIN:   v.VIN,
			Label: UnknownLabel,
			Brand: v.Brand,
		})
	}

	log.WithField("vehicles", len(vehicles)).Info("account: vehicles loaded")

	return vehicles, nil
}

// LoadConfig reads a persisted account client config from dir.
func LoadConfig(dir, name string) (*Config, error) {
	cfg := &Config{}

	if err := storage.NewFile(dir, name).Load(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load account config")
	}

	if cfg.Token == nil {
		return nil, errors.Errorf("account config %s does not contain a token", name)
	}

	return cfg, nil
}

// LoadVehicles reads a persisted vehicle list from dir.
func LoadVehicles(dir, prefix string) ([]*Vehicle, error) {
	var vehicles []*Vehicle

	if err := storage.NewFile(dir, prefix+carsFile).Load(&vehicles); err != nil {
		return nil, errors.Wrap(err, "failed to load account vehicles")
	}

	return vehicles, nil
}

type vehiclesResponse struct {
	Embedded struct {
		Vehicles []struct {
			ID    string `json:"id"`
			VIN   string `json:"vin"`
			Brand string `json:"brand"`
		} `json:"vehicles"`
	} `json:"_embedded"`
}
