package account

import (
	"context"
	"time"
)

// UnknownLabel is the label of a vehicle whose display name has not been resolved yet.
const UnknownLabel = "unknown"

// Vehicle represents a vehicle registered on the account.
type Vehicle struct {
	ID        string    `json:"id"`
	VIN       string    `json:"vin"`
	Label     string    `json:"label"`
	Brand     string    `json:"brand,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Params are the settings the account client is created with.
type Params struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	CustomerID   string `json:"customer_id"`
	Realm        string `json:"realm"`
	CountryCode  string `json:"country_code"`
	BrandCode    string `json:"brand_code"`
	// Prefix is prepended to the names of the documents persisted by the client.
	Prefix string `json:"prefix"`
}

// VehicleFinder looks up account vehicles by VIN.
type VehicleFinder interface {
	VehicleByVIN(vin string) (*Vehicle, bool)
}

// Client is the interface for the manufacturer account.
type Client interface {
	VehicleFinder

	// AuthorizeURL returns the address the user opens to obtain an authorization code.
	AuthorizeURL() string
	// Connect exchanges the authorization code for a token and loads the account vehicles.
	Connect(ctx context.Context, code string) error
	// SaveConfig persists the client settings and token under name.
	SaveConfig(name string) error
	// Vehicles returns the vehicles loaded by Connect. Returned values are shared with the client.
	Vehicles(ctx context.Context) ([]*Vehicle, error)
	// SaveVehicles persists the current vehicle list.
	SaveVehicles() error
}

// Factory creates an account client.
type Factory func(params Params) (Client, error)
