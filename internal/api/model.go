package api

// AuthRequest contains the input of the brand authentication handshake.
type AuthRequest struct {
	SiteCode string
	Culture  string
	Email    string
	Password string
	// Host is the brand identity host extracted from the application package.
	Host string
}

// ProfileRequest contains the input of the user profile fetch.
type ProfileRequest struct {
	Token     string
	Culture   string
	SiteCode  string
	BrandCode string
}

// UserProfile represents the profile of the authenticated user.
type UserProfile struct {
	ID       string           `json:"id"`
	Vehicles []ProfileVehicle `json:"vehicles"`
}

// ProfileVehicle represents a vehicle as listed in the user profile. Both fields are optional.
type ProfileVehicle struct {
	VIN        string `json:"vin,omitempty"`
	ShortLabel string `json:"short_label,omitempty"`
}

func (p *UserProfile) validate() error {
	if p == nil {
		return MissingFieldError{Field: "success"}
	}

	if p.ID == "" {
		return MissingFieldError{Field: "success.id"}
	}

	return nil
}

// authEnvelope represents the jsonRequest payload of the access token request.
type authEnvelope struct {
	SiteCode string     `json:"siteCode"`
	Culture  string     `json:"culture"`
	Action   string     `json:"action"`
	Fields   authFields `json:"fields"`
}

type authFields struct {
	Email    fieldValue `json:"USR_EMAIL"`
	Password fieldValue `json:"USR_PASSWORD"`
}

type fieldValue struct {
	Value string `json:"value"`
}

// accessTokenResponse represents the access token response body.
type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// profileBody represents the user profile request body.
type profileBody struct {
	SiteCode string `json:"site_code"`
	Ticket   string `json:"ticket"`
}

// profileResponse represents the user profile response body.
type profileResponse struct {
	Success *UserProfile `json:"success"`
}
