package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/jwt"
)

const (
	accessTokenURI = "/GetAccessToken" //nolint:gosec

	jsonRequestParam = "jsonRequest"
	authAction       = "authenticate"
	// authCulture is sent regardless of the user culture, the endpoint is only known to work with it.
	authCulture = "fr-FR"

	authUserAgent   = "okhttp/2.3.0"
	authContentType = "application/json"
)

// Authenticator is the interface for the brand authentication handshake.
type Authenticator interface {
	// Authenticate exchanges end-user credentials for a short-lived access token.
	// Any failure is reported as *AuthenticationError.
	Authenticate(ctx context.Context, req AuthRequest) (string, error)
}

type authenticator struct {
	httpClient *http.Client
}

// NewAuthenticator creates a new instance of the Authenticator.
func NewAuthenticator(httpClient *http.Client) Authenticator {
	return &authenticator{
		httpClient: httpClient,
	}
}

func (a *authenticator) Authenticate(ctx context.Context, req AuthRequest) (string, error) {
	host := strings.TrimSuffix(req.Host, "/")

	if req.Culture != "" && req.Culture != authCulture {
		log.WithField("culture", req.Culture).
			Debugf("authenticator: using %s culture for the access token request", authCulture)
	}

	envelope, err := json.Marshal(authEnvelope{
		SiteCode: req.SiteCode,
		Culture:  authCulture,
		Action:   authAction,
		Fields: authFields{
			Email:    fieldValue{Value: req.Email},
			Password: fieldValue{Value: req.Password},
		},
	})
	if err != nil {
		return "", a.authError(req, "failed to encode access token request", err)
	}

	httpReq, err := newRequestBuilder(ctx, http.MethodPost, host+accessTokenURI).
		withQuery(url.Values{jsonRequestParam: []string{string(envelope)}}).
		addHeader(connectionHeader, keepAlive).
		addHeader(contentTypeHeader, authContentType).
		addHeader(userAgentHeader, authUserAgent).
		build()
	if err != nil {
		return "", a.authError(req, "failed to create access token request", err)
	}

	body, err := exchange(a.httpClient, httpReq)
	if err != nil {
		return "", a.authError(req, "access token request failed", err).withResponse(body)
	}

	payload := accessTokenResponse{}

	if err = decodeBody(body, &payload); err != nil {
		return "", a.authError(req, "could not read access token response", err).withResponse(body)
	}

	if payload.AccessToken == "" {
		return "", a.authError(req, "no access token in response", MissingFieldError{Field: "accessToken"}).withResponse(body)
	}

	a.logExpiry(payload.AccessToken)

	return payload.AccessToken, nil
}

func (a *authenticator) authError(req AuthRequest, op string, err error) *AuthenticationError {
	return &AuthenticationError{
		Op:       op,
		Host:     req.Host,
		SiteCode: req.SiteCode,
		Err:      err,
	}
}

// logExpiry logs the token expiration when the token happens to be a JWT.
func (a *authenticator) logExpiry(token string) {
	expiresAt, err := jwt.ExpirationDate(token)
	if err != nil {
		log.Debug("authenticator: received an opaque access token")

		return
	}

	log.WithField("expires_at", expiresAt.Format(time.RFC3339)).
		Debug("authenticator: received an access token")
}
