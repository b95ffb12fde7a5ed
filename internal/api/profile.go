package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/config"
)

const (
	userURI = "/api/v1/user"

	profileWidth       = 1080
	profileContentType = "application/json;charset=UTF-8"
	profileUserAgent   = "okhttp/4.8.0"
	profileSourceAgent = "App-Android"

	sourceAgentHeader = "Source-Agent"
	tokenHeader       = "Token"
	versionHeader     = "Version"
)

// ProfileFetcher is the interface for the user profile endpoint.
type ProfileFetcher interface {
	// FetchProfile exchanges an access token for the user profile.
	// Any failure is reported as *AuthenticationError.
	FetchProfile(ctx context.Context, req ProfileRequest) (*UserProfile, error)
}

// ProfileOptions configures the user profile fetcher.
type ProfileOptions struct {
	// HostTemplate is a format string taking the lower-cased brand code.
	HostTemplate string
	AppVersion   string
	KeyPair      config.KeyPair
	Timeout      time.Duration
	// TLSConfig is an optional base configuration, e.g. with custom root CAs.
	TLSConfig *tls.Config
}

type profileFetcher struct {
	opts ProfileOptions
}

// NewProfileFetcher returns a new instance of ProfileFetcher.
func NewProfileFetcher(opts ProfileOptions) ProfileFetcher {
	return &profileFetcher{
		opts: opts,
	}
}

func (f *profileFetcher) FetchProfile(ctx context.Context, req ProfileRequest) (*UserProfile, error) {
	host := fmt.Sprintf(f.opts.HostTemplate, strings.ToLower(req.BrandCode))

	httpReq, err := newRequestBuilder(ctx, http.MethodPost, host+userURI).
		withQuery(url.Values{
			"culture": []string{req.Culture},
			"width":   []string{strconv.Itoa(profileWidth)},
			"version": []string{f.opts.AppVersion},
		}).
		withBody(profileBody{SiteCode: req.SiteCode, Ticket: req.Token}).
		addHeader(connectionHeader, keepAlive).
		addHeader(contentTypeHeader, profileContentType).
		addHeader(sourceAgentHeader, profileSourceAgent).
		addHeader(tokenHeader, req.Token).
		addHeader(userAgentHeader, profileUserAgent).
		addHeader(versionHeader, f.opts.AppVersion).
		build()
	if err != nil {
		return nil, f.authError(host, req, "failed to create user profile request", err)
	}

	client, release, err := f.mutualTLSClient()
	if err != nil {
		return nil, f.authError(host, req, "failed to prepare mutual TLS", err)
	}

	defer release()

	body, err := exchange(client, httpReq)
	if err != nil {
		return nil, f.authError(host, req, "user profile request failed", err).withResponse(body)
	}

	payload := profileResponse{}

	if err = decodeBody(body, &payload); err != nil {
		return nil, f.authError(host, req, "could not read user profile response", err).withResponse(body)
	}

	if err = payload.Success.validate(); err != nil {
		return nil, f.authError(host, req, "invalid user profile response", err).withResponse(body)
	}

	log.WithField("user_id", payload.Success.ID).
		WithField("vehicles", len(payload.Success.Vehicles)).
		Debug("profile: user profile fetched")

	return payload.Success, nil
}

// mutualTLSClient loads the key pair and builds a client dedicated to a single request.
// The returned release function closes the connections kept by the client.
func (f *profileFetcher) mutualTLSClient() (*http.Client, func(), error) {
	cert, err := f.opts.KeyPair.Load()
	if err != nil {
		return nil, nil, err
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if f.opts.TLSConfig != nil {
		tlsConfig = f.opts.TLSConfig.Clone()
	}

	tlsConfig.Certificates = []tls.Certificate{cert}

	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, nil, errors.New("default http transport has an unexpected type")
	}

	transport = transport.Clone()
	transport.TLSClientConfig = tlsConfig

	client := &http.Client{
		Transport: transport,
		Timeout:   f.opts.Timeout,
	}

	return client, transport.CloseIdleConnections, nil
}

func (f *profileFetcher) authError(host string, req ProfileRequest, op string, err error) *AuthenticationError {
	return &AuthenticationError{
		Op:       op,
		Host:     host,
		SiteCode: req.SiteCode,
		Err:      err,
	}
}
