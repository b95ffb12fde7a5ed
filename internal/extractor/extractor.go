package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/brand"
	"github.com/futurehomeno/edge-psa-setup/internal/storage"
)

// Credentials are the brand secrets and locale settings shipped inside a manufacturer application.
type Credentials struct {
	Culture      string
	SiteCode     string
	ClientID     string
	ClientSecret string
	// AuthHost is the brand identity host the access token is requested from.
	AuthHost string
}

// Extractor is the interface for obtaining brand credentials of an application package.
type Extractor interface {
	Extract(ctx context.Context, packageID, countryCode string) (*Credentials, error)
}

// ArtifactName returns the name of the application artifact of a package, e.g. mypeugeot.apk.
func ArtifactName(packageID string) string {
	return artifactStem(packageID) + ".apk"
}

func artifactStem(packageID string) string {
	parts := strings.Split(packageID, ".")

	return parts[len(parts)-1]
}

// document is the sidecar written next to an unpacked application artifact.
type document struct {
	HostBrandIDProd string             `json:"host_brandid_prod"`
	ClientID        string             `json:"client_id"`
	ClientSecret    string             `json:"client_secret"`
	Countries       map[string]country `json:"countries"`
}

type country struct {
	Culture  string `json:"culture"`
	SiteCode string `json:"site_code"`
}

type fileExtractor struct {
	dir string
}

// NewFileExtractor returns an extractor reading the values previously extracted from an
// application artifact from its {stem}.json sidecar in dir.
func NewFileExtractor(dir string) Extractor {
	return &fileExtractor{
		dir: dir,
	}
}

func (e *fileExtractor) Extract(_ context.Context, packageID, countryCode string) (*Credentials, error) {
	b, err := brand.ForPackage(packageID)
	if err != nil {
		return nil, err
	}

	file := storage.NewFile(e.dir, artifactStem(packageID)+".json")
	if !file.Exists() {
		return nil, errors.Errorf("extractor: no extracted content of %s found at %s", ArtifactName(packageID), file.Path())
	}

	doc := document{}

	if err = file.Load(&doc); err != nil {
		return nil, errors.Wrap(err, "extractor: failed to read extracted content")
	}

	countryCode = strings.ToUpper(countryCode)

	c, ok := doc.Countries[countryCode]
	if !ok || c.Culture == "" {
		return nil, errors.Errorf("extractor: country %s is not supported by %s", countryCode, ArtifactName(packageID))
	}

	if c.SiteCode == "" {
		c.SiteCode = fmt.Sprintf("%s_%s_ESP", b.Code, countryCode)
	}

	creds := &Credentials{
		Culture:      c.Culture,
		SiteCode:     c.SiteCode,
		ClientID:     doc.ClientID,
		ClientSecret: doc.ClientSecret,
		AuthHost:     doc.HostBrandIDProd,
	}

	if err = creds.validate(); err != nil {
		return nil, errors.Wrapf(err, "extractor: incomplete content of %s", ArtifactName(packageID))
	}

	log.WithField("package", packageID).
		WithField("site_code", creds.SiteCode).
		Debug("extractor: credentials extracted")

	return creds, nil
}

func (c *Credentials) validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("client id is missing")
	case c.ClientSecret == "":
		return errors.New("client secret is missing")
	case c.AuthHost == "":
		return errors.New("auth host is missing")
	}

	return nil
}
