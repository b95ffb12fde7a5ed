package test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-psa-setup/internal/config"
)

var (
	// PackageID is the application package used in tests.
	PackageID = "com.psa.mym.mypeugeot"
	// BrandCode is the brand code of PackageID.
	BrandCode = "AP"
	// CountryCode is the country used in tests.
	CountryCode = "FR"
	// SiteCode is the site code used in tests.
	SiteCode = "AP_FR_ESP"
	// Culture is the culture used in tests.
	Culture = "fr_FR"
	// AccessToken is the access token used in tests.
	AccessToken = "test.access.token"
	// UserID is the profile user ID used in tests.
	UserID = "12345"
	// VIN is the vehicle identification number used in tests.
	VIN = "VF3ABC"
)

// NewKeyPair generates a self-signed client certificate and writes it as PEM files into a temporary directory.
func NewKeyPair(t *testing.T) config.KeyPair {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "psa-setup-test-client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	pair := config.KeyPair{
		CertFile: filepath.Join(dir, "public.pem"),
		KeyFile:  filepath.Join(dir, "private.pem"),
	}

	writePEM(t, pair.CertFile, "CERTIFICATE", der)
	writePEM(t, pair.KeyFile, "EC PRIVATE KEY", keyDER)

	return pair
}

// NewMutualTLSServer starts a TLS test server that rejects clients without a certificate.
// The returned configuration trusts the server and can be used as a client base configuration.
func NewMutualTLSServer(t *testing.T, handler http.Handler) (*httptest.Server, *tls.Config) {
	t.Helper()

	s := httptest.NewUnstartedServer(handler)
	s.TLS = &tls.Config{
		ClientAuth: tls.RequireAnyClientCert,
		MinVersion: tls.VersionTLS12,
	}
	s.StartTLS()

	t.Cleanup(s.Close)

	pool := x509.NewCertPool()
	pool.AddCert(s.Certificate())

	return s, &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
}

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	require.NoError(t, err)

	defer f.Close()

	require.NoError(t, pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}))
}
