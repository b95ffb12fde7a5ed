package brand

import (
	"strings"

	"github.com/pkg/errors"
)

// Brand holds the static routing and authentication-domain data of a manufacturer application.
type Brand struct {
	PackageID      string
	Code           string
	Realm          string
	AppName        string
	IDPHost        string
	RedirectScheme string
}

// ErrUnknownPackage is returned when an application package is not a supported brand application.
var ErrUnknownPackage = errors.New("unknown application package")

var brands = []Brand{
	{
		PackageID:      "com.psa.mym.mypeugeot",
		Code:           "AP",
		Realm:          "clientsB2CPeugeot",
		AppName:        "MyPeugeot",
		IDPHost:        "idpcvs.peugeot.com",
		RedirectScheme: "mymap",
	},
	{
		PackageID:      "com.psa.mym.mycitroen",
		Code:           "AC",
		Realm:          "clientsB2CCitroen",
		AppName:        "MyCitroen",
		IDPHost:        "idpcvs.citroen.com",
		RedirectScheme: "mymacsdk",
	},
	{
		PackageID:      "com.psa.mym.myds",
		Code:           "DS",
		Realm:          "clientsB2CDS",
		AppName:        "MyDS",
		IDPHost:        "idpcvs.driveds.com",
		RedirectScheme: "mymdssdk",
	},
	{
		PackageID:      "com.psa.mym.myopel",
		Code:           "OP",
		Realm:          "clientsB2COpel",
		AppName:        "MyOpel",
		IDPHost:        "idpcvs.opel.com",
		RedirectScheme: "mymopsdk",
	},
	{
		PackageID:      "com.psa.mym.myvauxhall",
		Code:           "VX",
		Realm:          "clientsB2CVauxhall",
		AppName:        "MyVauxhall",
		IDPHost:        "idpcvs.vauxhall.co.uk",
		RedirectScheme: "mymvxsdk",
	},
}

// ForPackage returns the brand of an application package identifier.
func ForPackage(packageID string) (Brand, error) {
	for _, b := range brands {
		if b.PackageID == packageID {
			return b, nil
		}
	}

	return Brand{}, errors.Wrapf(ErrUnknownPackage, "package %q", packageID)
}

// ForRealm returns the brand owning an authentication realm.
func ForRealm(realm string) (Brand, error) {
	for _, b := range brands {
		if b.Realm == realm {
			return b, nil
		}
	}

	return Brand{}, errors.Wrapf(ErrUnknownPackage, "realm %q", realm)
}

// PackageIDs lists identifiers of all supported applications.
func PackageIDs() []string {
	ids := make([]string, 0, len(brands))
	for _, b := range brands {
		ids = append(ids, b.PackageID)
	}

	return ids
}

// RedirectURL returns the OAuth redirect registered for the brand application in a country.
func (b Brand) RedirectURL(countryCode string) string {
	return b.RedirectScheme + "://oauth2redirect/" + strings.ToLower(countryCode)
}

// AuthorizeURL returns the identity provider authorization endpoint.
func (b Brand) AuthorizeURL() string {
	return "https://" + b.IDPHost + "/am/oauth2/authorize"
}

// TokenURL returns the identity provider token endpoint.
func (b Brand) TokenURL() string {
	return "https://" + b.IDPHost + "/am/oauth2/access_token"
}
