package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/futurehomeno/edge-psa-setup/internal/brand"
	"github.com/futurehomeno/edge-psa-setup/internal/setup"
)

const envPrefix = "PSA_SETUP"

// SetupOptions contains the end-user input of a setup run.
type SetupOptions struct {
	// PackageID is the identifier of the manufacturer application, e.g. com.psa.mym.mypeugeot.
	PackageID string `json:"package" mapstructure:"package"`
	Email     string `json:"email" mapstructure:"email"`
	Password  string `json:"password" mapstructure:"password"`
	Country   string `json:"country" mapstructure:"country"`
	// Prefix is prepended to the names of all persisted documents.
	Prefix string `json:"prefix" mapstructure:"prefix"`
	// Code is the authorization code. When empty it is read from the standard input.
	Code string `json:"code" mapstructure:"code"`

	ConfigFile string `json:"config" mapstructure:"config"`
	WorkDir    string `json:"work_dir" mapstructure:"work-dir"`
	EnvFile    string `json:"env_file" mapstructure:"env-file"`
}

// NewSetupOptions creates a SetupOptions object with default parameters.
func NewSetupOptions() *SetupOptions {
	return &SetupOptions{
		WorkDir: "./",
		EnvFile: ".env",
	}
}

// AddFlags adds flags related to the setup run to the specified FlagSet.
func (o *SetupOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.PackageID, "package", o.PackageID, "Manufacturer application package, one of: "+strings.Join(brand.PackageIDs(), ", ")+".")
	fs.StringVar(&o.Email, "email", o.Email, "Account email.")
	fs.StringVar(&o.Password, "password", o.Password, "Account password.")
	fs.StringVar(&o.Country, "country", o.Country, "Two letter country code of the account, e.g. FR.")
	fs.StringVar(&o.Prefix, "prefix", o.Prefix, "Prefix of the persisted configuration files.")
	fs.StringVar(&o.Code, "code", o.Code, "Authorization code. Read from the standard input when not set.")
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Optional configuration file.")
	fs.StringVarP(&o.WorkDir, "work-dir", "c", o.WorkDir, "Work directory.")
	fs.StringVar(&o.EnvFile, "env-file", o.EnvFile, "Optional file with "+envPrefix+"_* environment variables.")
}

// Complete fills options not given as flags from the environment.
func (o *SetupOptions) Complete(fs *pflag.FlagSet) error {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	return v.Unmarshal(o)
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SetupOptions) Validate() []error {
	errs := []error{}

	if _, err := brand.ForPackage(o.PackageID); err != nil {
		errs = append(errs, err)
	}

	if o.Email == "" {
		errs = append(errs, errors.New("--email is required"))
	}

	if o.Password == "" {
		errs = append(errs, errors.New("--password is required"))
	}

	if len(o.Country) != 2 { //nolint:gomnd
		errs = append(errs, errors.New("--country must be a two letter country code"))
	}

	return errs
}

// Request returns the setup request of the options.
func (o *SetupOptions) Request() setup.Request {
	return setup.Request{
		PackageID:   o.PackageID,
		CountryCode: strings.ToUpper(o.Country),
		Email:       o.Email,
		Password:    o.Password,
		Prefix:      o.Prefix,
	}
}

func aggregate(errs []error) error {
	return errors.Join(errs...)
}
