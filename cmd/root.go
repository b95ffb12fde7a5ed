package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/futurehomeno/cliffhanger/bootstrap"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/futurehomeno/edge-psa-setup/internal/config"
)

// Execute is an entry point to the setup command.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		logFailure(err)

		os.Exit(1)
	}
}

// logFailure logs the error together with its causes and their stack traces.
func logFailure(err error) {
	log.WithError(err).
		WithField("stack", fmt.Sprintf("%+v", err)).
		Error("setup failed")
}

// NewRootCommand creates the setup command.
func NewRootCommand() *cobra.Command {
	opts := NewSetupOptions()

	cmd := &cobra.Command{
		Use:   "psa-setup",
		Short: "Link a PSA group account and bootstrap charge control of its vehicles",
		Long: `psa-setup authenticates with the brand account of a Peugeot, Citroen, DS, Opel or Vauxhall
application, connects the account client with an authorization code, labels the account vehicles
and persists default charge controls for each of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return errors.Wrap(err, "failed to read options")
			}

			if errs := opts.Validate(); len(errs) > 0 {
				return aggregate(errs)
			}

			cfg, err := loadConfig(opts.WorkDir, opts.ConfigFile)
			if err != nil {
				return err
			}

			bootstrap.InitializeLogger(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)

			services := newServiceContainer(cfg, opts.Prefix)

			if err = services.configService.GetKeyPair().Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts, services)
		},
	}

	opts.AddFlags(cmd.Flags())

	return cmd
}

// loadConfig creates the default configuration and applies the optional configuration file on top of it.
func loadConfig(workDir, configFile string) (*config.Config, error) {
	cfg := config.New(workDir)

	if configFile == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %s", configFile)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode configuration file %s", configFile)
	}

	cfg.WorkDir = workDir

	return cfg, nil
}

func run(ctx context.Context, in io.Reader, out io.Writer, opts *SetupOptions, services *serviceContainer) error {
	runner := services.getRunner()

	profiled, err := runner.Begin(ctx, opts.Request())
	if err != nil {
		return err
	}

	code := opts.Code
	if code == "" {
		_, _ = fmt.Fprintf(out, "Open the following address in a browser, log in and copy the code of the final redirect:\n%s\n", profiled.AuthorizeURL())
		_, _ = fmt.Fprint(out, "Code: ")

		code, err = readCode(in)
		if err != nil {
			return err
		}
	}

	result, err := runner.Finish(ctx, profiled, code, services.getController())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Your vehicles:\n")

	for _, v := range result.Vehicles {
		_, _ = fmt.Fprintf(out, "  %s\t%s\n", v.VIN, v.Label)
	}

	log.WithField("session", result.SessionID).
		WithField("customer_id", result.CustomerID).
		WithField("vehicles", len(result.Vehicles)).
		WithField("labeled", result.Labeled).
		Info("setup: account configured")

	return nil
}

func readCode(in io.Reader) (string, error) {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", errors.Wrap(err, "failed to read authorization code")
		}

		return "", errors.New("authorization code is required")
	}

	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return "", errors.New("authorization code is required")
	}

	return code, nil
}
