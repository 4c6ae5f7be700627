package initialize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/configs/profiles"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Async        bool          `flag:"async" help:"make fit and predict return without waiting their tasks"`
	PollInterval time.Duration `flag:"poll-interval" help:"interval between task status queries"`
	PollTimeout  time.Duration `flag:"poll-timeout" help:"how long fit and predict wait for their tasks"`
	CACert       string        `flag:"ca-cert" metavar:"path/to/ca.pem" help:"CA certificate (PEM) to be trusted"`
	Force        bool          `flag:"force" help:"overwrite the profile if it exists"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register a profile to connect the analytics server.",
		Flags{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task()),
		flarc.WithDescription(`
Register a new profile into your profile store.

The host and the API key are taken from --host and --api-key,
or from the environment variables `+analytics.EnvHost+` and `+analytics.EnvAPIKey+`:

    ledger --host https://example.com/analytics/ --api-key KEY init

The name of the profile is given by --profile (default: "default").
`),
	)
}

func Task() common.TaskWithCommonFlag[Flags] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		commonFlag common.CommonFlags,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()

		env, err := common.LoadEnvironment(commonFlag.EnvFile)
		if err != nil {
			return err
		}

		prof := &profiles.Profile{
			Host:         commonFlag.Host,
			APIKey:       commonFlag.APIKey,
			Asynchronous: flags.Async,
		}
		if prof.Host == "" {
			prof.Host = env(analytics.EnvHost)
		}
		if prof.Host == "" {
			prof.Host = analytics.DefaultHost
		}
		prof.Host = analytics.NormalizeHost(prof.Host)
		if prof.APIKey == "" {
			prof.APIKey = env(analytics.EnvAPIKey)
		}
		if prof.APIKey == "" {
			return fmt.Errorf("%w: api key is required. Pass --api-key", flarc.ErrUsage)
		}
		if 0 < flags.PollInterval {
			prof.PollInterval = flags.PollInterval.String()
		}
		if 0 < flags.PollTimeout {
			prof.PollTimeout = flags.PollTimeout.String()
		}
		if flags.CACert != "" {
			pem, err := os.ReadFile(flags.CACert)
			if err != nil {
				return fmt.Errorf("%w: cannot read CA certificate", err)
			}
			prof.Cert.CA = base64.StdEncoding.EncodeToString(pem)
		}
		if err := prof.Verify(); err != nil {
			return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
		}

		store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			store = profiles.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf("%w: failed to load profile store (%s)", err, commonFlag.ProfileStore)
		}

		name := commonFlag.Profile
		if name == "" {
			name = profiles.DefaultProfileName
		}
		if _, ok := store[name]; ok && !flags.Force {
			return fmt.Errorf(
				"%w: profile %s exists in %s. Pass --force to overwrite it",
				flarc.ErrUsage, name, commonFlag.ProfileStore,
			)
		}
		store[name] = prof

		if err := store.Save(commonFlag.ProfileStore); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"profile": name, "host": prof.Host,
		}).Info("profile is saved")
		return nil
	}
}
