package common

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/configs/profiles"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Environment looks up environment variables.
type Environment func(key string) string

// LoadEnvironment returns Environment backed by the process environment and the .env file.
//
// Variables in the process environment take precedence over the file.
// A missing file is not an error.
func LoadEnvironment(dotenv string) (Environment, error) {
	values := map[string]string{}
	if dotenv != "" {
		v, err := godotenv.Read(dotenv)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: cannot read %s", err, dotenv)
		}
		if v != nil {
			values = v
		}
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return values[key]
	}, nil
}

// Settings are the connection settings of a command.
type Settings struct {
	Host         string
	APIKey       string
	Asynchronous bool
	PollInterval time.Duration
	PollTimeout  time.Duration

	// base64 encoded CA certificate
	CACert string
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Resolve decides Settings from flags, the profile and env.
//
// Each value is taken from the first source which has it, in the order:
// flag, profile, environment variable, default.
//
// The profile store and the "default" profile are optional unless --profile is given.
func Resolve(flags CommonFlags, env Environment) (Settings, error) {
	store := profiles.ProfileStore{}
	if flags.ProfileStore != "" {
		s, err := profiles.LoadProfileStore(flags.ProfileStore)
		switch {
		case err == nil:
			store = s
		case errors.Is(err, profiles.ErrProfileStoreNotFound) && flags.Profile == "":
			// no-op
		case errors.Is(err, profiles.ErrProfileStoreNotFound):
			return Settings{}, fmt.Errorf("%w. Please try `ledger init` first", err)
		default:
			return Settings{}, fmt.Errorf("%w: failed to load profile store (%s)", err, flags.ProfileStore)
		}
	}

	prof, err := store.Get(flags.Profile)
	if err != nil {
		if flags.Profile != "" {
			return Settings{}, fmt.Errorf("%w in the profile store (%s)", err, flags.ProfileStore)
		}
		prof = &profiles.Profile{}
	}
	if err := prof.Verify(); err != nil {
		return Settings{}, fmt.Errorf(
			"%w. Your profile (%s in %s) can be broken; try `ledger init` again",
			err, firstOf(flags.Profile, profiles.DefaultProfileName), flags.ProfileStore,
		)
	}

	s := Settings{
		Host:         firstOf(flags.Host, prof.Host, env(analytics.EnvHost), analytics.DefaultHost),
		APIKey:       firstOf(flags.APIKey, prof.APIKey, env(analytics.EnvAPIKey)),
		Asynchronous: prof.Asynchronous,
		PollInterval: prof.Interval(),
		PollTimeout:  prof.Timeout(),
		CACert:       prof.Cert.CA,
	}
	if s.APIKey == "" {
		return Settings{}, laerr.New(
			laerr.ErrAuthentication,
			fmt.Sprintf("api key is not found. Pass --api-key, run `ledger init`, or set %s", analytics.EnvAPIKey),
		)
	}
	return s, nil
}

// Options returns client options to connect with the settings.
func (s Settings) Options(logger logrus.FieldLogger) []analytics.Option {
	opts := []analytics.Option{
		analytics.WithHost(s.Host),
		analytics.WithAPIKey(s.APIKey),
		analytics.WithAsynchronous(s.Asynchronous),
		analytics.WithCACert(s.CACert),
		analytics.WithLogger(logger),
	}
	if 0 < s.PollInterval {
		opts = append(opts, analytics.WithPollInterval(s.PollInterval))
	}
	if 0 < s.PollTimeout {
		opts = append(opts, analytics.WithPollTimeout(s.PollTimeout))
	}
	return opts
}
