package common

import (
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/configs/profiles"
)

// CommonFlags are flags of the root command, passed to every subcommand.
type CommonFlags struct {
	Profile      string `flag:"profile" help:"profile name to use. (default: \"default\")"`
	ProfileStore string `flag:"profile-store" help:"path to profile store file"`
	EnvFile      string `flag:"env-file" help:"path to a .env file to be loaded"`
	Host         string `flag:"host" metavar:"URL" help:"base URL of the analytics API. It overrides the profile."`
	APIKey       string `flag:"api-key" help:"API key. It overrides the profile."`
	Verbose      bool   `flag:"verbose" alias:"v" help:"print debug logs"`
}

type CommonFlagOption func(*CommonFlags) *CommonFlags

func WithProfile(profile string, store string) CommonFlagOption {
	return func(cf *CommonFlags) *CommonFlags {
		cf.Profile = profile
		cf.ProfileStore = store
		return cf
	}
}

func WithEnvFile(path string) CommonFlagOption {
	return func(cf *CommonFlags) *CommonFlags {
		cf.EnvFile = path
		return cf
	}
}

// Flags returns default CommonFlags.
//
// The profile store is ~/.ledger/profile, and the .env file is read from the working directory.
func Flags(options ...CommonFlagOption) (CommonFlags, error) {
	store, err := profiles.DefaultStorePath()
	if err != nil {
		return CommonFlags{}, err
	}
	cf := &CommonFlags{ProfileStore: store, EnvFile: ".env"}
	for _, o := range options {
		cf = o(cf)
	}
	return *cf, nil
}
