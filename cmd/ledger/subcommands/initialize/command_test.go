package initialize_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/initialize"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/commandline"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/logger"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/configs/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youta-t/flarc"
)

func TestInitCommand(t *testing.T) {
	t.Setenv("LEDGER_ANALYTICS_API_KEY", "")
	t.Setenv("LEDGER_ANALYTICS_HOST", "")

	type when struct {
		existing profiles.ProfileStore
		profile  string
		host     string
		apiKey   string
		flags    initialize.Flags
	}
	type then struct {
		err     error
		profile string
		want    *profiles.Profile
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			store := filepath.Join(t.TempDir(), ".ledger", "profile")
			if when.existing != nil {
				require.NoError(t, when.existing.Save(store))
			}

			err := initialize.Task()(
				context.Background(),
				logger.Null(),
				common.CommonFlags{
					Profile:      when.profile,
					ProfileStore: store,
					Host:         when.host,
					APIKey:       when.apiKey,
				},
				commandline.MockCommandline[initialize.Flags]{
					Fullname_: "ledger init",
					Flags_:    when.flags,
				},
				[]any{},
			)
			if then.err != nil {
				assert.ErrorIs(t, err, then.err)
				return
			}
			require.NoError(t, err)

			saved, err := profiles.LoadProfileStore(store)
			require.NoError(t, err)
			got, err := saved.Get(then.profile)
			require.NoError(t, err)
			assert.Equal(t, then.want, got)

			stat, err := os.Stat(store)
			require.NoError(t, err)
			if filepath.Separator == '/' {
				assert.Equal(t, os.FileMode(0600), stat.Mode().Perm())
			}
		}
	}

	t.Run("it creates the default profile in a new store", theory(
		when{
			host:   "https://analytics.example.com/analytics",
			apiKey: "abc.123",
			flags:  initialize.Flags{PollInterval: 500 * time.Millisecond, PollTimeout: time.Minute},
		},
		then{
			profile: "default",
			want: &profiles.Profile{
				Host:         "https://analytics.example.com/analytics/",
				APIKey:       "abc.123",
				PollInterval: "500ms",
				PollTimeout:  "1m0s",
			},
		},
	))

	t.Run("it adds a named profile next to existing ones", theory(
		when{
			existing: profiles.ProfileStore{"default": {Host: "https://a.example.com/", APIKey: "a"}},
			profile:  "staging",
			host:     "https://b.example.com/analytics/",
			apiKey:   "b",
			flags:    initialize.Flags{Async: true},
		},
		then{
			profile: "staging",
			want: &profiles.Profile{
				Host: "https://b.example.com/analytics/", APIKey: "b", Asynchronous: true,
			},
		},
	))

	t.Run("it refuses to overwrite a profile without --force", theory(
		when{
			existing: profiles.ProfileStore{"default": {APIKey: "a"}},
			apiKey:   "b",
		},
		then{err: flarc.ErrUsage},
	))

	t.Run("it overwrites a profile with --force", theory(
		when{
			existing: profiles.ProfileStore{"default": {APIKey: "a"}},
			apiKey:   "b",
			flags:    initialize.Flags{Force: true},
		},
		then{
			profile: "default",
			want:    &profiles.Profile{Host: "http://localhost:8000/analytics/", APIKey: "b"},
		},
	))

	t.Run("it requires an api key", theory(
		when{host: "https://analytics.example.com/"},
		then{err: flarc.ErrUsage},
	))

	t.Run("it rejects a relative host", theory(
		when{host: "analytics", apiKey: "a"},
		then{err: profiles.ErrProfileInvalid},
	))

	t.Run("it reports an unreadable CA certificate", func(t *testing.T) {
		err := initialize.Task()(
			context.Background(),
			logger.Null(),
			common.CommonFlags{ProfileStore: filepath.Join(t.TempDir(), "profile"), APIKey: "a"},
			commandline.MockCommandline[initialize.Flags]{
				Flags_: initialize.Flags{CACert: filepath.Join(t.TempDir(), "missing.pem")},
			},
			[]any{},
		)
		assert.True(t, errors.Is(err, os.ErrNotExist), err)
	})
}
