// Package profiles is a store of connection settings for the analytics server.
//
// The store is a yaml file (~/.ledger/profile by default) mapping profile names to Profile:
//
//	default:
//	  host: https://analytics.example.com/analytics/
//	  apiKey: "..."
//	  asynchronous: false
//	  pollInterval: 2s
//	  pollTimeout: 5m
//	  cert:
//	    ca: BASE64_ENCODED_CERT
package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hectane/go-acl"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/configs/open"
	yaml "gopkg.in/yaml.v3"
)

var (
	ErrProfileStoreNotFound = errors.New("profile store is not found")
	ErrProfileNotFound      = errors.New("profile is not found")
	ErrCannotUpdateStore    = errors.New("cannot update profile store")
	ErrProfileInvalid       = errors.New("profile is invalid")
)

// DefaultProfileName is used when no profile name is given.
const DefaultProfileName = "default"

// DefaultStorePath returns ~/.ledger/profile .
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ledger", "profile"), nil
}

type Cert struct {
	// base64 encoded CA certificate (PEM)
	CA string `yaml:"ca,omitempty"`
}

// Profile is a connection setting.
//
// Empty fields are filled by the environment or defaults when a client is built.
type Profile struct {
	// base URL of analytics API, like "https://example.com/analytics/"
	Host string `yaml:"host,omitempty"`

	// API key. It is sent as "Authorization: Api-Key ..." header.
	APIKey string `yaml:"apiKey,omitempty"`

	// Asynchronous makes fit and predict return without waiting the task.
	Asynchronous bool `yaml:"asynchronous,omitempty"`

	// PollInterval and PollTimeout are durations in time.ParseDuration format.
	PollInterval string `yaml:"pollInterval,omitempty"`
	PollTimeout  string `yaml:"pollTimeout,omitempty"`

	Cert Cert `yaml:"cert,omitempty"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

func verifyDuration(s string) bool {
	if s == "" {
		return true
	}
	d, err := time.ParseDuration(s)
	return err == nil && 0 < d
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if p.Host != "" && !verifyUrl(p.Host) {
		return fmt.Errorf("%w: host is not URL: %s", ErrProfileInvalid, p.Host)
	}
	if !verifyDuration(p.PollInterval) {
		return fmt.Errorf("%w: pollInterval is not positive duration: %s", ErrProfileInvalid, p.PollInterval)
	}
	if !verifyDuration(p.PollTimeout) {
		return fmt.Errorf("%w: pollTimeout is not positive duration: %s", ErrProfileInvalid, p.PollTimeout)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	return nil
}

// Interval returns PollInterval as time.Duration, or 0 when it is not set.
func (p *Profile) Interval() time.Duration {
	d, _ := time.ParseDuration(p.PollInterval)
	return d
}

// Timeout returns PollTimeout as time.Duration, or 0 when it is not set.
func (p *Profile) Timeout() time.Duration {
	d, _ := time.ParseDuration(p.PollTimeout)
	return d
}

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

// LoadProfileStore loads profile store from file.
func LoadProfileStore(path string) (ProfileStore, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, path)
		}
		return nil, err
	}
	return Unmarshal(buf)
}

// Unmarshal profile store from yaml.
func Unmarshal(buf []byte) (ProfileStore, error) {
	ret := ProfileStore{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	for name, p := range ret {
		if p == nil {
			ret[name] = &Profile{}
		}
	}
	return ret, nil
}

// Get returns the profile with the name.
//
// Empty name means DefaultProfileName.
func (ps ProfileStore) Get(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	p, ok := ps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// Names returns profile names, sorted.
func (ps ProfileStore) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Save profile store to file.
//
// The previous content is kept as "<path>.backup" until the new content has been written.
// Both files are readable only by the current user.
func (ps ProfileStore) Save(path string) error {
	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}

	bkpath := path + ".backup"
	hasBackup := false
	if _, err := os.Stat(path); err == nil {
		// existing file may have loose permissions.
		if err := acl.Chmod(path, open.FileMode); err != nil {
			return fmt.Errorf("%w: %w", ErrCannotUpdateStore, err)
		}
		if err := os.Rename(path, bkpath); err != nil {
			return fmt.Errorf("%w: cannot make backup: %w", ErrCannotUpdateStore, err)
		}
		hasBackup = true
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrCannotUpdateStore, err)
	}

	written := false
	defer func() {
		if !hasBackup {
			return
		}
		if written {
			os.Remove(bkpath)
		} else {
			os.Rename(bkpath, path)
		}
	}()

	f, err := open.NewSafeFile(path)
	if err != nil {
		return fmt.Errorf("%w: cannot create a file at %s: %w", ErrCannotUpdateStore, path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotUpdateStore, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotUpdateStore, err)
	}
	written = true
	return nil
}
