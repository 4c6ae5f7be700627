package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
	"github.com/youta-t/flarc"
)

// ParseConfig reads a model or predict configuration.
//
// s is a JSON object, or "@" followed by a path to a JSON file. Empty s is nil config.
func ParseConfig(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	buf := []byte(s)
	if path, ok := strings.CutPrefix(s, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read config", err)
		}
		buf = b
	}

	config := map[string]any{}
	if err := json.Unmarshal(buf, &config); err != nil {
		return nil, fmt.Errorf("%w: config should be a JSON object: %w", flarc.ErrUsage, err)
	}
	return config, nil
}

// CallOptions builds options of a fit or predict call.
//
// async forces the asynchronous mode; otherwise the mode of the profile is used.
// Non-positive timeout means the timeout of the profile.
func CallOptions(async bool, timeout time.Duration, progress func(tasks.Event)) []analytics.CallOption {
	opts := []analytics.CallOption{}
	if async {
		opts = append(opts, analytics.Async(true))
	}
	poll := []tasks.Option{}
	if 0 < timeout {
		poll = append(poll, tasks.WithTimeout(timeout))
	}
	if progress != nil {
		poll = append(poll, tasks.WithProgress(progress))
	}
	if len(poll) != 0 {
		opts = append(opts, analytics.PollWith(poll...))
	}
	return opts
}
