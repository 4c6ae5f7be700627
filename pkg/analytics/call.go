package analytics

import (
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
)

type callConfig struct {
	async       *bool
	pollOptions []tasks.Option
}

// CallOption modifies a single fit or predict call.
type CallOption func(*callConfig) *callConfig

// Async overrides the asynchronous mode of the client for the call.
func Async(async bool) CallOption {
	return func(c *callConfig) *callConfig {
		c.async = &async
		return c
	}
}

// PollWith adds polling options for the call, like tasks.WithTimeout.
func PollWith(options ...tasks.Option) CallOption {
	return func(c *callConfig) *callConfig {
		c.pollOptions = append(c.pollOptions, options...)
		return c
	}
}

func (c *Client) callConfig(options []CallOption) *callConfig {
	conf := &callConfig{}
	for _, o := range options {
		conf = o(conf)
	}
	if conf.async == nil {
		async := c.asynchronous
		conf.async = &async
	}
	return conf
}
