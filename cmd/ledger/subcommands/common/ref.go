package common

import "github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"

// RefOf builds the reference to a resource from a command argument,
// taking it as a name when byName is set, or as an id otherwise.
func RefOf(arg string, byName bool) analytics.Ref {
	if byName {
		return analytics.ByName(arg)
	}
	return analytics.ByID(arg)
}
