package triangle

import (
	tri_create "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/triangle/create"
	tri_list "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/triangle/list"
	tri_rm "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/triangle/rm"
	tri_show "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/triangle/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	create, err := tri_create.New()
	if err != nil {
		return nil, err
	}
	show, err := tri_show.New()
	if err != nil {
		return nil, err
	}
	list, err := tri_list.New()
	if err != nil {
		return nil, err
	}
	rm, err := tri_rm.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate loss triangles.",
		struct{}{},
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("rm", rm),
	)
}
