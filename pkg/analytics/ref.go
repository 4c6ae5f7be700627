package analytics

import (
	"context"
	"fmt"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/pages"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/rest"
)

// Ref identifies a resource by its id or by its name.
//
// When both are given, ID is used. The zero Ref means "the resource which the handle has".
type Ref struct {
	ID   string
	Name string
}

func ByID(id string) Ref {
	return Ref{ID: id}
}

func ByName(name string) Ref {
	return Ref{Name: name}
}

func (r Ref) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

func (r Ref) String() string {
	switch {
	case r.ID != "":
		return "id=" + r.ID
	case r.Name != "":
		return "name=" + r.Name
	default:
		return "(no identifier)"
	}
}

// listPage GETs the collection.
func listPage(ctx context.Context, requester rest.Requester, endpoint string) (*pages.Page[map[string]any], error) {
	resp, err := requester.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return rest.Decode[pages.Page[map[string]any]](resp)
}

// resolveID decides the id of the resource.
//
// # Args
//
// - ref: caller supplied identifier.
//
// - cached: id the handle has, or "".
//
// - list: lists the collection. It is called only when ref has a name only.
//
// # Returns
//
// - string: id
//
// - error: ErrMissingIdentifier when nothing is given, or ErrResourceNotFound when no item has the name.
func resolveID(
	ctx context.Context, ref Ref, cached string,
	list func(context.Context) (*pages.Page[map[string]any], error),
) (string, error) {
	if ref.ID != "" {
		return ref.ID, nil
	}
	if ref.Name == "" {
		if cached == "" {
			return "", laerr.New(
				laerr.ErrMissingIdentifier,
				"must create or supply an identifier (id or name)",
			)
		}
		return cached, nil
	}

	page, err := list(ctx)
	if err != nil {
		return "", err
	}
	found := page.Filter(func(item map[string]any) bool {
		return stringField(item, "name") == ref.Name
	})
	if len(found) == 0 {
		return "", laerr.New(
			laerr.ErrResourceNotFound, fmt.Sprintf("no resource is named %q", ref.Name),
		)
	}
	id := stringField(found[0], "id")
	if id == "" {
		return "", laerr.New(
			laerr.ErrProtocol, fmt.Sprintf("listed resource %q has no id", ref.Name),
		)
	}
	return id, nil
}

// stringField returns m[key] as string. Numbers are formatted.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
