package analytics

import (
	"context"
	"fmt"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/pages"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/triangles"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/rest"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/triangle"
)

const triangleSegment = "triangle"

// TriangleInterface is an interface to the triangle collection.
type TriangleInterface struct {
	client   *Client
	endpoint string
}

func newTriangleInterface(c *Client) *TriangleInterface {
	return &TriangleInterface{client: c, endpoint: c.host + triangleSegment}
}

func (ti *TriangleInterface) Endpoint() string {
	return ti.endpoint
}

// New returns an empty handle.
func (ti *TriangleInterface) New() *Triangle {
	return &Triangle{ti: ti}
}

// Create creates a triangle on the server.
//
// data is map[string]any or triangle.Dicter (like *triangle.Triangle).
func (ti *TriangleInterface) Create(ctx context.Context, name string, data any) (*Triangle, error) {
	t := ti.New()
	if err := t.Create(ctx, name, data); err != nil {
		return nil, err
	}
	return t, nil
}

// Get fetches a triangle by id or name.
func (ti *TriangleInterface) Get(ctx context.Context, ref Ref) (*Triangle, error) {
	t := ti.New()
	if err := t.Get(ctx, ref); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete deletes a triangle by id or name.
func (ti *TriangleInterface) Delete(ctx context.Context, ref Ref) error {
	return ti.New().Delete(ctx, ref)
}

// List returns the first page of triangles, as the server has sent.
func (ti *TriangleInterface) List(ctx context.Context) (*pages.Page[map[string]any], error) {
	return listPage(ctx, ti.client.requester, ti.endpoint)
}

// Triangle is a handle of a triangle on the server.
//
// It is not safe for concurrent use.
type Triangle struct {
	ti *TriangleInterface

	id   string
	name string
	data map[string]any

	createResponse *rest.Response
	getResponse    *rest.Response
	deleteResponse *rest.Response
}

func (t *Triangle) ID() string {
	return t.id
}

func (t *Triangle) Name() string {
	return t.name
}

// Data returns triangle data in the mapping form, available after Get.
func (t *Triangle) Data() map[string]any {
	return t.data
}

// Triangle decodes the data into structured form.
func (t *Triangle) Triangle() (*triangle.Triangle, error) {
	if t.data == nil {
		return nil, laerr.New(laerr.ErrProtocol, "triangle data is not fetched yet")
	}
	return triangle.FromDict(t.data)
}

func (t *Triangle) CreateResponse() *rest.Response { return t.createResponse }
func (t *Triangle) GetResponse() *rest.Response    { return t.getResponse }
func (t *Triangle) DeleteResponse() *rest.Response { return t.deleteResponse }

func toDict(data any) (map[string]any, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return d, nil
	case triangle.Dicter:
		return d.ToDict(), nil
	default:
		return nil, laerr.New(
			laerr.ErrBadRequest,
			fmt.Sprintf("triangle data should be a mapping or a triangle, but %T", data),
		)
	}
}

// Create sends the triangle and keeps its new id.
//
// # Returns
//
// - error: ErrProtocol when the response has no id, or errors from the transport.
func (t *Triangle) Create(ctx context.Context, name string, data any) error {
	dict, err := toDict(data)
	if err != nil {
		return err
	}

	resp, err := t.ti.client.requester.Post(ctx, t.ti.endpoint, triangles.CreateRequest{
		Name: name, Data: dict,
	})
	if err != nil {
		return err
	}
	t.createResponse = resp

	created, err := rest.Decode[triangles.Created](resp)
	if err != nil {
		return err
	}
	if created.Id == nil || *created.Id == "" {
		return laerr.New(
			laerr.ErrProtocol, "cannot get valid triangle id from response",
			laerr.WithStatus(resp.StatusCode),
		)
	}

	t.id = *created.Id
	t.name = name
	t.data = dict
	t.ti.client.logger.WithField("triangle", t.id).Debug("triangle created")
	return nil
}

// Get fetches the triangle.
//
// With the zero Ref, the id which the handle has is used.
// With a name only, the id is looked up from the listing.
//
// # Returns
//
// - error:
//
//   - ErrMissingIdentifier: no identifier is given and the handle has no id.
//
//   - ErrResourceNotFound: no triangle has the name.
//
//   - ErrProtocol: the response has no triangle data.
//
//   - ErrNotFound: the server does not have it (including deleted ones).
func (t *Triangle) Get(ctx context.Context, ref Ref) error {
	id, err := resolveID(ctx, ref, t.id, t.ti.List)
	if err != nil {
		return err
	}

	resp, err := t.ti.client.requester.Get(ctx, t.ti.endpoint+"/"+id)
	if err != nil {
		return err
	}
	t.getResponse = resp

	detail, err := rest.Decode[triangles.Detail](resp)
	if err != nil {
		return err
	}
	if detail.Data == nil {
		return laerr.New(
			laerr.ErrProtocol, "cannot get valid triangle data from response",
			laerr.WithStatus(resp.StatusCode),
		)
	}

	t.id = id
	t.name = detail.Name
	t.data = detail.Data
	return nil
}

// Delete deletes the triangle.
//
// Identifiers are resolved as Get does. Deleting twice surfaces ErrNotFound from the server.
func (t *Triangle) Delete(ctx context.Context, ref Ref) error {
	id, err := resolveID(ctx, ref, t.id, t.ti.List)
	if err != nil {
		return err
	}

	resp, err := t.ti.client.requester.Delete(ctx, t.ti.endpoint+"/"+id)
	if err != nil {
		return err
	}
	t.deleteResponse = resp
	t.id = id
	t.ti.client.logger.WithField("triangle", id).Debug("triangle deleted")
	return nil
}
