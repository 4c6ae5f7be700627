package analytics

import (
	"context"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/pages"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/registry"
)

// Resource is an interface to a collection on the server.
type Resource interface {
	// Endpoint returns URL of the collection.
	Endpoint() string

	// List returns the first page of the collection.
	List(ctx context.Context) (*pages.Page[map[string]any], error)
}

var (
	_ Resource = &TriangleInterface{}
	_ Resource = &ModelInterface{}
)

// ModelClass is a kind of model. Classes differ only in their collection segment.
type ModelClass struct {
	// Name is the canonical (snake_case) name, like "development_model".
	Name string

	// Segment is the path of the collection, like "development-model".
	Segment string
}

var (
	DevelopmentModelClass = ModelClass{Name: "development_model", Segment: "development-model"}
	TailModelClass        = ModelClass{Name: "tail_model", Segment: "tail-model"}
	ForecastModelClass    = ModelClass{Name: "forecast_model", Segment: "forecast-model"}
)

var resources = newResourceRegistry()

var modelTypes = newModelTypeRegistry()

func newResourceRegistry() *registry.Registry[func(*Client) Resource] {
	r := registry.New[func(*Client) Resource]("resource")
	r.MustRegister("triangle", func(c *Client) Resource { return c.Triangle() })
	for _, class := range []ModelClass{DevelopmentModelClass, TailModelClass, ForecastModelClass} {
		r.MustRegister(class.Name, func(c *Client) Resource { return newModelInterface(c, class) })
	}
	return r
}

// known model types, and their classes.
func newModelTypeRegistry() *registry.Registry[ModelClass] {
	return registry.New[ModelClass]("model type").
		MustRegister("ChainLadder", DevelopmentModelClass).
		MustRegister("MeyersCRC", DevelopmentModelClass).
		MustRegister("GeneralizedBondy", TailModelClass).
		MustRegister("AR1", ForecastModelClass)
}

// ResourceNames returns names which Client.Resource accepts.
func ResourceNames() []string {
	return resources.Names()
}

// Resource returns an interface to the collection of the name.
//
// name is "triangle", "development_model", "tail_model" or "forecast_model".
// Camel case ("DevelopmentModel") is also accepted.
//
// # Returns
//
// - Resource: *TriangleInterface or *ModelInterface.
//
// - error: ErrUnknownResourceType when the name is not known.
func (c *Client) Resource(name string) (Resource, error) {
	factory, err := resources.Lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(c), nil
}

// RegisterModelType makes ModelFor know a model type.
//
// It is an error to register a type twice.
func RegisterModelType(modelType string, class ModelClass) error {
	return modelTypes.Register(modelType, class)
}

// ModelTypes returns canonical names of known model types.
func ModelTypes() []string {
	return modelTypes.Names()
}

// ClassOf returns the model class of the model type, like "ChainLadder" or "chain_ladder".
func ClassOf(modelType string) (ModelClass, error) {
	return modelTypes.Lookup(modelType)
}

// ModelFor returns an interface to the model class which the model type belongs to.
//
// # Returns
//
// - *ModelInterface
//
// - error: ErrUnknownResourceType when the model type is not known.
func (c *Client) ModelFor(modelType string) (*ModelInterface, error) {
	class, err := ClassOf(modelType)
	if err != nil {
		return nil, err
	}
	return newModelInterface(c, class), nil
}
