package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	apimodels "github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/models"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/pages"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/rest"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
	"github.com/sirupsen/logrus"
)

type (
	FitRequest     = apimodels.FitRequest
	PredictRequest = apimodels.PredictRequest
)

// ModelInterface is an interface to the collection of a model class.
type ModelInterface struct {
	client   *Client
	class    ModelClass
	endpoint string
}

func newModelInterface(c *Client, class ModelClass) *ModelInterface {
	return &ModelInterface{client: c, class: class, endpoint: c.host + class.Segment}
}

func (mi *ModelInterface) Class() ModelClass {
	return mi.class
}

func (mi *ModelInterface) Endpoint() string {
	return mi.endpoint
}

// New returns an empty handle.
func (mi *ModelInterface) New() *Model {
	return &Model{mi: mi}
}

// Create fits a new model. See Model.Fit .
//
// When the request has been accepted but waiting for the task fails,
// the handle is returned with the error, so the caller can inspect the model and its task.
func (mi *ModelInterface) Create(ctx context.Context, req FitRequest, options ...CallOption) (*Model, error) {
	m := mi.New()
	if err := m.Fit(ctx, req, options...); err != nil {
		if m.id == "" {
			return nil, err
		}
		return m, err
	}
	return m, nil
}

// Get fetches a model by id or name.
func (mi *ModelInterface) Get(ctx context.Context, ref Ref) (*Model, error) {
	m := mi.New()
	if err := m.Get(ctx, ref); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete deletes a model by id or name.
func (mi *ModelInterface) Delete(ctx context.Context, ref Ref) error {
	return mi.New().Delete(ctx, ref)
}

// List returns the first page of models, as the server has sent.
func (mi *ModelInterface) List(ctx context.Context) (*pages.Page[map[string]any], error) {
	return listPage(ctx, mi.client.requester, mi.endpoint)
}

// ListModelTypes returns model types available in this class.
func (mi *ModelInterface) ListModelTypes(ctx context.Context) ([]apimodels.ModelType, error) {
	resp, err := mi.client.requester.Get(ctx, mi.endpoint+"-type")
	if err != nil {
		return nil, err
	}
	page, err := rest.Decode[pages.Page[apimodels.ModelType]](resp)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Model is a handle of a model on the server.
//
// It is not safe for concurrent use.
type Model struct {
	mi *ModelInterface

	id        string
	name      string
	modelType string

	// triangle which the model is fit to.
	triangleID   string
	triangleName string

	fitTask      string
	predictTask  string
	predictionID string

	detail map[string]any

	fitResponse     *rest.Response
	getResponse     *rest.Response
	predictResponse *rest.Response
	deleteResponse  *rest.Response
}

func (m *Model) ID() string            { return m.id }
func (m *Model) Name() string          { return m.name }
func (m *Model) ModelType() string     { return m.modelType }
func (m *Model) Class() ModelClass     { return m.mi.class }
func (m *Model) FitTaskID() string     { return m.fitTask }
func (m *Model) PredictTaskID() string { return m.predictTask }

// PredictionID returns the id of the triangle where the last prediction is stored, if known.
func (m *Model) PredictionID() string { return m.predictionID }

// Detail returns the model detail as the server has sent, available after Get.
func (m *Model) Detail() map[string]any { return m.detail }

func (m *Model) FitResponse() *rest.Response     { return m.fitResponse }
func (m *Model) GetResponse() *rest.Response     { return m.getResponse }
func (m *Model) PredictResponse() *rest.Response { return m.predictResponse }
func (m *Model) DeleteResponse() *rest.Response  { return m.deleteResponse }

func (m *Model) logger() logrus.FieldLogger {
	return m.mi.client.logger.WithFields(logrus.Fields{
		"class": m.mi.class.Name, "model": m.id,
	})
}

func (m *Model) label(verb string) string {
	subject := m.modelType
	if subject == "" {
		subject = m.mi.class.Name
	}
	if m.name != "" {
		subject = fmt.Sprintf("%s %q", subject, m.name)
	}
	return verb + " " + subject
}

// Fit sends the fit request.
//
// The model config defaults to an empty mapping.
// In synchronous mode, it waits for the fit task to succeed.
//
// # Returns
//
// - error:
//
//   - ErrProtocol: the response has no model id, or (in synchronous mode) no task id.
//
//   - *tasks.Error: the task has failed or not ended in time.
//
//   - errors from the transport.
func (m *Model) Fit(ctx context.Context, req FitRequest, options ...CallOption) error {
	conf := m.mi.client.callConfig(options)
	if req.ModelConfig == nil {
		req.ModelConfig = map[string]any{}
	}

	resp, err := m.mi.client.requester.Post(ctx, m.mi.endpoint, req)
	if err != nil {
		return err
	}
	m.fitResponse = resp

	fit, err := rest.Decode[apimodels.FitResponse](resp)
	if err != nil {
		return err
	}
	if fit.Model == nil || fit.Model.Id == nil || *fit.Model.Id == "" {
		return laerr.New(
			laerr.ErrProtocol, "the model cannot be fit: response has no model id",
			laerr.WithStatus(resp.StatusCode), laerr.WithDetail(string(resp.Body)),
		)
	}
	m.id = *fit.Model.Id
	m.name = req.ModelName
	m.modelType = req.ModelType
	m.triangleName = req.TriangleName
	m.triangleID = fit.Model.Triangle
	m.fitTask = ""
	if fit.Task != nil {
		m.fitTask = fit.Task.Id
	}
	m.logger().WithField("task", m.fitTask).Debug("fit requested")

	if *conf.async {
		return nil
	}
	if m.fitTask == "" {
		return laerr.New(
			laerr.ErrProtocol, "fit response has no task id",
			laerr.WithStatus(resp.StatusCode),
		)
	}
	_, err = m.mi.client.WaitTask(ctx, m.fitTask, m.label("fit"), conf.pollOptions...)
	return err
}

// Get fetches the model detail.
//
// Identifiers are resolved as Triangle.Get does.
func (m *Model) Get(ctx context.Context, ref Ref) error {
	id, err := resolveID(ctx, ref, m.id, m.mi.List)
	if err != nil {
		return err
	}

	resp, err := m.mi.client.requester.Get(ctx, m.mi.endpoint+"/"+id)
	if err != nil {
		return err
	}
	m.getResponse = resp

	detail, err := resp.Map()
	if err != nil {
		return err
	}

	if m.id != id {
		// another model: forget what we knew.
		*m = Model{mi: m.mi}
	}
	m.id = id
	m.detail = detail
	for _, f := range []struct {
		key  string
		dest *string
	}{
		{key: "model_name", dest: &m.name},
		{key: "name", dest: &m.name},
		{key: "model_type", dest: &m.modelType},
		{key: "triangle", dest: &m.triangleID},
	} {
		if v := stringField(detail, f.key); v != "" {
			*f.dest = v
		}
	}
	m.getResponse = resp
	return nil
}

// fitTriangleName returns the name of the triangle which the model is fit to.
func (m *Model) fitTriangleName(ctx context.Context) (string, error) {
	if m.triangleName != "" {
		return m.triangleName, nil
	}
	if m.triangleID == "" {
		return "", laerr.New(
			laerr.ErrMissingIdentifier, "triangle name is not given, and the model has no triangle",
		)
	}
	t, err := m.mi.client.Triangle().Get(ctx, ByID(m.triangleID))
	if err != nil {
		return "", err
	}
	m.triangleName = t.Name()
	return m.triangleName, nil
}

// Predict sends the predict request.
//
// When req.TriangleName is empty, the triangle which the model is fit to is used.
// The predict config defaults to an empty mapping.
//
// # Returns
//
// - *Triangle: in synchronous mode, the prediction triangle fetched by its id.
// In asynchronous mode, nil. Use WaitPredict later.
//
// - error:
//
//   - ErrMissingIdentifier: the handle has no model id.
//
//   - ErrProtocol: (in synchronous mode) the response has no task id, or no prediction id is found.
//
//   - *tasks.Error: the task has failed or not ended in time.
//
//   - errors from the transport.
func (m *Model) Predict(ctx context.Context, req PredictRequest, options ...CallOption) (*Triangle, error) {
	if m.id == "" {
		return nil, laerr.New(laerr.ErrMissingIdentifier, "must fit or get a model before predict")
	}
	conf := m.mi.client.callConfig(options)

	if req.TriangleName == "" {
		name, err := m.fitTriangleName(ctx)
		if err != nil {
			return nil, err
		}
		req.TriangleName = name
	}
	if req.PredictConfig == nil {
		req.PredictConfig = map[string]any{}
	}

	resp, err := m.mi.client.requester.Post(ctx, m.mi.endpoint+"/"+m.id+"/predict", req)
	if err != nil {
		return nil, err
	}
	m.predictResponse = resp

	pred, err := rest.Decode[apimodels.PredictResponse](resp)
	if err != nil {
		return nil, err
	}
	m.predictTask = ""
	if pred.Task != nil {
		m.predictTask = pred.Task.Id
	}
	m.predictionID = ""
	if pred.Predictions != nil {
		m.predictionID = *pred.Predictions
	}
	m.logger().WithField("task", m.predictTask).Debug("predict requested")

	if *conf.async {
		return nil, nil
	}
	if m.predictTask == "" {
		return nil, laerr.New(
			laerr.ErrProtocol, "predict response has no task id",
			laerr.WithStatus(resp.StatusCode),
		)
	}
	return m.waitPredict(ctx, conf.pollOptions)
}

// Delete deletes the model.
//
// Identifiers are resolved as Get does.
func (m *Model) Delete(ctx context.Context, ref Ref) error {
	id, err := resolveID(ctx, ref, m.id, m.mi.List)
	if err != nil {
		return err
	}

	resp, err := m.mi.client.requester.Delete(ctx, m.mi.endpoint+"/"+id)
	if err != nil {
		return err
	}
	m.deleteResponse = resp
	m.id = id
	m.logger().Debug("model deleted")
	return nil
}

func taskStatus(ctx context.Context, c *Client, taskID string, what string) (tasks.Snapshot, error) {
	if taskID == "" {
		return tasks.Snapshot{}, laerr.New(
			laerr.ErrMissingIdentifier, "no "+what+" task is known: "+what+" first",
		)
	}
	return c.TaskStatus(ctx, taskID)
}

// FitStatus queries the status of the fit task once.
func (m *Model) FitStatus(ctx context.Context) (tasks.Snapshot, error) {
	return taskStatus(ctx, m.mi.client, m.fitTask, "fit")
}

// PredictStatus queries the status of the predict task once.
func (m *Model) PredictStatus(ctx context.Context) (tasks.Snapshot, error) {
	return taskStatus(ctx, m.mi.client, m.predictTask, "predict")
}

// WaitFit polls the fit task until it ends.
func (m *Model) WaitFit(ctx context.Context, options ...tasks.Option) error {
	if m.fitTask == "" {
		return laerr.New(laerr.ErrMissingIdentifier, "no fit task is known: fit first")
	}
	_, err := m.mi.client.WaitTask(ctx, m.fitTask, m.label("fit"), options...)
	return err
}

// WaitPredict polls the predict task until it ends, then fetches the prediction triangle.
func (m *Model) WaitPredict(ctx context.Context, options ...tasks.Option) (*Triangle, error) {
	if m.predictTask == "" {
		return nil, laerr.New(laerr.ErrMissingIdentifier, "no predict task is known: predict first")
	}
	return m.waitPredict(ctx, options)
}

func (m *Model) waitPredict(ctx context.Context, options []tasks.Option) (*Triangle, error) {
	snapshot, err := m.mi.client.WaitTask(ctx, m.predictTask, m.label("predict"), options...)
	if err != nil {
		return nil, err
	}

	if id := predictionsOf(snapshot.Response); id != "" {
		m.predictionID = id
	}
	if m.predictionID == "" {
		return nil, laerr.New(laerr.ErrProtocol, "cannot find the prediction triangle id")
	}
	return m.mi.client.Triangle().Get(ctx, ByID(m.predictionID))
}

// predictionsOf finds "predictions" in a task payload.
func predictionsOf(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	body := map[string]any{}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return stringField(body, "predictions")
}
