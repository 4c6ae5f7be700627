// Package fakeserver is an in-memory analytics server for tests.
//
// It keeps triangles and models in memory, and runs every fit/predict task through
// a scripted sequence of statuses, one step per status query.
package fakeserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	apimodels "github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/models"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/triangles"
)

// Prefix is the path where the API is served.
const Prefix = "/analytics"

// Segments of model classes.
var Segments = []string{"development-model", "tail-model", "forecast-model"}

// ModelTypes served at "<segment>-type".
var ModelTypes = map[string][]string{
	"development-model": {"ChainLadder", "MeyersCRC"},
	"tail-model":        {"GeneralizedBondy"},
	"forecast-model":    {"AR1"},
}

type triangle struct {
	id   string
	name string
	data map[string]any
}

type model struct {
	id        string
	segment   string
	name      string
	modelType string
	triangle  string
	config    map[string]any
}

type task struct {
	script  []string
	queries int
	payload map[string]any
}

// Server is a fake analytics server.
type Server struct {
	*httptest.Server
	Echo *echo.Echo

	apiKey string

	mu        sync.Mutex
	seq       int
	script    []string
	failures  []failure
	triangles map[string]*triangle
	models    map[string]*model
	tasks     map[string]*task
}

type failure struct {
	status      int
	contentType string
	body        string
}

// New starts a Server accepting the API key. It is closed on test cleanup.
func New(t *testing.T, apiKey string) *Server {
	t.Helper()
	s := &Server{
		apiKey:    apiKey,
		script:    []string{"PENDING", "SUCCESS"},
		triangles: map[string]*triangle{},
		models:    map[string]*model{},
		tasks:     map[string]*task{},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.Use(s.authenticate, s.injectFailure)

	g := e.Group(Prefix)
	g.POST("/triangle", s.createTriangle)
	g.GET("/triangle", s.listTriangles)
	g.GET("/triangle/:id", s.getTriangle)
	g.DELETE("/triangle/:id", s.deleteTriangle)
	for _, seg := range Segments {
		g.POST("/"+seg, s.fit(seg))
		g.GET("/"+seg, s.listModels(seg))
		g.GET("/"+seg+"-type", s.listModelTypes(seg))
		g.GET("/"+seg+"/:id", s.getModel(seg))
		g.DELETE("/"+seg+"/:id", s.deleteModel(seg))
		g.POST("/"+seg+"/:id/predict", s.predict(seg))
	}
	g.GET("/tasks/:id", s.taskStatus)

	s.Echo = e
	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// Host returns the base URL of the API, ending with "/".
func (s *Server) Host() string {
	return s.URL + Prefix + "/"
}

// ScriptTasks sets statuses which tasks created after this call go through.
//
// The last status is repeated. A "SUCCESS" status carries the payload of the task.
// Without statuses, tasks succeed on the first query.
func (s *Server) ScriptTasks(statuses ...string) {
	if len(statuses) == 0 {
		statuses = []string{"SUCCESS"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append([]string(nil), statuses...)
}

// FailNext makes the next request fail with the response.
func (s *Server) FailNext(status int, contentType string, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, contentType: contentType, body: body})
}

// TaskQueries returns how many times the status of the task has been queried.
func (s *Server) TaskQueries(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[taskID]; ok {
		return t.queries
	}
	return 0
}

// Triangles returns names of stored triangles, sorted.
func (s *Server) Triangles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for _, t := range s.triangles {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") != "Api-Key "+s.apiKey {
			return detail(c, http.StatusForbidden, "Invalid API key.")
		}
		return next(c)
	}
}

func (s *Server) injectFailure(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		if len(s.failures) == 0 {
			s.mu.Unlock()
			return next(c)
		}
		f := s.failures[0]
		s.failures = s.failures[1:]
		s.mu.Unlock()
		return c.Blob(f.status, f.contentType, []byte(f.body))
	}
}

func detail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"detail": message})
}

// newID returns a new id. Callers should hold the lock.
func (s *Server) newID(prefix string) string {
	s.seq += 1
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// newTask registers a task running the current script. Callers should hold the lock.
func (s *Server) newTask(payload map[string]any) string {
	id := s.newID("task")
	s.tasks[id] = &task{script: append([]string(nil), s.script...), payload: payload}
	return id
}

func (s *Server) createTriangle(c echo.Context) error {
	req := new(triangles.CreateRequest)
	if err := c.Bind(req); err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return detail(c, http.StatusBadRequest, "triangle_name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := &triangle{id: s.newID("tri"), name: req.Name, data: req.Data}
	s.triangles[t.id] = t
	return c.JSON(http.StatusCreated, map[string]any{"id": t.id, "triangle_name": t.name})
}

func (s *Server) listTriangles(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := []map[string]any{}
	for _, t := range s.triangles {
		results = append(results, map[string]any{"id": t.id, "name": t.name})
	}
	return page(c, results)
}

func page(c echo.Context, results []map[string]any) error {
	sort.Slice(results, func(i, j int) bool {
		return fmt.Sprint(results[i]["id"]) < fmt.Sprint(results[j]["id"])
	})
	return c.JSON(http.StatusOK, map[string]any{
		"count": len(results), "next": nil, "previous": nil, "results": results,
	})
}

func (s *Server) getTriangle(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.triangles[c.Param("id")]
	if !ok {
		return detail(c, http.StatusNotFound, "Not found.")
	}
	return c.JSON(http.StatusOK, triangles.Detail{Id: t.id, Name: t.name, Data: t.data})
}

func (s *Server) deleteTriangle(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if _, ok := s.triangles[id]; !ok {
		return detail(c, http.StatusNotFound, "Not found.")
	}
	delete(s.triangles, id)
	return c.NoContent(http.StatusNoContent)
}

// triangleByName finds a triangle. Callers should hold the lock.
func (s *Server) triangleByName(name string) (*triangle, bool) {
	for _, t := range s.triangles {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

func (s *Server) fit(segment string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(apimodels.FitRequest)
		if err := c.Bind(req); err != nil {
			return detail(c, http.StatusBadRequest, err.Error())
		}

		known := false
		for _, mt := range ModelTypes[segment] {
			known = known || mt == req.ModelType
		}
		if !known {
			return detail(c, http.StatusBadRequest, fmt.Sprintf("unknown model type: %q", req.ModelType))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		tri, ok := s.triangleByName(req.TriangleName)
		if !ok {
			return detail(c, http.StatusBadRequest, fmt.Sprintf("no triangle named %q", req.TriangleName))
		}

		m := &model{
			id:        s.newID("mdl"),
			segment:   segment,
			name:      req.ModelName,
			modelType: req.ModelType,
			triangle:  tri.id,
			config:    req.ModelConfig,
		}
		s.models[m.id] = m
		taskID := s.newTask(map[string]any{"model": m.id})

		return c.JSON(http.StatusCreated, map[string]any{
			"model":      map[string]any{"id": m.id, "triangle": tri.id},
			"modal_task": map[string]any{"id": taskID},
		})
	}
}

func (s *Server) listModels(segment string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		results := []map[string]any{}
		for _, m := range s.models {
			if m.segment != segment {
				continue
			}
			results = append(results, map[string]any{
				"id": m.id, "name": m.name, "model_type": m.modelType,
			})
		}
		return page(c, results)
	}
}

func (s *Server) listModelTypes(segment string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, ModelTypes[segment])
	}
}

// modelOf finds a model in the segment. Callers should hold the lock.
func (s *Server) modelOf(segment string, id string) (*model, bool) {
	m, ok := s.models[id]
	if !ok || m.segment != segment {
		return nil, false
	}
	return m, true
}

func (s *Server) getModel(segment string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		m, ok := s.modelOf(segment, c.Param("id"))
		if !ok {
			return detail(c, http.StatusNotFound, "Not found.")
		}
		return c.JSON(http.StatusOK, map[string]any{
			"id": m.id, "name": m.name, "model_type": m.modelType,
			"triangle": m.triangle, "model_config": m.config,
		})
	}
}

func (s *Server) deleteModel(segment string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		m, ok := s.modelOf(segment, c.Param("id"))
		if !ok {
			return detail(c, http.StatusNotFound, "Not found.")
		}
		delete(s.models, m.id)
		return c.NoContent(http.StatusNoContent)
	}
}

func (s *Server) predict(segment string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(apimodels.PredictRequest)
		if err := c.Bind(req); err != nil {
			return detail(c, http.StatusBadRequest, err.Error())
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		m, ok := s.modelOf(segment, c.Param("id"))
		if !ok {
			return detail(c, http.StatusNotFound, "Not found.")
		}
		source, ok := s.triangleByName(req.TriangleName)
		if !ok {
			return detail(c, http.StatusBadRequest, fmt.Sprintf("no triangle named %q", req.TriangleName))
		}

		name := req.PredictionName
		if name == "" {
			name = strings.Join([]string{m.name, source.name, "predictions"}, "-")
		}
		pred := &triangle{id: s.newID("tri"), name: name, data: source.data}
		s.triangles[pred.id] = pred
		taskID := s.newTask(map[string]any{"predictions": pred.id})

		return c.JSON(http.StatusCreated, map[string]any{
			"predictions": pred.id,
			"modal_task":  map[string]any{"id": taskID},
		})
	}
}

func (s *Server) taskStatus(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[c.Param("id")]
	if !ok {
		return detail(c, http.StatusNotFound, "Not found.")
	}

	step := t.queries
	if len(t.script) <= step {
		step = len(t.script) - 1
	}
	t.queries += 1
	status := t.script[step]

	body := map[string]any{"status": status, "task_response": nil}
	switch strings.ToUpper(status) {
	case "SUCCESS":
		body["task_response"] = t.payload
	case "FAILURE", "TERMINATED", "TIMEOUT":
		body["error"] = "task ended with " + status
	}
	return c.JSON(http.StatusOK, body)
}
