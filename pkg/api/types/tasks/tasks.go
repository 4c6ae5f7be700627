package tasks

import "encoding/json"

// Ref points a server-side task in fit/predict responses.
type Ref struct {
	Id string `json:"id"`
}

// Status is the response of GET /tasks/{task_id}
type Status struct {
	// one of CREATED, PENDING, SUCCESS, FAILURE, TERMINATED, TIMEOUT or NOT_FOUND.
	// Case is not significant.
	Status string `json:"status"`

	// result of the task. It is null until the task is terminated.
	TaskResponse json.RawMessage `json:"task_response,omitempty"`

	Error string `json:"error,omitempty"`
}
