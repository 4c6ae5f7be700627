package models

import (
	"encoding/json"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/tasks"
)

// FitRequest is the body of POST /{model class}
type FitRequest struct {
	TriangleName string         `json:"triangle_name"`
	ModelName    string         `json:"model_name"`
	ModelType    string         `json:"model_type"`
	ModelConfig  map[string]any `json:"model_config"`
}

type Ref struct {
	Id       *string `json:"id"`
	Triangle string  `json:"triangle,omitempty"`
}

// FitResponse is the response of POST /{model class}
type FitResponse struct {
	Model *Ref       `json:"model"`
	Task  *tasks.Ref `json:"modal_task"`
}

// PredictRequest is the body of POST /{model class}/{id}/predict
type PredictRequest struct {
	TriangleName   string         `json:"triangle_name"`
	PredictConfig  map[string]any `json:"predict_config"`
	TargetTriangle string         `json:"target_triangle_name,omitempty"`
	PredictionName string         `json:"prediction_name,omitempty"`
}

// PredictResponse is the response of POST /{model class}/{id}/predict
type PredictResponse struct {
	// id of the triangle where predictions are stored.
	Predictions *string    `json:"predictions"`
	Task        *tasks.Ref `json:"modal_task"`
}

// Summary is an item of GET /{model class}
type Summary struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	ModelType string `json:"model_type,omitempty"`
}

// ModelType is an item of GET /{model class}-type
//
// The server may send a bare name instead of an object.
type ModelType struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (mt *ModelType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*mt = ModelType{Name: name}
		return nil
	}
	var obj struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*mt = ModelType{Name: obj.Name, Description: obj.Description}
	return nil
}
