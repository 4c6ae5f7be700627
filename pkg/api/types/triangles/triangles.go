package triangles

// CreateRequest is the body of POST /triangle
type CreateRequest struct {
	Name string         `json:"triangle_name"`
	Data map[string]any `json:"triangle_data"`
}

// Created is the response of POST /triangle
type Created struct {
	Id *string `json:"id"`
}

// Detail is the response of GET /triangle/{id}
type Detail struct {
	Id   string         `json:"id,omitempty"`
	Name string         `json:"triangle_name"`
	Data map[string]any `json:"triangle_data"`
}

// Summary is an item of GET /triangle
type Summary struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}
