package pages

import (
	"bytes"
	"encoding/json"
)

// Page is a paginated result set which collection endpoints respond with.
//
// A bare JSON array is also accepted, as a single page holding everything.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) != 0 && trimmed[0] == '[' {
		results := []T{}
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return err
		}
		*p = Page[T]{Count: len(results), Results: results}
		return nil
	}

	var obj struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*p = Page[T]{Count: obj.Count, Next: obj.Next, Previous: obj.Previous, Results: obj.Results}
	return nil
}

// Filter returns results satisfying pred, in order.
func (p *Page[T]) Filter(pred func(T) bool) []T {
	if p == nil {
		return nil
	}
	ret := []T{}
	for _, r := range p.Results {
		if pred(r) {
			ret = append(ret, r)
		}
	}
	return ret
}
