package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strconv"

	"github.com/printproxy/console/internal/core/domain"
)

// decodePage accepts both listing shapes the backend produces: a bare JSON
// array, or {"items": [...], "pagination": {...}}.
func decodePage[T any](resp *Response) (*domain.Page[T], error) {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return &domain.Page[T]{Items: []T{}}, nil
	}
	if body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("upstream: decode list: %w", err)
		}
		return &domain.Page[T]{Items: items}, nil
	}
	var wrapped struct {
		Items      []T                `json:"items"`
		Pagination *domain.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("upstream: decode list: %w", err)
	}
	if wrapped.Items == nil {
		wrapped.Items = []T{}
	}
	return &domain.Page[T]{Items: wrapped.Items, Pagination: wrapped.Pagination}, nil
}

func decodeInto[T any](resp *Response) (*T, error) {
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// blobFrom keeps the raw body. The file name comes from Content-Disposition
// when present.
func blobFrom(resp *Response, fallbackName string) *domain.Blob {
	b := &domain.Blob{
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    fallbackName,
		Data:        resp.Body,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			b.FileName = params["filename"]
		}
	}
	return b
}

// params drops empty values so optional filters never reach the backend.
type params url.Values

func (p params) str(key, v string) params {
	if v != "" {
		url.Values(p).Set(key, v)
	}
	return p
}

func (p params) num(key string, v int) params {
	if v > 0 {
		url.Values(p).Set(key, strconv.Itoa(v))
	}
	return p
}

func (p params) values() url.Values {
	if len(p) == 0 {
		return nil
	}
	return url.Values(p)
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + "/" + strconv.FormatInt(id, 10) + suffix
}
