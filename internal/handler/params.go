package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/shumpiss/pinlog/internal/domain"
)

// Sort orders accepted by ?order=.
const (
	orderAsc  = "asc"
	orderDesc = "desc"
)

// Export formats accepted by ?format=.
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// pathParam binds a required chi URL parameter the way generated server
// wrappers do, unescaping it on the way.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	return v, err
}

// ascendingParam reads ?order=asc|desc. Newest first is the default.
func ascendingParam(r *http.Request) (bool, error) {
	var order *string
	if err := runtime.BindQueryParameter("form", true, false, "order", r.URL.Query(), &order); err != nil {
		return false, err
	}
	if order == nil {
		return false, nil
	}
	switch *order {
	case orderAsc:
		return true, nil
	case orderDesc:
		return false, nil
	}
	return false, fmt.Errorf("order must be %q or %q", orderAsc, orderDesc)
}

// formatParam reads ?format=json|csv, defaulting to json.
func formatParam(r *http.Request) (string, error) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		return "", err
	}
	if format == nil {
		return formatJSON, nil
	}
	switch *format {
	case formatJSON, formatCSV:
		return *format, nil
	}
	return "", fmt.Errorf("format must be %q or %q", formatJSON, formatCSV)
}

// pageParams reads ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func pageParams(r *http.Request) (domain.PaginationParams, error) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return domain.PaginationParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.NewPaginationParams(page, limit), nil
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse is the envelope of paginated list endpoints.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// paginate slices items down to the requested page.
func paginate[T any](items []T, p domain.PaginationParams) ListResponse[T] {
	start, end := p.Bounds(len(items))
	data := make([]T, 0, end-start)
	data = append(data, items[start:end]...)
	return ListResponse[T]{
		Data:       data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: len(items)},
	}
}
