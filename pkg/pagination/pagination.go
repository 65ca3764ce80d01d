package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page     int
	PageSize int
}

// FromContext extracts page/pageSize query parameters from the echo context,
// clamping them to sane bounds.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Params{Page: page, PageSize: size}
}

// Limit returns the SQL LIMIT for the page.
func (p Params) Limit() int { return p.PageSize }

// Offset returns the SQL OFFSET for the page.
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// Response wraps one page of results.
type Response struct {
	Items      interface{} `json:"items"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

func NewResponse(items interface{}, total int, p Params) *Response {
	totalPages := total / p.PageSize
	if total%p.PageSize != 0 {
		totalPages++
	}
	return &Response{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
