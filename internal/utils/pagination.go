package utils

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const MaxPageSize = 100

// Page is a limit/offset window over a list endpoint.
type Page struct {
	Limit  int
	Offset int
}

type PageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// PageFromQuery reads ?limit= and ?offset=, falling back to defaultLimit and
// clamping to MaxPageSize. Garbage values are treated as absent.
func PageFromQuery(c *gin.Context, defaultLimit int) Page {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// NewPageResponse builds the envelope with absolute next/previous links
// derived from the current request URL.
func NewPageResponse(c *gin.Context, page Page, count int64, results interface{}) PageResponse {
	resp := PageResponse{Count: count, Results: results}

	if int64(page.Offset+page.Limit) < count {
		link := pageLink(c, page.Limit, page.Offset+page.Limit)
		resp.Next = &link
	}
	if page.Offset > 0 {
		prev := page.Offset - page.Limit
		if prev < 0 {
			prev = 0
		}
		link := pageLink(c, page.Limit, prev)
		resp.Previous = &link
	}
	return resp
}

func pageLink(c *gin.Context, limit, offset int) string {
	u := url.URL{
		Scheme: "http",
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	if c.Request.TLS != nil {
		u.Scheme = "https"
	}
	q := c.Request.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
