package web

import (
	"net/http"
	"net/url"
	"strconv"
)

// page is a parsed page/limit pair from the query string.
type page struct {
	number int
	limit  int
}

func (p page) offset() int {
	return (p.number - 1) * p.limit
}

// parsePage reads "page" and "limit". Missing or invalid values fall back
// to the first page and the default size.
func parsePage(r *http.Request, defaultSize int) page {
	p := page{number: 1, limit: defaultSize}
	q := r.URL.Query()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.number = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.limit = n
	}
	return p
}

type paginated struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// paginate wraps results with the total count and links to the
// neighbouring pages.
func paginate(r *http.Request, p page, total int, results any) paginated {
	out := paginated{Count: total, Results: results}
	if p.offset()+p.limit < total {
		link := pageLink(r, p.number+1)
		out.Next = &link
	}
	if p.number > 1 {
		link := pageLink(r, p.number-1)
		out.Previous = &link
	}
	return out
}

func pageLink(r *http.Request, number int) string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
