package main

import (
	"io"
	"net/http"

	"github.com/sunsided/go-oidcserver/tokenendpoint"
)

// httpRequest adapts *http.Request to tokenendpoint.Request. This, and
// httpResponseWriter below, are the only place in this repository that
// imports net/http for the token endpoint itself — tokenendpoint stays
// framework-agnostic per its own package doc.
type httpRequest struct{ r *http.Request }

func (a httpRequest) Method() string            { return a.r.Method }
func (a httpRequest) Header(name string) string { return a.r.Header.Get(name) }
func (a httpRequest) Body() io.Reader            { return a.r.Body }

type httpResponseWriter struct{ w http.ResponseWriter }

func (a httpResponseWriter) SetHeader(name, value string)   { a.w.Header().Set(name, value) }
func (a httpResponseWriter) WriteStatus(code int)            { a.w.WriteHeader(code) }
func (a httpResponseWriter) Write(body []byte) (int, error) { return a.w.Write(body) }

func tokenHandler(driver *tokenendpoint.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driver.ServeToken(r.Context(), httpRequest{r}, httpResponseWriter{w})
	}
}
