// Package ctx provides the request context handlers receive instead of
// (http.ResponseWriter, *http.Request):
//
//	func (h *OrderController) Show(c *ctx.Context) {
//	    order, err := h.orders.Get(c.Context(), actor, c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(order)
//	}
//
//	r.Get("/orders/{id}", "orders.show", ctx.Wrap(h.Show))
package ctx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/auth"
	"github.com/Rasmogul/greatsoko/pkg/bind"
	"github.com/Rasmogul/greatsoko/pkg/response"
	"github.com/Rasmogul/greatsoko/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request ──────────────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryInt parses a query value, returning def when absent, malformed or
// below 1.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP returns the client address, honouring X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Identity ─────────────────────────────────────────────────────────────────

// Claims returns the verified token claims, or nil on public routes.
func (c *Context) Claims() *auth.Claims {
	claims, _ := auth.FromCtx(c.R.Context())
	return claims
}

// UserID is the hex id of the authenticated user, or "".
func (c *Context) UserID() string {
	if claims := c.Claims(); claims != nil {
		return claims.UserID
	}
	return ""
}

func (c *Context) IsAdmin() bool { return c.Claims().IsAdmin() }

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the JSON body into dest. On failure it
// writes the 400 or 422 response and returns false.
//
//	var in AddToCartInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// BindMultipart is BindJSON for multipart/form-data. The returned file is
// nil when the request has no part named fileField.
func (c *Context) BindMultipart(dest any, fileField string) (*bind.File, bool) {
	f, errs, err := bind.Multipart(c.R, dest, fileField)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return nil, false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return nil, false
	}
	return f, true
}

// ─── Response ─────────────────────────────────────────────────────────────────

// JSON writes v as-is with the given status.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

func (c *Context) envelope(body response.Envelope) {
	c.status = body.Status
	response.Write(c.W, body.Status, body)
}

// Success sends {"status":200,"data":...}.
func (c *Context) Success(data any) {
	c.envelope(response.Envelope{Status: http.StatusOK, Data: data})
}

// Created sends {"status":201,"data":...}.
func (c *Context) Created(data any) {
	c.envelope(response.Envelope{Status: http.StatusCreated, Data: data})
}

// Respond sends an envelope carrying both a message and data.
func (c *Context) Respond(code int, msg string, data any) {
	c.envelope(response.Envelope{Status: code, Message: msg, Data: data})
}

// Message sends a 200 with only a message.
func (c *Context) Message(msg string) {
	c.envelope(response.Envelope{Status: http.StatusOK, Message: msg})
}

func (c *Context) Error(code int, message string) {
	c.envelope(response.Envelope{Status: code, Message: message})
}

func (c *Context) ValidationError(errs map[string]string) {
	c.envelope(response.Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Fail writes err with the status its apperr kind maps to.
func (c *Context) Fail(err error) {
	response.Fail(c.W, c.R, err)
	c.status = apperr.Status(err)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
