// Package validation enforces the OpenAPI document at the HTTP edge.
package validation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"

	"github.com/tilsley/repopush/pkg/api"
)

// New builds a Gin middleware that validates inbound requests against the
// provided OpenAPI spec bytes. Routes not present in the spec are passed
// through silently. Invalid requests are rejected with 400 and an
// api.ValidationErrorResponse body.
func New(spec []byte) (gin.HandlerFunc, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, err
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			// Route not in spec (health checks etc.): pass through.
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         true,
			},
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.ValidationErrorResponse{Error: FieldErrors(err)})
			return
		}
		c.Next()
	}, nil
}

// fieldMessages overrides the schema message for constraint failures on
// specific body fields, keyed by JSON path.
var fieldMessages = map[string]string{
	"repoName": "Repository name is required",
}

// FieldErrors flattens a kin-openapi validation error into field errors.
func FieldErrors(err error) []api.FieldError {
	return fieldErrors(err, []string{})
}

// fieldErrors switches on the concrete type first: RequestError unwraps to
// its inner MultiError, so errors.As alone would lose the parameter name.
func fieldErrors(err error, prefix []string) []api.FieldError {
	switch e := err.(type) {
	case openapi3.MultiError:
		out := make([]api.FieldError, 0, len(e))
		for _, inner := range e {
			out = append(out, fieldErrors(inner, prefix)...)
		}
		return out
	case *openapi3filter.RequestError:
		path := prefix
		if e.Parameter != nil {
			path = appendPath(prefix, e.Parameter.Name)
		}
		if e.Err != nil {
			return fieldErrors(e.Err, path)
		}
		msg := e.Reason
		if msg == "" {
			msg = e.Error()
		}
		return []api.FieldError{{Path: path, Message: msg}}
	case *openapi3.SchemaError:
		return []api.FieldError{schemaFieldError(e, prefix)}
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return []api.FieldError{schemaFieldError(schemaErr, prefix)}
	}
	return []api.FieldError{{Path: prefix, Message: err.Error()}}
}

func schemaFieldError(e *openapi3.SchemaError, prefix []string) api.FieldError {
	path := appendPath(prefix, e.JSONPointer()...)
	msg := e.Reason
	if e.SchemaField == "required" || e.SchemaField == "minLength" {
		if m, ok := fieldMessages[strings.Join(path, ".")]; ok {
			msg = m
		}
	}
	return api.FieldError{Path: path, Message: msg}
}

func appendPath(prefix []string, elems ...string) []string {
	out := make([]string, 0, len(prefix)+len(elems))
	out = append(out, prefix...)
	return append(out, elems...)
}
