package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
	"github.com/tilsley/repopush/pkg/api"
)

const fallbackErrorMessage = "Failed to upload to GitHub"

// Upload handles POST /api/github/upload. It creates a repository and
// publishes the local project into it.
func (h *Handler) Upload(c *gin.Context) {
	var body api.UploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{Error: bindErrors(err)})
		return
	}

	req := toRequest(body)

	// The publish loop runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	res, err := h.svc.Upload(ctx, req)
	if err != nil {
		var invalid uploads.ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{Error: []api.FieldError{
				{Path: []string{invalid.Field}, Message: invalid.Message},
			}})
			return
		}
		h.log.Error("github upload failed", "repo", req.RepoName, "error", err)
		msg := uploads.PublicMessage(err)
		if msg == "" {
			msg = fallbackErrorMessage
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, api.UploadResponse{
		Success:  true,
		Url:      res.URL,
		Owner:    res.Owner,
		RepoName: res.RepoName,
	})
}

// toRequest applies the defaults for absent optional fields.
func toRequest(body api.UploadRequest) uploads.Request {
	req := uploads.Request{
		RepoName:      body.RepoName,
		Private:       false,
		IncludeReadme: true,
	}
	if body.RepoDescription != nil {
		req.Description = *body.RepoDescription
	}
	if body.IsPrivate != nil {
		req.Private = *body.IsPrivate
	}
	if body.IncludeReadme != nil {
		req.IncludeReadme = *body.IncludeReadme
	}
	return req
}

var tagNamesOnce sync.Once

// registerJSONTagNames makes validator report JSON field names instead of Go
// struct field names.
func registerJSONTagNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindErrors converts a gin binding error into field errors.
func bindErrors(err error) []api.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]api.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, api.FieldError{Path: []string{fe.Field()}, Message: fieldMessage(fe)})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []api.FieldError{{
			Path:    []string{typeErr.Field},
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type, typeErr.Value),
		}}
	}

	return []api.FieldError{{Path: []string{}, Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Field() == "repoName" && (fe.Tag() == "required" || fe.Tag() == "min") {
		return "Repository name is required"
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
