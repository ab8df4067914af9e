// Package api holds the JSON wire types shared by the repopush server and its
// clients. Field names mirror schemas/openapi.yaml.
package api

import "time"

// UploadRequest is the body of POST /api/github/upload.
// Optional booleans are pointers so absent fields can take their defaults.
type UploadRequest struct {
	RepoName        string  `json:"repoName"                  binding:"required,min=1"`
	RepoDescription *string `json:"repoDescription,omitempty"`
	IsPrivate       *bool   `json:"isPrivate,omitempty"`
	IncludeReadme   *bool   `json:"includeReadme,omitempty"`
}

// UploadResponse is returned with 200 once the repository exists.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Url      string `json:"url"`
	Owner    string `json:"owner"`
	RepoName string `json:"repoName"`
}

// FieldError describes one invalid field of a request body.
// Path is the location of the field, empty for body-level problems.
type FieldError struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// ValidationErrorResponse is returned with 400.
type ValidationErrorResponse struct {
	Error []FieldError `json:"error"`
}

// ErrorResponse is returned with 500.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadRecord is one entry of the upload history.
type UploadRecord struct {
	Id             string    `json:"id"`
	Owner          string    `json:"owner"`
	RepoName       string    `json:"repoName"`
	Url            string    `json:"url"`
	Private        bool      `json:"private"`
	FilesCollected int       `json:"filesCollected"`
	FilesPublished int       `json:"filesPublished"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListUploadsResponse is the body of GET /api/github/uploads.
type ListUploadsResponse struct {
	Uploads []UploadRecord `json:"uploads"`
}
