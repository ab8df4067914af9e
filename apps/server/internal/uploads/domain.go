package uploads

import (
	"fmt"
	"strings"
	"time"
)

// Request is a validated upload request with defaults applied.
type Request struct {
	RepoName      string
	Description   string // empty means "no description"
	Private       bool
	IncludeReadme bool
}

// Validate checks the invariants the HTTP layer cannot be trusted to enforce.
func (r Request) Validate() error {
	if strings.TrimSpace(r.RepoName) == "" {
		return ValidationError{Field: "repoName", Message: "Repository name is required"}
	}
	return nil
}

// File is one text file collected from the local tree.
type File struct {
	Path    string // relative, '/'-separated
	Content string
}

// Identity is the authenticated account on the hosting provider.
type Identity struct {
	Login string
}

// CreateRepositoryRequest carries the options for a new remote repository.
type CreateRepositoryRequest struct {
	Name        string
	Description string
	Private     bool
	AutoInit    bool
}

// Repository is the remote repository as reported by the hosting provider.
type Repository struct {
	Owner   string
	Name    string
	HTMLURL string
}

// PutFileRequest creates or updates one file in a repository.
type PutFileRequest struct {
	Path    string
	Message string
	Content string // plain text; adapters handle transport encoding
}

// CommitMessage is the message used for the commit that adds path.
func CommitMessage(path string) string {
	return fmt.Sprintf("Add %s", path)
}

// Result summarises a finished upload. Published may be lower than Collected
// when individual file writes failed.
type Result struct {
	Owner     string
	RepoName  string
	URL       string
	Private   bool
	Collected int
	Published int
}

// Record is a persisted upload history entry.
type Record struct {
	ID             string
	Owner          string
	RepoName       string
	URL            string
	Private        bool
	FilesCollected int
	FilesPublished int
	CreatedAt      time.Time
}
