package adapters

import (
	"context"
	"fmt"
	"sync"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

// Compile-time check: *InMem implements uploads.RepoHost.
var _ uploads.RepoHost = (*InMem)(nil)

// PutCall records one PutFile invocation.
type PutCall struct {
	Owner string
	Repo  string
	uploads.PutFileRequest
}

// InMem is an in-memory uploads.RepoHost for unit tests and dry runs.
// Failures can be injected per step.
type InMem struct {
	mu      sync.Mutex
	login   string
	repos   map[string]uploads.Repository // "owner/name" -> repo
	files   map[string]string             // "owner/repo/path" -> content
	creates []uploads.CreateRepositoryRequest
	puts    []PutCall

	IdentityErr error
	CreateErr   error
	FailPaths   map[string]error
}

// NewInMem creates an InMem host authenticated as login.
func NewInMem(login string) *InMem {
	return &InMem{
		login:     login,
		repos:     make(map[string]uploads.Repository),
		files:     make(map[string]string),
		FailPaths: make(map[string]error),
	}
}

// Identity returns the configured login.
func (m *InMem) Identity(_ context.Context) (*uploads.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IdentityErr != nil {
		return nil, m.IdentityErr
	}
	return &uploads.Identity{Login: m.login}, nil
}

// CreateRepository records the request and rejects duplicate names the way
// GitHub does.
func (m *InMem) CreateRepository(_ context.Context, req uploads.CreateRepositoryRequest) (*uploads.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, req)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	key := m.login + "/" + req.Name
	if _, ok := m.repos[key]; ok {
		return nil, fmt.Errorf("name already exists on this account: %s", req.Name)
	}
	repo := uploads.Repository{
		Owner:   m.login,
		Name:    req.Name,
		HTMLURL: "https://github.com/" + key,
	}
	m.repos[key] = repo
	if req.AutoInit {
		m.files[key+"/README.md"] = "# " + req.Name + "\n"
	}
	return &repo, nil
}

// PutFile records the call and stores the content unless a failure is
// injected for the path.
func (m *InMem) PutFile(_ context.Context, owner, repo string, req uploads.PutFileRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, PutCall{Owner: owner, Repo: repo, PutFileRequest: req})
	if err, ok := m.FailPaths[req.Path]; ok {
		return err
	}
	if _, ok := m.repos[owner+"/"+repo]; !ok {
		return fmt.Errorf("repository %s/%s not found", owner, repo)
	}
	m.files[owner+"/"+repo+"/"+req.Path] = req.Content
	return nil
}

// Creates returns every CreateRepository request received.
func (m *InMem) Creates() []uploads.CreateRepositoryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uploads.CreateRepositoryRequest, len(m.creates))
	copy(out, m.creates)
	return out
}

// Puts returns every PutFile call received, in order.
func (m *InMem) Puts() []PutCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PutCall, len(m.puts))
	copy(out, m.puts)
	return out
}

// File returns the stored content at owner/repo/path.
func (m *InMem) File(owner, repo, path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[owner+"/"+repo+"/"+path]
	return content, ok
}
