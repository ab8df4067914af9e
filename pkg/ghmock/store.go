package ghmock

import (
	"crypto/sha1" //nolint:gosec // git object ids are sha1
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Repo is a repository held by the fake.
type Repo struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"created_at"`
}

// Commit is one contents-API commit recorded by the fake.
type Commit struct {
	Repo    string
	Path    string
	Message string
	SHA     string
}

// store holds repositories and file content keyed by "owner/repo".
type store struct {
	mu      sync.RWMutex
	nextID  int64
	repos   map[string]*Repo
	files   map[string]map[string]string // repo key -> path -> content
	commits []Commit
}

func newStore() *store {
	return &store{
		nextID: 1,
		repos:  make(map[string]*Repo),
		files:  make(map[string]map[string]string),
	}
}

// createRepo returns nil when the name is already taken.
func (s *store) createRepo(owner, name, description string, private, autoInit bool) *Repo {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + name
	if _, ok := s.repos[key]; ok {
		return nil
	}
	r := &Repo{
		ID:          s.nextID,
		Owner:       owner,
		Name:        name,
		Description: description,
		Private:     private,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.repos[key] = r
	s.files[key] = make(map[string]string)
	if autoInit {
		s.putLocked(key, "README.md", "# "+name+"\n", "Initial commit")
	}
	return r
}

func (s *store) repo(owner, name string) *Repo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos[owner+"/"+name]
}

// putFile stores content. It reports false when the repository is missing and
// exists=true when the path already holds a file.
func (s *store) putFile(owner, repo, path, content, message string, allowUpdate bool) (sha string, repoFound, exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + repo
	files, ok := s.files[key]
	if !ok {
		return "", false, false
	}
	if _, taken := files[path]; taken && !allowUpdate {
		return "", true, true
	}
	return s.putLocked(key, path, content, message), true, false
}

func (s *store) putLocked(key, path, content, message string) string {
	sha := blobSHA(content)
	s.files[key][path] = content
	s.commits = append(s.commits, Commit{Repo: key, Path: path, Message: message, SHA: sha})
	return sha
}

func (s *store) getFile(owner, repo, path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[owner+"/"+repo][path]
	return content, ok
}

func (s *store) listRepos() []Repo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Repo, 0, len(s.repos))
	for _, r := range s.repos {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) paths(owner, repo string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := s.files[owner+"/"+repo]
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *store) listCommits() []Commit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Commit, len(s.commits))
	copy(out, s.commits)
	return out
}

// blobSHA computes the git blob id of content.
func blobSHA(content string) string {
	h := sha1.New() //nolint:gosec // git object ids are sha1
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
