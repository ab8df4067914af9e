// Package ghmock is a small in-process fake of the GitHub REST API subset
// repopush needs: the authenticated user, repository creation and the
// contents API. It backs apps/mock-github and the go-github adapter tests.
package ghmock

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Options configures a Server.
type Options struct {
	// Login is the authenticated user's login. Defaults to "octocat".
	Login string
	// Token, when set, must be presented as a bearer token on every API call.
	Token string
	// BaseURL is used to build html_url values. Defaults to "http://localhost:9090".
	BaseURL string
}

// Server is the fake GitHub API.
type Server struct {
	store   *store
	login   string
	token   string
	baseURL string
	log     *slog.Logger

	mu        sync.Mutex
	calls     map[string]int
	failPaths map[string]int
	failUser  bool
}

// New creates a Server with an empty store.
func New(opts Options, log *slog.Logger) *Server {
	if opts.Login == "" {
		opts.Login = "octocat"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:9090"
	}
	return &Server{
		store:     newStore(),
		login:     opts.Login,
		token:     opts.Token,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		log:       log,
		calls:     make(map[string]int),
		failPaths: make(map[string]int),
	}
}

// SetBaseURL changes the host used in html_url values, e.g. once an
// httptest server address is known.
func (s *Server) SetBaseURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = strings.TrimSuffix(u, "/")
}

// FailPath makes every contents write to path answer with status.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPaths[path] = status
}

// FailUser makes GET /user answer 500.
func (s *Server) FailUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUser = true
}

// Calls returns how many times the named operation was invoked:
// "getUser", "createRepo" or "putContents".
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Repos returns every repository, oldest first.
func (s *Server) Repos() []Repo { return s.store.listRepos() }

// Paths returns the sorted file paths stored in owner/repo.
func (s *Server) Paths(owner, repo string) []string { return s.store.paths(owner, repo) }

// File returns the decoded content stored at owner/repo/path.
func (s *Server) File(owner, repo, path string) (string, bool) {
	return s.store.getFile(owner, repo, path)
}

// Seed creates owner/name directly in the store with the given files, as if
// they had been committed before the server started. It is a no-op for the
// repository when the name is already taken.
func (s *Server) Seed(owner, name string, files map[string]string) {
	if r := s.store.createRepo(owner, name, "", false, false); r == nil {
		s.log.Warn("seed repository already exists", "repo", owner+"/"+name)
	}
	for path, content := range files {
		s.store.putFile(owner, name, path, content, "Seed "+path, true)
	}
}

// Login is the authenticated user's login.
func (s *Server) Login() string { return s.login }

// Commits returns every commit recorded through the contents API.
func (s *Server) Commits() []Commit { return s.store.listCommits() }

// Handler returns the gin engine serving the fake API and an HTML dashboard.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/", s.dashboard)

	api := r.Group("/", s.authenticate)
	api.GET("/user", s.getUser)
	api.POST("/user/repos", s.createUserRepo)
	api.POST("/orgs/:org/repos", s.createOrgRepo)
	api.GET("/repos/:owner/:repo", s.getRepo)
	api.PUT("/repos/:owner/:repo/contents/*path", s.putContents)
	api.GET("/repos/:owner/:repo/contents/*path", s.getContents)
	return r
}

func (s *Server) count(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

func (s *Server) authenticate(c *gin.Context) {
	if s.token == "" {
		c.Next()
		return
	}
	auth := c.GetHeader("Authorization")
	if auth != "Bearer "+s.token && auth != "token "+s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Bad credentials"})
		return
	}
	c.Next()
}

func (s *Server) getUser(c *gin.Context) {
	s.count("getUser")
	s.mu.Lock()
	fail := s.failUser
	s.mu.Unlock()
	if fail {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"login": s.login, "id": 1, "type": "User"})
}

type createRepoBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

func (s *Server) createUserRepo(c *gin.Context) { s.createRepo(c, s.login) }

func (s *Server) createOrgRepo(c *gin.Context) { s.createRepo(c, c.Param("org")) }

func (s *Server) createRepo(c *gin.Context, owner string) {
	s.count("createRepo")
	var body createRepoBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Problems parsing JSON"})
		return
	}
	if body.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Repository creation failed."})
		return
	}

	repo := s.store.createRepo(owner, body.Name, body.Description, body.Private, body.AutoInit)
	if repo == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "Repository creation failed.",
			"errors": []gin.H{{
				"resource": "Repository",
				"code":     "custom",
				"field":    "name",
				"message":  "name already exists on this account",
			}},
		})
		return
	}
	s.log.Info("repository created", "owner", owner, "repo", repo.Name, "private", repo.Private)
	c.JSON(http.StatusCreated, s.repoJSON(repo))
}

func (s *Server) getRepo(c *gin.Context) {
	repo := s.store.repo(c.Param("owner"), c.Param("repo"))
	if repo == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
		return
	}
	c.JSON(http.StatusOK, s.repoJSON(repo))
}

func (s *Server) repoJSON(r *Repo) gin.H {
	s.mu.Lock()
	base := s.baseURL
	s.mu.Unlock()
	return gin.H{
		"id":          r.ID,
		"name":        r.Name,
		"full_name":   r.Owner + "/" + r.Name,
		"description": r.Description,
		"private":     r.Private,
		"html_url":    fmt.Sprintf("%s/%s/%s", base, r.Owner, r.Name),
		"owner":       gin.H{"login": r.Owner},
	}
}

type putContentsBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func (s *Server) putContents(c *gin.Context) {
	s.count("putContents")
	owner, repo := c.Param("owner"), c.Param("repo")
	path := strings.TrimPrefix(c.Param("path"), "/")

	s.mu.Lock()
	status, fail := s.failPaths[path]
	s.mu.Unlock()
	if fail {
		c.JSON(status, gin.H{"message": "injected failure"})
		return
	}

	var body putContentsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Problems parsing JSON"})
		return
	}
	if body.Message == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid request.\n\n\"message\" wasn't supplied."})
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "content is not valid Base64"})
		return
	}

	sha, found, exists := s.store.putFile(owner, repo, path, string(decoded), body.Message, body.SHA != "")
	switch {
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	case exists:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid request.\n\n\"sha\" wasn't supplied."})
	default:
		c.JSON(http.StatusCreated, gin.H{
			"content": gin.H{"name": lastSegment(path), "path": path, "sha": sha},
			"commit":  gin.H{"message": body.Message},
		})
	}
}

func (s *Server) getContents(c *gin.Context) {
	owner, repo := c.Param("owner"), c.Param("repo")
	path := strings.TrimPrefix(c.Param("path"), "/")

	content, ok := s.store.getFile(owner, repo, path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"message": fmt.Sprintf("path %q not found in %s/%s", path, owner, repo),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":     "file",
		"name":     lastSegment(path),
		"path":     path,
		"sha":      blobSHA(content),
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		"encoding": "base64",
	})
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i != -1 {
		return path[i+1:]
	}
	return path
}
