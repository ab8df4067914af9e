package ghmock_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repopush/pkg/ghmock"
	"github.com/tilsley/repopush/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateRepo_DuplicateName_Returns422(t *testing.T) {
	s := ghmock.New(ghmock.Options{}, logging.Discard())
	h := s.Handler()

	w := do(h, http.MethodPost, "/user/repos", `{"name":"demo"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"html_url":"http://localhost:9090/octocat/demo"`)

	w = do(h, http.MethodPost, "/user/repos", `{"name":"demo"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 2, s.Calls("createRepo"))
}

func TestCreateRepo_AutoInitSeedsReadme(t *testing.T) {
	s := ghmock.New(ghmock.Options{}, logging.Discard())
	h := s.Handler()

	do(h, http.MethodPost, "/user/repos", `{"name":"demo","auto_init":true}`)

	assert.Equal(t, []string{"README.md"}, s.Paths("octocat", "demo"))
}

func TestPutContents_StoresDecodedContent(t *testing.T) {
	s := ghmock.New(ghmock.Options{}, logging.Discard())
	h := s.Handler()
	do(h, http.MethodPost, "/user/repos", `{"name":"demo"}`)

	content := base64.StdEncoding.EncodeToString([]byte("hello\n"))
	w := do(h, http.MethodPut, "/repos/octocat/demo/contents/src/a.txt",
		`{"message":"Add src/a.txt","content":"`+content+`"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	got, ok := s.File("octocat", "demo", "src/a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello\n", got)
	require.Len(t, s.Commits(), 1)
	assert.Equal(t, "Add src/a.txt", s.Commits()[0].Message)
}

func TestPutContents_ExistingFileWithoutSHA_Returns422(t *testing.T) {
	s := ghmock.New(ghmock.Options{}, logging.Discard())
	h := s.Handler()
	do(h, http.MethodPost, "/user/repos", `{"name":"demo","auto_init":true}`)

	w := do(h, http.MethodPut, "/repos/octocat/demo/contents/README.md",
		`{"message":"Add README.md","content":"eA=="}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPutContents_MissingRepo_Returns404(t *testing.T) {
	s := ghmock.New(ghmock.Options{}, logging.Discard())

	w := do(s.Handler(), http.MethodPut, "/repos/octocat/nope/contents/a.txt",
		`{"message":"Add a.txt","content":"eA=="}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToken_RequiredWhenConfigured(t *testing.T) {
	s := ghmock.New(ghmock.Options{Token: "secret"}, logging.Discard())
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/user", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/user", "", "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "").Code)
}

func TestDashboard_ListsRepositories(t *testing.T) {
	s := ghmock.New(ghmock.Options{}, logging.Discard())
	h := s.Handler()
	do(h, http.MethodPost, "/user/repos", `{"name":"demo","private":true,"auto_init":true}`)

	w := do(h, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "octocat/demo")
	assert.Contains(t, w.Body.String(), "Private")
	assert.Contains(t, w.Body.String(), "README.md")
}

func TestSeed_PrecreatesRepository(t *testing.T) {
	s := ghmock.New(ghmock.Options{Login: "alice"}, logging.Discard())
	s.Seed("alice", "taken", map[string]string{"main.go": "package main\n"})

	w := do(s.Handler(), http.MethodPost, "/user/repos", `{"name":"taken"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	content, ok := s.File("alice", "taken", "main.go")
	assert.True(t, ok)
	assert.Equal(t, "package main\n", content)
	assert.Equal(t, "alice", s.Login())
}
