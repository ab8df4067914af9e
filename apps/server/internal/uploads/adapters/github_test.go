package adapters_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghplatform "github.com/tilsley/repopush/apps/server/internal/platform/github"
	"github.com/tilsley/repopush/apps/server/internal/uploads"
	"github.com/tilsley/repopush/apps/server/internal/uploads/adapters"
	"github.com/tilsley/repopush/pkg/ghmock"
	"github.com/tilsley/repopush/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGitHub(t *testing.T, org string) (*adapters.GitHub, *ghmock.Server) {
	t.Helper()
	mock := ghmock.New(ghmock.Options{Login: "alice", Token: "tok"}, logging.Discard())
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	mock.SetBaseURL(srv.URL)
	gh := ghplatform.NewTokenClient("tok", srv.URL, 5*time.Second)
	return adapters.NewGitHub(gh, org), mock
}

func TestGitHub_Identity(t *testing.T) {
	a, _ := newGitHub(t, "")

	id, err := a.Identity(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "alice", id.Login)
}

func TestGitHub_Identity_ServerError(t *testing.T) {
	a, mock := newGitHub(t, "")
	mock.FailUser()

	_, err := a.Identity(context.Background())

	require.Error(t, err)
	var he *uploads.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, "Server Error", he.Message)
}

func TestGitHub_Identity_Unreachable_HasNoPublicMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	a := adapters.NewGitHub(ghplatform.NewTokenClient("tok", url, time.Second), "")

	_, err := a.Identity(context.Background())

	require.Error(t, err)
	var he *uploads.HostError
	require.ErrorAs(t, err, &he)
	assert.Empty(t, he.Message)
	assert.Empty(t, uploads.PublicMessage(err))
}

func TestGitHub_CreateRepository(t *testing.T) {
	a, mock := newGitHub(t, "")

	repo, err := a.CreateRepository(context.Background(), uploads.CreateRepositoryRequest{
		Name:        "demo",
		Description: "a demo",
		Private:     true,
		AutoInit:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", repo.Owner)
	assert.Equal(t, "demo", repo.Name)
	assert.Contains(t, repo.HTMLURL, "/alice/demo")

	repos := mock.Repos()
	require.Len(t, repos, 1)
	assert.True(t, repos[0].Private)
	assert.Equal(t, "a demo", repos[0].Description)
	assert.Equal(t, []string{"README.md"}, mock.Paths("alice", "demo"))
}

func TestGitHub_CreateRepository_NameTaken(t *testing.T) {
	a, _ := newGitHub(t, "")
	req := uploads.CreateRepositoryRequest{Name: "demo"}

	_, err := a.CreateRepository(context.Background(), req)
	require.NoError(t, err)
	_, err = a.CreateRepository(context.Background(), req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	var he *uploads.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Status)
	assert.Equal(t, "Repository creation failed. name already exists on this account", he.Message)
	assert.NotContains(t, he.Message, "http")
}

func TestGitHub_CreateRepository_Org(t *testing.T) {
	a, mock := newGitHub(t, "acme")

	repo, err := a.CreateRepository(context.Background(), uploads.CreateRepositoryRequest{Name: "demo"})

	require.NoError(t, err)
	assert.Equal(t, "acme", repo.Owner)
	require.Len(t, mock.Repos(), 1)
	assert.Equal(t, "acme", mock.Repos()[0].Owner)
}

func TestGitHub_PutFile_RoundTripsContent(t *testing.T) {
	a, mock := newGitHub(t, "")
	_, err := a.CreateRepository(context.Background(), uploads.CreateRepositoryRequest{Name: "demo"})
	require.NoError(t, err)

	content := "héllo wörld\n\ttabs and unicode ✓\n"
	err = a.PutFile(context.Background(), "alice", "demo", uploads.PutFileRequest{
		Path:    "docs/readme.txt",
		Message: uploads.CommitMessage("docs/readme.txt"),
		Content: content,
	})

	require.NoError(t, err)
	got, ok := mock.File("alice", "demo", "docs/readme.txt")
	require.True(t, ok)
	assert.Equal(t, content, got)
	require.Len(t, mock.Commits(), 1)
	assert.Equal(t, "Add docs/readme.txt", mock.Commits()[0].Message)
}

func TestGitHub_PutFile_ReservedCharactersInPath(t *testing.T) {
	a, mock := newGitHub(t, "")
	_, err := a.CreateRepository(context.Background(), uploads.CreateRepositoryRequest{Name: "demo"})
	require.NoError(t, err)

	paths := []string{"notes#1.md", "what?.txt", "100% done.txt", "dir with space/a&b=c.txt"}
	for _, p := range paths {
		require.NoError(t, a.PutFile(context.Background(), "alice", "demo", uploads.PutFileRequest{
			Path: p, Message: uploads.CommitMessage(p), Content: "body of " + p,
		}), p)
	}

	assert.ElementsMatch(t, paths, mock.Paths("alice", "demo"))
	for _, p := range paths {
		got, ok := mock.File("alice", "demo", p)
		require.True(t, ok, p)
		assert.Equal(t, "body of "+p, got)
	}
}

func TestGitHub_PutFile_Failure(t *testing.T) {
	a, mock := newGitHub(t, "")
	_, err := a.CreateRepository(context.Background(), uploads.CreateRepositoryRequest{Name: "demo"})
	require.NoError(t, err)
	mock.FailPath("bad.txt", http.StatusInternalServerError)

	err = a.PutFile(context.Background(), "alice", "demo", uploads.PutFileRequest{
		Path: "bad.txt", Message: "Add bad.txt", Content: "x",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice/demo/bad.txt")
}

func TestGitHub_WithWriteRate_PacesWrites(t *testing.T) {
	a, mock := newGitHub(t, "")
	a.WithWriteRate(20)
	_, err := a.CreateRepository(context.Background(), uploads.CreateRepositoryRequest{Name: "demo"})
	require.NoError(t, err)

	start := time.Now()
	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, a.PutFile(context.Background(), "alice", "demo", uploads.PutFileRequest{
			Path: p, Message: uploads.CommitMessage(p), Content: p,
		}))
	}

	// Burst of one: the second and third writes each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, mock.Calls("putContents"))
}

func TestGitHub_WithWriteRate_CancelledContext(t *testing.T) {
	a, mock := newGitHub(t, "")
	a.WithWriteRate(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.PutFile(ctx, "alice", "demo", uploads.PutFileRequest{Path: "a.txt", Message: "Add a.txt", Content: "a"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, mock.Calls("putContents"))
}
