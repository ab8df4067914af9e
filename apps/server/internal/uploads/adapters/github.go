// Package adapters implements the uploads ports against real infrastructure.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/time/rate"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

// Compile-time check: *GitHub implements uploads.RepoHost.
var _ uploads.RepoHost = (*GitHub)(nil)

// GitHub wraps a go-github client and implements uploads.RepoHost. Wire it up
// with an authenticated *github.Client from platform/github.
type GitHub struct {
	gh     *gogithub.Client
	org    string
	writes *rate.Limiter // nil means unpaced
}

// NewGitHub creates a GitHub adapter. When org is non-empty repositories are
// created under that organisation instead of the authenticated user.
func NewGitHub(gh *gogithub.Client, org string) *GitHub {
	return &GitHub{gh: gh, org: org}
}

// WithWriteRate paces PutFile to at most perSecond contents writes per second,
// which keeps large uploads under GitHub's secondary rate limits. A value <= 0
// disables pacing.
func (g *GitHub) WithWriteRate(perSecond float64) *GitHub {
	if perSecond <= 0 {
		g.writes = nil
		return g
	}
	g.writes = rate.NewLimiter(rate.Limit(perSecond), 1)
	return g
}

// Identity returns the login of the authenticated user (GET /user).
func (g *GitHub) Identity(ctx context.Context) (*uploads.Identity, error) {
	user, _, err := g.gh.Users.Get(ctx, "")
	if err != nil {
		return nil, hostError("get authenticated user", err)
	}
	return &uploads.Identity{Login: user.GetLogin()}, nil
}

// CreateRepository creates a repository for the authenticated user, or for
// the configured organisation.
func (g *GitHub) CreateRepository(ctx context.Context, req uploads.CreateRepositoryRequest) (*uploads.Repository, error) {
	in := &gogithub.Repository{
		Name:     gogithub.Ptr(req.Name),
		Private:  gogithub.Ptr(req.Private),
		AutoInit: gogithub.Ptr(req.AutoInit),
	}
	if req.Description != "" {
		in.Description = gogithub.Ptr(req.Description)
	}

	repo, _, err := g.gh.Repositories.Create(ctx, g.org, in)
	if err != nil {
		return nil, hostError("create repository", err)
	}
	return &uploads.Repository{
		Owner:   repo.GetOwner().GetLogin(),
		Name:    repo.GetName(),
		HTMLURL: repo.GetHTMLURL(),
	}, nil
}

// PutFile commits a single file through the contents API. go-github marshals
// the []byte content as standard base64, which is the encoding GitHub expects.
// go-github interpolates the path into the URL as is, so it is escaped here.
func (g *GitHub) PutFile(ctx context.Context, owner, repo string, req uploads.PutFileRequest) error {
	if g.writes != nil {
		if err := g.writes.Wait(ctx); err != nil {
			return fmt.Errorf("put %s/%s/%s: wait for write slot: %w", owner, repo, req.Path, err)
		}
	}
	_, _, err := g.gh.Repositories.CreateFile(ctx, owner, repo, escapePath(req.Path), &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr(req.Message),
		Content: []byte(req.Content),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s/%s: %w", owner, repo, req.Path, err)
	}
	return nil
}

// escapePath escapes each '/'-separated segment of a repository path.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// hostError wraps a go-github error in an uploads.HostError carrying the
// message GitHub returned. Transport failures get no public message.
func hostError(op string, err error) error {
	he := &uploads.HostError{Err: fmt.Errorf("%s: %w", op, err)}

	var (
		errResp  *gogithub.ErrorResponse
		rateErr  *gogithub.RateLimitError
		abuseErr *gogithub.AbuseRateLimitError
	)
	switch {
	case errors.As(err, &rateErr):
		he.Status = http.StatusForbidden
		he.Message = rateErr.Message
	case errors.As(err, &abuseErr):
		he.Status = http.StatusForbidden
		he.Message = abuseErr.Message
	case errors.As(err, &errResp):
		if errResp.Response != nil {
			he.Status = errResp.Response.StatusCode
		}
		he.Message = errResp.Message
		details := make([]string, 0, len(errResp.Errors))
		for _, e := range errResp.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			}
		}
		if len(details) > 0 {
			he.Message += " " + strings.Join(details, "; ")
		}
	}
	return he
}
