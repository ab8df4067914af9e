package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrName = "github.com/tilsley/repopush"

// Service creates a remote repository and publishes the local project into it.
// It depends only on port interfaces and the Collector.
type Service struct {
	host      RepoHost
	history   HistoryStore
	collector *Collector
	root      string
	log       *slog.Logger
	now       func() time.Time

	tracer    trace.Tracer
	uploads   metric.Int64Counter
	published metric.Int64Counter
	failed    metric.Int64Counter
}

// NewService creates a Service that publishes files found under root.
// history may be nil, in which case nothing is recorded.
func NewService(host RepoHost, history HistoryStore, collector *Collector, root string, log *slog.Logger) *Service {
	m := otel.Meter(instrName)

	uploads, _ := m.Int64Counter("repopush.uploads",
		metric.WithDescription("Number of repositories created by uploads"))
	published, _ := m.Int64Counter("repopush.files.published",
		metric.WithDescription("Number of files committed to remote repositories"))
	failed, _ := m.Int64Counter("repopush.files.failed",
		metric.WithDescription("Number of file commits that failed and were skipped"))

	return &Service{
		host:      host,
		history:   history,
		collector: collector,
		root:      root,
		log:       log,
		now:       time.Now,
		tracer:    otel.Tracer(instrName),
		uploads:   uploads,
		published: published,
		failed:    failed,
	}
}

// Upload validates req, creates the repository and commits each collected
// file to it one at a time. Only validation, identity and creation failures
// are returned; a file that fails to publish is logged and skipped.
func (s *Service) Upload(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "uploads.Upload", trace.WithAttributes(
		attribute.String("repo.name", req.RepoName),
		attribute.Bool("repo.private", req.Private),
	))
	defer span.End()

	id, err := s.host.Identity(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "identity")
		return nil, IdentityError{Err: err}
	}

	repo, err := s.host.CreateRepository(ctx, CreateRepositoryRequest{
		Name:        req.RepoName,
		Description: req.Description,
		Private:     req.Private,
		AutoInit:    req.IncludeReadme,
	})
	if err != nil {
		span.SetStatus(codes.Error, "create repository")
		return nil, CreateRepositoryError{Name: req.RepoName, Err: err}
	}
	s.uploads.Add(ctx, 1)

	owner := repo.Owner
	if owner == "" {
		owner = id.Login
	}
	name := repo.Name
	if name == "" {
		name = req.RepoName
	}
	s.log.Info("repository created", "owner", owner, "repo", name, "url", repo.HTMLURL)

	files := s.collector.Collect(s.root)
	published := s.publish(ctx, owner, name, files)
	span.SetAttributes(
		attribute.Int("files.collected", len(files)),
		attribute.Int("files.published", published),
	)

	res := &Result{
		Owner:     owner,
		RepoName:  name,
		URL:       repo.HTMLURL,
		Private:   req.Private,
		Collected: len(files),
		Published: published,
	}
	s.record(ctx, res)
	return res, nil
}

// publish commits files sequentially and returns how many succeeded.
func (s *Service) publish(ctx context.Context, owner, repo string, files []File) int {
	attrs := metric.WithAttributes(attribute.String("owner", owner))
	published := 0
	for _, f := range files {
		err := s.host.PutFile(ctx, owner, repo, PutFileRequest{
			Path:    f.Path,
			Message: CommitMessage(f.Path),
			Content: f.Content,
		})
		if err != nil {
			s.failed.Add(ctx, 1, attrs)
			s.log.Warn("file publish failed, continuing", "repo", owner+"/"+repo, "path", f.Path, "error", err)
			continue
		}
		s.published.Add(ctx, 1, attrs)
		published++
	}
	s.log.Info("upload finished", "repo", owner+"/"+repo, "collected", len(files), "published", published)
	return published
}

// record stores a history entry. The repository already exists at this point,
// so a store failure is logged rather than returned.
func (s *Service) record(ctx context.Context, res *Result) {
	if s.history == nil {
		return
	}
	rec := Record{
		ID:             uuid.New().String(),
		Owner:          res.Owner,
		RepoName:       res.RepoName,
		URL:            res.URL,
		Private:        res.Private,
		FilesCollected: res.Collected,
		FilesPublished: res.Published,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.log.Error("failed to record upload", "repo", res.Owner+"/"+res.RepoName, "error", err)
	}
}

// History returns the most recent uploads, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Record, error) {
	if s.history == nil {
		return []Record{}, nil
	}
	recs, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return recs, nil
}
