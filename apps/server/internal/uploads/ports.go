package uploads

import "context"

// RepoHost is the hosting-provider API the publisher depends on.
// The go-github adapter provides the production implementation.
type RepoHost interface {
	Identity(ctx context.Context) (*Identity, error)
	CreateRepository(ctx context.Context, req CreateRepositoryRequest) (*Repository, error)
	PutFile(ctx context.Context, owner, repo string, req PutFileRequest) error
}

// HistoryStore persists a record of every successful upload.
type HistoryStore interface {
	Save(ctx context.Context, r Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}
