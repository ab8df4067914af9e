package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tilsley/repopush/apps/server/internal/platform/postgres"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/repopush":   "pgx5://u:p@localhost:5432/repopush",
		"postgresql://u:p@localhost:5432/repopush": "pgx5://u:p@localhost:5432/repopush",
		"pgx5://localhost/repopush":                "pgx5://localhost/repopush",
		"":                                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, postgres.MigrateURL(in), "input %q", in)
	}
}
