// Command mock-github serves a local fake of the GitHub REST API so the
// repopush server can be run end to end without a real account.
package main

import (
	"os"

	"github.com/tilsley/repopush/pkg/ghmock"
	"github.com/tilsley/repopush/pkg/logging"
)

func main() {
	log := logging.New("mock-github")

	port := envOr("PORT", "9090")
	srv := ghmock.New(ghmock.Options{
		Login:   envOr("MOCK_LOGIN", "octocat"),
		Token:   os.Getenv("MOCK_TOKEN"),
		BaseURL: envOr("BASE_URL", "http://localhost:"+port),
	}, log)

	seedRepos(srv, os.Getenv("SEED_REPOS"))

	log.Info("starting mock-github", "port", port, "login", srv.Login())
	if err := srv.Handler().Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
