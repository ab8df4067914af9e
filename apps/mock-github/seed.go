package main

import (
	"strings"

	"github.com/tilsley/repopush/pkg/ghmock"
)

// seedRepos pre-creates the comma-separated repository names under the mock
// login so that name collisions can be reproduced locally. Called before the
// server accepts requests.
func seedRepos(srv *ghmock.Server, names string) {
	for _, name := range parseNames(names) {
		srv.Seed(srv.Login(), name, map[string]string{
			"README.md": "# " + name + "\n\nSeeded by mock-github.\n",
		})
	}
}

func parseNames(s string) []string {
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
