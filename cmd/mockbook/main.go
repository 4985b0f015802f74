// Command mockbook serves a fake Cookbook API for local development.
//
//	mockbook -addr :8089 -recipes 45 -token $(printf 'dev:dev' | base64)
//
// Point ladle at http://localhost:8089 to browse generated recipes.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/ladle/internal/cookbook/cookbooktest"
)

func main() {
	var (
		addr    string
		recipes int
		token   string
		version string
		quiet   bool
	)
	flag.StringVar(&addr, "addr", ":8089", "listen address")
	flag.IntVar(&recipes, "recipes", 45, "number of generated recipes")
	flag.StringVar(&token, "token", "", "required Basic token (empty accepts any)")
	flag.StringVar(&version, "cookbook-version", "0.10.2", "reported cookbook_version")
	flag.BoolVar(&quiet, "quiet", false, "disable request logging")
	flag.Parse()

	if err := run(addr, recipes, token, version, quiet); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, recipes int, token, version string, quiet bool) error {
	fake := cookbooktest.New()
	fake.Seed(recipes)
	fake.SetVersion(version)
	if token != "" {
		fake.RequireToken(token)
	}
	if !quiet {
		fake.EnableLogging()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           fake.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("mock cookbook listening", "addr", addr, "recipes", recipes, "auth", token != "")
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
