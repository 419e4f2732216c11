package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"forumd/internal/config"
	"forumd/internal/forum"
	"forumd/internal/httpapi"
	"forumd/internal/mail"
)

const forumFixture = `users:
  - id: 1
    username: ann
  - id: 2
    username: bob
tags:
  - id: 1
    slug: go
    name: Go
  - id: 2
    slug: db
    name: Databases
articles:
  - id: 1
    slug: intro
    title: Intro to Go
    tags: [go]
    publish_date: 2024-01-02T00:00:00Z
    live: true
  - id: 2
    slug: channels
    title: Go channels
    tags: [go]
    publish_date: 2024-02-02T00:00:00Z
    live: true
  - id: 3
    slug: indexes
    title: Indexes
    tags: [db]
    publish_date: 2024-03-02T00:00:00Z
    live: true
`

// createFixturesDir writes the given files into a temporary directory.
func createFixturesDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", p, err)
		}
	}
	return dir
}

func newServer(t *testing.T, mut func(*config.Config)) (*httptest.Server, *forum.App, *mail.MemoryMailer) {
	t.Helper()
	cfg := config.Config{FixturesDir: createFixturesDir(t, map[string]string{"forum.yaml": forumFixture})}
	if mut != nil {
		mut(&cfg)
	}
	m := mail.NewMemoryMailer()
	app := forum.New(cfg.WithDefaults(), m, zerolog.Nop())
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(app))
	t.Cleanup(srv.Close)
	return srv, app, m
}

// noRedirect is a client that reports redirects instead of following them.
var noRedirect = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

func do(t *testing.T, c *http.Client, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpGet(t *testing.T, url, user string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if user != "" {
		req.Header.Set(httpapi.UserHeader, user)
	}
	return do(t, http.DefaultClient, req)
}

func httpPostJSON(t *testing.T, url, user string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(httpapi.UserHeader, user)
	}
	return do(t, noRedirect, req)
}
