//go:build e2e

package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/judgelink/apiserver/config"
	"github.com/judgelink/apiserver/internal/server"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

var fakeCodeforces *httptest.Server

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	fakeCodeforces = httptest.NewServer(http.HandlerFunc(serveFakeStandings))

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		fakeCodeforces.Close()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		fakeCodeforces.Close()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	fakeCodeforces.Close()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

// serveFakeStandings stands in for the Codeforces API so the suite does not
// depend on the real upstream.
func serveFakeStandings(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("contestId") != "150" {
		_, _ = w.Write([]byte(`{"status": "FAILED", "comment": "contestId: Contest with id not found"}`))
		return
	}
	_, _ = w.Write([]byte(`{
		"status": "OK",
		"result": {
			"problems": [
				{"index": "A", "name": "Win or Freeze"},
				{"index": "D", "name": "Divide by 2 or 3"}
			]
		}
	}`))
}

func TestQueryResolution(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	var resp struct {
		Items []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"items"`
	}
	if err := getJSON(baseURL+"/query?text=150D", &resp); err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	if resp.Items[0].Title != "150D - Divide by 2 or 3" {
		t.Fatalf("unexpected title: %q", resp.Items[0].Title)
	}
	if resp.Items[0].URL != "https://codeforces.com/contest/150/problem/D" {
		t.Fatalf("unexpected url: %q", resp.Items[0].URL)
	}

	if err := expectCacheValue("cf:150", `{"A":"Win or Freeze","D":"Divide by 2 or 3"}`); err != nil {
		t.Fatalf("cache entry: %v", err)
	}

	var chosen struct {
		Platform   string `json:"platform"`
		Normalized string `json:"normalized"`
		URL        string `json:"url"`
	}
	if err := getJSON(baseURL+"/chosen?id=CF:150D&text=150D", &chosen); err != nil {
		t.Fatalf("chosen: %v", err)
	}
	if chosen.Platform != "CF" || chosen.Normalized != "150D" {
		t.Fatalf("unexpected chosen response: %+v", chosen)
	}
}

func TestContestListing(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	var resp struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := getJSON(baseURL+"/query?text=150", &resp); err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].ID != "CF:150A" || resp.Items[1].ID != "CF:150D" {
		t.Fatalf("unexpected order: %+v", resp.Items)
	}

	// An unknown contest resolves to an empty listing, not an error.
	if err := getJSON(baseURL+"/query?text=999999", &resp); err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(resp.Items))
	}
}

func getJSON(url string, out any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func expectCacheValue(key, want string) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var value string
	if err := db.QueryRowContext(ctx, "SELECT value FROM contest_cache WHERE key = $1", key).Scan(&value); err != nil {
		return err
	}
	if value != want {
		return fmt.Errorf("value = %q, want %q", value, want)
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "judgelink")
	_ = os.Setenv("DB_PASSWORD", "judgelink")
	_ = os.Setenv("DB_NAME", "judgelink")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("CF_BASE_URL", fakeCodeforces.URL)

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
