// README: Bench cases: environment checks, keyword-search and itinerary contract checks, concurrency and throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pocket/internal/modules/session"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "no dsn"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "no redis address"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration || r.db == nil {
					return Result{Status: statusSkip, Note: "apply-migration=false or no dsn"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "no dsn"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: statusFail, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: statusPass, Latency: time.Since(start)}
			},
		},

		statusCase("Keyword: blank input -> 400", http.MethodPost, base+"/keyword-search", map[string]any{"input": " "}, http.StatusBadRequest),
		statusCase("Keyword: bad session id -> 400", http.MethodPost, base+"/keyword-search", map[string]any{"input": "Paris", "session_id": "a/b"}, http.StatusBadRequest),
		{
			Name: "Keyword: new session sets cookie",
			Run: func(ctx context.Context, r *Runner) Result {
				resp, latency, err := r.do(ctx, http.MethodPost, base+"/keyword-search", map[string]any{"input": "I want to visit Paris for 3 days"})
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if resp.StatusCode != http.StatusOK {
					return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				for _, c := range resp.Cookies() {
					if c.Name == "session_id" && c.Value != "" {
						return Result{Status: statusPass, Latency: latency}
					}
				}
				return Result{Status: statusFail, Latency: latency, Note: "no session_id cookie"}
			},
		},
		{
			Name: "Keyword: concurrent turns on one session",
			Run:  concurrentTurns,
		},
		{
			Name: "Keyword: reset session",
			Run: func(ctx context.Context, r *Runner) Result {
				id := "bench-" + uuid.NewString()
				if resp, _, err := r.do(ctx, http.MethodPost, base+"/keyword-search", map[string]any{"input": "Rome", "session_id": id}); err != nil || resp.StatusCode != http.StatusOK {
					return Result{Status: statusFail, Note: "seed turn failed"}
				}
				resp, latency, err := r.do(ctx, http.MethodDelete, base+"/keyword-search/session", map[string]any{"session_id": id})
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if resp.StatusCode != http.StatusNoContent {
					return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				resp, _, err = r.do(ctx, http.MethodDelete, base+"/keyword-search/session", map[string]any{"session_id": id})
				if err != nil || resp.StatusCode != http.StatusNotFound {
					return Result{Status: statusFail, Note: "second delete should be 404"}
				}
				return Result{Status: statusPass, Latency: latency}
			},
		},

		statusCase("Itinerary: missing city -> 400", http.MethodPost, base+"/itinerary", map[string]any{"country": "Japan", "choices": []any{}}, http.StatusBadRequest),
		statusCase("Itinerary: unknown variant -> 404", http.MethodPost, base+"/itinerary/huge", map[string]any{"city": "Tokyo", "country": "Japan", "choices": []any{}}, http.StatusNotFound),
		statusCase("Itinerary: mini variant", http.MethodPost, base+"/itinerary-mini", map[string]any{
			"days":    1,
			"city":    "Tokyo",
			"country": "Japan",
			"choices": []map[string]any{
				{"category": "activity", "title": "Senso-ji", "address": "Asakusa"},
				{"category": "lunch", "title": "Ichiran Asakusa", "address": "Asakusa"},
				{"category": "dinner", "title": "Sushi Dai", "address": "Toyosu"},
			},
		}, http.StatusOK),

		{
			Name: "Perf: health throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/health")
			},
		},
	}
}

func statusCase(name, method, url string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			resp, latency, err := r.do(ctx, method, url, body)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if resp.StatusCode != want {
				return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", resp.StatusCode, want)}
			}
			return Result{Status: statusPass, Latency: latency}
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any) (*http.Response, time.Duration, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp, time.Since(start), nil
}

// concurrentTurns fires two turns at one session at the same time. Both must
// succeed, and when the session store is reachable the transcript must hold
// all five turns.
func concurrentTurns(ctx context.Context, r *Runner) Result {
	id := "bench-" + uuid.NewString()
	url := r.cfg.BaseURL + "/keyword-search"

	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i, input := range []string{"Tokyo", "for 5 days"} {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			resp, _, err := r.do(ctx, http.MethodPost, url, map[string]any{"input": input, "session_id": id})
			if err == nil {
				statuses[i] = resp.StatusCode
			}
		}(i, input)
	}
	wg.Wait()
	for _, s := range statuses {
		if s != http.StatusOK {
			return Result{Status: statusFail, Note: fmt.Sprintf("statuses=%v", statuses)}
		}
	}

	turns, err := r.storedTurns(ctx, id)
	switch {
	case err != nil:
		return Result{Status: statusFail, Note: err.Error()}
	case turns < 0:
		return Result{Status: statusPass, Note: "store not inspected"}
	case turns != 5:
		return Result{Status: statusFail, Note: fmt.Sprintf("turns=%d want=5", turns)}
	}
	return Result{Status: statusPass, Note: "turns=5"}
}

// storedTurns reads the transcript length straight from redis or postgres.
// It returns -1 when neither is configured or the session is in neither.
func (r *Runner) storedTurns(ctx context.Context, id string) (int, error) {
	if r.redis != nil {
		data, err := r.redis.Get(ctx, session.RedisKey(id)).Bytes()
		if err == nil {
			var s session.Session
			if err := json.Unmarshal(data, &s); err != nil {
				return 0, err
			}
			return len(s.Transcript), nil
		}
		if err != redis.Nil {
			return 0, err
		}
	}
	if r.db != nil {
		var n int
		err := r.db.QueryRow(ctx, "SELECT jsonb_array_length(transcript) FROM sessions WHERE id = $1", id).Scan(&n)
		if err == nil {
			return n, nil
		}
	}
	return -1, nil
}

func perfLoad(ctx context.Context, r *Runner, url string) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount, limited int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
				resp, err := r.httpc.Do(req)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case resp.StatusCode == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f limited=%d errors=%d", rps, limited, errCount)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
