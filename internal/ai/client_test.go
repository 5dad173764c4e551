package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testServerSequence(t *testing.T, statuses []int, headers []http.Header, bodyOK any) *ipv4Server {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		if headers != nil && i < len(headers) && headers[i] != nil {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		if st >= 200 && st < 300 {
			w.WriteHeader(st)
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		w.WriteHeader(st)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
}

func TestGenerateRetriesOn429(t *testing.T) {
	okBody := GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}}
	srv := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}, {}}, okBody)
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second, RetryMax: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRetryAfterHonored(t *testing.T) {
	okBody := GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}}
	// Ask server to instruct a 1-second Retry-After, then succeed.
	srv := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}, {}}, okBody)
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 5 * time.Second, RetryMax: 3})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 900*time.Millisecond { // allow some scheduling variance
		t.Fatalf("expected at least ~1s delay due to Retry-After, got %v", elapsed)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	// Server returns 400 with X-Request-Id header
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second, RetryMax: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestStreamParsesDeltas(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		// Send two delta events then DONE
		fmt.Fprintf(w, ": keep-alive\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hello \"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 5 * time.Second, RetryMax: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var out string
	err := c.GenerateStream(ctx, GenerateRequest{Model: "test", Messages: []Message{{Role: "user", Content: "hi"}}}, func(d string) { out += d })
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected stream accumulation: %q", out)
	}
}

func TestPaymentRequiredIsQuota(t *testing.T) {
	srv := testServerSequence(t, []int{402}, nil, nil)
	defer srv.Close()
	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, RetryMax: 3, BaseDelay: time.Millisecond})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var q *QuotaExceededError
	if !errors.As(err, &q) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}
	if UserMessage(err) != MsgNoCredits {
		t.Fatalf("user message: %q", UserMessage(err))
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	srv := testServerSequence(t, []int{429, 429}, nil, nil)
	defer srv.Close()
	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, RetryMax: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if UserMessage(err) != MsgRateLimited {
		t.Fatalf("user message: %q", UserMessage(err))
	}
}

func TestStreamErrorClassified(t *testing.T) {
	srv := testServerSequence(t, []int{401}, nil, nil)
	defer srv.Close()
	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL})
	err := c.GenerateStream(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}}, func(string) {})
	var auth *AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if UserMessage(err) != MsgGenericError {
		t.Fatalf("user message: %q", UserMessage(err))
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(ClientOptions{})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil || !strings.Contains(err.Error(), "API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestReadSSESkipsGarbage(t *testing.T) {
	in := "data: not-json\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\r\n\r\nevent: ping\ndata: [DONE]\ndata: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n"
	var out string
	if err := readSSE(context.Background(), strings.NewReader(in), func(d string) { out += d }); err != nil {
		t.Fatalf("readSSE: %v", err)
	}
	if out != "a" {
		t.Fatalf("got %q", out)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if s, err := parseRetryAfterSeconds("3"); err != nil || s != 3 {
		t.Fatalf("seconds: %d %v", s, err)
	}
	if _, err := parseRetryAfterSeconds("soon"); err == nil {
		t.Fatalf("expected error")
	}
	h := http.Header{}
	h.Set("Retry-After", "2")
	if retryAfter(h) != 2*time.Second {
		t.Fatalf("retryAfter: %v", retryAfter(h))
	}
}

func TestGetRuntime(t *testing.T) {
	rt, err := GetRuntime("OpenRouter", RuntimeConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("GetRuntime: %v", err)
	}
	if _, ok := rt.(StreamRuntime); !ok {
		t.Fatalf("openrouter runtime should stream")
	}
	rt, err = GetRuntime("ollama", RuntimeConfig{})
	if err != nil {
		t.Fatalf("GetRuntime ollama: %v", err)
	}
	if _, ok := rt.(*OllamaClient); !ok {
		t.Fatalf("unexpected runtime %T", rt)
	}
	if _, err := GetRuntime("nope", RuntimeConfig{}); err == nil || !strings.Contains(err.Error(), "ollama, openrouter") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestModelCatalog(t *testing.T) {
	if got := ContextBudget(DefaultModel, 1); got != 1048576 {
		t.Fatalf("context budget: %d", got)
	}
	if got := ContextBudget("unknown/model", 32000); got != 32000 {
		t.Fatalf("fallback budget: %d", got)
	}
	cost, ok := EstimateCostUSD("openai/gpt-4o-mini", 1000, 1000)
	if !ok || cost < 0.00074 || cost > 0.00076 {
		t.Fatalf("cost: %v %v", cost, ok)
	}
	path := t.TempDir() + "/models.json"
	if err := os.WriteFile(path, []byte(`{"acme/tiny":{"context_tokens":4096}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MergeCatalogFile(path); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if mi, ok := LookupModel("acme/tiny"); !ok || mi.Name != "acme/tiny" || mi.ContextTokens != 4096 {
		t.Fatalf("merged entry: %+v %v", mi, ok)
	}
}
