package leaderboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"carpet-quiz-service/internal/domain"
)

func TestFetchCachesReads(t *testing.T) {
	remote := newFakeRemote(domain.LeaderboardDocument{
		"simple_10": {{Name: "Ada", Score: 9, Date: "2026-08-01"}},
	})
	server := httptest.NewServer(remote)
	defer server.Close()

	client := NewClient(server.URL, "secret")

	doc := client.Fetch(context.Background())
	if len(doc["simple_10"]) != 1 {
		t.Fatalf("expected one entry, got %+v", doc)
	}
	_ = client.Fetch(context.Background())
	if remote.gets() != 1 {
		t.Fatalf("expected one remote read, got %d", remote.gets())
	}
	if got := remote.lastAuth(); got != "Bearer secret" {
		t.Fatalf("expected bearer credential, got %q", got)
	}
}

func TestFetchDegradesToEmptyDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	doc := NewClient(server.URL, "").Fetch(context.Background())
	if doc == nil || len(doc) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer malformed.Close()

	doc = NewClient(malformed.URL, "").Fetch(context.Background())
	if len(doc) != 0 {
		t.Fatalf("expected empty document for malformed payload, got %+v", doc)
	}
}

func TestSubmitAppendsSortsAndTruncates(t *testing.T) {
	seed := domain.LeaderboardDocument{"simple_10": {
		{Name: "Ada", Score: 8, Date: "2026-08-01"},
		{Name: "Ben", Score: 8, Date: "2026-08-10"},
		{Name: "Cam", Score: 5, Date: "2026-08-05"},
	}}
	remote := newFakeRemote(seed)
	server := httptest.NewServer(remote)
	defer server.Close()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	client := NewClient(server.URL, "secret",
		WithTopN(3),
		WithClock(func() time.Time { return now }),
	)

	ok := client.Submit(context.Background(), "  Dora the Leaderboard Explorer  ", 8, domain.SessionConfig{Questions: 10, Mode: domain.ModeSimple})
	if !ok {
		t.Fatalf("expected submit to succeed")
	}

	bucket := remote.document()["simple_10"]
	if len(bucket) != 3 {
		t.Fatalf("expected bucket truncated to 3, got %+v", bucket)
	}
	// Ties on score order by earlier date; the new entry's later date
	// places it last among the 8s, pushing Cam out.
	if bucket[0].Name != "Ada" || bucket[1].Name != "Ben" {
		t.Fatalf("expected date ascending among ties, got %+v", bucket)
	}
	if bucket[2].Score != 8 || bucket[2].Date != "2026-08-20" {
		t.Fatalf("expected the new entry third, got %+v", bucket[2])
	}
	if len(bucket[2].Name) != domain.MaxEntryName {
		t.Fatalf("expected name capped at %d, got %q", domain.MaxEntryName, bucket[2].Name)
	}
}

func TestSubmitFailureLeavesCachedFetchIntact(t *testing.T) {
	remote := newFakeRemote(domain.LeaderboardDocument{
		"simple_10": {{Name: "Ada", Score: 9, Date: "2026-08-01"}},
	})
	server := httptest.NewServer(remote)
	defer server.Close()

	client := NewClient(server.URL, "")
	cached := client.Fetch(context.Background())
	if len(cached["simple_10"]) != 1 {
		t.Fatalf("expected primed cache, got %+v", cached)
	}

	remote.failAll(true)
	if client.Submit(context.Background(), "Ben", 7, domain.SessionConfig{Questions: 10, Mode: domain.ModeSimple}) {
		t.Fatalf("expected submit to report failure")
	}

	reads := remote.gets()
	again := client.Fetch(context.Background())
	if remote.gets() != reads {
		t.Fatalf("expected cached fetch after failed submit, saw a remote read")
	}
	if len(again["simple_10"]) != 1 || again["simple_10"][0].Name != "Ada" {
		t.Fatalf("expected cached document unchanged, got %+v", again)
	}
}

func TestSubmitMissingRemoteDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if NewClient(server.URL, "").Submit(context.Background(), "Ada", 9, domain.SessionConfig{Questions: 10, Mode: domain.ModeSimple}) {
		t.Fatalf("expected submit against missing document to fail")
	}
}

// TestConcurrentSubmitLosesFirstWrite demonstrates the documented
// lost-update hazard: writer B reads after writer A read, and writes after
// A wrote, so the final document derives only from B's read-modify-write.
func TestConcurrentSubmitLosesFirstWrite(t *testing.T) {
	remote := newFakeRemote(domain.LeaderboardDocument{})
	server := httptest.NewServer(remote)
	defer server.Close()

	aWriteGate := make(chan struct{})
	aWriteDone := make(chan struct{})
	remote.beforePatch = func(body []byte) {
		if strings.Contains(string(body), `"A"`) {
			<-aWriteGate
		} else {
			<-aWriteDone
		}
	}
	remote.afterPatch = func(body []byte) {
		if strings.Contains(string(body), `"A"`) {
			close(aWriteDone)
		}
	}
	remote.afterGet = func(count int) {
		if count == 2 { // B has read the pre-A state
			close(aWriteGate)
		}
	}

	cfg := domain.SessionConfig{Questions: 10, Mode: domain.ModeSimple}
	var wg sync.WaitGroup
	wg.Add(2)
	results := make([]bool, 2)
	go func() {
		defer wg.Done()
		results[0] = NewClient(server.URL, "", WithTimeout(10*time.Second)).Submit(context.Background(), "A", 9, cfg)
	}()
	go func() {
		defer wg.Done()
		// Let A's read happen first.
		for remote.gets() == 0 {
			time.Sleep(time.Millisecond)
		}
		results[1] = NewClient(server.URL, "", WithTimeout(10*time.Second)).Submit(context.Background(), "B", 8, cfg)
	}()
	wg.Wait()

	if !results[0] || !results[1] {
		t.Fatalf("expected both submits to report success, got %v", results)
	}
	bucket := remote.document()["simple_10"]
	if len(bucket) != 1 || bucket[0].Name != "B" || bucket[0].Score != 8 {
		t.Fatalf("expected A's entry lost to B's clobbering write, got %+v", bucket)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.clock = func() time.Time { return now }

	cache.Set(context.Background(), domain.LeaderboardDocument{"k": nil}, time.Minute)
	if _, ok := cache.Get(context.Background()); !ok {
		t.Fatalf("expected cache hit inside TTL")
	}

	now = now.Add(61 * time.Second)
	if _, ok := cache.Get(context.Background()); ok {
		t.Fatalf("expected cache miss after TTL expiry")
	}
}

// fakeRemote is an in-memory stand-in for the remote blob host: GET serves
// the whole document, PATCH replaces it.
type fakeRemote struct {
	mu       sync.Mutex
	doc      domain.LeaderboardDocument
	getCount int
	auth     string
	fail     bool

	beforePatch func(body []byte)
	afterPatch  func(body []byte)
	afterGet    func(count int)
}

func newFakeRemote(doc domain.LeaderboardDocument) *fakeRemote {
	return &fakeRemote{doc: doc.Clone()}
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		f.getCount++
		count := f.getCount
		f.auth = r.Header.Get("Authorization")
		fail := f.fail
		body, _ := json.Marshal(f.doc)
		f.mu.Unlock()
		if fail {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		if f.afterGet != nil {
			f.afterGet(count)
		}
	case http.MethodPatch:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if f.beforePatch != nil {
			f.beforePatch(body)
		}
		f.mu.Lock()
		fail := f.fail
		if !fail {
			var doc domain.LeaderboardDocument
			if err := json.Unmarshal(body, &doc); err != nil {
				f.mu.Unlock()
				http.Error(w, "bad document", http.StatusBadRequest)
				return
			}
			f.doc = doc
		}
		f.mu.Unlock()
		if fail {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		if f.afterPatch != nil {
			f.afterPatch(body)
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (f *fakeRemote) document() domain.LeaderboardDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Clone()
}

func (f *fakeRemote) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCount
}

func (f *fakeRemote) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeRemote) failAll(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}
