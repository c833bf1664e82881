package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRedis is an in-memory stand-in for the RedisClient seam.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	nxDeny bool
	// missFirst makes the next N Gets report redis.Nil even when the key
	// exists, to stage the SetNX race.
	missFirst int
}

var _ RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if f.missFirst > 0 {
		f.missFirst--
		return redis.NewStringResult("", redis.Nil)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.nxDeny {
		return redis.NewBoolResult(false, nil)
	}
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			deleted++
		}
	}
	return redis.NewIntResult(deleted, nil)
}

// seedRecord plants a record directly in the fake store.
func (f *fakeRedis) seedRecord(t *testing.T, idempotencyKey string, record *IdempotencyRecord) {
	t.Helper()

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}

	f.mu.Lock()
	f.data[IdempotencyKeyPrefix+idempotencyKey] = string(data)
	f.mu.Unlock()
}

// hashFor mirrors the middleware's request hash for seeded records.
func hashFor(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	if len(body) > 0 {
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// setupIdempotencyRouter wires the middleware in front of a counting
// hold-creation handler. The handler body carries the call number so a
// replayed response is distinguishable from a re-executed one.
func setupIdempotencyRouter(config *IdempotencyConfig) (*gin.Engine, *int) {
	calls := 0

	router := gin.New()
	router.POST("/api/v1/holds", IdempotencyMiddleware(config), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"hold_id": "hold-123", "call": calls})
	})
	router.GET("/api/v1/holds/:id", IdempotencyMiddleware(config), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"hold_id": c.Param("id")})
	})

	return router, &calls
}

func postHold(router *gin.Engine, key string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	fake := newFakeRedis()
	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	body := []byte(`{"event_id":"event-1","qty":2}`)

	first := postHold(router, "", body)
	second := postHold(router, "", body)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Errorf("Expected 201 for both, got %d and %d", first.Code, second.Code)
	}

	if *calls != 2 {
		t.Errorf("Handler called %d times, want 2 (no key means no dedup)", *calls)
	}

	if len(fake.data) != 0 {
		t.Errorf("Expected no records stored, got %d", len(fake.data))
	}
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	fake := newFakeRedis()
	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	body := []byte(`{"event_id":"event-1","qty":2}`)

	first := postHold(router, "key-1", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("First request status %d, want 201", first.Code)
	}

	second := postHold(router, "key-1", body)
	if second.Code != http.StatusCreated {
		t.Errorf("Replayed status %d, want 201", second.Code)
	}

	if *calls != 1 {
		t.Errorf("Handler called %d times, want 1", *calls)
	}

	// The replay returns the captured body, byte for byte
	if first.Body.String() != second.Body.String() {
		t.Errorf("Replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}

	// The stored record is marked completed
	record, err := CheckIdempotency(context.Background(), fake, "key-1")
	if err != nil {
		t.Fatalf("CheckIdempotency failed: %v", err)
	}
	if record.Status != StatusCompleted {
		t.Errorf("Record status %s, want %s", record.Status, StatusCompleted)
	}
	if record.ResponseCode != http.StatusCreated {
		t.Errorf("Record response code %d, want 201", record.ResponseCode)
	}
	if record.CompletedAt == nil {
		t.Error("Record CompletedAt should be set")
	}
}

func TestIdempotency_KeyReusedWithDifferentBody(t *testing.T) {
	fake := newFakeRedis()
	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	first := postHold(router, "key-1", []byte(`{"event_id":"event-1","qty":2}`))
	if first.Code != http.StatusCreated {
		t.Fatalf("First request status %d, want 201", first.Code)
	}

	second := postHold(router, "key-1", []byte(`{"event_id":"event-1","qty":5}`))
	if second.Code != http.StatusUnprocessableEntity {
		t.Errorf("Reused-key status %d, want 422", second.Code)
	}

	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &errResp); err == nil {
		if errResp.Code != "IDEMPOTENCY_KEY_REUSED" {
			t.Errorf("Error code %s, want IDEMPOTENCY_KEY_REUSED", errResp.Code)
		}
	}

	if *calls != 1 {
		t.Errorf("Handler called %d times, want 1", *calls)
	}
}

func TestIdempotency_ProcessingConflict(t *testing.T) {
	fake := newFakeRedis()
	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	body := []byte(`{"event_id":"event-1","qty":2}`)
	fake.seedRecord(t, "key-1", &IdempotencyRecord{
		Key:         "key-1",
		Status:      StatusProcessing,
		RequestHash: hashFor(http.MethodPost, "/api/v1/holds", body),
		CreatedAt:   time.Now(),
	})

	w := postHold(router, "key-1", body)
	if w.Code != http.StatusConflict {
		t.Errorf("In-flight duplicate status %d, want 409", w.Code)
	}

	var errResp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err == nil {
		if errResp.Code != "REQUEST_IN_PROGRESS" {
			t.Errorf("Error code %s, want REQUEST_IN_PROGRESS", errResp.Code)
		}
	}

	if *calls != 0 {
		t.Errorf("Handler called %d times, want 0", *calls)
	}
}

func TestIdempotency_GetRequestsNotGuarded(t *testing.T) {
	fake := newFakeRedis()
	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/holds/hold-123", nil)
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET status %d, want 200", w.Code)
		}
	}

	if *calls != 2 {
		t.Errorf("Handler called %d times, want 2 (GET is not guarded)", *calls)
	}
}

func TestIdempotency_SkipPaths(t *testing.T) {
	fake := newFakeRedis()
	config := DefaultIdempotencyConfig(fake)
	config.SkipPaths = []string{"/api/v1/holds*"}

	router, calls := setupIdempotencyRouter(config)

	body := []byte(`{"event_id":"event-1","qty":2}`)
	postHold(router, "key-1", body)
	postHold(router, "key-1", body)

	if *calls != 2 {
		t.Errorf("Handler called %d times, want 2 (path skipped)", *calls)
	}
}

func TestIdempotency_FailsOpenOnStoreError(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("redis down")

	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	body := []byte(`{"event_id":"event-1","qty":2}`)

	first := postHold(router, "key-1", body)
	second := postHold(router, "key-1", body)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Errorf("Expected 201 for both, got %d and %d", first.Code, second.Code)
	}

	// Dedup is unavailable, requests go through
	if *calls != 2 {
		t.Errorf("Handler called %d times, want 2 (fail open)", *calls)
	}
}

func TestIdempotency_LostSetNXRaceReturnsConflict(t *testing.T) {
	fake := newFakeRedis()
	router, calls := setupIdempotencyRouter(DefaultIdempotencyConfig(fake))

	body := []byte(`{"event_id":"event-1","qty":2}`)

	// Stage the race: the first Get sees nothing, SetNX loses, and the
	// retry read finds the winner's processing record
	fake.seedRecord(t, "key-1", &IdempotencyRecord{
		Key:         "key-1",
		Status:      StatusProcessing,
		RequestHash: hashFor(http.MethodPost, "/api/v1/holds", body),
		CreatedAt:   time.Now(),
	})
	fake.nxDeny = true
	fake.missFirst = 1

	w := postHold(router, "key-1", body)
	if w.Code != http.StatusConflict {
		t.Errorf("Raced duplicate status %d, want 409", w.Code)
	}

	if *calls != 0 {
		t.Errorf("Handler called %d times, want 0", *calls)
	}
}

func TestGetIdempotencyKey(t *testing.T) {
	fake := newFakeRedis()

	var gotKey string
	var gotOK bool

	router := gin.New()
	router.POST("/api/v1/book", IdempotencyMiddleware(DefaultIdempotencyConfig(fake)), func(c *gin.Context) {
		gotKey, gotOK = GetIdempotencyKey(c)
		c.JSON(http.StatusCreated, gin.H{"booking_id": "booking-1"})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/book", bytes.NewBufferString(`{"hold_id":"hold-1"}`))
	req.Header.Set(IdempotencyKeyHeader, "key-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !gotOK {
		t.Fatal("Expected idempotency key in context")
	}
	if gotKey != "key-42" {
		t.Errorf("Key = %s, want key-42", gotKey)
	}
}

func TestDeleteIdempotencyRecord(t *testing.T) {
	fake := newFakeRedis()
	fake.seedRecord(t, "key-1", &IdempotencyRecord{
		Key:    "key-1",
		Status: StatusCompleted,
	})

	if err := DeleteIdempotencyRecord(context.Background(), fake, "key-1"); err != nil {
		t.Fatalf("DeleteIdempotencyRecord failed: %v", err)
	}

	if _, err := CheckIdempotency(context.Background(), fake, "key-1"); !errors.Is(err, redis.Nil) {
		t.Errorf("Expected redis.Nil after delete, got %v", err)
	}
}
