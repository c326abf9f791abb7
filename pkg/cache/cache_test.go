package cache

import (
	"context"
	"errors"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// FrameKey should include options in hash
	fk1 := k.FrameKey("scene123", FrameKeyOpts{Width: 800, Height: 600})
	fk2 := k.FrameKey("scene123", FrameKeyOpts{Width: 1024, Height: 600})
	if fk1 == fk2 {
		t.Error("Different FrameKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(fk1, "frame:") {
		t.Errorf("FrameKey should start with frame: %s", fk1)
	}
	if fk1 != k.FrameKey("scene123", FrameKeyOpts{Width: 800, Height: 600}) {
		t.Error("FrameKey should be deterministic")
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Labels: true})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot", Labels: true})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if fk1 == k.ArtifactKey("scene123", ArtifactKeyOpts{}) {
		t.Error("Frame and artifact keys should not collide")
	}
}

func TestFrameKeyNonFiniteOptions(t *testing.T) {
	k := NewDefaultKeyer()
	nan := k.FrameKey("scene", FrameKeyOpts{Width: math.NaN(), Height: 600})
	if nan == k.FrameKey("scene", FrameKeyOpts{Height: 600}) {
		t.Error("NaN width shares a key with zero width")
	}
	if nan == k.FrameKey("scene", FrameKeyOpts{Width: math.Inf(1), Height: 600}) {
		t.Error("NaN and +Inf widths share a key")
	}
	if nan != k.FrameKey("scene", FrameKeyOpts{Width: math.NaN(), Height: 600}) {
		t.Error("FrameKey with NaN width is not deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "client:123:")

	// All keys should be prefixed
	frameKey := scoped.FrameKey("scene", FrameKeyOpts{})
	if frameKey != "client:123:"+inner.FrameKey("scene", FrameKeyOpts{}) {
		t.Errorf("ScopedKeyer FrameKey unexpected: %s", frameKey)
	}

	artifactKey := scoped.ArtifactKey("frame", ArtifactKeyOpts{Format: "svg"})
	if !strings.HasPrefix(artifactKey, "client:123:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", artifactKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.FrameKey("scene", FrameKeyOpts{})
	if key != "prefix:"+NewDefaultKeyer().FrameKey("scene", FrameKeyOpts{}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "frame:a"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "frame:a", []byte(`{"width":1}`), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "frame:a")
	if err != nil || !hit {
		t.Fatalf("Get after Set = hit %v, err %v", hit, err)
	}
	if string(data) != `{"width":1}` {
		t.Errorf("Get data = %s", data)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "frame:old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "frame:old"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Delete(ctx, "frame:a"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Delete(ctx, "frame:a"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "frame:a"); hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v; want clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Error("Clear removed a non-entry file")
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestNewRedisCache(t *testing.T) {
	if _, err := NewRedisCache(RedisConfig{}); err == nil {
		t.Error("NewRedisCache without address should fail")
	}
	if _, err := NewRedisCache(RedisConfig{URL: "http://not-redis"}); err == nil {
		t.Error("NewRedisCache with a non-redis URL should fail")
	}

	c, err := NewRedisCache(RedisConfig{URL: "redis://localhost:6379/2"})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()
	if got := c.key("frame:x"); got != DefaultRedisPrefix+"frame:x" {
		t.Errorf("key() = %q", got)
	}

	scoped, err := NewRedisCache(RedisConfig{Addr: "localhost:6379", Prefix: "test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer scoped.Close()
	if got := scoped.key("k"); got != "test:k" {
		t.Errorf("key() with prefix = %q", got)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	err := classify(netErr)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("classify(net error) = %v, want retryable ErrNetwork", err)
	}
	plain := errors.New("WRONGTYPE")
	if classify(plain) != plain || IsRetryable(classify(plain)) {
		t.Error("server errors should pass through unretried")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(ErrClosed) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrClosed
	})
	if err != ErrClosed {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
