package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/anchorlay/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestNewCacheNoCache(t *testing.T) {
	c, err := newCache(true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("newCache(true) = %T, want *cache.NullCache", c)
	}
}

func TestCacheCommands(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir, _ := cacheDir()

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	c := New(&bytes.Buffer{}, LogInfo)

	var out bytes.Buffer
	path := c.cachePathCommand()
	path.SetOut(&out)
	if err := path.RunE(path, nil); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out.String()) != dir {
		t.Errorf("cache path printed %q, want %q", out.String(), dir)
	}

	clearCmd := c.cacheClearCommand()
	if err := clearCmd.RunE(clearCmd, nil); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, ok, _ := fc.Get(ctx, "a"); ok {
		t.Error("entry survived cache clear")
	}
}
