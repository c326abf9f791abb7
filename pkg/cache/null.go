package cache

import (
	"context"
	"time"
)

// NullCache discards every frame and artifact. It backs --no-cache and a
// server started with the "none" backend, so the pipeline always resolves.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }
