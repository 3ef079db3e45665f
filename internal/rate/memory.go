package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es la variante in-process (una sola réplica, dev).
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu     sync.Mutex
	counts *gocache.Cache
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		counts: gocache.New(window, 2*window),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", sanitizeKey(key), winStart.Unix())
	ttl := winStart.Add(l.Window).Sub(now)

	l.mu.Lock()
	defer l.mu.Unlock()

	var hits int64 = 1
	if err := l.counts.Add(k, hits, l.Window); err != nil {
		// ya existe en esta ventana
		n, iErr := l.counts.IncrementInt64(k, 1)
		if iErr != nil {
			return Result{}, fmt.Errorf("rate: memory: %w", iErr)
		}
		hits = n
	}
	return decide(hits, l.Max, ttl, l.Window), nil
}
