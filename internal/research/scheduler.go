package research

import (
	"sync"
	"time"
)

// Token cancels a scheduled repeating action. Stop may be called any
// number of times; only the first call has an effect.
type Token interface {
	Stop()
}

// Scheduler starts repeating actions. A session owns at most one
// token at a time and stops the previous one before creating a new
// one. Tests substitute a manual implementation to advance time
// deterministically.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Token
}

// TickerScheduler runs each action on its own goroutine driven by a
// time.Ticker
type TickerScheduler struct{}

// Every fires fn at the given fixed interval until the token is stopped
func (TickerScheduler) Every(interval time.Duration, fn func()) Token {
	token := &tickerToken{done: make(chan struct{})}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-token.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return token
}

type tickerToken struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerToken) Stop() {
	t.once.Do(func() { close(t.done) })
}
