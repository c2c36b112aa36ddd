package clock

import (
	"sync"
	"time"
)

// Ticker is the subset of *time.Ticker the lifecycle needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock hands out tickers and the current time.
type Clock interface {
	Now() time.Time
	NewTicker(period time.Duration) Ticker
}

type realClock struct{}

// Real returns the wall clock.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) NewTicker(period time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(period)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *realTicker) Stop() {
	t.ticker.Stop()
}

// Fake is a manually driven clock. Tickers fire only from Advance, and
// delivery drops ticks when the receiver is behind, like time.Ticker.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers map[*fakeTicker]struct{}
	created int
}

func NewFake(start time.Time) *Fake {
	return &Fake{
		now:     start,
		tickers: make(map[*fakeTicker]struct{}),
	}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) NewTicker(period time.Duration) Ticker {
	if period <= 0 {
		panic("clock: non-positive ticker period")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	ticker := &fakeTicker{
		clock:  f,
		period: period,
		next:   f.now.Add(period),
		ch:     make(chan time.Time, 1),
	}
	f.tickers[ticker] = struct{}{}
	f.created++
	return ticker
}

// Advance moves the clock forward and fires every ticker whose period elapsed.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
	for ticker := range f.tickers {
		for !ticker.next.After(f.now) {
			select {
			case ticker.ch <- ticker.next:
			default:
			}
			ticker.next = ticker.next.Add(ticker.period)
		}
	}
}

// ActiveTickers counts tickers that were created and not yet stopped.
func (f *Fake) ActiveTickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// CreatedTickers counts every ticker ever handed out.
func (f *Fake) CreatedTickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

type fakeTicker struct {
	clock  *Fake
	period time.Duration
	next   time.Time
	ch     chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	delete(t.clock.tickers, t)
}
