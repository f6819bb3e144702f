package event

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/patrickmn/go-cache"

	"github.com/xuperchain/xminter/lib/metrics"
)

const (
	DefDedupTTL     = 30 * time.Second
	defDedupCleanup = 10 * time.Second
)

// Feed fans blocks out to subscribers. Each subscriber has its own unbounded
// queue, so Publish never waits on a slow consumer. A block hash seen within
// the dedup ttl is published once.
type Feed struct {
	mu      sync.Mutex
	subs    map[*subscription]struct{}
	handled *cache.Cache
	closed  bool
}

func NewFeed(dedupTTL time.Duration) *Feed {
	if dedupTTL <= 0 {
		dedupTTL = DefDedupTTL
	}
	cleanup := defDedupCleanup
	if dedupTTL < cleanup {
		cleanup = dedupTTL
	}

	return &Feed{
		subs:    make(map[*subscription]struct{}),
		handled: cache.New(dedupTTL, cleanup),
	}
}

// Publish enqueues b for every current subscriber. It reports false when b
// was a duplicate or the feed is closed.
func (f *Feed) Publish(b Block) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		metrics.BlockEventCounter.WithLabelValues(metrics.OutcomeDropped).Inc()
		return false
	}
	key := b.Hash.Hex()
	if _, found := f.handled.Get(key); found {
		metrics.BlockEventCounter.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return false
	}
	f.handled.SetDefault(key, true)

	for sub := range f.subs {
		sub.push(b)
	}
	metrics.BlockEventCounter.WithLabelValues(metrics.OutcomePublished).Inc()
	return true
}

// Subscribe returns an iterator over blocks published from now on.
// Subscribing to a closed feed yields an iterator that ends at once with
// ErrFeedClosed.
func (f *Feed) Subscribe() Iterator {
	sub := newSubscription(f)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		sub.finish(ErrFeedClosed)
		return sub
	}
	f.subs[sub] = struct{}{}
	return sub
}

// Close ends every subscription once its queued blocks are consumed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for sub := range f.subs {
		sub.finish(nil)
	}
	f.subs = make(map[*subscription]struct{})
}

func (f *Feed) remove(sub *subscription) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
}

type subscription struct {
	feed *Feed

	mu    sync.Mutex
	cond  *sync.Cond
	queue deque.Deque
	cur   *Block
	ended bool
	err   error
}

var _ Iterator = (*subscription)(nil)

func newSubscription(f *Feed) *subscription {
	s := &subscription{feed: f}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscription) push(b Block) {
	s.mu.Lock()
	if !s.ended {
		s.queue.PushBack(b)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscription) finish(err error) {
	s.mu.Lock()
	if !s.ended {
		s.ended = true
		s.err = err
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *subscription) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.queue.Len() == 0 && !s.ended {
		s.cond.Wait()
	}
	if s.queue.Len() == 0 {
		s.cur = nil
		return false
	}
	b := s.queue.PopFront().(Block)
	s.cur = &b
	return true
}

func (s *subscription) Block() *Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *subscription) Error() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close drops queued blocks and unblocks a pending Next.
func (s *subscription) Close() {
	s.feed.remove(s)

	s.mu.Lock()
	s.ended = true
	for s.queue.Len() > 0 {
		s.queue.PopFront()
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}
