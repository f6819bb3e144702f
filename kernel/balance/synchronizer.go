package balance

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/xuperchain/xminter/kernel/contract"
	"github.com/xuperchain/xminter/kernel/event"
	"github.com/xuperchain/xminter/lib/logs"
	"github.com/xuperchain/xminter/lib/metrics"
	"github.com/xuperchain/xminter/lib/timer"
)

const (
	DefBalanceMethod = "balanceOf"
	defEventQueue    = 64
)

// skip reasons
const (
	skipNoSelection = "no_selection"
	skipNoAddress   = "no_address"
)

var (
	ErrRunning     = errors.New("balance: synchronizer already running")
	ErrUnsupported = errors.New("balance: balance operation not supported")
	ErrNotNumeric  = errors.New("balance: result is not a number")
)

// HandleProvider supplies the contract handle of a collection.
type HandleProvider interface {
	Handle(collection string) (contract.Handle, error)
}

// AddressProvider supplies the account whose balance is read.
type AddressProvider interface {
	Address() (common.Address, bool)
}

// StaticAddress is a fixed account. The zero address means none.
type StaticAddress common.Address

func (a StaticAddress) Address() (common.Address, bool) {
	addr := common.Address(a)
	return addr, addr != (common.Address{})
}

// Update is passed to the listener after an entry changed.
type Update struct {
	Collection string
	Entry      Entry
}

type Option func(*Synchronizer)

// WithMethod overrides the balance operation name.
func WithMethod(method string) Option {
	return func(s *Synchronizer) {
		if method != "" {
			s.method = method
		}
	}
}

// WithStore persists applied balances and warms the state on Run.
func WithStore(store *Store) Option {
	return func(s *Synchronizer) {
		s.store = store
	}
}

// WithListener registers fn, called on the loop goroutine after each change.
func WithListener(fn func(Update)) Option {
	return func(s *Synchronizer) {
		s.listener = fn
	}
}

type eventKind int

const (
	evSelect eventKind = iota
	evDeselect
	evBlock
)

type trigger struct {
	kind       eventKind
	collection string
	block      event.Block
}

// readTag identifies one issued read.
type readTag struct {
	collection string
	seq        uint64
}

type readResult struct {
	tag     readTag
	owner   common.Address
	block   uint64
	value   *big.Int
	err     error
	elapsed time.Duration
	cost    string
}

// Synchronizer refreshes the balance of the selected collection on selection
// change and on every new block.
//
// Each read is tagged with the collection and a sequence number. A completion
// is applied only when its collection is still selected and no newer read of
// that collection has been applied, otherwise it is dropped.
type Synchronizer struct {
	log      logs.Logger
	state    *State
	handles  HandleProvider
	address  AddressProvider
	invoker  contract.Invoker
	method   string
	store    *Store
	listener func(Update)

	running int32
	events  chan trigger
	results chan readResult
	stopped chan struct{}

	// owned by the loop
	seq      uint64
	head     uint64
	applied  map[string]uint64
	inflight map[uint64]string
}

func NewSynchronizer(state *State, handles HandleProvider, address AddressProvider,
	invoker contract.Invoker, log logs.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		log:      log,
		state:    state,
		handles:  handles,
		address:  address,
		invoker:  invoker,
		method:   DefBalanceMethod,
		events:   make(chan trigger, defEventQueue),
		results:  make(chan readResult),
		stopped:  make(chan struct{}),
		applied:  make(map[string]uint64),
		inflight: make(map[uint64]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) State() *State {
	return s.state
}

// Select makes collection the current selection and triggers a read. An empty
// collection clears the selection without a read.
func (s *Synchronizer) Select(collection string) {
	s.post(trigger{kind: evSelect, collection: collection})
}

// Deselect clears the selection. Reads in flight will be dropped.
func (s *Synchronizer) Deselect() {
	s.post(trigger{kind: evDeselect})
}

// NotifyBlock triggers a read of the selected collection, if any.
func (s *Synchronizer) NotifyBlock(b event.Block) {
	s.post(trigger{kind: evBlock, block: b})
}

// Follow forwards blocks from it until it ends or ctx is done.
func (s *Synchronizer) Follow(ctx context.Context, it event.Iterator) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			it.Close()
		case <-stop:
		}
	}()

	for it.Next() {
		if b := it.Block(); b != nil {
			s.NotifyBlock(*b)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return it.Error()
}

func (s *Synchronizer) post(t trigger) {
	select {
	case s.events <- t:
	case <-s.stopped:
	}
}

// Run is the event loop. It returns when ctx is done and may be called once.
func (s *Synchronizer) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrRunning
	}
	defer close(s.stopped)

	s.warmUp()
	s.log.Info("balance synchronizer started", "method", s.method)
	for {
		select {
		case <-ctx.Done():
			metrics.BalanceInflightGauge.Sub(float64(len(s.inflight)))
			s.log.Info("balance synchronizer stopped", "inflight", len(s.inflight))
			return nil
		case t := <-s.events:
			s.onTrigger(ctx, t)
		case r := <-s.results:
			s.onResult(r)
		}
	}
}

func (s *Synchronizer) warmUp() {
	if s.store == nil {
		return
	}
	owner, ok := s.address.Address()
	if !ok {
		return
	}
	saved, err := s.store.Load(owner)
	if err != nil {
		s.log.Warn("load saved balances failed", "owner", owner.Hex(), "err", err)
		return
	}
	for collection, e := range saved {
		s.state.apply(collection, e)
	}
	s.log.Info("saved balances loaded", "owner", owner.Hex(), "count", len(saved))
}

func (s *Synchronizer) onTrigger(ctx context.Context, t trigger) {
	switch t.kind {
	case evSelect:
		if t.collection == "" {
			s.state.deselect()
			s.refreshStatus()
			metrics.BalanceSkipCounter.WithLabelValues(skipNoSelection).Inc()
			s.log.Debug("empty collection selected, selection cleared")
			return
		}
		s.state.selectCollection(t.collection)
		s.issue(ctx, t.collection)
	case evDeselect:
		s.state.deselect()
		s.refreshStatus()
	case evBlock:
		if t.block.Number > s.head {
			s.head = t.block.Number
		}
		collection, ok := s.state.Selection()
		if !ok {
			metrics.BalanceSkipCounter.WithLabelValues(skipNoSelection).Inc()
			s.log.Trace("block ignored, no collection selected", "block", t.block.Number)
			return
		}
		s.issue(ctx, collection)
	}
}

func (s *Synchronizer) issue(ctx context.Context, collection string) {
	owner, ok := s.address.Address()
	if !ok {
		metrics.BalanceSkipCounter.WithLabelValues(skipNoAddress).Inc()
		s.log.Debug("refresh skipped, no address", "collection", collection)
		return
	}

	s.seq++
	tag := readTag{collection: collection, seq: s.seq}
	s.inflight[tag.seq] = collection
	metrics.BalanceInflightGauge.Inc()
	s.state.setStatus(Refreshing)

	h, err := s.handles.Handle(collection)
	if err != nil {
		s.onResult(readResult{tag: tag, owner: owner, block: s.head, err: err})
		return
	}
	go s.read(ctx, tag, h, owner, s.head)
}

func (s *Synchronizer) read(ctx context.Context, tag readTag, h contract.Handle, owner common.Address, block uint64) {
	tm := timer.NewXTimer()
	r := readResult{tag: tag, owner: owner, block: block}

	res, ok, err := s.invoker.Invoke(ctx, s.method, h, []interface{}{owner}, nil)
	tm.Mark("invoke")
	switch {
	case err != nil:
		r.err = err
	case !ok:
		r.err = errors.Wrapf(ErrUnsupported, "%s on %s", s.method, tag.collection)
	default:
		r.value, r.err = toBalance(res)
		tm.Mark("decode")
	}
	r.elapsed = tm.Elapsed()
	r.cost = tm.Print()

	select {
	case s.results <- r:
	case <-ctx.Done():
	}
}

func (s *Synchronizer) onResult(r readResult) {
	delete(s.inflight, r.tag.seq)
	metrics.BalanceInflightGauge.Dec()
	defer s.refreshStatus()

	collection := r.tag.collection
	metrics.BalanceRefreshHistogram.WithLabelValues(collection).Observe(r.elapsed.Seconds())
	selected, ok := s.state.Selection()
	if !ok || selected != collection || r.tag.seq <= s.applied[collection] {
		metrics.BalanceRefreshCounter.WithLabelValues(collection, metrics.OutcomeStale).Inc()
		s.log.Debug("stale balance read dropped", "collection", collection, "seq", r.tag.seq,
			"selected", selected, "applied_seq", s.applied[collection])
		return
	}
	s.applied[collection] = r.tag.seq

	var e Entry
	if r.err != nil {
		e = s.state.markStale(collection, r.err)
		metrics.BalanceRefreshCounter.WithLabelValues(collection, metrics.OutcomeFailed).Inc()
		s.log.Warn("balance read failed, keep last known value", "collection", collection,
			"seq", r.tag.seq, "err", r.err)
	} else {
		e = s.state.apply(collection, Entry{
			Value:     r.value,
			Block:     r.block,
			UpdatedAt: time.Now(),
		})
		metrics.BalanceRefreshCounter.WithLabelValues(collection, metrics.OutcomeApplied).Inc()
		s.log.Debug("balance applied", "collection", collection, "seq", r.tag.seq,
			"value", e.Value.String(), "block", r.block, "cost", r.cost)
		if s.store != nil {
			if err := s.store.Save(r.owner, collection, e); err != nil {
				s.log.Warn("save balance failed", "collection", collection, "err", err)
			}
		}
	}

	if s.listener != nil {
		s.listener(Update{Collection: collection, Entry: e})
	}
}

// refreshStatus is Refreshing while a read of the selected collection is in flight.
func (s *Synchronizer) refreshStatus() {
	st := Idle
	if selected, ok := s.state.Selection(); ok {
		for _, collection := range s.inflight {
			if collection == selected {
				st = Refreshing
				break
			}
		}
	}
	s.state.setStatus(st)
}

// toBalance accepts any integer form, or a one element list holding one.
func toBalance(res interface{}) (*big.Int, error) {
	if list, ok := res.([]interface{}); ok {
		if len(list) != 1 {
			return nil, errors.Wrapf(ErrNotNumeric, "%d values", len(list))
		}
		res = list[0]
	}
	v, err := contract.ToBigInt(res)
	if err != nil {
		return nil, errors.Wrapf(ErrNotNumeric, "%v", err)
	}
	return v, nil
}
