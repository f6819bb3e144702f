package event

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/xuperchain/xminter/lib/logs"
)

const DefPollInterval = 4 * time.Second

// HeadReader reads the latest header. *ethclient.Client satisfies it.
type HeadReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// HeadSubscriber streams new headers. *ethclient.Client satisfies it, though
// only websocket and ipc endpoints accept the subscription.
type HeadSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// EthSource publishes chain heads of a node into a Feed.
type EthSource struct {
	client   HeadReader
	feed     *Feed
	interval time.Duration
	log      logs.Logger
}

func NewEthSource(client HeadReader, feed *Feed, interval time.Duration, log logs.Logger) *EthSource {
	if interval <= 0 {
		interval = DefPollInterval
	}
	return &EthSource{
		client:   client,
		feed:     feed,
		interval: interval,
		log:      log,
	}
}

// Run publishes heads until ctx is done. It prefers a head subscription and
// falls back to polling when the client cannot subscribe or the subscription
// breaks.
func (s *EthSource) Run(ctx context.Context) error {
	if sub, ok := s.client.(HeadSubscriber); ok {
		err := s.subscribe(ctx, sub)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("head subscription unavailable, polling instead", "err", err, "interval", s.interval)
	}
	return s.poll(ctx)
}

func (s *EthSource) subscribe(ctx context.Context, client HeadSubscriber) error {
	heads := make(chan *types.Header, 16)
	sub, err := client.SubscribeNewHead(ctx, heads)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	s.log.Info("subscribed to new heads")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case h := <-heads:
			s.publish(h)
		}
	}
}

func (s *EthSource) poll(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last common.Hash
	for {
		h, err := s.client.HeaderByNumber(ctx, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("poll head failed", "err", err)
		} else if h != nil && h.Hash() != last {
			last = h.Hash()
			s.publish(h)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *EthSource) publish(h *types.Header) {
	b, err := FromHeader(h)
	if err != nil {
		s.log.Warn("ignore head", "err", err)
		return
	}
	if s.feed.Publish(b) {
		s.log.Debug("new head", "block", b.String())
	}
}
