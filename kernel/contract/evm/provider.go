package evm

import (
	"io/ioutil"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/xuperchain/xminter/kernel/contract"
	"github.com/xuperchain/xminter/lib/logs"
)

const DefHandleCacheSize = 64

var ErrUnknownCollection = errors.New("evm: unknown collection")

// Provider builds handles for configured collections on first use and keeps
// them in an lru cache.
type Provider struct {
	log         logs.Logger
	backend     Backend
	submitter   Submitter
	collections map[string]Collection
	order       []string
	handles     *lru.Cache
}

// NewProvider validates colls. submitter may be nil for a read only provider.
func NewProvider(colls []Collection, backend Backend, submitter Submitter, cacheSize int, log logs.Logger) (*Provider, error) {
	if cacheSize <= 0 {
		cacheSize = DefHandleCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		log:         log,
		backend:     backend,
		submitter:   submitter,
		collections: make(map[string]Collection, len(colls)),
		handles:     cache,
	}
	for i, c := range colls {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, exist := p.collections[c.ID]; exist {
			return nil, errors.Errorf("collection %s configured twice", c.ID)
		}
		if c.Name == "" {
			c.Name = CollectionName(i)
		}
		p.collections[c.ID] = c
		p.order = append(p.order, c.ID)
	}
	return p, nil
}

// Collections returns the configured collections in configuration order.
func (p *Provider) Collections() []Collection {
	out := make([]Collection, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.collections[id])
	}
	return out
}

// Handle returns the contract handle of collection id.
func (p *Provider) Handle(id string) (contract.Handle, error) {
	if v, ok := p.handles.Get(id); ok {
		return v.(*Handle), nil
	}

	c, ok := p.collections[id]
	if !ok {
		return nil, errors.Wrap(ErrUnknownCollection, id)
	}
	abiJSON := []byte(DefaultABI)
	if c.ABIPath != "" {
		data, err := ioutil.ReadFile(c.ABIPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read abi of collection %s failed", id)
		}
		abiJSON = data
	}

	h, err := NewHandle(c.Name, common.HexToAddress(c.Address), abiJSON, p.backend, p.submitter)
	if err != nil {
		return nil, err
	}
	p.handles.Add(id, h)
	if p.log != nil {
		p.log.Debug("contract handle created", "collection", id, "name", c.Name, "address", c.Address)
	}
	return h, nil
}
