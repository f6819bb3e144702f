package balance

import (
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/xuperchain/xminter/lib/storage/kvdb"
)

const storePrefix = "balance/"

// Store persists applied balances so the last known value survives restarts.
type Store struct {
	db kvdb.Database
}

type storedEntry struct {
	Value     string `json:"value"`
	Block     uint64 `json:"block"`
	UpdatedAt int64  `json:"updated_at"`
}

func NewStore(db kvdb.Database) *Store {
	return &Store{db: db}
}

func storeKey(owner common.Address, collection string) []byte {
	return []byte(storePrefix + owner.Hex() + "/" + collection)
}

// Save writes e for owner and collection. Entries without a value are skipped.
func (s *Store) Save(owner common.Address, collection string, e Entry) error {
	if e.Value == nil {
		return nil
	}
	data, err := json.Marshal(storedEntry{
		Value:     e.Value.String(),
		Block:     e.Block,
		UpdatedAt: e.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return err
	}
	return s.db.Put(storeKey(owner, collection), data)
}

// Load returns every saved balance of owner keyed by collection.
func (s *Store) Load(owner common.Address) (map[string]Entry, error) {
	prefix := storePrefix + owner.Hex() + "/"
	out := make(map[string]Entry)
	err := s.db.IterPrefix([]byte(prefix), func(key, value []byte) error {
		var se storedEntry
		if err := json.Unmarshal(value, &se); err != nil {
			return errors.Wrapf(err, "decode balance %s failed", key)
		}
		v, ok := new(big.Int).SetString(se.Value, 10)
		if !ok {
			return errors.Errorf("bad balance %q at %s", se.Value, key)
		}
		out[strings.TrimPrefix(string(key), prefix)] = Entry{
			Value:     v,
			Block:     se.Block,
			UpdatedAt: time.Unix(0, se.UpdatedAt),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
