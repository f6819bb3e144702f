package xconfig

import (
	"time"

	"github.com/pkg/errors"
)

// CollectionConf is one deployed collection contract.
type CollectionConf struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Address string `yaml:"address"`
	// abi file, relative paths are under the conf dir
	ABIPath string `yaml:"abiPath,omitempty"`
}

type MinterConf struct {
	// node rpc endpoint, ws:// or wss:// enables head subscription
	Endpoint string `yaml:"endpoint"`
	ChainID  int64  `yaml:"chainId"`
	// head polling interval when subscription is not available
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	// window in which a repeated block hash is ignored
	DedupTTL time.Duration `yaml:"dedupTTL,omitempty"`
	// account whose balances are followed
	Account string `yaml:"account"`
	// environment variable holding the signing key, empty for read only
	KeyEnv          string `yaml:"keyEnv,omitempty"`
	BalanceMethod   string `yaml:"balanceMethod,omitempty"`
	HandleCacheSize int    `yaml:"handleCacheSize,omitempty"`
	// collection selected at startup, defaults to the first one
	Select      string           `yaml:"select,omitempty"`
	Collections []CollectionConf `yaml:"collections"`
	// persist balances in the data dir
	Persist  bool   `yaml:"persist,omitempty"`
	DBEngine string `yaml:"dbEngine,omitempty"`
	DBName   string `yaml:"dbName,omitempty"`
}

func LoadMinterConf(cfgFile string) (*MinterConf, error) {
	cfg := GetDefMinterConf()
	if err := loadConf(cfgFile, cfg); err != nil {
		return nil, errors.Wrap(err, "load minter config failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func GetDefMinterConf() *MinterConf {
	return &MinterConf{
		Endpoint:        "http://127.0.0.1:8545",
		ChainID:         1337,
		PollInterval:    4 * time.Second,
		DedupTTL:        30 * time.Second,
		KeyEnv:          "XMINTER_PRIVATE_KEY",
		BalanceMethod:   "balanceOf",
		HandleCacheSize: 64,
		DBEngine:        "leveldb",
		DBName:          "balance",
	}
}

func (t *MinterConf) Validate() error {
	if t.Endpoint == "" {
		return errors.New("minter config: empty endpoint")
	}
	if len(t.Collections) == 0 {
		return errors.New("minter config: no collection configured")
	}
	if t.Select == "" {
		return nil
	}
	for _, c := range t.Collections {
		if c.ID == t.Select {
			return nil
		}
	}
	return errors.Errorf("minter config: selected collection %s not configured", t.Select)
}

// SelectedCollection returns the collection to select at startup.
func (t *MinterConf) SelectedCollection() string {
	if t.Select != "" {
		return t.Select
	}
	if len(t.Collections) > 0 {
		return t.Collections[0].ID
	}
	return ""
}
