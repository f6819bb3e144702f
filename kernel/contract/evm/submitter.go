package evm

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// TxRequest describes a state changing call.
type TxRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// Submitter sends state changing calls and returns the transaction hash.
type Submitter interface {
	Submit(ctx context.Context, req TxRequest) (common.Hash, error)
}

// TxBackend is the subset of an ethereum client used for signing and sending.
type TxBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyedSubmitter signs legacy transactions with a local private key.
// Submissions are serialized so pending nonces do not collide.
type KeyedSubmitter struct {
	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
	backend TxBackend
}

func NewKeyedSubmitter(hexKey string, chainID *big.Int, backend TxBackend) (*KeyedSubmitter, error) {
	if backend == nil || chainID == nil {
		return nil, errors.New("evm: submitter needs backend and chain id")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "load signing key failed")
	}

	return &KeyedSubmitter{
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.LatestSignerForChainID(chainID),
		backend: backend,
	}, nil
}

func (s *KeyedSubmitter) From() common.Address {
	return s.from
}

func (s *KeyedSubmitter) Submit(ctx context.Context, req TxRequest) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "get pending nonce failed")
	}
	gasPrice := req.GasPrice
	if gasPrice == nil {
		if gasPrice, err = s.backend.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, errors.Wrap(err, "suggest gas price failed")
		}
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	gas := req.GasLimit
	if gas == 0 {
		gas, err = s.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     s.from,
			To:       &to,
			GasPrice: gasPrice,
			Value:    value,
			Data:     req.Data,
		})
		if err != nil {
			return common.Hash{}, errors.Wrap(err, "estimate gas failed")
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "sign transaction failed")
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}
