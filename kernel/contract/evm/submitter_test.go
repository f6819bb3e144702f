package evm

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxBackend struct {
	nonce     uint64
	gasPrice  *big.Int
	gas       uint64
	estimates []ethereum.CallMsg
	sent      []*types.Transaction
	sendErr   error
}

func (b *fakeTxBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeTxBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return b.gasPrice, nil
}

func (b *fakeTxBackend) EstimateGas(_ context.Context, call ethereum.CallMsg) (uint64, error) {
	b.estimates = append(b.estimates, call)
	return b.gas, nil
}

func (b *fakeTxBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	b.nonce++
	return nil
}

func newTestSubmitter(t *testing.T, backend TxBackend, chainID *big.Int) *KeyedSubmitter {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s, err := NewKeyedSubmitter("0x"+hex.EncodeToString(crypto.FromECDSA(key)), chainID, backend)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.From())
	return s
}

func TestKeyedSubmitterFillsDefaults(t *testing.T) {
	chainID := big.NewInt(1337)
	backend := &fakeTxBackend{nonce: 5, gasPrice: big.NewInt(7), gas: 21000}
	s := newTestSubmitter(t, backend, chainID)

	hash, err := s.Submit(context.Background(), TxRequest{To: testContract, Data: []byte{1, 2, 3, 4}})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, tx.Hash(), hash)
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, int64(7), tx.GasPrice().Int64())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, 0, tx.Value().Sign())
	assert.Equal(t, testContract, *tx.To())
	require.Len(t, backend.estimates, 1)
	assert.Equal(t, s.From(), backend.estimates[0].From)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, s.From(), sender)
}

func TestKeyedSubmitterExplicitOptions(t *testing.T) {
	backend := &fakeTxBackend{gasPrice: big.NewInt(7), gas: 21000}
	s := newTestSubmitter(t, backend, big.NewInt(1))

	_, err := s.Submit(context.Background(), TxRequest{
		To:       testContract,
		Value:    big.NewInt(1000),
		GasLimit: 90000,
		GasPrice: big.NewInt(3),
	})
	require.NoError(t, err)
	assert.Empty(t, backend.estimates)

	tx := backend.sent[0]
	assert.Equal(t, uint64(90000), tx.Gas())
	assert.Equal(t, int64(3), tx.GasPrice().Int64())
	assert.Equal(t, int64(1000), tx.Value().Int64())
}

func TestKeyedSubmitterErrors(t *testing.T) {
	_, err := NewKeyedSubmitter("zz", big.NewInt(1), &fakeTxBackend{})
	assert.Error(t, err)
	_, err = NewKeyedSubmitter("", nil, nil)
	assert.Error(t, err)

	backend := &fakeTxBackend{gasPrice: big.NewInt(1), gas: 21000, sendErr: errors.New("nonce too low")}
	s := newTestSubmitter(t, backend, big.NewInt(1))
	_, err = s.Submit(context.Background(), TxRequest{To: testContract})
	assert.Same(t, backend.sendErr, err)
}
