package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xminter/lib/logs"
	"github.com/xuperchain/xminter/lib/metrics"
)

type recorder struct {
	calls [][]interface{}
	res   interface{}
	err   error
}

func (r *recorder) method(_ context.Context, args ...interface{}) (interface{}, error) {
	r.calls = append(r.calls, args)
	return r.res, r.err
}

func TestInvokeUnsupported(t *testing.T) {
	h := NewRegistry("NFTCollection")

	res, ok, err := Invoke(context.Background(), "balanceOf", h, []interface{}{"0xabc"}, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	res, ok, err = Invoke(context.Background(), "balanceOf", nil, nil, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	var typedNil *Registry
	_, ok, err = Invoke(context.Background(), "balanceOf", typedNil, nil, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInvokeAppendsMetadata(t *testing.T) {
	rec := &recorder{res: big.NewInt(7)}
	h := NewRegistry("NFTCollection").Register("transfer", rec.method)
	md := CallMetadata{MetaValue: "1000"}

	res, ok, err := Invoke(context.Background(), "transfer", h, []interface{}{"a", "b"}, md)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(7), res)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []interface{}{"a", "b", md}, rec.calls[0])
}

func TestInvokeDefaultsMetadata(t *testing.T) {
	rec := &recorder{}
	h := NewRegistry("c").Register("balanceOf", rec.method)

	_, ok, err := Invoke(context.Background(), "balanceOf", h, []interface{}{"0xabc"}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []interface{}{"0xabc", CallMetadata{}}, rec.calls[0])

	// an empty but non-nil argument list still carries metadata
	_, _, err = Invoke(context.Background(), "balanceOf", h, []interface{}{}, CallMetadata{MetaGasLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{CallMetadata{MetaGasLimit: 1}}, rec.calls[1])
}

func TestInvokeWithoutArgsDropsMetadata(t *testing.T) {
	rec := &recorder{res: "NFTCollection"}
	h := NewRegistry("c").Register("name", rec.method)

	res, ok, err := Invoke(context.Background(), "name", h, nil, CallMetadata{MetaValue: 1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NFTCollection", res)

	require.Len(t, rec.calls, 1)
	assert.Len(t, rec.calls[0], 0)
}

func TestInvokePropagatesError(t *testing.T) {
	reverted := errors.New("execution reverted")
	rec := &recorder{err: reverted}
	h := NewRegistry("c").Register("mint", rec.method)

	_, ok, err := Invoke(context.Background(), "mint", h, []interface{}{1}, nil)
	assert.True(t, ok)
	assert.Same(t, reverted, err)
	assert.Len(t, rec.calls, 1)
}

func TestInvokeReturnsResultVerbatim(t *testing.T) {
	out := []interface{}{"x", 1}
	h := NewRegistry("c").Register("pair", func(context.Context, ...interface{}) (interface{}, error) {
		return out, nil
	})

	res, ok, err := Invoke(context.Background(), "pair", h, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, out, res)
}

func TestRegistry(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry("NFTCollection2").
		Register("mint", rec.method).
		Register("balanceOf", rec.method)

	assert.Equal(t, "NFTCollection2", r.Name())
	assert.Equal(t, []string{"balanceOf", "mint"}, r.Methods())

	assert.Panics(t, func() { r.Register("mint", rec.method) })
	assert.Panics(t, func() { r.Register("burn", nil) })
}

func TestDispatcherMetrics(t *testing.T) {
	lg, err := logs.NewLogger("", "contract_test")
	require.NoError(t, err)
	d := NewDispatcher(lg)

	rec := &recorder{res: 1}
	h := NewRegistry("metrics_coll").Register("balanceOf", rec.method)

	okCounter := metrics.ContractInvokeCounter.WithLabelValues("metrics_coll", "balanceOf", metrics.OutcomeOK)
	unsupCounter := metrics.ContractInvokeCounter.WithLabelValues("metrics_coll", "burn", metrics.OutcomeUnsupported)
	before, beforeUnsup := testutil.ToFloat64(okCounter), testutil.ToFloat64(unsupCounter)

	res, ok, err := d.Invoke(context.Background(), "balanceOf", h, []interface{}{"0x1"}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, res)

	_, ok, err = d.Invoke(context.Background(), "burn", h, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, before+1, testutil.ToFloat64(okCounter))
	assert.Equal(t, beforeUnsup+1, testutil.ToFloat64(unsupCounter))
}
