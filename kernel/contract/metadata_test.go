package contract

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCallOpts(t *testing.T) {
	opts, err := DecodeCallOpts(nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Value)

	opts, err = DecodeCallOpts(CallMetadata{
		MetaValue:    "500000000000000000",
		MetaGasLimit: "210000",
		MetaGasPrice: "0x3b9aca00",
		MetaFrom:     "0x00000000000000000000000000000000000000aa",
	})
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", opts.Value.String())
	assert.Equal(t, uint64(210000), opts.GasLimit)
	assert.Equal(t, big.NewInt(1000000000), opts.GasPrice)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", opts.From)

	opts, err = DecodeCallOpts(CallMetadata{MetaValue: big.NewInt(5), MetaBlockNumber: 12})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), opts.Value)
	assert.Equal(t, big.NewInt(12), opts.BlockNumber)

	_, err = DecodeCallOpts(CallMetadata{"valeu": 1})
	assert.Error(t, err)

	_, err = DecodeCallOpts(CallMetadata{MetaValue: "lots"})
	assert.Error(t, err)

	_, err = DecodeCallOpts(CallMetadata{MetaValue: math.NaN()})
	assert.Error(t, err)
}

func TestToBigInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
		err  bool
	}{
		{in: big.NewInt(3), want: "3"},
		{in: *big.NewInt(4), want: "4"},
		{in: 5, want: "5"},
		{in: int64(-6), want: "-6"},
		{in: uint8(7), want: "7"},
		{in: uint64(1) << 63, want: "9223372036854775808"},
		{in: float64(8), want: "8"},
		{in: json.Number("900000000000000000000000"), want: "900000000000000000000000"},
		{in: "010", want: "10"},
		{in: "0xff", want: "255"},
		{in: 1.5, err: true},
		{in: math.NaN(), err: true},
		{in: math.Inf(1), err: true},
		{in: "0x", err: true},
		{in: "ten", err: true},
		{in: true, err: true},
		{in: (*big.Int)(nil), err: true},
	}
	for _, tt := range tests {
		got, err := ToBigInt(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrNotInteger, "input %v", tt.in)
			continue
		}
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got.String())
	}
}
