package contract

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// CallMetadata carries call options such as attached value or gas hints.
type CallMetadata map[string]interface{}

// well known metadata keys
const (
	MetaValue       = "value"
	MetaGasLimit    = "gasLimit"
	MetaGasPrice    = "gasPrice"
	MetaFrom        = "from"
	MetaBlockNumber = "blockNumber"
)

var ErrNotInteger = errors.New("value is not an integer")

// CallOpts is the typed view of CallMetadata.
type CallOpts struct {
	Value       *big.Int `mapstructure:"value"`
	GasLimit    uint64   `mapstructure:"gasLimit"`
	GasPrice    *big.Int `mapstructure:"gasPrice"`
	From        string   `mapstructure:"from"`
	BlockNumber *big.Int `mapstructure:"blockNumber"`
}

// DecodeCallOpts decodes md. Unknown keys are rejected so that a typo does not
// silently drop an attached value.
func DecodeCallOpts(md CallMetadata) (CallOpts, error) {
	var opts CallOpts
	if len(md) == 0 {
		return opts, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       bigIntHook,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(map[string]interface{}(md)); err != nil {
		return opts, errors.Wrap(err, "decode call metadata failed")
	}
	return opts, nil
}

var (
	bigIntType    = reflect.TypeOf(big.Int{})
	bigIntPtrType = reflect.TypeOf(&big.Int{})
)

func bigIntHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != bigIntType && to != bigIntPtrType {
		return data, nil
	}
	if data == nil {
		return nil, nil
	}
	return ToBigInt(data)
}

// ToBigInt converts integers, integral floats, json.Number and decimal or 0x
// prefixed strings.
func ToBigInt(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, ErrNotInteger
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if math.IsNaN(x) {
			return nil, errors.Wrapf(ErrNotInteger, "%v", x)
		}
		f := new(big.Float).SetFloat64(x)
		if !f.IsInt() {
			return nil, errors.Wrapf(ErrNotInteger, "%v", x)
		}
		n, _ := f.Int(nil)
		return n, nil
	case json.Number:
		return parseBigInt(string(x))
	case string:
		return parseBigInt(x)
	}
	return nil, errors.Wrapf(ErrNotInteger, "unsupported type %T", v)
}

func parseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || s == "" {
		return nil, errors.Wrapf(ErrNotInteger, "%q", s)
	}
	return n, nil
}
