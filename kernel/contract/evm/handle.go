// Package evm exposes deployed EVM contracts as contract handles: every ABI
// method becomes a named operation backed by eth_call or a signed transaction.
package evm

import (
	"bytes"
	"context"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/xuperchain/xminter/kernel/contract"
)

var (
	ErrArity      = errors.New("evm: wrong number of arguments")
	ErrArgument   = errors.New("evm: bad argument")
	ErrNoBackend  = errors.New("evm: no call backend")
	ErrReadOnly   = errors.New("evm: handle has no transaction submitter")
	ErrNotPayable = errors.New("evm: method is not payable")
)

// Backend executes read-only calls. *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Handle is a contract.Handle over one deployed contract.
type Handle struct {
	name      string
	address   common.Address
	abi       abi.ABI
	backend   Backend
	submitter Submitter
	methods   map[string]contract.Method
}

var _ contract.Handle = (*Handle)(nil)

// NewHandle parses abiJSON and binds its methods. backend serves constant
// methods and submitter state changing ones; either may be nil.
func NewHandle(name string, address common.Address, abiJSON []byte, backend Backend, submitter Submitter) (*Handle, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, errors.Wrapf(err, "parse abi of %s failed", name)
	}

	h := &Handle{
		name:      name,
		address:   address,
		abi:       parsed,
		backend:   backend,
		submitter: submitter,
		methods:   make(map[string]contract.Method, len(parsed.Methods)),
	}
	for mname, m := range parsed.Methods {
		h.methods[mname] = h.bind(m)
	}
	return h, nil
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) Address() common.Address {
	return h.address
}

func (h *Handle) Method(name string) (contract.Method, bool) {
	fn, ok := h.methods[name]
	return fn, ok
}

func (h *Handle) bind(m abi.Method) contract.Method {
	return func(ctx context.Context, args ...interface{}) (interface{}, error) {
		args, md := splitMetadata(args)
		opts, err := contract.DecodeCallOpts(md)
		if err != nil {
			return nil, err
		}
		input, err := h.pack(m, args)
		if err != nil {
			return nil, err
		}

		if m.IsConstant() {
			return h.call(ctx, m, input, opts)
		}
		return h.transact(ctx, m, input, opts)
	}
}

func (h *Handle) call(ctx context.Context, m abi.Method, input []byte, opts contract.CallOpts) (interface{}, error) {
	if h.backend == nil {
		return nil, ErrNoBackend
	}

	msg := ethereum.CallMsg{
		To:       &h.address,
		Data:     input,
		Gas:      opts.GasLimit,
		GasPrice: opts.GasPrice,
		Value:    opts.Value,
	}
	if opts.From != "" {
		msg.From = common.HexToAddress(opts.From)
	}
	out, err := h.backend.CallContract(ctx, msg, opts.BlockNumber)
	if err != nil {
		return nil, err
	}

	vals, err := h.abi.Unpack(m.Name, out)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s.%s output failed", h.name, m.Name)
	}
	switch len(vals) {
	case 0:
		return nil, nil
	case 1:
		return vals[0], nil
	default:
		return vals, nil
	}
}

func (h *Handle) transact(ctx context.Context, m abi.Method, input []byte, opts contract.CallOpts) (interface{}, error) {
	if h.submitter == nil {
		return nil, ErrReadOnly
	}
	if opts.Value != nil && opts.Value.Sign() > 0 && !m.IsPayable() {
		return nil, errors.Wrapf(ErrNotPayable, "%s.%s", h.name, m.Name)
	}

	return h.submitter.Submit(ctx, TxRequest{
		To:       h.address,
		Data:     input,
		Value:    opts.Value,
		GasLimit: opts.GasLimit,
		GasPrice: opts.GasPrice,
	})
}

func (h *Handle) pack(m abi.Method, args []interface{}) ([]byte, error) {
	if len(args) != len(m.Inputs) {
		return nil, errors.Wrapf(ErrArity, "%s.%s expects %d, got %d", h.name, m.Name, len(m.Inputs), len(args))
	}

	conv := make([]interface{}, len(args))
	for i, in := range m.Inputs {
		v, err := coerce(args[i], in.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s argument %d", h.name, m.Name, i)
		}
		conv[i] = v
	}

	input, err := h.abi.Pack(m.Name, conv...)
	if err != nil {
		return nil, errors.Wrapf(ErrArgument, "pack %s.%s: %v", h.name, m.Name, err)
	}
	return input, nil
}

// splitMetadata strips a trailing CallMetadata appended by the dispatcher.
func splitMetadata(args []interface{}) ([]interface{}, contract.CallMetadata) {
	if len(args) == 0 {
		return args, nil
	}
	if md, ok := args[len(args)-1].(contract.CallMetadata); ok {
		return args[:len(args)-1], md
	}
	return args, nil
}

// coerce converts loosely typed caller values into the Go types the abi packer
// requires. Anything it does not know is handed to the packer untouched.
func coerce(v interface{}, t abi.Type) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		switch x := v.(type) {
		case common.Address:
			return x, nil
		case *common.Address:
			if x == nil {
				return nil, ErrArgument
			}
			return *x, nil
		case string:
			if !common.IsHexAddress(x) {
				return nil, errors.Wrapf(ErrArgument, "invalid address %q", x)
			}
			return common.HexToAddress(x), nil
		}
	case abi.UintTy, abi.IntTy:
		n, err := contract.ToBigInt(v)
		if err != nil {
			return nil, errors.Wrap(ErrArgument, err.Error())
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, errors.Wrapf(ErrArgument, "negative value for %s", t.String())
		}
		if t.Size > 64 {
			return n, nil
		}

		rv := reflect.New(t.GetType()).Elem()
		if t.T == abi.UintTy {
			if !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
				return nil, errors.Wrapf(ErrArgument, "%s overflows %s", n, t.String())
			}
			rv.SetUint(n.Uint64())
		} else {
			if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
				return nil, errors.Wrapf(ErrArgument, "%s overflows %s", n, t.String())
			}
			rv.SetInt(n.Int64())
		}
		return rv.Interface(), nil
	case abi.BoolTy:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, errors.Wrapf(ErrArgument, "expect bool, got %T", v)
	}
	return v, nil
}
