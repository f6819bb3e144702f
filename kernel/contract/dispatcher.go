package contract

import (
	"context"
	"time"

	"github.com/xuperchain/xminter/lib/logs"
	"github.com/xuperchain/xminter/lib/metrics"
)

// Invoker calls a named operation on a handle.
type Invoker interface {
	Invoke(ctx context.Context, method string, h Handle, args []interface{}, md CallMetadata) (interface{}, bool, error)
}

// Invoke calls method on h.
//
// ok is false when h is nil or does not expose method; that means the
// operation is unsupported, not that it failed. With non-nil args the method
// receives args followed by md (an empty CallMetadata when md is nil). With
// nil args it is called without any argument and md is dropped.
//
// The result and any error come back exactly as the method produced them.
func Invoke(ctx context.Context, method string, h Handle, args []interface{}, md CallMetadata) (interface{}, bool, error) {
	if h == nil {
		return nil, false, nil
	}
	fn, ok := h.Method(method)
	if !ok || fn == nil {
		return nil, false, nil
	}

	if args == nil {
		// NOTE: the zero-argument path does not forward metadata. Kept as is,
		// callers that need options must pass a non-nil args slice.
		res, err := fn(ctx)
		return res, true, err
	}

	if md == nil {
		md = CallMetadata{}
	}
	full := make([]interface{}, 0, len(args)+1)
	full = append(full, args...)
	full = append(full, md)

	res, err := fn(ctx, full...)
	return res, true, err
}

// Dispatcher is Invoke plus logging and metrics. It adds no retry or timeout.
type Dispatcher struct {
	log logs.Logger
}

var _ Invoker = (*Dispatcher)(nil)

func NewDispatcher(log logs.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

func (d *Dispatcher) Invoke(ctx context.Context, method string, h Handle, args []interface{}, md CallMetadata) (interface{}, bool, error) {
	begin := time.Now()
	res, ok, err := Invoke(ctx, method, h, args, md)

	name := ""
	if h != nil {
		name = h.Name()
	}
	outcome := metrics.OutcomeOK
	switch {
	case !ok:
		outcome = metrics.OutcomeUnsupported
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.ContractInvokeCounter.WithLabelValues(name, method, outcome).Inc()
	if ok {
		metrics.ContractInvokeHistogram.WithLabelValues(name, method).Observe(time.Since(begin).Seconds())
	}

	if d.log != nil {
		d.log.Debug("contract invoke", "contract", name, "method", method,
			"args", len(args), "outcome", outcome, "cost", time.Since(begin), "err", err)
	}
	return res, ok, err
}
