package logs

import (
	"fmt"
	"os"
	"sync"

	"github.com/xuperchain/xminter/lib/utils"
)

// Reserved common keys.
const (
	CommFieldLogId  = "log_id"
	CommFieldSubMod = "s_mod"
	CommFieldPid    = "pid"
	CommFieldCall   = "call"
)

const DefaultCallDepth = 4

// LogDriver is the surface required from the underlying log library.
type LogDriver interface {
	Error(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
}

// Logger is what components log through. It keeps field assembly in one place
// so the driver can be swapped.
type Logger interface {
	GetLogId() string
	SetCommField(key string, value interface{})
	SetInfoField(key string, value interface{})
	Error(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
}

// LogFitter prefixes every record with log_id, s_mod, call and pid.
// Info fields are attached to the next Info record only.
type LogFitter struct {
	driver     LogDriver
	logId      string
	subMod     string
	pid        int
	callDepth  int
	mu         sync.Mutex
	commFields []interface{}
	infoFields []interface{}
}

// NewLogger creates a LogFitter on the process driver. An empty logId is generated.
func NewLogger(logId, subMod string) (*LogFitter, error) {
	return NewLoggerWithDriver(getLogDriver(), logId, subMod)
}

// NewLoggerWithDriver creates a LogFitter on driver.
func NewLoggerWithDriver(driver LogDriver, logId, subMod string) (*LogFitter, error) {
	if driver == nil {
		return nil, fmt.Errorf("new logger param error")
	}
	if logId == "" {
		logId = utils.GenLogId()
	}

	return &LogFitter{
		driver:    driver,
		logId:     logId,
		subMod:    subMod,
		pid:       os.Getpid(),
		callDepth: DefaultCallDepth,
	}, nil
}

func (t *LogFitter) GetLogId() string {
	return t.logId
}

func (t *LogFitter) SetCommField(key string, value interface{}) {
	if key == "" || value == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.commFields = append(t.commFields, key, value)
}

func (t *LogFitter) SetInfoField(key string, value interface{}) {
	if key == "" || value == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.infoFields = append(t.infoFields, key, value)
}

func (t *LogFitter) Error(msg string, ctx ...interface{}) {
	t.driver.Error(msg, t.fmtLogger(false, ctx...)...)
}

func (t *LogFitter) Warn(msg string, ctx ...interface{}) {
	t.driver.Warn(msg, t.fmtLogger(false, ctx...)...)
}

func (t *LogFitter) Info(msg string, ctx ...interface{}) {
	t.driver.Info(msg, t.fmtLogger(true, ctx...)...)
}

func (t *LogFitter) Trace(msg string, ctx ...interface{}) {
	t.driver.Trace(msg, t.fmtLogger(false, ctx...)...)
}

func (t *LogFitter) Debug(msg string, ctx ...interface{}) {
	t.driver.Debug(msg, t.fmtLogger(false, ctx...)...)
}

func (t *LogFitter) fmtLogger(withInfo bool, ctx ...interface{}) []interface{} {
	if len(ctx)%2 != 0 {
		last := ctx[len(ctx)-1]
		ctx = append(ctx[:len(ctx)-1:len(ctx)-1], "unknow", last)
	}

	fileLine, _ := utils.GetFuncCall(t.callDepth)
	// log_id stays first so it can be overridden by the caller
	out := []interface{}{CommFieldLogId, t.logId, CommFieldSubMod, t.subMod,
		CommFieldCall, fileLine, CommFieldPid, t.pid}
	if len(ctx) > 1 && fmt.Sprintf("%v", ctx[0]) == CommFieldLogId {
		out[1] = ctx[1]
		ctx = ctx[2:]
	}

	t.mu.Lock()
	out = append(out, t.commFields...)
	if withInfo {
		out = append(out, t.infoFields...)
		t.infoFields = t.infoFields[:0]
	}
	t.mu.Unlock()

	return append(out, ctx...)
}
