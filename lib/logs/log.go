package logs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	log "github.com/xuperchain/log15"
)

// DefLogBufSize is the buffered handler size used when Async is set.
const DefLogBufSize = 102400

var (
	logHandle LogDriver
	logMu     sync.RWMutex
	once      sync.Once
)

// InitLog opens the process log driver from cfgFile, writing files under logDir.
// A missing config file falls back to the default config.
func InitLog(cfgFile, logDir string) error {
	var initErr error
	once.Do(func() {
		cfg, err := LoadLogConf(cfgFile)
		if err != nil {
			cfg = GetDefLogConf()
		}

		driver, err := OpenLog(cfg, logDir)
		if err != nil {
			initErr = err
			return
		}
		SetLogDriver(driver)
	})

	return initErr
}

// SetLogDriver replaces the process log driver.
func SetLogDriver(driver LogDriver) {
	logMu.Lock()
	defer logMu.Unlock()
	logHandle = driver
}

func getLogDriver() LogDriver {
	logMu.RLock()
	driver := logHandle
	logMu.RUnlock()
	if driver != nil {
		return driver
	}

	logMu.Lock()
	defer logMu.Unlock()
	if logHandle == nil {
		logHandle = newConsoleDriver()
	}
	return logHandle
}

// OpenLog creates a log15 driver: a normal file holding records up to Info,
// a .wf file holding Warn and above, and optionally stderr.
func OpenLog(lc *LogConf, logDir string) (LogDriver, error) {
	if lc == nil {
		return nil, errors.New("log config is nil")
	}
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "create log dir failed.path:%s", logDir)
	}
	infoFile := filepath.Join(logDir, lc.Filename+".log")
	wfFile := filepath.Join(logDir, lc.Filename+".log.wf")

	lfmt := log.LogfmtFormat()
	if lc.Fmt == "json" {
		lfmt = log.JsonFormat()
	}

	xlog := log.New("module", lc.Module)
	lvLevel, err := log.LvlFromString(lc.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level error")
	}
	xlog.SetLevelLimit(lvLevel)

	var nmHandler, wfHandler log.Handler
	if lc.RotateInterval > 0 && lc.RotateBackups > 0 {
		nmHandler = log.Must.RotateFileHandler(infoFile, lfmt, lc.RotateInterval, lc.RotateBackups)
		wfHandler = log.Must.RotateFileHandler(wfFile, lfmt, lc.RotateInterval, lc.RotateBackups)
	} else {
		nmHandler = log.Must.FileHandler(infoFile, lfmt)
		wfHandler = log.Must.FileHandler(wfFile, lfmt)
	}

	if lc.Async {
		bufSize := lc.BufSize
		if bufSize <= 0 {
			bufSize = DefLogBufSize
		}
		nmHandler = log.BufferedHandler(bufSize, nmHandler)
		wfHandler = log.BufferedHandler(bufSize, wfHandler)
	}

	nmfileh := log.BoundLvlFilterHandler(lvLevel, log.LvlError, nmHandler)
	wffileh := log.LvlFilterHandler(log.LvlWarn, wfHandler)

	var lhd log.Handler
	if lc.Console {
		hstd := log.StreamHandler(os.Stderr, lfmt)
		lhd = log.SyncHandler(log.MultiHandler(hstd, nmfileh, wffileh))
	} else {
		lhd = log.SyncHandler(log.MultiHandler(nmfileh, wffileh))
	}
	xlog.SetHandler(lhd)

	return xlog, nil
}

func newConsoleDriver() LogDriver {
	xlog := log.New("module", "xminter")
	xlog.SetLevelLimit(log.LvlInfo)
	xlog.SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.LogfmtFormat())))
	return xlog
}
