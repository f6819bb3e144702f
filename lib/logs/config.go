package logs

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/xuperchain/xminter/lib/utils"
)

// LogConf is the log config of the process.
type LogConf struct {
	Module   string `yaml:"module,omitempty"`
	Filename string `yaml:"filename,omitempty"`
	// logfmt or json
	Fmt string `yaml:"fmt,omitempty"`
	// debug, trace, info, warn, error
	Level string `yaml:"level,omitempty"`
	// rotate period in minutes
	RotateInterval int `yaml:"rotateInterval,omitempty"`
	// number of rotated files kept
	RotateBackups int  `yaml:"rotateBackups,omitempty"`
	Console       bool `yaml:"console,omitempty"`
	Async         bool `yaml:"async,omitempty"`
	BufSize       int  `yaml:"bufSize,omitempty"`
}

func LoadLogConf(cfgFile string) (*LogConf, error) {
	cfg := GetDefLogConf()
	if err := cfg.loadConf(cfgFile); err != nil {
		return nil, errors.Wrap(err, "load log config failed")
	}

	return cfg, nil
}

func GetDefLogConf() *LogConf {
	return &LogConf{
		Module:   "xminter",
		Filename: "xminter",
		Fmt:      "logfmt",
		Level:    "info",
		// rotate every 60 minutes
		RotateInterval: 60,
		// keep a week of hourly files
		RotateBackups: 168,
		Console:       true,
		Async:         false,
		BufSize:       DefLogBufSize,
	}
}

func (t *LogConf) loadConf(cfgFile string) error {
	if cfgFile == "" || !utils.FileIsExist(cfgFile) {
		return errors.Errorf("config file set error.path:%s", cfgFile)
	}

	viperObj := viper.New()
	viperObj.SetConfigFile(cfgFile)
	if err := viperObj.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config failed.path:%s", cfgFile)
	}

	if err := viperObj.Unmarshal(t); err != nil {
		return errors.Wrapf(err, "unmarshal config failed.path:%s", cfgFile)
	}

	return nil
}
