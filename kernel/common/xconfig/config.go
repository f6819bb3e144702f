package xconfig

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/xuperchain/xminter/lib/utils"
)

// EnvVarRootPath overrides the root directory from the environment.
const EnvVarRootPath = "XMINTER_ROOT_PATH"

type EnvConf struct {
	// Program running root directory
	RootPath string `yaml:"rootPath,omitempty"`
	// config file directory
	ConfDir string `yaml:"confDir,omitempty"`
	// data file directory
	DataDir string `yaml:"dataDir,omitempty"`
	// log file directory
	LogDir string `yaml:"logDir,omitempty"`
	// log config file name
	LogConf string `yaml:"logConf,omitempty"`
	// minter config file name
	MinterConf string `yaml:"minterConf,omitempty"`
	// metric switch
	MetricSwitch bool `yaml:"metricSwitch,omitempty"`
	// metric listen address
	MetricAddr string `yaml:"metricAddr,omitempty"`
}

func LoadEnvConf(cfgFile string) (*EnvConf, error) {
	cfg := GetDefEnvConf()
	if err := loadConf(cfgFile, cfg); err != nil {
		return nil, errors.Wrap(err, "load env config failed")
	}

	// root path priority: XMINTER_ROOT_PATH, config file, parent of the binary dir
	if rt := GetRootPathFromEnv(); rt != "" {
		cfg.RootPath = rt
	}
	return cfg, nil
}

func GetDefEnvConf() *EnvConf {
	return &EnvConf{
		RootPath:     utils.GetCurRootDir(),
		ConfDir:      "conf",
		DataDir:      "data",
		LogDir:       "logs",
		LogConf:      "log.yaml",
		MinterConf:   "minter.yaml",
		MetricSwitch: false,
		MetricAddr:   ":37200",
	}
}

// GetRootPathFromEnv returns XMINTER_ROOT_PATH when it names an existing path.
func GetRootPathFromEnv() string {
	rt := os.Getenv(EnvVarRootPath)
	if rt != "" && utils.FileIsExist(rt) {
		return rt
	}
	return ""
}

func (t *EnvConf) GenDirAbsPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(t.RootPath, dir)
}

func (t *EnvConf) GenDataAbsPath(dir string) string {
	return filepath.Join(t.GenDirAbsPath(t.DataDir), dir)
}

func (t *EnvConf) GenConfFilePath(fName string) string {
	if filepath.IsAbs(fName) {
		return fName
	}
	return filepath.Join(t.GenDirAbsPath(t.ConfDir), fName)
}

func loadConf(cfgFile string, out interface{}) error {
	if cfgFile == "" || !utils.FileIsExist(cfgFile) {
		return errors.Errorf("config file set error.path:%s", cfgFile)
	}

	viperObj := viper.New()
	viperObj.SetConfigFile(cfgFile)
	if err := viperObj.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config failed.path:%s", cfgFile)
	}
	if err := viperObj.Unmarshal(out); err != nil {
		return errors.Wrapf(err, "unmatshal config failed.path:%s", cfgFile)
	}
	return nil
}
