package cmd

import (
	"context"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xuperchain/xminter/kernel/common/xconfig"
	"github.com/xuperchain/xminter/kernel/contract/evm"
	"github.com/xuperchain/xminter/lib/logs"
)

type BaseCmd struct {
	// cobra command
	cmd *cobra.Command
}

func (t *BaseCmd) SetCmd(cmd *cobra.Command) {
	t.cmd = cmd
}

func (t *BaseCmd) GetCmd() *cobra.Command {
	return t.cmd
}

func defEnvConfPath() string {
	return filepath.Join(xconfig.GetDefEnvConf().RootPath, "conf", "env.yaml")
}

func loadConf(envCfgPath string) (*xconfig.EnvConf, *xconfig.MinterConf, error) {
	envConf, err := xconfig.LoadEnvConf(envCfgPath)
	if err != nil {
		return nil, nil, err
	}

	minterConf, err := xconfig.LoadMinterConf(envConf.GenConfFilePath(envConf.MinterConf))
	if err != nil {
		return nil, nil, err
	}
	return envConf, minterConf, nil
}

func initLog(envConf *xconfig.EnvConf) error {
	return logs.InitLog(envConf.GenConfFilePath(envConf.LogConf), envConf.GenDirAbsPath(envConf.LogDir))
}

func collections(envConf *xconfig.EnvConf, minterConf *xconfig.MinterConf) []evm.Collection {
	out := make([]evm.Collection, 0, len(minterConf.Collections))
	for _, c := range minterConf.Collections {
		abiPath := c.ABIPath
		if abiPath != "" {
			abiPath = envConf.GenConfFilePath(abiPath)
		}
		out = append(out, evm.Collection{
			ID:      c.ID,
			Name:    c.Name,
			Address: c.Address,
			ABIPath: abiPath,
		})
	}
	return out
}

// newProvider dials the node and builds the collection handles. With
// withSigner the key named by KeyEnv signs state changing calls.
func newProvider(ctx context.Context, envConf *xconfig.EnvConf, minterConf *xconfig.MinterConf,
	withSigner bool, log logs.Logger) (*evm.Provider, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, minterConf.Endpoint)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dial %s failed", minterConf.Endpoint)
	}

	var submitter evm.Submitter
	if withSigner {
		key := os.Getenv(minterConf.KeyEnv)
		if minterConf.KeyEnv == "" || key == "" {
			client.Close()
			return nil, nil, errors.Errorf("signing key not set, export %s", minterConf.KeyEnv)
		}
		ks, err := evm.NewKeyedSubmitter(key, big.NewInt(minterConf.ChainID), client)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Info("transaction signer loaded", "from", ks.From().Hex())
		submitter = ks
	}

	provider, err := evm.NewProvider(collections(envConf, minterConf), client, submitter,
		minterConf.HandleCacheSize, log)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return provider, client, nil
}
