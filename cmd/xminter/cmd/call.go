package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xuperchain/xminter/kernel/contract"
	"github.com/xuperchain/xminter/lib/logs"
)

type CallCmd struct {
	BaseCmd
	EnvConf string
	Meta    map[string]string
	Sign    bool
}

func GetCallCmd() *CallCmd {
	callCmdIns := new(CallCmd)

	callCmdIns.cmd = &cobra.Command{
		Use:   "call <collection> <method> [args...]",
		Short: "Invoke a method of a collection contract.",
		Example: "xminter call gold balanceOf 0x2222222222222222222222222222222222222222\n" +
			"xminter call gold mint 0x2222222222222222222222222222222222222222 --sign -m value=1000",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return callCmdIns.call(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], args[2:])
		},
	}

	callCmdIns.cmd.Flags().StringVarP(&callCmdIns.EnvConf, "conf", "c", defEnvConfPath(),
		"environment config file path")
	callCmdIns.cmd.Flags().StringToStringVarP(&callCmdIns.Meta, "meta", "m", nil,
		"call metadata, e.g. value=1000,gasLimit=90000")
	callCmdIns.cmd.Flags().BoolVar(&callCmdIns.Sign, "sign", false,
		"sign state changing calls with the configured key")

	return callCmdIns
}

func (t *CallCmd) call(ctx context.Context, out io.Writer, collection, method string, rawArgs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	envConf, minterConf, err := loadConf(t.EnvConf)
	if err != nil {
		return err
	}
	if err := initLog(envConf); err != nil {
		return err
	}
	log, err := logs.NewLogger("", "call")
	if err != nil {
		return err
	}

	provider, client, err := newProvider(ctx, envConf, minterConf, t.Sign, log)
	if err != nil {
		return err
	}
	defer client.Close()
	h, err := provider.Handle(collection)
	if err != nil {
		return err
	}

	args, md := buildCall(rawArgs, t.Meta)
	if args == nil && md != nil {
		log.Warn("metadata is not forwarded to a call without arguments", "method", method)
	}
	res, ok, err := contract.NewDispatcher(log).Invoke(ctx, method, h, args, md)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("collection %s does not support %s", collection, method)
	}
	fmt.Fprintln(out, formatResult(res))
	return nil
}

// buildCall keeps args nil when none were given, so the method is invoked
// without arguments.
func buildCall(rawArgs []string, meta map[string]string) ([]interface{}, contract.CallMetadata) {
	var args []interface{}
	for _, a := range rawArgs {
		args = append(args, a)
	}

	var md contract.CallMetadata
	if len(meta) > 0 {
		md = make(contract.CallMetadata, len(meta))
		for k, v := range meta {
			md[k] = v
		}
	}
	return args, md
}

func formatResult(res interface{}) string {
	switch v := res.(type) {
	case nil:
		return "<nil>"
	case *big.Int:
		return v.String()
	case common.Address:
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case []byte:
		return common.Bytes2Hex(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, formatResult(p))
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprint(res)
}
