package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/xuperchain/xminter/cmd/xminter/cmd"
)

func main() {
	rootCmd, err := NewServiceCommand()
	if err != nil {
		log.Fatalf("start service failed.err:%v", err)
	}

	if err = rootCmd.Execute(); err != nil {
		log.Fatalf("xminter exit.err:%v", err)
	}
}

func NewServiceCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "xminter <command> [arguments]",
		Short:         "xminter follows and calls membership NFT collection contracts.",
		Long:          "xminter follows and calls membership NFT collection contracts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       "xminter watch --conf /home/rd/xminter/conf/env.yaml",
	}

	// cmd watch
	rootCmd.AddCommand(cmd.GetWatchCmd().GetCmd())
	// cmd call
	rootCmd.AddCommand(cmd.GetCallCmd().GetCmd())
	// cmd locate
	rootCmd.AddCommand(cmd.GetLocateCmd().GetCmd())
	// cmd version
	rootCmd.AddCommand(cmd.GetVersionCmd().GetCmd())
	return rootCmd, nil
}
