package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xuperchain/xminter/kernel/balance"
	"github.com/xuperchain/xminter/kernel/common/xconfig"
	"github.com/xuperchain/xminter/kernel/contract"
	"github.com/xuperchain/xminter/kernel/event"
	"github.com/xuperchain/xminter/lib/logs"
	"github.com/xuperchain/xminter/lib/metrics"
	"github.com/xuperchain/xminter/lib/storage/kvdb"
	_ "github.com/xuperchain/xminter/lib/storage/kvdb/leveldb"
)

type WatchCmd struct {
	BaseCmd
	EnvConf string
	Select  string
}

func GetWatchCmd() *WatchCmd {
	watchCmdIns := new(WatchCmd)

	watchCmdIns.cmd = &cobra.Command{
		Use:           "watch",
		Short:         "Follow the account balance of the selected collection on every new block.",
		Example:       "xminter watch --conf /home/rd/xminter/conf/env.yaml --select gold",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return watchCmdIns.watch(ctx, cmd.OutOrStdout())
		},
	}

	watchCmdIns.cmd.Flags().StringVarP(&watchCmdIns.EnvConf, "conf", "c", defEnvConfPath(),
		"environment config file path")
	watchCmdIns.cmd.Flags().StringVarP(&watchCmdIns.Select, "select", "s", "",
		"collection selected at startup, overrides the config")

	return watchCmdIns
}

func (t *WatchCmd) watch(ctx context.Context, out io.Writer) error {
	envConf, minterConf, err := loadConf(t.EnvConf)
	if err != nil {
		return err
	}
	if err := initLog(envConf); err != nil {
		return err
	}
	log, err := logs.NewLogger("", "watch")
	if err != nil {
		return err
	}
	if !common.IsHexAddress(minterConf.Account) {
		return errors.Errorf("invalid account %q", minterConf.Account)
	}

	provider, client, err := newProvider(ctx, envConf, minterConf, false, log)
	if err != nil {
		return err
	}
	defer client.Close()

	selected := t.Select
	if selected == "" {
		selected = minterConf.SelectedCollection()
	}
	if _, err := provider.Handle(selected); err != nil {
		return err
	}

	opts := []balance.Option{
		balance.WithMethod(minterConf.BalanceMethod),
		balance.WithListener(func(u balance.Update) {
			printUpdate(out, u)
		}),
	}
	if minterConf.Persist {
		db, err := kvdb.CreateKVInstance(&kvdb.KVParameter{
			DBPath:       envConf.GenDataAbsPath(minterConf.DBName),
			KVEngineType: minterConf.DBEngine,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, balance.WithStore(balance.NewStore(db)))
	}

	syncer := balance.NewSynchronizer(balance.NewState(), provider,
		balance.StaticAddress(common.HexToAddress(minterConf.Account)),
		contract.NewDispatcher(log), log, opts...)
	feed := event.NewFeed(minterConf.DedupTTL)
	source := event.NewEthSource(client, feed, minterConf.PollInterval, log)
	heads := feed.Subscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return syncer.Run(gctx) })
	g.Go(func() error { return syncer.Follow(gctx, heads) })
	g.Go(func() error { return source.Run(gctx) })
	if envConf.MetricSwitch {
		startMetricServer(gctx, g, envConf, log)
	}

	syncer.Select(selected)
	log.Info("watch started", "endpoint", minterConf.Endpoint, "account", minterConf.Account,
		"collection", selected)

	err = g.Wait()
	feed.Close()
	return err
}

func startMetricServer(ctx context.Context, g *errgroup.Group, envConf *xconfig.EnvConf, log logs.Logger) {
	metrics.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: envConf.MetricAddr, Handler: mux}

	g.Go(func() error {
		log.Info("metric server listen", "addr", envConf.MetricAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "metric server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})
}

func printUpdate(out io.Writer, u balance.Update) {
	value := "-"
	if u.Entry.Value != nil {
		value = u.Entry.Value.String()
	}
	if u.Entry.Stale {
		fmt.Fprintf(out, "%s balance=%s stale err=%v\n", u.Collection, value, u.Entry.Err)
		return
	}
	fmt.Fprintf(out, "%s balance=%s block=%d\n", u.Collection, value, u.Entry.Block)
}
