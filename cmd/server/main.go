package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"solstice/api/grpcserver"
	"solstice/config"
	"solstice/domain/fhe"
	"solstice/infra/kafka"
	"solstice/infra/outbox"
	"solstice/infra/wal"
	"solstice/jobs/broadcaster"
	"solstice/service"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "solstice",
	Short: "Confidential order-matching engine",
	Long: `solstice pairs encrypted swap orders without ever seeing their
cleartext amounts or price bounds. Orders, matches, and trade execution
run as a single-writer state machine backed by a durable operation log;
domain events are broadcast through a transactional outbox.`,
	Version: "0.1.0",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Replay the operation log and serve the gRPC API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := log.New("module", "server")

	oplog, err := wal.Open(wal.Config{Dir: cfg.WALDir})
	if err != nil {
		return fmt.Errorf("open operation log: %w", err)
	}
	defer oplog.Close()

	events, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer events.Close()

	// The mock compute service keeps this binary self-contained; a real
	// deployment swaps in a client for the remote confidential-compute
	// service here.
	compute := fhe.NewMockCompute()

	engine := service.New(compute, oplog, service.WithOutbox(events))
	if err := engine.Restore(cfg.WALDir); err != nil {
		return fmt.Errorf("replay operation log: %w", err)
	}

	gateOpts := []service.GateOption{}
	if cfg.Kafka.Enabled {
		audit := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		defer audit.Close()
		gateOpts = append(gateOpts, service.WithAudit(audit))
	}
	gate := service.NewGate(engine, compute, cfg.Scope, gateOpts...)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(events, cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		if err != nil {
			return fmt.Errorf("start broadcaster: %w", err)
		}
		defer bc.Close()
		g.Go(func() error {
			bc.Run(ctx)
			return nil
		})
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	srv := grpcserver.NewGRPCServer(engine, gate)
	g.Go(func() error {
		logger.Info("engine serving", "addr", cfg.ListenAddr)
		return srv.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.GracefulStop()
		return nil
	})

	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
