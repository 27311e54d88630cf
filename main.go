package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spooky-finn/bitfinex-feed-bridge/config"
	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
	promclient "github.com/spooky-finn/bitfinex-feed-bridge/infrastructure/prometheus"
	"github.com/spooky-finn/bitfinex-feed-bridge/provider/bitfinex"
	"github.com/spooky-finn/bitfinex-feed-bridge/rpc"
	"github.com/spooky-finn/bitfinex-feed-bridge/usecase"
)

func main() {
	conf := config.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := promclient.NewRegistry()
	metrics := promclient.NewMetrics(reg)
	go func() {
		if err := promclient.StartPromClientServer(conf.MetricsAddr, reg); err != nil {
			log.Printf("failed to serve metrics: %v", err)
		}
	}()

	storage := domain.NewOrderBookStorage()
	var sink domain.Sink = storage
	if config.DebugMode {
		sink = domain.MultiSink{storage, domain.NewLogSink(nil)}
	}

	requests, err := bitfinex.SubscribeRequests(conf.Channels, conf.Pairs)
	if err != nil {
		log.Fatalf("invalid subscriptions: %v", err)
	}

	client := bitfinex.NewBitfinexStreamClient(conf.BitfinexEndpoint)
	for _, req := range requests {
		if err := client.Subscribe(req); err != nil {
			log.Fatalf("failed to subscribe: %v", err)
		}
	}
	if err := client.Connect(); err != nil {
		log.Fatalf("failed to connect to bitfinex ws: %v", err)
	}

	snapshots := usecase.NewOrderBookSnapshotUseCase(storage, map[string]usecase.SymbolResolver{
		bitfinex.ProviderName: bitfinex.TradingSymbol,
	})
	server := rpc.NewServer(snapshots, &rpc.ValidationServiceConfig{AvailableProviders: conf.AvailableProviders})
	go func() {
		if err := server.Serve(ctx, conf.RPCAddr); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		client.Close()
	}()

	session := bitfinex.NewSession(sink, nil, metrics)
	policy := bitfinex.NewDesyncPolicy(conf.DesyncThreshold, conf.DesyncWindow)
	feed := bitfinex.NewFeed(client, session, client, policy)

	if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("feed stopped: %v", err)
	}
	log.Println("shutting down")
}
