package rpc

import (
	"context"
	"log"
	"net"
	"os"

	"github.com/spooky-finn/bitfinex-feed-bridge/usecase"
	"google.golang.org/grpc"
)

var logger = log.New(os.Stdout, "[rpc] ", log.LstdFlags)

type server struct {
	orderbookSnapshotUseCase *usecase.OrderBookSnapshotUseCase
	validationService        *ValidationService
}

func NewServer(uc *usecase.OrderBookSnapshotUseCase, conf *ValidationServiceConfig) *server {
	return &server{
		orderbookSnapshotUseCase: uc,
		validationService:        NewValidationService(conf),
	}
}

// Serve blocks until ctx is done or the listener fails.
func (s *server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	g := grpc.NewServer()
	RegisterMarketDataServiceServer(g, s)

	go func() {
		<-ctx.Done()
		g.GracefulStop()
	}()

	logger.Printf("grpc server listening at %v", lis.Addr())
	return g.Serve(lis)
}
