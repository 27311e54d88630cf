package rpc

import (
	"context"
	"errors"

	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *server) GetOrderBookSnapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	provider, marketSymbol, err := s.parseMarketRequest(in)
	if err != nil {
		return nil, err
	}

	maxDepth := int(in.GetFields()["maxDepth"].GetNumberValue())
	if maxDepth < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "maxDepth must not be negative, got %d", maxDepth)
	}

	raw := in.GetFields()["raw"].GetBoolValue()

	snapshot, err := s.orderbookSnapshotUseCase.GetOrderBookSnapshot(provider, marketSymbol, maxDepth, raw)
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"provider":       provider,
		"market":         marketSymbol.String(),
		"raw":            raw,
		"lastUpdateTime": snapshot.LastUpdateTime,
		"bids":           levelsToList(snapshot.Bids),
		"asks":           levelsToList(snapshot.Asks),
	})
}

func (s *server) GetTicker(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	provider, marketSymbol, err := s.parseMarketRequest(in)
	if err != nil {
		return nil, err
	}

	ticker, err := s.orderbookSnapshotUseCase.GetTicker(provider, marketSymbol)
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"provider": provider,
		"market":   marketSymbol.String(),
		"bid":      ticker.Bid.String(),
		"ask":      ticker.Ask.String(),
	})
}

func (s *server) parseMarketRequest(in *structpb.Struct) (string, *domain.MarketSymbol, error) {
	fields := in.GetFields()
	provider := NormalizeProvider(fields["provider"].GetStringValue())
	market := fields["market"].GetStringValue()

	if !s.validationService.IsSupportedProvider(provider) {
		return "", nil, status.Errorf(codes.InvalidArgument, "provider %s is not supported", provider)
	}

	marketSymbol, err := domain.NewMarketSymbolFromString(market)
	if err != nil {
		return "", nil, status.Errorf(codes.InvalidArgument, "invalid market symbol %s. Correct market symbol should use / or _ as a separator", market)
	}

	return provider, marketSymbol, nil
}

// Prices and amounts travel as strings so no precision is lost to float64.
func levelsToList(levels []domain.PriceLevel) []interface{} {
	out := make([]interface{}, 0, len(levels))
	for _, l := range levels {
		out = append(out, map[string]interface{}{
			"price":  l.Price.String(),
			"count":  l.Count,
			"amount": l.Amount.String(),
		})
	}
	return out
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrProviderNotFound),
		errors.Is(err, domain.ErrOrderBookNotFound),
		errors.Is(err, domain.ErrTickerNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
