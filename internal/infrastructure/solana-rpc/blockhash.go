package solanarpc

import (
	"context"

	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

func (s *service) GetLatestCheckpoint(
	ctx context.Context, c ports.Commitment,
) (*ports.Checkpoint, error) {
	res, err := s.call("getLatestBlockhash", func() (interface{}, error) {
		out, err := s.client.GetLatestBlockhash(ctx, commitment(c))
		if err != nil {
			return nil, err
		}
		if out == nil || out.Value == nil {
			return nil, ErrEmptyResult
		}
		return &ports.Checkpoint{
			Blockhash:            out.Value.Blockhash,
			LastValidBlockHeight: out.Value.LastValidBlockHeight,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*ports.Checkpoint), nil
}

func (s *service) GetRecentFeeSamples(ctx context.Context) ([]ports.FeeSample, error) {
	res, err := s.call("getRecentPrioritizationFees", func() (interface{}, error) {
		fees, err := s.client.GetRecentPrioritizationFees(ctx, nil)
		if err != nil {
			return nil, err
		}
		samples := make([]ports.FeeSample, 0, len(fees))
		for _, f := range fees {
			samples = append(samples, ports.FeeSample{
				Slot:        f.Slot,
				PriorityFee: f.PrioritizationFee,
			})
		}
		return samples, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]ports.FeeSample), nil
}
