package solanarpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

func (s *service) SendEncodedTransaction(
	ctx context.Context, wireBase64 string, opts ports.SendOptions,
) (string, error) {
	encoding := solana.EncodingBase64
	if len(opts.Encoding) > 0 {
		encoding = solana.EncodingType(opts.Encoding)
	}
	txOpts := rpc.TransactionOpts{
		Encoding:      encoding,
		SkipPreflight: opts.SkipPreflight,
	}
	if len(opts.PreflightCommitment) > 0 {
		txOpts.PreflightCommitment = commitment(opts.PreflightCommitment)
	}

	res, err := s.call("sendTransaction", func() (interface{}, error) {
		sig, err := s.client.SendEncodedTransactionWithOpts(ctx, wireBase64, txOpts)
		if err != nil {
			return nil, err
		}
		return sig.String(), nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (s *service) GetTransactionReceipt(
	ctx context.Context, hash string, c ports.Commitment,
) (*ports.TransactionReceipt, error) {
	sig, err := solana.SignatureFromBase58(hash)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hash %s: %w", hash, err)
	}

	maxVersion := uint64(0)
	res, err := s.call("getTransaction", func() (interface{}, error) {
		out, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     commitment(c),
			MaxSupportedTransactionVersion: &maxVersion,
		})
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return (*ports.TransactionReceipt)(nil), nil
			}
			return nil, err
		}

		receipt := &ports.TransactionReceipt{
			Hash: hash,
			Slot: out.Slot,
		}
		if out.BlockTime != nil {
			receipt.BlockTime = int64(*out.BlockTime)
		}
		if out.Meta != nil {
			receipt.Fee = out.Meta.Fee
			if out.Meta.Err != nil {
				receipt.Err = fmt.Sprintf("%v", out.Meta.Err)
			}
		}
		return receipt, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*ports.TransactionReceipt), nil
}
