package solanarpc

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

func (s *service) GetBalance(
	ctx context.Context, address solana.PublicKey, c ports.Commitment,
) (uint64, error) {
	res, err := s.call("getBalance", func() (interface{}, error) {
		out, err := s.client.GetBalance(ctx, address, commitment(c))
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, ErrEmptyResult
		}
		return out.Value, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(uint64), nil
}

func (s *service) GetTokenBalance(
	ctx context.Context, owner, mint solana.PublicKey, c ports.Commitment,
) (uint64, error) {
	tokenAccount, err := wallet.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, err
	}

	data, err := s.getAccountData(ctx, tokenAccount, c)
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}

	var account token.Account
	if err := bin.NewBinDecoder(data).Decode(&account); err != nil {
		return 0, fmt.Errorf("failed to decode token account %s: %w", tokenAccount, err)
	}
	return account.Amount, nil
}

func (s *service) AccountExists(
	ctx context.Context, address solana.PublicKey, c ports.Commitment,
) (bool, error) {
	data, err := s.getAccountData(ctx, address, c)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// getAccountData returns nil if the account does not exist.
func (s *service) getAccountData(
	ctx context.Context, address solana.PublicKey, c ports.Commitment,
) ([]byte, error) {
	res, err := s.call("getAccountInfo", func() (interface{}, error) {
		out, err := s.client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: commitment(c),
		})
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return []byte(nil), nil
			}
			return nil, err
		}
		if out == nil || out.Value == nil {
			return []byte(nil), nil
		}

		data := []byte{}
		if out.Value.Data != nil {
			if raw := out.Value.Data.GetBinary(); raw != nil {
				data = raw
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}
