package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/solana-wallet/internal/core/application/signer"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// WalletManager derives accounts from a root signer and keeps them in
// memory until disposed.
type WalletManager struct {
	root ports.Signer
	rpc  ports.RPCClient

	lock     sync.Mutex
	accounts map[string]*Account
	disposed bool
}

func NewWalletManager(root ports.Signer, rpc ports.RPCClient) (*WalletManager, error) {
	if root == nil {
		return nil, ErrMissingSigner
	}
	return &WalletManager{
		root:     root,
		rpc:      rpc,
		accounts: make(map[string]*Account),
	}, nil
}

// GetAccount returns the account at m/44'/501'/{index}'/0'.
func (m *WalletManager) GetAccount(ctx context.Context, index uint32) (*Account, error) {
	return m.GetAccountByPath(ctx, fmt.Sprintf("%d'/0'", index))
}

// GetAccountByPath returns the account at the given path, either relative
// to m/44'/501' or absolute. Accounts are derived once and then cached by
// absolute path.
func (m *WalletManager) GetAccountByPath(
	_ context.Context, path string,
) (*Account, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.disposed {
		return nil, signer.ErrDisposed
	}

	key, err := accountKey(path)
	if err != nil {
		return nil, err
	}
	if account, ok := m.accounts[key]; ok && !account.IsDisposed() {
		return account, nil
	}

	s, err := m.root.Derive(path, nil)
	if err != nil {
		return nil, err
	}
	account, err := NewAccount(s, m.rpc)
	if err != nil {
		return nil, err
	}
	m.accounts[key] = account

	log.WithField("path", account.Path()).Debug("application: account derived")
	return account, nil
}

// GetFeeRates returns the fees of a simple transfer at the normal and fast
// priority. The priority fee is the median of the recent samples for the
// normal rate and the max for the fast one.
func (m *WalletManager) GetFeeRates(ctx context.Context) (*FeeRates, error) {
	if m.rpc == nil {
		return nil, ErrNotConnected
	}
	samples, err := m.rpc.GetRecentFeeSamples(ctx)
	if err != nil {
		return nil, err
	}

	fees := make([]uint64, 0, len(samples))
	for _, s := range samples {
		fees = append(fees, s.PriorityFee)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })

	var median, max uint64
	if n := len(fees); n > 0 {
		median, max = fees[n/2], fees[n-1]
		if n%2 == 0 {
			median = fees[n/2-1] + (fees[n/2]-fees[n/2-1])/2
		}
	}

	return &FeeRates{
		Normal: wallet.LamportsPerSignature + priorityFee(median),
		Fast:   wallet.LamportsPerSignature + priorityFee(max),
	}, nil
}

// Dispose disposes every account derived so far and the root signer.
func (m *WalletManager) Dispose(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.disposed {
		return nil
	}
	m.disposed = true

	for path, account := range m.accounts {
		if err := account.Dispose(ctx); err != nil {
			log.WithError(err).WithField("path", path).Warn(
				"application: failed to dispose account",
			)
		}
		delete(m.accounts, path)
	}
	return m.root.Dispose(ctx)
}

// priorityFee returns the fee in lamports paid for the default compute unit
// limit at the given price in micro-lamports per unit.
func priorityFee(microLamportsPerUnit uint64) uint64 {
	return wallet.PrioritizationFee(microLamportsPerUnit, wallet.DefaultComputeUnitLimit)
}

// accountKey returns the absolute form of the given account path.
func accountKey(path string) (string, error) {
	path = wallet.HardenDerivationPath(strings.TrimSpace(path))
	if !strings.HasPrefix(path, "m") {
		path = wallet.JoinDerivationPath(
			wallet.SolanaBaseDerivationPath.String(), path,
		)
	}
	parsed, err := wallet.ParseDerivationPath(path)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
