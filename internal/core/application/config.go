package application

import (
	"context"
	"fmt"
	"time"

	"github.com/tdex-network/solana-wallet/internal/core/application/signer"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

const (
	SignerTypeSeed   = "seed"
	SignerTypeLedger = "ledger"

	DefaultAccountPath = "0'/0'"
)

var (
	SupportedSignerType = map[string]struct{}{
		SignerTypeSeed:   {},
		SignerTypeLedger: {},
	}
)

// Config wires the services of the application. Services are built lazily
// on first access.
type Config struct {
	WalletConfig ports.WalletConfig
	SignerType   string
	Mnemonic     string
	// AccountPath is relative to m/44'/501'.
	AccountPath      string
	DiscoveryTimeout time.Duration

	RPCClient        ports.RPCClient
	NewDeviceManager func() (ports.DeviceManager, error)

	manager *WalletManager
	account *Account
}

func (c *Config) Validate() error {
	if _, ok := SupportedSignerType[c.SignerType]; !ok {
		return fmt.Errorf("%w: unsupported signer type %q", ErrInvalidConfig, c.SignerType)
	}
	if len(c.WalletConfig.Commitment) > 0 {
		if err := c.WalletConfig.Commitment.Validate(); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
		}
	}
	if c.SignerType == SignerTypeLedger && c.NewDeviceManager == nil {
		return fmt.Errorf("%w: missing device manager factory", ErrInvalidConfig)
	}
	if _, err := c.accountService(); err != nil {
		return err
	}
	return nil
}

// WalletManager is defined only for seed signers.
func (c *Config) WalletManager() *WalletManager {
	svc, _ := c.walletManagerService()
	return svc
}

func (c *Config) Account() *Account {
	svc, _ := c.accountService()
	return svc
}

// Dispose disposes the account and, for seed signers, the wallet manager.
func (c *Config) Dispose(ctx context.Context) error {
	if c.manager != nil {
		return c.manager.Dispose(ctx)
	}
	if c.account != nil {
		return c.account.Dispose(ctx)
	}
	return nil
}

func (c *Config) accountPath() string {
	if len(c.AccountPath) <= 0 {
		return DefaultAccountPath
	}
	return c.AccountPath
}

func (c *Config) walletManagerService() (*WalletManager, error) {
	if c.manager == nil && c.SignerType == SignerTypeSeed {
		root, err := signer.NewSeedSigner(signer.SeedSignerOpts{
			Mnemonic: c.Mnemonic,
			Config:   c.WalletConfig,
		})
		if err != nil {
			return nil, err
		}
		manager, err := NewWalletManager(root, c.RPCClient)
		if err != nil {
			return nil, err
		}
		c.manager = manager
	}
	return c.manager, nil
}

func (c *Config) accountService() (*Account, error) {
	if c.account != nil {
		return c.account, nil
	}

	switch c.SignerType {
	case SignerTypeSeed:
		manager, err := c.walletManagerService()
		if err != nil {
			return nil, err
		}
		account, err := manager.GetAccountByPath(context.Background(), c.accountPath())
		if err != nil {
			return nil, err
		}
		c.account = account
	case SignerTypeLedger:
		s, err := signer.NewHardwareSigner(signer.HardwareSignerOpts{
			Path:             c.accountPath(),
			Config:           c.WalletConfig,
			NewDeviceManager: c.NewDeviceManager,
			DiscoveryTimeout: c.DiscoveryTimeout,
		})
		if err != nil {
			return nil, err
		}
		account, err := NewAccount(s, c.RPCClient)
		if err != nil {
			return nil, err
		}
		c.account = account
	default:
		return nil, fmt.Errorf("%w: unsupported signer type %q", ErrInvalidConfig, c.SignerType)
	}
	return c.account, nil
}
