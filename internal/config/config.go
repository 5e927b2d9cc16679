package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tdex-network/solana-wallet/internal/core/application"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/internal/infrastructure/ledger"
	solanarpc "github.com/tdex-network/solana-wallet/internal/infrastructure/solana-rpc"
)

const (
	// RPCURLKey is the Solana JSON-RPC endpoint used for queries and broadcast
	RPCURLKey = "RPC_URL"
	// CommitmentKey is the confirmation level of rpc queries, one of
	// processed|confirmed|finalized
	CommitmentKey = "COMMITMENT"
	// TransferMaxFeeKey is the fee in lamports that token transfers must stay
	// below. Zero or unset means no ceiling.
	TransferMaxFeeKey = "TRANSFER_MAX_FEE"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// RPCRequestsPerSecondKey caps the rate of rpc requests, zero means no
	// limit
	RPCRequestsPerSecondKey = "RPC_REQUESTS_PER_SECOND"
	// EnableMetricsKey registers the rpc metrics on the default prometheus
	// registry
	EnableMetricsKey = "ENABLE_METRICS"
	// SignerTypeKey selects the signer backend, one of seed|ledger
	SignerTypeKey = "SIGNER_TYPE"
	// MnemonicKey is the bip39 mnemonic of the seed signer
	MnemonicKey = "MNEMONIC"
	// AccountPathKey is the derivation path of the account, relative to
	// m/44'/501'
	AccountPathKey = "ACCOUNT_PATH"
	// DeviceDiscoveryTimeoutKey bounds the search for a hardware wallet
	DeviceDiscoveryTimeoutKey = "DEVICE_DISCOVERY_TIMEOUT"
	// DevicePollIntervalKey is the period at which usb devices are enumerated
	// during discovery
	DevicePollIntervalKey = "DEVICE_POLL_INTERVAL"

	defaultRPCURL = "https://api.mainnet-beta.solana.com"
)

var vip *viper.Viper

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SOLANA_WALLET")
	vip.AutomaticEnv()

	vip.SetDefault(RPCURLKey, defaultRPCURL)
	vip.SetDefault(CommitmentKey, string(ports.CommitmentConfirmed))
	vip.SetDefault(TransferMaxFeeKey, 0)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(RPCRequestsPerSecondKey, 0)
	vip.SetDefault(EnableMetricsKey, false)
	vip.SetDefault(SignerTypeKey, application.SignerTypeSeed)
	vip.SetDefault(AccountPathKey, application.DefaultAccountPath)
	vip.SetDefault(DeviceDiscoveryTimeoutKey, 2*time.Minute)
	vip.SetDefault(DevicePollIntervalKey, 500*time.Millisecond)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	log.SetLevel(log.Level(GetInt(LogLevelKey)))
	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetWalletConfig returns the options shared by signers and accounts.
func GetWalletConfig() ports.WalletConfig {
	cfg := ports.WalletConfig{
		RPCURL:     GetString(RPCURLKey),
		Commitment: ports.Commitment(GetString(CommitmentKey)),
	}
	if maxFee := GetUint64(TransferMaxFeeKey); maxFee > 0 {
		cfg.TransferMaxFee = &maxFee
	}
	return cfg
}

// NewApplicationConfig composes the application services out of the
// current configuration.
func NewApplicationConfig() (*application.Config, error) {
	walletConfig := GetWalletConfig()

	var registerer prometheus.Registerer
	if GetBool(EnableMetricsKey) {
		registerer = prometheus.DefaultRegisterer
	}
	rpcClient, err := solanarpc.NewService(solanarpc.ServiceOpts{
		RPCURL:            walletConfig.RPCURL,
		RequestsPerSecond: GetInt(RPCRequestsPerSecondKey),
		Registerer:        registerer,
	})
	if err != nil {
		return nil, err
	}

	pollInterval := GetDuration(DevicePollIntervalKey)
	cfg := &application.Config{
		WalletConfig:     walletConfig,
		SignerType:       GetString(SignerTypeKey),
		Mnemonic:         GetString(MnemonicKey),
		AccountPath:      GetString(AccountPathKey),
		DiscoveryTimeout: GetDuration(DeviceDiscoveryTimeoutKey),
		RPCClient:        rpcClient,
		NewDeviceManager: func() (ports.DeviceManager, error) {
			return ledger.NewDeviceManager(ledger.DeviceManagerOpts{
				PollInterval: pollInterval,
			})
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate() error {
	if len(strings.TrimSpace(GetString(RPCURLKey))) <= 0 {
		return fmt.Errorf("missing rpc url")
	}

	commitment := ports.Commitment(GetString(CommitmentKey))
	if err := commitment.Validate(); err != nil {
		return err
	}

	if GetInt(RPCRequestsPerSecondKey) < 0 {
		return fmt.Errorf("%s must not be negative", RPCRequestsPerSecondKey)
	}

	signerType := GetString(SignerTypeKey)
	if _, ok := application.SupportedSignerType[signerType]; !ok {
		return fmt.Errorf(
			"unknown signer type %q, must be one of %s|%s",
			signerType, application.SignerTypeSeed, application.SignerTypeLedger,
		)
	}
	if signerType == application.SignerTypeSeed &&
		len(strings.TrimSpace(GetString(MnemonicKey))) <= 0 {
		return fmt.Errorf("missing mnemonic for seed signer")
	}

	if GetDuration(DeviceDiscoveryTimeoutKey) < 0 {
		return fmt.Errorf("%s must not be negative", DeviceDiscoveryTimeoutKey)
	}
	return nil
}
