package signer

import (
	"strings"

	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// resolvePath returns the absolute path for the given one. Relative paths
// are appended to prefix, absolute ones ("m/...") are taken as they are.
// Bare numeric segments are hardened since ed25519 only supports hardened
// derivation.
func resolvePath(
	prefix wallet.DerivationPath, path string,
) (wallet.DerivationPath, error) {
	path = wallet.HardenDerivationPath(strings.TrimSpace(path))
	parsed, err := wallet.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(path, "m") {
		return parsed, nil
	}
	return prefix.Extend(parsed), nil
}

func accountIndex(path wallet.DerivationPath) int {
	index, err := path.AccountIndex()
	if err != nil {
		return -1
	}
	return int(index)
}
