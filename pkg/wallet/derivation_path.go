package wallet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// HardenedKeyStart is the index of the first hardened child key.
	HardenedKeyStart = uint32(0x80000000)
	// MaxHardenedValue is the max value for hardened indexes of derivation paths
	MaxHardenedValue = math.MaxUint32 - HardenedKeyStart

	// PurposeBIP44 ...
	PurposeBIP44 = 44
	// CoinTypeSolana is the SLIP-44 registered coin type of Solana
	CoinTypeSolana = 501

	// accountPosition is the position of the BIP-44 account segment in an
	// absolute path: m / purpose' / coin_type' / account' / change'
	accountPosition = 2
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet account
type DerivationPath []uint32

var (
	// SolanaBaseDerivationPath m/44'/501'
	SolanaBaseDerivationPath = DerivationPath{
		HardenedKeyStart + PurposeBIP44,
		HardenedKeyStart + CoinTypeSolana,
	}
)

// ParseDerivationPath converts a derivation path string to the internal
// binary representation. Both absolute ("m/44'/501'/0'/0'") and relative
// ("0'/0'") forms are accepted, but every segment must be hardened.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	var path DerivationPath

	elems := strings.Split(strPath, "/")
	switch {
	case strings.TrimSpace(strPath) == "":
		return nil, ErrNullDerivationPath
	case containsEmptyString(elems):
		return nil, ErrMalformedDerivationPath
	case strings.TrimSpace(elems[0]) == "m":
		elems = elems[1:]
		if len(elems) <= 0 {
			return nil, ErrMalformedDerivationPath
		}
	}

	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if !strings.HasSuffix(elem, "'") {
			return nil, fmt.Errorf("%w: elem '%s'", ErrUnhardenedDerivationPath, elem)
		}
		elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))

		if !isDecimal(elem) {
			return nil, fmt.Errorf(
				"%w: invalid elem '%s' in path", ErrInvalidDerivationPath, elem,
			)
		}
		val, err := strconv.ParseUint(elem, 10, 32)
		if err != nil || val > uint64(MaxHardenedValue) {
			return nil, fmt.Errorf(
				"%w: elem %s must be in hardened range [0, %d]",
				ErrInvalidDerivationPath, elem, MaxHardenedValue,
			)
		}

		path = append(path, HardenedKeyStart+uint32(val))
	}

	return path, nil
}

// String converts a binary derivation path to its canonical absolute
// representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}
	return "m/" + path.Relative()
}

// Relative converts a binary derivation path to its representation without
// the master key prefix
func (path DerivationPath) Relative() string {
	components := make([]string, 0, len(path))
	for _, component := range path {
		if component >= HardenedKeyStart {
			components = append(
				components, fmt.Sprintf("%d'", component-HardenedKeyStart),
			)
			continue
		}
		components = append(components, fmt.Sprintf("%d", component))
	}
	return strings.Join(components, "/")
}

// AccountIndex returns the BIP-44 account segment of an absolute path. The
// position is fixed and does not depend on the depth of the path.
func (path DerivationPath) AccountIndex() (uint32, error) {
	if len(path) <= accountPosition {
		return 0, ErrMissingAccountSegment
	}
	return path[accountPosition] &^ HardenedKeyStart, nil
}

// Extend returns a new path made of this path followed by the given one.
func (path DerivationPath) Extend(relative DerivationPath) DerivationPath {
	out := make(DerivationPath, 0, len(path)+len(relative))
	out = append(out, path...)
	return append(out, relative...)
}

// JoinDerivationPath concatenates a relative path to the given prefix. The
// prefix is not validated.
func JoinDerivationPath(prefix, relative string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	relative = strings.TrimPrefix(strings.TrimSpace(relative), "/")
	if prefix == "" {
		return relative
	}
	if relative == "" {
		return prefix
	}
	return prefix + "/" + relative
}

// AccountIndex parses the given absolute path and returns its BIP-44
// account segment.
func AccountIndex(strPath string) (uint32, error) {
	path, err := ParseDerivationPath(strPath)
	if err != nil {
		return 0, err
	}
	return path.AccountIndex()
}

// HardenDerivationPath marks every bare numeric segment of the given path as
// hardened. SLIP-10 does not define non-hardened derivation for ed25519, so
// "0'/0" and "0'/0'" address the same key.
func HardenDerivationPath(strPath string) string {
	elems := strings.Split(strPath, "/")
	for i, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" || elem == "m" || strings.HasSuffix(elem, "'") {
			elems[i] = elem
			continue
		}
		elems[i] = elem + "'"
	}
	return strings.Join(elems, "/")
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// isDecimal returns whether elem is a canonical base-10 number, without
// sign, separators or leading zeros.
func isDecimal(elem string) bool {
	if len(elem) <= 0 || (len(elem) > 1 && elem[0] == '0') {
		return false
	}
	for _, c := range elem {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
