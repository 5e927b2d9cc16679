package wallet

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

const (
	// LamportsPerSignature is the base fee charged for every required
	// signature of a transaction.
	LamportsPerSignature = 5000
	// DefaultComputeUnitLimit is the compute unit budget allotted to each
	// instruction when the transaction does not request a specific limit.
	DefaultComputeUnitLimit = 200_000
	// MaxComputeUnitLimit is the max compute unit budget of a transaction.
	MaxComputeUnitLimit = 1_400_000

	microLamportsPerLamport = 1_000_000

	computeBudgetSetLimit = 2
	computeBudgetSetPrice = 3
)

// ComputeBudgetProgramID is the address of the native compute budget program
var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58(
	"ComputeBudget111111111111111111111111111111",
)

// EstimateFee returns the fee in lamports the network charges for the given
// compiled transaction: the base fee for every required signature plus the
// prioritization fee requested through compute budget instructions, if any.
func EstimateFee(tx *solana.Transaction) (uint64, error) {
	if tx == nil {
		return 0, ErrNullTransaction
	}

	baseFee := uint64(tx.Message.Header.NumRequiredSignatures) * LamportsPerSignature

	var (
		unitPrice    uint64
		unitLimit    uint64
		hasLimit     bool
		numOfRegular uint64
	)
	for _, ix := range tx.Message.Instructions {
		programIndex := int(ix.ProgramIDIndex)
		if programIndex >= len(tx.Message.AccountKeys) ||
			!tx.Message.AccountKeys[programIndex].Equals(ComputeBudgetProgramID) {
			numOfRegular++
			continue
		}

		data := []byte(ix.Data)
		if len(data) <= 0 {
			continue
		}
		switch data[0] {
		case computeBudgetSetLimit:
			if len(data) >= 5 {
				unitLimit = uint64(binary.LittleEndian.Uint32(data[1:5]))
				hasLimit = true
			}
		case computeBudgetSetPrice:
			if len(data) >= 9 {
				unitPrice = binary.LittleEndian.Uint64(data[1:9])
			}
		}
	}

	if !hasLimit {
		unitLimit = numOfRegular * DefaultComputeUnitLimit
	}
	if unitLimit > MaxComputeUnitLimit {
		unitLimit = MaxComputeUnitLimit
	}

	return addSaturating(baseFee, PrioritizationFee(unitPrice, unitLimit)), nil
}

// PrioritizationFee returns ceil(price * limit / 10^6) in lamports, the
// unit price being expressed in micro-lamports per compute unit.
func PrioritizationFee(unitPrice, unitLimit uint64) uint64 {
	if unitPrice == 0 || unitLimit == 0 {
		return 0
	}
	micro := new(big.Int).Mul(
		new(big.Int).SetUint64(unitPrice), new(big.Int).SetUint64(unitLimit),
	)
	divisor := big.NewInt(microLamportsPerLamport)
	fee, rem := new(big.Int).QuoRem(micro, divisor, new(big.Int))
	if rem.Sign() > 0 {
		fee.Add(fee, big.NewInt(1))
	}
	if !fee.IsUint64() {
		return math.MaxUint64
	}
	return fee.Uint64()
}

func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
