package wallet

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateFee(t *testing.T) {
	lifetime := Lifetime{Blockhash: testBlockhash}

	t.Run("should charge the base fee per signature", func(t *testing.T) {
		msg := newTestNativeTransfer(t)
		require.NoError(t, BindLifetimeAndPayer(msg, lifetime, testSender))
		tx, err := msg.Compile()
		require.NoError(t, err)

		fee, err := EstimateFee(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(LamportsPerSignature), fee)

		again, err := EstimateFee(tx)
		require.NoError(t, err)
		assert.Equal(t, fee, again)
	})

	t.Run("should add the prioritization fee", func(t *testing.T) {
		tests := []struct {
			price    uint64
			limit    *uint32
			expected uint64
		}{
			// 1000 micro-lamports * 200000 CU (default for one instruction)
			{1000, nil, LamportsPerSignature + 200},
			{1000, uint32Ptr(300000), LamportsPerSignature + 300},
			// rounded up
			{1, uint32Ptr(1), LamportsPerSignature + 1},
			{0, uint32Ptr(300000), LamportsPerSignature},
		}
		for _, tt := range tests {
			msg := newTestNativeTransfer(t)
			instructions := []solana.Instruction{computeUnitPriceIx(tt.price)}
			if tt.limit != nil {
				instructions = append(instructions, computeUnitLimitIx(*tt.limit))
			}
			msg.Instructions = append(instructions, msg.Instructions...)
			require.NoError(t, BindLifetimeAndPayer(msg, lifetime, testSender))
			tx, err := msg.Compile()
			require.NoError(t, err)

			fee, err := EstimateFee(tx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fee)
		}
	})

	t.Run("should fail with null transaction", func(t *testing.T) {
		_, err := EstimateFee(nil)
		assert.ErrorIs(t, err, ErrNullTransaction)
	})
}

func TestPrioritizationFee(t *testing.T) {
	tests := []struct {
		price    uint64
		limit    uint64
		expected uint64
	}{
		{0, DefaultComputeUnitLimit, 0},
		{1000, 0, 0},
		{1000, DefaultComputeUnitLimit, 200},
		{1, 999_999, 1},
		{1, 1_000_001, 2},
		{math.MaxUint64, MaxComputeUnitLimit, math.MaxUint64},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PrioritizationFee(tt.price, tt.limit))
	}
}

func computeUnitPriceIx(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = computeBudgetSetPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

func computeUnitLimitIx(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = computeBudgetSetLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

func uint32Ptr(v uint32) *uint32 {
	return &v
}
