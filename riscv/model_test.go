package riscv

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindModel(t *testing.T) {
	assert := assert.New(t)

	model, err := FindModel("riscv")
	assert.NoError(err)
	assert.NotNil(model)

	upper, err := FindModel("RISCV")
	assert.NoError(err)
	assert.Same(model, upper)

	mixed, err := FindModel("RiScV")
	assert.NoError(err)
	assert.Same(model, mixed)
}

func TestFindModel_Unknown(t *testing.T) {
	assert := assert.New(t)

	model, err := FindModel("nope")
	assert.ErrorIs(err, ErrModelUnknown)
	assert.Nil(model)
}

func TestModels(t *testing.T) {
	assert := assert.New(t)

	names := slices.Collect(Models())
	assert.Contains(names, "riscv")
}

func TestModelMisa(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint64(1), MISA_A)
	assert.Equal(uint64(1)<<8, MISA_I)
	assert.Equal(uint64(1)<<12, MISA_M)
	assert.Equal(uint64(1)<<18, MISA_S)
	assert.Equal(uint64(1)<<20, MISA_U)

	model, err := FindModel("riscv")
	assert.NoError(err)

	// RV64G plus supervisor and user modes.
	assert.Equal(MISA_RV64, model.Misa&(MISA_RV32|MISA_RV64))
	for _, bit := range []uint64{MISA_I, MISA_M, MISA_A, MISA_F, MISA_D, MISA_S, MISA_U} {
		assert.Equal(bit, model.Misa&bit)
	}
}
