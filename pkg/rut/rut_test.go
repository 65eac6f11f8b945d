package rut_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/maxigas/pkg/rut"
)

func TestValidate_RutsValidos(t *testing.T) {
	for _, r := range []string{"11.111.111-1", "22.222.222-2", "11111111-1", "12.345.678-5", "10.000.013-k"} {
		assert.NoError(t, rut.Validate(r), r)
	}
}

func TestValidate_RutsInvalidos(t *testing.T) {
	for _, r := range []string{"11.111.111-2", "1234567", "", "1a.111.111-1", "12.345.678-K"} {
		assert.Error(t, rut.Validate(r), r)
	}
}

func TestComputeVerifier(t *testing.T) {
	dv, err := rut.ComputeVerifier("12345678")
	require.NoError(t, err)
	assert.Equal(t, byte('5'), dv)

	dv, err = rut.ComputeVerifier("10000013")
	require.NoError(t, err)
	assert.Equal(t, byte('K'), dv)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "11.111.111-1", rut.Format("111111111"))
	assert.Equal(t, "1.234.567-4", rut.Format("1234567-4"))
	assert.Equal(t, "10.000.013-K", rut.Format("10000013k"))
	assert.Equal(t, "", rut.Format(""))
}
