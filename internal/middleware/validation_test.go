package middleware

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPFValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("cpf", validCPF))

	assert.NoError(t, v.Var("529.982.247-25", "cpf"))
	assert.NoError(t, v.Var("52998224725", "cpf"))

	// Wrong check digit.
	assert.Error(t, v.Var("529.982.247-26", "cpf"))
	// Repeated digits pass the check-digit math but are not real CPFs.
	assert.Error(t, v.Var("111.111.111-11", "cpf"))
	assert.Error(t, v.Var("1234", "cpf"))
}

func TestCNSValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("cns", validCNS))

	assert.NoError(t, v.Var("700123456789012", "cns"))
	assert.NoError(t, v.Var("700 1234 5678 9012", "cns"))
	assert.Error(t, v.Var("12345", "cns"))
	assert.Error(t, v.Var("7001234567890123", "cns"))
}
