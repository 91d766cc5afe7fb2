package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "12345678900", DigitsOnly("123.456.789-00"))
	assert.Equal(t, "11987654321", DigitsOnly("(11) 98765-4321"))
	assert.Empty(t, DigitsOnly("abc"))
}

func TestFormatPhone(t *testing.T) {
	tests := map[string]string{
		"11987654321":     "(11) 98765-4321",
		"(11) 98765-4321": "(11) 98765-4321",
		"1132654321":      "(11) 3265-4321",
		"12345":           "12345",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPhone(in), in)
	}
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "123.456.789-00", FormatCPF("12345678900"))
	assert.Equal(t, "123", FormatCPF("1-2-3"))
}

func TestParseUserKind(t *testing.T) {
	kind, ok := ParseUserKind(" Medicos ")
	assert.True(t, ok)
	assert.Equal(t, UserKindDoctors, kind)

	_, ok = ParseUserKind("enfermeiros")
	assert.False(t, ok)
}

func TestPatientRegistration_Normalize(t *testing.T) {
	in := PatientRegistration{
		Nome:     "Ana",
		CPF:      "123.456.789-00",
		Telefone: "(11) 98765-4321",
		Endereco: &Address{CEP: "01310-100", Cidade: "São Paulo"},
	}
	out := in.Normalize()

	assert.Equal(t, "12345678900", out.CPF)
	assert.Equal(t, "11987654321", out.Telefone)
	assert.Equal(t, "01310100", out.Endereco.CEP)
	assert.Equal(t, "01310-100", in.Endereco.CEP, "input address must not be mutated")
}

func TestProfileUpdate_Normalize(t *testing.T) {
	phone := "(21) 3333-4444"
	out := ProfileUpdate{Telefone: &phone}.Normalize()
	assert.Equal(t, "2133334444", *out.Telefone)
	assert.Equal(t, "(21) 3333-4444", phone)
	assert.Nil(t, ProfileUpdate{}.Normalize().Telefone)
}
