package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreetToken(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"Calle Mayor 12, Madrid", "mayor"},
		{"C/ Mayor 12", "mayor"},
		{"c/Mayor 12", "mayor"},
		{"Avenida de América 25, 3ºB", "de america"},
		{"Avda. Diagonal 640", "diagonal"},
		{"Paseo de la Castellana 95, Madrid", "de la castellana"},
		{"Plaza España 4", "espana"},
		{"Gran Vía 31, 28013 Madrid", "gran via"},
		{"Calle Mayor 12 3a", "mayor"},
		{"  calle mayor 12  ", "mayor"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StreetToken(tt.address), "address %q", tt.address)
	}
}

func TestStreetTokenEquivalentForms(t *testing.T) {
	forms := []string{
		"Calle Mayor 12, Madrid",
		"C/ Mayor 12",
		"calle MAYOR 12",
	}
	for _, f := range forms[1:] {
		assert.Equal(t, StreetToken(forms[0]), StreetToken(f), "form %q", f)
	}
}

func TestStreetNumber(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"Calle Mayor 12, Madrid", "12"},
		{"C/ Mayor 12 3a", "12"},
		{"Gran Vía 640", "640"},
		{"Plaza España", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StreetNumber(tt.address), "address %q", tt.address)
	}
}

func TestNormalizeCondition(t *testing.T) {
	assert.Equal(t, "bueno", NormalizeCondition("  BUENO "))
	assert.Equal(t, "a reformar", NormalizeCondition("A Reformar"))
	assert.Equal(t, "segunda mano", NormalizeCondition("Segunda Manó"))
	assert.Equal(t, "", NormalizeCondition(""))
}
