package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhone("010-1234-5678"))
	assert.Equal(t, "01012345678", NormalizePhone("010 1234 5678"))
	assert.Equal(t, "01012345678", NormalizePhone("01012345678"))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01012345678", "010****5678"},
		{"010-1234-5678", "010****5678"},
		{"0101235678", "010***5678"},
		{"1234567", "*******"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPhone(tt.in), "input %q", tt.in)
	}
}
