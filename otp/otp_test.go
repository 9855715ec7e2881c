package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain digits", "15551234567", "+15551234567", false},
		{"already prefixed", "+15551234567", "+15551234567", false},
		{"formatted", "(555) 123-4567 x1", "+55512345671", false},
		{"min length", "1234567890", "+1234567890", false},
		{"max length", "123456789012345", "+123456789012345", false},
		{"too short", "123456789", "", true},
		{"too long", "1234567890123456", "", true},
		{"no digits", "not a phone", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
