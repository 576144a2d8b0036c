package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid password", "Str0ng!pass", nil},
		{"too short", "Ab1!xyz", ErrPasswordTooShort},
		{"no uppercase", "weakpass1!", ErrPasswordPolicy},
		{"no lowercase", "WEAKPASS1!", ErrPasswordPolicy},
		{"no digit", "WeakPass!!", ErrPasswordPolicy},
		{"no special character", "WeakPass11", ErrPasswordPolicy},
		{"empty", "", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
