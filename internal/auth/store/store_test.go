package store_test

import (
	"testing"

	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a@b.com", "a@b.com"},
		{"  A@B.com ", "a@b.com"},
		{"\tUser.Name+tag@Example.ORG\n", "user.name+tag@example.org"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, store.NormalizeEmail(tt.in))
		})
	}
}
