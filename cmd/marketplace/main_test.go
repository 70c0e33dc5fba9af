package main

import (
	"context"
	"testing"

	"github.com/algorand/go-algorand-sdk/crypto"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-marketplace-backend/config"
)

func TestAccountCheck(t *testing.T) {
	address := crypto.GenerateAccount().Address.String()

	tests := []struct {
		name      string
		settle    bool
		validate  bool
		wantCheck bool
	}{
		{"default", false, false, false},
		{"validation only", false, true, true},
		{"settlement turns validation on", true, false, true},
		{"both", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set(config.AlgorandEnabled, tt.settle)
			viper.Set(config.ValidateAddress, tt.validate)
			t.Cleanup(func() {
				viper.Set(config.AlgorandEnabled, false)
				viper.Set(config.ValidateAddress, false)
			})

			check := accountCheck(context.Background())
			if !tt.wantCheck {
				assert.Nil(t, check)
				return
			}
			require.NotNil(t, check)
			assert.Error(t, check("alice"))
			assert.NoError(t, check(address))
		})
	}
}
