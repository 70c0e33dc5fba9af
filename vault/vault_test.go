package vault

import (
	"errors"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogical map[string]*api.Secret

func (f fakeLogical) Read(path string) (*api.Secret, error) {
	if path == "broken" {
		return nil, errors.New("permission denied")
	}
	return f[path], nil
}

func TestReadAccount(t *testing.T) {
	l := fakeLogical{
		"secret/treasury": {Data: map[string]interface{}{
			AccountAddress:     "TREASURY",
			SecurityPassphrase: "empty soul grass",
		}},
		"secret/partial": {Data: map[string]interface{}{AccountAddress: "TREASURY"}},
	}

	a, err := ReadAccount(l, "secret/treasury")
	require.NoError(t, err)
	assert.Equal(t, "TREASURY", a.AccountAddress)
	assert.Equal(t, "empty soul grass", a.SecurityPassphrase)

	_, err = ReadAccount(l, "secret/partial")
	assert.Error(t, err)

	_, err = ReadAccount(l, "secret/missing")
	assert.Error(t, err)

	_, err = ReadAccount(l, "broken")
	assert.Error(t, err)
}
