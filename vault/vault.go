package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"

	"ticket-marketplace-backend/algorand"
)

const (
	AccountAddress     = "account_address"
	SecurityPassphrase = "security_passphrase"
)

// Logical is the part of the vault client the treasury loader reads through.
type Logical interface {
	Read(path string) (*api.Secret, error)
}

type Vault struct {
	TreasuryPath string
	*api.Client
}

func New(token, unsealKey, address, treasuryPath string) (*Vault, error) {
	config := &api.Config{
		Address: address,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("new: error initializing vault: %w", err)
	}

	client.SetToken(token)

	s := client.Sys()
	status, err := s.SealStatus()
	if err != nil {
		return nil, fmt.Errorf("new: error getting seal status: %w", err)
	}

	if status.Sealed {
		unsealResponse, err := s.Unseal(unsealKey)
		if err != nil {
			return nil, fmt.Errorf("new: error getting unseal response: %w", err)
		}
		if unsealResponse.Sealed {
			return nil, fmt.Errorf("new: vault unseal unsuccesfull")
		}
	}

	return &Vault{TreasuryPath: treasuryPath, Client: client}, nil
}

// Treasury reads the account payouts are settled from.
func (v *Vault) Treasury() (*algorand.Account, error) {
	return ReadAccount(v.Logical(), v.TreasuryPath)
}

func ReadAccount(l Logical, path string) (*algorand.Account, error) {
	secret, err := l.Read(path)
	if err != nil {
		return nil, fmt.Errorf("readAccount: unable to read from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("readAccount: no secret at %s", path)
	}

	address, ok := secret.Data[AccountAddress].(string)
	if !ok || address == "" {
		return nil, fmt.Errorf("readAccount: %s is missing %s", path, AccountAddress)
	}
	passphrase, ok := secret.Data[SecurityPassphrase].(string)
	if !ok || passphrase == "" {
		return nil, fmt.Errorf("readAccount: %s is missing %s", path, SecurityPassphrase)
	}

	return &algorand.Account{
		AccountAddress:     address,
		SecurityPassphrase: passphrase,
	}, nil
}
