package algorand

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/client/algod"
	"github.com/algorand/go-algorand-sdk/client/algod/models"
	"github.com/algorand/go-algorand-sdk/crypto"
	"github.com/algorand/go-algorand-sdk/mnemonic"
	"github.com/algorand/go-algorand-sdk/transaction"
	"github.com/algorand/go-algorand-sdk/types"

	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/model"
)

const (
	validRounds = 1000
	// maxConfirmationRounds bounds how long Send waits for a payment to land.
	maxConfirmationRounds = 10
)

// Account is a signing account. Only the treasury holds one.
type Account struct {
	AccountAddress     string
	PrivateKey         string
	SecurityPassphrase string
}

// Settler pays credited payouts out of the treasury. A payment is signed
// first so its id can be recorded before it is sent; Lookup then tells a late
// confirmation apart from a payment that can be made again.
type Settler interface {
	Sign(ctx context.Context, p model.Payout) (model.SignedPayment, error)
	// Send broadcasts s and waits a bounded number of rounds for it to confirm.
	Send(ctx context.Context, s model.SignedPayment) error
	Lookup(ctx context.Context, txID string, lastValid uint64) (model.PaymentState, error)
}

// node is the part of the algod client the settler uses.
type node interface {
	SuggestedParams(headers ...*algod.Header) (models.TransactionParams, error)
	SendRawTransaction(stx []byte, headers ...*algod.Header) (models.TransactionID, error)
	PendingTransactionInformation(transactionID string, headers ...*algod.Header) (models.Transaction, error)
	TransactionInformation(accountAddr, transactionID string, headers ...*algod.Header) (models.Transaction, error)
	Status(headers ...*algod.Header) (models.NodeStatus, error)
	StatusAfterBlock(blockNum uint64, headers ...*algod.Header) (models.NodeStatus, error)
}

type algo struct {
	treasury *Account
	client   node
	minFee   uint64
}

// New connects to an algod node. Payout amounts are paid as microAlgos.
func New(treasury *Account, apiAddress, apiKey string, minFee uint64) (Settler, error) {
	if treasury == nil {
		return nil, fmt.Errorf("new: treasury account is required")
	}
	if err := ValidateAddress(treasury.AccountAddress); err != nil {
		return nil, fmt.Errorf("new: treasury: %w", err)
	}

	var headers []*algod.Header
	headers = append(headers, &algod.Header{Key: "X-API-Key", Value: apiKey})
	client, err := algod.MakeClientWithHeaders(apiAddress, "", headers)
	if err != nil {
		return nil, fmt.Errorf("new: error connecting to algo: %w", err)
	}

	return &algo{treasury: treasury, client: client, minFee: minFee}, nil
}

// ValidateAddress rejects principals that are not checksummed Algorand
// addresses. It is the account check of payout recipients.
func ValidateAddress(principal string) error {
	if _, err := types.DecodeAddress(principal); err != nil {
		return fmt.Errorf("validateAddress: %q is not an algorand address: %w", principal, err)
	}
	return nil
}

func (a *algo) Sign(ctx context.Context, p model.Payout) (model.SignedPayment, error) {
	txParams, err := a.client.SuggestedParams()
	if err != nil {
		return model.SignedPayment{}, fmt.Errorf("sign: error getting suggested tx params: %w", err)
	}

	txn, err := paymentTxn(txParams, a.treasury.AccountAddress, a.minFee, p)
	if err != nil {
		return model.SignedPayment{}, fmt.Errorf("sign: error creating transaction: %w", err)
	}

	privateKey, err := mnemonic.ToPrivateKey(a.treasury.SecurityPassphrase)
	if err != nil {
		return model.SignedPayment{}, fmt.Errorf("sign: error getting private key from mnemonic: %w", err)
	}

	txID, bytes, err := crypto.SignTransaction(privateKey, txn)
	if err != nil {
		return model.SignedPayment{}, fmt.Errorf("sign: failed to sign transaction: %w", err)
	}
	logger.Debugf(ctx, "sign: signed txid %s for payout %d", txID, p.PayoutID)

	return model.SignedPayment{
		PayoutID:  p.PayoutID,
		TxID:      txID,
		LastValid: uint64(txn.LastValid),
		Raw:       bytes,
	}, nil
}

func (a *algo) Send(ctx context.Context, s model.SignedPayment) error {
	txHeaders := append([]*algod.Header{}, &algod.Header{Key: "Content-Type", Value: "application/x-binary"})
	if _, err := a.client.SendRawTransaction(s.Raw, txHeaders...); err != nil {
		return fmt.Errorf("send: failed to send transaction %s: %w", s.TxID, err)
	}

	if err := a.waitForConfirmation(ctx, s.TxID); err != nil {
		return fmt.Errorf("send: payout %d: %w", s.PayoutID, err)
	}

	logger.Infof(ctx, "send: payout %d confirmed in %s", s.PayoutID, s.TxID)
	return nil
}

// Lookup reports PaymentDropped only once txID can no longer confirm: the
// pool rejected it, or its last valid round passed without it on chain.
func (a *algo) Lookup(ctx context.Context, txID string, lastValid uint64) (model.PaymentState, error) {
	pt, err := a.client.PendingTransactionInformation(txID)
	if err == nil {
		if pt.ConfirmedRound > 0 {
			return model.PaymentConfirmed, nil
		}
		if pt.PoolError != "" {
			logger.Warnf(ctx, "lookup: transaction %s left the pool: %s", txID, pt.PoolError)
			return model.PaymentDropped, nil
		}
	}

	nodeStatus, err := a.client.Status()
	if err != nil {
		return model.PaymentPending, fmt.Errorf("lookup: error getting algod status: %w", err)
	}
	if nodeStatus.LastRound <= lastValid {
		return model.PaymentPending, nil
	}

	tx, err := a.client.TransactionInformation(a.treasury.AccountAddress, txID)
	if err != nil {
		if isNotFound(err) {
			return model.PaymentDropped, nil
		}
		return model.PaymentPending, fmt.Errorf("lookup: transaction %s: %w", txID, err)
	}
	if tx.ConfirmedRound > 0 {
		return model.PaymentConfirmed, nil
	}
	return model.PaymentDropped, nil
}

// isNotFound matches the status line algod puts in its error responses.
func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "404")
}

func paymentTxn(params models.TransactionParams, from string, fee uint64, p model.Payout) (types.Transaction, error) {
	note := []byte(fmt.Sprintf("payout %d: %s share of ticket %d", p.PayoutID, p.Kind, p.TicketID))
	firstValidRound := params.LastRound
	lastValidRound := firstValidRound + validRounds

	txn, err := transaction.MakePaymentTxnWithFlatFee(from, p.Recipient, fee, p.Amount, firstValidRound, lastValidRound,
		note, "", params.GenesisID, params.GenesisHash)
	if err != nil {
		return types.Transaction{}, err
	}
	// two payments of one payout can not both confirm while their rounds overlap
	txn.Lease = payoutLease(p.PayoutID)
	return txn, nil
}

func payoutLease(payoutID uint64) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("payout:%d", payoutID)))
}

func (a *algo) waitForConfirmation(ctx context.Context, txID string) error {
	for i := 0; i < maxConfirmationRounds; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pt, err := a.client.PendingTransactionInformation(txID)
		if err != nil {
			logger.Infof(ctx, "waiting for confirmation... (pool error, if any): %s", err)
		} else if pt.ConfirmedRound > 0 {
			logger.Debugf(ctx, "transaction %s confirmed in round %d", pt.TxID, pt.ConfirmedRound)
			return nil
		}

		nodeStatus, err := a.client.Status()
		if err != nil {
			return fmt.Errorf("waitForConfirmation: error getting algod status: %w", err)
		}
		if _, err := a.client.StatusAfterBlock(nodeStatus.LastRound + 1); err != nil {
			return fmt.Errorf("waitForConfirmation: %w", err)
		}
	}
	return fmt.Errorf("waitForConfirmation: transaction %s not confirmed after %d rounds", txID, maxConfirmationRounds)
}
