package relay

import (
	"context"
	"fmt"
	"time"

	c "ticket-marketplace-backend/context"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/model"
)

// Outbox is the part of the ledger store the relay drains.
type Outbox interface {
	Notifications(ctx context.Context, afterSeq uint64, limit int) ([]model.Notification, error)
	UnpublishedNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationsPublished(ctx context.Context, seqs []uint64) error
	UnsettledPayouts(ctx context.Context, limit int) ([]model.Payout, error)
	MarkPayoutPending(ctx context.Context, payoutID uint64, txID string, until uint64) error
	MarkPayoutSettled(ctx context.Context, payoutID uint64, txID string) error
	GetArea(ctx context.Context, eventID, areaID uint64) (model.Area, error)
}

type Publisher interface {
	Publish(ctx context.Context, ns []model.Notification) error
}

type Settler interface {
	Sign(ctx context.Context, p model.Payout) (model.SignedPayment, error)
	Send(ctx context.Context, s model.SignedPayment) error
	Lookup(ctx context.Context, txID string, lastValid uint64) (model.PaymentState, error)
}

type AreaMirror interface {
	SetArea(a model.Area) error
}

// Worker moves committed ledger facts to the outside world. Any of the
// publisher, settler and mirror may be nil, in which case that stage is skipped.
type Worker struct {
	outbox    Outbox
	publisher Publisher
	settler   Settler
	mirror    AreaMirror
	interval  time.Duration
	batch     int

	// mirrored is the last seq the mirror has seen. It restarts at zero, so
	// the mirror is rebuilt from the whole log on start.
	mirrored uint64
}

func New(outbox Outbox, publisher Publisher, settler Settler, mirror AreaMirror, interval time.Duration, batch int) *Worker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &Worker{
		outbox:    outbox,
		publisher: publisher,
		settler:   settler,
		mirror:    mirror,
		interval:  interval,
		batch:     batch,
	}
}

// Run drains the outbox every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Infof(ctx, "relay started with %v interval", w.interval)
	for {
		select {
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				logger.Errorf(ctx, "relay: %v", err)
			}
		case <-ctx.Done():
			logger.Infof(ctx, "relay stopped")
			return
		}
	}
}

// RunOnce relays one batch of notifications and one batch of payouts.
func (w *Worker) RunOnce(ctx context.Context) error {
	ctx = c.SetContextWithValue(ctx, c.ContextKeyCorrelationID, fmt.Sprintf("relay-%d", time.Now().UnixNano()))

	if err := w.mirrorAreas(ctx); err != nil {
		logger.Warnf(ctx, "relay: %v", err)
	}
	if err := w.relayNotifications(ctx); err != nil {
		return err
	}
	return w.settlePayouts(ctx)
}

// mirrorAreas follows the log on its own cursor. Only a publisher marks
// notifications published.
func (w *Worker) mirrorAreas(ctx context.Context) error {
	if w.mirror == nil {
		return nil
	}

	ns, err := w.outbox.Notifications(ctx, w.mirrored, w.batch)
	if err != nil {
		return fmt.Errorf("mirrorAreas: unable to read log: %w", err)
	}
	if len(ns) == 0 {
		return nil
	}

	w.refreshMirror(ctx, ns)
	w.mirrored = ns[len(ns)-1].Seq
	return nil
}

func (w *Worker) relayNotifications(ctx context.Context) error {
	if w.publisher == nil {
		return nil
	}

	ns, err := w.outbox.UnpublishedNotifications(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("relayNotifications: unable to read outbox: %w", err)
	}
	if len(ns) == 0 {
		return nil
	}

	if err := w.publisher.Publish(ctx, ns); err != nil {
		return fmt.Errorf("relayNotifications: %w", err)
	}

	seqs := make([]uint64, len(ns))
	for i, n := range ns {
		seqs[i] = n.Seq
	}
	if err := w.outbox.MarkNotificationsPublished(ctx, seqs); err != nil {
		return fmt.Errorf("relayNotifications: unable to mark published: %w", err)
	}
	logger.Infof(ctx, "relayed %d notification(s) up to seq %d", len(ns), seqs[len(seqs)-1])
	return nil
}

// refreshMirror copies the current sold count of every area a sale in ns
// touched. Failures are logged only; the mirror is never authoritative.
func (w *Worker) refreshMirror(ctx context.Context, ns []model.Notification) {
	type areaKey struct{ eventID, areaID uint64 }
	seen := map[areaKey]bool{}

	for _, n := range ns {
		k := areaKey{n.EventID, n.AreaID}
		if n.Kind != model.NotificationBought || seen[k] {
			continue
		}
		seen[k] = true

		area, err := w.outbox.GetArea(ctx, n.EventID, n.AreaID)
		if err != nil {
			logger.Warnf(ctx, "relay: unable to read area %d of event %d: %v", n.AreaID, n.EventID, err)
			continue
		}
		if err := w.mirror.SetArea(area); err != nil {
			logger.Warnf(ctx, "relay: %v", err)
		}
	}
}

// settlePayouts stops at the first failed payout so payouts settle in order.
func (w *Worker) settlePayouts(ctx context.Context) error {
	if w.settler == nil {
		return nil
	}

	payouts, err := w.outbox.UnsettledPayouts(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("settlePayouts: unable to read outbox: %w", err)
	}

	for _, p := range payouts {
		txID, err := w.settle(ctx, p)
		if err != nil {
			return fmt.Errorf("settlePayouts: payout %d: %w", p.PayoutID, err)
		}
		if err := w.outbox.MarkPayoutSettled(ctx, p.PayoutID, txID); err != nil {
			return fmt.Errorf("settlePayouts: payout %d settled in %s but not recorded: %w", p.PayoutID, txID, err)
		}
		logger.WithFields(ctx, map[string]interface{}{
			"payout_id": p.PayoutID,
			"recipient": p.Recipient,
			"amount":    p.Amount,
			"tx_id":     txID,
		}).Info("payout settled")
	}
	return nil
}

// settle pays p at most once. A payment is recorded as pending before it is
// sent, and a pending payment is only replaced once it can no longer confirm.
func (w *Worker) settle(ctx context.Context, p model.Payout) (string, error) {
	if p.PendingTxID != "" {
		state, err := w.settler.Lookup(ctx, p.PendingTxID, p.PendingUntil)
		if err != nil {
			return "", err
		}
		switch state {
		case model.PaymentConfirmed:
			return p.PendingTxID, nil
		case model.PaymentPending:
			return "", fmt.Errorf("payment %s is not confirmed yet", p.PendingTxID)
		}
		logger.Warnf(ctx, "relay: payment %s of payout %d was dropped, paying again", p.PendingTxID, p.PayoutID)
	}

	signed, err := w.settler.Sign(ctx, p)
	if err != nil {
		return "", err
	}
	if err := w.outbox.MarkPayoutPending(ctx, p.PayoutID, signed.TxID, signed.LastValid); err != nil {
		return "", fmt.Errorf("unable to record payment %s: %w", signed.TxID, err)
	}
	if err := w.settler.Send(ctx, signed); err != nil {
		return "", err
	}
	return signed.TxID, nil
}
