package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/model"
)

type memTxKey struct{}

// memTx journals how to undo every write made in the unit.
type memTx struct {
	owner *Memory
	undo  []func()
}

func (tx *memTx) onUndo(f func()) {
	if tx != nil {
		tx.undo = append(tx.undo, f)
	}
}

// Memory keeps the whole ledger in process. A unit holds the write lock from
// start to commit, so units are serialized. Ids handed out by an aborted unit
// are not reused.
type Memory struct {
	mu  sync.RWMutex
	now func() time.Time

	events       map[uint64]model.Event
	areas        map[uint64][]model.Area
	nextEventID  uint64
	tickets      map[uint64]model.Ticket
	nextTicketID uint64
	payouts      []model.Payout
	balances     map[string]uint64
	feed         []model.Notification
}

func NewMemory() *Memory {
	return &Memory{
		now:          time.Now,
		events:       map[uint64]model.Event{},
		areas:        map[uint64][]model.Area{},
		nextEventID:  1,
		tickets:      map[uint64]model.Ticket{},
		nextTicketID: 1,
		balances:     map[string]uint64{},
	}
}

func (m *Memory) txFrom(ctx context.Context) *memTx {
	tx, ok := ctx.Value(memTxKey{}).(*memTx)
	if !ok || tx.owner != m {
		return nil
	}
	return tx
}

// WithTx runs fn as one unit. A nested call joins the enclosing unit.
func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.txFrom(ctx) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{owner: m}
	defer func() {
		r := recover()
		if err != nil || r != nil {
			for i := len(tx.undo) - 1; i >= 0; i-- {
				tx.undo[i]()
			}
		}
		if r != nil {
			panic(r)
		}
	}()

	return fn(context.WithValue(ctx, memTxKey{}, tx))
}

func (m *Memory) write(ctx context.Context) (*memTx, func()) {
	if tx := m.txFrom(ctx); tx != nil {
		return tx, func() {}
	}
	m.mu.Lock()
	return nil, m.mu.Unlock
}

func (m *Memory) read(ctx context.Context) func() {
	if m.txFrom(ctx) != nil {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

func (m *Memory) CreateEvent(ctx context.Context, e model.Event, areas []model.Area) (uint64, error) {
	tx, unlock := m.write(ctx)
	defer unlock()

	id := m.nextEventID
	m.nextEventID++

	e.EventID = id
	stored := make([]model.Area, len(areas))
	for i, a := range areas {
		a.EventID = id
		a.AreaID = uint64(i + 1)
		stored[i] = a
	}
	e.TotalAreas = uint64(len(stored))

	m.events[id] = e
	m.areas[id] = stored
	tx.onUndo(func() {
		delete(m.events, id)
		delete(m.areas, id)
	})
	return id, nil
}

func (m *Memory) NextEventID(ctx context.Context) (uint64, error) {
	defer m.read(ctx)()
	return m.nextEventID, nil
}

func (m *Memory) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	defer m.read(ctx)()
	e, ok := m.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %d: %w", eventID, ledger.ErrNotFound)
	}
	return e, nil
}

func (m *Memory) area(eventID, areaID uint64) (*model.Area, error) {
	areas, ok := m.areas[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, ledger.ErrNotFound)
	}
	if areaID < 1 || areaID > uint64(len(areas)) {
		return nil, fmt.Errorf("area %d of event %d: %w", areaID, eventID, ledger.ErrNotFound)
	}
	return &areas[areaID-1], nil
}

func (m *Memory) GetArea(ctx context.Context, eventID, areaID uint64) (model.Area, error) {
	defer m.read(ctx)()
	a, err := m.area(eventID, areaID)
	if err != nil {
		return model.Area{}, err
	}
	return *a, nil
}

func (m *Memory) Areas(ctx context.Context, eventID uint64) ([]model.Area, error) {
	defer m.read(ctx)()
	areas, ok := m.areas[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, ledger.ErrNotFound)
	}
	out := make([]model.Area, len(areas))
	copy(out, areas)
	return out, nil
}

func (m *Memory) AddSoldTickets(ctx context.Context, eventID, areaID, n uint64) error {
	tx, unlock := m.write(ctx)
	defer unlock()

	a, err := m.area(eventID, areaID)
	if err != nil {
		return err
	}
	if a.SoldTickets > a.Quota || n > a.Quota-a.SoldTickets {
		return fmt.Errorf("area %d of event %d: %d requested, %d of %d sold: %w",
			areaID, eventID, n, a.SoldTickets, a.Quota, ledger.ErrQuotaExceeded)
	}

	a.SoldTickets += n
	tx.onUndo(func() {
		if a, err := m.area(eventID, areaID); err == nil {
			a.SoldTickets -= n
		}
	})
	return nil
}

func (m *Memory) CreateTicket(ctx context.Context, t model.Ticket) (uint64, error) {
	tx, unlock := m.write(ctx)
	defer unlock()

	id := m.nextTicketID
	m.nextTicketID++

	t.TicketID = id
	m.tickets[id] = t
	tx.onUndo(func() { delete(m.tickets, id) })
	return id, nil
}

func (m *Memory) GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	defer m.read(ctx)()
	t, ok := m.tickets[ticketID]
	if !ok {
		return model.Ticket{}, fmt.Errorf("ticket %d: %w", ticketID, ledger.ErrNotFound)
	}
	return t, nil
}

func (m *Memory) UpdateTicket(ctx context.Context, t model.Ticket) error {
	tx, unlock := m.write(ctx)
	defer unlock()

	prev, ok := m.tickets[t.TicketID]
	if !ok {
		return fmt.Errorf("ticket %d: %w", t.TicketID, ledger.ErrNotFound)
	}
	m.tickets[t.TicketID] = t
	tx.onUndo(func() { m.tickets[prev.TicketID] = prev })
	return nil
}

func (m *Memory) CreditPayout(ctx context.Context, p model.Payout) (uint64, error) {
	tx, unlock := m.write(ctx)
	defer unlock()

	before, ok := m.balances[p.Recipient]
	after := before + p.Amount
	if after < before {
		return 0, fmt.Errorf("balance of %s overflows", p.Recipient)
	}

	p.PayoutID = uint64(len(m.payouts) + 1)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now().UTC()
	}
	m.payouts = append(m.payouts, p)
	m.balances[p.Recipient] = after

	tx.onUndo(func() {
		m.payouts = m.payouts[:len(m.payouts)-1]
		if ok {
			m.balances[p.Recipient] = before
		} else {
			delete(m.balances, p.Recipient)
		}
	})
	return p.PayoutID, nil
}

func (m *Memory) Balance(ctx context.Context, principal string) (uint64, error) {
	defer m.read(ctx)()
	return m.balances[principal], nil
}

func (m *Memory) AppendNotification(ctx context.Context, n model.Notification) (uint64, error) {
	tx, unlock := m.write(ctx)
	defer unlock()

	n.Seq = uint64(len(m.feed) + 1)
	n.Published = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now().UTC()
	}
	m.feed = append(m.feed, n)
	tx.onUndo(func() { m.feed = m.feed[:len(m.feed)-1] })
	return n.Seq, nil
}

func (m *Memory) Notifications(ctx context.Context, afterSeq uint64, limit int) ([]model.Notification, error) {
	defer m.read(ctx)()
	if afterSeq >= uint64(len(m.feed)) || limit <= 0 {
		return []model.Notification{}, nil
	}
	rest := m.feed[afterSeq:]
	if len(rest) > limit {
		rest = rest[:limit]
	}
	out := make([]model.Notification, len(rest))
	copy(out, rest)
	return out, nil
}

func (m *Memory) UnpublishedNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	defer m.read(ctx)()
	var out []model.Notification
	for _, n := range m.feed {
		if len(out) == limit {
			break
		}
		if !n.Published {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Memory) MarkNotificationsPublished(ctx context.Context, seqs []uint64) error {
	tx, unlock := m.write(ctx)
	defer unlock()

	for _, seq := range seqs {
		if seq < 1 || seq > uint64(len(m.feed)) {
			return fmt.Errorf("notification %d: %w", seq, ledger.ErrNotFound)
		}
		i := seq - 1
		if m.feed[i].Published {
			continue
		}
		m.feed[i].Published = true
		tx.onUndo(func() { m.feed[i].Published = false })
	}
	return nil
}

func (m *Memory) UnsettledPayouts(ctx context.Context, limit int) ([]model.Payout, error) {
	defer m.read(ctx)()
	var out []model.Payout
	for _, p := range m.payouts {
		if len(out) == limit {
			break
		}
		if p.SettlementTxID == "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// MarkPayoutPending records a payment sent for payoutID before its outcome is known.
func (m *Memory) MarkPayoutPending(ctx context.Context, payoutID uint64, txID string, until uint64) error {
	tx, unlock := m.write(ctx)
	defer unlock()

	if payoutID < 1 || payoutID > uint64(len(m.payouts)) {
		return fmt.Errorf("payout %d: %w", payoutID, ledger.ErrNotFound)
	}
	i := payoutID - 1
	prevTxID, prevUntil := m.payouts[i].PendingTxID, m.payouts[i].PendingUntil
	m.payouts[i].PendingTxID = txID
	m.payouts[i].PendingUntil = until
	tx.onUndo(func() {
		m.payouts[i].PendingTxID = prevTxID
		m.payouts[i].PendingUntil = prevUntil
	})
	return nil
}

func (m *Memory) MarkPayoutSettled(ctx context.Context, payoutID uint64, txID string) error {
	tx, unlock := m.write(ctx)
	defer unlock()

	if payoutID < 1 || payoutID > uint64(len(m.payouts)) {
		return fmt.Errorf("payout %d: %w", payoutID, ledger.ErrNotFound)
	}
	i := payoutID - 1
	prev := m.payouts[i].SettlementTxID
	m.payouts[i].SettlementTxID = txID
	tx.onUndo(func() { m.payouts[i].SettlementTxID = prev })
	return nil
}
