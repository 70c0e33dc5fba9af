package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-marketplace-backend/clock"
	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/model"
	"ticket-marketplace-backend/store"
)

const (
	platform  = "platform"
	organizer = "organizer"
	alice     = "alice"
	bob       = "bob"
)

var (
	now     = time.Date(2029, 12, 1, 12, 0, 0, 0, time.UTC)
	startAt = time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC)
)

func newMarketplace(t *testing.T, opts ...ledger.Option) (*ledger.Marketplace, *store.Memory) {
	t.Helper()

	s := store.NewMemory()
	opts = append([]ledger.Option{ledger.WithClock(clock.NewFixed(now))}, opts...)
	m, err := ledger.New(s, ledger.Config{
		Name:          "Ticket",
		Symbol:        "TK",
		FeePercentage: 1,
		Recipient:     platform,
		Marketplace:   "marketplace",
	}, opts...)
	require.NoError(t, err)
	return m, s
}

// concert has a small VIP area and a large general area; the organizer takes 5% on resale.
func concert() ledger.CreateEventInput {
	return ledger.CreateEventInput{
		Name:                   "Concert",
		StartTime:              startAt,
		Location:               "Arena",
		Organizer:              organizer,
		OrganizerFeePercentage: 5,
		AreaNames:              []string{"VIP", "General"},
		AreaPrices:             []uint64{2_000_000, 500_000},
		AreaQuotas:             []uint64{2, 100},
	}
}

func createConcert(t *testing.T, m *ledger.Marketplace) model.EventWithAreas {
	t.Helper()
	ev, err := m.CreateEvent(context.Background(), platform, concert())
	require.NoError(t, err)
	return ev
}

func buy(eventID, areaID, amount, price uint64) ledger.BuyTicketInput {
	return ledger.BuyTicketInput{
		Valid:     true,
		Amount:    amount,
		EventID:   eventID,
		AreaID:    areaID,
		Organizer: organizer,
		Price:     price,
		URI:       "ipfs://ticket",
		Payment:   price * amount,
	}
}

type snapshot struct {
	sold          []uint64
	balances      map[string]uint64
	notifications int
}

func takeSnapshot(t *testing.T, m *ledger.Marketplace, eventID uint64) snapshot {
	t.Helper()
	ctx := context.Background()

	ev, err := m.GetEvent(ctx, eventID)
	require.NoError(t, err)

	snap := snapshot{balances: map[string]uint64{}}
	for _, a := range ev.Areas {
		snap.sold = append(snap.sold, a.SoldTickets)
	}
	for _, p := range []string{platform, organizer, alice, bob} {
		b, err := m.BalanceOf(ctx, p)
		require.NoError(t, err)
		snap.balances[p] = b.Amount
	}
	ns, err := m.Notifications(ctx, 0, 1000)
	require.NoError(t, err)
	snap.notifications = len(ns)
	return snap
}

func TestCreateEvent(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()

	p, err := m.Platform(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.NextEventID)
	assert.Equal(t, "TK", p.Symbol)

	ev := createConcert(t, m)
	assert.Equal(t, uint64(1), ev.Event.EventID)
	assert.Equal(t, uint64(2), ev.Event.TotalAreas)
	require.Len(t, ev.Areas, 2)
	for i, a := range ev.Areas {
		assert.Equal(t, uint64(i+1), a.AreaID)
		assert.Equal(t, uint64(0), a.SoldTickets)
	}

	second := createConcert(t, m)
	assert.Equal(t, uint64(2), second.Event.EventID)

	p, err = m.Platform(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), p.NextEventID)

	events, err := m.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCreateEventRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		modify func(in *ledger.CreateEventInput)
		want   error
	}{
		{"not an admin", alice, func(in *ledger.CreateEventInput) {}, ledger.ErrUnauthorized},
		{"mismatched area arrays", platform, func(in *ledger.CreateEventInput) { in.AreaQuotas = []uint64{2} }, ledger.ErrInvalidInput},
		{"no areas", platform, func(in *ledger.CreateEventInput) {
			in.AreaNames, in.AreaPrices, in.AreaQuotas = nil, nil, nil
		}, ledger.ErrInvalidInput},
		{"fee over 100", platform, func(in *ledger.CreateEventInput) { in.OrganizerFeePercentage = 101 }, ledger.ErrInvalidInput},
		{"zero quota", platform, func(in *ledger.CreateEventInput) { in.AreaQuotas = []uint64{0, 1} }, ledger.ErrInvalidInput},
		{"blank area name", platform, func(in *ledger.CreateEventInput) { in.AreaNames = []string{"VIP", " "} }, ledger.ErrInvalidInput},
		{"no organizer", platform, func(in *ledger.CreateEventInput) { in.Organizer = "" }, ledger.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMarketplace(t)
			in := concert()
			tt.modify(&in)

			_, err := m.CreateEvent(context.Background(), tt.caller, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			p, err := m.Platform(context.Background())
			require.NoError(t, err)
			assert.Equal(t, uint64(1), p.NextEventID)
		})
	}
}

func TestCreateEventAllowsConfiguredAdmin(t *testing.T) {
	m, err := ledger.New(store.NewMemory(), ledger.Config{FeePercentage: 1, Recipient: platform, Admins: []string{"ops"}})
	require.NoError(t, err)

	_, err = m.CreateEvent(context.Background(), "ops", concert())
	assert.NoError(t, err)
}

func TestBuyTicketFromOrganizer(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()
	ev := createConcert(t, m)

	receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 2, 2, 500_000))
	require.NoError(t, err)
	require.Len(t, receipt.Tickets, 2)

	for i, tk := range receipt.Tickets {
		assert.Equal(t, uint64(i+1), tk.TicketID)
		assert.Equal(t, alice, tk.Owner)
		assert.Equal(t, uint64(1), tk.TimesSold)
		assert.Equal(t, uint64(500_000), tk.Price)
		assert.False(t, tk.Offered)
		assert.False(t, tk.Used)

		owner, err := m.OwnerOf(ctx, tk.TicketID)
		require.NoError(t, err)
		assert.Equal(t, alice, owner)
	}

	area, err := m.GetArea(ctx, ev.Event.EventID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), area.SoldTickets)

	snap := takeSnapshot(t, m, ev.Event.EventID)
	assert.Equal(t, uint64(10_000), snap.balances[platform])
	assert.Equal(t, uint64(990_000), snap.balances[organizer])
	assert.Equal(t, uint64(0), snap.balances[alice])

	ns, err := m.Notifications(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, ns, 2)
	for i, n := range ns {
		assert.Equal(t, model.NotificationBought, n.Kind)
		assert.Equal(t, receipt.Tickets[i].TicketID, n.TicketID)
		assert.Equal(t, alice, n.Principal)
		assert.Equal(t, uint64(i+1), n.Seq)
	}
}

func TestBuyTicketFromOrganizerRejects(t *testing.T) {
	tests := []struct {
		name   string
		buyer  string
		clock  time.Time
		modify func(in *ledger.BuyTicketInput)
		want   error
	}{
		{"caller reported invalid", alice, now, func(in *ledger.BuyTicketInput) { in.Valid = false }, ledger.ErrEventIneligible},
		{"price differs from area", alice, now, func(in *ledger.BuyTicketInput) { in.Price = 1 }, ledger.ErrWrongAmount},
		{"short payment", alice, now, func(in *ledger.BuyTicketInput) { in.Payment-- }, ledger.ErrWrongAmount},
		{"over quota", alice, now, func(in *ledger.BuyTicketInput) {
			in.Amount = 3
			in.Payment = 3 * in.Price
		}, ledger.ErrQuotaExceeded},
		{"amount above the per purchase limit", alice, now, func(in *ledger.BuyTicketInput) {
			in.Amount = 1 << 62
			in.Payment = 0
		}, ledger.ErrInvalidInput},
		{"wrong organizer", alice, now, func(in *ledger.BuyTicketInput) { in.Organizer = bob }, ledger.ErrUnauthorized},
		{"event already started", alice, startAt, func(in *ledger.BuyTicketInput) {}, ledger.ErrEventIneligible},
		{"unknown area", alice, now, func(in *ledger.BuyTicketInput) { in.AreaID = 9 }, ledger.ErrNotFound},
		{"unknown event", alice, now, func(in *ledger.BuyTicketInput) { in.EventID = 9 }, ledger.ErrNotFound},
		{"zero amount", alice, now, func(in *ledger.BuyTicketInput) { in.Amount = 0 }, ledger.ErrInvalidInput},
		{"anonymous buyer", "", now, func(in *ledger.BuyTicketInput) {}, ledger.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMarketplace(t, ledger.WithClock(clock.NewFixed(tt.clock)))
			ev := createConcert(t, m)
			before := takeSnapshot(t, m, ev.Event.EventID)

			in := buy(ev.Event.EventID, 1, 1, 2_000_000)
			tt.modify(&in)

			_, err := m.BuyTicketFromOrganizer(context.Background(), tt.buyer, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, before, takeSnapshot(t, m, ev.Event.EventID))

			_, err = m.GetTicket(context.Background(), 1)
			assert.True(t, errors.Is(err, ledger.ErrNotFound))
		})
	}
}

func TestSoldTicketsNeverExceedQuota(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()
	ev := createConcert(t, m)

	for i := 0; i < 2; i++ {
		_, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 1, 2_000_000))
		require.NoError(t, err)
	}

	_, err := m.BuyTicketFromOrganizer(ctx, bob, buy(ev.Event.EventID, 1, 1, 2_000_000))
	assert.True(t, errors.Is(err, ledger.ErrQuotaExceeded), "got %v", err)

	area, err := m.GetArea(ctx, ev.Event.EventID, 1)
	require.NoError(t, err)
	assert.Equal(t, area.Quota, area.SoldTickets)
	assert.Equal(t, uint64(0), area.Remaining())

	ok, err := m.ValidatePurchase(ctx, ev.Event.EventID, ledger.PurchaseFacts{
		Amount:      1,
		Organizer:   organizer,
		Quota:       area.Quota,
		StartTime:   startAt,
		SoldTickets: area.SoldTickets,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentPrimarySalesRespectQuota(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()
	ev := createConcert(t, m)

	const buyers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.BuyTicketFromOrganizer(ctx, fmt.Sprintf("buyer-%d", i), buy(ev.Event.EventID, 1, 1, 2_000_000))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case errors.Is(err, ledger.ErrQuotaExceeded):
				rejected++
			default:
				t.Errorf("buyer %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, sold)
	assert.Equal(t, buyers-2, rejected)

	area, err := m.GetArea(ctx, ev.Event.EventID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), area.SoldTickets)

	ns, err := m.Notifications(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, ns, 2)
	for i, n := range ns {
		assert.Equal(t, uint64(i+1), n.TicketID)
	}
}

func TestFreeAreaPurchaseIsBounded(t *testing.T) {
	s := store.NewMemory()
	m, err := ledger.New(s, ledger.Config{
		FeePercentage:         1,
		Recipient:             platform,
		MaxTicketsPerPurchase: 5,
	}, ledger.WithClock(clock.NewFixed(now)))
	require.NoError(t, err)
	ctx := context.Background()

	in := concert()
	in.AreaNames = []string{"Free"}
	in.AreaPrices = []uint64{0}
	in.AreaQuotas = []uint64{1 << 62}
	ev, err := m.CreateEvent(ctx, platform, in)
	require.NoError(t, err)

	_, err = m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 1<<40, 0))
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput), "got %v", err)

	area, err := m.GetArea(ctx, ev.Event.EventID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), area.SoldTickets)

	receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 5, 0))
	require.NoError(t, err)
	assert.Len(t, receipt.Tickets, 5)

	_, err = m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 6, 0))
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput), "got %v", err)
}

func TestOfferAndPurchaseTicket(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()
	ev := createConcert(t, m)

	receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 1, 2_000_000))
	require.NoError(t, err)
	ticketID := receipt.Tickets[0].TicketID

	offered, err := m.OfferTicket(ctx, alice, ticketID, 1_500_000)
	require.NoError(t, err)
	assert.True(t, offered.Offered)
	assert.Equal(t, uint64(1_500_000), offered.Price)

	approved, err := m.GetApproved(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "marketplace", approved)

	sale, err := m.PurchaseTicket(ctx, bob, ledger.PurchaseTicketInput{
		TicketID:               ticketID,
		OrganizerFeePercentage: 5,
		Organizer:              organizer,
		Payment:                1_500_000,
	})
	require.NoError(t, err)

	got := sale.Tickets[0]
	assert.Equal(t, bob, got.Owner)
	assert.Equal(t, uint64(2), got.TimesSold)
	assert.False(t, got.Offered)
	assert.Equal(t, "ipfs://ticket", got.URI)

	require.Len(t, sale.Payouts, 3)
	assert.Equal(t, uint64(15_000), sale.Payouts[0].Amount)
	assert.Equal(t, uint64(75_000), sale.Payouts[1].Amount)
	assert.Equal(t, uint64(1_410_000), sale.Payouts[2].Amount)
	assert.Equal(t, alice, sale.Payouts[2].Recipient)

	snap := takeSnapshot(t, m, ev.Event.EventID)
	assert.Equal(t, uint64(20_000+15_000), snap.balances[platform])
	assert.Equal(t, uint64(1_980_000+75_000), snap.balances[organizer])
	assert.Equal(t, uint64(1_410_000), snap.balances[alice])

	approved, err = m.GetApproved(ctx, ticketID)
	require.NoError(t, err)
	assert.Empty(t, approved)

	ns, err := m.Notifications(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, ns, 3)
	assert.Equal(t, model.NotificationOffered, ns[1].Kind)
	assert.Equal(t, alice, ns[1].Principal)
	assert.Equal(t, model.NotificationBought, ns[2].Kind)
	assert.Equal(t, bob, ns[2].Principal)
	assert.Equal(t, uint64(2), ns[2].TimesSold)
	assert.Equal(t, uint64(1_500_000), ns[2].Price)

	// the buyer can list it again
	_, err = m.OfferTicket(ctx, bob, ticketID, 1_600_000)
	assert.NoError(t, err)
}

func TestPurchaseTicketReplacesURI(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()
	ev := createConcert(t, m)

	receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 2, 1, 500_000))
	require.NoError(t, err)
	id := receipt.Tickets[0].TicketID

	_, err = m.OfferTicket(ctx, alice, id, 600_000)
	require.NoError(t, err)

	_, err = m.PurchaseTicket(ctx, bob, ledger.PurchaseTicketInput{
		TicketID:               id,
		URI:                    "ipfs://resold",
		OrganizerFeePercentage: 5,
		Organizer:              organizer,
		Payment:                600_000,
	})
	require.NoError(t, err)

	uri, err := m.TokenURI(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://resold", uri)
}

func TestOfferTicketRejects(t *testing.T) {
	m, _ := newMarketplace(t)
	ctx := context.Background()
	ev := createConcert(t, m)

	receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 2, 1, 500_000))
	require.NoError(t, err)
	id := receipt.Tickets[0].TicketID

	_, err = m.OfferTicket(ctx, bob, id, 100)
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized), "got %v", err)

	_, err = m.OfferTicket(ctx, alice, 99, 100)
	assert.True(t, errors.Is(err, ledger.ErrNotFound), "got %v", err)

	_, err = m.OfferTicket(ctx, alice, id, 100)
	require.NoError(t, err)

	before := takeSnapshot(t, m, ev.Event.EventID)
	_, err = m.OfferTicket(ctx, alice, id, 200)
	assert.True(t, errors.Is(err, ledger.ErrAlreadyOffered), "got %v", err)
	assert.Equal(t, before, takeSnapshot(t, m, ev.Event.EventID))

	tk, err := m.GetTicket(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), tk.Price)
}

func TestPurchaseTicketRejects(t *testing.T) {
	tests := []struct {
		name   string
		buyer  string
		offer  bool
		modify func(in *ledger.PurchaseTicketInput)
		want   error
	}{
		{"not offered", bob, false, func(in *ledger.PurchaseTicketInput) {}, ledger.ErrNotOffered},
		{"wrong payment", bob, true, func(in *ledger.PurchaseTicketInput) { in.Payment = 1_499_999 }, ledger.ErrWrongAmount},
		{"wrong organizer", bob, true, func(in *ledger.PurchaseTicketInput) { in.Organizer = alice }, ledger.ErrUnauthorized},
		{"organizer fee differs", bob, true, func(in *ledger.PurchaseTicketInput) { in.OrganizerFeePercentage = 0 }, ledger.ErrInvalidInput},
		{"organizer fee out of range", bob, true, func(in *ledger.PurchaseTicketInput) { in.OrganizerFeePercentage = 120 }, ledger.ErrInvalidInput},
		{"unknown ticket", bob, true, func(in *ledger.PurchaseTicketInput) { in.TicketID = 42 }, ledger.ErrNotFound},
		{"anonymous buyer", "", true, func(in *ledger.PurchaseTicketInput) {}, ledger.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMarketplace(t)
			ctx := context.Background()
			ev := createConcert(t, m)

			receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 1, 2_000_000))
			require.NoError(t, err)
			id := receipt.Tickets[0].TicketID
			if tt.offer {
				_, err = m.OfferTicket(ctx, alice, id, 1_500_000)
				require.NoError(t, err)
			}
			before := takeSnapshot(t, m, ev.Event.EventID)
			ticketBefore, err := m.GetTicket(ctx, id)
			require.NoError(t, err)

			in := ledger.PurchaseTicketInput{TicketID: id, OrganizerFeePercentage: 5, Organizer: organizer, Payment: 1_500_000}
			tt.modify(&in)

			_, err = m.PurchaseTicket(ctx, tt.buyer, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			assert.Equal(t, before, takeSnapshot(t, m, ev.Event.EventID))
			ticketAfter, err := m.GetTicket(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, ticketBefore, ticketAfter)
		})
	}
}

func TestPurchaseTicketAbortsWhenSellerUnpayable(t *testing.T) {
	unpayable := func(principal string) error {
		if principal == alice {
			return fmt.Errorf("account %s is closed", principal)
		}
		return nil
	}
	m, _ := newMarketplace(t, ledger.WithAccountCheck(unpayable))
	ctx := context.Background()
	ev := createConcert(t, m)

	receipt, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 1, 1, 2_000_000))
	require.NoError(t, err)
	id := receipt.Tickets[0].TicketID
	_, err = m.OfferTicket(ctx, alice, id, 1_500_000)
	require.NoError(t, err)

	before := takeSnapshot(t, m, ev.Event.EventID)

	_, err = m.PurchaseTicket(ctx, bob, ledger.PurchaseTicketInput{
		TicketID:               id,
		URI:                    "ipfs://new",
		OrganizerFeePercentage: 5,
		Organizer:              organizer,
		Payment:                1_500_000,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrTransferFailed), "got %v", err)

	assert.Equal(t, before, takeSnapshot(t, m, ev.Event.EventID))
	tk, err := m.GetTicket(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alice, tk.Owner)
	assert.True(t, tk.Offered)
	assert.Equal(t, uint64(1), tk.TimesSold)
	assert.Equal(t, "ipfs://ticket", tk.URI)
}

func TestBuyTicketFromOrganizerAbortsWhenOrganizerUnpayable(t *testing.T) {
	m, _ := newMarketplace(t, ledger.WithAccountCheck(func(principal string) error {
		if principal == organizer {
			return fmt.Errorf("no such account")
		}
		return nil
	}))
	ctx := context.Background()
	ev := createConcert(t, m)
	before := takeSnapshot(t, m, ev.Event.EventID)

	_, err := m.BuyTicketFromOrganizer(ctx, alice, buy(ev.Event.EventID, 2, 3, 500_000))
	assert.True(t, errors.Is(err, ledger.ErrTransferFailed), "got %v", err)
	assert.Equal(t, before, takeSnapshot(t, m, ev.Event.EventID))

	_, err = m.GetTicket(ctx, 1)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := ledger.New(store.NewMemory(), ledger.Config{FeePercentage: 101, Recipient: platform})
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))

	_, err = ledger.New(store.NewMemory(), ledger.Config{FeePercentage: 1})
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))

	_, err = ledger.New(store.NewMemory(), ledger.Config{
		FeePercentage:         1,
		Recipient:             platform,
		MaxTicketsPerPurchase: ledger.MaxTicketsPerPurchaseLimit + 1,
	})
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))
}
