package indexer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ticket-marketplace-backend/model"
)

const pageSize = 500

// Log is the notification feed the indexer replays.
type Log interface {
	Notifications(ctx context.Context, afterSeq uint64, limit int) ([]model.Notification, error)
}

type Offer struct {
	TicketID uint64 `json:"ticket_id"`
	EventID  uint64 `json:"event_id"`
	AreaID   uint64 `json:"area_id"`
	Seller   string `json:"seller"`
	Price    uint64 `json:"price"`
}

// Indexer derives ownership and for-sale views purely from the notification
// log. A BOUGHT entry makes its principal the owner and withdraws any open
// offer of the ticket; an OFFERED entry puts the ticket up for sale.
type Indexer struct {
	log Log

	mu      sync.Mutex
	lastSeq uint64
	owners  map[uint64]string
	offers  map[uint64]Offer
}

func New(log Log) *Indexer {
	return &Indexer{
		log:    log,
		owners: map[uint64]string{},
		offers: map[uint64]Offer{},
	}
}

// Sync applies every notification appended since the last call.
func (ix *Indexer) Sync(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.sync(ctx)
}

func (ix *Indexer) sync(ctx context.Context) error {
	for {
		ns, err := ix.log.Notifications(ctx, ix.lastSeq, pageSize)
		if err != nil {
			return fmt.Errorf("sync: unable to read notifications after %d: %w", ix.lastSeq, err)
		}
		for _, n := range ns {
			ix.apply(n)
		}
		if len(ns) < pageSize {
			return nil
		}
	}
}

func (ix *Indexer) apply(n model.Notification) {
	switch n.Kind {
	case model.NotificationBought:
		ix.owners[n.TicketID] = n.Principal
		delete(ix.offers, n.TicketID)
	case model.NotificationOffered:
		ix.offers[n.TicketID] = Offer{
			TicketID: n.TicketID,
			EventID:  n.EventID,
			AreaID:   n.AreaID,
			Seller:   n.Principal,
			Price:    n.Price,
		}
	}
	ix.lastSeq = n.Seq
}

// OwnedBy lists the tickets principal holds and has not put up for sale.
func (ix *Indexer) OwnedBy(ctx context.Context, principal string) ([]uint64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.sync(ctx); err != nil {
		return nil, fmt.Errorf("ownedBy: %w", err)
	}

	ids := []uint64{}
	for id, owner := range ix.owners {
		if _, offered := ix.offers[id]; owner == principal && !offered {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// OfferedIn lists the open offers of eventID by ticket id.
func (ix *Indexer) OfferedIn(ctx context.Context, eventID uint64) ([]Offer, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.sync(ctx); err != nil {
		return nil, fmt.Errorf("offeredIn: %w", err)
	}

	offers := []Offer{}
	for _, o := range ix.offers {
		if o.EventID == eventID {
			offers = append(offers, o)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].TicketID < offers[j].TicketID })
	return offers, nil
}
