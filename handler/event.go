package handler

import (
	"context"
	"net/http"

	"ticket-marketplace-backend/indexer"
	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/model"
	"ticket-marketplace-backend/response"
)

// Views are the projections rebuilt from the notification log.
type Views interface {
	OwnedBy(ctx context.Context, principal string) ([]uint64, error)
	OfferedIn(ctx context.Context, eventID uint64) ([]indexer.Offer, error)
}

// AreaCache serves areas without touching the ledger. ok is false on a miss.
type AreaCache interface {
	Area(eventID, areaID uint64) (a model.Area, ok bool, err error)
}

func Platform(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := market.Platform(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: p, StatusCode: http.StatusOK}.Send(w)
	}
}

func CreateEvent(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := caller(r)
		if err != nil {
			fail(w, r, err)
			return
		}

		var req model.CreateEventRequest
		if err := decode(r, &req); err != nil {
			fail(w, r, err)
			return
		}

		in := req.Data.Event
		ev, err := market.CreateEvent(ctx, principal, ledger.CreateEventInput{
			Name:                   in.Name,
			StartTime:              in.StartTime,
			Location:               in.Location,
			Organizer:              in.Organizer,
			OrganizerFeePercentage: in.OrganizerFeePercentage,
			AreaNames:              in.AreaNames,
			AreaPrices:             in.AreaPrices,
			AreaQuotas:             in.AreaQuotas,
		})
		if err != nil {
			logger.Errorf(ctx, "createEvent: unable to create event: %v", err)
			fail(w, r, err)
			return
		}

		response.SuccessResponse{Data: ev, StatusCode: http.StatusCreated}.Send(w)
	}
}

func ListEvents(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := market.ListEvents(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: events, StatusCode: http.StatusOK}.Send(w)
	}
}

func GetEvent(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "eventID")
		if err != nil {
			fail(w, r, err)
			return
		}

		ev, err := market.GetEvent(r.Context(), eventID)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: ev, StatusCode: http.StatusOK}.Send(w)
	}
}

func GetArea(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "eventID")
		if err != nil {
			fail(w, r, err)
			return
		}
		areaID, err := pathID(r, "areaID")
		if err != nil {
			fail(w, r, err)
			return
		}

		area, err := market.GetArea(r.Context(), eventID, areaID)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: area, StatusCode: http.StatusOK}.Send(w)
	}
}

// Availability reads the area from cache when it has it and from the ledger
// otherwise. A cached answer may trail the ledger by one relay interval.
func Availability(market *ledger.Marketplace, cache AreaCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, err := pathID(r, "eventID")
		if err != nil {
			fail(w, r, err)
			return
		}
		areaID, err := pathID(r, "areaID")
		if err != nil {
			fail(w, r, err)
			return
		}

		if cache != nil {
			area, ok, err := cache.Area(eventID, areaID)
			if err != nil {
				logger.Warnf(ctx, "availability: falling back to the ledger: %v", err)
			} else if ok {
				response.SuccessResponse{Data: availability(area, model.SourceCache), StatusCode: http.StatusOK}.Send(w)
				return
			}
		}

		area, err := market.GetArea(ctx, eventID, areaID)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: availability(area, model.SourceLedger), StatusCode: http.StatusOK}.Send(w)
	}
}

func availability(a model.Area, source string) model.Availability {
	return model.Availability{
		EventID:     a.EventID,
		AreaID:      a.AreaID,
		Quota:       a.Quota,
		SoldTickets: a.SoldTickets,
		Remaining:   a.Remaining(),
		Source:      source,
	}
}

// ValidatePurchase answers with valid=false for ineligible facts rather than
// an error status; only an unknown event or a malformed body fails.
func ValidatePurchase(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "eventID")
		if err != nil {
			fail(w, r, err)
			return
		}

		var req model.ValidatePurchaseRequest
		if err := decode(r, &req); err != nil {
			fail(w, r, err)
			return
		}

		p := req.Data.Purchase
		valid, err := market.ValidatePurchase(r.Context(), eventID, ledger.PurchaseFacts{
			Amount:      p.Amount,
			Organizer:   p.Organizer,
			Quota:       p.Quota,
			StartTime:   p.StartTime,
			SoldTickets: p.SoldTickets,
			Cancelled:   p.Cancelled,
			Completed:   p.Completed,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{
			Data:       model.Eligibility{EventID: eventID, Valid: valid},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func BuyTicketFromOrganizer(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := caller(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		eventID, err := pathID(r, "eventID")
		if err != nil {
			fail(w, r, err)
			return
		}
		areaID, err := pathID(r, "areaID")
		if err != nil {
			fail(w, r, err)
			return
		}

		var req model.BuyTicketRequest
		if err := decode(r, &req); err != nil {
			fail(w, r, err)
			return
		}

		p := req.Data.Purchase
		receipt, err := market.BuyTicketFromOrganizer(ctx, principal, ledger.BuyTicketInput{
			Valid:     p.Valid,
			Amount:    p.Amount,
			EventID:   eventID,
			AreaID:    areaID,
			Organizer: p.Organizer,
			Price:     p.Price,
			URI:       p.URI,
			Payment:   p.Payment,
		})
		if err != nil {
			logger.Errorf(ctx, "buyTicketFromOrganizer: purchase by %s rejected: %v", principal, err)
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: receipt, StatusCode: http.StatusCreated}.Send(w)
	}
}

func Offers(views Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "eventID")
		if err != nil {
			fail(w, r, err)
			return
		}

		offers, err := views.OfferedIn(r.Context(), eventID)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: offers, StatusCode: http.StatusOK}.Send(w)
	}
}
