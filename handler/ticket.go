package handler

import (
	"net/http"

	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/model"
	"ticket-marketplace-backend/response"
)

func GetTicket(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := pathID(r, "ticketID")
		if err != nil {
			fail(w, r, err)
			return
		}

		t, err := market.GetTicket(r.Context(), ticketID)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{
			Data:       model.TicketView{Ticket: t, TokenURI: t.URI, Approved: t.Approved},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func OwnerOf(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := pathID(r, "ticketID")
		if err != nil {
			fail(w, r, err)
			return
		}

		owner, err := market.OwnerOf(r.Context(), ticketID)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{
			Data:       model.Owner{TicketID: ticketID, Owner: owner},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func OfferTicket(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := caller(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		ticketID, err := pathID(r, "ticketID")
		if err != nil {
			fail(w, r, err)
			return
		}

		var req model.OfferTicketRequest
		if err := decode(r, &req); err != nil {
			fail(w, r, err)
			return
		}

		t, err := market.OfferTicket(ctx, principal, ticketID, req.Data.Offer.AskPrice)
		if err != nil {
			logger.Errorf(ctx, "offerTicket: offer of ticket %d by %s rejected: %v", ticketID, principal, err)
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: t, StatusCode: http.StatusOK}.Send(w)
	}
}

func PurchaseTicket(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := caller(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		ticketID, err := pathID(r, "ticketID")
		if err != nil {
			fail(w, r, err)
			return
		}

		var req model.PurchaseTicketRequest
		if err := decode(r, &req); err != nil {
			fail(w, r, err)
			return
		}

		p := req.Data.Purchase
		receipt, err := market.PurchaseTicket(ctx, principal, ledger.PurchaseTicketInput{
			TicketID:               ticketID,
			URI:                    p.URI,
			OrganizerFeePercentage: p.OrganizerFeePercentage,
			Organizer:              p.Organizer,
			Payment:                p.Payment,
		})
		if err != nil {
			logger.Errorf(ctx, "purchaseTicket: purchase of ticket %d by %s rejected: %v", ticketID, principal, err)
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: receipt, StatusCode: http.StatusOK}.Send(w)
	}
}
