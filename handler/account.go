package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ticket-marketplace-backend/codec"
	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/response"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

func Balance(market *ledger.Marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := market.BalanceOf(r.Context(), mux.Vars(r)["principal"])
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: b, StatusCode: http.StatusOK}.Send(w)
	}
}

func OwnedTickets(views Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := views.OwnedBy(r.Context(), mux.Vars(r)["principal"])
		if err != nil {
			fail(w, r, err)
			return
		}
		response.SuccessResponse{Data: ids, StatusCode: http.StatusOK}.Send(w)
	}
}

// Notifications pages through the log. The cursor in the response resumes
// after the last entry returned; it is unchanged when nothing new was found.
func Notifications(market *ledger.Marketplace, cursorKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		cursor := q.Get("cursor")
		afterSeq, err := codec.DecodeCursor(cursorKey, cursor)
		if err != nil {
			fail(w, r, response.InvalidData(err.Error()))
			return
		}

		limit := defaultPageLimit
		if raw := q.Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > maxPageLimit {
				fail(w, r, response.InvalidData(fmt.Sprintf("limit must be between 1 and %d", maxPageLimit)))
				return
			}
		}

		ns, err := market.Notifications(r.Context(), afterSeq, limit)
		if err != nil {
			fail(w, r, err)
			return
		}

		if len(ns) > 0 {
			cursor, err = codec.EncodeCursor(cursorKey, ns[len(ns)-1].Seq)
			if err != nil {
				fail(w, r, err)
				return
			}
		}
		response.SuccessResponse{Data: ns, Cursor: cursor, StatusCode: http.StatusOK}.Send(w)
	}
}
