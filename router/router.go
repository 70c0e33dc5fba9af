package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"ticket-marketplace-backend/codec"
	"ticket-marketplace-backend/config"
	"ticket-marketplace-backend/firebase"
	"ticket-marketplace-backend/handler"
	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/middleware"
	"ticket-marketplace-backend/response"
)

// Services are the long-lived dependencies the handlers are built on.
type Services struct {
	Market *ledger.Marketplace
	Views  handler.Views
	// Verifier resolves bearer tokens; unused in header auth mode.
	Verifier firebase.Verifier
	// Areas is optional; without it availability is read from the ledger.
	Areas handler.AreaCache
}

// Router returns the router for all the API handler.
func Router(ctx context.Context, s Services) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SetCorrelationIDHeader)
	r.Use(middleware.PanicHandler)
	r.NotFoundHandler = middleware.SetContentTypeHeader(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.ResourceNotFound(fmt.Sprintf("The requested resource was not found: path: %s, method: %s", req.URL.Path, req.Method), "The requested resource was not found!").Send(req.Context(), w)
	}))
	r.MethodNotAllowedHandler = middleware.SetContentTypeHeader(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.MethodNotAllowed(req.Method, req.URL.Path).Send(req.Context(), w)
	}))

	r.Use(middleware.ResponseTimeLogging)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.SetContentTypeHeader)

	mode := viper.GetString(config.AuthMode)
	if mode != config.AuthHeader && s.Verifier == nil {
		logger.Fatalf(ctx, "router: auth mode %q needs a token verifier", mode)
	}
	r.Use(middleware.Identity(mode, s.Verifier))

	cursorKey := codec.Key(viper.GetString(config.Secret))

	r.HandleFunc("/healthcheck", handler.Healthcheck).Methods(http.MethodGet)
	baseRouter := r.PathPrefix("/v1").Subrouter()
	baseRouter.HandleFunc("/platform", handler.Platform(s.Market)).Methods(http.MethodGet)
	baseRouter.HandleFunc("/notifications", handler.Notifications(s.Market, cursorKey)).Methods(http.MethodGet)

	eventRouter := baseRouter.PathPrefix("/events").Subrouter()
	eventRouter.HandleFunc("", handler.CreateEvent(s.Market)).Methods(http.MethodPost)
	eventRouter.HandleFunc("", handler.ListEvents(s.Market)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID:[0-9]+}", handler.GetEvent(s.Market)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID:[0-9]+}/validate", handler.ValidatePurchase(s.Market)).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{eventID:[0-9]+}/offers", handler.Offers(s.Views)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID:[0-9]+}/areas/{areaID:[0-9]+}", handler.GetArea(s.Market)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID:[0-9]+}/areas/{areaID:[0-9]+}/availability", handler.Availability(s.Market, s.Areas)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID:[0-9]+}/areas/{areaID:[0-9]+}/purchase", handler.BuyTicketFromOrganizer(s.Market)).Methods(http.MethodPost)

	ticketRouter := baseRouter.PathPrefix("/tickets").Subrouter()
	ticketRouter.HandleFunc("/{ticketID:[0-9]+}", handler.GetTicket(s.Market)).Methods(http.MethodGet)
	ticketRouter.HandleFunc("/{ticketID:[0-9]+}/owner", handler.OwnerOf(s.Market)).Methods(http.MethodGet)
	ticketRouter.HandleFunc("/{ticketID:[0-9]+}/offer", handler.OfferTicket(s.Market)).Methods(http.MethodPost)
	ticketRouter.HandleFunc("/{ticketID:[0-9]+}/purchase", handler.PurchaseTicket(s.Market)).Methods(http.MethodPost)

	accountRouter := baseRouter.PathPrefix("/accounts/{principal}").Subrouter()
	accountRouter.HandleFunc("/balance", handler.Balance(s.Market)).Methods(http.MethodGet)
	accountRouter.HandleFunc("/tickets", handler.OwnedTickets(s.Views)).Methods(http.MethodGet)

	return r
}
