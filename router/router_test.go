package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-marketplace-backend/clock"
	"ticket-marketplace-backend/config"
	"ticket-marketplace-backend/handler"
	"ticket-marketplace-backend/indexer"
	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/middleware"
	"ticket-marketplace-backend/model"
	"ticket-marketplace-backend/store"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Cursor  string          `json:"cursor"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
}

type api struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWithCache(t, nil)
}

func newAPIWithCache(t *testing.T, cache handler.AreaCache) *api {
	t.Helper()
	viper.Set(config.AuthMode, config.AuthHeader)
	viper.Set(config.Secret, "router-test-secret")

	s := store.NewMemory()
	market, err := ledger.New(s, ledger.Config{
		Name:          "Ticket",
		Symbol:        "TK",
		FeePercentage: 1,
		Recipient:     "platform",
		Marketplace:   "marketplace",
	}, ledger.WithClock(clock.NewFixed(time.Date(2029, 12, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)

	r := Router(context.Background(), Services{Market: market, Views: indexer.New(market), Areas: cache})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &api{t: t, server: server}
}

func (a *api) do(method, path, principal, body string) (int, envelope) {
	a.t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, strings.NewReader(body))
	require.NoError(a.t, err)
	if principal != "" {
		req.Header.Set(middleware.PrincipalHeader, principal)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()

	assert.Equal(a.t, "application/json", res.Header.Get("Content-Type"))
	var env envelope
	require.NoError(a.t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func (a *api) data(env envelope, v interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(env.Data, v))
}

const concert = `{"data":{"event":{
	"name":"Concert","start_time":"2030-01-01T20:00:00Z","location":"Arena","organizer":"organizer",
	"organizer_fee_percentage":5,"area_names":["VIP","General"],"area_prices":[2000000,500000],"area_quotas":[2,100]}}}`

func TestMarketplaceFlow(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/v1/events", "platform", concert)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		Event struct {
			EventID uint64 `json:"event_id"`
		} `json:"event"`
	}
	a.data(env, &created)
	assert.Equal(t, uint64(1), created.Event.EventID)

	status, env = a.do(http.MethodPost, "/v1/events/1/validate", "", `{"data":{"purchase":{
		"amount":2,"organizer":"organizer","quota":2,"start_time":"2030-01-01T20:00:00Z","sold_tickets":0}}}`)
	require.Equal(t, http.StatusOK, status)
	var eligibility struct {
		Valid bool `json:"valid"`
	}
	a.data(env, &eligibility)
	assert.True(t, eligibility.Valid)

	status, env = a.do(http.MethodPost, "/v1/events/1/areas/1/purchase", "alice", `{"data":{"purchase":{
		"valid":true,"amount":2,"organizer":"organizer","price":2000000,"uri":"ipfs://vip","payment":4000000}}}`)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = a.do(http.MethodGet, "/v1/events/1/areas/1", "", "")
	require.Equal(t, http.StatusOK, status)
	var area struct {
		SoldTickets uint64 `json:"sold_tickets"`
	}
	a.data(env, &area)
	assert.Equal(t, uint64(2), area.SoldTickets)

	status, env = a.do(http.MethodPost, "/v1/tickets/1/offer", "alice", `{"data":{"offer":{"ask_price":1500000}}}`)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = a.do(http.MethodGet, "/v1/tickets/1", "", "")
	require.Equal(t, http.StatusOK, status)
	var view struct {
		TokenURI string `json:"token_uri"`
		Approved string `json:"approved"`
	}
	a.data(env, &view)
	assert.Equal(t, "ipfs://vip", view.TokenURI)
	assert.Equal(t, "marketplace", view.Approved)

	status, env = a.do(http.MethodGet, "/v1/events/1/offers", "", "")
	require.Equal(t, http.StatusOK, status)
	var offers []indexer.Offer
	a.data(env, &offers)
	assert.Equal(t, []indexer.Offer{{TicketID: 1, EventID: 1, AreaID: 1, Seller: "alice", Price: 1_500_000}}, offers)

	status, env = a.do(http.MethodPost, "/v1/tickets/1/purchase", "bob", `{"data":{"purchase":{
		"organizer_fee_percentage":5,"organizer":"organizer","payment":1500000}}}`)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = a.do(http.MethodGet, "/v1/tickets/1", "", "")
	require.Equal(t, http.StatusOK, status)
	var sold struct {
		Ticket struct {
			Owner    string `json:"owner"`
			URI      string `json:"uri"`
			Approved string `json:"approved"`
		} `json:"ticket"`
		TokenURI string `json:"token_uri"`
		Approved string `json:"approved"`
	}
	a.data(env, &sold)
	assert.Equal(t, "bob", sold.Ticket.Owner)
	assert.Equal(t, sold.Ticket.URI, sold.TokenURI)
	assert.Equal(t, sold.Ticket.Approved, sold.Approved)
	assert.Empty(t, sold.Approved)

	status, env = a.do(http.MethodGet, "/v1/tickets/1/owner", "", "")
	require.Equal(t, http.StatusOK, status)
	var owner struct {
		Owner string `json:"owner"`
	}
	a.data(env, &owner)
	assert.Equal(t, "bob", owner.Owner)

	balances := map[string]uint64{
		"platform":  20_000 + 20_000 + 15_000,
		"organizer": 1_980_000 + 1_980_000 + 75_000,
		"alice":     1_410_000,
	}
	for principal, want := range balances {
		status, env = a.do(http.MethodGet, "/v1/accounts/"+principal+"/balance", "", "")
		require.Equal(t, http.StatusOK, status)
		var b struct {
			Amount uint64 `json:"amount"`
		}
		a.data(env, &b)
		assert.Equal(t, want, b.Amount, principal)
	}

	status, env = a.do(http.MethodGet, "/v1/accounts/alice/tickets", "", "")
	require.Equal(t, http.StatusOK, status)
	var owned []uint64
	a.data(env, &owned)
	assert.Equal(t, []uint64{2}, owned)

	status, env = a.do(http.MethodGet, "/v1/accounts/bob/tickets", "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &owned)
	assert.Equal(t, []uint64{1}, owned)
}

func TestNotificationsCursor(t *testing.T) {
	a := newAPI(t)

	status, _ := a.do(http.MethodPost, "/v1/events", "platform", concert)
	require.Equal(t, http.StatusCreated, status)
	status, _ = a.do(http.MethodPost, "/v1/events/1/areas/2/purchase", "alice", `{"data":{"purchase":{
		"valid":true,"amount":3,"organizer":"organizer","price":500000,"payment":1500000}}}`)
	require.Equal(t, http.StatusCreated, status)

	type entry struct {
		Seq  uint64 `json:"seq"`
		Kind string `json:"kind"`
	}

	status, env := a.do(http.MethodGet, "/v1/notifications?limit=2", "", "")
	require.Equal(t, http.StatusOK, status)
	var page []entry
	a.data(env, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "BOUGHT", page[0].Kind)
	require.NotEmpty(t, env.Cursor)
	assert.NotContains(t, env.Cursor, "=")

	cursor := env.Cursor
	status, env = a.do(http.MethodGet, "/v1/notifications?limit=2&cursor="+cursor, "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &page)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(3), page[0].Seq)

	status, env = a.do(http.MethodGet, "/v1/notifications?cursor="+env.Cursor, "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &page)
	assert.Empty(t, page)

	status, _ = a.do(http.MethodGet, "/v1/notifications?cursor=forged", "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(http.MethodGet, "/v1/notifications?limit=0", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestErrorStatuses(t *testing.T) {
	a := newAPI(t)
	status, _ := a.do(http.MethodPost, "/v1/events", "platform", concert)
	require.Equal(t, http.StatusCreated, status)
	status, _ = a.do(http.MethodPost, "/v1/events/1/areas/1/purchase", "alice", `{"data":{"purchase":{
		"valid":true,"amount":1,"organizer":"organizer","price":2000000,"payment":2000000}}}`)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name      string
		method    string
		path      string
		principal string
		body      string
		status    int
		code      string
	}{
		{"anonymous create", http.MethodPost, "/v1/events", "", concert, http.StatusUnauthorized, "UNAUTHORISED"},
		{"create by non admin", http.MethodPost, "/v1/events", "mallory", concert, http.StatusForbidden, "FORBIDDEN"},
		{"malformed body", http.MethodPost, "/v1/events", "platform", `{"data":`, http.StatusBadRequest, "BAD REQUEST"},
		{"missing event", http.MethodPost, "/v1/events", "platform", `{"data":{}}`, http.StatusBadRequest, "INVALID_DATA"},
		{"mismatched areas", http.MethodPost, "/v1/events", "platform", strings.Replace(concert, `[2,100]`, `[2]`, 1), http.StatusBadRequest, "INVALID_DATA"},
		{"unknown event", http.MethodGet, "/v1/events/9", "", "", http.StatusNotFound, "NOT FOUND"},
		{"unknown area", http.MethodGet, "/v1/events/1/areas/3", "", "", http.StatusNotFound, "NOT FOUND"},
		{"unknown ticket", http.MethodGet, "/v1/tickets/9", "", "", http.StatusNotFound, "NOT FOUND"},
		{"unknown route", http.MethodGet, "/v1/nothing", "", "", http.StatusNotFound, "NOT FOUND"},
		{"sold out", http.MethodPost, "/v1/events/1/areas/1/purchase", "bob", `{"data":{"purchase":{
			"valid":true,"amount":2,"organizer":"organizer","price":2000000,"payment":4000000}}}`, http.StatusConflict, "QUOTA_EXCEEDED"},
		{"underpaid", http.MethodPost, "/v1/events/1/areas/2/purchase", "bob", `{"data":{"purchase":{
			"valid":true,"amount":2,"organizer":"organizer","price":500000,"payment":500000}}}`, http.StatusPaymentRequired, "WRONG_AMOUNT"},
		{"too many tickets at once", http.MethodPost, "/v1/events/1/areas/2/purchase", "bob", `{"data":{"purchase":{
			"valid":true,"amount":1001,"organizer":"organizer","price":500000,"payment":500500000}}}`, http.StatusBadRequest, "INVALID_DATA"},
		{"reported invalid", http.MethodPost, "/v1/events/1/areas/2/purchase", "bob", `{"data":{"purchase":{
			"valid":false,"amount":1,"organizer":"organizer","price":500000,"payment":500000}}}`, http.StatusConflict, "EVENT_INELIGIBLE"},
		{"offer by non owner", http.MethodPost, "/v1/tickets/1/offer", "bob", `{"data":{"offer":{"ask_price":1}}}`, http.StatusForbidden, "FORBIDDEN"},
		{"purchase not offered", http.MethodPost, "/v1/tickets/1/purchase", "bob", `{"data":{"purchase":{
			"organizer_fee_percentage":5,"organizer":"organizer","payment":2000000}}}`, http.StatusConflict, "NOT_OFFERED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := a.do(tt.method, tt.path, tt.principal, tt.body)
			assert.Equal(t, tt.status, status, env.Message)
			assert.Equal(t, tt.code, env.Status)
		})
	}

	// nothing above changed the sold count
	status, env := a.do(http.MethodGet, "/v1/events/1", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), fmt.Sprintf(`"sold_tickets":%d`, 1))
}

type fakeAreaCache struct {
	areas map[[2]uint64]model.Area
	err   error
}

func (f *fakeAreaCache) Area(eventID, areaID uint64) (model.Area, bool, error) {
	if f.err != nil {
		return model.Area{}, false, f.err
	}
	a, ok := f.areas[[2]uint64{eventID, areaID}]
	return a, ok, nil
}

func TestAvailability(t *testing.T) {
	cache := &fakeAreaCache{areas: map[[2]uint64]model.Area{
		{1, 1}: {EventID: 1, AreaID: 1, Quota: 2, SoldTickets: 2},
	}}
	a := newAPIWithCache(t, cache)

	status, env := a.do(http.MethodPost, "/v1/events", "platform", concert)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var got model.Availability
	status, env = a.do(http.MethodGet, "/v1/events/1/areas/1/availability", "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &got)
	assert.Equal(t, model.Availability{EventID: 1, AreaID: 1, Quota: 2, SoldTickets: 2, Remaining: 0, Source: model.SourceCache}, got)

	// a miss is answered by the ledger
	status, env = a.do(http.MethodGet, "/v1/events/1/areas/2/availability", "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &got)
	assert.Equal(t, model.Availability{EventID: 1, AreaID: 2, Quota: 100, Remaining: 100, Source: model.SourceLedger}, got)

	// so is a cache that can not be reached
	cache.err = fmt.Errorf("connection refused")
	status, env = a.do(http.MethodGet, "/v1/events/1/areas/1/availability", "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &got)
	assert.Equal(t, model.SourceLedger, got.Source)
	assert.Equal(t, uint64(2), got.Remaining)

	status, env = a.do(http.MethodGet, "/v1/events/1/areas/3/availability", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT FOUND", env.Status)
}

func TestAvailabilityWithoutCache(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/v1/events", "platform", concert)
	require.Equal(t, http.StatusCreated, status, env.Message)
	status, env = a.do(http.MethodPost, "/v1/events/1/areas/1/purchase", "alice", `{"data":{"purchase":{
		"valid":true,"amount":1,"organizer":"organizer","price":2000000,"payment":2000000}}}`)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var got model.Availability
	status, env = a.do(http.MethodGet, "/v1/events/1/areas/1/availability", "", "")
	require.Equal(t, http.StatusOK, status)
	a.data(env, &got)
	assert.Equal(t, model.Availability{EventID: 1, AreaID: 1, Quota: 2, SoldTickets: 1, Remaining: 1, Source: model.SourceLedger}, got)
}

func TestHealthcheck(t *testing.T) {
	a := newAPI(t)
	status, env := a.do(http.MethodGet, "/healthcheck", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}
