package controller

import (
	"net/http"
	"sync/atomic"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/julienschmidt/httprouter"
	"github.com/onemorecasino/roulette/table"
)

type Router struct {
	http.Handler

	table *table.Table
	ready atomic.Bool
}

type healthBody struct {
	Ready   bool   `json:"ready"`
	TableID string `json:"tableId"`
}

// Ready marks the service as able to take traffic.
func (r *Router) Ready() {
	r.ready.Store(true)
}

// health answers 503 until Ready is called.
func (r *Router) health() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		body := healthBody{Ready: r.ready.Load(), TableID: r.table.ID()}
		if !body.Ready {
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// NewRouter serves the API of one table. Requests that change the table are
// limited to rate per second for every client address. notifs may be nil.
// The router reports not ready until Ready is called.
func NewRouter(t *table.Table, notifs Replayer, rate float64) *Router {
	h := httprouter.New()
	h.RedirectTrailingSlash = false
	h.RedirectFixedPath = false

	r := &Router{
		Handler: h,
		table:   t,
	}

	lmt := tollbooth.NewLimiter(rate, nil)
	lmt.SetMessage(`{"error": "too many requests"}`)
	lmt.SetMessageContentType(ContentTypeJSON)

	h.GET("/api/v1/table", GetTable(t))
	h.OPTIONS("/api/v1/table", opts("GET"))

	h.GET("/api/v1/catalog", GetCatalog())
	h.OPTIONS("/api/v1/catalog", opts("GET"))

	h.Handler(http.MethodPut, "/api/v1/bets/:bet", limited(lmt, PlaceBet(t)))
	h.Handler(http.MethodDelete, "/api/v1/bets/:bet", limited(lmt, RemoveBet(t)))
	h.OPTIONS("/api/v1/bets/:bet", opts("PUT, DELETE"))

	h.Handler(http.MethodPost, "/api/v1/spin", limited(lmt, Spin(t)))
	h.OPTIONS("/api/v1/spin", opts("POST"))

	h.GET("/api/v1/stats", GetStats(t))
	h.OPTIONS("/api/v1/stats", opts("GET"))

	h.GET("/api/v1/fairness", Fairness(t.Source()))
	h.OPTIONS("/api/v1/fairness", opts("GET"))

	h.Handler(http.MethodGet, "/api/v1/notifs/:table", limited(lmt, SendNotifs(notifs)))
	h.OPTIONS("/api/v1/notifs/:table", opts("GET"))

	h.Handler(http.MethodPost, "/api/v1/fairness/rotate", limited(lmt, RotateSeed(t.Source())))
	h.OPTIONS("/api/v1/fairness/rotate", opts("POST"))

	h.GET("/api/v1/health", r.health())

	h.GET("/api/v1/verbosity", Verbosity())
	h.PUT("/api/v1/verbosity", SetVerbosity())

	return r
}

// limited runs h behind the rate limiter. httprouter stores the path params
// in the request context for plain http.Handlers.
func limited(lmt *limiter.Limiter, h httprouter.Handle) http.Handler {
	return tollbooth.LimitFuncHandler(lmt, func(w http.ResponseWriter, r *http.Request) {
		h(w, r, httprouter.ParamsFromContext(r.Context()))
	})
}
