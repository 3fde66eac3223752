package controller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onemorecasino/roulette/round"
	"github.com/onemorecasino/roulette/services/notif"
	"github.com/onemorecasino/roulette/table"
	"github.com/onemorecasino/roulette/wheel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heldScheduler keeps deferred transitions until the test fires them.
type heldScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (h *heldScheduler) AfterFunc(_ time.Duration, f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, f)
}

func (h *heldScheduler) fire() {
	h.mu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.mu.Unlock()
	for _, f := range tasks {
		f()
	}
}

type fakeReplayer struct {
	sent int
	err  error
}

func (f fakeReplayer) Replay(_ context.Context, _ string) (int, error) {
	return f.sent, f.err
}

func newRouter(t *testing.T, src wheel.Source, notifs Replayer, rate float64) (*Router, *table.Table, *heldScheduler) {
	t.Helper()
	sched := &heldScheduler{}
	tbl, err := table.New(table.Options{Source: src, Scheduler: sched})
	require.NoError(t, err)
	return NewRouter(tbl, notifs, rate), tbl, sched
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) table.Snapshot {
	t.Helper()
	var s table.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestGetTable(t *testing.T) {
	r, tbl, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	rec := do(r, http.MethodGet, "/api/v1/table")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get(HeaderContentType))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	s := decodeSnapshot(t, rec)
	assert.Equal(t, tbl.ID(), s.ID)
	assert.Equal(t, round.Ready, s.State)
	assert.Equal(t, table.DefaultStartingBalance, s.Wallet)
	assert.Len(t, s.Board, 38)
}

func TestGetCatalog(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	rec := do(r, http.MethodGet, "/api/v1/catalog")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Len(t, names, 47)
	assert.Equal(t, "even", names[0])
}

func TestChangeBets(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	rec := do(r, http.MethodPut, "/api/v1/bets/red")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodPut, "/api/v1/bets/1st%2012")
	require.Equal(t, http.StatusOK, rec.Code)

	s := decodeSnapshot(t, rec)
	assert.Equal(t, 1980, s.Wallet)
	assert.Equal(t, 20, s.Total)

	rec = do(r, http.MethodDelete, "/api/v1/bets/1st%2012")
	require.Equal(t, http.StatusOK, rec.Code)
	s = decodeSnapshot(t, rec)
	assert.Equal(t, 1990, s.Wallet)
	assert.Equal(t, 10, s.Total)
}

func TestChangeBetErrors(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	rec := do(r, http.MethodPut, "/api/v1/bets/purple")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, errorOf(t, rec))

	rec = do(r, http.MethodDelete, "/api/v1/bets/black")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsufficientFunds(t *testing.T) {
	sched := &heldScheduler{}
	tbl, err := table.New(table.Options{StartingBalance: 5, StrictWallet: true, Scheduler: sched})
	require.NoError(t, err)
	r := NewRouter(tbl, nil, 1000)

	rec := do(r, http.MethodPut, "/api/v1/bets/red")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestSpin(t *testing.T) {
	r, tbl, sched := newRouter(t, wheel.NewSeededSource(7), nil, 1000)

	rec := do(r, http.MethodPost, "/api/v1/spin")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, table.PlaceBetMessage, errorOf(t, rec))
	assert.Equal(t, table.PlaceBetMessage, tbl.Snapshot().Message)

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/v1/bets/odd").Code)

	rec = do(r, http.MethodPost, "/api/v1/spin")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body spinBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RoundID)

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/v1/spin").Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPut, "/api/v1/bets/red").Code)

	sched.fire()

	s := decodeSnapshot(t, do(r, http.MethodGet, "/api/v1/table"))
	assert.Equal(t, round.Ready, s.State)
	assert.Equal(t, 0, s.Total)

	rec = do(r, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats table.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Spins)
	assert.Equal(t, 10, stats.Wagered)
}

func TestFairness(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/fairness").Code)

	src := wheel.NewProvablyFairSource("server", "client")
	r, _, _ = newRouter(t, src, nil, 1000)

	rec := do(r, http.MethodGet, "/api/v1/fairness")
	require.Equal(t, http.StatusOK, rec.Code)
	var f wheel.Fairness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, src.Fairness(), f)
	// building the board took one draw per swap
	assert.Equal(t, uint64(37), f.Nonce)
}

func TestSendNotifs(t *testing.T) {
	tableID := uuid.NewString()
	path := "/api/v1/notifs/" + tableID

	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, path).Code)

	r, _, _ = newRouter(t, wheel.NewSeededSource(1), fakeReplayer{err: notif.ErrDisabled}, 1000)
	rec := do(r, http.MethodGet, path)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, notif.ErrDisabled.Error(), errorOf(t, rec))

	r, _, _ = newRouter(t, wheel.NewSeededSource(1), fakeReplayer{sent: 2}, 1000)
	rec = do(r, http.MethodGet, path)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent": 2}`, rec.Body.String())

	r, _, _ = newRouter(t, wheel.NewSeededSource(1), fakeReplayer{sent: 1, err: errors.New("boom")}, 1000)
	rec = do(r, http.MethodGet, path)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorOf(t, rec), tableID)
}

func TestSendNotifsRejectsPatterns(t *testing.T) {
	replayer := &recordingReplayer{}
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), replayer, 1000)

	for _, id := range []string{"*", "t1", "t%3F", "%5Babc%5D"} {
		rec := do(r, http.MethodGet, "/api/v1/notifs/"+id)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}
	assert.Empty(t, replayer.tables)
}

type recordingReplayer struct {
	tables []string
}

func (r *recordingReplayer) Replay(_ context.Context, tableID string) (int, error) {
	r.tables = append(r.tables, tableID)
	return 0, nil
}

func TestRotateSeed(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/fairness/rotate").Code)

	src := wheel.NewProvablyFairSource("server", "client")
	r, tbl, sched := newRouter(t, src, nil, 1000)
	committed := src.Fairness().ServerSeedHash

	var outcomes []string
	tbl.OnResult(func(res table.Result) { outcomes = append(outcomes, res.Outcome) })
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/v1/bets/red").Code)
		require.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/api/v1/spin").Code)
		sched.fire()
	}
	require.Len(t, outcomes, 3)

	rec := do(r, http.MethodPost, "/api/v1/fairness/rotate")
	require.Equal(t, http.StatusOK, rec.Code)
	var body rotateBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "server", body.Revealed.ServerSeed)
	assert.Equal(t, uint64(37+3), body.Revealed.Draws)
	sum := sha256.Sum256([]byte(body.Revealed.ServerSeed))
	assert.Equal(t, committed, hex.EncodeToString(sum[:]))
	assert.NotEqual(t, committed, body.Next.ServerSeedHash)
	assert.Equal(t, uint64(0), body.Next.Nonce)

	// every outcome follows from the revealed seed
	board := tbl.Board()
	for i, want := range outcomes {
		f := wheel.Float(body.Revealed.ServerSeed, body.Revealed.ClientSeed, uint64(37+i))
		assert.Equal(t, want, board[int(math.Floor(f*38))], "spin %d", i)
	}
}

func TestHealth(t *testing.T) {
	r, tbl, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	rec := do(r, http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	r.Ready()
	rec = do(r, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, tbl.ID(), body.TableID)
}

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{table.ErrUnknownBet, http.StatusNotFound},
		{table.ErrNoStake, http.StatusBadRequest},
		{table.ErrNoBet, http.StatusBadRequest},
		{table.ErrInsufficientFunds, http.StatusPaymentRequired},
		{table.ErrSpinInProgress, http.StatusConflict},
		{fmt.Errorf("failed to advance random source - %w", table.ErrStaleBeacon), http.StatusTooEarly},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestRateLimit(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/v1/bets/red").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPut, "/api/v1/bets/red").Code)
	// reads are not limited
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/table").Code)
}

func TestOptions(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	rec := do(r, http.MethodOptions, "/api/v1/bets/red")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestVerbosity(t *testing.T) {
	r, _, _ := newRouter(t, wheel.NewSeededSource(1), nil, 1000)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/v1/verbosity").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPut, "/api/v1/verbosity?v=debug").Code)

	rec := do(r, http.MethodGet, "/api/v1/verbosity")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verbosity": "debug"}`, rec.Body.String())

	do(r, http.MethodPut, "/api/v1/verbosity?v=info")
}
