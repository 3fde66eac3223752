package notif

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/onemorecasino/roulette/state"
	"github.com/onemorecasino/roulette/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Store(_ context.Context, tableID, roundID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[state.Key(tableID, roundID)] = payload
	return nil
}

func (m *memStore) Pending(_ context.Context, tableID string) ([]state.Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.Pending
	for k, v := range m.data {
		if strings.HasPrefix(k, state.Key(tableID, "")) {
			out = append(out, state.Pending{Key: k, Payload: v})
		}
	}
	return out, nil
}

func (m *memStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func connect(t *testing.T) *nats.Conn {
	t.Helper()
	srv := natsserver.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func result(round string) table.Result {
	return table.Result{
		TableID: "t1",
		RoundID: round,
		Outcome: "5",
		Color:   "red",
		Stake:   20,
		Payout:  30,
		Wallet:  2010,
		Message: "Congrats. You won 30",
	}
}

func TestDeliverAcknowledged(t *testing.T) {
	nc := connect(t)
	store := newMemStore()
	svc := NewService(nc, store, "roulette.results", time.Second, &sync.WaitGroup{})

	got := make(chan Notif, 1)
	_, err := nc.Subscribe(svc.Subject("t1"), func(msg *nats.Msg) {
		var n Notif
		if err := json.Unmarshal(msg.Data, &n); err == nil {
			got <- n
		}
		msg.Respond([]byte("ack"))
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	svc.deliver(result("r1"))

	select {
	case n := <-got:
		assert.Equal(t, NotifType, n.Type)
		assert.Equal(t, "r1", n.RoundID)
		assert.Equal(t, 30, n.Payout)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not received")
	}
	assert.Equal(t, 0, store.len())
}

func TestDeliverWithoutAckIsStored(t *testing.T) {
	nc := connect(t)
	store := newMemStore()
	svc := NewService(nc, store, "roulette.results", 100*time.Millisecond, &sync.WaitGroup{})

	svc.deliver(result("r1"))

	assert.Equal(t, 1, store.len())
	pending, err := store.Pending(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "notif:roulette:t1:r1", pending[0].Key)
}

func TestDeliverWithoutNatsIsStored(t *testing.T) {
	store := newMemStore()
	svc := NewService(nil, store, "roulette.results", time.Second, &sync.WaitGroup{})

	svc.deliver(result("r1"))
	assert.Equal(t, 1, store.len())

	_, err := svc.Replay(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, 1, store.len())
}

func TestReplayWithoutOutbox(t *testing.T) {
	nc := connect(t)
	svc := NewService(nc, nil, "roulette.results", time.Second, &sync.WaitGroup{})

	sent, err := svc.Replay(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, 0, sent)
}

func TestReplay(t *testing.T) {
	nc := connect(t)
	store := newMemStore()
	svc := NewService(nc, store, "roulette.results", time.Second, &sync.WaitGroup{})

	sub, err := nc.SubscribeSync(svc.Subject("t1"))
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	for _, r := range []string{"r1", "r2"} {
		require.NoError(t, store.Store(context.Background(), "t1", r, mustMarshal(result(r))))
	}
	require.NoError(t, store.Store(context.Background(), "t2", "r9", mustMarshal(result("r9"))))

	sent, err := svc.Replay(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, store.len())

	for i := 0; i < 2; i++ {
		_, err := sub.NextMsg(time.Second)
		assert.NoError(t, err)
	}
}

func TestStartStop(t *testing.T) {
	store := newMemStore()
	var wg sync.WaitGroup
	svc := NewService(nil, store, "roulette.results", time.Second, &wg)

	svc.Start()
	svc.Notify(result("r1"))
	svc.Notify(result("r2"))

	wg.Add(1)
	go svc.Wait(&wg)
	svc.Stop()
	wg.Wait()

	assert.Equal(t, 2, store.len())
}
