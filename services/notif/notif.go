package notif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"
	"github.com/onemorecasino/roulette/logger"
	"github.com/onemorecasino/roulette/state"
	"github.com/onemorecasino/roulette/table"
	"go.uber.org/zap"
)

const (
	NotifType = "roulette"

	queueSize = 64
)

var (
	ErrDisabled = errors.New("notifications are disabled")

	log *zap.Logger
)

// Store keeps notifications that were not acknowledged.
type Store interface {
	Store(ctx context.Context, tableID, roundID string, payload []byte) error
	Pending(ctx context.Context, tableID string) ([]state.Pending, error)
	Remove(ctx context.Context, key string) error
}

// Notif is the payload published for every settled round.
type Notif struct {
	Type string `json:"type"`
	table.Result
}

func (n Notif) MarshalBinary() ([]byte, error) {
	return json.Marshal(n)
}

// Service publishes round results to NATS and parks the ones no subscriber
// acknowledged in the outbox.
type Service struct {
	ctx        context.Context
	component  string
	nats       *nats.Conn
	outbox     Store
	subject    string
	ackTimeout time.Duration
	queue      chan table.Result
	stop       chan bool
	done       chan bool
	wg         *sync.WaitGroup
}

// NewService builds the notifier. nc and outbox may be nil, in which case
// results are only logged or only stored.
func NewService(nc *nats.Conn, outbox Store, subject string, ackTimeout time.Duration, wg *sync.WaitGroup) *Service {
	log = zap.L()

	return &Service{
		ctx:        context.Background(),
		component:  "notif",
		nats:       nc,
		outbox:     outbox,
		subject:    subject,
		ackTimeout: ackTimeout,
		queue:      make(chan table.Result, queueSize),
		stop:       make(chan bool),
		done:       make(chan bool),
		wg:         wg,
	}
}

// Subject is where results of a table are published.
func (s *Service) Subject(tableID string) string {
	return fmt.Sprintf("%s.%s", s.subject, tableID)
}

// Notify queues res for delivery. It never blocks the table: when the queue is
// full the result goes straight to the outbox.
func (s *Service) Notify(res table.Result) {
	select {
	case s.queue <- res:
	default:
		log.Warn("notification queue full, storing result",
			logger.Table(res.TableID),
			logger.Round(res.RoundID),
		)
		s.park(res, mustMarshal(res))
	}
}

func (s *Service) deliverLoop(stop chan bool) {
loop:
	for {
		select {
		case <-stop:
			log.Info("stopping deliverLoop() loop...")
			break loop
		case res := <-s.queue:
			s.deliver(res)
		}
	}

	// drain whatever is left so nothing is lost on shutdown
	for {
		select {
		case res := <-s.queue:
			s.park(res, mustMarshal(res))
		default:
			s.wg.Done()
			return
		}
	}
}

func (s *Service) deliver(res table.Result) {
	start := time.Now()
	payload := mustMarshal(res)

	if s.nats == nil {
		s.park(res, payload)
		return
	}

	subj := s.Subject(res.TableID)
	_, err := s.nats.Request(subj, payload, s.ackTimeout)
	if err != nil {
		// if no ack received then we keep it until the player asks for a replay
		log.Debug("notification ack not received",
			zap.Error(err),
			zap.String("subject", subj),
			logger.Table(res.TableID),
			logger.Round(res.RoundID),
			logger.Since(start),
		)
		s.park(res, payload)
		return
	}

	log.Debug("notification ack received",
		zap.String("subject", subj),
		logger.Table(res.TableID),
		logger.Round(res.RoundID),
		logger.Since(start),
	)
}

func (s *Service) park(res table.Result, payload []byte) {
	if s.outbox == nil {
		log.Info("round result not delivered",
			logger.Table(res.TableID),
			logger.Round(res.RoundID),
			zap.String("outcome", res.Outcome),
			zap.Int("payout", res.Payout),
		)
		return
	}

	if err := s.outbox.Store(s.ctx, res.TableID, res.RoundID, payload); err != nil {
		log.Error("failed to store notification", zap.Error(err), logger.Round(res.RoundID))
		return
	}
	log.Debug("notification stored", logger.Table(res.TableID), logger.Round(res.RoundID))
}

// Replay publishes every stored notification of tableID and removes the ones
// that went out. It returns how many were sent, or ErrDisabled without both an
// outbox and a nats connection.
func (s *Service) Replay(ctx context.Context, tableID string) (int, error) {
	if s.outbox == nil || s.nats == nil {
		return 0, ErrDisabled
	}

	pending, err := s.outbox.Pending(ctx, tableID)
	if err != nil {
		return 0, err
	}

	var count int
	var errs *multierror.Error
	for _, p := range pending {
		if err := s.nats.Publish(s.Subject(tableID), p.Payload); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to publish '%s' - %w", p.Key, err))
			continue
		}
		if err := s.outbox.Remove(ctx, p.Key); err != nil {
			errs = multierror.Append(errs, err)
		}
		count++
	}

	return count, errs.ErrorOrNil()
}

func (s *Service) Start() {
	stopDelivery := make(chan bool)
	s.wg.Add(1)
	go s.deliverLoop(stopDelivery)

	// Wait for a "stop" message in the background to stop the service.
	go func() {
		<-s.stop
		stopDelivery <- true
		s.done <- true
	}()
}

func (s *Service) Stop() {
	s.stop <- true
}

func (s *Service) Wait(wg *sync.WaitGroup) {
	defer wg.Done()
	<-s.done
}

func mustMarshal(res table.Result) []byte {
	b, err := Notif{Type: NotifType, Result: res}.MarshalBinary()
	if err != nil {
		// Result holds only plain values
		panic(err)
	}
	return b
}
