package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/onemorecasino/roulette/ledger"
	"github.com/onemorecasino/roulette/logger"
	"github.com/onemorecasino/roulette/table"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

type spinBody struct {
	RoundID string `json:"roundId"`
}

func cors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusOf maps game errors to response codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, table.ErrUnknownBet):
		return http.StatusNotFound
	case errors.Is(err, table.ErrNoStake), errors.Is(err, table.ErrNoBet):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, table.ErrSpinInProgress):
		return http.StatusConflict
	case errors.Is(err, table.ErrStaleBeacon):
		return http.StatusTooEarly
	default:
		return http.StatusInternalServerError
	}
}

func GetTable(t *table.Table) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)
		writeJSON(w, http.StatusOK, t.Snapshot())
	}
}

func GetCatalog() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)
		writeJSON(w, http.StatusOK, ledger.Catalog())
	}
}

// PlaceBet stakes one unit on the bet named in the path. Names with spaces
// arrive URL-escaped, e.g. /api/v1/bets/1st%2012.
func PlaceBet(t *table.Table) httprouter.Handle {
	return changeBet(t, "place", t.PlaceBet)
}

// RemoveBet takes one unit back from the bet named in the path.
func RemoveBet(t *table.Table) httprouter.Handle {
	return changeBet(t, "remove", t.RemoveBet)
}

func changeBet(t *table.Table, action string, change func(string) error) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		log := zap.L()
		start := time.Now()
		cors(w)

		bet := params.ByName("bet")
		if err := change(bet); err != nil {
			log.Debug("bet rejected",
				zap.Error(err),
				zap.String("action", action),
				zap.String(logger.Bet, bet),
				zap.String(logger.RemoteAddr, req.RemoteAddr),
			)
			writeError(w, statusOf(err), err)
			return
		}

		log.Debug("bet changed",
			zap.String("action", action),
			zap.String(logger.Bet, bet),
			logger.Table(t.ID()),
			logger.Since(start),
		)
		writeJSON(w, http.StatusOK, t.Snapshot())
	}
}

// Spin starts a round and answers with its id. The outcome shows up in the
// table snapshot once the round is revealed.
func Spin(t *table.Table) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)

		id, err := t.Spin()
		if err != nil {
			status := statusOf(err)
			if errors.Is(err, table.ErrNoBet) {
				err = errors.New(table.PlaceBetMessage)
			}
			writeError(w, status, err)
			return
		}

		writeJSON(w, http.StatusAccepted, spinBody{RoundID: id})
	}
}

func GetStats(t *table.Table) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)
		writeJSON(w, http.StatusOK, t.Stats())
	}
}
