package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/onemorecasino/roulette/logger"
	"github.com/onemorecasino/roulette/services/notif"
	"go.uber.org/zap"
)

// Replayer sends stored notifications of a table again.
type Replayer interface {
	Replay(ctx context.Context, tableID string) (int, error)
}

type replayBody struct {
	Sent int `json:"sent"`
}

// SendNotifs publishes every round result of a table that no subscriber
// acknowledged so far.
func SendNotifs(notifs Replayer) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		log := zap.L()
		start := time.Now()
		cors(w)

		tableID := params.ByName("table")
		log.Debug("SendNotifs called",
			zap.String(logger.URLPath, req.URL.Path),
			logger.Table(tableID),
		)

		if _, err := uuid.Parse(tableID); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("table id '%s' is not a uuid", tableID))
			return
		}

		if notifs == nil {
			writeError(w, http.StatusServiceUnavailable, notif.ErrDisabled)
			return
		}

		count, err := notifs.Replay(req.Context(), tableID)
		if errors.Is(err, notif.ErrDisabled) {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		if err != nil {
			log.Error("failed to send notification(s)",
				zap.Error(err),
				logger.Table(tableID),
				logger.Since(start),
				zap.Int("total_sent", count),
			)
			writeError(w, http.StatusInternalServerError,
				fmt.Errorf("failed to send some or all notification(s) of table %s please try again", tableID))
			return
		}

		log.Info("send notification(s) complete",
			logger.Table(tableID),
			logger.Since(start),
			zap.Int("total_sent", count),
		)

		writeJSON(w, http.StatusOK, replayBody{Sent: count})
	}
}
