package controller

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/onemorecasino/roulette/wheel"
	"go.uber.org/zap"
)

const (
	// HeaderContentType is the Content-Type header key.
	HeaderContentType = "Content-Type"
	// ContentTypeJSON is the application/json MIME type.
	ContentTypeJSON = "application/json"
)

// fairnessSource is implemented by sources that can prove their draws.
type fairnessSource interface {
	Fairness() wheel.Fairness
}

// rotatingSource can retire its server seed.
type rotatingSource interface {
	fairnessSource
	Rotate(serverSeed string) wheel.Reveal
}

type rotateBody struct {
	Revealed wheel.Reveal   `json:"revealed"`
	Next     wheel.Fairness `json:"next"`
}

func opts(methods string) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "")
	}
}

// Fairness returns the server seed hash, client seed and nonce of a provably
// fair source so players can verify their rounds once the seed is revealed.
func Fairness(src wheel.Source) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)

		pf, ok := src.(fairnessSource)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("random source is not provably fair"))
			return
		}

		f := pf.Fairness()
		zap.L().Debug("fairness requested", zap.Uint64("nonce", f.Nonce))
		writeJSON(w, http.StatusOK, f)
	}
}

// RotateSeed retires the server seed of a provably fair source and reveals it,
// so every draw made with it can be verified. A fresh seed takes its place.
func RotateSeed(src wheel.Source) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)

		pf, ok := src.(rotatingSource)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("random source is not provably fair"))
			return
		}

		seed, err := wheel.NewServerSeed()
		if err != nil {
			zap.L().Error("failed to rotate server seed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		rev := pf.Rotate(seed)
		next := pf.Fairness()
		zap.L().Info("server seed rotated",
			zap.Uint64("draws", rev.Draws),
			zap.String("next_seed_hash", next.ServerSeedHash),
		)
		writeJSON(w, http.StatusOK, rotateBody{Revealed: rev, Next: next})
	}
}
