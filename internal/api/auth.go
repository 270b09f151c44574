package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/brrock/gamex/pkg/metrics"
	"github.com/brrock/gamex/pkg/signature"
	"github.com/brrock/gamex/pkg/store"
)

// withGameAuth authenticates a request against the game registry. The
// signature covers the exact raw body plus the client timestamp, so the
// body is read here and restored for the handler. Unknown games are a 404,
// everything else that fails authentication is a 401.
func (s *Service) withGameAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.Header.Get(headerGameID)
		timestamp := r.Header.Get(headerTimestamp)
		claimed := r.Header.Get(headerSignature)

		if gameID == "" || timestamp == "" || claimed == "" {
			metrics.AuthFailuresTotal.Inc()
			s.writeError(w, http.StatusUnauthorized, "Missing authentication headers")
			return
		}

		game, err := s.store.GetGame(r.Context(), gameID)
		if err != nil {
			if errors.Is(err, store.ErrGameNotFound) {
				s.writeError(w, http.StatusNotFound, "Game not found")
				return
			}
			s.logger.Error("failed to look up game", err, zap.String("game_id", gameID))
			s.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.logger.Error("failed to read request body", err)
			s.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := signature.CheckTimestamp(timestamp, time.Now(), s.maxTimestampAge); err != nil {
			metrics.AuthFailuresTotal.Inc()
			s.logger.Warn("rejected request timestamp",
				zap.Error(err),
				zap.String("game_id", gameID))
			s.writeError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}

		if !signature.Verify(game.Secret, body, timestamp, claimed) {
			metrics.AuthFailuresTotal.Inc()
			s.logger.Warn("rejected request signature", zap.String("game_id", gameID))
			s.writeError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}

		next(w, r)
	}
}
