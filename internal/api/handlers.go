package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/brrock/gamex/pkg/metrics"
	"github.com/brrock/gamex/pkg/queue"
	"github.com/brrock/gamex/pkg/store"
)

// submitRequest mirrors the payload the game SDKs sign and send
type submitRequest struct {
	UserID    string          `json:"userId"`
	Data      json.RawMessage `json:"data"`
	Game      string          `json:"game"`
	Signature string          `json:"signature"`
	Timestamp string          `json:"timestamp"`
}

// validate returns one entry per missing or malformed field. Data is
// treated as opaque JSON; its shape belongs to the game, not the pipeline.
func (r *submitRequest) validate() []fieldError {
	var errs []fieldError
	if r.UserID == "" {
		errs = append(errs, fieldError{Field: "userId", Message: "userId is required"})
	}
	if r.Game == "" {
		errs = append(errs, fieldError{Field: "game", Message: "game is required"})
	}
	if r.Signature == "" {
		errs = append(errs, fieldError{Field: "signature", Message: "signature is required"})
	}
	if r.Timestamp == "" {
		errs = append(errs, fieldError{Field: "timestamp", Message: "timestamp is required"})
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		errs = append(errs, fieldError{Field: "data", Message: "data is required"})
	} else if !json.Valid(r.Data) {
		errs = append(errs, fieldError{Field: "data", Message: "data must be valid JSON"})
	}
	return errs
}

// handleSubmit accepts a save data write and places it on the ingestion
// queue. The 202 receipt carries a tempId; the write becomes readable after
// the next batch flush.
func (s *Service) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Errors:  []fieldError{{Field: "body", Message: "request body must be valid JSON"}},
		})
		return
	}

	if errs := req.validate(); len(errs) > 0 {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Errors: errs})
		return
	}

	item := queue.NewItem(s.clock, req.UserID, req.Game, req.Data, req.Signature, req.Timestamp)

	if err := s.queue.Push(r.Context(), item); err != nil {
		metrics.QueuePushErrorsTotal.Inc()
		s.logger.Error("failed to enqueue player data", err,
			zap.String("user_id", req.UserID),
			zap.String("game", req.Game))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.SubmitsAcceptedTotal.Inc()
	s.logger.Debug("queued player data",
		zap.String("user_id", req.UserID),
		zap.String("game", req.Game),
		zap.String("temp_id", item.TempID))

	s.writeJSON(w, http.StatusAccepted, envelope{
		Success: true,
		Message: "Player data queued for processing",
		TempID:  item.TempID,
	})
}

// handleFetchOwn returns the committed record for the calling user in the
// authenticated game, or data null when none exists
func (s *Service) handleFetchOwn(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "User ID required")
		return
	}
	gameID := r.Header.Get(headerGameID)

	record, err := s.store.GetPlayerData(r.Context(), userID, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSON(w, http.StatusOK, dataEnvelope{Success: true, Data: nil})
			return
		}
		s.logger.Error("failed to fetch player data", err,
			zap.String("user_id", userID),
			zap.String("game", gameID))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, dataEnvelope{Success: true, Data: record})
}

// handleFetchByGame returns every committed record for the game in the path
func (s *Service) handleFetchByGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameId")

	records, err := s.store.ListByGame(r.Context(), gameID)
	if err != nil {
		s.logger.Error("failed to list player data", err, zap.String("game", gameID))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, dataEnvelope{Success: true, Data: records})
}
