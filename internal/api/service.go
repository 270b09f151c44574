package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/brrock/gamex/pkg/logger"
	"github.com/brrock/gamex/pkg/queue"
	"github.com/brrock/gamex/pkg/store"
)

// Request headers carrying the per-game signature scheme.
const (
	headerGameID    = "X-Game-ID"
	headerTimestamp = "X-Timestamp"
	headerSignature = "X-Signature"
	headerUserID    = "X-User-ID"
)

// Service owns the player data HTTP surface: authenticated submits into the
// ingestion queue and reads of committed state. Reads never consult the
// queue, so recently submitted data becomes visible only after the next
// batch flush.
type Service struct {
	logger          *logger.Logger
	store           store.Store
	queue           queue.Queue
	clock           *queue.Clock
	maxTimestampAge time.Duration
}

// Config holds API service settings
type Config struct {
	MaxTimestampAge time.Duration
}

// NewService creates a new API service instance
func NewService(l *logger.Logger, s store.Store, q queue.Queue, cfg Config) *Service {
	return &Service{
		logger:          l,
		store:           s,
		queue:           q,
		clock:           &queue.Clock{},
		maxTimestampAge: cfg.MaxTimestampAge,
	}
}

// Routes returns the service mux
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /player-data/submit", s.withGameAuth(s.handleSubmit))
	mux.HandleFunc("GET /player-data/me", s.withGameAuth(s.handleFetchOwn))
	mux.HandleFunc("GET /player-data/game/{gameId}", s.withGameAuth(s.handleFetchByGame))
	return mux
}

// envelope is the response shape shared by all player data endpoints
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
	TempID  string       `json:"tempId,omitempty"`
}

// dataEnvelope always carries the data key, explicitly null when no record
// exists
type dataEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{Success: false, Error: msg})
}
