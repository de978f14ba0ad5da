package worker

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/rapport/internal/registry"
	"github.com/thebtf/rapport/pkg/models"
)

// ingestRequest is the body of POST /api/events.
type ingestRequest struct {
	UserID string              `json:"user_id"`
	Events []models.UsageEvent `json:"events"`
}

// handleIngestEvents buffers raw usage events for a user identity. Events
// are not classified here; the next cycle for that identity picks them up.
func (s *Service) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	s.hub.Source(req.UserID).Add(req.Events...)
	s.processor.EnsureUser(req.UserID)

	respondJSON(w, http.StatusAccepted, map[string]any{
		"buffered": len(req.Events),
	})
}

// handleRunCycle triggers one query cycle for a user. This is the host
// scheduler's entry point; scheduling policy lives with the caller.
func (s *Service) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	productive, err := s.processor.RunCycle(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Cycle failed")
		respondError(w, http.StatusInternalServerError, "cycle failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"productive": productive,
	})
}

// handleStatus reports per-identity watermarks and overall counters.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.events.CountEvents(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"users":          s.processor.Status(),
		"derived_events": total,
	})
}

// handlePackageEvents serves derived events for one package. With category
// and key it reads one bucket; without, the package's recent events across
// all buckets.
func (s *Service) handlePackageEvents(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "packageName")
	category := models.EventCategory(r.URL.Query().Get("category"))
	key := r.URL.Query().Get("key")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if key != "" {
		if category != models.CategoryShortcutBased && category != models.CategoryLocusBased {
			respondError(w, http.StatusBadRequest, "category must be shortcut_based or locus_based")
			return
		}
		events, err := s.events.RecentEvents(r.Context(), packageName, category, key, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load events")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"events": events})
		return
	}

	rows, err := s.events.PackageEvents(r.Context(), packageName, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	views := make([]bucketEventView, 0, len(rows))
	for i := range rows {
		views = append(views, bucketEventView{
			Category: rows[i].Category,
			Key:      rows[i].BucketKey,
			Event:    rows[i].Event(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": views})
}

// bucketEventView is a derived event together with the bucket it lives in.
type bucketEventView struct {
	Category models.EventCategory     `json:"category"`
	Key      string                   `json:"key"`
	Event    models.ConversationEvent `json:"event"`
}

// handleListConversations lists a package's registered conversations.
func (s *Service) handleListConversations(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "packageName")

	agg := s.registry.ResolvePackage(packageName)
	if agg == nil {
		respondJSON(w, http.StatusOK, map[string]any{"conversations": []models.ConversationInfo{}})
		return
	}
	pkg := agg.(*registry.Package)
	respondJSON(w, http.StatusOK, map[string]any{"conversations": pkg.Conversations()})
}

// handleRegisterConversation registers a conversation, persisting it and
// making it resolvable immediately.
func (s *Service) handleRegisterConversation(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "packageName")

	var info models.ConversationInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if info.ShortcutID == "" {
		respondError(w, http.StatusBadRequest, "shortcut_id is required")
		return
	}

	if err := s.conversations.Upsert(r.Context(), packageName, info); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to persist conversation")
		return
	}
	s.registry.AddConversation(packageName, info)

	respondJSON(w, http.StatusCreated, info)
}

// handleRemoveConversation removes a conversation registration.
func (s *Service) handleRemoveConversation(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "packageName")
	shortcutID := chi.URLParam(r, "shortcutID")

	if err := s.conversations.Delete(r.Context(), packageName, shortcutID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	s.registry.RemoveConversation(packageName, shortcutID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": s.version})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
