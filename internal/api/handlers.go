// internal/api/handlers.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/events"
	"sponsorloop-workers/internal/common/metrics"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
	"sponsorloop-workers/internal/profilestore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	metricsSource = "api"

	limitAll      = "all"
	maxEventBytes = 64 << 10
)

// clientTopics are the topics the presentation layer may publish to.
var clientTopics = map[string]bool{
	events.TopicRecommendationsOpen: true,
	events.TopicNavigationHome:      true,
}

type matchesResponse struct {
	Matches []matching.MatchResult `json:"matches"`
	Count   int                    `json:"count"`
	Limit   int                    `json:"limit,omitempty"`
	EventID string                 `json:"eventId,omitempty"`
}

type profilesResponse struct {
	Profiles []models.Profile `json:"profiles"`
	Count    int              `json:"count"`
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health == nil {
		writeMessage(w, http.StatusOK, "ready")
		return
	}
	failures := h.deps.Health.Check(r.Context())
	if len(failures) == 0 {
		writeMessage(w, http.StatusOK, "ready")
		return
	}

	checks := make(map[string]string, len(failures))
	for name, err := range failures {
		checks[name] = err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status": "unavailable",
		"checks": checks,
	})
}

// getMatches ranks the opposite role for the authenticated viewer.
// limit=all returns every filtered candidate for the dashboard grid.
func (h *Handler) getMatches(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFromContext(r.Context())
	if !ok {
		writeStandardError(w, errors.NewViewerResolutionFailedError(fmt.Errorf("no viewer on request")))
		return
	}

	params := r.URL.Query()
	limit, all, err := h.parseLimit(params.Get("limit"))
	if err != nil {
		writeStandardError(w, err)
		return
	}

	candidates, err := h.deps.Store.ListByRole(r.Context(), viewer.CandidateRole())
	if err != nil {
		h.logger.Error("Failed to load candidates", map[string]interface{}{
			"requestId": middleware.GetReqID(r.Context()),
			"error":     err,
		})
		writeStandardError(w, errors.NewProfileStoreFailedError("list candidates", err))
		return
	}

	q := matching.NewSearchQuery(params.Get("text"), params.Get("category"))
	var results []matching.MatchResult
	if all {
		results = h.deps.Engine.MatchAll(candidates, q, viewer)
	} else {
		results, err = h.deps.Engine.Match(candidates, q, viewer, limit)
		if err != nil {
			writeStandardError(w, errors.NewInvalidLimitError(limit, err))
			return
		}
	}

	metrics.ObserveMatch(metricsSource, string(viewer.Role), len(candidates), len(results))
	h.deps.Observability.RecordMatches(r.Context(), metricsSource, string(viewer.Role), len(results))

	resp := matchesResponse{Matches: results, Count: len(results), Limit: limit}
	if h.deps.Bus != nil {
		evt, err := h.deps.Bus.Publish(r.Context(), events.TopicMatchesRanked, events.MatchesRanked{
			ViewerID:   viewer.UserID,
			ViewerRole: string(viewer.Role),
			Text:       q.Text,
			Category:   q.Category,
			Source:     metricsSource,
			Matches:    events.RankedFrom(results),
		})
		if err != nil {
			h.logger.Warn("Failed to publish ranked matches", map[string]interface{}{
				"requestId": middleware.GetReqID(r.Context()),
				"error":     err,
			})
		} else {
			resp.EventID = evt.ID
		}
	}

	writeSuccess(w, http.StatusOK, resp)
}

// parseLimit returns limit 0 with all set for "all".
func (h *Handler) parseLimit(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return h.deps.Matching.DefaultLimit, false, nil
	case strings.EqualFold(raw, limitAll):
		return 0, true, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errors.NewInvalidFilterFormatError(fmt.Sprintf("limit %q is not an integer", raw))
	}
	if limit <= 0 {
		return 0, false, errors.NewInvalidLimitError(limit, matching.ErrInvalidLimit)
	}
	if h.deps.Matching.MaxLimit > 0 && limit > h.deps.Matching.MaxLimit {
		limit = h.deps.Matching.MaxLimit
	}
	return limit, false, nil
}

// listProfiles is the unranked filter over one role.
func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	role, err := models.ParseRole(params.Get("role"))
	if err != nil {
		writeStandardError(w, errors.NewInvalidRoleError(params.Get("role")))
		return
	}

	profiles, err := h.deps.Store.SearchByText(r.Context(), role, params.Get("text"), params.Get("category"))
	if err != nil {
		writeStandardError(w, errors.NewProfileStoreFailedError("search profiles", err))
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	writeSuccess(w, http.StatusOK, profilesResponse{Profiles: profiles, Count: len(profiles)})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profile, err := h.deps.Store.Get(r.Context(), id)
	switch {
	case stderrors.Is(err, profilestore.ErrNotFound):
		writeStandardError(w, errors.NewProfileNotFoundError(id))
	case err != nil:
		writeStandardError(w, errors.NewProfileStoreFailedError("get profile", err))
	default:
		writeSuccess(w, http.StatusOK, profile)
	}
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	if h.deps.Writer == nil {
		writeError(w, http.StatusNotImplemented, "READ_ONLY", profilestore.ErrReadOnly.Error())
		return
	}

	var p models.Profile
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeStandardError(w, errors.NewInputValidationFailedError(fmt.Sprintf("decode profile: %v", err)))
		return
	}

	created, err := h.deps.Writer.Create(r.Context(), p)
	switch {
	case err == nil:
		h.logger.Info("Profile registered", map[string]interface{}{
			"profileId": created.ID,
			"role":      string(created.Role),
		})
		writeSuccess(w, http.StatusCreated, created)
	case stderrors.Is(err, models.ErrInvalidProfile), stderrors.Is(err, profilestore.ErrBadRole):
		writeStandardError(w, errors.NewInputValidationFailedError(err.Error()))
	case stderrors.Is(err, profilestore.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE_PROFILE", err.Error())
	case stderrors.Is(err, profilestore.ErrReadOnly):
		writeError(w, http.StatusNotImplemented, "READ_ONLY", err.Error())
	default:
		writeStandardError(w, errors.NewProfileStoreFailedError("create profile", err))
	}
}

// publishEvent forwards a presentation signal such as opening the
// recommendations view.
func (h *Handler) publishEvent(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if !events.ValidTopic(topic) {
		writeError(w, http.StatusNotFound, events.ErrUnknownTopic.Error(), fmt.Sprintf("topic %q is not known", topic))
		return
	}
	if !clientTopics[topic] {
		writeError(w, http.StatusForbidden, "TOPIC_NOT_PUBLISHABLE", fmt.Sprintf("topic %q is published by the server", topic))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		writeStandardError(w, errors.NewInputValidationFailedError(err.Error()))
		return
	}

	var payload interface{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if !json.Valid(body) {
			writeStandardError(w, errors.NewInputValidationFailedError("event payload is not valid JSON"))
			return
		}
		payload = json.RawMessage(body)
	} else if viewer, ok := viewerFromContext(r.Context()); ok {
		payload = events.RecommendationsOpen{ViewerID: viewer.UserID, Category: r.URL.Query().Get("category")}
	}

	evt, err := h.deps.Bus.Publish(r.Context(), topic, payload)
	if err != nil {
		writeStandardError(w, errors.NewEventPublishFailedError(topic, err))
		return
	}
	writeSuccess(w, http.StatusAccepted, evt)
}
