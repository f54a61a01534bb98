package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/judgelink/apiserver/internal/mq"
	"github.com/judgelink/apiserver/internal/parse"
	"github.com/judgelink/apiserver/internal/services"
	"github.com/judgelink/apiserver/types"
)

const eventPublishTimeout = 5 * time.Second

// QueryHandler serves the inline query surface.
type QueryHandler struct {
	builder *services.ResultBuilder
	events  *mq.Events
}

// NewQueryHandler constructs a handler with the provided dependencies.
func NewQueryHandler(builder *services.ResultBuilder, events *mq.Events) *QueryHandler {
	return &QueryHandler{builder: builder, events: events}
}

// QueryRouter registers query routes on the given router.
func QueryRouter(r chi.Router, builder *services.ResultBuilder, events *mq.Events) {
	handler := NewQueryHandler(builder, events)

	r.Get("/query", handler.Query)
	r.Get("/chosen", handler.Chosen)
}

// QueryResponse is the answer set for one inline query.
type QueryResponse struct {
	Items []types.SuggestItem `json:"items"`
}

// ChosenResponse is the descriptor re-derived from a picked suggestion.
type ChosenResponse struct {
	Platform   string `json:"platform"`
	Normalized string `json:"normalized"`
	URL        string `json:"url"`
}

// Query resolves a raw text token into suggestion items. Text that matches
// no grammar rule yields an empty item list, never an error.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")

	res := parse.Parse(text)
	items := h.builder.Build(r.Context(), res)
	if items == nil {
		items = []types.SuggestItem{}
	}

	if res.Kind != parse.KindNone {
		go h.publishQueryEvent(res, len(items))
	}

	writeJSON(w, http.StatusOK, QueryResponse{Items: items})
}

// Chosen handles the "user picked result id X for original text Y" event.
// The id is decoded and the original text re-parsed; both derivations must
// agree before the descriptor is returned.
func (h *QueryHandler) Chosen(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	text := r.URL.Query().Get("text")

	decoded, err := parse.DecodeResultID(id)
	if err != nil || decoded.Kind != parse.KindProblem {
		writeError(w, http.StatusBadRequest, "invalid result id")
		return
	}

	if text != "" && !descriptorsAgree(decoded, parse.Parse(text)) {
		writeError(w, http.StatusBadRequest, "result id does not match query text")
		return
	}

	writeJSON(w, http.StatusOK, ChosenResponse{
		Platform:   string(decoded.Problem.Platform),
		Normalized: decoded.Problem.Normalized,
		URL:        decoded.Problem.URL,
	})
}

// descriptorsAgree checks that a decoded result id is consistent with the
// re-parsed original text: identical descriptors for a single-problem query,
// or a problem inside the named contest for a listing pick.
func descriptorsAgree(decoded, reparsed parse.Result) bool {
	switch reparsed.Kind {
	case parse.KindProblem:
		return decoded.Problem.Platform == reparsed.Problem.Platform &&
			decoded.Problem.Normalized == reparsed.Problem.Normalized
	case parse.KindContest:
		return decoded.Problem.Platform == reparsed.Contest.Platform &&
			decoded.Problem.ContestID == reparsed.Contest.ContestID
	default:
		return false
	}
}

// publishQueryEvent runs outside the request lifetime; the response path
// never awaits it.
func (h *QueryHandler) publishQueryEvent(res parse.Result, items int) {
	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()

	event := mq.QueryResolvedEvent{Items: items}
	switch res.Kind {
	case parse.KindProblem:
		event.Platform = string(res.Problem.Platform)
		event.Normalized = res.Problem.Normalized
		event.Kind = "problem"
	case parse.KindContest:
		event.Platform = string(res.Contest.Platform)
		event.Normalized = res.Contest.ContestID
		event.Kind = "contest"
	}
	h.events.QueryResolved(ctx, event)
}
