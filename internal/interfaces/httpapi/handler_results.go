package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

// feed payloads are small; the limit guards against a misbehaving caller.
const maxResultsBody = 1 << 20

type gameResultRequest struct {
	GameID    string `json:"game_id" validate:"required"`
	HomeScore int    `json:"home_score" validate:"min=0"`
	AwayScore int    `json:"away_score" validate:"min=0"`
	Status    string `json:"status" validate:"required"`
}

type ingestResultsResponse struct {
	GamesProcessed int `json:"games_processed"`
	PicksUpdated   int `json:"picks_updated"`
}

// IngestResults accepts one result object or a JSON array of them. The feed
// retries on non-2xx, and re-sending an already applied result converges to
// the same state, so the route is safe to hammer.
func (h *Handler) IngestResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestResults")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxResultsBody))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err))
		return
	}

	requests, err := h.decodeResultRequests(body)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	for _, req := range requests {
		if err := h.validateRequest(ctx, req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	if len(requests) == 1 {
		updated, err := h.resultService.ProcessGameResult(ctx, usecase.GameResultInput{
			GameID:    requests[0].GameID,
			HomeScore: requests[0].HomeScore,
			AwayScore: requests[0].AwayScore,
			Status:    requests[0].Status,
		})
		if err != nil {
			h.logger.WarnContext(ctx, "ingest result failed", "game_id", requests[0].GameID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, ingestResultsResponse{GamesProcessed: 1, PicksUpdated: updated})
		return
	}

	inputs := make([]usecase.GameResultInput, 0, len(requests))
	for _, req := range requests {
		inputs = append(inputs, usecase.GameResultInput{
			GameID:    req.GameID,
			HomeScore: req.HomeScore,
			AwayScore: req.AwayScore,
			Status:    req.Status,
		})
	}
	if err := h.resultService.ProcessBatch(ctx, inputs); err != nil {
		h.logger.WarnContext(ctx, "ingest result batch failed", "games", len(inputs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ingestResultsResponse{GamesProcessed: len(inputs)})
}

func (h *Handler) decodeResultRequests(body []byte) ([]gameResultRequest, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: request body is empty", usecase.ErrInvalidInput)
	}

	if strings.HasPrefix(trimmed, "[") {
		var requests []gameResultRequest
		if err := sonic.Unmarshal(body, &requests); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
		if len(requests) == 0 {
			return nil, fmt.Errorf("%w: result batch is empty", usecase.ErrInvalidInput)
		}
		return requests, nil
	}

	var single gameResultRequest
	if err := sonic.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return []gameResultRequest{single}, nil
}

// RunLockTick triggers one scheduler pass outside the timer, for ops use.
func (h *Handler) RunLockTick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLockTick")
	defer span.End()

	summary, err := h.lockService.Tick(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual lock tick failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}
