package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

type commissionerAssignRequest struct {
	EntryID          string `json:"entry_id" validate:"required"`
	GameID           string `json:"game_id" validate:"required"`
	Team             string `json:"team" validate:"required"`
	ConfidencePoints int    `json:"confidence_points" validate:"required,min=1"`
	Commissioner     string `json:"commissioner" validate:"required"`
	Reason           string `json:"reason" validate:"required"`
}

type commissionerAdjustRequest struct {
	PickID           string `json:"pick_id" validate:"required"`
	ConfidencePoints int    `json:"confidence_points" validate:"required,min=1"`
	Commissioner     string `json:"commissioner" validate:"required"`
	Reason           string `json:"reason" validate:"required"`
}

type commissionerUnlockRequest struct {
	PickID       string `json:"pick_id" validate:"required"`
	Commissioner string `json:"commissioner" validate:"required"`
	Reason       string `json:"reason" validate:"required"`
}

func (h *Handler) CommissionerAssignPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CommissionerAssignPick")
	defer span.End()

	var req commissionerAssignRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.commissionerService.AssignPick(ctx, usecase.AssignPickInput{
		EntryID:          req.EntryID,
		GameID:           req.GameID,
		Team:             req.Team,
		ConfidencePoints: req.ConfidencePoints,
		Commissioner:     req.Commissioner,
		Reason:           req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "commissioner assign failed",
			"entry_id", req.EntryID, "game_id", req.GameID, "commissioner", req.Commissioner, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, pickToDTO(created))
}

func (h *Handler) CommissionerAdjustWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CommissionerAdjustWeight")
	defer span.End()

	var req commissionerAdjustRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.commissionerService.AdjustWeight(ctx, usecase.AdjustWeightInput{
		PickID:           req.PickID,
		ConfidencePoints: req.ConfidencePoints,
		Commissioner:     req.Commissioner,
		Reason:           req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "commissioner adjust failed",
			"pick_id", req.PickID, "commissioner", req.Commissioner, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "adjusted"})
}

func (h *Handler) CommissionerUnlockPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CommissionerUnlockPick")
	defer span.End()

	var req commissionerUnlockRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.commissionerService.Unlock(ctx, usecase.UnlockInput{
		PickID:       req.PickID,
		Commissioner: req.Commissioner,
		Reason:       req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "commissioner unlock failed",
			"pick_id", req.PickID, "commissioner", req.Commissioner, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "unlocked"})
}
