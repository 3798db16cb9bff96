package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

type Handler struct {
	resultService       *usecase.ResultService
	lockService         *usecase.LockService
	winnerService       *usecase.WinnerService
	commissionerService *usecase.CommissionerService
	reportingService    *usecase.ReportingService
	auditRecorder       *usecase.AuditRecorder
	logger              *logging.Logger
	validator           *validator.Validate
}

func NewHandler(
	resultService *usecase.ResultService,
	lockService *usecase.LockService,
	winnerService *usecase.WinnerService,
	commissionerService *usecase.CommissionerService,
	reportingService *usecase.ReportingService,
	auditRecorder *usecase.AuditRecorder,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		resultService:       resultService,
		lockService:         lockService,
		winnerService:       winnerService,
		commissionerService: commissionerService,
		reportingService:    reportingService,
		auditRecorder:       auditRecorder,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func weekPathValue(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("week"))
	week, err := strconv.Atoi(raw)
	if err != nil || week <= 0 {
		return 0, fmt.Errorf("%w: week must be a positive integer, got %q", usecase.ErrInvalidInput, raw)
	}
	return week, nil
}
