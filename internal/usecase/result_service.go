package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

const defaultIngestWorkers = 4

// GameResultInput is one authoritative score update from the external feed.
type GameResultInput struct {
	GameID    string
	HomeScore int
	AwayScore int
	Status    string
}

// ResultService applies authoritative game results and recomputes the picks
// they affect.
type ResultService struct {
	leagues   league.Repository
	games     game.Repository
	picks     pick.Repository
	publisher EventPublisher
	logger    *logging.Logger
	workers   int
	now       func() time.Time
}

func NewResultService(
	leagues league.Repository,
	games game.Repository,
	picks pick.Repository,
	publisher EventPublisher,
	logger *logging.Logger,
) *ResultService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResultService{
		leagues:   leagues,
		games:     games,
		picks:     picks,
		publisher: publisher,
		logger:    logger,
		workers:   defaultIngestWorkers,
		now:       time.Now,
	}
}

// ProcessGameResult upserts the result, updates game status, and recomputes
// every pick on the game in one transaction. Overwrite semantics: re-running
// with identical input converges on the same final state.
func (s *ResultService) ProcessGameResult(ctx context.Context, input GameResultInput) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ProcessGameResult")
	defer span.End()

	status := game.NormalizeStatus(input.Status)
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown game status %q", ErrInvalidInput, input.Status)
	}
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return 0, fmt.Errorf("%w: scores cannot be negative", ErrInvalidInput)
	}

	g, ok, err := s.games.GetByID(ctx, input.GameID)
	if err != nil {
		return 0, fmt.Errorf("get game for result: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: game %s", ErrNotFound, input.GameID)
	}

	lg, ok, err := s.leagues.GetByID(ctx, g.LeagueID)
	if err != nil {
		return 0, fmt.Errorf("get league for result: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: league %s", ErrNotFound, g.LeagueID)
	}

	result := buildResult(g, input, status)

	gamePicks, err := s.picks.ListByGame(ctx, g.ID)
	if err != nil {
		return 0, fmt.Errorf("list picks for result: %w", err)
	}

	// Evaluate against the incoming result, not the stored one, so the
	// evaluation and the upsert commit together.
	g.Status = status
	evals := EvaluateGamePicks(gamePicks, g, &result, lg.ScoringMode)

	if err := s.picks.ApplyGameResult(ctx, result, status, evals); err != nil {
		return 0, fmt.Errorf("apply game result: %w", err)
	}

	event := GameResultEvent{
		LeagueID:     g.LeagueID,
		Game:         g,
		Result:       result,
		UpdatedPicks: len(evals),
	}
	if err := s.publisher.PublishGameResult(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish game result event failed",
			"game_id", g.ID, "error", err)
	}

	return len(evals), nil
}

// ProcessBatch ingests results for distinct games concurrently. Per-game
// failures do not stop the rest of the batch; the joined error reports them.
func (s *ResultService) ProcessBatch(ctx context.Context, inputs []GameResultInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ProcessBatch")
	defer span.End()

	if len(inputs) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(s.workers)
	for _, input := range inputs {
		input := input
		p.Go(func() error {
			if _, err := s.ProcessGameResult(ctx, input); err != nil {
				return fmt.Errorf("ingest result game=%s: %w", input.GameID, err)
			}
			return nil
		})
	}
	return p.Wait()
}

func buildResult(g game.Game, input GameResultInput, status game.Status) game.Result {
	result := game.Result{
		GameID:    g.ID,
		HomeScore: input.HomeScore,
		AwayScore: input.AwayScore,
		IsFinal:   status == game.StatusCompleted,
	}
	if result.IsFinal {
		// The declared winner stays empty on a true tie.
		result.WinnerTeam = result.Leader(g)
	}
	return result
}
