package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/domain/standings"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

// WinnerService recomputes weekly totals from scratch and resolves the
// week's winner. Every run replaces the stored rows wholesale; nothing is
// patched incrementally, so a run after a late correction converges to the
// same state as if the correction had arrived first.
type WinnerService struct {
	leagues   league.Repository
	entries   entry.Repository
	games     game.Repository
	picks     pick.Repository
	standings standings.Repository
	publisher EventPublisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewWinnerService(
	leagues league.Repository,
	entries entry.Repository,
	games game.Repository,
	picks pick.Repository,
	standingsRepo standings.Repository,
	publisher EventPublisher,
	logger *logging.Logger,
) *WinnerService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WinnerService{
		leagues:   leagues,
		entries:   entries,
		games:     games,
		picks:     picks,
		standings: standingsRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveWeek recomputes every entry's weekly score from picks and results,
// picks the winner(s), and commits the whole week atomically. Safe to call
// any number of times and at any point during the week; provisional runs
// simply get replaced by later ones.
func (s *WinnerService) ResolveWeek(ctx context.Context, leagueID string, week int) ([]standings.WeeklyWinner, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WinnerService.ResolveWeek")
	defer span.End()

	if leagueID == "" || week < 1 {
		return nil, fmt.Errorf("%w: league id and week are required", ErrInvalidInput)
	}

	lg, found, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}

	scores, err := s.computeWeekScores(ctx, lg, week)
	if err != nil {
		return nil, err
	}

	winners, err := s.resolveWinners(ctx, lg, week, scores)
	if err != nil {
		return nil, err
	}

	winnerSet := make(map[string]bool, len(winners))
	for _, w := range winners {
		winnerSet[w.EntryID] = true
	}
	for i := range scores {
		scores[i].IsWeeklyWinner = winnerSet[scores[i].EntryID]
	}

	if err := s.standings.ReplaceWeek(ctx, lg.ID, week, scores, winners); err != nil {
		return nil, fmt.Errorf("replace week standings: %w", err)
	}

	if pubErr := s.publisher.PublishStandingsUpdate(ctx, StandingsUpdateEvent{
		LeagueID: lg.ID,
		Week:     week,
		Scores:   scores,
	}); pubErr != nil {
		s.logger.WarnContext(ctx, "publish standings update failed",
			"league_id", lg.ID, "week", week, "error", pubErr)
	}
	if pubErr := s.publisher.PublishWeeklyWinner(ctx, WeeklyWinnerEvent{
		LeagueID: lg.ID,
		Week:     week,
		Winners:  winners,
	}); pubErr != nil {
		s.logger.WarnContext(ctx, "publish weekly winner failed",
			"league_id", lg.ID, "week", week, "error", pubErr)
	}

	return winners, nil
}

// computeWeekScores rebuilds every active entry's total for the week from
// picks, games, and results. Stored pick correctness is ignored: the score
// is always re-derived so a resolution run can never inherit drift.
func (s *WinnerService) computeWeekScores(ctx context.Context, lg league.League, week int) ([]standings.WeeklyScore, error) {
	activeEntries, err := s.entries.ListActiveByLeague(ctx, lg.ID)
	if err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}

	weekGames, err := s.games.ListByLeagueWeek(ctx, lg.ID, week)
	if err != nil {
		return nil, fmt.Errorf("list week games: %w", err)
	}
	gamesByID := make(map[string]game.Game, len(weekGames))
	for _, g := range weekGames {
		gamesByID[g.ID] = g
	}

	results, err := s.games.ListResultsByLeagueWeek(ctx, lg.ID, week)
	if err != nil {
		return nil, fmt.Errorf("list week results: %w", err)
	}
	resultsByGame := make(map[string]game.Result, len(results))
	for _, r := range results {
		resultsByGame[r.GameID] = r
	}

	weekPicks, err := s.picks.ListByLeagueWeek(ctx, lg.ID, week)
	if err != nil {
		return nil, fmt.Errorf("list week picks: %w", err)
	}
	picksByEntry := make(map[string][]pick.Pick, len(activeEntries))
	for _, p := range weekPicks {
		picksByEntry[p.EntryID] = append(picksByEntry[p.EntryID], p)
	}

	scores := make([]standings.WeeklyScore, 0, len(activeEntries))
	for _, e := range activeEntries {
		score := standings.WeeklyScore{
			EntryID:  e.ID,
			LeagueID: lg.ID,
			Week:     week,
		}
		for _, p := range picksByEntry[e.ID] {
			g, ok := gamesByID[p.GameID]
			if !ok {
				continue
			}
			if !p.IsFallback() {
				score.GamesPicked++
			}

			var result *game.Result
			if r, ok := resultsByGame[p.GameID]; ok {
				result = &r
			}
			eval := EvaluatePick(p, g, result, lg.ScoringMode)
			if eval.Correctness == pick.CorrectnessCorrect {
				score.GamesCorrect++
				score.TotalPoints += eval.PointsEarned
			}
		}
		scores = append(scores, score)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalPoints != scores[j].TotalPoints {
			return scores[i].TotalPoints > scores[j].TotalPoints
		}
		return scores[i].EntryID < scores[j].EntryID
	})
	return scores, nil
}

// resolveWinners finds the highest weekly total and, if more than one entry
// holds it, applies the league's tiebreaker. An unbreakable tie (no
// tiebreaker configured, deciding game not final, or equal prediction
// distances) produces one winner row per tied entry, each flagged as tied.
func (s *WinnerService) resolveWinners(ctx context.Context, lg league.League, week int, scores []standings.WeeklyScore) ([]standings.WeeklyWinner, error) {
	if len(scores) == 0 {
		return nil, nil
	}

	top := scores[0].TotalPoints
	tied := make([]string, 0, 1)
	for _, sc := range scores {
		if sc.TotalPoints == top {
			tied = append(tied, sc.EntryID)
		}
	}

	decidedAt := s.now().UTC()
	pointsTied := len(tied)
	predictions := map[string]int{}

	if len(tied) > 1 && lg.Tiebreaker == league.TiebreakerMNFTotal {
		actual, preds, ok, err := s.tiebreakerInputs(ctx, lg, week)
		if err != nil {
			return nil, err
		}
		if ok {
			tied = closestPredictions(tied, preds, actual)
			predictions = preds
		}
	}

	winners := make([]standings.WeeklyWinner, 0, len(tied))
	for _, entryID := range tied {
		w := standings.WeeklyWinner{
			LeagueID:         lg.ID,
			Week:             week,
			EntryID:          entryID,
			IsTiedWinner:     len(tied) > 1,
			TiedEntriesCount: pointsTied,
			DecidedAt:        decidedAt,
		}
		if predicted, ok := predictions[entryID]; ok {
			value := predicted
			w.TiebreakerValue = &value
		}
		winners = append(winners, w)
	}
	return winners, nil
}

// tiebreakerInputs fetches the combined final score of the week's deciding
// game and every prediction for it. The deciding game is the one with the
// latest kickoff of the week. ok is false when the tiebreaker cannot apply
// yet, typically because the deciding game is not final.
func (s *WinnerService) tiebreakerInputs(ctx context.Context, lg league.League, week int) (actual int, predictions map[string]int, ok bool, err error) {
	weekGames, err := s.games.ListByLeagueWeek(ctx, lg.ID, week)
	if err != nil {
		return 0, nil, false, fmt.Errorf("list week games: %w", err)
	}

	var deciding *game.Game
	for i := range weekGames {
		g := weekGames[i]
		if g.Status == game.StatusCancelled {
			continue
		}
		if deciding == nil || g.KickoffAt.After(deciding.KickoffAt) {
			deciding = &weekGames[i]
		}
	}
	if deciding == nil {
		return 0, nil, false, nil
	}

	result, found, err := s.games.GetResult(ctx, deciding.ID)
	if err != nil {
		return 0, nil, false, fmt.Errorf("get deciding game result: %w", err)
	}
	if !found || !result.IsFinal {
		return 0, nil, false, nil
	}

	preds, err := s.standings.ListTiebreakerPredictions(ctx, lg.ID, week)
	if err != nil {
		return 0, nil, false, fmt.Errorf("list tiebreaker predictions: %w", err)
	}
	predictions = make(map[string]int, len(preds))
	for _, p := range preds {
		predictions[p.EntryID] = p.PredictedTotal
	}
	return result.CombinedTotal(), predictions, true, nil
}

// closestPredictions keeps the tied entries whose prediction is nearest the
// actual combined total. Entries without a prediction only survive when
// nobody predicted at all.
func closestPredictions(tied []string, predictions map[string]int, actual int) []string {
	best := -1
	for _, entryID := range tied {
		predicted, ok := predictions[entryID]
		if !ok {
			continue
		}
		distance := predicted - actual
		if distance < 0 {
			distance = -distance
		}
		if best == -1 || distance < best {
			best = distance
		}
	}
	if best == -1 {
		return tied
	}

	closest := make([]string, 0, 1)
	for _, entryID := range tied {
		predicted, ok := predictions[entryID]
		if !ok {
			continue
		}
		distance := predicted - actual
		if distance < 0 {
			distance = -distance
		}
		if distance == best {
			closest = append(closest, entryID)
		}
	}
	return closest
}
