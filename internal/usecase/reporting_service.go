package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/domain/standings"
	"github.com/pickemlab/confidence-pool/internal/platform/cache"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

// WeekStanding is one row of the week leaderboard.
type WeekStanding struct {
	Rank         int    `json:"rank"`
	EntryID      string `json:"entry_id"`
	DisplayName  string `json:"display_name"`
	TotalPoints  int    `json:"total_points"`
	GamesCorrect int    `json:"games_correct"`
	GamesPicked  int    `json:"games_picked"`
	IsWinner     bool   `json:"is_winner"`
}

// SeasonStanding is one row of the season leaderboard. Weekly wins rank
// ahead of cumulative points.
type SeasonStanding struct {
	Rank        int    `json:"rank"`
	EntryID     string `json:"entry_id"`
	DisplayName string `json:"display_name"`
	WeeklyWins  int    `json:"weekly_wins"`
	TotalPoints int    `json:"total_points"`
}

// EntryWeekPick is one pick with its game context, for the entry detail view.
type EntryWeekPick struct {
	PickID           string           `json:"pick_id"`
	GameID           string           `json:"game_id"`
	HomeTeam         string           `json:"home_team"`
	AwayTeam         string           `json:"away_team"`
	Team             string           `json:"team"`
	IsFallback       bool             `json:"is_fallback"`
	ConfidencePoints int              `json:"confidence_points"`
	Correctness      pick.Correctness `json:"correctness"`
	PointsEarned     int              `json:"points_earned"`
	IsLocked         bool             `json:"is_locked"`
}

// EntryWeekDetail is everything one entry sees about its own week.
type EntryWeekDetail struct {
	EntryID     string          `json:"entry_id"`
	Week        int             `json:"week"`
	TotalPoints int             `json:"total_points"`
	Picks       []EntryWeekPick `json:"picks"`
}

// ReportingService is the read side: leaderboards and detail views built
// from the persisted standings and picks. Responses are TTL-cached; the
// service also listens to engine events so a result or resolution drops the
// stale keys immediately instead of waiting out the TTL.
type ReportingService struct {
	entries   entry.Repository
	games     game.Repository
	picks     pick.Repository
	standings standings.Repository
	cache     *cache.Store
	logger    *logging.Logger
}

func NewReportingService(
	entries entry.Repository,
	games game.Repository,
	picks pick.Repository,
	standingsRepo standings.Repository,
	store *cache.Store,
	logger *logging.Logger,
) *ReportingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportingService{
		entries:   entries,
		games:     games,
		picks:     picks,
		standings: standingsRepo,
		cache:     store,
		logger:    logger,
	}
}

// WeekStandings returns the ranked weekly leaderboard from the last
// resolution run.
func (s *ReportingService) WeekStandings(ctx context.Context, leagueID string, week int) ([]WeekStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportingService.WeekStandings")
	defer span.End()

	if leagueID == "" || week < 1 {
		return nil, fmt.Errorf("%w: league id and week are required", ErrInvalidInput)
	}

	key := fmt.Sprintf("standings:%s:week:%d", leagueID, week)
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.loadWeekStandings(ctx, leagueID, week)
	})
	if err != nil {
		return nil, err
	}
	return value.([]WeekStanding), nil
}

func (s *ReportingService) loadWeekStandings(ctx context.Context, leagueID string, week int) ([]WeekStanding, error) {
	scores, err := s.standings.ListWeeklyScores(ctx, leagueID, week)
	if err != nil {
		return nil, fmt.Errorf("list weekly scores: %w", err)
	}
	names, err := s.displayNames(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalPoints != scores[j].TotalPoints {
			return scores[i].TotalPoints > scores[j].TotalPoints
		}
		return scores[i].EntryID < scores[j].EntryID
	})

	rows := make([]WeekStanding, 0, len(scores))
	for i, sc := range scores {
		rank := i + 1
		if i > 0 && sc.TotalPoints == scores[i-1].TotalPoints {
			rank = rows[i-1].Rank
		}
		rows = append(rows, WeekStanding{
			Rank:         rank,
			EntryID:      sc.EntryID,
			DisplayName:  names[sc.EntryID],
			TotalPoints:  sc.TotalPoints,
			GamesCorrect: sc.GamesCorrect,
			GamesPicked:  sc.GamesPicked,
			IsWinner:     sc.IsWeeklyWinner,
		})
	}
	return rows, nil
}

// SeasonLeaderboard aggregates every resolved week. Ordering is weekly wins
// first, cumulative points second, entry id as the stable last resort.
func (s *ReportingService) SeasonLeaderboard(ctx context.Context, leagueID string) ([]SeasonStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportingService.SeasonLeaderboard")
	defer span.End()

	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	key := "standings:" + leagueID + ":season"
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.loadSeasonLeaderboard(ctx, leagueID)
	})
	if err != nil {
		return nil, err
	}
	return value.([]SeasonStanding), nil
}

func (s *ReportingService) loadSeasonLeaderboard(ctx context.Context, leagueID string) ([]SeasonStanding, error) {
	scores, err := s.standings.ListSeasonScores(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list season scores: %w", err)
	}
	names, err := s.displayNames(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*SeasonStanding)
	for _, sc := range scores {
		row, ok := totals[sc.EntryID]
		if !ok {
			row = &SeasonStanding{EntryID: sc.EntryID, DisplayName: names[sc.EntryID]}
			totals[sc.EntryID] = row
		}
		row.TotalPoints += sc.TotalPoints
		if sc.IsWeeklyWinner {
			row.WeeklyWins++
		}
	}

	rows := make([]SeasonStanding, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WeeklyWins != rows[j].WeeklyWins {
			return rows[i].WeeklyWins > rows[j].WeeklyWins
		}
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		return rows[i].EntryID < rows[j].EntryID
	})
	for i := range rows {
		rows[i].Rank = i + 1
		if i > 0 && rows[i].WeeklyWins == rows[i-1].WeeklyWins && rows[i].TotalPoints == rows[i-1].TotalPoints {
			rows[i].Rank = rows[i-1].Rank
		}
	}
	return rows, nil
}

// EntryWeekDetail assembles one entry's picks with game context and the
// stored correctness state. Not cached; it is a low-traffic member view and
// staleness here is more visible than on leaderboards.
func (s *ReportingService) EntryWeekDetail(ctx context.Context, entryID string, week int) (EntryWeekDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportingService.EntryWeekDetail")
	defer span.End()

	if entryID == "" || week < 1 {
		return EntryWeekDetail{}, fmt.Errorf("%w: entry id and week are required", ErrInvalidInput)
	}

	e, found, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return EntryWeekDetail{}, fmt.Errorf("get entry: %w", err)
	}
	if !found {
		return EntryWeekDetail{}, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}

	weekGames, err := s.games.ListByLeagueWeek(ctx, e.LeagueID, week)
	if err != nil {
		return EntryWeekDetail{}, fmt.Errorf("list week games: %w", err)
	}
	gamesByID := make(map[string]game.Game, len(weekGames))
	for _, g := range weekGames {
		gamesByID[g.ID] = g
	}

	entryPicks, err := s.picks.ListByEntryWeek(ctx, entryID, week)
	if err != nil {
		return EntryWeekDetail{}, fmt.Errorf("list entry week picks: %w", err)
	}
	sort.Slice(entryPicks, func(i, j int) bool {
		return entryPicks[i].ConfidencePoints > entryPicks[j].ConfidencePoints
	})

	detail := EntryWeekDetail{EntryID: entryID, Week: week, Picks: make([]EntryWeekPick, 0, len(entryPicks))}
	for _, p := range entryPicks {
		g := gamesByID[p.GameID]
		detail.Picks = append(detail.Picks, EntryWeekPick{
			PickID:           p.ID,
			GameID:           p.GameID,
			HomeTeam:         g.HomeTeam,
			AwayTeam:         g.AwayTeam,
			Team:             p.Team,
			IsFallback:       p.IsFallback(),
			ConfidencePoints: p.ConfidencePoints,
			Correctness:      p.Correctness,
			PointsEarned:     p.PointsEarned,
			IsLocked:         p.IsLocked,
		})
		detail.TotalPoints += p.PointsEarned
	}
	return detail, nil
}

// WeekWinners returns the persisted winner rows for a resolved week.
func (s *ReportingService) WeekWinners(ctx context.Context, leagueID string, week int) ([]standings.WeeklyWinner, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportingService.WeekWinners")
	defer span.End()

	if leagueID == "" || week < 1 {
		return nil, fmt.Errorf("%w: league id and week are required", ErrInvalidInput)
	}
	winners, err := s.standings.ListWeeklyWinners(ctx, leagueID, week)
	if err != nil {
		return nil, fmt.Errorf("list weekly winners: %w", err)
	}
	return winners, nil
}

func (s *ReportingService) displayNames(ctx context.Context, leagueID string) (map[string]string, error) {
	activeEntries, err := s.entries.ListActiveByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}
	names := make(map[string]string, len(activeEntries))
	for _, e := range activeEntries {
		names[e.ID] = e.DisplayName
	}
	return names, nil
}

// ReportingService doubles as an event subscriber: engine events evict the
// cache keys they invalidate, composed behind MultiPublisher in app wiring.

func (s *ReportingService) PublishGameResult(ctx context.Context, event GameResultEvent) error {
	s.cache.DeletePrefix(ctx, "standings:"+event.LeagueID)
	return nil
}

func (s *ReportingService) PublishGameLock(ctx context.Context, event GameLockEvent) error {
	s.cache.Delete(ctx, fmt.Sprintf("standings:%s:week:%d", event.LeagueID, event.Week))
	return nil
}

func (s *ReportingService) PublishStandingsUpdate(ctx context.Context, event StandingsUpdateEvent) error {
	s.cache.DeletePrefix(ctx, "standings:"+event.LeagueID)
	return nil
}

func (s *ReportingService) PublishWeeklyWinner(ctx context.Context, event WeeklyWinnerEvent) error {
	s.cache.DeletePrefix(ctx, "standings:"+event.LeagueID)
	return nil
}
