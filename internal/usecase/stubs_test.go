package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/domain/standings"
)

type stubLeagueRepo struct {
	mu      sync.Mutex
	leagues map[string]league.League
}

func newStubLeagueRepo(leagues ...league.League) *stubLeagueRepo {
	repo := &stubLeagueRepo{leagues: make(map[string]league.League)}
	for _, lg := range leagues {
		repo.leagues[lg.ID] = lg
	}
	return repo
}

func (r *stubLeagueRepo) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lg, ok := r.leagues[leagueID]
	return lg, ok, nil
}

func (r *stubLeagueRepo) ListActive(_ context.Context) ([]league.League, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]league.League, 0, len(r.leagues))
	for _, lg := range r.leagues {
		if lg.IsActive {
			out = append(out, lg)
		}
	}
	return out, nil
}

type stubEntryRepo struct {
	mu      sync.Mutex
	entries map[string]entry.Entry
}

func newStubEntryRepo(entries ...entry.Entry) *stubEntryRepo {
	repo := &stubEntryRepo{entries: make(map[string]entry.Entry)}
	for _, e := range entries {
		repo.entries[e.ID] = e
	}
	return repo
}

func (r *stubEntryRepo) GetByID(_ context.Context, entryID string) (entry.Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryID]
	return e, ok, nil
}

func (r *stubEntryRepo) ListActiveByLeague(_ context.Context, leagueID string) ([]entry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entry.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.LeagueID == leagueID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubGameRepo struct {
	mu      sync.Mutex
	games   map[string]game.Game
	results map[string]game.Result
}

func newStubGameRepo(games ...game.Game) *stubGameRepo {
	repo := &stubGameRepo{
		games:   make(map[string]game.Game),
		results: make(map[string]game.Result),
	}
	for _, g := range games {
		repo.games[g.ID] = g
	}
	return repo
}

func (r *stubGameRepo) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[gameID]
	return g, ok, nil
}

func (r *stubGameRepo) GetResult(_ context.Context, gameID string) (game.Result, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[gameID]
	return result, ok, nil
}

func (r *stubGameRepo) ListByLeagueWeek(_ context.Context, leagueID string, week int) ([]game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.Game, 0)
	for _, g := range r.games {
		if g.LeagueID == leagueID && g.Week == week {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGameRepo) ListUnlockedByLeague(_ context.Context, leagueID string) ([]game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.Game, 0)
	for _, g := range r.games {
		if g.LeagueID == leagueID && g.LockedAt == nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGameRepo) ListLockedPendingFallback(_ context.Context, leagueID string) ([]game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.Game, 0)
	for _, g := range r.games {
		if g.LeagueID == leagueID && g.LockedAt != nil && g.FallbackDoneAt == nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGameRepo) MarkFallbackDone(_ context.Context, gameID string, doneAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[gameID]
	if !ok {
		return nil
	}
	at := doneAt
	g.FallbackDoneAt = &at
	r.games[gameID] = g
	return nil
}

func (r *stubGameRepo) ListResultsByLeagueWeek(_ context.Context, leagueID string, week int) ([]game.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.Result, 0)
	for gameID, result := range r.results {
		g, ok := r.games[gameID]
		if ok && g.LeagueID == leagueID && g.Week == week {
			out = append(out, result)
		}
	}
	return out, nil
}

// stubPickRepo backs picks with a map and mirrors the transactional side
// effects the postgres repository performs on games and results, including
// the per-entry-week confidence uniqueness the picks table enforces.
// applyFallbackErr, when set, fails the next ApplyFallback exactly once.
type stubPickRepo struct {
	mu               sync.Mutex
	picks            map[string]pick.Pick
	gameRepo         *stubGameRepo
	applyFallbackErr error
}

func newStubPickRepo(gameRepo *stubGameRepo, picks ...pick.Pick) *stubPickRepo {
	repo := &stubPickRepo{picks: make(map[string]pick.Pick), gameRepo: gameRepo}
	for _, p := range picks {
		repo.picks[p.ID] = p
	}
	return repo
}

func (r *stubPickRepo) GetByID(_ context.Context, pickID string) (pick.Pick, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.picks[pickID]
	return p, ok, nil
}

func (r *stubPickRepo) ListByGame(_ context.Context, gameID string) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pick.Pick, 0)
	for _, p := range r.picks {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPickRepo) ListByEntryWeek(_ context.Context, entryID string, week int) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pick.Pick, 0)
	for _, p := range r.picks {
		if p.EntryID == entryID && p.Week == week {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPickRepo) ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pick.Pick, 0)
	for _, p := range r.picks {
		if p.Week != week {
			continue
		}
		g, ok := r.gameRepo.games[p.GameID]
		if ok && g.LeagueID == leagueID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPickRepo) ApplyGameResult(_ context.Context, result game.Result, status game.Status, evals []pick.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gameRepo.mu.Lock()
	g := r.gameRepo.games[result.GameID]
	g.Status = status
	r.gameRepo.games[result.GameID] = g
	r.gameRepo.results[result.GameID] = result
	r.gameRepo.mu.Unlock()

	for _, eval := range evals {
		p, ok := r.picks[eval.PickID]
		if !ok {
			continue
		}
		p.Correctness = eval.Correctness
		p.PointsEarned = eval.PointsEarned
		r.picks[p.ID] = p
	}
	return nil
}

func (r *stubPickRepo) LockGamePicks(_ context.Context, gameID string, lockedAt time.Time) (pick.LockOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gameRepo.mu.Lock()
	g := r.gameRepo.games[gameID]
	outcome := pick.LockOutcome{GameLocked: g.LockedAt == nil}
	if outcome.GameLocked {
		at := lockedAt
		g.LockedAt = &at
		r.gameRepo.games[gameID] = g
	}
	r.gameRepo.mu.Unlock()

	for id, p := range r.picks {
		if p.GameID != gameID || p.IsLocked {
			continue
		}
		at := lockedAt
		p.IsLocked = true
		p.LockedAt = &at
		r.picks[id] = p
		outcome.EntryIDs = append(outcome.EntryIDs, p.EntryID)
	}
	return outcome, nil
}

func (r *stubPickRepo) ApplyFallback(_ context.Context, plan pick.FallbackPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.applyFallbackErr != nil {
		err := r.applyFallbackErr
		r.applyFallbackErr = nil
		return err
	}

	for _, shift := range plan.Shifts {
		p, ok := r.picks[shift.PickID]
		if !ok {
			continue
		}
		p.ConfidencePoints = shift.ToPoints
		r.picks[p.ID] = p
	}

	at := plan.LockedAt
	fallbackID := plan.PickID
	if fallbackID == "" {
		fallbackID = "fb-" + plan.EntryID + "-" + plan.GameID
	}
	r.picks[fallbackID] = pick.Pick{
		ID:               fallbackID,
		EntryID:          plan.EntryID,
		GameID:           plan.GameID,
		Week:             plan.Week,
		Team:             pick.NoSelection,
		ConfidencePoints: plan.AssignedPoints,
		Correctness:      pick.CorrectnessPending,
		IsLocked:         true,
		LockedAt:         &at,
	}
	return nil
}

func (r *stubPickRepo) Create(_ context.Context, p pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picks[p.ID] = p
	return nil
}

func (r *stubPickRepo) UpdateConfidence(_ context.Context, pickID string, confidencePoints int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.picks[pickID]
	for _, other := range r.picks {
		if other.ID != pickID && other.EntryID == p.EntryID && other.Week == p.Week && other.ConfidencePoints == confidencePoints {
			return fmt.Errorf("confidence %d already held by pick %s", confidencePoints, other.ID)
		}
	}
	p.ConfidencePoints = confidencePoints
	r.picks[pickID] = p
	return nil
}

func (r *stubPickRepo) SwapConfidence(_ context.Context, pickID string, confidencePoints int, otherPickID string, otherConfidencePoints int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.picks[pickID]
	other, otherOK := r.picks[otherPickID]
	if !ok || !otherOK {
		return fmt.Errorf("swap confidence: pick missing")
	}

	p.ConfidencePoints = confidencePoints
	other.ConfidencePoints = otherConfidencePoints
	r.picks[pickID] = p
	r.picks[otherPickID] = other

	// The real statement is checked against the unique index once, on its
	// final state.
	seen := make(map[string]string)
	for _, candidate := range r.picks {
		key := candidate.EntryID + "/" + strconv.Itoa(candidate.Week) + "/" + strconv.Itoa(candidate.ConfidencePoints)
		if holder, dup := seen[key]; dup {
			return fmt.Errorf("confidence %d held by both %s and %s", candidate.ConfidencePoints, holder, candidate.ID)
		}
		seen[key] = candidate.ID
	}
	return nil
}

func (r *stubPickRepo) Unlock(_ context.Context, pickID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.picks[pickID]
	p.IsLocked = false
	p.LockedAt = nil
	r.picks[pickID] = p
	return nil
}

type stubStandingsRepo struct {
	mu          sync.Mutex
	scores      map[string][]standings.WeeklyScore
	winners     map[string][]standings.WeeklyWinner
	predictions map[string][]standings.TiebreakerPrediction
	replaceRuns int
}

func newStubStandingsRepo() *stubStandingsRepo {
	return &stubStandingsRepo{
		scores:      make(map[string][]standings.WeeklyScore),
		winners:     make(map[string][]standings.WeeklyWinner),
		predictions: make(map[string][]standings.TiebreakerPrediction),
	}
}

func weekKey(leagueID string, week int) string {
	return leagueID + "/" + strconv.Itoa(week)
}

func (r *stubStandingsRepo) ListWeeklyScores(_ context.Context, leagueID string, week int) ([]standings.WeeklyScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[weekKey(leagueID, week)], nil
}

func (r *stubStandingsRepo) ListSeasonScores(_ context.Context, leagueID string) ([]standings.WeeklyScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]standings.WeeklyScore, 0)
	for _, weekScores := range r.scores {
		for _, sc := range weekScores {
			if sc.LeagueID == leagueID {
				out = append(out, sc)
			}
		}
	}
	return out, nil
}

func (r *stubStandingsRepo) ListWeeklyWinners(_ context.Context, leagueID string, week int) ([]standings.WeeklyWinner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winners[weekKey(leagueID, week)], nil
}

func (r *stubStandingsRepo) ListTiebreakerPredictions(_ context.Context, leagueID string, week int) ([]standings.TiebreakerPrediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.predictions[weekKey(leagueID, week)], nil
}

func (r *stubStandingsRepo) ReplaceWeek(_ context.Context, leagueID string, week int, scores []standings.WeeklyScore, winners []standings.WeeklyWinner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := weekKey(leagueID, week)
	r.scores[key] = scores
	r.winners[key] = winners
	r.replaceRuns++
	return nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *stubAuditRepo) Append(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *stubAuditRepo) ListByEntryWeek(_ context.Context, entryID string, week int) ([]audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Entry, 0)
	for _, e := range r.entries {
		if e.EntryID == entryID && e.Week == week {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubAuditRepo) ListByLeagueWeek(_ context.Context, _ string, week int, filter audit.Filter) ([]audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Entry, 0)
	for _, e := range r.entries {
		if e.Week != week {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.CommissionerOnly && !e.IsCommissionerAction {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// capturePublisher records every published event for assertions.
type capturePublisher struct {
	mu        sync.Mutex
	results   []GameResultEvent
	locks     []GameLockEvent
	standings []StandingsUpdateEvent
	winners   []WeeklyWinnerEvent
}

func (p *capturePublisher) PublishGameResult(_ context.Context, event GameResultEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, event)
	return nil
}

func (p *capturePublisher) PublishGameLock(_ context.Context, event GameLockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locks = append(p.locks, event)
	return nil
}

func (p *capturePublisher) PublishStandingsUpdate(_ context.Context, event StandingsUpdateEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.standings = append(p.standings, event)
	return nil
}

func (p *capturePublisher) PublishWeeklyWinner(_ context.Context, event WeeklyWinnerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.winners = append(p.winners, event)
	return nil
}
