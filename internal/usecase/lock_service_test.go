package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

func lockFixture(policy league.DeadlinePolicy) (*stubLeagueRepo, *stubGameRepo, *stubPickRepo, *stubEntryRepo) {
	leagues := newStubLeagueRepo(league.League{
		ID: "l1", Season: 2025, DeadlinePolicy: policy,
		ScoringMode: league.ModeStraightUp, IsActive: true,
	})

	thursday := time.Date(2025, 9, 18, 0, 15, 0, 0, time.UTC)
	sunday := time.Date(2025, 9, 21, 17, 0, 0, 0, time.UTC)
	gameRepo := newStubGameRepo(
		game.Game{ID: "g-thu", LeagueID: "l1", Season: 2025, Week: 3, HomeTeam: "H1", AwayTeam: "A1", KickoffAt: thursday, Status: game.StatusScheduled},
		game.Game{ID: "g-sun", LeagueID: "l1", Season: 2025, Week: 3, HomeTeam: "H2", AwayTeam: "A2", KickoffAt: sunday, Status: game.StatusScheduled},
	)

	entries := newStubEntryRepo(entry.Entry{ID: "e1", LeagueID: "l1", Season: 2025, IsActive: true})
	pickRepo := newStubPickRepo(gameRepo,
		pick.Pick{ID: "e1-thu", EntryID: "e1", GameID: "g-thu", Week: 3, Team: "H1", ConfidencePoints: 1},
		pick.Pick{ID: "e1-sun", EntryID: "e1", GameID: "g-sun", Week: 3, Team: "H2", ConfidencePoints: 2},
	)
	return leagues, gameRepo, pickRepo, entries
}

func newLockService(leagues *stubLeagueRepo, gameRepo *stubGameRepo, pickRepo *stubPickRepo, entries *stubEntryRepo, publisher EventPublisher, at time.Time) *LockService {
	fallback := NewFallbackService(entries, gameRepo, pickRepo, NewAuditRecorder(&stubAuditRepo{}, nil, logging.NewNop()), logging.NewNop())
	svc := NewLockService(leagues, gameRepo, pickRepo, fallback, publisher, logging.NewNop())
	svc.now = func() time.Time { return at }
	return svc
}

func TestTickPerGameLocksOnlyStartedGames(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo, entries := lockFixture(league.DeadlinePerGame)
	publisher := &capturePublisher{}

	// Friday: the Thursday game has kicked off, Sunday has not.
	friday := time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC)
	svc := newLockService(leagues, gameRepo, pickRepo, entries, publisher, friday)

	summary, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if summary.GamesLocked != 1 {
		t.Fatalf("games locked = %d, want 1", summary.GamesLocked)
	}

	thuPick, _, _ := pickRepo.GetByID(context.Background(), "e1-thu")
	if !thuPick.IsLocked {
		t.Fatal("thursday pick not locked after its kickoff")
	}
	sunPick, _, _ := pickRepo.GetByID(context.Background(), "e1-sun")
	if sunPick.IsLocked {
		t.Fatal("sunday pick locked before its kickoff")
	}

	if len(publisher.locks) != 1 || publisher.locks[0].GameID != "g-thu" {
		t.Fatalf("lock events = %+v, want one for g-thu", publisher.locks)
	}
}

func TestTickLeagueWideLocksWholeWeekAtFirstKickoff(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo, entries := lockFixture(league.DeadlineLeagueWideFirstGame)
	publisher := &capturePublisher{}

	friday := time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC)
	svc := newLockService(leagues, gameRepo, pickRepo, entries, publisher, friday)

	summary, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if summary.GamesLocked != 2 {
		t.Fatalf("games locked = %d, want the whole week (2)", summary.GamesLocked)
	}

	sunPick, _, _ := pickRepo.GetByID(context.Background(), "e1-sun")
	if !sunPick.IsLocked {
		t.Fatal("sunday pick must lock when the week's first game starts")
	}
}

func TestTickIsIdempotent(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo, entries := lockFixture(league.DeadlinePerGame)
	publisher := &capturePublisher{}

	friday := time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC)
	svc := newLockService(leagues, gameRepo, pickRepo, entries, publisher, friday)

	if _, err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	summary, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if summary.GamesLocked != 0 {
		t.Fatalf("second tick locked %d games, want 0", summary.GamesLocked)
	}
	if len(publisher.locks) != 1 {
		t.Fatalf("lock events = %d, want exactly 1 across both ticks", len(publisher.locks))
	}
}

func TestTickFillsMissingPicksOnLock(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo, _ := lockFixture(league.DeadlinePerGame)
	// A second entry with no pick on the Thursday game.
	entries := newStubEntryRepo(
		entry.Entry{ID: "e1", LeagueID: "l1", Season: 2025, IsActive: true},
		entry.Entry{ID: "e2", LeagueID: "l1", Season: 2025, IsActive: true},
	)
	pickRepo.Create(context.Background(), pick.Pick{ID: "e2-sun", EntryID: "e2", GameID: "g-sun", Week: 3, Team: "A2", ConfidencePoints: 2})

	publisher := &capturePublisher{}
	friday := time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC)
	svc := newLockService(leagues, gameRepo, pickRepo, entries, publisher, friday)

	summary, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if summary.FallbackPicks != 1 {
		t.Fatalf("fallback picks = %d, want 1", summary.FallbackPicks)
	}

	e2Picks, _ := pickRepo.ListByEntryWeek(context.Background(), "e2", 3)
	var found bool
	for _, p := range e2Picks {
		if p.GameID == "g-thu" && p.IsFallback() && p.IsLocked {
			found = true
		}
	}
	if !found {
		t.Fatalf("e2 picks = %+v, want a locked fallback on g-thu", e2Picks)
	}
	if publisher.locks[0].FallbackPicks != 1 {
		t.Fatalf("lock event fallback count = %d, want 1", publisher.locks[0].FallbackPicks)
	}
}

func TestTickRetriesFallbackUntilApplied(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo, _ := lockFixture(league.DeadlinePerGame)
	entries := newStubEntryRepo(
		entry.Entry{ID: "e1", LeagueID: "l1", Season: 2025, IsActive: true},
		entry.Entry{ID: "e2", LeagueID: "l1", Season: 2025, IsActive: true},
	)
	pickRepo.Create(context.Background(), pick.Pick{ID: "e2-sun", EntryID: "e2", GameID: "g-sun", Week: 3, Team: "A2", ConfidencePoints: 2})

	// The allocation for e2 fails once, after the lock transition has
	// already committed.
	pickRepo.applyFallbackErr = errors.New("connection reset by peer")

	friday := time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC)
	svc := newLockService(leagues, gameRepo, pickRepo, entries, &capturePublisher{}, friday)

	summary, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if summary.GamesLocked != 1 || summary.FallbackPicks != 0 {
		t.Fatalf("first tick = %+v, want the lock to land and the fallback to fail", summary)
	}

	summary, err = svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if summary.FallbackPicks != 1 {
		t.Fatalf("second tick fallback picks = %d, want the failed allocation retried", summary.FallbackPicks)
	}

	e2Picks, _ := pickRepo.ListByEntryWeek(context.Background(), "e2", 3)
	var found bool
	for _, p := range e2Picks {
		if p.GameID == "g-thu" && p.IsFallback() && p.IsLocked {
			found = true
		}
	}
	if !found {
		t.Fatalf("e2 picks = %+v, want a locked fallback on g-thu after the retry", e2Picks)
	}

	summary, err = svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("third tick: %v", err)
	}
	if summary.FallbackPicks != 0 {
		t.Fatalf("third tick fallback picks = %d, want none once the game's pass completed", summary.FallbackPicks)
	}
}
