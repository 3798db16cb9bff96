package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

func resultFixture() (*stubLeagueRepo, *stubGameRepo, *stubPickRepo) {
	leagues := newStubLeagueRepo(league.League{
		ID: "l1", Season: 2025, DeadlinePolicy: league.DeadlinePerGame,
		ScoringMode: league.ModeStraightUp, IsActive: true,
	})
	gameRepo := newStubGameRepo(game.Game{
		ID: "g1", LeagueID: "l1", Season: 2025, Week: 3,
		HomeTeam: "KC", AwayTeam: "BUF",
		KickoffAt: time.Date(2025, 9, 21, 17, 0, 0, 0, time.UTC),
		Status:    game.StatusInProgress,
	})
	pickRepo := newStubPickRepo(gameRepo,
		pick.Pick{ID: "p1", EntryID: "e1", GameID: "g1", Week: 3, Team: "KC", ConfidencePoints: 12},
		pick.Pick{ID: "p2", EntryID: "e2", GameID: "g1", Week: 3, Team: "BUF", ConfidencePoints: 5},
	)
	return leagues, gameRepo, pickRepo
}

func TestProcessGameResultUpdatesPicks(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo := resultFixture()
	publisher := &capturePublisher{}
	svc := NewResultService(leagues, gameRepo, pickRepo, publisher, logging.NewNop())

	updated, err := svc.ProcessGameResult(context.Background(), GameResultInput{
		GameID: "g1", HomeScore: 27, AwayScore: 20, Status: "completed",
	})
	if err != nil {
		t.Fatalf("ProcessGameResult: %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated picks = %d, want 2", updated)
	}

	p1, _, _ := pickRepo.GetByID(context.Background(), "p1")
	if p1.Correctness != pick.CorrectnessCorrect || p1.PointsEarned != 12 {
		t.Fatalf("p1 = %+v, want correct with 12 points", p1)
	}
	p2, _, _ := pickRepo.GetByID(context.Background(), "p2")
	if p2.Correctness != pick.CorrectnessIncorrect || p2.PointsEarned != 0 {
		t.Fatalf("p2 = %+v, want incorrect with 0 points", p2)
	}

	g, _, _ := gameRepo.GetByID(context.Background(), "g1")
	if g.Status != game.StatusCompleted {
		t.Fatalf("game status = %q, want completed", g.Status)
	}
	result, found, _ := gameRepo.GetResult(context.Background(), "g1")
	if !found || !result.IsFinal || result.WinnerTeam != "KC" {
		t.Fatalf("stored result = %+v, want final KC win", result)
	}

	if len(publisher.results) != 1 || publisher.results[0].UpdatedPicks != 2 {
		t.Fatalf("published events = %+v, want one with 2 updated picks", publisher.results)
	}
}

func TestProcessGameResultReIngestionConverges(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo := resultFixture()
	svc := NewResultService(leagues, gameRepo, pickRepo, nil, logging.NewNop())

	input := GameResultInput{GameID: "g1", HomeScore: 27, AwayScore: 20, Status: "completed"}
	if _, err := svc.ProcessGameResult(context.Background(), input); err != nil {
		t.Fatalf("first ingestion: %v", err)
	}
	afterFirst, _, _ := pickRepo.GetByID(context.Background(), "p1")

	if _, err := svc.ProcessGameResult(context.Background(), input); err != nil {
		t.Fatalf("second ingestion: %v", err)
	}
	afterSecond, _, _ := pickRepo.GetByID(context.Background(), "p1")

	if afterFirst != afterSecond {
		t.Fatalf("re-ingestion drifted: %+v vs %+v", afterFirst, afterSecond)
	}
}

func TestProcessGameResultCorrectionFlipsOutcome(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo := resultFixture()
	svc := NewResultService(leagues, gameRepo, pickRepo, nil, logging.NewNop())

	ctx := context.Background()
	if _, err := svc.ProcessGameResult(ctx, GameResultInput{GameID: "g1", HomeScore: 27, AwayScore: 20, Status: "completed"}); err != nil {
		t.Fatalf("initial result: %v", err)
	}

	// A late stat correction reverses the winner; the overwrite must flip
	// both picks, not merely append.
	if _, err := svc.ProcessGameResult(ctx, GameResultInput{GameID: "g1", HomeScore: 20, AwayScore: 27, Status: "completed"}); err != nil {
		t.Fatalf("corrected result: %v", err)
	}

	p1, _, _ := pickRepo.GetByID(ctx, "p1")
	if p1.Correctness != pick.CorrectnessIncorrect || p1.PointsEarned != 0 {
		t.Fatalf("p1 after correction = %+v, want incorrect", p1)
	}
	p2, _, _ := pickRepo.GetByID(ctx, "p2")
	if p2.Correctness != pick.CorrectnessCorrect || p2.PointsEarned != 5 {
		t.Fatalf("p2 after correction = %+v, want correct with 5 points", p2)
	}
}

func TestProcessGameResultValidation(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo := resultFixture()
	svc := NewResultService(leagues, gameRepo, pickRepo, nil, logging.NewNop())

	tests := []struct {
		name  string
		input GameResultInput
		want  error
	}{
		{"unknown status", GameResultInput{GameID: "g1", Status: "halftime"}, ErrInvalidInput},
		{"negative score", GameResultInput{GameID: "g1", HomeScore: -1, Status: "in_progress"}, ErrInvalidInput},
		{"missing game", GameResultInput{GameID: "nope", Status: "completed"}, ErrNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := svc.ProcessGameResult(context.Background(), tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	t.Parallel()

	leagues, gameRepo, pickRepo := resultFixture()
	svc := NewResultService(leagues, gameRepo, pickRepo, nil, logging.NewNop())

	err := svc.ProcessBatch(context.Background(), []GameResultInput{
		{GameID: "missing", HomeScore: 1, AwayScore: 0, Status: "completed"},
		{GameID: "g1", HomeScore: 27, AwayScore: 20, Status: "completed"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("batch err = %v, want ErrNotFound for the missing game", err)
	}

	// The valid game still went through.
	p1, _, _ := pickRepo.GetByID(context.Background(), "p1")
	if p1.Correctness != pick.CorrectnessCorrect {
		t.Fatalf("p1 = %+v, want correct despite sibling failure", p1)
	}
}
