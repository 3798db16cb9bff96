package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/domain/standings"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

type winnerFixture struct {
	leagues   *stubLeagueRepo
	entries   *stubEntryRepo
	games     *stubGameRepo
	picks     *stubPickRepo
	standings *stubStandingsRepo
	publisher *capturePublisher
	svc       *WinnerService
}

// newWinnerFixture builds a three-game week where the last kickoff is the
// Monday night game used as the tiebreaker.
func newWinnerFixture(tiebreaker league.Tiebreaker, entryIDs ...string) *winnerFixture {
	f := &winnerFixture{
		leagues: newStubLeagueRepo(league.League{
			ID: "l1", Season: 2025, DeadlinePolicy: league.DeadlinePerGame,
			ScoringMode: league.ModeStraightUp, Tiebreaker: tiebreaker, IsActive: true,
		}),
		standings: newStubStandingsRepo(),
		publisher: &capturePublisher{},
	}

	sunday := time.Date(2025, 9, 21, 17, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 9, 23, 0, 15, 0, 0, time.UTC)
	f.games = newStubGameRepo(
		game.Game{ID: "g1", LeagueID: "l1", Season: 2025, Week: 3, HomeTeam: "KC", AwayTeam: "BUF", KickoffAt: sunday, Status: game.StatusCompleted},
		game.Game{ID: "g2", LeagueID: "l1", Season: 2025, Week: 3, HomeTeam: "DAL", AwayTeam: "PHI", KickoffAt: sunday.Add(3 * time.Hour), Status: game.StatusCompleted},
		game.Game{ID: "g3", LeagueID: "l1", Season: 2025, Week: 3, HomeTeam: "DET", AwayTeam: "GB", KickoffAt: monday, Status: game.StatusCompleted},
	)
	f.games.results["g1"] = game.Result{GameID: "g1", HomeScore: 27, AwayScore: 20, WinnerTeam: "KC", IsFinal: true}
	f.games.results["g2"] = game.Result{GameID: "g2", HomeScore: 10, AwayScore: 24, WinnerTeam: "PHI", IsFinal: true}
	f.games.results["g3"] = game.Result{GameID: "g3", HomeScore: 24, AwayScore: 20, WinnerTeam: "DET", IsFinal: true}

	stubEntries := make([]entry.Entry, 0, len(entryIDs))
	for _, id := range entryIDs {
		stubEntries = append(stubEntries, entry.Entry{ID: id, LeagueID: "l1", Season: 2025, DisplayName: id, IsActive: true})
	}
	f.entries = newStubEntryRepo(stubEntries...)
	f.picks = newStubPickRepo(f.games)

	f.svc = NewWinnerService(f.leagues, f.entries, f.games, f.picks, f.standings, f.publisher, logging.NewNop())
	return f
}

// addWeek gives an entry a full 1..3 permutation: points on the winners it
// got right determine its weekly total.
func (f *winnerFixture) addWeek(entryID string, teams [3]string, values [3]int) {
	gameIDs := [3]string{"g1", "g2", "g3"}
	for i := range gameIDs {
		f.picks.Create(context.Background(), pick.Pick{
			ID:      entryID + "-" + gameIDs[i],
			EntryID: entryID, GameID: gameIDs[i], Week: 3,
			Team: teams[i], ConfidencePoints: values[i],
		})
	}
}

func TestResolveWeekSingleWinner(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerNone, "e1", "e2")
	// e1: KC(3) + PHI(2) + DET(1) all correct = 6.
	f.addWeek("e1", [3]string{"KC", "PHI", "DET"}, [3]int{3, 2, 1})
	// e2: BUF(3) wrong, PHI(1) + DET(2) correct = 3.
	f.addWeek("e2", [3]string{"BUF", "PHI", "DET"}, [3]int{3, 1, 2})

	winners, err := f.svc.ResolveWeek(context.Background(), "l1", 3)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "e1", winners[0].EntryID)
	assert.False(t, winners[0].IsTiedWinner)
	assert.Equal(t, 1, winners[0].TiedEntriesCount)

	scores, err := f.standings.ListWeeklyScores(context.Background(), "l1", 3)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "e1", scores[0].EntryID)
	assert.Equal(t, 6, scores[0].TotalPoints)
	assert.Equal(t, 3, scores[0].GamesCorrect)
	assert.True(t, scores[0].IsWeeklyWinner)
	assert.Equal(t, 3, scores[1].TotalPoints)
	assert.False(t, scores[1].IsWeeklyWinner)

	require.Len(t, f.publisher.standings, 1)
	require.Len(t, f.publisher.winners, 1)
}

func TestResolveWeekMNFTiebreaker(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerMNFTotal, "e1", "e2", "e3")
	// e1 and e2 tie on points; e3 trails and must not enter the tiebreak.
	f.addWeek("e1", [3]string{"KC", "PHI", "DET"}, [3]int{3, 2, 1})
	f.addWeek("e2", [3]string{"KC", "PHI", "DET"}, [3]int{2, 3, 1})
	f.addWeek("e3", [3]string{"BUF", "DAL", "GB"}, [3]int{1, 2, 3})

	// Monday night finished 24-20, combined 44. e1 guessed 51, e2 guessed
	// 47: |47-44| beats |51-44|.
	f.standings.predictions[weekKey("l1", 3)] = []standings.TiebreakerPrediction{
		{EntryID: "e1", Week: 3, PredictedTotal: 51},
		{EntryID: "e2", Week: 3, PredictedTotal: 47},
		{EntryID: "e3", Week: 3, PredictedTotal: 44},
	}

	winners, err := f.svc.ResolveWeek(context.Background(), "l1", 3)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "e2", winners[0].EntryID)
	assert.False(t, winners[0].IsTiedWinner)
	assert.Equal(t, 2, winners[0].TiedEntriesCount)
	require.NotNil(t, winners[0].TiebreakerValue)
	assert.Equal(t, 47, *winners[0].TiebreakerValue)
}

func TestResolveWeekTieWithoutTiebreakerSharesWin(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerNone, "e1", "e2", "e3")
	f.addWeek("e1", [3]string{"KC", "PHI", "DET"}, [3]int{3, 2, 1})
	f.addWeek("e2", [3]string{"KC", "PHI", "DET"}, [3]int{2, 3, 1})
	f.addWeek("e3", [3]string{"KC", "PHI", "DET"}, [3]int{1, 2, 3})

	winners, err := f.svc.ResolveWeek(context.Background(), "l1", 3)
	require.NoError(t, err)
	require.Len(t, winners, 3)
	for _, w := range winners {
		assert.True(t, w.IsTiedWinner)
		assert.Equal(t, 3, w.TiedEntriesCount)
	}
}

func TestResolveWeekTiebreakerUnavailableSharesWin(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerMNFTotal, "e1", "e2")
	f.addWeek("e1", [3]string{"KC", "PHI", "DET"}, [3]int{3, 2, 1})
	f.addWeek("e2", [3]string{"KC", "PHI", "DET"}, [3]int{2, 3, 1})

	// The deciding game has not finished; the tiebreaker cannot apply.
	mnf := f.games.results["g3"]
	mnf.IsFinal = false
	mnf.WinnerTeam = ""
	f.games.results["g3"] = mnf
	mnfGame := f.games.games["g3"]
	mnfGame.Status = game.StatusInProgress
	f.games.games["g3"] = mnfGame

	winners, err := f.svc.ResolveWeek(context.Background(), "l1", 3)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	for _, w := range winners {
		assert.True(t, w.IsTiedWinner)
	}
}

func TestResolveWeekRerunAfterCorrectionReplacesState(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerNone, "e1", "e2")
	f.addWeek("e1", [3]string{"KC", "PHI", "DET"}, [3]int{3, 2, 1})
	f.addWeek("e2", [3]string{"BUF", "PHI", "DET"}, [3]int{3, 2, 1})

	ctx := context.Background()
	winners, err := f.svc.ResolveWeek(ctx, "l1", 3)
	require.NoError(t, err)
	require.Equal(t, "e1", winners[0].EntryID)

	// Stat correction: BUF actually won game 1. The rerun must crown e2
	// and leave no trace of the earlier resolution.
	f.games.results["g1"] = game.Result{GameID: "g1", HomeScore: 20, AwayScore: 27, WinnerTeam: "BUF", IsFinal: true}

	winners, err = f.svc.ResolveWeek(ctx, "l1", 3)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "e2", winners[0].EntryID)

	stored, err := f.standings.ListWeeklyWinners(ctx, "l1", 3)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "e2", stored[0].EntryID)
	assert.Equal(t, 2, f.standings.replaceRuns)
}

func TestResolveWeekIgnoresStoredPickState(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerNone, "e1")
	f.addWeek("e1", [3]string{"KC", "PHI", "DET"}, [3]int{3, 2, 1})

	// Corrupt the stored correctness; resolution must recompute from the
	// results, not trust what the row claims.
	p, _, _ := f.picks.GetByID(context.Background(), "e1-g1")
	p.Correctness = pick.CorrectnessIncorrect
	p.PointsEarned = 0
	f.picks.picks[p.ID] = p

	_, err := f.svc.ResolveWeek(context.Background(), "l1", 3)
	require.NoError(t, err)

	scores, err := f.standings.ListWeeklyScores(context.Background(), "l1", 3)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 6, scores[0].TotalPoints)
}

func TestResolveWeekValidation(t *testing.T) {
	t.Parallel()

	f := newWinnerFixture(league.TiebreakerNone, "e1")

	_, err := f.svc.ResolveWeek(context.Background(), "", 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ResolveWeek(context.Background(), "l1", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ResolveWeek(context.Background(), "ghost", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}
