package usecase

import (
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
)

// EvaluatePick derives correctness and earned points for one pick from the
// current authoritative game state. It is deterministic and side-effect
// free: re-invoking it with the same inputs always yields the same output,
// which is what makes result re-ingestion drift-free.
//
// Rules:
//   - no recorded result, or the game has not started: Pending
//   - tied score (or exact spread push) while the game is live: Pending
//   - final with no determinable winner: Incorrect for every pick on the
//     game; a push credits nobody
//   - otherwise Correct iff the selected team matches the leader (live) or
//     the declared winner (final) under the league's scoring mode
func EvaluatePick(p pick.Pick, g game.Game, result *game.Result, mode league.ScoringMode) pick.Evaluation {
	eval := pick.Evaluation{PickID: p.ID, Correctness: pick.CorrectnessPending}

	if result == nil || g.Status == game.StatusScheduled {
		return eval
	}

	leader := determineLeader(g, *result, mode)
	if leader == "" {
		if !result.IsFinal {
			return eval
		}
		eval.Correctness = pick.CorrectnessIncorrect
		return eval
	}

	if p.Team == leader {
		eval.Correctness = pick.CorrectnessCorrect
		eval.PointsEarned = p.ConfidencePoints
		return eval
	}

	eval.Correctness = pick.CorrectnessIncorrect
	return eval
}

func determineLeader(g game.Game, result game.Result, mode league.ScoringMode) string {
	if mode == league.ModeAgainstSpread && g.HasLine() {
		leader, push := game.SpreadLeader(g, result)
		if push {
			return ""
		}
		return leader
	}

	if result.IsFinal && result.WinnerTeam != "" {
		return result.WinnerTeam
	}
	return result.Leader(g)
}

// EvaluateGamePicks recomputes every pick on a game in bulk.
func EvaluateGamePicks(picks []pick.Pick, g game.Game, result *game.Result, mode league.ScoringMode) []pick.Evaluation {
	evals := make([]pick.Evaluation, 0, len(picks))
	for _, p := range picks {
		evals = append(evals, EvaluatePick(p, g, result, mode))
	}
	return evals
}
