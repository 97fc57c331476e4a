package service

import (
	"sort"

	"leaguevote/internal/domain"
)

// Tally counts votes per player, ordered by votes descending then player id ascending
func Tally(votes []*domain.Vote) []domain.PlayerTally {
	counts := make(map[string]int)
	for _, v := range votes {
		if v == nil {
			continue
		}
		counts[v.PlayerID]++
	}

	tally := make([]domain.PlayerTally, 0, len(counts))
	for playerID, n := range counts {
		tally = append(tally, domain.PlayerTally{PlayerID: playerID, Votes: n})
	}
	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Votes != tally[j].Votes {
			return tally[i].Votes > tally[j].Votes
		}
		return tally[i].PlayerID < tally[j].PlayerID
	})
	return tally
}

// SelectWinner picks the player with the most votes; ties go to the lowest player id.
// With threshold > 0 the winner needs at least threshold votes.
func SelectWinner(tally []domain.PlayerTally, threshold int) (domain.PlayerTally, bool) {
	var best domain.PlayerTally
	found := false
	for _, t := range tally {
		if t.Votes <= 0 {
			continue
		}
		if !found || t.Votes > best.Votes || (t.Votes == best.Votes && t.PlayerID < best.PlayerID) {
			best = t
			found = true
		}
	}
	if !found {
		return domain.PlayerTally{}, false
	}
	if threshold > 0 && best.Votes < threshold {
		return domain.PlayerTally{}, false
	}
	return best, true
}

func totalVotes(tally []domain.PlayerTally) int {
	total := 0
	for _, t := range tally {
		total += t.Votes
	}
	return total
}
