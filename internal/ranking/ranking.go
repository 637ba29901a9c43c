// Package ranking scores answers and orders players with competition
// ranking: position = 1 + number of players with a strictly higher score.
package ranking

import "sort"

// PointsCorrect is the award for a correct answer when no override is configured.
const PointsCorrect = 20

// Player is a ranking input.
type Player struct {
	Identity string
	Name     string
	Score    int
}

// Standing is a ranked player.
type Standing struct {
	Identity string
	Name     string
	Score    int
	Position int
}

// Award returns the points for one answer. There is no partial or speed credit.
func Award(correct bool, points int) int {
	if !correct {
		return 0
	}
	return points
}

// Rank sorts by descending score and assigns shared positions to ties, leaving
// gaps after them: [120,120,80,60,60] -> [1,1,3,4,4]. Equal scores are ordered
// by name then identity so the output does not depend on input order.
func Rank(players []Player) []Standing {
	sorted := make([]Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Identity < sorted[j].Identity
	})

	standings := make([]Standing, len(sorted))
	position := 1
	for i, p := range sorted {
		if i > 0 && p.Score < sorted[i-1].Score {
			position = i + 1
		}
		standings[i] = Standing{Identity: p.Identity, Name: p.Name, Score: p.Score, Position: position}
	}
	return standings
}

// Winners returns every player holding the maximum score, so an all-zero
// session makes everyone a winner.
func Winners(players []Player) []Player {
	if len(players) == 0 {
		return nil
	}
	top := players[0].Score
	for _, p := range players[1:] {
		if p.Score > top {
			top = p.Score
		}
	}
	var winners []Player
	for _, p := range players {
		if p.Score == top {
			winners = append(winners, p)
		}
	}
	sort.Slice(winners, func(i, j int) bool {
		if winners[i].Name != winners[j].Name {
			return winners[i].Name < winners[j].Name
		}
		return winners[i].Identity < winners[j].Identity
	})
	return winners
}
