// internal/services/ranking.go
package services

import (
	"sort"

	"github.com/javajoker/clubhub/internal/models"
)

// GetRankedClubs orders clubs by member count, largest first, and assigns
// 1-based ranks. Ties keep their input order. The input slice is not modified.
func GetRankedClubs(clubs []models.Club) []models.RankingClub {
	ranked := make([]models.RankingClub, len(clubs))
	for i, club := range clubs {
		ranked[i] = models.RankingClub{Club: club.Clone()}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Members) > len(ranked[j].Members)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
