package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/clubhub/internal/models"
	"github.com/javajoker/clubhub/internal/seed"
)

func clubWithMembers(id string, n int) models.Club {
	club := models.NewClub{Name: id}.ToClub(id)
	for i := 0; i < n; i++ {
		club.Members = append(club.Members, models.Member{ID: id + "-" + string(rune('a'+i)), Name: "m"})
	}
	return club
}

func TestGetRankedClubsOrdersByMemberCount(t *testing.T) {
	clubs := []models.Club{
		clubWithMembers("small", 1),
		clubWithMembers("large", 5),
		clubWithMembers("medium", 3),
	}

	ranked := GetRankedClubs(clubs)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"large", "medium", "small"}, rankedIDs(ranked))
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	assert.Equal(t, "small", clubs[0].ID, "input must not be reordered")
}

func TestGetRankedClubsKeepsTieOrder(t *testing.T) {
	forward := []models.Club{clubWithMembers("a", 2), clubWithMembers("b", 2), clubWithMembers("c", 4)}
	assert.Equal(t, []string{"c", "a", "b"}, rankedIDs(GetRankedClubs(forward)))

	reversed := []models.Club{clubWithMembers("b", 2), clubWithMembers("a", 2), clubWithMembers("c", 4)}
	assert.Equal(t, []string{"c", "b", "a"}, rankedIDs(GetRankedClubs(reversed)))
}

func TestGetRankedClubsIsIdempotent(t *testing.T) {
	clubs := seed.Clubs()
	assert.Equal(t, GetRankedClubs(clubs), GetRankedClubs(clubs))
}

func TestGetRankedClubsEmpty(t *testing.T) {
	assert.Empty(t, GetRankedClubs(nil))
}

func TestGetRankedClubsStaticDataset(t *testing.T) {
	ranked := GetRankedClubs(seed.Clubs())

	ranks := map[string]int{}
	for _, r := range ranked {
		ranks[r.Name] = r.Rank
	}
	assert.Equal(t, 1, ranks["코딩사파리"])
	assert.Greater(t, ranks["문학동아리 책갈피"], ranks["코딩사파리"])
	assert.Equal(t, len(ranked), ranks["문학동아리 책갈피"])
}

func rankedIDs(ranked []models.RankingClub) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}
