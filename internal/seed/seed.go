// Package seed holds the static club dataset used in mock mode and to seed an
// empty remote store.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/clubhub/internal/models"
)

// DefaultCharacterImage is the bundled avatar used when generation fails.
const DefaultCharacterImage = "/assets/characters/blue_character1.png"

//go:embed clubs.json
var rawDataset []byte

var namespace = uuid.MustParse("6f1c2a9e-5b1d-4c8e-9a53-2f0d7c3e8b41")

type entrySpec struct {
	Content string `json:"content"`
	Author  string `json:"author"`
	DaysAgo int    `json:"days_ago"`
}

type clubSpec struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Department   string      `json:"department"`
	MemberCount  int         `json:"member_count"`
	MemberOffset int         `json:"member_offset"`
	Activities   []entrySpec `json:"activities"`
	RollingPaper []entrySpec `json:"rolling_paper"`
}

type datasetSpec struct {
	MemberNames []string   `json:"member_names"`
	Clubs       []clubSpec `json:"clubs"`
}

var (
	once    sync.Once
	dataset []models.Club
	loadErr error
)

// Clubs returns a deep copy of the static dataset. The dataset is built once per
// process, so every call returns identical content.
func Clubs() []models.Club {
	once.Do(func() {
		dataset, loadErr = build(rawDataset, time.Now())
	})
	if loadErr != nil {
		panic(fmt.Sprintf("seed: invalid embedded dataset: %v", loadErr))
	}
	return models.CloneClubs(dataset)
}

// Find returns a copy of the static club with the given id.
func Find(id string) (*models.Club, bool) {
	return models.FindClub(Clubs(), id)
}

func build(raw []byte, now time.Time) ([]models.Club, error) {
	var doc datasetSpec
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.MemberNames) == 0 {
		return nil, fmt.Errorf("member_names is empty")
	}

	clubs := make([]models.Club, 0, len(doc.Clubs))
	for _, cs := range doc.Clubs {
		clubID := uuid.NewSHA1(namespace, []byte(cs.Name))
		club := models.Club{
			ID:           clubID.String(),
			Name:         cs.Name,
			Description:  cs.Description,
			Department:   cs.Department,
			Members:      models.JSONList[models.Member]{},
			Activities:   models.JSONList[models.Activity]{},
			RollingPaper: models.JSONList[models.RollingPaperEntry]{},
		}

		for i := 0; i < cs.MemberCount; i++ {
			club.Members = append(club.Members, models.Member{
				ID:           childID(clubID, "member", i),
				Name:         doc.MemberNames[(i+cs.MemberOffset)%len(doc.MemberNames)],
				ProfileImage: characterImage(i),
			})
		}
		for i, a := range cs.Activities {
			club.Activities = append(club.Activities, models.Activity{
				ID:        childID(clubID, "activity", i),
				Content:   a.Content,
				Author:    a.Author,
				CreatedAt: daysAgo(now, a.DaysAgo),
			})
		}
		for i, r := range cs.RollingPaper {
			club.RollingPaper = append(club.RollingPaper, models.RollingPaperEntry{
				ID:        childID(clubID, "rolling-paper", i),
				Content:   r.Content,
				Author:    r.Author,
				CreatedAt: daysAgo(now, r.DaysAgo),
			})
		}
		clubs = append(clubs, club)
	}
	return clubs, nil
}

func childID(parent uuid.UUID, kind string, i int) string {
	return uuid.NewSHA1(parent, []byte(fmt.Sprintf("%s-%d", kind, i))).String()
}

func characterImage(i int) string {
	colors := []string{"blue", "yellow"}
	return fmt.Sprintf("/assets/characters/%s_character%d.png", colors[i%len(colors)], i%4+1)
}

func daysAgo(now time.Time, days int) string {
	return now.AddDate(0, 0, -days).UTC().Format(time.RFC3339Nano)
}
