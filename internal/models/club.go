// internal/models/club.go
package models

type Club struct {
	ID           string                      `json:"id" gorm:"primaryKey;size:64"`
	Name         string                      `json:"name" gorm:"size:100;not null"`
	Description  string                      `json:"description" gorm:"type:text"`
	Department   string                      `json:"department" gorm:"size:100"`
	Members      JSONList[Member]            `json:"members" gorm:"type:jsonb;not null"`
	Activities   JSONList[Activity]          `json:"activities" gorm:"type:jsonb;not null"`
	RollingPaper JSONList[RollingPaperEntry] `json:"rolling_paper" gorm:"type:jsonb;not null"`
	Timestamps
}

type Member struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
	Role         string `json:"role,omitempty"`
	Department   string `json:"department,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Activity is a club-authored update. Author is free text, not a member reference.
type Activity struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

// RollingPaperEntry is a guestbook message; same shape as Activity, separate list.
type RollingPaperEntry struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

// RankingClub is derived on every read and never persisted.
type RankingClub struct {
	Club
	Rank int `json:"rank"`
}

// Clone returns a deep copy so callers can mutate lists without touching the source.
func (c Club) Clone() Club {
	out := c
	out.Members = append(JSONList[Member]{}, c.Members...)
	out.Activities = append(JSONList[Activity]{}, c.Activities...)
	out.RollingPaper = append(JSONList[RollingPaperEntry]{}, c.RollingPaper...)
	return out
}

// CloneClubs deep-copies a club slice.
func CloneClubs(clubs []Club) []Club {
	out := make([]Club, len(clubs))
	for i, c := range clubs {
		out[i] = c.Clone()
	}
	return out
}

// FindClub returns a copy of the club with the given id.
func FindClub(clubs []Club, id string) (*Club, bool) {
	for _, c := range clubs {
		if c.ID == id {
			found := c.Clone()
			return &found, true
		}
	}
	return nil, false
}
