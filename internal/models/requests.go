// internal/models/requests.go
package models

// NewClub is a club without an id. Nil lists become empty lists. ID is only
// set internally when seeding; request bodies cannot choose it.
type NewClub struct {
	ID           string              `json:"-"`
	Name         string              `json:"name" validate:"required,notblank,max=100"`
	Description  string              `json:"description" validate:"max=2000"`
	Department   string              `json:"department" validate:"max=100"`
	Members      []Member            `json:"members,omitempty"`
	Activities   []Activity          `json:"activities,omitempty"`
	RollingPaper []RollingPaperEntry `json:"rolling_paper,omitempty"`
}

// ToClub builds a club with the given id and non-nil lists.
func (n NewClub) ToClub(id string) Club {
	club := Club{
		ID:           id,
		Name:         n.Name,
		Description:  n.Description,
		Department:   n.Department,
		Members:      JSONList[Member]{},
		Activities:   JSONList[Activity]{},
		RollingPaper: JSONList[RollingPaperEntry]{},
	}
	club.Members = append(club.Members, n.Members...)
	club.Activities = append(club.Activities, n.Activities...)
	club.RollingPaper = append(club.RollingPaper, n.RollingPaper...)
	return club
}

// ClubPatch holds optional fields; nil leaves the field unchanged.
type ClubPatch struct {
	Name         *string              `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string              `json:"description,omitempty" validate:"omitempty,max=2000"`
	Department   *string              `json:"department,omitempty" validate:"omitempty,max=100"`
	Members      *[]Member            `json:"members,omitempty"`
	Activities   *[]Activity          `json:"activities,omitempty"`
	RollingPaper *[]RollingPaperEntry `json:"rolling_paper,omitempty"`
}

// Apply returns a copy of club with the patch applied.
func (p ClubPatch) Apply(club Club) Club {
	out := club.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Department != nil {
		out.Department = *p.Department
	}
	if p.Members != nil {
		out.Members = append(JSONList[Member]{}, *p.Members...)
	}
	if p.Activities != nil {
		out.Activities = append(JSONList[Activity]{}, *p.Activities...)
	}
	if p.RollingPaper != nil {
		out.RollingPaper = append(JSONList[RollingPaperEntry]{}, *p.RollingPaper...)
	}
	return out
}

// Columns returns the column updates the patch implies.
func (p ClubPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Department != nil {
		cols["department"] = *p.Department
	}
	if p.Members != nil {
		cols["members"] = JSONList[Member](*p.Members)
	}
	if p.Activities != nil {
		cols["activities"] = JSONList[Activity](*p.Activities)
	}
	if p.RollingPaper != nil {
		cols["rolling_paper"] = JSONList[RollingPaperEntry](*p.RollingPaper)
	}
	return cols
}

type NewMember struct {
	Name         string `json:"name" validate:"required,notblank,max=50"`
	ProfileImage string `json:"profile_image,omitempty"`
	Role         string `json:"role,omitempty" validate:"max=50"`
	Department   string `json:"department,omitempty" validate:"max=100"`
	Avatar       string `json:"avatar,omitempty"`
}

func (n NewMember) ToMember(id string) Member {
	return Member{
		ID:           id,
		Name:         n.Name,
		ProfileImage: n.ProfileImage,
		Role:         n.Role,
		Department:   n.Department,
		Avatar:       n.Avatar,
	}
}

// NewEntry is the input for both activities and rolling-paper entries.
type NewEntry struct {
	Content   string `json:"content" validate:"required,notblank,max=2000"`
	Author    string `json:"author" validate:"required,notblank,max=50"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (n NewEntry) createdAt() string {
	if n.CreatedAt != "" {
		return n.CreatedAt
	}
	return NowISO()
}

func (n NewEntry) ToActivity(id string) Activity {
	return Activity{ID: id, Content: n.Content, Author: n.Author, CreatedAt: n.createdAt()}
}

func (n NewEntry) ToRollingPaper(id string) RollingPaperEntry {
	return RollingPaperEntry{ID: id, Content: n.Content, Author: n.Author, CreatedAt: n.createdAt()}
}
