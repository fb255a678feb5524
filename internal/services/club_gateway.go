// internal/services/club_gateway.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/clubhub/internal/database"
	"github.com/javajoker/clubhub/internal/models"
)

// ClubGateway reads and writes club documents in the clubs table. Nested lists
// are rewritten whole on every append, so concurrent appends to the same club
// are last-writer-wins.
type ClubGateway struct {
	db      *gorm.DB
	feed    *ClubFeed
	channel string
	log     *logrus.Entry
}

// NewClubGateway builds a gateway. feed may be nil, in which case subscriptions
// deliver only their initial snapshot.
func NewClubGateway(db *gorm.DB, feed *ClubFeed, notifyChannel string) *ClubGateway {
	return &ClubGateway{
		db:      db,
		feed:    feed,
		channel: notifyChannel,
		log:     logrus.WithField("component", "club_gateway"),
	}
}

func (g *ClubGateway) List(ctx context.Context) ([]models.Club, error) {
	var clubs []models.Club
	if err := g.db.WithContext(ctx).Order("name").Find(&clubs).Error; err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	g.log.WithField("count", len(clubs)).Debug("Clubs loaded")
	return clubs, nil
}

// Get returns nil without error when the club does not exist.
func (g *ClubGateway) Get(ctx context.Context, id string) (*models.Club, error) {
	var club models.Club
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&club).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club %s: %w", id, err)
	}
	return &club, nil
}

func (g *ClubGateway) Create(ctx context.Context, input models.NewClub) (*models.Club, error) {
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}

	club := input.ToClub(id)
	if err := g.db.WithContext(ctx).Create(&club).Error; err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	g.notify(ctx, g.db, club.ID)
	g.log.WithFields(logrus.Fields{"club_id": club.ID, "name": club.Name}).Info("Club created")
	return &club, nil
}

func (g *ClubGateway) Update(ctx context.Context, id string, patch models.ClubPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		club, err := g.Get(ctx, id)
		if err != nil {
			return err
		}
		if club == nil {
			return ErrClubNotFound
		}
		return nil
	}

	result := g.db.WithContext(ctx).Model(&models.Club{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("failed to update club %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClubNotFound
	}

	g.notify(ctx, g.db, id)
	return nil
}

func (g *ClubGateway) Delete(ctx context.Context, id string) error {
	result := g.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Club{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete club %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClubNotFound
	}

	g.notify(ctx, g.db, id)
	g.log.WithField("club_id", id).Info("Club deleted")
	return nil
}

// AddMember appends a member and rewrites the whole members list.
func (g *ClubGateway) AddMember(ctx context.Context, clubID string, input models.NewMember) (*models.Member, error) {
	club, err := g.mustGet(ctx, clubID)
	if err != nil {
		return nil, err
	}

	member := input.ToMember(uuid.NewString())
	member.CreatedAt = models.NowISO()
	members := append(club.Members, member)

	if err := g.writeList(ctx, clubID, "members", members); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddActivity prepends an activity and rewrites the whole activities list.
func (g *ClubGateway) AddActivity(ctx context.Context, clubID string, input models.NewEntry) (*models.Activity, error) {
	club, err := g.mustGet(ctx, clubID)
	if err != nil {
		return nil, err
	}

	activity := input.ToActivity(uuid.NewString())
	activities := append(models.JSONList[models.Activity]{activity}, club.Activities...)

	if err := g.writeList(ctx, clubID, "activities", activities); err != nil {
		return nil, err
	}
	return &activity, nil
}

// AddRollingPaper prepends a rolling-paper entry.
func (g *ClubGateway) AddRollingPaper(ctx context.Context, clubID string, input models.NewEntry) (*models.RollingPaperEntry, error) {
	club, err := g.mustGet(ctx, clubID)
	if err != nil {
		return nil, err
	}

	entry := input.ToRollingPaper(uuid.NewString())
	entries := append(models.JSONList[models.RollingPaperEntry]{entry}, club.RollingPaper...)

	if err := g.writeList(ctx, clubID, "rolling_paper", entries); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateMemberAvatar replaces one member's profile image.
func (g *ClubGateway) UpdateMemberAvatar(ctx context.Context, clubID, memberID, imageURL string) error {
	club, err := g.mustGet(ctx, clubID)
	if err != nil {
		return err
	}

	members := append(models.JSONList[models.Member]{}, club.Members...)
	idx := -1
	for i, m := range members {
		if m.ID == memberID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrMemberNotFound
	}
	members[idx].ProfileImage = imageURL

	return g.writeList(ctx, clubID, "members", members)
}

// SeedResult reports what Seed changed.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Seed creates dataset clubs that are missing and fills in empty rolling
// papers of existing ones, in one transaction.
func (g *ClubGateway) Seed(ctx context.Context, clubs []models.Club) (*SeedResult, error) {
	result := &SeedResult{}
	var touched []string

	err := database.WithTransaction(g.db.WithContext(ctx), func(tx *gorm.DB) error {
		var existing []models.Club
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		byID := make(map[string]models.Club, len(existing))
		for _, c := range existing {
			byID[c.ID] = c
		}

		for _, club := range clubs {
			current, ok := byID[club.ID]
			if !ok {
				record := club.Clone()
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
				result.Created++
				touched = append(touched, club.ID)
				continue
			}

			if len(current.RollingPaper) == 0 && len(club.RollingPaper) > 0 {
				if err := tx.Model(&models.Club{}).Where("id = ?", club.ID).
					Update("rolling_paper", club.RollingPaper).Error; err != nil {
					return err
				}
				result.Updated++
				touched = append(touched, club.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed clubs: %w", err)
	}

	for _, id := range touched {
		g.notify(ctx, g.db, id)
	}
	g.log.WithFields(logrus.Fields{"created": result.Created, "updated": result.Updated}).Info("Seed completed")
	return result, nil
}

// SubscribeAll delivers the current collection, then a fresh list after every
// change. onError receives refetch failures; the subscription stays open.
func (g *ClubGateway) SubscribeAll(ctx context.Context, onChange func([]models.Club), onError func(error)) (func(), error) {
	clubs, err := g.List(ctx)
	if err != nil {
		return nil, err
	}
	onChange(clubs)

	if g.feed == nil {
		g.log.Warn("No change feed configured; collection subscription is snapshot-only")
		return func() {}, nil
	}

	return g.feed.Subscribe("", func(ClubChange) {
		clubs, err := g.List(context.Background())
		if err != nil {
			onError(err)
			return
		}
		onChange(clubs)
	}), nil
}

// Subscribe follows one club. onChange receives nil once the club is gone.
func (g *ClubGateway) Subscribe(ctx context.Context, clubID string, onChange func(*models.Club), onError func(error)) (func(), error) {
	club, err := g.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}
	onChange(club)

	if g.feed == nil {
		return func() {}, nil
	}

	return g.feed.Subscribe(clubID, func(ClubChange) {
		club, err := g.Get(context.Background(), clubID)
		if err != nil {
			onError(err)
			return
		}
		onChange(club)
	}), nil
}

func (g *ClubGateway) mustGet(ctx context.Context, id string) (*models.Club, error) {
	club, err := g.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	return club, nil
}

func (g *ClubGateway) writeList(ctx context.Context, clubID, column string, value interface{}) error {
	result := g.db.WithContext(ctx).Model(&models.Club{}).Where("id = ?", clubID).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to write %s of club %s: %w", column, clubID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClubNotFound
	}

	g.notify(ctx, g.db, clubID)
	return nil
}

func (g *ClubGateway) notify(ctx context.Context, db *gorm.DB, clubID string) {
	if g.channel == "" {
		return
	}
	if err := db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", g.channel, clubID).Error; err != nil {
		g.log.WithError(err).WithField("club_id", clubID).Warn("Failed to publish change notification")
	}
}
