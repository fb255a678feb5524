// internal/services/club_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/config"
	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/metrics"
	"github.com/javajoker/clubhub/internal/models"
	"github.com/javajoker/clubhub/internal/seed"
)

var (
	// ErrRemoteUnavailable is returned in remote mode when no database is configured.
	ErrRemoteUnavailable = errors.New("remote club store is not available")
	// ErrSeedNotVisible means the store accepted the seed writes but still lists no clubs.
	ErrSeedNotVisible = errors.New("seeded clubs are not visible in the remote store")
)

// RemoteClubs is the remote store the service routes to outside mock mode.
type RemoteClubs interface {
	List(ctx context.Context) ([]models.Club, error)
	Get(ctx context.Context, id string) (*models.Club, error)
	Create(ctx context.Context, input models.NewClub) (*models.Club, error)
	Update(ctx context.Context, id string, patch models.ClubPatch) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, clubID string, input models.NewMember) (*models.Member, error)
	AddActivity(ctx context.Context, clubID string, input models.NewEntry) (*models.Activity, error)
	AddRollingPaper(ctx context.Context, clubID string, input models.NewEntry) (*models.RollingPaperEntry, error)
	UpdateMemberAvatar(ctx context.Context, clubID, memberID, imageURL string) error
	SubscribeAll(ctx context.Context, onChange func([]models.Club), onError func(error)) (func(), error)
	Subscribe(ctx context.Context, clubID string, onChange func(*models.Club), onError func(error)) (func(), error)
}

// PreferenceStore persists the data source flag.
type PreferenceStore interface {
	UseMockData() (bool, error)
	SetUseMockData(use bool) error
}

// ImageUploader stores avatar data URLs and returns their public URL.
// DeleteUploaded ignores URLs the uploader did not issue.
type ImageUploader interface {
	UploadDataURL(ctx context.Context, dataURL, clubID string) (string, error)
	DeleteUploaded(ctx context.Context, fileURL string) error
}

// State is a point-in-time copy of the service state.
type State struct {
	UseMockData bool                 `json:"use_mock_data"`
	Loading     bool                 `json:"loading"`
	Busy        bool                 `json:"busy"`
	Initialized bool                 `json:"initialized"`
	ErrorKey    string               `json:"error_key,omitempty"`
	Clubs       []models.Club        `json:"clubs"`
	RankedClubs []models.RankingClub `json:"ranked_clubs"`
}

const (
	sourceMock   = "mock"
	sourceRemote = "remote"
)

// ClubService routes club reads and writes to the static dataset (mock mode)
// or the remote store, and falls back to the static dataset when the remote
// store cannot be loaded.
type ClubService struct {
	remote RemoteClubs
	prefs  PreferenceStore
	images ImageUploader
	sync   config.SyncConfig
	log    *logrus.Entry
	ids    *mockIDs
	wait   func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	useMock     bool
	clubs       []models.Club
	ranked      []models.RankingClub
	loading     bool
	inFlight    int
	initialized bool
	errKey      string
	liveGen     int
	liveCancel  func()

	watchMu     sync.Mutex
	watchers    map[int]func(State)
	nextWatcher int
}

// NewClubService reads the persisted flag; an unreadable flag means remote
// mode. remote and images may be nil.
func NewClubService(remote RemoteClubs, prefs PreferenceStore, images ImageUploader, syncCfg config.SyncConfig) *ClubService {
	log := logrus.WithField("component", "club_service")

	useMock, err := prefs.UseMockData()
	if err != nil {
		log.WithError(err).Warn("Failed to read data source preference; using remote mode")
		useMock = false
	}
	if syncCfg.MaxAttempts < 1 {
		syncCfg.MaxAttempts = 1
	}
	metrics.SetMockMode(useMock)

	return &ClubService{
		remote:   remote,
		prefs:    prefs,
		images:   images,
		sync:     syncCfg,
		log:      log,
		ids:      &mockIDs{now: time.Now},
		wait:     sleepContext,
		useMock:  useMock,
		clubs:    []models.Club{},
		ranked:   []models.RankingClub{},
		loading:  true,
		watchers: make(map[int]func(State)),
	}
}

// Initialize loads the active data source. In remote mode it retries with a
// linear backoff and falls back to the static dataset when every attempt
// fails. It reports whether the remote load succeeded; mock mode always succeeds.
func (s *ClubService) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	s.errKey = ""
	s.loading = true
	s.inFlight++
	mock := s.useMock
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
		s.notify()
	}()

	if mock {
		s.loadStatic()
		return true
	}

	clubs, err := s.loadRemote(ctx)
	if err != nil {
		s.log.WithError(err).Error("Remote load failed; serving static dataset")
		metrics.RecordFallback("load_failed")

		s.mu.Lock()
		s.setClubsLocked(seed.Clubs())
		s.errKey = i18n.KeySyncLoadFailed
		s.initialized = true
		s.loading = false
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.setClubsLocked(clubs)
	s.initialized = true
	s.loading = false
	s.mu.Unlock()

	s.log.WithField("count", len(clubs)).Info("Clubs loaded from remote store")
	return true
}

// Start runs Initialize and follows the remote collection only when the load
// succeeded, so a failed load keeps its error in the slot.
func (s *ClubService) Start(ctx context.Context) bool {
	if !s.Initialize(ctx) {
		return false
	}
	s.StartLiveSubscription(ctx)
	return true
}

func (s *ClubService) loadRemote(ctx context.Context) ([]models.Club, error) {
	if s.remote == nil {
		return nil, ErrRemoteUnavailable
	}

	var lastErr error
	for attempt := 1; attempt <= s.sync.MaxAttempts; attempt++ {
		clubs, err := s.fetchOrSeed(ctx)
		metrics.RecordLoadAttempt(err == nil)
		if err == nil {
			return clubs, nil
		}

		lastErr = err
		s.log.WithError(err).WithField("attempt", attempt).Warn("Remote load attempt failed")

		if attempt < s.sync.MaxAttempts {
			if err := s.wait(ctx, time.Duration(attempt)*s.sync.BackoffUnit); err != nil {
				return nil, fmt.Errorf("remote load interrupted: %w", err)
			}
		}
	}

	return nil, fmt.Errorf("remote load failed after %d attempts: %w", s.sync.MaxAttempts, lastErr)
}

// fetchOrSeed lists the remote clubs, seeding an empty store first.
func (s *ClubService) fetchOrSeed(ctx context.Context) ([]models.Club, error) {
	clubs, err := s.remote.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(clubs) > 0 {
		return clubs, nil
	}

	s.log.Info("Remote store is empty; seeding static dataset")
	for _, club := range seed.Clubs() {
		input := models.NewClub{
			ID:           club.ID,
			Name:         club.Name,
			Description:  club.Description,
			Department:   club.Department,
			Members:      club.Members,
			Activities:   club.Activities,
			RollingPaper: club.RollingPaper,
		}
		if _, err := s.remote.Create(ctx, input); err != nil {
			return nil, fmt.Errorf("failed to seed club %s: %w", club.ID, err)
		}
	}

	clubs, err = s.remote.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(clubs) == 0 {
		return nil, ErrSeedNotVisible
	}
	return clubs, nil
}

// StartLiveSubscription follows the remote collection. It returns the
// unsubscribe func; in mock mode nothing is opened.
func (s *ClubService) StartLiveSubscription(ctx context.Context) func() {
	s.mu.Lock()
	if s.useMock {
		s.mu.Unlock()
		return func() {}
	}
	prev := s.liveCancel
	s.liveCancel = nil
	s.liveGen++
	gen := s.liveGen
	s.mu.Unlock()

	if prev != nil {
		prev()
	}

	if s.remote == nil {
		s.subscriptionFailed(ErrRemoteUnavailable)
		return func() {}
	}

	cancel, err := s.remote.SubscribeAll(ctx,
		func(clubs []models.Club) { s.applySnapshot(gen, clubs) },
		func(err error) {
			s.log.WithError(err).Warn("Live subscription error; keeping last state")
		})
	if err != nil {
		s.subscriptionFailed(err)
		return func() {}
	}

	s.mu.Lock()
	if s.liveGen != gen {
		// Superseded while opening.
		s.mu.Unlock()
		cancel()
		return func() {}
	}
	s.liveCancel = cancel
	s.mu.Unlock()

	s.log.Info("Live subscription started")
	return func() { s.stopLive(gen) }
}

func (s *ClubService) subscriptionFailed(err error) {
	s.log.WithError(err).Error("Failed to open live subscription; serving static dataset")
	metrics.RecordFallback("subscribe_failed")

	s.mu.Lock()
	s.setClubsLocked(seed.Clubs())
	s.errKey = i18n.KeySyncSubscribeFailed
	s.mu.Unlock()
	s.notify()
}

func (s *ClubService) applySnapshot(gen int, clubs []models.Club) {
	s.mu.Lock()
	if s.useMock || s.liveGen != gen {
		s.mu.Unlock()
		return
	}
	if len(clubs) == 0 {
		s.log.Warn("Remote collection is empty; substituting static dataset")
		metrics.RecordFallback("empty_snapshot")
		clubs = seed.Clubs()
	}
	s.setClubsLocked(clubs)
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

// stopLive cancels the live subscription. gen < 0 cancels whatever is open.
func (s *ClubService) stopLive(gen int) {
	s.mu.Lock()
	if gen >= 0 && s.liveGen != gen {
		s.mu.Unlock()
		return
	}
	cancel := s.liveCancel
	s.liveCancel = nil
	s.liveGen++
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.log.Info("Live subscription stopped")
	}
}

// RetryInitialization re-runs the remote load. Before the first successful
// initialization it gives up on the remote store and switches to mock mode.
func (s *ClubService) RetryInitialization(ctx context.Context) bool {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()

	if !initialized {
		if err := s.SetSource(ctx, true); err != nil {
			s.log.WithError(err).Warn("Failed to persist mock mode; loading static dataset anyway")
			s.loadStatic()
			s.notify()
		}
		return false
	}

	return s.Start(ctx)
}

// ToggleSource flips between mock and remote mode and reloads in place.
func (s *ClubService) ToggleSource(ctx context.Context) (bool, error) {
	s.mu.Lock()
	target := !s.useMock
	s.mu.Unlock()

	if err := s.SetSource(ctx, target); err != nil {
		return !target, err
	}
	return target, nil
}

// SetSource persists the mode and reloads. Switching to remote re-runs
// Initialize and, when it succeeds, the live subscription.
func (s *ClubService) SetSource(ctx context.Context, mock bool) error {
	s.mu.Lock()
	if s.useMock == mock && s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.prefs.SetUseMockData(mock); err != nil {
		return fmt.Errorf("failed to persist data source: %w", err)
	}

	s.mu.Lock()
	s.useMock = mock
	s.mu.Unlock()
	metrics.SetMockMode(mock)
	s.log.WithField("mock", mock).Info("Data source switched")

	if mock {
		s.stopLive(-1)
		s.mu.Lock()
		s.errKey = ""
		s.mu.Unlock()
		s.loadStatic()
		s.notify()
		return nil
	}

	s.Start(ctx)
	return nil
}

func (s *ClubService) loadStatic() {
	s.mu.Lock()
	s.setClubsLocked(seed.Clubs())
	s.initialized = true
	s.loading = false
	s.mu.Unlock()
}

func (s *ClubService) CreateClub(ctx context.Context, input models.NewClub) (*models.Club, error) {
	var club models.Club
	if handled, _ := s.inMockMode("create_club", func() error {
		club = input.ToClub(s.ids.next("mock-"))
		club.CreatedAt = time.Now().UTC()
		club.UpdatedAt = club.CreatedAt
		s.setClubsLocked(append(s.clubs, club))
		s.errKey = ""
		return nil
	}); handled {
		out := club.Clone()
		return &out, nil
	}

	var created *models.Club
	err := s.remoteMutation(ctx, "create_club", i18n.KeyClubCreateFailed, func(r RemoteClubs) error {
		var err error
		created, err = r.Create(ctx, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}
	return created, nil
}

func (s *ClubService) UpdateClub(ctx context.Context, id string, patch models.ClubPatch) error {
	if handled, err := s.inMockMode("update_club", func() error {
		return s.mutateMockClubLocked(id, func(c *models.Club) error {
			*c = patch.Apply(*c)
			c.UpdatedAt = time.Now().UTC()
			return nil
		})
	}); handled {
		return err
	}

	err := s.remoteMutation(ctx, "update_club", i18n.KeyClubUpdateFailed, func(r RemoteClubs) error {
		return r.Update(ctx, id, patch)
	})
	if err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}
	return nil
}

func (s *ClubService) DeleteClub(ctx context.Context, id string) error {
	if handled, err := s.inMockMode("delete_club", func() error {
		idx := indexOfClub(s.clubs, id)
		if idx == -1 {
			s.errKey = i18n.KeyClubNotFound
			return ErrClubNotFound
		}
		remaining := append(append([]models.Club{}, s.clubs[:idx]...), s.clubs[idx+1:]...)
		s.setClubsLocked(remaining)
		s.errKey = ""
		return nil
	}); handled {
		return err
	}

	err := s.remoteMutation(ctx, "delete_club", i18n.KeyClubDeleteFailed, func(r RemoteClubs) error {
		return r.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete club: %w", err)
	}
	return nil
}

func (s *ClubService) AddMember(ctx context.Context, clubID string, input models.NewMember) (*models.Member, error) {
	var member models.Member
	if handled, err := s.inMockMode("add_member", func() error {
		return s.mutateMockClubLocked(clubID, func(c *models.Club) error {
			member = input.ToMember(s.ids.next("mock-member-"))
			member.CreatedAt = models.NowISO()
			c.Members = append(c.Members, member)
			return nil
		})
	}); handled {
		if err != nil {
			return nil, err
		}
		return &member, nil
	}

	var added *models.Member
	err := s.remoteMutation(ctx, "add_member", i18n.KeyMemberAddFailed, func(r RemoteClubs) error {
		var err error
		added, err = r.AddMember(ctx, clubID, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return added, nil
}

// AddMemberWithAvatar uploads the captured avatar and adds the member with it
// as profile image. Mock mode keeps the data URL itself.
func (s *ClubService) AddMemberWithAvatar(ctx context.Context, clubID string, input models.NewMember, avatarDataURL string) (*models.Member, error) {
	imageURL, err := s.storeAvatar(ctx, clubID, avatarDataURL)
	if err != nil {
		s.setError(i18n.KeyMemberAddFailed)
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	input.ProfileImage = imageURL
	return s.AddMember(ctx, clubID, input)
}

// UpdateMemberAvatar replaces a member's profile image. image may be a URL
// or a data URL; data URLs are uploaded first outside mock mode.
func (s *ClubService) UpdateMemberAvatar(ctx context.Context, clubID, memberID, image string) error {
	if handled, err := s.inMockMode("update_member_avatar", func() error {
		return s.mutateMockClubLocked(clubID, func(c *models.Club) error {
			for i := range c.Members {
				if c.Members[i].ID == memberID {
					c.Members[i].ProfileImage = image
					return nil
				}
			}
			return ErrMemberNotFound
		})
	}); handled {
		return err
	}

	previous := s.currentAvatar(ctx, clubID, memberID)

	imageURL, err := s.storeAvatar(ctx, clubID, image)
	if err != nil {
		s.setError(i18n.KeyMemberAvatarFailed)
		return fmt.Errorf("failed to upload avatar: %w", err)
	}

	err = s.remoteMutation(ctx, "update_member_avatar", i18n.KeyMemberAvatarFailed, func(r RemoteClubs) error {
		return r.UpdateMemberAvatar(ctx, clubID, memberID, imageURL)
	})
	if err != nil {
		return fmt.Errorf("failed to update member avatar: %w", err)
	}

	if previous != "" && previous != imageURL && s.images != nil {
		if err := s.images.DeleteUploaded(ctx, previous); err != nil {
			s.log.WithError(err).WithField("member_id", memberID).Warn("Failed to delete replaced avatar")
		}
	}
	return nil
}

// currentAvatar returns the member's profile image, or "" when it cannot be read.
func (s *ClubService) currentAvatar(ctx context.Context, clubID, memberID string) string {
	if s.remote == nil {
		return ""
	}
	club, err := s.remote.Get(ctx, clubID)
	if err != nil || club == nil {
		return ""
	}
	for _, m := range club.Members {
		if m.ID == memberID {
			return m.ProfileImage
		}
	}
	return ""
}

func (s *ClubService) storeAvatar(ctx context.Context, clubID, image string) (string, error) {
	if s.isMock() || s.images == nil || !strings.HasPrefix(image, "data:") {
		return image, nil
	}
	return s.images.UploadDataURL(ctx, image, clubID)
}

func (s *ClubService) AddActivity(ctx context.Context, clubID string, input models.NewEntry) (*models.Activity, error) {
	var activity models.Activity
	if handled, err := s.inMockMode("add_activity", func() error {
		return s.mutateMockClubLocked(clubID, func(c *models.Club) error {
			activity = input.ToActivity(s.ids.next("mock-activity-"))
			c.Activities = append(models.JSONList[models.Activity]{activity}, c.Activities...)
			return nil
		})
	}); handled {
		if err != nil {
			return nil, err
		}
		return &activity, nil
	}

	var added *models.Activity
	err := s.remoteMutation(ctx, "add_activity", i18n.KeyActivityAddFailed, func(r RemoteClubs) error {
		var err error
		added, err = r.AddActivity(ctx, clubID, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add activity: %w", err)
	}
	return added, nil
}

func (s *ClubService) AddRollingPaper(ctx context.Context, clubID string, input models.NewEntry) (*models.RollingPaperEntry, error) {
	var entry models.RollingPaperEntry
	if handled, err := s.inMockMode("add_rolling_paper", func() error {
		return s.mutateMockClubLocked(clubID, func(c *models.Club) error {
			entry = input.ToRollingPaper(s.ids.next("mock-rollingpaper-"))
			c.RollingPaper = append(models.JSONList[models.RollingPaperEntry]{entry}, c.RollingPaper...)
			return nil
		})
	}); handled {
		if err != nil {
			return nil, err
		}
		return &entry, nil
	}

	var added *models.RollingPaperEntry
	err := s.remoteMutation(ctx, "add_rolling_paper", i18n.KeyRollingPaperAddFailed, func(r RemoteClubs) error {
		var err error
		added, err = r.AddRollingPaper(ctx, clubID, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add rolling paper: %w", err)
	}
	return added, nil
}

// GetClub resolves one club. Remote read failures fall back to the static dataset.
func (s *ClubService) GetClub(ctx context.Context, id string) (*models.Club, error) {
	s.mu.Lock()
	if s.useMock {
		club, ok := models.FindClub(s.clubs, id)
		s.mu.Unlock()
		if !ok {
			return nil, ErrClubNotFound
		}
		s.clearError()
		return club, nil
	}
	s.mu.Unlock()

	if s.remote == nil {
		return s.staticClub(id, ErrRemoteUnavailable)
	}

	club, err := s.remote.Get(ctx, id)
	if err != nil {
		return s.staticClub(id, err)
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	s.clearError()
	return club, nil
}

func (s *ClubService) staticClub(id string, cause error) (*models.Club, error) {
	s.log.WithError(cause).WithField("club_id", id).Warn("Remote read failed; using static dataset")
	s.setError(i18n.KeyClubLoadFailed)

	club, ok := seed.Find(id)
	if !ok {
		return nil, ErrClubNotFound
	}
	return club, nil
}

// SubscribeToClub calls fn with the club and, outside mock mode, after every
// change to it. fn receives nil when the club does not exist.
func (s *ClubService) SubscribeToClub(ctx context.Context, id string, fn func(*models.Club)) (func(), error) {
	if s.isMock() {
		s.mu.Lock()
		club, _ := models.FindClub(s.clubs, id)
		s.mu.Unlock()
		go fn(club)
		return func() {}, nil
	}

	if s.remote == nil {
		return nil, ErrRemoteUnavailable
	}

	return s.remote.Subscribe(ctx, id, fn, func(err error) {
		s.log.WithError(err).WithField("club_id", id).Warn("Club subscription error")
	})
}

// State returns a copy of the current state.
func (s *ClubService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *ClubService) stateLocked() State {
	ranked := make([]models.RankingClub, len(s.ranked))
	for i, r := range s.ranked {
		ranked[i] = models.RankingClub{Club: r.Club.Clone(), Rank: r.Rank}
	}
	return State{
		UseMockData: s.useMock,
		Loading:     s.loading,
		Busy:        s.inFlight > 0,
		Initialized: s.initialized,
		ErrorKey:    s.errKey,
		Clubs:       models.CloneClubs(s.clubs),
		RankedClubs: ranked,
	}
}

// Watch registers fn to receive the state after every change.
func (s *ClubService) Watch(fn func(State)) func() {
	s.watchMu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

func (s *ClubService) Close() {
	s.stopLive(-1)
}

func (s *ClubService) notify() {
	s.watchMu.Lock()
	if len(s.watchers) == 0 {
		s.watchMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	state := s.State()
	for _, fn := range fns {
		fn(state)
	}
}

func (s *ClubService) isMock() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useMock
}

func (s *ClubService) setError(key string) {
	s.mu.Lock()
	s.errKey = key
	s.mu.Unlock()
	s.notify()
}

// clearError empties the error slot, notifying watchers only when it was set.
func (s *ClubService) clearError() {
	s.mu.Lock()
	changed := s.errKey != ""
	s.errKey = ""
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// setClubsLocked replaces the club list and re-derives the ranking.
func (s *ClubService) setClubsLocked(clubs []models.Club) {
	s.clubs = models.CloneClubs(clubs)
	s.ranked = GetRankedClubs(s.clubs)
}

// inMockMode runs fn with s.mu held when mock mode is active and reports
// whether it did. The mode check and fn share one lock hold.
func (s *ClubService) inMockMode(op string, fn func() error) (bool, error) {
	s.mu.Lock()
	if !s.useMock {
		s.mu.Unlock()
		return false, nil
	}
	err := fn()
	s.mu.Unlock()

	s.finishMutation(op, sourceMock, err)
	return true, err
}

// mutateMockClubLocked applies fn to a copy of the club and writes it back.
// s.mu must be held.
func (s *ClubService) mutateMockClubLocked(id string, fn func(*models.Club) error) error {
	idx := indexOfClub(s.clubs, id)
	if idx == -1 {
		s.errKey = i18n.KeyClubNotFound
		return ErrClubNotFound
	}

	club := s.clubs[idx].Clone()
	if err := fn(&club); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			s.errKey = i18n.KeyMemberNotFound
		}
		return err
	}

	clubs := append([]models.Club{}, s.clubs...)
	clubs[idx] = club
	s.setClubsLocked(clubs)
	s.errKey = ""
	return nil
}

func (s *ClubService) remoteMutation(ctx context.Context, op, errKey string, fn func(RemoteClubs) error) error {
	if s.remote == nil {
		s.setError(errKey)
		s.finishMutation(op, sourceRemote, ErrRemoteUnavailable)
		return ErrRemoteUnavailable
	}

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	err := fn(s.remote)

	s.mu.Lock()
	s.inFlight--
	switch {
	case err == nil:
		s.errKey = ""
	case errors.Is(err, ErrClubNotFound):
		s.errKey = i18n.KeyClubNotFound
	case errors.Is(err, ErrMemberNotFound):
		s.errKey = i18n.KeyMemberNotFound
	default:
		s.errKey = errKey
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).WithField("operation", op).Error("Remote mutation failed")
	}
	s.finishMutation(op, sourceRemote, err)
	return err
}

func (s *ClubService) finishMutation(op, source string, err error) {
	metrics.RecordMutation(op, source, err)
	s.notify()
}

func indexOfClub(clubs []models.Club, id string) int {
	for i := range clubs {
		if clubs[i].ID == id {
			return i
		}
	}
	return -1
}

// mockIDs hands out time-based ids that strictly increase within the process.
type mockIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (m *mockIDs) next(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := m.now().UnixMilli()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	return prefix + strconv.FormatInt(ms, 10)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
