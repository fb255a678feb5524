package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/clubhub/internal/config"
	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/models"
	"github.com/javajoker/clubhub/internal/preferences"
	"github.com/javajoker/clubhub/internal/seed"
)

var errRemoteDown = errors.New("remote down")

// fakeRemote is an in-memory RemoteClubs.
type fakeRemote struct {
	mu           sync.Mutex
	clubs        []models.Club
	listErrs     []error
	listCalls    int
	createCalls  int
	mutationErr  error
	subscribeErr error
	onChange     func([]models.Club)
	cancelled    int
	avatarURL    string
	// dropCreates acknowledges Create without storing the club.
	dropCreates bool
}

func (f *fakeRemote) List(context.Context) ([]models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return models.CloneClubs(f.clubs), nil
}

func (f *fakeRemote) Get(_ context.Context, id string) (*models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationErr != nil {
		return nil, f.mutationErr
	}
	club, ok := models.FindClub(f.clubs, id)
	if !ok {
		return nil, nil
	}
	return club, nil
}

func (f *fakeRemote) Create(_ context.Context, input models.NewClub) (*models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.mutationErr != nil {
		return nil, f.mutationErr
	}
	id := input.ID
	if id == "" {
		id = "remote-1"
	}
	club := input.ToClub(id)
	if !f.dropCreates {
		f.clubs = append(f.clubs, club)
	}
	return &club, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, patch models.ClubPatch) error {
	return f.withClub(id, func(c *models.Club) error {
		*c = patch.Apply(*c)
		return nil
	})
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	idx := indexOfClub(f.clubs, id)
	if idx == -1 {
		return ErrClubNotFound
	}
	f.clubs = append(f.clubs[:idx], f.clubs[idx+1:]...)
	return nil
}

func (f *fakeRemote) AddMember(_ context.Context, clubID string, input models.NewMember) (*models.Member, error) {
	member := input.ToMember("remote-member")
	err := f.withClub(clubID, func(c *models.Club) error {
		c.Members = append(c.Members, member)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (f *fakeRemote) AddActivity(_ context.Context, clubID string, input models.NewEntry) (*models.Activity, error) {
	activity := input.ToActivity("remote-activity")
	err := f.withClub(clubID, func(c *models.Club) error {
		c.Activities = append(models.JSONList[models.Activity]{activity}, c.Activities...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (f *fakeRemote) AddRollingPaper(_ context.Context, clubID string, input models.NewEntry) (*models.RollingPaperEntry, error) {
	entry := input.ToRollingPaper("remote-paper")
	err := f.withClub(clubID, func(c *models.Club) error {
		c.RollingPaper = append(models.JSONList[models.RollingPaperEntry]{entry}, c.RollingPaper...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (f *fakeRemote) UpdateMemberAvatar(_ context.Context, clubID, memberID, imageURL string) error {
	f.mu.Lock()
	f.avatarURL = imageURL
	f.mu.Unlock()
	return f.withClub(clubID, func(c *models.Club) error {
		for i := range c.Members {
			if c.Members[i].ID == memberID {
				c.Members[i].ProfileImage = imageURL
				return nil
			}
		}
		return ErrMemberNotFound
	})
}

func (f *fakeRemote) SubscribeAll(ctx context.Context, onChange func([]models.Club), _ func(error)) (func(), error) {
	f.mu.Lock()
	if f.subscribeErr != nil {
		err := f.subscribeErr
		f.mu.Unlock()
		return nil, err
	}
	f.onChange = onChange
	snapshot := models.CloneClubs(f.clubs)
	f.mu.Unlock()

	onChange(snapshot)
	return func() {
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
	}, nil
}

func (f *fakeRemote) Subscribe(_ context.Context, clubID string, onChange func(*models.Club), _ func(error)) (func(), error) {
	f.mu.Lock()
	club, _ := models.FindClub(f.clubs, clubID)
	f.mu.Unlock()
	onChange(club)
	return func() {}, nil
}

func (f *fakeRemote) withClub(id string, fn func(*models.Club) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	idx := indexOfClub(f.clubs, id)
	if idx == -1 {
		return ErrClubNotFound
	}
	return fn(&f.clubs[idx])
}

func (f *fakeRemote) push(clubs []models.Club) {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	fn(clubs)
}

type fakeUploader struct {
	calls   int
	err     error
	deleted []string
}

func (u *fakeUploader) UploadDataURL(_ context.Context, _, clubID string) (string, error) {
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/avatars/" + clubID + "/1-avatar.png", nil
}

func (u *fakeUploader) DeleteUploaded(_ context.Context, fileURL string) error {
	u.deleted = append(u.deleted, fileURL)
	return nil
}

type ClubServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	remote   *fakeRemote
	prefs    *preferences.MemoryStore
	uploader *fakeUploader
	svc      *ClubService
}

func (s *ClubServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.remote = &fakeRemote{clubs: seed.Clubs()[:2]}
	s.prefs = &preferences.MemoryStore{}
	s.uploader = &fakeUploader{}
	s.svc = s.newService()
}

func (s *ClubServiceTestSuite) newService() *ClubService {
	return NewClubService(s.remote, s.prefs, s.uploader, config.SyncConfig{
		MaxAttempts: 3,
		BackoffUnit: time.Millisecond,
	})
}

func (s *ClubServiceTestSuite) useMock() {
	s.Require().NoError(s.prefs.SetUseMockData(true))
	s.svc = s.newService()
	s.svc.Initialize(s.ctx)
}

func (s *ClubServiceTestSuite) TestDefaultsToRemoteMode() {
	s.True(s.svc.Initialize(s.ctx))

	state := s.svc.State()
	s.False(state.UseMockData)
	s.True(state.Initialized)
	s.False(state.Loading)
	s.Len(state.Clubs, 2)
	s.Empty(state.ErrorKey)
}

func (s *ClubServiceTestSuite) TestInitializeFallsBackAfterThreeFailures() {
	s.remote.listErrs = []error{errRemoteDown, errRemoteDown, errRemoteDown}

	var waits []time.Duration
	s.svc.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	s.False(s.svc.Initialize(s.ctx))

	state := s.svc.State()
	s.True(state.Initialized)
	s.False(state.Loading)
	s.False(state.Busy)
	s.Equal(seed.Clubs(), state.Clubs)
	s.Equal(i18n.KeySyncLoadFailed, state.ErrorKey)
	s.Equal(3, s.remote.listCalls)
	s.Equal([]time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func (s *ClubServiceTestSuite) TestInitializeRecoversOnLaterAttempt() {
	s.remote.listErrs = []error{errRemoteDown, nil}

	s.True(s.svc.Initialize(s.ctx))
	s.Len(s.svc.State().Clubs, 2)
	s.Empty(s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestInitializeStopsWhenContextCancelled() {
	s.remote.listErrs = []error{errRemoteDown, errRemoteDown, errRemoteDown}
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.False(s.svc.Initialize(ctx))
	s.Equal(1, s.remote.listCalls)
	s.True(s.svc.State().Initialized)
}

func (s *ClubServiceTestSuite) TestInitializeSeedsEmptyStore() {
	s.remote.clubs = nil

	s.True(s.svc.Initialize(s.ctx))

	s.Equal(len(seed.Clubs()), s.remote.createCalls)
	s.Equal(seed.Clubs()[0].ID, s.remote.clubs[0].ID)
	s.Len(s.svc.State().Clubs, len(seed.Clubs()))
}

func (s *ClubServiceTestSuite) TestInitializeRetriesWhenSeedingFails() {
	s.remote.clubs = nil
	s.remote.mutationErr = errRemoteDown

	s.False(s.svc.Initialize(s.ctx))

	state := s.svc.State()
	s.Equal(i18n.KeySyncLoadFailed, state.ErrorKey)
	s.Equal(seed.Clubs(), state.Clubs)
	s.Equal(3, s.remote.listCalls)
	s.Equal(3, s.remote.createCalls, "each attempt stops at the first failed seed write")
}

func (s *ClubServiceTestSuite) TestSeedWritesThatNeverShowUpFailTheLoad() {
	s.remote.clubs = nil
	s.remote.dropCreates = true

	_, err := s.svc.loadRemote(s.ctx)
	s.ErrorIs(err, ErrSeedNotVisible)
	s.Equal(6, s.remote.listCalls)

	s.False(s.svc.Initialize(s.ctx))
	s.Equal(i18n.KeySyncLoadFailed, s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestStartSkipsSubscriptionWhenLoadFails() {
	s.remote.listErrs = []error{errRemoteDown, errRemoteDown, errRemoteDown}

	s.False(s.svc.Start(s.ctx))

	s.Nil(s.remote.onChange)
	s.Equal(i18n.KeySyncLoadFailed, s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestStartFollowsRemoteAfterLoad() {
	s.True(s.svc.Start(s.ctx))
	defer s.svc.Close()

	s.NotNil(s.remote.onChange)
	s.Empty(s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestInitializeWithoutRemoteFallsBack() {
	svc := NewClubService(nil, s.prefs, nil, config.SyncConfig{MaxAttempts: 1})

	s.False(svc.Initialize(s.ctx))
	s.Equal(i18n.KeySyncLoadFailed, svc.State().ErrorKey)
	s.Len(svc.State().Clubs, len(seed.Clubs()))
}

func (s *ClubServiceTestSuite) TestLiveSubscriptionAdoptsSnapshots() {
	s.svc.Initialize(s.ctx)
	s.svc.StartLiveSubscription(s.ctx)

	pushed := seed.Clubs()[:1]
	s.remote.push(pushed)
	s.Equal(pushed, s.svc.State().Clubs)

	s.remote.push(nil)
	s.Equal(seed.Clubs(), s.svc.State().Clubs, "empty snapshot is replaced by the static dataset")
}

func (s *ClubServiceTestSuite) TestLiveSubscriptionReplacesPrevious() {
	s.svc.Initialize(s.ctx)
	s.svc.StartLiveSubscription(s.ctx)
	unsubscribe := s.svc.StartLiveSubscription(s.ctx)

	s.Equal(1, s.remote.cancelled)
	unsubscribe()
	s.Equal(2, s.remote.cancelled)
}

func (s *ClubServiceTestSuite) TestLiveSubscriptionFailure() {
	s.remote.subscribeErr = errRemoteDown
	s.svc.Initialize(s.ctx)

	unsubscribe := s.svc.StartLiveSubscription(s.ctx)

	s.NotNil(unsubscribe)
	s.Equal(i18n.KeySyncSubscribeFailed, s.svc.State().ErrorKey)
	s.Equal(seed.Clubs(), s.svc.State().Clubs)
}

func (s *ClubServiceTestSuite) TestLiveSubscriptionIsNoopInMockMode() {
	s.useMock()
	s.svc.StartLiveSubscription(s.ctx)()
	s.Nil(s.remote.onChange)
}

func (s *ClubServiceTestSuite) TestToggleRestoresStaticDataset() {
	s.useMock()
	clubID := s.svc.State().Clubs[0].ID
	_, err := s.svc.AddMember(s.ctx, clubID, models.NewMember{Name: "테스트"})
	s.Require().NoError(err)

	mock, err := s.svc.ToggleSource(s.ctx)
	s.Require().NoError(err)
	s.False(mock)
	mock, err = s.svc.ToggleSource(s.ctx)
	s.Require().NoError(err)
	s.True(mock)

	s.Equal(seed.Clubs(), s.svc.State().Clubs)
	use, _ := s.prefs.UseMockData()
	s.True(use)
}

func (s *ClubServiceTestSuite) TestToggleToMockStopsLiveSubscription() {
	s.svc.Initialize(s.ctx)
	s.svc.StartLiveSubscription(s.ctx)

	mock, err := s.svc.ToggleSource(s.ctx)
	s.Require().NoError(err)
	s.True(mock)
	s.Equal(1, s.remote.cancelled)

	s.remote.push(seed.Clubs()[:1])
	s.Equal(seed.Clubs(), s.svc.State().Clubs, "late snapshots are ignored in mock mode")
}

func (s *ClubServiceTestSuite) TestSetSourceIsNoopWhenUnchanged() {
	s.svc.Initialize(s.ctx)
	calls := s.remote.listCalls

	s.NoError(s.svc.SetSource(s.ctx, false))
	s.Equal(calls, s.remote.listCalls)
}

func (s *ClubServiceTestSuite) TestRetryBeforeInitializationSwitchesToMock() {
	s.False(s.svc.RetryInitialization(s.ctx))

	state := s.svc.State()
	s.True(state.UseMockData)
	s.True(state.Initialized)
	s.Equal(seed.Clubs(), state.Clubs)
}

func (s *ClubServiceTestSuite) TestRetryAfterFailureReloads() {
	s.remote.listErrs = []error{errRemoteDown, errRemoteDown, errRemoteDown}
	s.svc.Initialize(s.ctx)

	s.True(s.svc.RetryInitialization(s.ctx))
	s.Len(s.svc.State().Clubs, 2)
	s.Empty(s.svc.State().ErrorKey)
	s.NotNil(s.remote.onChange)
}

func (s *ClubServiceTestSuite) TestMockCreateThenGet() {
	s.useMock()

	created, err := s.svc.CreateClub(s.ctx, models.NewClub{Name: "밴드부", Description: "록 밴드", Department: "음악과"})
	s.Require().NoError(err)
	s.True(strings.HasPrefix(created.ID, "mock-"))

	club, err := s.svc.GetClub(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("밴드부", club.Name)
	s.Equal("록 밴드", club.Description)
	s.Equal("음악과", club.Department)
	s.Empty(club.Members)
	s.Empty(club.Activities)
	s.Len(s.svc.State().RankedClubs, len(seed.Clubs())+1)
}

func (s *ClubServiceTestSuite) TestMockActivitiesAreMostRecentFirst() {
	s.useMock()
	clubID := s.svc.State().Clubs[0].ID
	before := len(s.svc.State().Clubs[0].Activities)

	a, err := s.svc.AddActivity(s.ctx, clubID, models.NewEntry{Content: "a", Author: "x"})
	s.Require().NoError(err)
	b, err := s.svc.AddActivity(s.ctx, clubID, models.NewEntry{Content: "b", Author: "x"})
	s.Require().NoError(err)

	club, err := s.svc.GetClub(s.ctx, clubID)
	s.Require().NoError(err)
	s.Len(club.Activities, before+2)
	s.Equal(b.ID, club.Activities[0].ID)
	s.Equal(a.ID, club.Activities[1].ID)
	s.True(strings.HasPrefix(a.ID, "mock-activity-"))
	s.NotEqual(a.ID, b.ID)
}

func (s *ClubServiceTestSuite) TestMockRollingPaperIsPrepended() {
	s.useMock()
	clubID := s.svc.State().Clubs[0].ID

	entry, err := s.svc.AddRollingPaper(s.ctx, clubID, models.NewEntry{Content: "축하해요", Author: "선배"})
	s.Require().NoError(err)

	club, _ := s.svc.GetClub(s.ctx, clubID)
	s.Equal(entry.ID, club.RollingPaper[0].ID)
	s.True(strings.HasPrefix(entry.ID, "mock-rollingpaper-"))
}

func (s *ClubServiceTestSuite) TestMockAddMember() {
	s.useMock()
	club := s.svc.State().Clubs[0]

	member, err := s.svc.AddMember(s.ctx, club.ID, models.NewMember{Name: "테스트"})
	s.Require().NoError(err)

	s.True(strings.HasPrefix(member.ID, "mock-member-"))
	s.Equal("테스트", member.Name)
	updated, _ := s.svc.GetClub(s.ctx, club.ID)
	s.Len(updated.Members, len(club.Members)+1)
}

func (s *ClubServiceTestSuite) TestMockAddMemberWithAvatarKeepsDataURL() {
	s.useMock()
	clubID := s.svc.State().Clubs[0].ID

	member, err := s.svc.AddMemberWithAvatar(s.ctx, clubID, models.NewMember{Name: "김"}, "data:image/png;base64,AAAA")
	s.Require().NoError(err)
	s.Equal("data:image/png;base64,AAAA", member.ProfileImage)
	s.Zero(s.uploader.calls)
}

func (s *ClubServiceTestSuite) TestMockUnknownClub() {
	s.useMock()

	_, err := s.svc.AddMember(s.ctx, "nope", models.NewMember{Name: "x"})
	s.ErrorIs(err, ErrClubNotFound)
	s.ErrorIs(s.svc.UpdateClub(s.ctx, "nope", models.ClubPatch{}), ErrClubNotFound)
	s.ErrorIs(s.svc.DeleteClub(s.ctx, "nope"), ErrClubNotFound)
	_, err = s.svc.GetClub(s.ctx, "nope")
	s.ErrorIs(err, ErrClubNotFound)
	s.Equal(i18n.KeyClubNotFound, s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestMockGetClearsErrorSlot() {
	s.useMock()

	_, err := s.svc.AddMember(s.ctx, "nope", models.NewMember{Name: "x"})
	s.ErrorIs(err, ErrClubNotFound)
	s.Equal(i18n.KeyClubNotFound, s.svc.State().ErrorKey)

	var states []State
	unwatch := s.svc.Watch(func(st State) { states = append(states, st) })
	defer unwatch()

	_, err = s.svc.GetClub(s.ctx, s.svc.State().Clubs[0].ID)
	s.Require().NoError(err)
	s.Empty(s.svc.State().ErrorKey)
	s.Require().Len(states, 1)
	s.Empty(states[0].ErrorKey)

	_, err = s.svc.GetClub(s.ctx, s.svc.State().Clubs[0].ID)
	s.Require().NoError(err)
	s.Len(states, 1, "a clean read does not notify")
}

func (s *ClubServiceTestSuite) TestMockBranchChecksModeUnderTheSameLock() {
	s.useMock()

	handled, err := s.svc.inMockMode("noop", func() error {
		s.False(s.svc.mu.TryLock(), "fn runs with the state lock held")
		s.True(s.svc.useMock)
		return nil
	})
	s.True(handled)
	s.NoError(err)

	s.Require().NoError(s.svc.SetSource(s.ctx, false))

	called := false
	handled, _ = s.svc.inMockMode("noop", func() error {
		called = true
		return nil
	})
	s.False(handled)
	s.False(called)

	club, err := s.svc.CreateClub(s.ctx, models.NewClub{Name: "원격 동아리"})
	s.Require().NoError(err)
	s.False(strings.HasPrefix(club.ID, "mock-"))
	s.Equal(1, s.remote.createCalls)
	for _, c := range s.svc.State().Clubs {
		s.False(strings.HasPrefix(c.ID, "mock-"), c.ID)
	}
}

func (s *ClubServiceTestSuite) TestMockUpdateAndDelete() {
	s.useMock()
	clubID := s.svc.State().Clubs[0].ID
	name := "새 이름"

	s.Require().NoError(s.svc.UpdateClub(s.ctx, clubID, models.ClubPatch{Name: &name}))
	club, _ := s.svc.GetClub(s.ctx, clubID)
	s.Equal(name, club.Name)

	s.Require().NoError(s.svc.DeleteClub(s.ctx, clubID))
	_, err := s.svc.GetClub(s.ctx, clubID)
	s.ErrorIs(err, ErrClubNotFound)
}

func (s *ClubServiceTestSuite) TestMockUpdateMemberAvatar() {
	s.useMock()
	club := s.svc.State().Clubs[0]
	memberID := club.Members[0].ID

	s.Require().NoError(s.svc.UpdateMemberAvatar(s.ctx, club.ID, memberID, "https://img/new.png"))
	updated, _ := s.svc.GetClub(s.ctx, club.ID)
	s.Equal("https://img/new.png", updated.Members[0].ProfileImage)

	s.ErrorIs(s.svc.UpdateMemberAvatar(s.ctx, club.ID, "ghost", "x"), ErrMemberNotFound)
	s.Equal(i18n.KeyMemberNotFound, s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestRemoteMutationLeavesLocalStateToFeed() {
	s.svc.Initialize(s.ctx)
	clubID := s.svc.State().Clubs[0].ID
	before := s.svc.State().Clubs

	member, err := s.svc.AddMember(s.ctx, clubID, models.NewMember{Name: "원격"})
	s.Require().NoError(err)
	s.Equal("remote-member", member.ID)
	s.Equal(before, s.svc.State().Clubs)
}

func (s *ClubServiceTestSuite) TestRemoteMutationFailureRecordsError() {
	s.svc.Initialize(s.ctx)
	s.remote.mutationErr = errRemoteDown

	_, err := s.svc.AddActivity(s.ctx, "any", models.NewEntry{Content: "x", Author: "y"})
	s.ErrorIs(err, errRemoteDown)
	s.Equal(i18n.KeyActivityAddFailed, s.svc.State().ErrorKey)

	s.remote.mutationErr = nil
	_, err = s.svc.CreateClub(s.ctx, models.NewClub{Name: "ok"})
	s.Require().NoError(err)
	s.Empty(s.svc.State().ErrorKey, "success clears the error slot")
}

func (s *ClubServiceTestSuite) TestRemoteUnknownClub() {
	s.svc.Initialize(s.ctx)

	_, err := s.svc.AddRollingPaper(s.ctx, "nope", models.NewEntry{Content: "x", Author: "y"})
	s.ErrorIs(err, ErrClubNotFound)
	_, err = s.svc.GetClub(s.ctx, "nope")
	s.ErrorIs(err, ErrClubNotFound)
}

func (s *ClubServiceTestSuite) TestRemoteGetClearsErrorSlot() {
	s.svc.Initialize(s.ctx)
	clubID := s.svc.State().Clubs[0].ID

	_, err := s.svc.AddMember(s.ctx, "nope", models.NewMember{Name: "x"})
	s.ErrorIs(err, ErrClubNotFound)
	s.Equal(i18n.KeyClubNotFound, s.svc.State().ErrorKey)

	club, err := s.svc.GetClub(s.ctx, clubID)
	s.Require().NoError(err)
	s.Equal(clubID, club.ID)
	s.Empty(s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestRemoteGetFallsBackToStatic() {
	s.svc.Initialize(s.ctx)
	s.remote.mutationErr = errRemoteDown
	static := seed.Clubs()[3]

	club, err := s.svc.GetClub(s.ctx, static.ID)
	s.Require().NoError(err)
	s.Equal(static.Name, club.Name)
	s.Equal(i18n.KeyClubLoadFailed, s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestRemoteAvatarIsUploaded() {
	s.svc.Initialize(s.ctx)
	club := s.svc.State().Clubs[0]

	member, err := s.svc.AddMemberWithAvatar(s.ctx, club.ID, models.NewMember{Name: "김"}, "data:image/png;base64,AAAA")
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/avatars/"+club.ID+"/1-avatar.png", member.ProfileImage)

	s.Require().NoError(s.svc.UpdateMemberAvatar(s.ctx, club.ID, club.Members[0].ID, "data:image/png;base64,BBBB"))
	s.Equal(2, s.uploader.calls)
	s.True(strings.HasPrefix(s.remote.avatarURL, "https://cdn.example.com/"))
}

func (s *ClubServiceTestSuite) TestRemoteAvatarReplacementDeletesPreviousUpload() {
	s.svc.Initialize(s.ctx)
	club := s.svc.State().Clubs[0]
	memberID := club.Members[0].ID
	old := "https://cdn.example.com/avatars/" + club.ID + "/0-avatar.png"
	s.Require().NoError(s.remote.withClub(club.ID, func(c *models.Club) error {
		c.Members[0].ProfileImage = old
		return nil
	}))

	s.Require().NoError(s.svc.UpdateMemberAvatar(s.ctx, club.ID, memberID, "data:image/png;base64,BBBB"))
	s.Equal([]string{old}, s.uploader.deleted)

	// Re-pointing at the current URL keeps the object.
	current := s.remote.avatarURL
	s.Require().NoError(s.svc.UpdateMemberAvatar(s.ctx, club.ID, memberID, current))
	s.Len(s.uploader.deleted, 1)
}

func (s *ClubServiceTestSuite) TestRemoteAvatarWriteFailureKeepsPreviousUpload() {
	s.svc.Initialize(s.ctx)
	club := s.svc.State().Clubs[0]
	s.remote.mutationErr = errRemoteDown

	err := s.svc.UpdateMemberAvatar(s.ctx, club.ID, club.Members[0].ID, "data:image/png;base64,BBBB")
	s.ErrorIs(err, errRemoteDown)
	s.Empty(s.uploader.deleted)
}

func (s *ClubServiceTestSuite) TestRemoteAvatarUploadFailure() {
	s.svc.Initialize(s.ctx)
	s.uploader.err = errRemoteDown

	_, err := s.svc.AddMemberWithAvatar(s.ctx, s.svc.State().Clubs[0].ID, models.NewMember{Name: "김"}, "data:image/png;base64,AAAA")
	s.ErrorIs(err, errRemoteDown)
	s.Equal(i18n.KeyMemberAddFailed, s.svc.State().ErrorKey)
}

func (s *ClubServiceTestSuite) TestSubscribeToClubInMockMode() {
	s.useMock()
	clubID := s.svc.State().Clubs[0].ID

	got := make(chan *models.Club, 1)
	unsubscribe, err := s.svc.SubscribeToClub(s.ctx, clubID, func(c *models.Club) { got <- c })
	s.Require().NoError(err)
	defer unsubscribe()

	select {
	case c := <-got:
		s.Equal(clubID, c.ID)
	case <-time.After(time.Second):
		s.Fail("mock subscription never delivered")
	}
}

func (s *ClubServiceTestSuite) TestWatchReceivesStateChanges() {
	s.useMock()

	var states []State
	cancel := s.svc.Watch(func(st State) { states = append(states, st) })

	_, err := s.svc.CreateClub(s.ctx, models.NewClub{Name: "새 동아리"})
	s.Require().NoError(err)
	s.Require().Len(states, 1)
	s.Len(states[0].Clubs, len(seed.Clubs())+1)

	cancel()
	_, err = s.svc.CreateClub(s.ctx, models.NewClub{Name: "또 하나"})
	s.Require().NoError(err)
	s.Len(states, 1)
}

func (s *ClubServiceTestSuite) TestStateIsACopy() {
	s.useMock()

	state := s.svc.State()
	state.Clubs[0].Name = "changed"
	state.Clubs[0].Members = nil

	s.NotEqual("changed", s.svc.State().Clubs[0].Name)
	s.NotEmpty(s.svc.State().Clubs[0].Members)
}

func TestClubServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ClubServiceTestSuite))
}

func TestMockIDsStrictlyIncrease(t *testing.T) {
	fixed := time.UnixMilli(1000)
	ids := &mockIDs{now: func() time.Time { return fixed }}

	assert.Equal(t, "mock-1000", ids.next("mock-"))
	assert.Equal(t, "mock-member-1001", ids.next("mock-member-"))
	assert.Equal(t, "mock-1002", ids.next("mock-"))
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, sleepContext(ctx, time.Hour))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
