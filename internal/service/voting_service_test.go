package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	whistle = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	grace   = 10 * time.Minute
	fan     = &domain.Identity{Subject: "fan-1", Email: "fan@example.com", EmailVerified: true}
)

type votingFixture struct {
	store     *memStore
	notifier  *recordingNotifier
	publisher *recordingPublisher
	service   *VotingService
}

// newVotingFixture builds a store with match m-1 (home vs away) finished at 12:00
func newVotingFixture(t *testing.T, now time.Time, cache *CacheService) *votingFixture {
	t.Helper()
	store := newMemStore()
	finishedAt := whistle
	store.addMatch(&domain.Match{ID: "m-1", HomeTeamID: "home", AwayTeamID: "away", Status: domain.MatchStatusFinished, UpdatedAt: &finishedAt})
	store.addMatch(&domain.Match{ID: "m-live", HomeTeamID: "home", AwayTeamID: "away", Status: domain.MatchStatusLive})
	store.addMatch(&domain.Match{ID: "m-next", HomeTeamID: "home", AwayTeamID: "away", Status: domain.MatchStatusScheduled})
	store.addPlayer("p-home", "home")
	store.addPlayer("p-away", "away")
	store.addPlayer("p-other", "other")

	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	service := NewVotingService(store.repos(), cache, grace, zap.NewNop(),
		WithClock(fixedClock(now)),
		WithNotifier(notifier),
		WithEvents(publisher),
	)
	return &votingFixture{store: store, notifier: notifier, publisher: publisher, service: service}
}

func TestCastVote_Success(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(5*time.Minute), nil)

	result, err := f.service.CastVote(context.Background(), fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.VoteID)
	assert.Equal(t, "m-1", result.MatchID)
	assert.Equal(t, "p-home", result.PlayerID)
	assert.Equal(t, whistle.Add(5*time.Minute), result.Timestamp)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, f.store.voteCount("m-1"))

	require.Len(t, f.notifier.msgs, 1)
	assert.Equal(t, TemplateVoteConfirmation, f.notifier.msgs[0].Template)
	assert.Equal(t, "fan@example.com", f.notifier.msgs[0].To)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventVoteCast, f.publisher.events[0].Type)
	assert.Equal(t, map[string]int{"total_votes": 1}, f.publisher.events[0].Payload)
}

func TestCastVote_ValidationOrder(t *testing.T) {
	unverified := &domain.Identity{Subject: "fan-2", Email: "new@example.com"}

	tests := []struct {
		name     string
		identity *domain.Identity
		req      domain.CastVoteRequest
		now      time.Time
		wantErr  error
	}{
		{
			name:    "no identity",
			req:     domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"},
			now:     whistle,
			wantErr: domain.ErrUnauthenticated,
		},
		{
			name:     "empty subject",
			identity: &domain.Identity{EmailVerified: true},
			req:      domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"},
			now:      whistle,
			wantErr:  domain.ErrUnauthenticated,
		},
		{
			name:     "unverified beats closed window",
			identity: unverified,
			req:      domain.CastVoteRequest{MatchID: "m-next", PlayerID: "p-other"},
			now:      whistle,
			wantErr:  domain.ErrUnverifiedIdentity,
		},
		{
			name:     "scheduled match",
			identity: fan,
			req:      domain.CastVoteRequest{MatchID: "m-next", PlayerID: "p-home"},
			now:      whistle,
			wantErr:  domain.ErrVotingClosed,
		},
		{
			name:     "unknown match",
			identity: fan,
			req:      domain.CastVoteRequest{MatchID: "m-ghost", PlayerID: "p-home"},
			now:      whistle,
			wantErr:  domain.ErrVotingClosed,
		},
		{
			name:     "window closed beats invalid player",
			identity: fan,
			req:      domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-other"},
			now:      whistle.Add(grace),
			wantErr:  domain.ErrVotingClosed,
		},
		{
			name:     "player from another team",
			identity: fan,
			req:      domain.CastVoteRequest{MatchID: "m-live", PlayerID: "p-other"},
			now:      whistle,
			wantErr:  domain.ErrInvalidPlayer,
		},
		{
			name:     "unknown player",
			identity: fan,
			req:      domain.CastVoteRequest{MatchID: "m-live", PlayerID: "p-ghost"},
			now:      whistle,
			wantErr:  domain.ErrInvalidPlayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVotingFixture(t, tt.now, nil)

			result, err := f.service.CastVote(context.Background(), tt.identity, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.Zero(t, f.store.voteCount(tt.req.MatchID))
			assert.Empty(t, f.notifier.msgs)
		})
	}
}

func TestCastVote_Duplicate(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Minute), nil)
	ctx := context.Background()

	_, err := f.service.CastVote(ctx, fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
	require.NoError(t, err)

	_, err = f.service.CastVote(ctx, fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-away"})
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)
	assert.Equal(t, 1, f.store.voteCount("m-1"))

	// a different match is a separate ballot
	_, err = f.service.CastVote(ctx, fan, domain.CastVoteRequest{MatchID: "m-live", PlayerID: "p-away"})
	assert.NoError(t, err)
}

func TestCastVote_ConcurrentDuplicate(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Minute), nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.service.CastVote(context.Background(), fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateVote):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
	assert.Equal(t, 1, f.store.voteCount("m-1"))
}

func TestCastVote_StorageFailure(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Minute), nil)
	f.store.failVoteCreate = errDatabaseDown

	_, err := f.service.CastVote(context.Background(), fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.ErrorIs(t, err, errDatabaseDown)

	f.store.failVoteCreate = nil
	f.store.failMatchGet = errDatabaseDown
	_, err = f.service.CastVote(context.Background(), fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestCastVote_NotificationFailureKeepsVote(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Minute), nil)
	f.notifier.err = notify.ErrQueueFull

	result, err := f.service.CastVote(context.Background(), fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-away"})
	require.NoError(t, err)
	assert.Equal(t, []string{warnConfirmationNotQueued}, result.Warnings)
	assert.Equal(t, 1, f.store.voteCount("m-1"))
}

func TestCastVote_WithoutOptionalCollaborators(t *testing.T) {
	f := newVotingFixture(t, whistle, nil)
	service := NewVotingService(f.store.repos(), nil, grace, nil, WithClock(fixedClock(whistle)))

	_, err := service.CastVote(context.Background(), fan, domain.CastVoteRequest{MatchID: "m-live", PlayerID: "p-home"})
	assert.NoError(t, err)
}

func TestGetMyVote(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Minute), nil)
	ctx := context.Background()

	vote, err := f.service.GetMyVote(ctx, fan, "m-1")
	require.NoError(t, err)
	assert.Nil(t, vote)

	_, err = f.service.CastVote(ctx, fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
	require.NoError(t, err)

	vote, err = f.service.GetMyVote(ctx, fan, "m-1")
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, "p-home", vote.PlayerID)

	_, err = f.service.GetMyVote(ctx, nil, "m-1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGetResults_RevealOnlyToVoters(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Minute), nil)
	ctx := context.Background()
	f.store.addVote("m-1", "p-away", "fan-9", whistle.Add(-30*time.Minute))

	_, err := f.service.GetResults(ctx, fan, "m-1")
	assert.ErrorIs(t, err, domain.ErrResultsHidden)

	_, err = f.service.CastVote(ctx, fan, domain.CastVoteRequest{MatchID: "m-1", PlayerID: "p-home"})
	require.NoError(t, err)

	results, err := f.service.GetResults(ctx, fan, "m-1")
	require.NoError(t, err)
	assert.True(t, results.VotingOpen)
	assert.Equal(t, 2, results.TotalVotes)
	assert.Len(t, results.Tally, 2)
	assert.Nil(t, results.Award)

	_, err = f.service.GetResults(ctx, fan, "m-ghost")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	_, err = f.service.GetResults(ctx, nil, "m-1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGetResults_ExcludesLateVotes(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(time.Hour), nil)
	f.store.addVote("m-1", "p-home", "fan-1", whistle.Add(5*time.Minute))
	f.store.addVote("m-1", "p-away", "fan-2", whistle.Add(11*time.Minute))

	results, err := f.service.GetResults(context.Background(), fan, "m-1")
	require.NoError(t, err)
	assert.False(t, results.VotingOpen)
	assert.Equal(t, 1, results.TotalVotes)
	assert.Equal(t, []domain.PlayerTally{{PlayerID: "p-home", Votes: 1}}, results.Tally)
}

func TestGetVotingStatus(t *testing.T) {
	f := newVotingFixture(t, whistle.Add(3*time.Minute), nil)
	ctx := context.Background()
	f.store.addVote("m-1", "p-home", "fan-1", whistle.Add(time.Minute))

	status, err := f.service.GetVotingStatus(ctx, nil, "m-1")
	require.NoError(t, err)
	assert.True(t, status.VotingOpen)
	assert.Equal(t, domain.MatchStatusFinished, status.MatchStatus)
	require.NotNil(t, status.VotingEndsAt)
	assert.Equal(t, whistle.Add(grace), *status.VotingEndsAt)
	assert.Equal(t, 1, status.TotalVotes)
	assert.False(t, status.UserHasVoted)

	status, err = f.service.GetVotingStatus(ctx, fan, "m-1")
	require.NoError(t, err)
	assert.True(t, status.UserHasVoted)

	status, err = f.service.GetVotingStatus(ctx, fan, "m-live")
	require.NoError(t, err)
	assert.True(t, status.VotingOpen)
	assert.Nil(t, status.VotingEndsAt)

	_, err = f.service.GetVotingStatus(ctx, nil, "m-ghost")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}
