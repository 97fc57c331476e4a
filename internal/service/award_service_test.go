package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"leaguevote/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func finishedAt(at time.Time) *domain.Match {
	return &domain.Match{HomeTeamID: "home", AwayTeamID: "away", Status: domain.MatchStatusFinished, UpdatedAt: &at}
}

func addFinishedMatch(store *memStore, id string, at time.Time) {
	match := finishedAt(at)
	match.ID = id
	store.addMatch(match)
}

func addVotes(store *memStore, matchID, playerID string, n int, at time.Time) {
	for i := 0; i < n; i++ {
		store.addVote(matchID, playerID, fmt.Sprintf("%s-voter-%d", playerID, i), at)
	}
}

func newAwardStore() *memStore {
	store := newMemStore()
	for _, id := range []string{"A", "B", "C", "P1", "P2"} {
		store.addPlayer(id, "home")
	}
	return store
}

func newAwardService(store *memStore, threshold int, now time.Time, publisher EventPublisher) *AwardService {
	return NewAwardService(store.repos(), nil, grace, threshold, zap.NewNop(),
		WithClock(fixedClock(now)),
		WithEvents(publisher))
}

func TestAwardRun_Scenario(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-1", whistle)
	addVotes(store, "m-1", "P1", 10, whistle.Add(5*time.Minute))
	addVotes(store, "m-1", "P2", 15, whistle.Add(11*time.Minute))

	// before the window closes nothing is evaluated
	early, err := newAwardService(store, 10, whistle.Add(9*time.Minute), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, early.ProcessedCount)
	assert.Nil(t, store.award("m-1"))

	publisher := &recordingPublisher{}
	summary, err := newAwardService(store, 10, whistle.Add(10*time.Minute), publisher).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, []string{"m-1"}, summary.AwardedMatches)
	assert.Empty(t, summary.FailedMatches)

	award := store.award("m-1")
	require.NotNil(t, award)
	assert.Equal(t, "P1", award.PlayerID, "late votes for P2 are not counted")
	assert.Equal(t, 10, award.VoteCount)
	assert.Equal(t, 1, store.motmCount("P1"))
	assert.Equal(t, []domain.EventType{domain.EventMOTMAwarded}, publisher.types())
}

func TestAwardRun_Idempotent(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-1", whistle)
	addVotes(store, "m-1", "A", 3, whistle.Add(time.Minute))
	service := newAwardService(store, 0, whistle.Add(time.Hour), nil)

	first, err := service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"m-1"}, first.AwardedMatches)

	second, err := service.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.ProcessedCount)
	assert.Empty(t, second.AwardedMatches)

	assert.Equal(t, 1, store.motmCount("A"))
}

func TestAwardRun_TieBreak(t *testing.T) {
	for i := 0; i < 5; i++ {
		store := newAwardStore()
		addFinishedMatch(store, "m-1", whistle)
		addVotes(store, "m-1", "B", 3, whistle.Add(time.Minute))
		addVotes(store, "m-1", "A", 3, whistle.Add(2*time.Minute))
		addVotes(store, "m-1", "C", 1, whistle.Add(3*time.Minute))

		_, err := newAwardService(store, 0, whistle.Add(time.Hour), nil).Run(context.Background())
		require.NoError(t, err)
		require.NotNil(t, store.award("m-1"))
		assert.Equal(t, "A", store.award("m-1").PlayerID)
	}
}

func TestAwardRun_Threshold(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-9", whistle)
	addFinishedMatch(store, "m-10", whistle)
	addVotes(store, "m-9", "A", 9, whistle.Add(time.Minute))
	addVotes(store, "m-10", "A", 10, whistle.Add(time.Minute))

	summary, err := newAwardService(store, 10, whistle.Add(time.Hour), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Equal(t, []string{"m-10"}, summary.AwardedMatches)
	assert.Nil(t, store.award("m-9"))
	assert.Equal(t, "A", store.award("m-10").PlayerID)
}

func TestAwardRun_SkipsWithoutVotesOrFinishTime(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-empty", whistle)
	store.addMatch(&domain.Match{ID: "m-no-time", Status: domain.MatchStatusFinished})
	store.addVote("m-no-time", "A", "fan-1", whistle)

	summary, err := newAwardService(store, 0, whistle.Add(time.Hour), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Empty(t, summary.AwardedMatches)
	assert.Nil(t, store.award("m-empty"))
	assert.Nil(t, store.award("m-no-time"))
}

func TestAwardRun_ContinuesAfterMatchFailure(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-bad", whistle)
	addFinishedMatch(store, "m-good", whistle)
	addVotes(store, "m-good", "B", 2, whistle.Add(time.Minute))
	store.failVoteList["m-bad"] = errDatabaseDown

	summary, err := newAwardService(store, 0, whistle.Add(time.Hour), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Equal(t, []string{"m-good"}, summary.AwardedMatches)
	assert.Equal(t, []string{"m-bad"}, summary.FailedMatches)
}

func TestAwardRun_ListFailureAborts(t *testing.T) {
	store := newAwardStore()
	store.failListMatches = errDatabaseDown

	summary, err := newAwardService(store, 0, whistle, nil).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.ErrorIs(t, err, errDatabaseDown)
	assert.Nil(t, summary)
}

func TestAwardRun_ConcurrentAwardIsNotAFailure(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-1", whistle)
	addVotes(store, "m-1", "A", 2, whistle.Add(time.Minute))
	store.failAwardCreate = domain.ErrAwardExists

	summary, err := newAwardService(store, 0, whistle.Add(time.Hour), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Empty(t, summary.AwardedMatches)
	assert.Empty(t, summary.FailedMatches)
	assert.Zero(t, store.motmCount("A"))
}

func TestAwardRun_CounterFailureKeepsAward(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-1", whistle)
	addVotes(store, "m-1", "A", 2, whistle.Add(time.Minute))
	store.failAdjust = errDatabaseDown

	summary, err := newAwardService(store, 0, whistle.Add(time.Hour), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"m-1"}, summary.AwardedMatches)
	assert.NotNil(t, store.award("m-1"))
}

func TestRevokeAward(t *testing.T) {
	store := newAwardStore()
	addFinishedMatch(store, "m-1", whistle)
	addVotes(store, "m-1", "A", 2, whistle.Add(time.Minute))
	publisher := &recordingPublisher{}
	service := newAwardService(store, 0, whistle.Add(time.Hour), publisher)

	_, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.motmCount("A"))

	award, err := service.GetAward(context.Background(), "m-1")
	require.NoError(t, err)
	require.NotNil(t, award)

	revoked, err := service.RevokeAward(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, "A", revoked.PlayerID)
	assert.Nil(t, store.award("m-1"))
	assert.Zero(t, store.motmCount("A"))
	assert.Equal(t, []domain.EventType{domain.EventMOTMAwarded, domain.EventMOTMRevoked}, publisher.types())

	_, err = service.RevokeAward(context.Background(), "m-1")
	assert.ErrorIs(t, err, domain.ErrAwardNotFound)
}
