package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/internal/notify"
	"leaguevote/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TemplateVoteConfirmation = "vote_confirmation"

	warnConfirmationNotQueued = "confirmation notification could not be queued"
)

type VotingService struct {
	repos  *repository.Repositories
	cache  *CacheService
	grace  time.Duration
	opts   options
	logger *zap.Logger
}

func NewVotingService(repos *repository.Repositories, cache *CacheService, grace time.Duration, logger *zap.Logger, opts ...Option) *VotingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VotingService{
		repos:  repos,
		cache:  cache,
		grace:  grace,
		opts:   buildOptions(opts),
		logger: logger,
	}
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}

// CastVote validates and persists one Player of the Match vote.
// Checks run in a fixed order and the first failure is returned.
func (s *VotingService) CastVote(ctx context.Context, identity *domain.Identity, req domain.CastVoteRequest) (*domain.CastVoteResult, error) {
	if !identity.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !identity.EmailVerified {
		return nil, domain.ErrUnverifiedIdentity
	}

	now := s.opts.now().UTC()

	match, err := s.repos.Match.GetByID(ctx, req.MatchID)
	if err != nil {
		return nil, storageFailure(err)
	}
	if match == nil || !IsVotingOpen(match, now, s.grace) {
		return nil, domain.ErrVotingClosed
	}

	player, err := s.repos.Player.GetByID(ctx, req.PlayerID)
	if err != nil {
		return nil, storageFailure(err)
	}
	if player == nil || !match.HasTeam(player.TeamID) {
		return nil, domain.ErrInvalidPlayer
	}

	if s.cache.HasVoted(ctx, match.ID, identity.Subject) {
		return nil, domain.ErrDuplicateVote
	}
	existing, err := s.repos.Vote.GetByMatchAndVoter(ctx, match.ID, identity.Subject)
	if err != nil {
		return nil, storageFailure(err)
	}
	if existing != nil {
		s.cache.MarkVoted(ctx, match.ID, identity.Subject, existing.ID)
		return nil, domain.ErrDuplicateVote
	}

	vote := &domain.Vote{
		ID:        uuid.NewString(),
		MatchID:   match.ID,
		PlayerID:  player.ID,
		VoterID:   identity.Subject,
		CreatedAt: now,
	}
	// the unique (match_id, voter_id) constraint settles concurrent submissions
	if err := s.repos.Vote.Create(ctx, vote); err != nil {
		if errors.Is(err, domain.ErrDuplicateVote) {
			return nil, domain.ErrDuplicateVote
		}
		return nil, storageFailure(err)
	}

	s.logger.Info("Vote recorded",
		zap.String("vote_id", vote.ID),
		zap.String("match_id", vote.MatchID),
		zap.String("player_id", vote.PlayerID))

	s.cache.MarkVoted(ctx, match.ID, identity.Subject, vote.ID)
	s.cache.InvalidateTally(ctx, match.ID)

	result := &domain.CastVoteResult{
		VoteID:    vote.ID,
		MatchID:   vote.MatchID,
		PlayerID:  vote.PlayerID,
		Timestamp: vote.CreatedAt,
		Message:   "Vote submitted successfully",
	}

	msg := notify.Message{
		Template: TemplateVoteConfirmation,
		To:       identity.Email,
		Data: map[string]interface{}{
			"vote_id":     vote.ID,
			"match_id":    vote.MatchID,
			"player_id":   player.ID,
			"player_name": player.Name,
			"voter_name":  identity.Name,
		},
	}
	if err := s.opts.notifier.Enqueue(ctx, msg); err != nil {
		s.logger.Warn("Failed to queue vote confirmation",
			zap.String("vote_id", vote.ID),
			zap.Error(err))
		result.Warnings = append(result.Warnings, warnConfirmationNotQueued)
	}

	s.publishVoteCast(ctx, match.ID, now)

	return result, nil
}

// publishVoteCast sends only the running total; the per-player breakdown stays hidden
func (s *VotingService) publishVoteCast(ctx context.Context, matchID string, at time.Time) {
	total, err := s.repos.Vote.CountByMatch(ctx, matchID)
	if err != nil {
		s.logger.Warn("Failed to count votes for realtime event", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	s.opts.events.Publish(ctx, domain.Event{
		Type:    domain.EventVoteCast,
		MatchID: matchID,
		Payload: map[string]int{"total_votes": total},
		At:      at,
	})
}

// GetMyVote returns the caller's vote for the match, or nil
func (s *VotingService) GetMyVote(ctx context.Context, identity *domain.Identity, matchID string) (*domain.Vote, error) {
	if !identity.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	vote, err := s.repos.Vote.GetByMatchAndVoter(ctx, matchID, identity.Subject)
	if err != nil {
		return nil, storageFailure(err)
	}
	return vote, nil
}

// GetVotingStatus returns the public window state of a match. identity may be nil.
func (s *VotingService) GetVotingStatus(ctx context.Context, identity *domain.Identity, matchID string) (*domain.VotingStatus, error) {
	match, err := s.repos.Match.GetByID(ctx, matchID)
	if err != nil {
		return nil, storageFailure(err)
	}
	if match == nil {
		return nil, domain.ErrMatchNotFound
	}

	total, err := s.repos.Vote.CountByMatch(ctx, matchID)
	if err != nil {
		return nil, storageFailure(err)
	}

	status := &domain.VotingStatus{
		MatchID:     match.ID,
		MatchStatus: match.Status,
		VotingOpen:  IsVotingOpen(match, s.opts.now(), s.grace),
		TotalVotes:  total,
	}
	if endsAt, ok := VotingEndsAt(match, s.grace); ok {
		status.VotingEndsAt = &endsAt
	}

	if identity.Authenticated() {
		voted, err := s.hasVoted(ctx, matchID, identity.Subject)
		if err != nil {
			return nil, err
		}
		status.UserHasVoted = voted
	}

	return status, nil
}

// GetResults returns the tally of in-window votes, only to callers who voted in the match
func (s *VotingService) GetResults(ctx context.Context, identity *domain.Identity, matchID string) (*domain.VotingResults, error) {
	if !identity.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	match, err := s.repos.Match.GetByID(ctx, matchID)
	if err != nil {
		return nil, storageFailure(err)
	}
	if match == nil {
		return nil, domain.ErrMatchNotFound
	}

	voted, err := s.hasVoted(ctx, matchID, identity.Subject)
	if err != nil {
		return nil, err
	}
	if !CanRevealResults(voted) {
		return nil, domain.ErrResultsHidden
	}

	now := s.opts.now().UTC()
	snapshot, err := s.tally(ctx, match, now)
	if err != nil {
		return nil, err
	}

	award, err := s.repos.Award.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, storageFailure(err)
	}

	return &domain.VotingResults{
		MatchID:    match.ID,
		VotingOpen: IsVotingOpen(match, now, s.grace),
		TotalVotes: snapshot.TotalVotes,
		Tally:      snapshot.Tally,
		CountedAt:  snapshot.CountedAt,
		Award:      award,
	}, nil
}

// tally counts votes up to the earlier of now and the close of the window
func (s *VotingService) tally(ctx context.Context, match *domain.Match, now time.Time) (*TallySnapshot, error) {
	if cached, ok := s.cache.GetTally(ctx, match.ID); ok {
		return cached, nil
	}

	cutoff := now
	if endsAt, ok := VotingEndsAt(match, s.grace); ok && endsAt.Before(now) {
		cutoff = endsAt
	}

	votes, err := s.repos.Vote.ListByMatchUntil(ctx, match.ID, cutoff)
	if err != nil {
		return nil, storageFailure(err)
	}

	tally := Tally(votes)
	snapshot := &TallySnapshot{
		TotalVotes: totalVotes(tally),
		Tally:      tally,
		CountedAt:  now,
	}
	s.cache.SetTally(ctx, match.ID, snapshot)
	return snapshot, nil
}

func (s *VotingService) hasVoted(ctx context.Context, matchID, voterID string) (bool, error) {
	if s.cache.HasVoted(ctx, matchID, voterID) {
		return true, nil
	}
	vote, err := s.repos.Vote.GetByMatchAndVoter(ctx, matchID, voterID)
	if err != nil {
		return false, storageFailure(err)
	}
	if vote != nil {
		s.cache.MarkVoted(ctx, matchID, voterID, vote.ID)
	}
	return vote != nil, nil
}
