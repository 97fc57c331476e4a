package service

import (
	"context"
	"errors"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AwardService runs the Man of the Match batch pass
type AwardService struct {
	repos     *repository.Repositories
	cache     *CacheService
	grace     time.Duration
	threshold int
	opts      options
	logger    *zap.Logger
}

func NewAwardService(repos *repository.Repositories, cache *CacheService, grace time.Duration, threshold int, logger *zap.Logger, opts ...Option) *AwardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AwardService{
		repos:     repos,
		cache:     cache,
		grace:     grace,
		threshold: threshold,
		opts:      buildOptions(opts),
		logger:    logger,
	}
}

// Run awards every finished match whose voting window has closed.
// Only a failure to list candidate matches is returned; per-match failures are
// recorded in the summary and the pass continues.
func (s *AwardService) Run(ctx context.Context) (*domain.AwardRunSummary, error) {
	summary := &domain.AwardRunSummary{AwardedMatches: []string{}}

	release, acquired := s.cache.AcquireRunLock(ctx)
	if !acquired {
		s.logger.Info("Award run already in progress, skipping")
		return summary, nil
	}
	defer release()

	matches, err := s.repos.Match.ListFinishedWithoutAward(ctx)
	if err != nil {
		return nil, storageFailure(err)
	}

	now := s.opts.now().UTC()
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		endsAt, ok := VotingEndsAt(match, s.grace)
		if !ok || now.Before(endsAt) {
			continue
		}
		summary.ProcessedCount++

		awarded, err := s.awardMatch(ctx, match, endsAt, now)
		if err != nil {
			s.logger.Error("Failed to award match",
				zap.String("match_id", match.ID),
				zap.Error(err))
			summary.FailedMatches = append(summary.FailedMatches, match.ID)
			continue
		}
		if awarded {
			summary.AwardedMatches = append(summary.AwardedMatches, match.ID)
		}
	}

	s.logger.Info("Award run completed",
		zap.Int("candidates", len(matches)),
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("awarded", len(summary.AwardedMatches)),
		zap.Int("failed", len(summary.FailedMatches)))

	return summary, nil
}

func (s *AwardService) awardMatch(ctx context.Context, match *domain.Match, endsAt, now time.Time) (bool, error) {
	// votes stored after the window closed are ignored
	votes, err := s.repos.Vote.ListByMatchUntil(ctx, match.ID, endsAt)
	if err != nil {
		return false, storageFailure(err)
	}
	if len(votes) == 0 {
		return false, nil
	}

	winner, ok := SelectWinner(Tally(votes), s.threshold)
	if !ok {
		s.logger.Debug("No winner for match",
			zap.String("match_id", match.ID),
			zap.Int("votes", len(votes)),
			zap.Int("threshold", s.threshold))
		return false, nil
	}

	award := &domain.Award{
		ID:        uuid.NewString(),
		MatchID:   match.ID,
		PlayerID:  winner.PlayerID,
		VoteCount: winner.Votes,
		CreatedAt: now,
	}
	if err := s.repos.Award.Create(ctx, award); err != nil {
		if errors.Is(err, domain.ErrAwardExists) {
			s.logger.Info("Match already awarded by a concurrent run", zap.String("match_id", match.ID))
			return false, nil
		}
		return false, storageFailure(err)
	}

	if err := s.repos.Player.AdjustMOTMCount(ctx, winner.PlayerID, 1); err != nil {
		s.logger.Warn("Award stored but MOTM counter not incremented",
			zap.String("match_id", match.ID),
			zap.String("player_id", winner.PlayerID),
			zap.Error(err))
	}

	s.logger.Info("Man of the Match awarded",
		zap.String("match_id", match.ID),
		zap.String("player_id", winner.PlayerID),
		zap.Int("votes", winner.Votes))

	s.opts.events.Publish(ctx, domain.Event{
		Type:    domain.EventMOTMAwarded,
		MatchID: match.ID,
		Payload: award,
		At:      now,
	})
	return true, nil
}

// GetAward returns the award for a match, or nil
func (s *AwardService) GetAward(ctx context.Context, matchID string) (*domain.Award, error) {
	award, err := s.repos.Award.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, storageFailure(err)
	}
	return award, nil
}

// RevokeAward is the admin override: the award row is deleted and the winner's
// counter is decremented on a best-effort basis.
func (s *AwardService) RevokeAward(ctx context.Context, matchID string) (*domain.Award, error) {
	award, err := s.repos.Award.DeleteByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, domain.ErrAwardNotFound) {
			return nil, err
		}
		return nil, storageFailure(err)
	}

	if err := s.repos.Player.AdjustMOTMCount(ctx, award.PlayerID, -1); err != nil {
		s.logger.Warn("Award revoked but MOTM counter not decremented",
			zap.String("match_id", matchID),
			zap.String("player_id", award.PlayerID),
			zap.Error(err))
	}

	s.logger.Info("Man of the Match revoked",
		zap.String("match_id", matchID),
		zap.String("player_id", award.PlayerID))

	s.opts.events.Publish(ctx, domain.Event{
		Type:    domain.EventMOTMRevoked,
		MatchID: matchID,
		Payload: award,
		At:      s.opts.now().UTC(),
	})
	return award, nil
}
