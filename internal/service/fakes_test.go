package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/internal/notify"
	"leaguevote/internal/repository"
)

var errDatabaseDown = errors.New("connection refused")

// memStore is an in-memory store that enforces the same unique constraints as the schema
type memStore struct {
	mu      sync.Mutex
	matches map[string]*domain.Match
	players map[string]*domain.Player
	votes   []*domain.Vote
	awards  map[string]*domain.Award

	failMatchGet    error
	failListMatches error
	failVoteList    map[string]error
	failVoteCreate  error
	failAwardCreate error
	failAdjust      error
}

func newMemStore() *memStore {
	return &memStore{
		matches:      map[string]*domain.Match{},
		players:      map[string]*domain.Player{},
		awards:       map[string]*domain.Award{},
		failVoteList: map[string]error{},
	}
}

func (m *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Match:  (*memMatches)(m),
		Player: (*memPlayers)(m),
		Vote:   (*memVotes)(m),
		Award:  (*memAwards)(m),
	}
}

func (m *memStore) addMatch(match *domain.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = match
}

func (m *memStore) addPlayer(id, teamID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[id] = &domain.Player{ID: id, TeamID: teamID, Name: "Player " + id}
}

func (m *memStore) addVote(matchID, playerID, voterID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes = append(m.votes, &domain.Vote{
		ID: matchID + "/" + voterID, MatchID: matchID, PlayerID: playerID, VoterID: voterID, CreatedAt: at,
	})
}

func (m *memStore) voteCount(matchID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.votes {
		if v.MatchID == matchID {
			n++
		}
	}
	return n
}

func (m *memStore) award(matchID string) *domain.Award {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awards[matchID]
}

func (m *memStore) motmCount(playerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[playerID].MOTMCount
}

type memMatches memStore

func (r *memMatches) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMatchGet != nil {
		return nil, r.failMatchGet
	}
	match, ok := r.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *match
	return &cp, nil
}

func (r *memMatches) ListFinishedWithoutAward(ctx context.Context) ([]*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failListMatches != nil {
		return nil, r.failListMatches
	}
	var out []*domain.Match
	for _, match := range r.matches {
		if match.Status != domain.MatchStatusFinished {
			continue
		}
		if _, awarded := r.awards[match.ID]; awarded {
			continue
		}
		cp := *match
		out = append(out, &cp)
	}
	return out, nil
}

type memPlayers memStore

func (r *memPlayers) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[id]
	if !ok {
		return nil, nil
	}
	cp := *player
	return &cp, nil
}

func (r *memPlayers) AdjustMOTMCount(ctx context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdjust != nil {
		return r.failAdjust
	}
	player, ok := r.players[id]
	if !ok {
		return errors.New("player not found")
	}
	player.MOTMCount += delta
	if player.MOTMCount < 0 {
		player.MOTMCount = 0
	}
	return nil
}

type memVotes memStore

func (r *memVotes) Create(ctx context.Context, vote *domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failVoteCreate != nil {
		return r.failVoteCreate
	}
	for _, v := range r.votes {
		if v.MatchID == vote.MatchID && v.VoterID == vote.VoterID {
			return domain.ErrDuplicateVote
		}
	}
	cp := *vote
	r.votes = append(r.votes, &cp)
	return nil
}

func (r *memVotes) GetByMatchAndVoter(ctx context.Context, matchID, voterID string) (*domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.MatchID == matchID && v.VoterID == voterID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memVotes) ListByMatchUntil(ctx context.Context, matchID string, until time.Time) ([]*domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failVoteList[matchID]; err != nil {
		return nil, err
	}
	var out []*domain.Vote
	for _, v := range r.votes {
		if v.MatchID == matchID && !v.CreatedAt.After(until) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memVotes) CountByMatch(ctx context.Context, matchID string) (int, error) {
	return (*memStore)(r).voteCount(matchID), nil
}

type memAwards memStore

func (r *memAwards) Create(ctx context.Context, award *domain.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAwardCreate != nil {
		return r.failAwardCreate
	}
	if _, ok := r.awards[award.MatchID]; ok {
		return domain.ErrAwardExists
	}
	cp := *award
	r.awards[award.MatchID] = &cp
	return nil
}

func (r *memAwards) GetByMatchID(ctx context.Context, matchID string) (*domain.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	award, ok := r.awards[matchID]
	if !ok {
		return nil, nil
	}
	cp := *award
	return &cp, nil
}

func (r *memAwards) DeleteByMatchID(ctx context.Context, matchID string) (*domain.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	award, ok := r.awards[matchID]
	if !ok {
		return nil, domain.ErrAwardNotFound
	}
	delete(r.awards, matchID)
	return award, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	err  error
	msgs []notify.Message
}

func (n *recordingNotifier) Enqueue(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
