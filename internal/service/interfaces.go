package service

import (
	"context"

	"leaguevote/internal/domain"
	"leaguevote/internal/notify"
)

// AuthService resolves a bearer token to the caller's identity
type AuthService interface {
	// Authenticate validates a Supabase JWT or a Google access token
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// EventPublisher pushes match events to realtime subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// Notifier accepts confirmation messages for asynchronous delivery
type Notifier interface {
	Enqueue(ctx context.Context, msg notify.Message) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) {}

type nopNotifier struct{}

func (nopNotifier) Enqueue(context.Context, notify.Message) error { return nil }
