package service

import "time"

type options struct {
	now      func() time.Time
	notifier Notifier
	events   EventPublisher
}

// Option configures VotingService and AwardService
type Option func(*options)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		notifier: nopNotifier{},
		events:   nopPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = nopNotifier{}
	}
	if o.events == nil {
		o.events = nopPublisher{}
	}
	return o
}
