package bitfinex

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spooky-finn/bitfinex-feed-bridge/domain"
)

const defaultRetryDelay = time.Second

type MessageReader interface {
	ReadMessage() ([]byte, error)
}

type Resubscriber interface {
	Resubscribe(ch *Channel) error
}

// Feed pumps frames from the connection into the session, one at a time.
// A desynced book subscription is resubscribed so the exchange sends a new
// snapshot.
type Feed struct {
	reader       MessageReader
	session      *Session
	resubscriber Resubscriber
	policy       *DesyncPolicy
	logger       *log.Logger
	retryDelay   time.Duration
}

func NewFeed(reader MessageReader, session *Session, resubscriber Resubscriber, policy *DesyncPolicy) *Feed {
	if policy == nil {
		policy = NewDesyncPolicy(DefaultDesyncThreshold, DefaultDesyncWindow)
	}
	return &Feed{
		reader:       reader,
		session:      session,
		resubscriber: resubscriber,
		policy:       policy,
		logger:       logger,
		retryDelay:   defaultRetryDelay,
	}
}

// Run reads until ctx is done. Read errors are retried after a delay, the
// connection itself takes care of reconnecting.
func (f *Feed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := f.reader.ReadMessage()
		if err != nil {
			f.logger.Printf("error: while reading from connection %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.retryDelay):
			}
			continue
		}

		f.handle(ctx, raw)
	}
}

func (f *Feed) handle(ctx context.Context, raw []byte) {
	err := f.session.HandleMessage(ctx, raw)

	var desync *domain.DesyncError
	if !errors.As(err, &desync) {
		return
	}

	ch, err := f.session.Registry().Resolve(desync.ChanID)
	if err != nil || f.resubscriber == nil || !f.policy.Allow(ch.Key()) {
		return
	}

	f.logger.Printf("%s desynced, resubscribing for a fresh snapshot", ch.Key())
	if err := f.resubscriber.Resubscribe(ch); err != nil {
		f.policy.Release(ch.Key())
		f.logger.Printf("resubscribe %s failed: %v", ch.Key(), err)
	}
}
