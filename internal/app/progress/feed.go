// Package progress fans run state transitions out to whoever watches a video.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"redub/internal/app/dubbing"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gochannel "github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	lru "github.com/hashicorp/golang-lru/v2"
)

var _ dubbing.Observer = (*Feed)(nil)

const subscriberBuffer = 64

// LastEventsLimit is how many videos keep their last event around. The least
// recently used ones are forgotten first.
const LastEventsLimit = 4096

type Feed struct {
	logger *slog.Logger
	ps     *gochannel.GoChannel

	last *lru.Cache[string, dubbing.Event]
}

func NewFeed(logger *slog.Logger) *Feed {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: true, // keeps events of a run in order
	}, watermill.NewSlogLogger(logger))

	// only fails for a non-positive size
	last, _ := lru.New[string, dubbing.Event](LastEventsLimit)

	return &Feed{
		logger: logger,
		ps:     ps,
		last:   last,
	}
}

func topic(videoID string) string {
	return "progress." + videoID
}

// Observe publishes ev to the subscribers of its video.
func (f *Feed) Observe(ev dubbing.Event) {
	f.last.Add(ev.VideoID, ev)

	payload, err := json.Marshal(ev)
	if err != nil {
		f.logger.Error("failed to marshal progress event", "err", err)
		return
	}

	if err := f.ps.Publish(topic(ev.VideoID), message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		f.logger.Warn("failed to publish progress event", "video_id", ev.VideoID, "err", err)
	}
}

// Last is the most recent event seen for videoID.
func (f *Feed) Last(videoID string) (dubbing.Event, bool) {
	return f.last.Get(videoID)
}

// Subscribe streams the events of videoID until ctx is done.
func (f *Feed) Subscribe(ctx context.Context, videoID string) (<-chan dubbing.Event, error) {
	msgs, err := f.ps.Subscribe(ctx, topic(videoID))
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", videoID, err)
	}

	events := make(chan dubbing.Event, subscriberBuffer)

	go func() {
		defer close(events)

		for msg := range msgs {
			msg.Ack()

			var ev dubbing.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				f.logger.Error("bad progress event", "err", err)
				continue
			}

			// a watcher that doesn't keep up loses events, the run never waits for it
			select {
			case events <- ev:
			default:
				f.logger.Warn("progress subscriber is too slow, dropping event", "video_id", videoID, "state", ev.State)
			}
		}
	}()

	return events, nil
}

func (f *Feed) Close() error {
	return f.ps.Close()
}
