//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"fiscaltask/internal/models"
	"fiscaltask/internal/outbox"
	"fiscaltask/internal/store/memory"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	producer *kgo.Client
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redpanda = mgr.GetRedpanda(s.T())

	producer, err := kgo.NewClient(kgo.SeedBrokers(s.redpanda.Broker))
	s.Require().NoError(err)
	s.producer = producer
}

func (s *RelaySuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

// topic returns a fresh topic so tests never read each other's records.
func (s *RelaySuite) topic(ctx context.Context) string {
	topic := "task-events-" + uuid.NewString()[:8]
	admin := kadm.NewClient(s.producer)
	s.Require().NoError(outbox.EnsureTopic(ctx, admin, topic, 1, 1))
	s.Require().NoError(outbox.EnsureTopic(ctx, admin, topic, 1, 1), "second call is a no-op")
	return topic
}

func (s *RelaySuite) consume(ctx context.Context, topic string, want int) []*kgo.Record {
	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	var out []*kgo.Record
	for len(out) < want {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for records")
		fetches.EachRecord(func(r *kgo.Record) {
			out = append(out, r)
		})
	}
	return out
}

func (s *RelaySuite) TestPublishesAndMarksEvents() {
	ctx := context.Background()
	topic := s.topic(ctx)
	store := memory.New()

	now := time.Date(2025, time.March, 12, 9, 30, 0, 0, time.UTC)
	taskID := id.NewTaskID()
	events := []models.TaskEvent{
		{ID: id.NewEventID(), TaskID: taskID, Type: models.EventRiskFlagged,
			Metadata: map[string]any{"elapsed_days": 9}, OccurredAt: now},
		{ID: id.NewEventID(), TaskID: taskID, Type: models.EventRiskCleared,
			Metadata: map[string]any{"document_type": "payment_receipt"}, OccurredAt: now.Add(time.Hour)},
	}
	s.Require().NoError(store.InsertTaskEvents(ctx, events))

	relay := outbox.NewRelay(store, s.producer, topic)
	n, err := relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	pending, err := store.ListUnpublishedEvents(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)

	records := s.consume(ctx, topic, 2)
	s.Require().Len(records, 2)
	for i, rec := range records {
		s.Equal(taskID.String(), string(rec.Key))

		var payload map[string]any
		s.Require().NoError(json.Unmarshal(rec.Value, &payload))
		s.Equal(events[i].ID.String(), payload["id"])
		s.Equal(string(events[i].Type), payload["type"])
	}

	n, err = relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
