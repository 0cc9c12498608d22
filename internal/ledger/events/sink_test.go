package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/mock/gomock"

	"idledger/internal/ledger/events/mocks"
	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
)

var (
	sinkAccount  = id.MustParseAddress("0x00000000000000000000000000000000000000a1")
	sinkVerifier = id.MustParseAddress("0x00000000000000000000000000000000000000f1")
)

func verifiedEvent(seq uint64) *models.Event {
	e := models.NewIdentityVerified(sinkAccount, sinkVerifier, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	e.Sequence = seq
	return e
}

func TestKafkaSinkKeysRecordsByAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	sink := NewKafkaSink(producer, "ledger.events")
	ev := verifiedEvent(4)

	producer.EXPECT().ProduceSync(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
			require.Len(t, rs, 1)
			assert.Equal(t, "ledger.events", rs[0].Topic)
			assert.Equal(t, sinkAccount.String(), string(rs[0].Key))

			var payload map[string]any
			require.NoError(t, json.Unmarshal(rs[0].Value, &payload))
			assert.Equal(t, "IdentityVerified", payload["type"])
			assert.Equal(t, float64(4), payload["sequence"])
			return kgo.ProduceResults{{Record: rs[0]}}
		})

	require.NoError(t, sink.Publish(context.Background(), []*models.Event{ev}))
	assert.Equal(t, "kafka", sink.Name())
}

func TestKafkaSinkSurfacesProduceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	sink := NewKafkaSink(producer, "ledger.events")

	producer.EXPECT().ProduceSync(gomock.Any(), gomock.Any()).
		Return(kgo.ProduceResults{{Err: errors.New("not leader")}})

	err := sink.Publish(context.Background(), []*models.Event{verifiedEvent(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not leader")
}

func TestRabbitSinkRoutesByEventType(t *testing.T) {
	ctrl := gomock.NewController(t)
	channel := mocks.NewMockChannelPublisher(ctrl)
	sink := NewRabbitSink(channel, "idledger.events")
	ev := verifiedEvent(9)

	channel.EXPECT().
		PublishWithContext(gomock.Any(), "idledger.events", "IdentityVerified", false, false, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
			assert.Equal(t, ev.ID.String(), msg.MessageId)
			assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
			assert.Equal(t, "application/json", msg.ContentType)
			return nil
		})

	require.NoError(t, sink.Publish(context.Background(), []*models.Event{ev}))
}

func TestRabbitSinkStopsAtFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	channel := mocks.NewMockChannelPublisher(ctrl)
	sink := NewRabbitSink(channel, "idledger.events")

	channel.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Any(), gomock.Any(), false, false, gomock.Any()).
		Return(amqp.ErrClosed).Times(1)

	err := sink.Publish(context.Background(), []*models.Event{verifiedEvent(1), verifiedEvent(2)})
	require.ErrorIs(t, err, amqp.ErrClosed)
}
