package publisher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-marketplace-backend/model"
)

func TestPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	var sent []model.Notification
	check := func(val []byte) error {
		var n model.Notification
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		sent = append(sent, n)
		return nil
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(check)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(check)

	p := NewWithProducer(producer, "ticket-notifications")
	err := p.Publish(context.Background(), []model.Notification{
		{Seq: 1, Kind: model.NotificationBought, TicketID: 1, Principal: "alice", Price: 2_000_000, TimesSold: 1},
		{Seq: 2, Kind: model.NotificationOffered, TicketID: 1, Principal: "alice", Price: 1_500_000, TimesSold: 1},
	})
	require.NoError(t, err)

	require.Len(t, sent, 2)
	assert.Equal(t, model.NotificationOffered, sent[1].Kind)
	assert.Equal(t, uint64(1_500_000), sent[1].Price)

	require.NoError(t, p.Close())
}

func TestPublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewWithProducer(producer, "ticket-notifications")
	err := p.Publish(context.Background(), []model.Notification{{Seq: 1, Kind: model.NotificationBought, TicketID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send 1 notification(s)")

	require.NoError(t, p.Close())
}

func TestPublishNothing(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	p := NewWithProducer(producer, "ticket-notifications")

	assert.NoError(t, p.Publish(context.Background(), nil))
	require.NoError(t, p.Close())
}
