package worker

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"wordforms.dev/declensions/rmq"
)

const notificationSender = "declensions"

// rmqStreams are the inputs StartWorker selects over.
type rmqStreams struct {
	deliveries    <-chan amqp.Delivery
	requestErrors <-chan *amqp.Error
	notifyErrors  <-chan *amqp.Error
}

type rmqTransactions interface {
	streams() rmqStreams
	notify(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, dflLogger *zerolog.Logger)
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) streams() rmqStreams {
	return rmqStreams{
		deliveries:    wrapper.rmqClient.Deliveries,
		requestErrors: wrapper.rmqClient.ReqChanErrors,
		notifyErrors:  wrapper.rmqClient.RespChanErrors,
	}
}

// notify tells the requester the run behind message is settled, whatever
// its outcome. The run task in Redis holds the details.
func (wrapper *rmqClientWrapper) notify(task *Task, message Message) error {
	message.Sender = notificationSender
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	publishing := amqp.Publishing{
		ContentType: "application/json",
		AppId:       notificationSender,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if task.delivery != nil {
		publishing.CorrelationId = task.delivery.MessageId
	}
	return wrapper.rmqClient.Notify(publishing)
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery gives a run request one more chance on the queue; a
// redelivered request is dropped.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, dflLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	if err := delivery.Reject(requeue); err != nil {
		dflLogger.Err(err).Bool("requeue", requeue).Msg("Could not reject run request")
		return
	}
	dflLogger.Info().Bool("requeue", requeue).Msg("Rejected run request")
}
