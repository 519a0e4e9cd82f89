package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/streadway/amqp"
)

type Config struct {
	Host               string `envconfig:"DFL_RMQ_HOST" required:"true"`
	Port               string `envconfig:"DFL_RMQ_PORT" default:"5672"`
	Username           string `envconfig:"DFL_RMQ_USERNAME" required:"true"`
	Password           string `envconfig:"DFL_RMQ_PASSWORD" required:"true"`
	Exchange           string `envconfig:"DFL_RMQ_EXCHANGE" default:"declensions-default-exchange"`
	RequestQueue       string `envconfig:"DFL_RMQ_REQUEST_QUEUE" default:"declensions-requests"`
	NotificationsQueue string `envconfig:"DFL_RMQ_NOTIFICATIONS_QUEUE" default:"declensions-notifications"`
}

type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

// NewClient consumes the request queue one delivery at a time: runs share a
// single browser and are processed sequentially.
func NewClient(config Config) (*Client, error) {
	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	client := &Client{
		config:      config,
		reqConn:     reqConn,
		respConn:    respConn,
		respChannel: respChannel,
	}

	q, err := reqChannel.QueueDeclare(
		config.RequestQueue, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("declare request queue: %w", err)
	}
	if err = reqChannel.QueueBind(q.Name, q.Name, config.Exchange, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("bind request queue: %w", err)
	}
	if err = reqChannel.Qos(1, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := reqChannel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}

	client.Deliveries = deliveries
	client.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error, 1))
	client.RespChanErrors = respChannel.NotifyClose(make(chan *amqp.Error, 1))
	return client, nil
}

func (c *Client) Notify(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.NotificationsQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
