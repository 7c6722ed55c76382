package queue

import (
	"sync"

	"github.com/SeakMengs/certportal/internal/util"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// Publishing from several request goroutines shares one channel
	mu sync.Mutex
}

type QueueName string

const (
	QueueCertificateGenerate QueueName = "certificate_generate_queue"
	QueueMail                QueueName = "mail_queue"
)

const (
	MAX_QUEUE_RETRY = 3
)

// Publisher is the producer side used by the api.
type Publisher interface {
	Publish(routingKey QueueName, body []byte) error
}

var _ Publisher = (*RabbitMQ)(nil)

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declare the queues to ensure they exist before publishing messages
	for _, name := range []QueueName{QueueCertificateGenerate, QueueMail} {
		_, err = channel.QueueDeclare(
			string(name), // name of the queue
			true,         // durable
			false,        // delete when unused
			false,        // exclusive
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, err
		}
	}

	return &RabbitMQ{
		conn:    conn,
		channel: channel,
	}, nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitMQ) Publish(routingKey QueueName, body []byte) error {
	messageId, err := util.GenerateNChar(21)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.Publish(
		"", // default exchange
		string(routingKey),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			// make message persistent even if RabbitMQ restarts or crashes
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    messageId,
			Body:         body,
		},
	)
}

// Tell RabbitMQ to deliver messages one at a time to consumers
// until it has processed and acknowledged the previous one.
// Docs: https://www.rabbitmq.com/tutorials/tutorial-two-go#fair-dispatch
func (r *RabbitMQ) fairDispatch(prefetch int) error {
	return r.channel.Qos(
		prefetch, // prefetch count
		0,        // prefetch size
		false,    // global
	)
}

func (r *RabbitMQ) Consume(queueName QueueName, prefetch int) (<-chan amqp.Delivery, error) {
	err := r.fairDispatch(max(prefetch, 1))
	if err != nil {
		return nil, err
	}

	deliveries, err := r.channel.Consume(
		string(queueName), // name of the queue
		"",                // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

// Acknowledger settles a delivery. *RabbitMQ implements it, tests use a recorder.
type Acknowledger interface {
	Ack(delivery amqp.Delivery) error
	Nack(delivery amqp.Delivery, requeue bool) error
}

func (r *RabbitMQ) Ack(delivery amqp.Delivery) error {
	return delivery.Ack(false)
}

func (r *RabbitMQ) Nack(delivery amqp.Delivery, requeue bool) error {
	return delivery.Nack(false, requeue)
}
