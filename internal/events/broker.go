package events

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the broker primitives the publisher declares. All three come
// from configuration, not constants.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// Confirmation is the pending broker acknowledgement of one publish.
type Confirmation interface {
	// WaitContext blocks until the broker acks or nacks the publish, or the
	// context ends. true means acked.
	WaitContext(ctx context.Context) (bool, error)
}

// BrokerChannel is the subset of an AMQP channel the publisher needs.
// *amqp091.Channel is adapted to it by AMQPChannel; tests supply fakes.
type BrokerChannel interface {
	Confirm(noWait bool) error
	NotifyReturn(c chan amqp.Return) chan amqp.Return
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithConfirm(ctx context.Context, exchange, key string, mandatory bool, msg amqp.Publishing) (Confirmation, error)
}

// AMQPChannel adapts *amqp091.Channel to BrokerChannel.
type AMQPChannel struct {
	Ch *amqp.Channel
}

func (a AMQPChannel) Confirm(noWait bool) error { return a.Ch.Confirm(noWait) }

func (a AMQPChannel) NotifyReturn(c chan amqp.Return) chan amqp.Return {
	return a.Ch.NotifyReturn(c)
}

func (a AMQPChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return a.Ch.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (a AMQPChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return a.Ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (a AMQPChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return a.Ch.QueueBind(name, key, exchange, noWait, args)
}

func (a AMQPChannel) PublishWithConfirm(ctx context.Context, exchange, key string, mandatory bool, msg amqp.Publishing) (Confirmation, error) {
	conf, err := a.Ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, false, msg)
	if err != nil {
		return nil, err
	}
	return deferredConfirmation{conf}, nil
}

type deferredConfirmation struct {
	d *amqp.DeferredConfirmation
}

func (c deferredConfirmation) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.d.Done():
		return c.d.Acked(), nil
	}
}
