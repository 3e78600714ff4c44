package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

var (
	// ErrUnroutable means the broker accepted the publish but no queue was
	// bound to the routing key. Mandatory publishing turns that into a
	// reported failure instead of a silent drop.
	ErrUnroutable = errors.New("events: message returned unroutable")

	// ErrTopologyConflict means a queue or exchange already exists with
	// different parameters (durability, type). Redeclaring with identical
	// parameters is a no-op and does not produce this error.
	ErrTopologyConflict = errors.New("events: topology declared with conflicting parameters")
)

const amqpPreconditionFailed = 406

// Publisher emits integration events. Implementations decide the delivery
// guarantee: the AMQP publisher is best-effort, the outbox publisher is
// at-least-once.
type Publisher interface {
	PublishUserCreated(ctx context.Context, user domain.User) error
}

// AMQPPublisher publishes events over a single owned channel. AMQP channels
// are not safe for concurrent use, so every publish holds the mutex for the
// full declare-publish-confirm cycle.
type AMQPPublisher struct {
	ch   BrokerChannel
	topo Topology

	mu      sync.Mutex
	returns chan amqp.Return
}

// NewAMQPPublisher puts the channel in confirm mode and declares the
// topology: a durable direct exchange, a durable non-exclusive
// non-auto-delete queue, and a binding on the routing key.
func NewAMQPPublisher(ch BrokerChannel, topo Topology) (*AMQPPublisher, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	p := &AMQPPublisher{
		ch:      ch,
		topo:    topo,
		returns: ch.NotifyReturn(make(chan amqp.Return, 16)),
	}
	if err := p.declareTopology(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) declareTopology() error {
	if err := p.ch.ExchangeDeclare(p.topo.Exchange, "direct", true, false, false, false, nil); err != nil {
		return topologyErr("declare exchange "+p.topo.Exchange, err)
	}
	if _, err := p.ch.QueueDeclare(p.topo.Queue, true, false, false, false, nil); err != nil {
		return topologyErr("declare queue "+p.topo.Queue, err)
	}
	if err := p.ch.QueueBind(p.topo.Queue, p.topo.RoutingKey, p.topo.Exchange, false, nil); err != nil {
		return topologyErr("bind queue "+p.topo.Queue, err)
	}
	return nil
}

// topologyErr maps the broker's 406 PRECONDITION_FAILED onto
// ErrTopologyConflict so callers need no AMQP knowledge.
func topologyErr(op string, err error) error {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && amqpErr.Code == amqpPreconditionFailed {
		return fmt.Errorf("%s: %w: %s", op, ErrTopologyConflict, amqpErr.Reason)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *AMQPPublisher) PublishUserCreated(ctx context.Context, user domain.User) error {
	body, err := json.Marshal(NewUserCreated(user))
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventTypeUserCreated, err)
	}
	return p.Publish(ctx, EventTypeUserCreated, body)
}

// Publish delivers an already-encoded event body. The outbox relay uses it to
// re-publish stored payloads.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.drainReturns()

	msgID := uuid.NewString()
	conf, err := p.ch.PublishWithConfirm(ctx, p.topo.Exchange, p.topo.RoutingKey, true, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msgID,
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm for %s: %w", eventType, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: broker rejected delivery", eventType)
	}

	// basic.return precedes the confirm ack, so an unroutable publish is
	// already sitting in the returns channel by now.
	if p.returnedUnroutable(msgID) {
		return fmt.Errorf("publish %s with key %q: %w", eventType, p.topo.RoutingKey, ErrUnroutable)
	}
	return nil
}

func (p *AMQPPublisher) drainReturns() {
	for {
		select {
		case <-p.returns:
		default:
			return
		}
	}
}

func (p *AMQPPublisher) returnedUnroutable(msgID string) bool {
	for {
		select {
		case ret := <-p.returns:
			if ret.MessageId == msgID {
				return true
			}
		default:
			return false
		}
	}
}
