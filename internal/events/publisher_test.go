package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

type exchangeParams struct {
	kind    string
	durable bool
}

type queueParams struct {
	durable    bool
	autoDelete bool
	exclusive  bool
}

type binding struct {
	queue, key, exchange string
}

type publishedMsg struct {
	exchange  string
	key       string
	mandatory bool
	msg       amqp.Publishing
}

type fakeConfirmation struct {
	acked bool
	err   error
}

func (f fakeConfirmation) WaitContext(ctx context.Context) (bool, error) {
	return f.acked, f.err
}

// fakeChannel mimics broker-side declare semantics: identical redeclares are
// no-ops, conflicting ones fail with 406 PRECONDITION_FAILED.
type fakeChannel struct {
	confirmed  bool
	exchanges  map[string]exchangeParams
	queues     map[string]queueParams
	bindings   []binding
	published  []publishedMsg
	returns    chan amqp.Return
	unroutable bool
	nack       bool
	publishErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		exchanges: make(map[string]exchangeParams),
		queues:    make(map[string]queueParams),
	}
}

func (f *fakeChannel) Confirm(noWait bool) error {
	f.confirmed = true
	return nil
}

func (f *fakeChannel) NotifyReturn(c chan amqp.Return) chan amqp.Return {
	f.returns = c
	return c
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	want := exchangeParams{kind: kind, durable: durable}
	if have, ok := f.exchanges[name]; ok {
		if have != want {
			return &amqp.Error{Code: 406, Reason: "PRECONDITION_FAILED - inequivalent arg for exchange '" + name + "'"}
		}
		return nil
	}
	f.exchanges[name] = want
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	want := queueParams{durable: durable, autoDelete: autoDelete, exclusive: exclusive}
	if have, ok := f.queues[name]; ok {
		if have != want {
			return amqp.Queue{}, &amqp.Error{Code: 406, Reason: "PRECONDITION_FAILED - inequivalent arg for queue '" + name + "'"}
		}
		return amqp.Queue{Name: name}, nil
	}
	f.queues[name] = want
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings = append(f.bindings, binding{queue: name, key: key, exchange: exchange})
	return nil
}

func (f *fakeChannel) PublishWithConfirm(ctx context.Context, exchange, key string, mandatory bool, msg amqp.Publishing) (Confirmation, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, publishedMsg{exchange: exchange, key: key, mandatory: mandatory, msg: msg})
	if f.unroutable {
		f.returns <- amqp.Return{MessageId: msg.MessageId, ReplyText: "NO_ROUTE"}
	}
	return fakeConfirmation{acked: !f.nack}, nil
}

var testTopology = Topology{
	Exchange:   "identity.events",
	Queue:      "identity-events",
	RoutingKey: "UserCreatedEvent",
}

func testUser() domain.User {
	return domain.User{
		ID:       uuid.New(),
		UserName: "a@b.com",
		Name:     "Ana",
		Email:    "a@b.com",
	}
}

func TestNewAMQPPublisher_DeclaresTopology(t *testing.T) {
	ch := newFakeChannel()

	_, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)

	require.True(t, ch.confirmed)
	require.Equal(t, exchangeParams{kind: "direct", durable: true}, ch.exchanges["identity.events"])
	require.Equal(t, queueParams{durable: true}, ch.queues["identity-events"])
	require.Equal(t, []binding{{queue: "identity-events", key: "UserCreatedEvent", exchange: "identity.events"}}, ch.bindings)
}

func TestNewAMQPPublisher_DeclareIsIdempotent(t *testing.T) {
	ch := newFakeChannel()

	_, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)
	_, err = NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)
}

func TestNewAMQPPublisher_QueueConflict(t *testing.T) {
	ch := newFakeChannel()
	ch.queues["identity-events"] = queueParams{durable: false}

	_, err := NewAMQPPublisher(ch, testTopology)
	require.ErrorIs(t, err, ErrTopologyConflict)
}

func TestNewAMQPPublisher_ExchangeConflict(t *testing.T) {
	ch := newFakeChannel()
	ch.exchanges["identity.events"] = exchangeParams{kind: "fanout", durable: true}

	_, err := NewAMQPPublisher(ch, testTopology)
	require.ErrorIs(t, err, ErrTopologyConflict)
}

func TestPublishUserCreated(t *testing.T) {
	ch := newFakeChannel()
	p, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)

	user := testUser()
	require.NoError(t, p.PublishUserCreated(context.Background(), user))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	require.Equal(t, "identity.events", got.exchange)
	require.Equal(t, "UserCreatedEvent", got.key)
	require.True(t, got.mandatory)
	require.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	require.Equal(t, "application/json", got.msg.ContentType)
	require.Equal(t, EventTypeUserCreated, got.msg.Type)
	require.NotEmpty(t, got.msg.MessageId)
}

func TestPublishUserCreated_PayloadRoundTrip(t *testing.T) {
	ch := newFakeChannel()
	p, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)

	user := testUser()
	require.NoError(t, p.PublishUserCreated(context.Background(), user))

	var decoded UserCreated
	require.NoError(t, json.Unmarshal(ch.published[0].msg.Body, &decoded))
	require.Equal(t, NewUserCreated(user), decoded)

	// Exactly the four contractual fields, nothing else.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(ch.published[0].msg.Body, &raw))
	require.Len(t, raw, 4)
	for _, key := range []string{"userId", "name", "email", "userName"} {
		require.Contains(t, raw, key)
	}
}

func TestPublishUserCreated_Unroutable(t *testing.T) {
	ch := newFakeChannel()
	p, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)

	ch.unroutable = true
	err = p.PublishUserCreated(context.Background(), testUser())
	require.ErrorIs(t, err, ErrUnroutable)
}

func TestPublishUserCreated_Nacked(t *testing.T) {
	ch := newFakeChannel()
	p, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)

	ch.nack = true
	err = p.PublishUserCreated(context.Background(), testUser())
	require.Error(t, err)
	require.Contains(t, err.Error(), "rejected")
}

func TestPublishUserCreated_TransportError(t *testing.T) {
	ch := newFakeChannel()
	p, err := NewAMQPPublisher(ch, testTopology)
	require.NoError(t, err)

	ch.publishErr = errors.New("channel closed")
	err = p.PublishUserCreated(context.Background(), testUser())
	require.Error(t, err)
	require.Empty(t, ch.published)
}
