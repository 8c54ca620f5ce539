package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/models"
	"github.com/altius/slurm-proxy/internal/tasks"
)

// notification is the message body published on terminal transitions.
type notification struct {
	JobID    int          `json:"slurm_job_id"`
	OldState models.State `json:"old_state"`
	NewState models.State `json:"new_state"`
	Task     models.Task  `json:"task"`
}

// RabbitNotifier publishes terminal-transition messages to the queue named in
// the task's registry entry. The connection is established lazily and
// re-established once per emit if the broker dropped it.
type RabbitNotifier struct {
	url      string
	registry *tasks.Registry
	logger   arbor.ILogger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitNotifier creates the notifier without connecting. The first emit
// establishes the connection.
func NewRabbitNotifier(config *common.Config, registry *tasks.Registry) *RabbitNotifier {
	return &RabbitNotifier{
		url:      config.AMQPURL(),
		registry: registry,
		logger:   common.GetLogger(),
	}
}

func (n *RabbitNotifier) channelLocked() (*amqp.Channel, error) {
	if n.channel != nil && !n.conn.IsClosed() {
		return n.channel, nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
		n.channel = nil
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	n.conn = conn
	n.channel = channel
	n.logger.Info().Msg("RabbitMQ connection established")
	return channel, nil
}

// Emit publishes the transition to the task's notification queue. Tasks with
// no queue configured are skipped silently.
func (n *RabbitNotifier) Emit(ctx context.Context, jobID int, oldState, newState models.State, task models.Task) error {
	dest := tasks.Notification{}
	if desc, ok := n.registry.Lookup(task.Name); ok {
		dest = desc.Notification
	}
	if dest.Queue == "" {
		return nil
	}

	body, err := json.Marshal(notification{
		JobID:    jobID,
		OldState: oldState,
		NewState: newState,
		Task:     task,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	channel, err := n.channelLocked()
	if err != nil {
		return err
	}
	if _, err := channel.QueueDeclare(dest.Queue, false, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", dest.Queue, err)
	}

	err = channel.PublishWithContext(ctx, dest.Exchange, dest.RoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   task.UUID,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	n.logger.Info().
		Int("job_id", jobID).
		Str("queue", dest.Queue).
		Str("state", string(newState)).
		Msg("Notification published")
	return nil
}

// Close tears down the broker connection.
func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		err := n.conn.Close()
		n.conn = nil
		n.channel = nil
		return err
	}
	return nil
}
