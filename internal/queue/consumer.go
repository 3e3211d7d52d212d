package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer listens to the theater events queue and appends one JSON audit
// line per event to a log file.
type Consumer struct {
    URL       string
    AuditPath string
    Log       *logrus.Logger
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Broker failures trigger a reconnect with exponential backoff;
// a message that cannot be handled is rejected without requeue so the loop
// keeps going.  Run always returns nil: when the audit file cannot be opened
// auditing is switched off and the error is logged.
func (c *Consumer) Run(ctx context.Context) error {
    f, err := openAudit(c.AuditPath)
    if err != nil {
        c.Log.WithError(err).WithField("path", c.AuditPath).Error("theater-consumer: auditing disabled")
        return nil
    }
    defer f.Close()

    audit := NewAuditWriter(f)
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("theater-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return nil
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn, audit)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        c.Log.WithError(err).Warn("theater-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return nil
        }
    }
}

func openAudit(path string) (*os.File, error) {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return nil, fmt.Errorf("mkdir audit dir: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return nil, fmt.Errorf("open audit log: %w", err)
    }
    return f, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, audit *AuditWriter) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("theater-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(TheaterEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(TheaterEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := audit.Write(d.Body); err != nil {
                c.Log.WithError(err).Warn("theater-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// AuditWriter formats theater events as JSON log lines.
type AuditWriter struct {
    log *logrus.Logger
}

// NewAuditWriter returns an AuditWriter emitting to w.
func NewAuditWriter(w io.Writer) *AuditWriter {
    l := logrus.New()
    l.SetOutput(w)
    l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
    return &AuditWriter{log: l}
}

// Write decodes one message body and appends the audit line.
func (a *AuditWriter) Write(body []byte) error {
    var ev TheaterEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.TheaterID == 0 {
        return errors.New("event missing type or theater id")
    }
    fields := logrus.Fields{
        "event":       ev.Type,
        "theater_id":  ev.TheaterID,
        "name":        ev.Name,
        "actor_id":    ev.ActorID,
        "occurred_at": ev.OccurredAt.Format(time.RFC3339),
    }
    if ev.ManagerID != nil {
        fields["manager_id"] = *ev.ManagerID
    }
    a.log.WithFields(fields).Info("theater changed")
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
