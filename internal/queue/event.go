// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// TheaterEventsQueue is the durable queue carrying theater lifecycle events.
const TheaterEventsQueue = "theater.events"

// Theater event types.
const (
    TheaterCreated = "theater.created"
    TheaterUpdated = "theater.updated"
    TheaterDeleted = "theater.deleted"
)

// TheaterEvent is published after a theater change has been committed.  It
// carries enough information for downstream consumers to audit the change
// without querying the primary database.
type TheaterEvent struct {
    Type       string    `json:"type"`
    TheaterID  int64     `json:"theater_id"`
    Name       string    `json:"name"`
    Address    string    `json:"address"`
    SeatCount  int       `json:"seat_count"`
    ManagerID  *int64    `json:"manager_id"`
    ActorID    int64     `json:"actor_id"`
    OccurredAt time.Time `json:"occurred_at"`
}
