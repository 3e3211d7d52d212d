package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-management/internal/authz"
	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/queue"
)

// MaxTheaterNameLength bounds Theater.Name in characters.
const MaxTheaterNameLength = 120

// TheaterService runs validation, the authorization policy and persistence
// for every theater operation, in that order.
type TheaterService struct {
	theaters TheaterStore
	users    IdentityStore
	events   EventPublisher
	log      *logrus.Logger
	now      func() time.Time
}

// NewTheaterService wires a TheaterService. A nil publisher disables events.
func NewTheaterService(theaters TheaterStore, users IdentityStore, events EventPublisher, log *logrus.Logger) *TheaterService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &TheaterService{theaters: theaters, users: users, events: events, log: log, now: time.Now}
}

// List returns every theater as a lazy sequence of DTOs.
func (s *TheaterService) List(ctx context.Context) iter.Seq2[TheaterDTO, error] {
	return func(yield func(TheaterDTO, error) bool) {
		for t, err := range s.theaters.All(ctx) {
			if err != nil {
				yield(TheaterDTO{}, err)
				return
			}
			if !yield(toTheaterDTO(t), nil) {
				return
			}
		}
	}
}

// GetByID returns one theater or ErrNotFound.
func (s *TheaterService) GetByID(ctx context.Context, id int64) (TheaterDTO, error) {
	t, err := s.theaters.GetByID(ctx, id)
	if err != nil {
		return TheaterDTO{}, err
	}
	return toTheaterDTO(*t), nil
}

// Create validates dto, checks the manager exists, requires an admin caller
// and persists the theater.
func (s *TheaterService) Create(ctx context.Context, dto TheaterDTO, caller authz.Caller) (TheaterDTO, error) {
	if err := validateTheater(dto); err != nil {
		return TheaterDTO{}, err
	}
	if dto.ManagerID != nil {
		if err := s.requireManager(ctx, *dto.ManagerID); err != nil {
			return TheaterDTO{}, err
		}
	}
	if err := authz.CanCreateTheater(caller); err != nil {
		s.denied("create", 0, caller, err)
		return TheaterDTO{}, err
	}

	t := &model.Theater{
		Name:      dto.Name,
		Address:   dto.Address,
		SeatCount: dto.SeatCount,
		ManagerID: dto.ManagerID,
	}
	if err := s.theaters.Create(ctx, t); err != nil {
		return TheaterDTO{}, fmt.Errorf("create theater: %w", err)
	}
	s.publish(ctx, queue.TheaterCreated, *t, caller)
	return toTheaterDTO(*t), nil
}

// Update validates dto, loads the theater, applies the authorization policy
// and writes name, address and seat count. The manager only changes when an
// admin asked for a different one.
func (s *TheaterService) Update(ctx context.Context, id int64, dto TheaterDTO, caller authz.Caller) (TheaterDTO, error) {
	if err := validateTheater(dto); err != nil {
		return TheaterDTO{}, err
	}
	t, err := s.theaters.GetByID(ctx, id)
	if err != nil {
		return TheaterDTO{}, err
	}
	if !caller.Authenticated() {
		return TheaterDTO{}, ErrUnauthorized
	}
	decision, err := authz.CanUpdateTheater(caller, *t, dto.ManagerID)
	if err != nil {
		s.denied("update", id, caller, err)
		return TheaterDTO{}, err
	}
	if decision.ReassignManager {
		if err := s.requireManager(ctx, *dto.ManagerID); err != nil {
			return TheaterDTO{}, err
		}
		t.ManagerID = dto.ManagerID
	}

	t.Name = dto.Name
	t.Address = dto.Address
	t.SeatCount = dto.SeatCount
	if err := s.theaters.Update(ctx, t); err != nil {
		return TheaterDTO{}, fmt.Errorf("update theater: %w", err)
	}
	s.publish(ctx, queue.TheaterUpdated, *t, caller)
	return toTheaterDTO(*t), nil
}

// Delete removes a theater. Only admins may delete.
func (s *TheaterService) Delete(ctx context.Context, id int64, caller authz.Caller) error {
	t, err := s.theaters.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanDeleteTheater(caller); err != nil {
		s.denied("delete", id, caller, err)
		return err
	}
	if err := s.theaters.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, queue.TheaterDeleted, *t, caller)
	return nil
}

func (s *TheaterService) requireManager(ctx context.Context, id int64) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid("managerId", "manager not found")
		}
		return fmt.Errorf("resolve manager: %w", err)
	}
	return nil
}

func (s *TheaterService) publish(ctx context.Context, kind string, t model.Theater, caller authz.Caller) {
	ev := queue.TheaterEvent{
		Type:       kind,
		TheaterID:  t.ID,
		Name:       t.Name,
		Address:    t.Address,
		SeatCount:  t.SeatCount,
		ManagerID:  t.ManagerID,
		ActorID:    caller.ID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"event": kind, "theater_id": t.ID}).Warn("theater event not published")
	}
}

func (s *TheaterService) denied(op string, id int64, caller authz.Caller, err error) {
	entry := s.log.WithFields(logrus.Fields{"op": op, "theater_id": id, "caller_id": caller.ID})
	if deny, ok := authz.IsDenyError(err); ok {
		entry = entry.WithField("code", deny.Code)
	}
	entry.Info("theater operation denied")
}

func validateTheater(dto TheaterDTO) error {
	switch {
	case strings.TrimSpace(dto.Name) == "":
		return invalid("name", "name is required")
	case utf8.RuneCountInString(dto.Name) > MaxTheaterNameLength:
		return invalid("name", fmt.Sprintf("name must be at most %d characters", MaxTheaterNameLength))
	case strings.TrimSpace(dto.Address) == "":
		return invalid("address", "address is required")
	case dto.SeatCount <= 0:
		return invalid("seatCount", "seatCount must be greater than zero")
	}
	return nil
}
