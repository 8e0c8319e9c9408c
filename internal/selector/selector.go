// Package selector implements the client → truck dependent selection. Truck
// fetches are tagged with a generation number so a response for a client the
// user has since moved away from is dropped instead of applied.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/erazemk/fleetdesk/internal/model"
)

// Errors returned by SelectTruck.
var (
	ErrNoClient     = errors.New("no client selected")
	ErrPending      = errors.New("truck list is loading")
	ErrForeignTruck = errors.New("truck does not belong to the selected client")
)

// TruckLister fetches the trucks owned by a client.
type TruckLister interface {
	ListTrucks(ctx context.Context, clientID int64) ([]model.Truck, error)
}

// Ticket identifies one truck fetch.
type Ticket struct {
	ClientID int64
	gen      uint64
}

// Selector holds the selected client, the trucks available for it and the
// selected truck. It is safe for concurrent use.
type Selector struct {
	lister TruckLister
	notify func(error)

	mu       sync.Mutex
	clientID int64
	truckID  int64
	trucks   []model.Truck
	pending  bool
	gen      uint64
}

// New returns an empty selector. notify, if non-nil, is called (without the
// lock held) when a truck fetch fails.
func New(lister TruckLister, notify func(error)) *Selector {
	return &Selector{lister: lister, notify: notify}
}

// Begin records clientID as the selection and starts a new generation,
// superseding any fetch in flight. The truck list is emptied until the fetch
// is applied; the truck selection is kept so Apply can check it against the
// new list. Selecting 0 clears both and needs no fetch.
func (s *Selector) Begin(clientID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.clientID = clientID
	s.trucks = nil
	if clientID == 0 {
		s.truckID = 0
		s.pending = false
	} else {
		s.pending = true
	}
	return Ticket{ClientID: clientID, gen: s.gen}
}

// Apply installs the result of the fetch identified by t. It reports false
// and changes nothing when a newer Begin has happened since.
func (s *Selector) Apply(t Ticket, trucks []model.Truck, err error) bool {
	s.mu.Lock()
	if t.gen != s.gen {
		current := s.clientID
		s.mu.Unlock()
		slog.Debug("stale truck list dropped", "client", t.ClientID, "current", current)
		return false
	}

	s.pending = false
	if err != nil {
		s.trucks = nil
		s.truckID = 0
		s.mu.Unlock()
		slog.Warn("truck list failed", "client", t.ClientID, "error", err)
		if s.notify != nil {
			s.notify(fmt.Errorf("loading trucks for client %d: %w", t.ClientID, err))
		}
		return true
	}

	s.trucks = append([]model.Truck(nil), trucks...)
	if !s.hasTruck(s.truckID) {
		s.truckID = 0
	}
	s.mu.Unlock()
	return true
}

// SelectClient runs Begin, fetches the trucks in the background and applies
// the result. The returned channel is closed once the result has been applied
// or dropped.
func (s *Selector) SelectClient(ctx context.Context, clientID int64) <-chan struct{} {
	t := s.Begin(clientID)
	done := make(chan struct{})
	if clientID == 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		trucks, err := s.lister.ListTrucks(ctx, clientID)
		s.Apply(t, trucks, err)
	}()
	return done
}

// Restore seeds an edit-mode selection before its truck list is fetched.
// The truck is kept if the following fetch includes it.
func (s *Selector) Restore(clientID, truckID int64) Ticket {
	t := s.Begin(clientID)
	s.mu.Lock()
	s.truckID = truckID
	s.mu.Unlock()
	return t
}

// SelectTruck selects a truck from the available list. 0 clears the
// selection.
func (s *Selector) SelectTruck(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == 0 {
		s.truckID = 0
		return nil
	}
	switch {
	case s.clientID == 0:
		return ErrNoClient
	case s.pending:
		return ErrPending
	case !s.hasTruck(id):
		return ErrForeignTruck
	}
	s.truckID = id
	return nil
}

// ClientID returns the selected client, or 0.
func (s *Selector) ClientID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// TruckID returns the selected truck, or 0.
func (s *Selector) TruckID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.truckID
}

// Trucks returns a copy of the available trucks.
func (s *Selector) Trucks() []model.Truck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Truck(nil), s.trucks...)
}

// Pending reports whether a truck fetch is outstanding.
func (s *Selector) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// TruckSelectable reports whether the truck field accepts input.
func (s *Selector) TruckSelectable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID != 0 && !s.pending
}

// Owns reports whether truckID is in the current truck list.
func (s *Selector) Owns(truckID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasTruck(truckID)
}

func (s *Selector) hasTruck(id int64) bool {
	if id == 0 {
		return false
	}
	for _, t := range s.trucks {
		if t.ID == id {
			return true
		}
	}
	return false
}
