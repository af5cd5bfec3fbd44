package delivery

import (
	"errors"
	"fmt"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
)

var ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery or RestoreDelivery")

// Status of the whole delivery run.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Validate() error {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("delivery status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

// StopStatus is the outcome at one stop.
type StopStatus string

const (
	StopPending   StopStatus = "pending"
	StopDelivered StopStatus = "delivered"
	StopFailed    StopStatus = "failed"
	StopPartial   StopStatus = "partial"
)

func (s StopStatus) Validate() error {
	switch s {
	case StopPending, StopDelivered, StopFailed, StopPartial:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("stop status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

// Stop is one destination of a delivery, bound to a single order.
type Stop struct {
	OrderID        kernel.UUID
	SequenceNumber int
	Destination    kernel.Location
	Priority       int
	HopDistanceKm  float64
	Status         StopStatus
}

func (s Stop) Validate() error {
	var seqErr error
	if s.SequenceNumber < 1 {
		seqErr = errs.NewValueIsOutOfRangeError("sequence number", s.SequenceNumber, 1, "unbounded")
	}
	return errors.Join(s.OrderID.Validate(), s.Destination.Validate(), s.Status.Validate(), seqErr)
}

// Delivery owns its stops in visiting order.
type Delivery struct {
	id               kernel.UUID
	warehouseID      kernel.UUID
	scheduledDate    time.Time
	status           Status
	stops            []Stop
	totalDistanceKm  float64
	estimatedMinutes float64

	isConstructed bool
}

// NewDelivery creates a scheduled delivery. Stops must already be sequenced 1..n.
func NewDelivery(
	id, warehouseID kernel.UUID,
	scheduledDate time.Time,
	stops []Stop,
	totalDistanceKm, estimatedMinutes float64,
) (*Delivery, error) {
	return RestoreDelivery(id, warehouseID, scheduledDate, StatusScheduled, stops, totalDistanceKm, estimatedMinutes)
}

func RestoreDelivery(
	id, warehouseID kernel.UUID,
	scheduledDate time.Time,
	status Status,
	stops []Stop,
	totalDistanceKm, estimatedMinutes float64,
) (*Delivery, error) {
	d := &Delivery{
		id:               id,
		warehouseID:      warehouseID,
		scheduledDate:    scheduledDate.UTC(),
		status:           status,
		stops:            stops,
		totalDistanceKm:  totalDistanceKm,
		estimatedMinutes: estimatedMinutes,
		isConstructed:    true,
	}

	if err := errors.Join(id.Validate(), warehouseID.Validate(), status.Validate(), d.validateStops()); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

func (d *Delivery) ID() kernel.UUID {
	return d.id
}

func (d *Delivery) WarehouseID() kernel.UUID {
	return d.warehouseID
}

func (d *Delivery) ScheduledDate() time.Time {
	return d.scheduledDate
}

func (d *Delivery) Status() Status {
	return d.status
}

func (d *Delivery) Stops() []Stop {
	return d.stops
}

func (d *Delivery) TotalDistanceKm() float64 {
	return d.totalDistanceKm
}

func (d *Delivery) EstimatedMinutes() float64 {
	return d.estimatedMinutes
}

// UpdateStop records the outcome at the stop of orderID. Sequence and destination
// are left untouched. The delivery is in progress while any stop is pending and
// completed once none is.
func (d *Delivery) UpdateStop(orderID kernel.UUID, status StopStatus) (Stop, error) {
	if err := status.Validate(); err != nil {
		return Stop{}, err
	}

	for i := range d.stops {
		if !d.stops[i].OrderID.IsEqual(orderID) {
			continue
		}
		d.stops[i].Status = status
		d.refreshStatus()
		return d.stops[i], nil
	}

	return Stop{}, errs.NewObjectNotFoundError("delivery stop", orderID)
}

func (d *Delivery) refreshStatus() {
	pending := 0
	for _, s := range d.stops {
		if s.Status == StopPending {
			pending++
		}
	}
	switch {
	case pending == 0:
		d.status = StatusCompleted
	case pending < len(d.stops):
		d.status = StatusInProgress
	default:
		d.status = StatusScheduled
	}
}

func (d *Delivery) validateStops() error {
	if len(d.stops) == 0 {
		return errs.NewValueIsRequiredError("stops")
	}
	seen := make(map[kernel.UUID]struct{}, len(d.stops))
	for i, s := range d.stops {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.SequenceNumber != i+1 {
			return errs.NewValueIsInvalidErrorWithCause("sequence number",
				fmt.Errorf("stop at position %d has sequence %d", i+1, s.SequenceNumber))
		}
		if _, dup := seen[s.OrderID]; dup {
			return errs.NewValueIsInvalidErrorWithCause("stops", fmt.Errorf("order %s appears twice", s.OrderID))
		}
		seen[s.OrderID] = struct{}{}
	}
	return nil
}
