package http

import (
	"time"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	headerActorID        = "X-Actor-ID"
	headerIdempotencyKey = "Idempotency-Key"
)

type movementRequest struct {
	ReferenceType  string `json:"referenceType"`
	ReferenceID    string `json:"referenceId"`
	Note           string `json:"note"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// info merges the body with the actor and idempotency headers. The header key
// wins over the body field.
func (m movementRequest) info(c echo.Context) commands.MovementInfo {
	key := m.IdempotencyKey
	if h := c.Request().Header.Get(headerIdempotencyKey); h != "" {
		key = h
	}
	return commands.MovementInfo{
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		ActorID:        actorID(c),
		Note:           m.Note,
		IdempotencyKey: key,
	}
}

func actorID(c echo.Context) string {
	return c.Request().Header.Get(headerActorID)
}

type receiveStockRequest struct {
	movementRequest

	ProductID   string           `json:"productId"   validate:"required,uuid"`
	WarehouseID string           `json:"warehouseId" validate:"required,uuid"`
	LocationID  string           `json:"locationId"`
	BatchNumber string           `json:"batchNumber"`
	Quantity    int              `json:"quantity"    validate:"gt=0"`
	ExpiryDate  *time.Time       `json:"expiryDate"`
	CostPrice   *decimal.Decimal `json:"costPrice"`
}

type issueStockRequest struct {
	movementRequest

	ProductID   string   `json:"productId"   validate:"required,uuid"`
	WarehouseID string   `json:"warehouseId" validate:"required,uuid"`
	Quantity    int      `json:"quantity"    validate:"gt=0"`
	LotIDs      []string `json:"lotIds"      validate:"dive,uuid"`
}

type adjustStockRequest struct {
	movementRequest

	ProductID   string `json:"productId"   validate:"required,uuid"`
	WarehouseID string `json:"warehouseId" validate:"required,uuid"`
	LocationID  string `json:"locationId"`
	BatchNumber string `json:"batchNumber"`
	Delta       int    `json:"delta"       validate:"ne=0"`
	Reason      string `json:"reason"      validate:"required"`
}

type transferStockRequest struct {
	movementRequest

	ProductID       string   `json:"productId"       validate:"required,uuid"`
	FromWarehouseID string   `json:"fromWarehouseId" validate:"required,uuid"`
	ToWarehouseID   string   `json:"toWarehouseId"   validate:"required,uuid,nefield=FromWarehouseID"`
	Quantity        int      `json:"quantity"        validate:"gt=0"`
	LotIDs          []string `json:"lotIds"          validate:"dive,uuid"`
}

type orderLineRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int              `json:"quantity"  validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

type createOrderRequest struct {
	ID           string             `json:"id"           validate:"omitempty,uuid"`
	ClientID     string             `json:"clientId"     validate:"required,uuid"`
	WarehouseID  string             `json:"warehouseId"  validate:"required,uuid"`
	Priority     int                `json:"priority"     validate:"min=1,max=10"`
	RequiredDate time.Time          `json:"requiredDate" validate:"required"`
	Lines        []orderLineRequest `json:"lines"        validate:"required,min=1,dive"`
}

type transitionOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

type buildPlanRequest struct {
	ID             string   `json:"id"             validate:"omitempty,uuid"`
	OrderIDs       []string `json:"orderIds"       validate:"required,min=1,dive,uuid"`
	WarehouseScope []string `json:"warehouseScope" validate:"dive,uuid"`
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"  validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

type routeStopRequest struct {
	OrderID  string          `json:"orderId"  validate:"required,uuid"`
	Location locationRequest `json:"location"`
	Priority int             `json:"priority" validate:"min=1,max=10"`
}

type sequenceRouteRequest struct {
	Origin locationRequest    `json:"origin"`
	Stops  []routeStopRequest `json:"stops"  validate:"dive"`
}

type createDeliveryRequest struct {
	ID            string    `json:"id"            validate:"omitempty,uuid"`
	WarehouseID   string    `json:"warehouseId"   validate:"required,uuid"`
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
	OrderIDs      []string  `json:"orderIds"      validate:"required,min=1,dive,uuid"`
}

type updateStopRequest struct {
	Status string `json:"status" validate:"required,oneof=pending delivered failed partial"`
}

// bindRequest decodes and validates the body into req.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func parseID(s string) (kernel.UUID, error) {
	return kernel.UUIDFromString(s)
}

func parseIDs(values []string) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// idOrNew parses an optional client-supplied id.
func idOrNew(s string) (kernel.UUID, error) {
	if s == "" {
		return kernel.NewUUID(), nil
	}
	return parseID(s)
}

func (l locationRequest) location() (kernel.Location, error) {
	return kernel.NewLocation(l.Latitude, l.Longitude)
}
