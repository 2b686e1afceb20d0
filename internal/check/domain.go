// Package check implements the POS check lifecycle: creation, item appends
// with derived totals, query filtering, and room-charge settlement against
// the property management system.
package check

import (
	"fmt"
	"time"

	"github.com/harborpoint/roomcharge/internal/platform/httpx"
)

// Status is the lifecycle state of a check. The only legal transition is
// OPEN to CLOSED; closed checks are frozen, never deleted.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Preparation states mirrored onto the check header.
const (
	PrepUninitialized = "Uninitialized"
	PrepPackaged      = "Packaged"
)

// Check is one open tab: a header, an append-only item list, printed lines,
// and totals derived from the items. Totals are only ever written by the
// totals engine; Status is only ever transitioned by the settlement flow.
type Check struct {
	Header       Header       `json:"header"`
	MenuItems    []LineItem   `json:"menuItems"`
	PrintedLines PrintedLines `json:"checkPrintedLines"`
	Totals       Totals       `json:"totals"`
}

// Header carries check identity and the POS context captured at creation.
type Header struct {
	OrgShortName     string    `json:"orgShortName"`
	LocRef           string    `json:"locRef"`
	RvcRef           int       `json:"rvcRef"`
	CheckRef         string    `json:"checkRef"`
	IdempotencyID    string    `json:"idempotencyId"`
	CheckNumber      int       `json:"checkNumber"`
	CheckName        string    `json:"checkName"`
	CheckEmployeeRef int64     `json:"checkEmployeeRef"`
	OrderTypeRef     int64     `json:"orderTypeRef"`
	TableName        string    `json:"tableName"`
	GuestCount       int       `json:"guestCount"`
	OpenTime         time.Time `json:"openTime"`
	Status           Status    `json:"status"`
	PrepStatus       string    `json:"preparationStatus"`
}

// LineItem is one ordered item. Unit price and line total are resolved from
// the catalog when the item is added and never re-resolved afterwards.
type LineItem struct {
	Sku       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// Totals are derived from the item list, each component rounded to two
// decimals independently.
type Totals struct {
	Subtotal               float64 `json:"subtotal"`
	SubtotalDiscountTotal  float64 `json:"subtotalDiscountTotal"`
	AutoServiceChargeTotal float64 `json:"autoServiceChargeTotal"`
	ServiceChargeTotal     float64 `json:"serviceChargeTotal"`
	TaxTotal               float64 `json:"taxTotal"`
	PaymentTotal           float64 `json:"paymentTotal"`
	TotalDue               float64 `json:"totalDue"`
}

// PrintedLines is the rendered receipt body included on check responses.
type PrintedLines struct {
	Lines []string `json:"lines"`
}

// Finalize fills derived fields that depend on assigned identity. Stores
// call it after allocating the check reference and number, before saving.
func (c *Check) Finalize() {
	if c.Header.CheckName == "" {
		c.Header.CheckName = fmt.Sprintf("Check %d", c.Header.CheckNumber)
	}
	c.PrintedLines = RenderPrintedLines(c, c.Header.OpenTime)
}

// ============================================================================
// REQUESTS
// ============================================================================

// CreateCheckRequest opens a new check. All header fields are optional;
// identity, open time and status are server-assigned.
type CreateCheckRequest struct {
	Header    CreateCheckHeader `json:"header"`
	MenuItems []ItemAdd         `json:"menuItems" validate:"dive"`
}

// CreateCheckHeader is the client-supplied subset of the header.
type CreateCheckHeader struct {
	IdempotencyID    string `json:"idempotencyId"`
	CheckName        string `json:"checkName" validate:"omitempty,max=100"`
	CheckEmployeeRef int64  `json:"checkEmployeeRef" validate:"gte=0"`
	OrderTypeRef     int64  `json:"orderTypeRef" validate:"gte=0"`
	TableName        string `json:"tableName" validate:"omitempty,max=50"`
	GuestCount       int    `json:"guestCount" validate:"gte=0"`
}

// ItemAdd orders one catalog item. A zero quantity means one.
type ItemAdd struct {
	Sku string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"gte=0"`
}

// AppendItemsRequest appends items to an existing check.
type AppendItemsRequest struct {
	Items []ItemAdd `json:"items" validate:"dive"`
}

// TenderType is the settlement method. Only room charges are supported.
const TenderTypeRoomCharge = "ROOM_CHARGE"

// TenderRequest settles a check to a guest room.
type TenderRequest struct {
	Type            string           `json:"type"`
	RoomNumber      httpx.FlexString `json:"roomNumber"`
	LastName        string           `json:"lastName"`
	TransactionCode string           `json:"transactionCode"`
}

// SettlementReceipt is returned once a tender has been accepted.
type SettlementReceipt struct {
	CheckID         string  `json:"checkId"`
	Status          Status  `json:"status"`
	PostedToOpera   bool    `json:"postedToOpera"`
	PostingID       *string `json:"postingId"`
	ReservationID   *string `json:"reservationId"`
	TransactionCode string  `json:"transactionCode"`
	Total           float64 `json:"total"`
}

