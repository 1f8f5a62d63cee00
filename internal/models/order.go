package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProductRef is a reference to a product carried on an order line. The backend
// serializes it either as a bare ID string or as an embedded product object;
// older records use "_id" instead of "id". A reference may be unresolvable
// (empty ID), in which case the line is skipped during reorder.
type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and the embedded-object forms.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		p.ID = id
		return nil
	}

	var obj struct {
		ID       string `json:"id"`
		LegacyID string `json:"_id"`
		Name     string `json:"name"`
		AltName  string `json:"productName"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	p.ID = obj.ID
	if p.ID == "" {
		p.ID = obj.LegacyID
	}
	p.Name = obj.Name
	if p.Name == "" {
		p.Name = obj.AltName
	}
	return nil
}

// Resolvable reports whether the reference carries a usable product ID.
func (p ProductRef) Resolvable() bool {
	return p.ID != ""
}

// NoteList normalizes the backend's "note" field, which is a list of strings
// on current records but a single scalar string on legacy ones.
type NoteList []string

// UnmarshalJSON turns a legacy scalar note into a one-element list.
func (n *NoteList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*n = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*n = nil
		return nil
	}
	*n = NoteList{single}
	return nil
}

// OrderItem represents a single line within an order.
type OrderItem struct {
	Product  ProductRef      `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"` // unit price at the time of order
}

// Order represents a customer order as returned by the backend. The total
// price is server-computed and treated as authoritative; the client never
// recomputes it from the lines.
type Order struct {
	ID                   string          `json:"id"`
	Status               OrderStatus     `json:"status"`
	Items                []OrderItem     `json:"products"`
	Notes                NoteList        `json:"note"`
	DeliveryAddress      string          `json:"deliveryAddress"`
	TotalPrice           decimal.Decimal `json:"totalPrice"`
	CreatedAt            time.Time       `json:"createdAt"`
	PromisedDeliveryDate *time.Time      `json:"promisedDeliveryDate,omitempty"`
}
