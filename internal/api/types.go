package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Statuses lists every known status in board order.
var Statuses = []OrderStatus{StatusNew, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled}

var forwardPath = []OrderStatus{StatusNew, StatusPreparing, StatusReady, StatusDelivered}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Next returns the forward step from s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, st := range forwardPath[:len(forwardPath)-1] {
		if st == s {
			return forwardPath[i+1], true
		}
	}
	return "", false
}

// Previous returns the "go back" step from s. Only preparing, ready and
// delivered have one.
func (s OrderStatus) Previous() (OrderStatus, bool) {
	for i, st := range forwardPath {
		if st == s && i > 0 {
			return forwardPath[i-1], true
		}
	}
	return "", false
}

// CanTransition reports whether moving from s to next is allowed: one step
// forward, one step back, or cancelling an order that is still in flight.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	if fwd, ok := s.Next(); ok && fwd == next {
		return true
	}
	if back, ok := s.Previous(); ok && back == next {
		return true
	}
	if next == StatusCancelled {
		return s == StatusNew || s == StatusPreparing || s == StatusReady
	}
	return false
}

// Location is the customer's delivery location. The server stores it as
// free-form JSON and older records carry it as a JSON-encoded string.
type Location json.RawMessage

// UnmarshalJSON keeps the raw value, unwrapping string-encoded objects.
func (l *Location) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		inner := strings.TrimSpace(s)
		if strings.HasPrefix(inner, "{") && json.Valid([]byte(inner)) {
			*l = Location(inner)
			return nil
		}
		if inner == "" {
			*l = nil
			return nil
		}
	}
	*l = append((*l)[:0], trimmed...)
	return nil
}

// MarshalJSON writes the raw value, or null when empty.
func (l Location) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("null"), nil
	}
	return []byte(l), nil
}

// Customer groups the contact fields of an order. They travel flat on the wire.
type Customer struct {
	Name     string   `json:"customerName"`
	Phone    string   `json:"customerPhone"`
	Address  string   `json:"address,omitempty"`
	Location Location `json:"location,omitempty"`
}

// OrderItem is one line of an order. Price is the unit price.
type OrderItem struct {
	MealID   int64   `json:"mealId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" binding:"min=1"`
	Price    float64 `json:"price"`
	SizeName string  `json:"sizeName,omitempty"`
}

// UnmarshalJSON accepts the persisted aliases mealName and size.
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	type plain OrderItem
	var raw struct {
		plain
		MealName string `json:"mealName"`
		Size     string `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = OrderItem(raw.plain)
	if i.Name == "" {
		i.Name = raw.MealName
	}
	if i.Name == "" {
		i.Name = "Unknown"
	}
	if i.SizeName == "" {
		i.SizeName = raw.Size
	}
	return nil
}

// Order mirrors the order records served by /api/orders.
type Order struct {
	ID        int64       `json:"id"`
	ClientKey string      `json:"clientKey,omitempty"`
	Status    OrderStatus `json:"status"`
	OrderType string      `json:"orderType,omitempty"`
	Items     []OrderItem `json:"items" binding:"required,min=1,dive"`

	Subtotal     float64 `json:"subtotal"`
	DeliveryCost float64 `json:"deliveryCost"`
	Total        float64 `json:"total"`

	Customer

	Notes      string `json:"notes,omitempty"`
	Rating     *int   `json:"rating,omitempty"`
	Review     string `json:"review,omitempty"`
	RatingSeen bool   `json:"ratingSeen,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of o.
func (o Order) Clone() Order {
	dup := o
	if o.Items != nil {
		dup.Items = append([]OrderItem(nil), o.Items...)
	}
	if o.Location != nil {
		dup.Location = append(Location(nil), o.Location...)
	}
	dup.Rating = clonePtr(o.Rating)
	dup.CompletedAt = clonePtr(o.CompletedAt)
	return dup
}

// Pagination is the cursor returned with paginated listings.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// HasMore reports whether another page can be requested.
func (p Pagination) HasMore() bool {
	return p.Page < p.TotalPages
}

// NewPagination derives the page count from total and limit.
func NewPagination(total, page, limit int) Pagination {
	p := Pagination{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}

// OrderPage mirrors the paginated /api/orders payload.
type OrderPage struct {
	Items      []Order    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// OrderQuery configures /api/orders requests.
type OrderQuery struct {
	Page   int
	Limit  int
	Search string
	Status OrderStatus
}

// StatusUpdate is the body of PUT /api/orders. Nil fields are left unchanged.
type StatusUpdate struct {
	ID         int64       `json:"id" binding:"required,gt=0"`
	Status     OrderStatus `json:"status,omitempty"`
	Rating     *int        `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Review     *string     `json:"review,omitempty"`
	RatingSeen *bool       `json:"ratingSeen,omitempty"`
}

// Category groups meals on the menu.
type Category struct {
	ID        int64  `json:"id"`
	ClientKey string `json:"clientKey,omitempty"`
	Name      string `json:"name" binding:"required"`
	Icon      string `json:"icon,omitempty"`
	Order     int    `json:"order"`
	Active    bool   `json:"active"`
}

// MealSize is a priced size variant of a meal.
type MealSize struct {
	ID    int64   `json:"id,omitempty"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Meal is a menu entry.
type Meal struct {
	ID          int64      `json:"id"`
	ClientKey   string     `json:"clientKey,omitempty"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
	Price       float64    `json:"price"`
	CategoryID  int64      `json:"categoryId"`
	Active      bool       `json:"active"`
	Popular     bool       `json:"popular,omitempty"`
	Order       int        `json:"order"`
	HasSizes    bool       `json:"hasSizes,omitempty"`
	Sizes       []MealSize `json:"sizes,omitempty"`
}

// Clone returns a deep copy of m.
func (m Meal) Clone() Meal {
	dup := m
	if m.Sizes != nil {
		dup.Sizes = append([]MealSize(nil), m.Sizes...)
	}
	return dup
}

// MealPage mirrors the paginated /api/meals payload.
type MealPage struct {
	Items      []Meal     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// MealQuery configures /api/meals requests. The zero value asks for the
// full, unpaginated list.
type MealQuery struct {
	Page       int
	Limit      int
	CategoryID int64
	Active     *bool
	Search     string
}

// IsZero reports whether no pagination or filter is set.
func (q MealQuery) IsZero() bool {
	return q.Page == 0 && q.Limit == 0 && q.CategoryID == 0 && q.Active == nil && strings.TrimSpace(q.Search) == ""
}

// Delivery holds the delivery block of the settings. The values are stored
// and merged but never interpreted here.
type Delivery struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	Type        *string  `json:"type,omitempty"`
	FixedCost   *float64 `json:"fixedCost,omitempty"`
	CostPerKm   *float64 `json:"costPerKm,omitempty"`
	MaxDistance *float64 `json:"maxDistance,omitempty"`
	FreeAbove   *float64 `json:"freeAbove,omitempty"`
}

// Settings is the single restaurant settings record. Every field is
// optional so a partial write leaves the others untouched.
type Settings struct {
	RestaurantName   *string   `json:"restaurantName,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	Currency         *string   `json:"currency,omitempty"`
	IsOpen           *bool     `json:"isOpen,omitempty"`
	AllowPreOrders   *bool     `json:"allowPreOrders,omitempty"`
	MinPreOrderHours *int      `json:"minPreOrderHours,omitempty"`
	MaxPreOrderHours *int      `json:"maxPreOrderHours,omitempty"`
	OpenTime         *string   `json:"openTime,omitempty"`
	CloseTime        *string   `json:"closeTime,omitempty"`
	Delivery         *Delivery `json:"delivery,omitempty"`
}

// Merge returns prior with every field set in update applied on top.
// The merge is shallow: a supplied delivery block replaces the old one.
func (prior Settings) Merge(update Settings) Settings {
	out := prior.Clone()
	if update.RestaurantName != nil {
		out.RestaurantName = clonePtr(update.RestaurantName)
	}
	if update.Phone != nil {
		out.Phone = clonePtr(update.Phone)
	}
	if update.Address != nil {
		out.Address = clonePtr(update.Address)
	}
	if update.Currency != nil {
		out.Currency = clonePtr(update.Currency)
	}
	if update.IsOpen != nil {
		out.IsOpen = clonePtr(update.IsOpen)
	}
	if update.AllowPreOrders != nil {
		out.AllowPreOrders = clonePtr(update.AllowPreOrders)
	}
	if update.MinPreOrderHours != nil {
		out.MinPreOrderHours = clonePtr(update.MinPreOrderHours)
	}
	if update.MaxPreOrderHours != nil {
		out.MaxPreOrderHours = clonePtr(update.MaxPreOrderHours)
	}
	if update.OpenTime != nil {
		out.OpenTime = clonePtr(update.OpenTime)
	}
	if update.CloseTime != nil {
		out.CloseTime = clonePtr(update.CloseTime)
	}
	if update.Delivery != nil {
		out.Delivery = update.Delivery.clone()
	}
	return out
}

// Revert returns s with every field set in update put back to its value in
// prior. Fields update did not touch keep their current value.
func (s Settings) Revert(prior, update Settings) Settings {
	out := s.Clone()
	revertField(&out.RestaurantName, prior.RestaurantName, update.RestaurantName)
	revertField(&out.Phone, prior.Phone, update.Phone)
	revertField(&out.Address, prior.Address, update.Address)
	revertField(&out.Currency, prior.Currency, update.Currency)
	revertField(&out.IsOpen, prior.IsOpen, update.IsOpen)
	revertField(&out.AllowPreOrders, prior.AllowPreOrders, update.AllowPreOrders)
	revertField(&out.MinPreOrderHours, prior.MinPreOrderHours, update.MinPreOrderHours)
	revertField(&out.MaxPreOrderHours, prior.MaxPreOrderHours, update.MaxPreOrderHours)
	revertField(&out.OpenTime, prior.OpenTime, update.OpenTime)
	revertField(&out.CloseTime, prior.CloseTime, update.CloseTime)
	if update.Delivery != nil {
		out.Delivery = prior.Delivery.clone()
	}
	return out
}

func revertField[T any](dst **T, prior, update *T) {
	if update != nil {
		*dst = clonePtr(prior)
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	return Settings{
		RestaurantName:   clonePtr(s.RestaurantName),
		Phone:            clonePtr(s.Phone),
		Address:          clonePtr(s.Address),
		Currency:         clonePtr(s.Currency),
		IsOpen:           clonePtr(s.IsOpen),
		AllowPreOrders:   clonePtr(s.AllowPreOrders),
		MinPreOrderHours: clonePtr(s.MinPreOrderHours),
		MaxPreOrderHours: clonePtr(s.MaxPreOrderHours),
		OpenTime:         clonePtr(s.OpenTime),
		CloseTime:        clonePtr(s.CloseTime),
		Delivery:         s.Delivery.clone(),
	}
}

func (d *Delivery) clone() *Delivery {
	if d == nil {
		return nil
	}
	return &Delivery{
		Enabled:     clonePtr(d.Enabled),
		Type:        clonePtr(d.Type),
		FixedCost:   clonePtr(d.FixedCost),
		CostPerKm:   clonePtr(d.CostPerKm),
		MaxDistance: clonePtr(d.MaxDistance),
		FreeAbove:   clonePtr(d.FreeAbove),
	}
}

// Ptr returns a pointer to v. Handy for building partial settings.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
