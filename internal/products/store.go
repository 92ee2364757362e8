// Package products stores product records pushed to us from outside.
// Products are never created locally; they arrive keyed by the sender's
// RecordID and are upserted on that key.
package products

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mockerp/alchemy-bridge/internal/errs"
)

// Product is one received product record.
type Product struct {
	RecordID    int64     `json:"recordId"`
	Code        string    `json:"code"`
	ProductName string    `json:"productName"`
	Category    string    `json:"category,omitempty"`
	Status      string    `json:"status,omitempty"`
	ReceivedAt  time.Time `json:"receivedAt"` // stamped server-side
	URL         string    `json:"url"`        // deep link into the sender's system
}

// Payload is the inbound shape before stamping.
type Payload struct {
	RecordID    int64
	Code        string
	ProductName string
	Category    string
	Status      string
}

// TenantFunc supplies the tenant used when deriving deep links.
type TenantFunc func() string

// Store is an in-memory product table keyed by RecordID, listed in
// first-received order.
type Store struct {
	mu         sync.Mutex
	order      []int64
	byRecordID map[int64]*Product
	nowFunc    func() time.Time
	appBaseURL string
	tenant     TenantFunc
}

// NewStore creates an empty store. appBaseURL roots the derived URLs.
func NewStore(appBaseURL string, tenant TenantFunc) *Store {
	return &Store{
		byRecordID: map[int64]*Product{},
		nowFunc:    time.Now,
		appBaseURL: appBaseURL,
		tenant:     tenant,
	}
}

// Receive upserts a product by RecordID. Code, ProductName and RecordID
// are required; the handler validates them too, this is the last line.
func (s *Store) Receive(p Payload) (Product, error) {
	if p.RecordID == 0 || p.Code == "" || p.ProductName == "" {
		return Product{}, fmt.Errorf("%w: code, productName and recordId are required", errs.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prod, ok := s.byRecordID[p.RecordID]
	if !ok {
		prod = &Product{RecordID: p.RecordID}
		s.byRecordID[p.RecordID] = prod
		s.order = append(s.order, p.RecordID)
	}
	prod.Code = p.Code
	prod.ProductName = p.ProductName
	prod.Category = p.Category
	prod.Status = p.Status
	prod.ReceivedAt = s.nowFunc()
	prod.URL = s.appBaseURL + "/" + s.tenant() + "/record/" + strconv.FormatInt(p.RecordID, 10)
	return *prod, nil
}

// List returns copies of all products in first-received order.
func (s *Store) List() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byRecordID[id])
	}
	return out
}

// Len reports the current number of products.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
