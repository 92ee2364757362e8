package materials

import "time"

// Transfer statuses
const (
	StatusPending     = "Pending"
	StatusTransferred = "Transferred"
)

// Material is one row in the local store. The three Alchemy fields are
// populated together by a successful transfer and cleared together by a
// revert; no material ever holds partial Alchemy state.
type Material struct {
	ID             string    `json:"id"` // local id, MOCK-### format
	TradeName      string    `json:"tradeName"`
	Category       string    `json:"category"`
	MaterialStatus string    `json:"materialStatus"`
	TransferStatus string    `json:"transferStatus"` // Pending | Transferred
	AlchemyCode    string    `json:"alchemyCode,omitempty"`
	AlchemyID      int64     `json:"alchemyId,omitempty"` // external record id
	AlchemyURL     string    `json:"alchemyUrl,omitempty"`
	LastModified   time.Time `json:"lastModified"`
}
