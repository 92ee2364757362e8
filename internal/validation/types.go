package validation

// TransferRequest is the payload for POST /api/transfer.
type TransferRequest struct {
	MaterialID string `json:"materialId" validate:"required"`
}

// AddMaterialRequest is the payload for POST /api/materials.
type AddMaterialRequest struct {
	TradeName      string `json:"tradeName" validate:"required"`
	Category       string `json:"category" validate:"required"`
	MaterialStatus string `json:"materialStatus" validate:"required"`
}

// SaveCredentialsRequest is the payload for POST /api/save-credentials.
// Every field is optional; omitted fields keep their current value.
type SaveCredentialsRequest struct {
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Password     string `json:"password,omitempty"`
	Tenant       string `json:"tenant,omitempty"`
	MaterialType int    `json:"materialType,omitempty" validate:"omitempty,gt=0"`
}

// ChangeTenantRequest is the payload for POST /api/change-tenant.
type ChangeTenantRequest struct {
	Tenant string `json:"tenant" validate:"required,notblank"`
}

// ProductPayload is the inbound product pushed by POST /api/products.
type ProductPayload struct {
	RecordID    int64  `json:"recordId" validate:"required"`
	Code        string `json:"code" validate:"required"`
	ProductName string `json:"productName" validate:"required"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status,omitempty"`
}
