// internal/models/receipt.go
package models

// ClaimReceipt is the persisted record of a successful (or failed) royalty
// claim. Amounts are stored as their exact decimal string form.
type ClaimReceipt struct {
	BaseModel
	Account  string      `json:"account" gorm:"size:64;not null;index"`
	AssetID  uint64      `json:"asset_id" gorm:"not null;index"`
	TargetID uint64      `json:"target_id" gorm:"not null"` // differs from AssetID on pool fallback
	Amount   Amount      `json:"amount" gorm:"type:varchar(80)"`
	TxHash   string      `json:"tx_hash" gorm:"size:66;index"`
	Status   ClaimStatus `json:"status" gorm:"type:varchar(20);default:'confirmed';index"`
}

// AuditLog captures mutating API requests for traceability.
type AuditLog struct {
	BaseModel
	Account      string `json:"account" gorm:"size:64;index"`
	Action       string `json:"action" gorm:"size:255;not null"`
	ResourceType string `json:"resource_type" gorm:"size:100"`
	ResourceID   string `json:"resource_id" gorm:"size:100"`
	IPAddress    string `json:"ip_address" gorm:"size:45"`
	UserAgent    string `json:"user_agent" gorm:"size:500"`
	NewValues    JSONB  `json:"new_values,omitempty" gorm:"type:jsonb"`
}
