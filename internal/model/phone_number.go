// internal/model/phone_number.go
package model

// PhoneNumber is one routable phone number identifier bound to a business
// account. PhoneNumberID is the provider-assigned identifier and the sole
// routing key used by incoming webhooks.
type PhoneNumber struct {
	ID            int64  `db:"id" json:"id"`
	WabaRecordID  int64  `db:"waba_record_id" json:"waba_record_id"`
	PhoneNumberID string `db:"phone_number_id" json:"phone_number_id"`
	PhoneNumber   string `db:"phone_number" json:"phone_number"`
	DisplayName   string `db:"display_name" json:"display_name"`
	Status        string `db:"status" json:"status"`
	IsVerified    bool   `db:"is_verified" json:"is_verified"`
}

// TenantRoute is the result of resolving a webhook routing key: the owning
// tenant plus the business account and phone records the message belongs to.
type TenantRoute struct {
	TenantID      int64
	WabaRecordID  int64
	PhoneRecordID int64
}
