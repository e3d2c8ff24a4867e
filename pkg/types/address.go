package types

// Address is the delivery address snapshotted onto an order. Stored as jsonb;
// the order keeps its own copy so later profile edits never rewrite history.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	Landmark   *string `json:"landmark,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Phone      string  `json:"phone"`
}

// BankDetails is the payout destination snapshotted into a settlement batch
// at generation time.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bank_name,omitempty"`
	UPIHandle     string `json:"upi_handle,omitempty"`
}
