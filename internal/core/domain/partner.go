package domain

// PartnerKind is the closed set of business partner roles. Behavior is driven
// by this tagged variant, not by string-keyed dispatch.
type PartnerKind string

const (
	PartnerSupplier    PartnerKind = "SUPPLIER"
	PartnerCustomer    PartnerKind = "CUSTOMER"
	PartnerVendor      PartnerKind = "VENDOR" // job-work vendor
	PartnerTransporter PartnerKind = "TRANSPORTER"
)

// IsValid reports whether k is a known partner kind.
func (k PartnerKind) IsValid() bool {
	switch k {
	case PartnerSupplier, PartnerCustomer, PartnerVendor, PartnerTransporter:
		return true
	}
	return false
}

// Partner is a supplier, customer, job-work vendor or transporter.
type Partner struct {
	PartnerID string      `json:"partnerID"`
	Code      string      `json:"code"` // unique
	Name      string      `json:"name"`
	Kind      PartnerKind `json:"kind"`
	GSTIN     string      `json:"gstin,omitempty"`
	IsActive  bool        `json:"isActive"`
	AuditFields
}

// ControlAccountCode returns the ledger control account a partner of this kind
// settles against, or "" for kinds that carry no ledger exposure.
func (k PartnerKind) ControlAccountCode() string {
	switch k {
	case PartnerSupplier, PartnerVendor:
		return AcctVendorPayable
	case PartnerCustomer:
		return AcctCustomerRecv
	}
	return ""
}
