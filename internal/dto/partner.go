package dto

// CreatePartnerRequest registers a business partner.
type CreatePartnerRequest struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Kind  string `json:"kind" binding:"required,oneof=SUPPLIER CUSTOMER VENDOR TRANSPORTER"`
	GSTIN string `json:"gstin"`
}
