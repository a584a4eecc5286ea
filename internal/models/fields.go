package models

// Column names used by the upstream accounting exports.
const (
	FieldInvID            = "Inv Id"
	FieldInvType          = "Inv Type"
	FieldDescription      = "Description"
	FieldType             = "Type"
	FieldCategory         = "Category"
	FieldFinancialAccount = "Financial Account"
	FieldAccountingHead   = "Accounting Head"
	FieldEndingBalance    = "Ending Balance"
	FieldEndQty           = "End Qty"
	FieldEndPrice         = "End Local Market Price"
	FieldEndLocalMV       = "End Local MV"
	FieldEndBookMV        = "End Book MV"
	FieldAmount           = "Amount"
	FieldSecurityID       = "Security Id"
	FieldSecurityName     = "Security Name"
	FieldExtraData        = "extra_data"
)

// Alternate spellings accepted for dividend identity columns.
var (
	SecurityIDFields   = []string{FieldSecurityID, "Security id", "security_id"}
	SecurityNameFields = []string{FieldSecurityName, "Security name", "security_name"}
	AssetTypeFields    = []string{FieldInvType, "Investment Type", "Asset Type", "asset_type"}
)
