package enums

// AuditAction names the mutating operation an audit entry records.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionStatus AuditAction = "status_change"
)

// AuditTarget names the entity kind an audit entry points at.
type AuditTarget string

const (
	AuditTargetProduct  AuditTarget = "product"
	AuditTargetCategory AuditTarget = "category"
	AuditTargetDiscount AuditTarget = "discount"
	AuditTargetOrder    AuditTarget = "order"
	AuditTargetSetting  AuditTarget = "setting"
	AuditTargetUser     AuditTarget = "user"
)
