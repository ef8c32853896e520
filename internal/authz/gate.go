// Package authz holds the capability matrix that decides which roles may
// invoke which core operations.
package authz

import (
	"fmt"

	"milkpoint/internal/domain"
)

type Operation string

const (
	OpProductList     Operation = "product.list"
	OpProductCreate   Operation = "product.create"
	OpProductUpdate   Operation = "product.update"
	OpProductDelete   Operation = "product.delete"
	OpProductActivate Operation = "product.activate"
	OpStockAdjust     Operation = "stock.adjust"
	OpOrderList       Operation = "order.list"
	OpOrderCreate     Operation = "order.create"
	OpOrderEdit       Operation = "order.edit"
	OpOrderStatus     Operation = "order.status"
	OpOrderPayment    Operation = "order.payment"
	OpUserList        Operation = "user.list"
	OpUserRole        Operation = "user.role"
	OpDashboardView   Operation = "dashboard.view"
)

// Operations lists every operation known to the gate.
var Operations = []Operation{
	OpProductList, OpProductCreate, OpProductUpdate, OpProductDelete, OpProductActivate,
	OpStockAdjust, OpOrderList, OpOrderCreate, OpOrderEdit, OpOrderStatus, OpOrderPayment,
	OpUserList, OpUserRole, OpDashboardView,
}

var moderatorOps = map[Operation]bool{
	OpProductList:   true,
	OpOrderList:     true,
	OpUserList:      true,
	OpDashboardView: true,
	OpOrderCreate:   true,
	OpOrderStatus:   true,
	OpOrderPayment:  true,
}

// Principal is the resolved caller of a core operation.
type Principal struct {
	UserID string
	Role   domain.Role
}

// Allowed reports whether role may perform op.
func Allowed(role domain.Role, op Operation) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleModerator:
		return moderatorOps[op]
	default:
		return false
	}
}

// Authorize returns an error wrapping domain.ErrForbidden when role may not perform op.
func Authorize(role domain.Role, op Operation) error {
	if Allowed(role, op) {
		return nil
	}
	return fmt.Errorf("%w: role %q may not perform %s", domain.ErrForbidden, role, op)
}

// Authorize checks the principal's role against op.
func (p Principal) Authorize(op Operation) error { return Authorize(p.Role, op) }

// Capabilities returns the operations role may perform, in declaration order.
func Capabilities(role domain.Role) []Operation {
	var out []Operation
	for _, op := range Operations {
		if Allowed(role, op) {
			out = append(out, op)
		}
	}
	return out
}
