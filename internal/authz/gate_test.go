package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
)

func TestAdminMayDoEverything(t *testing.T) {
	for _, op := range authz.Operations {
		assert.NoError(t, authz.Authorize(domain.RoleAdmin, op), op)
	}
}

func TestModeratorMatrix(t *testing.T) {
	allowed := []authz.Operation{
		authz.OpProductList, authz.OpOrderList, authz.OpUserList, authz.OpDashboardView,
		authz.OpOrderCreate, authz.OpOrderStatus, authz.OpOrderPayment,
	}
	denied := []authz.Operation{
		authz.OpProductCreate, authz.OpProductUpdate, authz.OpProductDelete, authz.OpProductActivate,
		authz.OpStockAdjust, authz.OpOrderEdit, authz.OpUserRole,
	}
	for _, op := range allowed {
		assert.NoError(t, authz.Authorize(domain.RoleModerator, op), op)
	}
	for _, op := range denied {
		assert.ErrorIs(t, authz.Authorize(domain.RoleModerator, op), domain.ErrForbidden, op)
	}
	assert.Len(t, authz.Capabilities(domain.RoleModerator), len(allowed))
}

func TestUserAndUnknownRolesDenied(t *testing.T) {
	for _, op := range authz.Operations {
		assert.ErrorIs(t, authz.Authorize(domain.RoleUser, op), domain.ErrForbidden)
		assert.ErrorIs(t, authz.Authorize("", op), domain.ErrForbidden)
	}
	assert.Empty(t, authz.Capabilities(domain.RoleUser))
}

func TestPrincipalAuthorize(t *testing.T) {
	p := authz.Principal{UserID: "u-mod", Role: domain.RoleModerator}
	assert.NoError(t, p.Authorize(authz.OpOrderStatus))
	assert.ErrorIs(t, p.Authorize(authz.OpUserRole), domain.ErrForbidden)
}
