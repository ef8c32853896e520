package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkpoint/internal/domain"
)

func TestUpdateUserRole_ModeratorForbidden(t *testing.T) {
	e := newEnv(t)
	before, err := e.users.ListUsers(admin)
	require.NoError(t, err)

	_, err = e.users.UpdateUserRole(context.Background(), moderator, "u-user", domain.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrForbidden)

	after, err := e.users.ListUsers(moderator)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, e.rec.Drain())
}

func TestUpdateUserRole_Admin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.UpdateUserRole(ctx, admin, "u-user", domain.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, u.Role)
	stored, _ := e.st.User("u-user")
	assert.Equal(t, domain.RoleModerator, stored.Role)
	assert.Len(t, e.rec.Drain(), 1)

	_, err = e.users.UpdateUserRole(ctx, admin, "u-user", domain.RoleModerator)
	require.NoError(t, err)
	assert.Empty(t, e.rec.Drain())

	_, err = e.users.UpdateUserRole(ctx, admin, "u-admin", domain.RoleUser)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.users.UpdateUserRole(ctx, admin, "u-user", domain.Role("owner"))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = e.users.UpdateUserRole(ctx, admin, "u-ghost", domain.RoleUser)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.users.ListUsers(customer)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDashboard_Stats(t *testing.T) {
	off := product("p3", "Old Butter", "50", 1)
	off.IsActive = false
	e := newEnv(t, product("p1", "Milk", "40", 10), product("p2", "Ghee", "500", 3), off)
	ctx := context.Background()

	paid := e.create(t, item("p1", 2), item("p2", 1))
	e.create(t, item("p1", 1))
	_, err := e.orders.UpdatePaymentStatus(ctx, admin, paid.ID, domain.PaymentPaid)
	require.NoError(t, err)
	_, err = e.orders.UpdateStatus(ctx, admin, paid.ID, domain.StatusConfirmed)
	require.NoError(t, err)

	st, err := e.dash.Stats(moderator)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalProducts)
	assert.Equal(t, 2, st.ActiveProducts)
	assert.Equal(t, 1, st.LowStock)
	assert.Equal(t, 2, st.TotalOrders)
	assert.Equal(t, 1, st.PendingOrders)
	assert.True(t, st.TotalRevenue.Equal(decimal.RequireFromString("580")), "revenue %s", st.TotalRevenue)
	assert.Equal(t, 3, st.TotalUsers)
	assert.Equal(t, 1, st.UsersByRole[domain.RoleModerator])
	assert.Len(t, st.RecentOrders, 2)

	_, err = e.dash.Stats(customer)
	require.ErrorIs(t, err, domain.ErrForbidden)
}
