package commission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hierarchy() []Agent {
	return []Agent{
		{SalesCode: "P1", Tier: TierPrimary, Name: "primary-1"},
		{SalesCode: "S1", Tier: TierSecondary, ParentCode: "P1", CommissionRate: rate("25")},
		{SalesCode: "S2", Tier: TierSecondary, CommissionRate: rate("0.3")},
		{SalesCode: "S3", Tier: TierSecondary, ParentCode: "GONE", CommissionRate: rate("20")},
		{SalesCode: "S4", Tier: TierSecondary, ParentCode: "S2"},
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(hierarchy())

	res, err := r.Resolve("P1")
	require.NoError(t, err)
	assert.Equal(t, RolePrimary, res.Role)
	assert.Nil(t, res.Parent)

	res, err = r.Resolve("S1")
	require.NoError(t, err)
	assert.Equal(t, RoleSecondaryLinked, res.Role)
	require.NotNil(t, res.Parent)
	assert.Equal(t, "P1", res.Parent.SalesCode)

	res, err = r.Resolve(" S2 ")
	require.NoError(t, err)
	assert.Equal(t, RoleSecondaryIndependent, res.Role)
	assert.Empty(t, res.DanglingParent)
}

func TestResolve_ParentMustBePrimary(t *testing.T) {
	r := NewResolver(hierarchy())

	res, err := r.Resolve("S3")
	require.NoError(t, err)
	assert.Equal(t, RoleSecondaryIndependent, res.Role)
	assert.Equal(t, "GONE", res.DanglingParent)

	// 上级是二级销售时同样不构成挂靠，层级只有两层
	res, err = r.Resolve("S4")
	require.NoError(t, err)
	assert.Equal(t, RoleSecondaryIndependent, res.Role)
	assert.Equal(t, "S2", res.DanglingParent)
}

func TestResolve_Unknown(t *testing.T) {
	r := NewResolver(hierarchy())
	_, err := r.Resolve("NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSalesCode))
}

func TestResolve_PrimaryTableWins(t *testing.T) {
	r := NewResolver([]Agent{
		{SalesCode: "X", Tier: TierSecondary, ParentCode: "P"},
		{SalesCode: "X", Tier: TierPrimary},
		{SalesCode: "P", Tier: TierPrimary},
	})
	res, err := r.Resolve("X")
	require.NoError(t, err)
	assert.Equal(t, RolePrimary, res.Role)
}
