package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

func TestDetect_SanmarHeaders(t *testing.T) {
	headers := []string{"Tracking Number", "Customer PO #", "Ship To Name", "Ship Date", "Style", "Color", "Size", "Qty"}

	got := Detect(headers, RulesFor(models.SourceSanmar))

	assert.Equal(t, 0, got.Column(RoleTracking))
	assert.Equal(t, 1, got.Column(RolePurchaseOrder))
	assert.Equal(t, 2, got.Column(RoleCustomer))
	assert.Equal(t, 3, got.Column(RoleShipDate))
	assert.Equal(t, 4, got.Column(RoleStyle))
	assert.Equal(t, 5, got.Column(RoleColor))
	assert.Equal(t, 6, got.Column(RoleSize))
	assert.Equal(t, 7, got.Column(RoleQuantity))
}

func TestDetect_CustomerPONeverClaimsCustomerRole(t *testing.T) {
	// "Customer PO" contains "customer" but must land on the PO role only,
	// leaving the customer role for the later "Decorator" column.
	headers := []string{"Customer PO", "Decorator", "Tracking"}

	got := Detect(headers, RulesFor(models.SourceSanmar))

	assert.Equal(t, 0, got.Column(RolePurchaseOrder))
	assert.Equal(t, 1, got.Column(RoleCustomer))
	assert.Equal(t, 2, got.Column(RoleTracking))
}

func TestDetect_FirstMatchWinsRole(t *testing.T) {
	// Two headers mention tracking; the leftmost keeps the role.
	headers := []string{"Tracking #", "Alt Tracking"}

	got := Detect(headers, RulesFor(models.SourceSS))

	assert.Equal(t, 0, got.Column(RoleTracking))
}

func TestDetect_POFallbackWhenNoCustomerPO(t *testing.T) {
	headers := []string{"PO Number", "Company", "Tracking"}

	got := Detect(headers, RulesFor(models.SourceSS))

	assert.Equal(t, 0, got.Column(RolePurchaseOrder))
	assert.Equal(t, 1, got.Column(RoleCustomer))
}

func TestDetect_CustomInkHeaders(t *testing.T) {
	headers := []string{"Tracking", "Order", "Customer Name", "Vendor", "Due Date", "Status"}

	got := Detect(headers, RulesFor(models.SourceCustomInk))

	assert.Equal(t, 0, got.Column(RoleTracking))
	assert.Equal(t, 1, got.Column(RolePurchaseOrder))
	assert.Equal(t, 2, got.Column(RoleCustomer))
	assert.Equal(t, 3, got.Column(RoleDepartment))
	assert.Equal(t, 4, got.Column(RoleDueDate))
	assert.Equal(t, 5, got.Column(RoleStatus))
}

func TestDetect_InboundHeaders(t *testing.T) {
	headers := []string{"Tracking Number", "Shipment Date", "Shipper Name", "Reference 1"}

	got := Detect(headers, RulesFor(models.SourceInbound))

	assert.Equal(t, 0, got.Column(RoleTracking))
	assert.Equal(t, 1, got.Column(RoleShipDate))
	assert.Equal(t, 2, got.Column(RoleCustomer))
	assert.Equal(t, 3, got.Column(RolePurchaseOrder))
}

func TestDetect_MissingTracking(t *testing.T) {
	headers := []string{"PO", "Customer"}

	got := Detect(headers, RulesFor(models.SourceSanmar))

	assert.False(t, got.HasTracking())
	assert.Equal(t, -1, got.Column(RoleTracking))
}

func TestDetect_OrderStatusVariants(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		poCol   int
	}{
		{"labelled order", []string{"Order Number", "Vendor", "Due", "Status"}, 0},
		{"bare id", []string{"ID", "Department", "Due Date", "Order Status"}, 0},
		{"hash prefix", []string{"# Order", "Vendor", "Due", "Status"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.headers, OrderStatusRules)
			require.Equal(t, tc.poCol, got.Column(RolePurchaseOrder))
			assert.Equal(t, 1, got.Column(RoleDepartment))
			assert.Equal(t, 2, got.Column(RoleDueDate))
			assert.Equal(t, 3, got.Column(RoleStatus))
		})
	}
}

func TestDetect_CombinedUsesBaseVocabulary(t *testing.T) {
	assert.Equal(t, RulesFor(models.SourceSanmar), RulesFor(models.SourceSanmarCombined))
	assert.Equal(t, RulesFor(models.SourceSS), RulesFor(models.SourceSSCombined))
}

func TestDetect_BlankHeadersSkipped(t *testing.T) {
	headers := []string{"", "  ", "Tracking"}

	got := Detect(headers, RulesFor(models.SourceSanmar))

	assert.Equal(t, 2, got.Column(RoleTracking))
}
