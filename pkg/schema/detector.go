// Package schema detects which manifest columns hold which fields.
// Every source kind gets a declarative, ordered keyword rule table; one
// generic matcher walks the header row so the heuristic stays testable
// apart from any spreadsheet parsing.
package schema

import (
	"strings"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

// Role names the meaning of a manifest column.
type Role string

const (
	RoleTracking      Role = "tracking"
	RolePurchaseOrder Role = "purchase_order"
	RoleCustomer      Role = "customer"
	RoleShipDate      Role = "ship_date"
	RoleStyle         Role = "style"
	RoleColor         Role = "color"
	RoleSize          Role = "size"
	RoleQuantity      Role = "quantity"
	RoleDepartment    Role = "department"
	RoleDueDate       Role = "due_date"
	RoleStatus        Role = "status"
)

// Rule matches a header to a role. Contains entries are case-insensitive
// substring tests; Exact entries match the whole trimmed header; Prefix
// entries match the leading characters.
type Rule struct {
	Role     Role
	Contains []string
	Exact    []string
	Prefix   []string
}

func (r Rule) matches(header string) bool {
	for _, e := range r.Exact {
		if header == e {
			return true
		}
	}
	for _, p := range r.Prefix {
		if strings.HasPrefix(header, p) {
			return true
		}
	}
	for _, c := range r.Contains {
		if strings.Contains(header, c) {
			return true
		}
	}
	return false
}

// RuleSet is an ordered list of rules. Order encodes precedence: the rules
// for a header are tried top to bottom, and the first hit claims it.
type RuleSet []Rule

// Assignment maps each detected role to its column index.
type Assignment map[Role]int

// Column returns the column index for a role, or -1 when undetected.
func (a Assignment) Column(role Role) int {
	if i, ok := a[role]; ok {
		return i
	}
	return -1
}

// HasTracking reports whether a tracking column was found. Manifests
// without one contribute zero entries (except the inbound positional
// fallback handled by the extractor).
func (a Assignment) HasTracking() bool {
	_, ok := a[RoleTracking]
	return ok
}

// Detect assigns roles to headers. The first header in column order that
// matches a role's rule wins that role, and a header satisfies at most one
// rule (if/elif semantics), so "Customer PO #" lands on the PO role and
// never doubles as the customer column.
func Detect(headers []string, rules RuleSet) Assignment {
	assigned := make(Assignment, len(rules))
	for i, h := range headers {
		header := strings.ToLower(strings.TrimSpace(h))
		if header == "" {
			continue
		}
		for _, rule := range rules {
			if _, taken := assigned[rule.Role]; taken {
				continue
			}
			if rule.matches(header) {
				assigned[rule.Role] = i
				break
			}
		}
	}
	return assigned
}

// Per-source rule tables. The supplier feeds label the same facts
// differently ("Customer PO #", "PO Number", "Reference 1"), so each source
// carries its own ordered vocabulary.

var sanmarRules = RuleSet{
	{Role: RoleTracking, Contains: []string{"tracking"}},
	{Role: RolePurchaseOrder, Contains: []string{"customer po"}},
	{Role: RolePurchaseOrder, Contains: []string{"po", "purchase"}},
	{Role: RoleCustomer, Contains: []string{"customer", "decorator", "company", "ship to"}},
	{Role: RoleShipDate, Contains: []string{"ship date", "date shipped", "shipped"}},
	{Role: RoleStyle, Contains: []string{"style"}},
	{Role: RoleColor, Contains: []string{"color"}},
	{Role: RoleSize, Contains: []string{"size"}},
	{Role: RoleQuantity, Contains: []string{"qty", "quantity"}},
}

var ssRules = RuleSet{
	{Role: RoleTracking, Contains: []string{"tracking"}},
	{Role: RolePurchaseOrder, Contains: []string{"customer po"}},
	{Role: RolePurchaseOrder, Contains: []string{"po", "purchase"}},
	{Role: RoleCustomer, Contains: []string{"customer", "decorator", "company"}},
	{Role: RoleShipDate, Contains: []string{"ship date", "date shipped", "shipped"}},
	{Role: RoleStyle, Contains: []string{"style"}},
	{Role: RoleColor, Contains: []string{"color"}},
	{Role: RoleSize, Contains: []string{"size"}},
	{Role: RoleQuantity, Contains: []string{"qty", "quantity"}},
}

var custominkRules = RuleSet{
	{Role: RoleTracking, Contains: []string{"tracking"}},
	{Role: RolePurchaseOrder, Exact: []string{"order", "id"}, Contains: []string{"order"}},
	{Role: RoleDepartment, Contains: []string{"vendor", "department"}},
	{Role: RoleDueDate, Contains: []string{"due"}},
	{Role: RoleStatus, Contains: []string{"status"}},
	{Role: RoleCustomer, Contains: []string{"customer", "name"}},
}

var inboundRules = RuleSet{
	{Role: RoleTracking, Contains: []string{"tracking"}},
	{Role: RolePurchaseOrder, Contains: []string{"reference", "ref"}},
	{Role: RoleCustomer, Contains: []string{"shipper", "from"}},
	{Role: RoleShipDate, Contains: []string{"date"}},
}

// OrderStatusRules detect the columns of the CustomInk order-status
// workbook: the order number column may be labelled "Order", "ID", or lead
// with a "#".
var OrderStatusRules = RuleSet{
	{Role: RolePurchaseOrder, Exact: []string{"id"}, Prefix: []string{"#"}, Contains: []string{"order"}},
	{Role: RoleDepartment, Contains: []string{"vendor", "department"}},
	{Role: RoleDueDate, Contains: []string{"due"}},
	{Role: RoleStatus, Contains: []string{"status"}},
}

// RulesFor returns the rule table for a source kind. Combined masters share
// their base feed's vocabulary.
func RulesFor(source models.SourceType) RuleSet {
	switch source.Base() {
	case models.SourceSanmar:
		return sanmarRules
	case models.SourceSS:
		return ssRules
	case models.SourceCustomInk:
		return custominkRules
	case models.SourceInbound:
		return inboundRules
	}
	return nil
}
