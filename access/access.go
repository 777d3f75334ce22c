// Package access decides who may read and write each collection. Rules
// answer either a plain yes/no or a filter the documents must match; a
// Policy bundles the rules per collection and plugs into store.Store as
// its guard.
package access

import (
	"context"
	"fmt"

	"tessera/models"
	"tessera/store"
)

const RoleAdmin = "admin"

// User is the caller an operation runs for. Tenant is the id of the tenant
// document the user belongs to; platform admins have none.
type User struct {
	ID     int
	Email  string
	Tenant string
	Roles  []string
}

func FromModel(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Email: u.Email, Tenant: u.TenantID, Roles: u.RoleList()}
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the user stored in ctx, or nil for anonymous callers.
func UserFrom(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

func IsAdmin(u *User) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Decision is the outcome of a rule. A nil Filter with Allow means
// unrestricted access.
type Decision struct {
	Allow  bool
	Filter store.Filter
}

var (
	allow = Decision{Allow: true}
	deny  = Decision{}
)

func only(f store.Filter) Decision {
	return Decision{Allow: true, Filter: f}
}

// Rule decides one operation. data is the incoming document on create.
type Rule func(u *User, data store.Doc) Decision

type Rules struct {
	Read   Rule
	Create Rule
	Update Rule
	Delete Rule
}

func (r Rules) rule(op store.Op) Rule {
	switch op {
	case store.OpRead:
		return r.Read
	case store.OpCreate:
		return r.Create
	case store.OpUpdate:
		return r.Update
	case store.OpDelete:
		return r.Delete
	}
	return nil
}

func AdminOnly(u *User, _ store.Doc) Decision {
	if IsAdmin(u) {
		return allow
	}
	return deny
}

func Anyone(*User, store.Doc) Decision {
	return allow
}

// ownTenant limits tenant users to their tenant's documents.
func ownTenant(u *User, _ store.Doc) Decision {
	switch {
	case IsAdmin(u):
		return allow
	case u != nil && u.Tenant != "":
		return only(store.Filter{"tenant": u.Tenant})
	}
	return deny
}

// createForOwnTenant lets tenant users create documents for their tenant only.
func createForOwnTenant(u *User, data store.Doc) Decision {
	switch {
	case IsAdmin(u):
		return allow
	case u != nil && u.Tenant != "" && data.String("tenant") == u.Tenant:
		return allow
	}
	return deny
}

func publicWhere(f store.Filter) Rule {
	return func(u *User, data store.Doc) Decision {
		if u == nil {
			return only(f)
		}
		return ownTenant(u, data)
	}
}

// TenantScoped covers tenant content: admins see everything, tenant users
// their own tenant, anonymous callers published documents.
var TenantScoped = Rules{
	Read:   publicWhere(store.Filter{"status": "published"}),
	Create: createForOwnTenant,
	Update: ownTenant,
	Delete: ownTenant,
}

// TenantReadOnly covers the tenants collection itself.
var TenantReadOnly = Rules{
	Read: func(u *User, _ store.Doc) Decision {
		switch {
		case IsAdmin(u):
			return allow
		case u != nil && u.Tenant != "":
			return only(store.Filter{"id": u.Tenant})
		}
		return deny
	},
	Create: AdminOnly,
	Update: AdminOnly,
	Delete: AdminOnly,
}

// FormAccess is TenantScoped with forms' active/inactive status.
var FormAccess = Rules{
	Read:   publicWhere(store.Filter{"status": "active"}),
	Create: createForOwnTenant,
	Update: ownTenant,
	Delete: ownTenant,
}

// MediaAccess makes files public to read.
var MediaAccess = Rules{
	Read:   Anyone,
	Create: createForOwnTenant,
	Update: ownTenant,
	Delete: ownTenant,
}

// SubmissionAccess takes submissions from anyone and shows them to the
// owning tenant.
var SubmissionAccess = Rules{
	Read:   ownTenant,
	Create: Anyone,
	Update: ownTenant,
	Delete: ownTenant,
}

// Policy maps collections to their rules. Collections without an entry
// are admin-only.
type Policy map[string]Rules

func DefaultPolicy() Policy {
	return Policy{
		store.Tenants:         TenantReadOnly,
		store.Pages:           TenantScoped,
		store.Homepages:       TenantScoped,
		store.Posts:           TenantScoped,
		store.NavigationMenus: TenantScoped,
		store.Headers:         TenantScoped,
		store.Footers:         TenantScoped,
		store.Media:           MediaAccess,
		store.Forms:           FormAccess,
		store.FormSubmissions: SubmissionAccess,
	}
}

// Decide runs the rule for op on collection for the user in ctx.
func (p Policy) Decide(ctx context.Context, collection string, op store.Op, data store.Doc) Decision {
	rule := AdminOnly
	if rules, ok := p[collection]; ok {
		if r := rules.rule(op); r != nil {
			rule = r
		}
	}
	return rule(UserFrom(ctx), data)
}

// Check implements store.Guard.
func (p Policy) Check(ctx context.Context, collection string, op store.Op, data store.Doc) (bool, store.Filter) {
	d := p.Decide(ctx, collection, op, data)
	return d.Allow, d.Filter
}

func (d Decision) String() string {
	switch {
	case !d.Allow:
		return "deny"
	case d.Filter == nil:
		return "allow"
	}
	return fmt.Sprintf("allow where %v", map[string]any(d.Filter))
}
