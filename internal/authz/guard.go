// Package authz holds the role-scoped authorization guard. Every
// mutating or reading operation composes a Decide call before touching
// the store; handlers never gate access themselves.
package authz

import "github.com/spec-kit/marketplace-service/internal/domain"

// Action identifies the category of operation being authorized.
type Action string

const (
	ActionRead       Action = "read"
	ActionList       Action = "list"
	ActionCreate     Action = "create"
	ActionTransition Action = "transition"
	ActionDelete     Action = "delete"
)

// ResourceType names the target entity class.
type ResourceType string

const (
	ResourceServiceRequest ResourceType = "service-request"
	ResourceProfile        ResourceType = "profile"
	ResourceService        ResourceType = "service"
	ResourceUser           ResourceType = "user"
	ResourceReview         ResourceType = "review"
)

// Actor is the authenticated user attempting an operation.
type Actor struct {
	ID    string
	Roles []domain.Role
}

// Resource carries only the ownership fields relevant to the decision.
// They reflect the caller's already-loaded snapshot; the guard never
// fetches from the store.
type Resource struct {
	Type           ResourceType
	CustomerID     string
	ProfessionalID string
	OwnerUserID    string
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

func (a Actor) hasRole(role domain.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Decide evaluates roles in priority order: admin, customer,
// professional. The highest-priority role the actor carries determines
// the ruling; an actor with no recognized role is denied outright.
func Decide(actor Actor, action Action, resource Resource) Decision {
	switch {
	case actor.hasRole(domain.RoleAdmin):
		return allow()
	case actor.hasRole(domain.RoleCustomer):
		return decideCustomer(actor, action, resource)
	case actor.hasRole(domain.RoleProfessional):
		return decideProfessional(actor, action, resource)
	}
	return deny("unauthorized")
}

func decideCustomer(actor Actor, action Action, resource Resource) Decision {
	switch resource.Type {
	case ResourceServiceRequest:
		if action == ActionCreate {
			return allow()
		}
		if resource.CustomerID == actor.ID {
			return allow()
		}
		return deny("request belongs to another customer")
	case ResourceReview:
		if action == ActionRead || action == ActionList || action == ActionCreate {
			return allow()
		}
		if resource.CustomerID == actor.ID {
			return allow()
		}
		return deny("review belongs to another customer")
	case ResourceProfile:
		if action == ActionRead || action == ActionList {
			return allow()
		}
		if resource.OwnerUserID == actor.ID {
			return allow()
		}
		return deny("profile mutations restricted to the owner")
	case ResourceService:
		if action == ActionRead || action == ActionList {
			return allow()
		}
		return deny("catalog is admin-managed")
	case ResourceUser:
		if resource.OwnerUserID == actor.ID {
			return allow()
		}
		return deny("account belongs to another user")
	}
	return deny("unknown resource")
}

func decideProfessional(actor Actor, action Action, resource Resource) Decision {
	switch resource.Type {
	case ResourceServiceRequest:
		if action == ActionCreate {
			return deny("professionals cannot create service requests")
		}
		if resource.ProfessionalID == actor.ID {
			return allow()
		}
		return deny("request assigned to another professional")
	case ResourceReview:
		if action == ActionRead || action == ActionList {
			return allow()
		}
		return deny("reviews are customer-authored")
	case ResourceProfile:
		if action == ActionRead || action == ActionList {
			return allow()
		}
		if resource.OwnerUserID == actor.ID {
			return allow()
		}
		return deny("profile mutations restricted to the owner")
	case ResourceService:
		if action == ActionRead || action == ActionList {
			return allow()
		}
		return deny("catalog is admin-managed")
	case ResourceUser:
		if resource.OwnerUserID == actor.ID {
			return allow()
		}
		return deny("account belongs to another user")
	}
	return deny("unknown resource")
}

// ActorFromUser builds an Actor from a loaded user record.
func ActorFromUser(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{ID: user.ID, Roles: user.Roles}
}
