package cache

// Resource names the cacheable entity classes. The string value is the
// key prefix, so invalidation and population always agree on key shape.
type Resource string

const (
	ResourceServices        Resource = "services"
	ResourceServiceRequests Resource = "service-requests"
	ResourceReviews         Resource = "reviews"
	ResourceCustomers       Resource = "customers"
	ResourceProfessionals   Resource = "professionals"
)

// ListKey returns the canonical key for the full listing of a resource.
// Role-filtered listings (customers, professionals) are distinct
// resources, so no further qualifier is needed.
func ListKey(resource Resource) string {
	return string(resource)
}

// ItemKey returns the canonical key for a single entity.
func ItemKey(resource Resource, id string) string {
	return string(resource) + "/" + id
}

// MutationKeys is the invalidation set for a mutation touching one
// entity of the given resource: the canonical list key plus the item
// key for the specific id.
func MutationKeys(resource Resource, id string) []string {
	return []string{ListKey(resource), ItemKey(resource, id)}
}
