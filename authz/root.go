package authz

import (
	"github.com/pkg/errors"
)

// Predicate names exposed to an external expression-language evaluator
// under the oauth2 namespace.
const (
	PredicateHasAnyScope      = "hasAnyScope"
	PredicateIsUser           = "isUser"
	PredicateIsClient         = "isClient"
	PredicateClientHasAnyRole = "clientHasAnyRole"
	PredicateIsAuthenticated  = "isAuthenticated"
)

// Root is the evaluation boundary handed to an external evaluator. It
// binds one freshly built context and dispatches predicate calls by name.
// Build a new Root per evaluation; it caches nothing across calls.
type Root struct {
	ctx *EvaluationContext
}

func NewRoot(auth Authentication, invocation Invocation) *Root {
	return &Root{ctx: NewEvaluationContext(auth, invocation)}
}

// Context returns the bound evaluation context.
func (r *Root) Context() *EvaluationContext { return r.ctx }

// Call dispatches a named predicate with its string arguments. Unknown
// names are an error so an evaluator never silently treats a typo as
// false.
func (r *Root) Call(name string, args ...string) (bool, error) {
	switch name {
	case PredicateHasAnyScope:
		return r.ctx.HasAnyScope(args...)
	case PredicateIsUser:
		return r.ctx.IsUser(), nil
	case PredicateIsClient:
		return r.ctx.IsClient(), nil
	case PredicateClientHasAnyRole:
		return r.ctx.ClientHasAnyRole(args...), nil
	case PredicateIsAuthenticated:
		return r.ctx.IsAuthenticated(), nil
	default:
		return false, errors.Errorf("[Root.Call] unknown predicate %q", name)
	}
}
