package authz

import (
	"github.com/pkg/errors"
)

// Expression is a compiled authorization predicate. Expressions hold no
// evaluation state; the same value may be evaluated any number of times
// against independently built contexts.
type Expression func(*EvaluationContext) (bool, error)

// HasAnyScope compiles a scope-membership predicate.
func HasAnyScope(scopes ...string) Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		return ctx.HasAnyScope(scopes...)
	}
}

// IsUser compiles the resource-owner-presence predicate.
func IsUser() Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		return ctx.IsUser(), nil
	}
}

// IsClient compiles the client-only predicate.
func IsClient() Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		return ctx.IsClient(), nil
	}
}

// ClientHasAnyRole compiles a client-authority predicate.
func ClientHasAnyRole(roles ...string) Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		return ctx.ClientHasAnyRole(roles...), nil
	}
}

// IsAuthenticated compiles the base authentication predicate.
func IsAuthenticated() Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		return ctx.IsAuthenticated(), nil
	}
}

// Or short-circuits on the first true branch. A scope-insufficiency
// denial from a branch is downgraded to false so a later branch can still
// authorize; if no branch does, the denial resurfaces.
func Or(exprs ...Expression) Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		var denial error
		for _, expr := range exprs {
			ok, err := expr(ctx)
			if err != nil {
				if errors.Is(err, ErrInsufficientScope) {
					denial = err
					continue
				}
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, denial
	}
}

// And requires every branch; errors propagate unchanged.
func And(exprs ...Expression) Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		for _, expr := range exprs {
			ok, err := expr(ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// Not negates a branch. Errors propagate unchanged.
func Not(expr Expression) Expression {
	return func(ctx *EvaluationContext) (bool, error) {
		ok, err := expr(ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// Evaluate runs an expression at the guard layer: a false result or any
// denial error denies outright.
func Evaluate(expr Expression, ctx *EvaluationContext) error {
	ok, err := expr(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrAccessDenied, "expression denied for %s.%s",
			ctx.Invocation().Target, ctx.Invocation().Method)
	}
	return nil
}
