package authgate

import (
	"fmt"

	"github.com/goliatone/go-router"
)

// Rule is an authorization predicate evaluated against verified claims.
type Rule func(claims Claims) bool

// RuleTable maps route identifiers to rules. Routes with no entry are
// allowed for any valid credential pair.
type RuleTable map[string]Rule

// Resolve looks up the rule for a route identifier.
func (t RuleTable) Resolve(routeID string) (Rule, bool) {
	if t == nil {
		return nil, false
	}
	rule, ok := t[routeID]
	return rule, ok
}

// DefaultRouteID identifies a route as "METHOD path".
func DefaultRouteID(ctx router.Context) string {
	return fmt.Sprintf("%s %s", ctx.Method(), ctx.Path())
}

// MinimumRole allows claims carrying at least the given role.
func MinimumRole(minRole string) Rule {
	return func(claims Claims) bool {
		return claims.IsAtLeast(minRole)
	}
}

// RequireRole allows claims carrying exactly the given role.
func RequireRole(role string) Rule {
	return func(claims Claims) bool {
		return claims.HasRole(role)
	}
}

// AnyOf allows claims passing at least one of the given rules.
func AnyOf(rules ...Rule) Rule {
	return func(claims Claims) bool {
		for _, rule := range rules {
			if rule(claims) {
				return true
			}
		}
		return false
	}
}

// mirrors the role hierarchy from the sessions package
var roleHierarchy = map[string]int{
	"guest":  0,
	"member": 1,
	"admin":  2,
	"owner":  3,
}

func roleAtLeast(role, minRole string) bool {
	r, ok := roleHierarchy[role]
	if !ok {
		return false
	}
	m, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}
	return r >= m
}
