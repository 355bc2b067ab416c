// Package guard decides whether a caller may act on clients and projects
// and stamps ownership on the records they create.
package guard

import (
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
)

type Policy string

const (
	// Open lets any authenticated user update or delete any record.
	Open Policy = "open"
	// Owner restricts update and delete to the record's creator and staff.
	Owner Policy = "owner"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case Open, Owner:
		return p, nil
	default:
		return "", fmt.Errorf("unknown mutation policy %q", s)
	}
}

type Guard struct {
	policy Policy
}

func New(policy Policy) *Guard {
	return &Guard{policy: policy}
}

func (g *Guard) Policy() Policy {
	return g.policy
}

// Require fails with common.ErrUnauthenticated for anonymous callers.
func (g *Guard) Require(c *auth.Caller) error {
	if !c.Authenticated() {
		return common.ErrUnauthenticated
	}
	return nil
}

// Stamp returns the created_by value for a record c is creating.
func (g *Guard) Stamp(c *auth.Caller) (*string, error) {
	if err := g.Require(c); err != nil {
		return nil, err
	}
	id := c.UserID
	return &id, nil
}

// CanMutate checks whether c may update or delete a record created by
// createdBy (nil when the creator is gone).
func (g *Guard) CanMutate(c *auth.Caller, createdBy *string) error {
	if err := g.Require(c); err != nil {
		return err
	}
	if g.policy != Owner || c.Privileged() {
		return nil
	}
	if createdBy != nil && *createdBy == c.UserID {
		return nil
	}
	return common.ErrForbidden
}

// CanGrantStaff checks whether c may set staff status on an account.
func (g *Guard) CanGrantStaff(c *auth.Caller) error {
	if err := g.Require(c); err != nil {
		return err
	}
	if g.policy == Owner && !c.Privileged() {
		return common.ErrForbidden
	}
	return nil
}
