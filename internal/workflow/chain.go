package workflow

import (
	"fmt"
	"strings"
)

// DefaultChain is the approval path used when no APPROVAL_CHAIN is configured.
const DefaultChain = "hod,dean,chair,vice_chair"

// Chain is the fixed ordered sequence of approval roles a proposal must
// traverse. It is installation configuration, validated once at startup,
// and forms a simple path: no cycles, no branches, no duplicate roles.
type Chain struct {
	roles []string
	index map[string]int
}

// NewChain builds a chain from an ordered role list.
func NewChain(roles []string) (*Chain, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("approval chain must contain at least one role")
	}

	index := make(map[string]int, len(roles))
	cleaned := make([]string, 0, len(roles))
	for _, r := range roles {
		role := strings.ToLower(strings.TrimSpace(r))
		if role == "" {
			return nil, fmt.Errorf("approval chain contains an empty role")
		}
		if _, dup := index[role]; dup {
			return nil, fmt.Errorf("approval chain contains duplicate role %q", role)
		}
		index[role] = len(cleaned)
		cleaned = append(cleaned, role)
	}

	return &Chain{roles: cleaned, index: index}, nil
}

// ParseChain builds a chain from a comma-separated role list, e.g.
// "hod,dean,chair".
func ParseChain(spec string) (*Chain, error) {
	return NewChain(strings.Split(spec, ","))
}

// First returns the role that must act on a freshly submitted proposal.
func (c *Chain) First() string {
	return c.roles[0]
}

// NextRole returns the role following the given one, or ok=false when the
// given role is the final node (or not part of the chain at all).
func (c *Chain) NextRole(role string) (string, bool) {
	i, ok := c.index[strings.ToLower(role)]
	if !ok || i+1 >= len(c.roles) {
		return "", false
	}
	return c.roles[i+1], true
}

// IsFinal reports whether the given role is the last node of the chain.
func (c *Chain) IsFinal(role string) bool {
	i, ok := c.index[strings.ToLower(role)]
	return ok && i == len(c.roles)-1
}

// Contains reports whether the role is part of the chain.
func (c *Chain) Contains(role string) bool {
	_, ok := c.index[strings.ToLower(role)]
	return ok
}

// Roles returns the chain's roles in approval order.
func (c *Chain) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}
