// Package validate checks decoded trees against structural and business
// rules.
//
// Rules are written as Checker chains bound to one node. A chain either
// short-circuits after its first failure (Check) or runs every check
// (ThoroughlyCheck). Failures are appended to a caller-owned slice so a
// whole pass accumulates into one ordered list.
package validate

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/report"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// ErrChainMisuse marks a chain built in an order that cannot work, such as
// a numeric comparison with no preceding IntValue. It signals a programming
// error, never bad input.
var ErrChainMisuse = errors.New("checker chain misuse")

// MisuseError is the panic value raised for ErrChainMisuse.
type MisuseError struct {
	Check string
	Path  string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("%v: %s at %s requires a preceding IntValue", ErrChainMisuse, e.Check, e.Path)
}

func (e *MisuseError) Unwrap() error {
	return ErrChainMisuse
}

// measureIDKey is the child attribute HasMeasures looks at.
const measureIDKey = "measureId"

// Checker is a chain of checks bound to one node.
type Checker struct {
	n        node.Node
	errs     *[]report.ValidationError
	thorough bool
	failed   bool

	// intApplied records that IntValue ran; current holds its result when
	// it parsed.
	intApplied bool
	current    *int
}

// Check starts a short-circuit chain: after the first failure the
// remaining checks are skipped.
func Check(n node.Node, errs *[]report.ValidationError) *Checker {
	return &Checker{n: n, errs: errs}
}

// ThoroughlyCheck starts a chain where every check runs and each failure
// is reported.
func ThoroughlyCheck(n node.Node, errs *[]report.ValidationError) *Checker {
	return &Checker{n: n, errs: errs, thorough: true}
}

// Failed reports whether this chain appended an error.
func (c *Checker) Failed() bool {
	return c.failed
}

func (c *Checker) skip() bool {
	return c.failed && !c.thorough
}

func (c *Checker) fail(msg string) {
	*c.errs = append(*c.errs, report.New(msg, c.n.Path()))
	c.failed = true
}

// Value fails when key is unset or blank.
func (c *Checker) Value(msg, key string) *Checker {
	if c.skip() {
		return c
	}
	if strings.TrimSpace(c.n.Value(key)) == "" {
		c.fail(msg)
	}
	return c
}

// IntValue fails when key is unset or not an integer. On success the
// parsed value becomes the context for GreaterThan.
func (c *Checker) IntValue(msg, key string) *Checker {
	if c.skip() {
		return c
	}
	c.intApplied = true
	c.current = nil
	v, err := strconv.Atoi(strings.TrimSpace(c.n.Value(key)))
	if err != nil {
		c.fail(msg)
		return c
	}
	c.current = &v
	return c
}

// GreaterThan fails when the context value is not greater than limit.
// It panics with a *MisuseError when no IntValue precedes it in the chain.
// When the preceding IntValue failed there is nothing to compare and the
// check is skipped.
func (c *Checker) GreaterThan(msg string, limit int) *Checker {
	if c.skip() {
		return c
	}
	if !c.intApplied {
		panic(&MisuseError{Check: "GreaterThan", Path: c.n.Path()})
	}
	if c.current == nil {
		return c
	}
	if *c.current <= limit {
		c.fail(msg)
	}
	return c
}

// HasParent fails when the node has no parent or the parent kind is not
// one of kinds.
func (c *Checker) HasParent(msg string, kinds ...template.Kind) *Checker {
	if c.skip() {
		return c
	}
	p, ok := c.n.Parent()
	if !ok || !slices.Contains(kinds, p.Kind()) {
		c.fail(msg)
	}
	return c
}

// HasChildren fails when the node has no children.
func (c *Checker) HasChildren(msg string) *Checker {
	if c.skip() {
		return c
	}
	if c.n.ChildCount() == 0 {
		c.fail(msg)
	}
	return c
}

// ChildMinimum fails when fewer than minimum children have one of kinds.
func (c *Checker) ChildMinimum(msg string, minimum int, kinds ...template.Kind) *Checker {
	if c.skip() {
		return c
	}
	if len(c.n.ChildrenOf(kinds...)) < minimum {
		c.fail(msg)
	}
	return c
}

// ChildMaximum fails when more than maximum children have one of kinds.
func (c *Checker) ChildMaximum(msg string, maximum int, kinds ...template.Kind) *Checker {
	if c.skip() {
		return c
	}
	if len(c.n.ChildrenOf(kinds...)) > maximum {
		c.fail(msg)
	}
	return c
}

// OnlyHasChildren fails when any child has a kind outside kinds.
func (c *Checker) OnlyHasChildren(msg string, kinds ...template.Kind) *Checker {
	if c.skip() {
		return c
	}
	for _, child := range c.n.Children() {
		if !slices.Contains(kinds, child.Kind()) {
			c.fail(msg)
			break
		}
	}
	return c
}

// ValueIn fails when key is unset or its value is not one of allowed.
func (c *Checker) ValueIn(msg, key string, allowed ...string) *Checker {
	if c.skip() {
		return c
	}
	v, ok := c.n.Lookup(key)
	if !ok || !slices.Contains(allowed, v) {
		c.fail(msg)
	}
	return c
}

// HasMeasures fails when any of ids is missing from the measureId values of
// the node's children. Child order does not matter.
func (c *Checker) HasMeasures(msg string, ids ...string) *Checker {
	if c.skip() {
		return c
	}
	present := make(map[string]bool, c.n.ChildCount())
	for _, child := range c.n.Children() {
		if v, ok := child.Lookup(measureIDKey); ok {
			present[v] = true
		}
	}
	for _, id := range ids {
		if !present[id] {
			c.fail(msg)
			break
		}
	}
	return c
}

// Satisfies fails when pred returns false. It carries rules the built-in
// checks cannot express.
func (c *Checker) Satisfies(msg string, pred func(node.Node) bool) *Checker {
	if c.skip() {
		return c
	}
	if !pred(c.n) {
		c.fail(msg)
	}
	return c
}
