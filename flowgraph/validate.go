// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flowgraph

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/swipeflow/models"
)

// ErrorKind classifies an authoring-time rejection
type ErrorKind string

const (
	KindCycle         ErrorKind = "cycle"
	KindInvalidBranch ErrorKind = "invalid-branch"
	KindMalformed     ErrorKind = "malformed"
)

// ValidationError is a structural problem with a submitted flow or template.
// CardIndex is -1 when the problem is not tied to one card.
type ValidationError struct {
	Kind      ErrorKind `json:"kind"`
	CardIndex int       `json:"card_index"`
	Field     string    `json:"field,omitempty"`
	Message   string    `json:"message"`
	Cycle     []int     `json:"cycle,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.CardIndex >= 0 {
		return fmt.Sprintf("%s: card %d: %s", e.Kind, e.CardIndex, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var (
	validate         = newValidator()
	cardIndexPattern = regexp.MustCompile(`\.cards\[(\d+)\]`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match what the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateFlow checks a save-flow request: field constraints first, then
// branch indices, then acyclicity. Nothing is persisted by the caller unless
// this returns nil.
func ValidateFlow(req *models.SaveFlowRequest) error {
	if err := validate.Struct(req); err != nil {
		return fromValidator(err)
	}

	n := len(req.Cards)
	adj := make([][]int, n)
	for i, draft := range req.Cards {
		for opt := range 2 {
			target := branchAt(draft, opt)
			if target == nil {
				continue
			}
			if *target < 0 || *target >= n {
				return &ValidationError{
					Kind:      KindInvalidBranch,
					CardIndex: i,
					Field:     fmt.Sprintf("branches[%d]", opt),
					Message:   fmt.Sprintf("branch target %d is not a card of this flow", *target),
				}
			}
			adj[i] = append(adj[i], *target)
		}
	}

	if cycle := DetectCycle(adj); cycle != nil {
		return &ValidationError{
			Kind:      KindCycle,
			CardIndex: cycle[0],
			Field:     "branches",
			Message:   "branches form a cycle: " + formatCycle(cycle),
			Cycle:     cycle,
		}
	}

	return nil
}

// ValidateTemplate checks a result template request
func ValidateTemplate(req *models.TemplateRequest) error {
	if err := validate.Struct(req); err != nil {
		return fromValidator(err)
	}
	if req.MaxScore != nil && *req.MaxScore < req.MinScore {
		return &ValidationError{
			Kind:      KindMalformed,
			CardIndex: -1,
			Field:     "max_score",
			Message:   "max_score must be greater than or equal to min_score",
		}
	}
	return nil
}

const (
	white = iota
	gray
	black
)

// DetectCycle runs a three-color DFS from every node, not only node 0, using
// an explicit stack. It returns the nodes of the first cycle found, closed
// (first == last), or nil when the graph is acyclic.
func DetectCycle(adj [][]int) []int {
	type frame struct {
		node int
		next int
	}

	color := make([]uint8, len(adj))
	var stack []frame

	for root := range adj {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack = append(stack[:0], frame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(adj[top.node]) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}

			v := adj[top.node][top.next]
			top.next++

			switch color[v] {
			case white:
				color[v] = gray
				stack = append(stack, frame{node: v})
			case gray:
				// Back edge: v is on the stack, the cycle is v ... top, v
				var cycle []int
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i].node == v {
						for _, f := range stack[i:] {
							cycle = append(cycle, f.node)
						}
						break
					}
				}
				return append(cycle, v)
			}
		}
	}

	return nil
}

func formatCycle(cycle []int) string {
	parts := make([]string, len(cycle))
	for i, n := range cycle {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " -> ")
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Kind: KindMalformed, CardIndex: -1, Message: err.Error()}
	}

	fe := verrs[0]
	ve := &ValidationError{
		Kind:      KindMalformed,
		CardIndex: -1,
		Field:     fe.Field(),
		Message:   describe(fe),
	}

	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ve.Field = ns[i+1:]
	}
	if m := cardIndexPattern.FindStringSubmatch(ns); m != nil {
		ve.CardIndex, _ = strconv.Atoi(m[1])
	}

	return ve
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must have exactly %s entries", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "url":
		return fe.Field() + " must be a valid URL"
	case "gte":
		return fmt.Sprintf("%s must be %s or more", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
