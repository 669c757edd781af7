package rbd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidDocument is returned when a diagram is structurally
	// malformed: missing ids, duplicate ids or dangling edges.
	ErrInvalidDocument = errors.New("invalid diagram document")

	// ErrInvalidProperties is returned by ValidateProperties.
	ErrInvalidProperties = errors.New("invalid node properties")
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New()

// Validate checks document well-formedness: node ids and edge endpoints. It
// does not look inside property blocks, so one malformed node cannot fail a
// whole diagram, and it does not check topology (start/end counts,
// connectivity); that is the topology analyzer's job.
func Validate(g *Graph) error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidDocument)
	}
	var errs []string
	if err := validate.Struct(g); err != nil {
		errs = append(errs, formatValidationError(err)...)
	}

	seen := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			continue
		}
		if prev, ok := seen[n.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate node id %q (nodes[%d] and nodes[%d])", n.ID, prev, i))
			continue
		}
		seen[n.ID] = i
	}
	for i, e := range g.Edges {
		if e.SourceNodeID != "" {
			if _, ok := seen[e.SourceNodeID]; !ok {
				errs = append(errs, fmt.Sprintf("edges[%d]: unknown source node %q", i, e.SourceNodeID))
			}
		}
		if e.TargetNodeID != "" {
			if _, ok := seen[e.TargetNodeID]; !ok {
				errs = append(errs, fmt.Sprintf("edges[%d]: unknown target node %q", i, e.TargetNodeID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidDocument, strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateProperties runs the tag rules of the node's property block: a
// known nodeType and non-negative counts and maintenance times. A node without
// properties passes; the adapter reports that case itself.
func ValidateProperties(n *Node) error {
	if n == nil || n.Properties == nil {
		return nil
	}
	if err := validate.Struct(n.Properties); err != nil {
		return fmt.Errorf("%w: node %s: %s", ErrInvalidProperties, n.ID, strings.Join(formatValidationError(err), "; "))
	}
	return nil
}

// ValidateStruct runs tag validation on any request envelope.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.New(strings.Join(formatValidationError(err), "; "))
	}
	return nil
}

func formatValidationError(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s: is required", ns))
		case "oneof":
			out = append(out, fmt.Sprintf("%s: must be one of [%s], got %v", ns, fe.Param(), fe.Value()))
		default:
			out = append(out, fmt.Sprintf("%s: failed %s=%s (got %v)", ns, fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return out
}
