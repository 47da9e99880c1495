package soql

import (
	"strings"

	"github.com/forceql/forceql/pkg/parser"
)

// topology maps every table reference of a query to its dotted relationship
// path. The remote query language requires:
//
//   - exactly one top-level object,
//   - every join running from a foreign key to the primary key,
//   - N-1 relations expressed as child-to-parent field paths.
//
// A join "Contact c JOIN Account a ON c.AccountId = a.Id" therefore resolves
// c -> Contact and a -> Contact.Account.
type topology struct {
	// root is the reference name of the top-level object.
	root string

	// rootObject is the remote object name of the root.
	rootObject string

	// paths maps reference names (alias or object name) to full dotted
	// paths starting with the root object name.
	paths map[string]string

	// minimal strips the root prefix from rendered field paths.
	minimal bool
}

// joinEdge is one resolved FK->PK relation: child owns the foreign key,
// parent is the joined-to object.
type joinEdge struct {
	child  string // reference name of the FK side
	parent string // reference name of the PK side
	fk     string // foreign-key field on the child
}

// relationshipName derives the relationship path segment from a foreign-key
// field name: custom Foo__c becomes Foo__r, standard FooId becomes Foo.
func relationshipName(fk string) (string, bool) {
	if strings.HasSuffix(fk, "__c") {
		return strings.TrimSuffix(fk, "__c") + "__r", true
	}
	if len(fk) > 2 && strings.HasSuffix(fk, "Id") {
		return strings.TrimSuffix(fk, "Id"), true
	}
	return "", false
}

// resolveTopology analyzes the FROM clause and builds the path map.
func resolveTopology(from *parser.FromClause, opts Options) (*topology, error) {
	if from == nil || from.Source == nil || from.Source.Name == "" {
		return nil, translateErrorf("missing FROM clause")
	}

	pk := opts.pkField()

	// Reference name -> object name for every table in the query.
	objects := map[string]string{from.Source.RefName(): from.Source.Name}
	for _, j := range from.Joins {
		if j.Right == nil || j.Right.Name == "" {
			return nil, translateErrorf("join without object name")
		}
		ref := j.Right.RefName()
		if _, dup := objects[ref]; dup {
			return nil, translateErrorf("duplicate table reference %q", ref)
		}
		objects[ref] = j.Right.Name
	}

	// Resolve each join condition to a FK->PK edge.
	edges := make([]joinEdge, 0, len(from.Joins))
	childSide := map[string]bool{from.Source.RefName(): true}
	parentSide := map[string]bool{}
	for _, j := range from.Joins {
		edge, err := resolveJoinEdge(j, objects, pk)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
		childSide[edge.child] = true
		if parentSide[edge.parent] {
			return nil, translateErrorf("object %q is joined more than once", edge.parent)
		}
		parentSide[edge.parent] = true
	}

	// The root is referenced as a child but never joined-to as a parent.
	var roots []string
	for ref := range childSide {
		if !parentSide[ref] {
			roots = append(roots, ref)
		}
	}
	if len(roots) != 1 {
		return nil, translateErrorf(
			"only queries with one top-level object are supported by the remote API; use a subquery")
	}
	root := roots[0]

	t := &topology{
		root:       root,
		rootObject: objects[root],
		paths:      map[string]string{root: objects[root]},
		minimal:    opts.MinimalAliases || minimalAliasObjects[objects[root]],
	}

	// Walk outward from the root, assigning relationship paths.
	work := map[string]bool{root: true}
	for len(work) > 0 {
		next := map[string]bool{}
		for _, e := range edges {
			if !work[e.child] {
				continue
			}
			if _, done := t.paths[e.parent]; done {
				return nil, translateErrorf("circular join involving %q", e.parent)
			}
			rel, ok := relationshipName(e.fk)
			if !ok {
				return nil, translateErrorf(
					"cannot derive a relationship from foreign key %q; expected a field ending in Id or __c", e.fk)
			}
			t.paths[e.parent] = t.paths[e.child] + "." + rel
			next[e.parent] = true
		}
		work = next
	}

	if len(t.paths) != len(objects) {
		return nil, translateErrorf("join graph is not connected to the top-level object")
	}
	return t, nil
}

// resolveJoinEdge validates one ON condition and orients it FK -> PK.
func resolveJoinEdge(j *parser.Join, objects map[string]string, pk string) (joinEdge, error) {
	cond := j.Condition
	if p, ok := cond.(*parser.ParenExpr); ok {
		cond = p.Expr
	}
	eq, ok := cond.(*parser.BinaryExpr)
	if !ok || eq.Op != parser.TOKEN_EQ {
		return joinEdge{}, translateErrorf("join conditions must be a single equality on the primary key")
	}
	left, lok := eq.Left.(*parser.ColumnRef)
	right, rok := eq.Right.(*parser.ColumnRef)
	if !lok || !rok {
		return joinEdge{}, translateErrorf("join conditions must compare two columns")
	}

	lref, err := qualifiedRef(left, objects, j)
	if err != nil {
		return joinEdge{}, err
	}
	rref, err := qualifiedRef(right, objects, j)
	if err != nil {
		return joinEdge{}, err
	}

	// Exactly one side is the primary key; the other carries the FK.
	switch {
	case left.Column == pk && right.Column != pk:
		return joinEdge{child: rref, parent: lref, fk: right.Column}, nil
	case right.Column == pk && left.Column != pk:
		return joinEdge{child: lref, parent: rref, fk: left.Column}, nil
	default:
		return joinEdge{}, translateErrorf(
			"join condition must relate a foreign key to the primary key %q", pk)
	}
}

// qualifiedRef resolves the table qualifier of a join-condition column.
func qualifiedRef(col *parser.ColumnRef, objects map[string]string, j *parser.Join) (string, error) {
	if col.Table == "" {
		return "", translateErrorf("join condition columns must be table-qualified")
	}
	if _, ok := objects[col.Table]; !ok {
		return "", translateErrorf("unknown table reference %q in join on %s", col.Table, j.Right.Name)
	}
	return col.Table, nil
}

// fieldPath renders a column reference as a dotted field path relative to the
// query root. The root prefix is retained unless minimal aliasing is active.
func (t *topology) fieldPath(col *parser.ColumnRef) (string, error) {
	ref := col.Table
	if ref == "" {
		ref = t.root
	}
	path, ok := t.paths[ref]
	if !ok {
		return "", translateErrorf("unknown table reference %q", ref)
	}
	if t.minimal {
		path = strings.TrimPrefix(path, t.paths[t.root])
		path = strings.TrimPrefix(path, ".")
	}
	if path == "" {
		return col.Column, nil
	}
	return path + "." + col.Column, nil
}

// relativePath renders the extraction path of a column relative to the root,
// which is how nested records come back from the API regardless of aliasing.
func (t *topology) relativePath(col *parser.ColumnRef) (string, error) {
	ref := col.Table
	if ref == "" {
		ref = t.root
	}
	path, ok := t.paths[ref]
	if !ok {
		return "", translateErrorf("unknown table reference %q", ref)
	}
	rel := strings.TrimPrefix(path, t.paths[t.root])
	rel = strings.TrimPrefix(rel, ".")
	if rel == "" {
		return col.Column, nil
	}
	return rel + "." + col.Column, nil
}
