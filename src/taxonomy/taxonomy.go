// Package taxonomy holds the taxonomy tree that TAXBENCH queries when resolving and evaluating read assignments.
package taxonomy

import (
	"errors"
	"fmt"
	"sort"
)

// Unclassified is the taxon id reserved for reads without an assignment, it never names a node
const Unclassified = 0

// ErrUnknownTaxon is returned when a taxon id is not present in the taxonomy
var ErrUnknownTaxon = errors.New("taxon id not found in taxonomy")

// Node is a single taxon
type Node struct {
	ID     int
	Parent int
	Rank   Rank
}

// Taxonomy is the query interface used by the resolver and the evaluator
type Taxonomy interface {
	// Node returns the node for a taxon id
	Node(id int) (Node, bool)
	// Parent returns the node itself, or its nearest ancestor, at the given rank
	Parent(id int, rank Rank) (Node, bool)
	// LCA returns the lowest common ancestor of two taxa
	LCA(a, b int) (Node, error)
	// Lineage returns the nodes from the root down to the taxon
	Lineage(id int) ([]Node, error)
	// Children returns the direct descendants of a taxon, ordered by id
	Children(id int) []Node
	// Root returns the root node
	Root() Node
}

// NCBI is a Taxonomy held in memory, it is read-only once built and safe for concurrent use
type NCBI struct {
	nodes    map[int]Node
	children map[int][]int
	depths   map[int]int
	root     int

	// UnknownRanks is the number of nodes whose rank string was not recognised when loading a taxdump
	UnknownRanks int
}

// NewNCBI builds a taxonomy from a list of nodes, exactly one node must be its own parent (the root)
func NewNCBI(nodes []Node) (*NCBI, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no taxonomy nodes supplied")
	}
	tax := &NCBI{
		nodes:    make(map[int]Node, len(nodes)),
		children: make(map[int][]int),
		depths:   make(map[int]int, len(nodes)),
		root:     -1,
	}
	for _, node := range nodes {
		if node.ID == Unclassified {
			return nil, fmt.Errorf("taxon id %d is reserved for unclassified reads", Unclassified)
		}
		if existing, ok := tax.nodes[node.ID]; ok && existing != node {
			return nil, fmt.Errorf("taxon id %d listed twice with different parents or ranks", node.ID)
		}
		tax.nodes[node.ID] = node
		if node.ID == node.Parent {
			if tax.root != -1 && tax.root != node.ID {
				return nil, fmt.Errorf("taxonomy has more than one root (%d and %d)", tax.root, node.ID)
			}
			tax.root = node.ID
		}
	}
	if tax.root == -1 {
		return nil, fmt.Errorf("taxonomy has no root node")
	}
	for id, node := range tax.nodes {
		if id == tax.root {
			continue
		}
		if _, ok := tax.nodes[node.Parent]; !ok {
			return nil, fmt.Errorf("taxon %d has a parent (%d) which is not in the taxonomy", id, node.Parent)
		}
		tax.children[node.Parent] = append(tax.children[node.Parent], id)
	}
	for _, kids := range tax.children {
		sort.Ints(kids)
	}
	if err := tax.setDepths(); err != nil {
		return nil, err
	}
	return tax, nil
}

// setDepths records the distance of every node from the root, failing if a node never reaches it
func (tax *NCBI) setDepths() error {
	tax.depths[tax.root] = 0
	path := []int{}
	for id := range tax.nodes {
		path = path[:0]
		cur := id
		for {
			if _, ok := tax.depths[cur]; ok {
				break
			}
			path = append(path, cur)
			if len(path) > len(tax.nodes) {
				return fmt.Errorf("taxonomy contains a cycle involving taxon %d", id)
			}
			cur = tax.nodes[cur].Parent
		}
		depth := tax.depths[cur]
		for i := len(path) - 1; i >= 0; i-- {
			depth++
			tax.depths[path[i]] = depth
		}
	}
	return nil
}

// Size returns the number of nodes
func (tax *NCBI) Size() int {
	return len(tax.nodes)
}

// Root returns the root node
func (tax *NCBI) Root() Node {
	return tax.nodes[tax.root]
}

// Node returns the node for a taxon id
func (tax *NCBI) Node(id int) (Node, bool) {
	node, ok := tax.nodes[id]
	return node, ok
}

// Parent walks from the taxon towards the root and returns the first node with the requested rank.
// Passing the root, an unknown id, or a taxon with no ancestor at that rank returns false.
func (tax *NCBI) Parent(id int, rank Rank) (Node, bool) {
	if id == tax.root {
		return Node{}, false
	}
	cur, ok := tax.nodes[id]
	if !ok {
		return Node{}, false
	}
	for {
		if cur.Rank == rank {
			return cur, true
		}
		if cur.ID == tax.root {
			return Node{}, false
		}
		cur = tax.nodes[cur.Parent]
	}
}

// LCA returns the lowest common ancestor of two taxa
func (tax *NCBI) LCA(a, b int) (Node, error) {
	if _, ok := tax.nodes[a]; !ok {
		return Node{}, fmt.Errorf("%w: %d", ErrUnknownTaxon, a)
	}
	if _, ok := tax.nodes[b]; !ok {
		return Node{}, fmt.Errorf("%w: %d", ErrUnknownTaxon, b)
	}
	for tax.depths[a] > tax.depths[b] {
		a = tax.nodes[a].Parent
	}
	for tax.depths[b] > tax.depths[a] {
		b = tax.nodes[b].Parent
	}
	for a != b {
		a = tax.nodes[a].Parent
		b = tax.nodes[b].Parent
	}
	return tax.nodes[a], nil
}

// Lineage returns the nodes from the root down to the taxon
func (tax *NCBI) Lineage(id int) ([]Node, error) {
	node, ok := tax.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTaxon, id)
	}
	lineage := make([]Node, tax.depths[id]+1)
	for i := len(lineage) - 1; i >= 0; i-- {
		lineage[i] = node
		node = tax.nodes[node.Parent]
	}
	return lineage, nil
}

// Children returns the direct descendants of a taxon, ordered by id
func (tax *NCBI) Children(id int) []Node {
	kids := tax.children[id]
	nodes := make([]Node, len(kids))
	for i, kid := range kids {
		nodes[i] = tax.nodes[kid]
	}
	return nodes
}
