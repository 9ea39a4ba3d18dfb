package taxonomy

import "sort"

// LeafCount is the number of leaf nodes below a taxon
type LeafCount struct {
	ID     int
	Leaves int
}

// CountLeaves counts the leaf nodes below every node of a rank that has descendants, ordered by id
func CountLeaves(tax Taxonomy, rank Rank) []LeafCount {
	// pre-order walk, then accumulate leaves from the bottom up
	order := []Node{}
	stack := []Node{tax.Root()}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, node)
		stack = append(stack, tax.Children(node.ID)...)
	}
	leaves := make(map[int]int, len(order))
	counts := []LeafCount{}
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		kids := tax.Children(node.ID)
		if len(kids) == 0 {
			leaves[node.ID] = 1
			continue
		}
		total := 0
		for _, kid := range kids {
			total += leaves[kid.ID]
		}
		leaves[node.ID] = total
		if node.Rank == rank {
			counts = append(counts, LeafCount{ID: node.ID, Leaves: total})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].ID < counts[j].ID })
	return counts
}
