package services

import (
	"context"
	"fmt"

	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/interfaces"

	"github.com/shopspring/decimal"
)

// referralNode is one member in the graph arena. Links are arena indices.
type referralNode struct {
	userID   int64
	parent   int // -1 for the root
	line     int // index into lineRoots, -1 for the root
	depth    int
	children []int
}

// ReferralGraph is the downstream referral tree of one member, loaded breadth first
type ReferralGraph struct {
	rootID    int64
	nodes     []referralNode // BFS order, so depth is non-decreasing
	index     map[int64]int
	lineRoots []int
}

// BuildReferralGraph walks the referrer edges below rootID one frontier at a time.
// Reaching a member twice means the referral relation is not a forest and aborts the walk.
func BuildReferralGraph(ctx context.Context, users interfaces.UserRepository, rootID int64) (*ReferralGraph, error) {
	g := &ReferralGraph{
		rootID: rootID,
		nodes:  []referralNode{{userID: rootID, parent: -1, line: -1}},
		index:  map[int64]int{rootID: 0},
	}

	frontier := []int{0}
	for len(frontier) > 0 {
		parentIDs := make([]int64, len(frontier))
		for i, idx := range frontier {
			parentIDs[i] = g.nodes[idx].userID
		}

		children, err := users.GetChildren(ctx, parentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load referrals of %d members: %w", len(parentIDs), err)
		}

		next := make([]int, 0, len(children))
		for _, child := range children {
			if child.ReferrerID == nil {
				return nil, domain.NewDataIntegrityError(nil,
					fmt.Sprintf("member %d returned as a referral without a referrer", child.ID))
			}
			if _, seen := g.index[child.ID]; seen {
				return nil, domain.NewDataIntegrityError(nil,
					fmt.Sprintf("referral cycle detected below member %d at member %d", rootID, child.ID))
			}
			parentIdx, ok := g.index[*child.ReferrerID]
			if !ok {
				return nil, domain.NewDataIntegrityError(nil,
					fmt.Sprintf("member %d refers to %d outside the current frontier", child.ID, *child.ReferrerID))
			}

			parent := &g.nodes[parentIdx]
			node := referralNode{
				userID: child.ID,
				parent: parentIdx,
				line:   parent.line,
				depth:  parent.depth + 1,
			}

			idx := len(g.nodes)
			if parentIdx == 0 {
				node.line = len(g.lineRoots)
				g.lineRoots = append(g.lineRoots, idx)
			}

			g.nodes = append(g.nodes, node)
			g.nodes[parentIdx].children = append(g.nodes[parentIdx].children, idx)
			g.index[child.ID] = idx
			next = append(next, idx)
		}

		frontier = next
	}

	return g, nil
}

// RootID returns the member the graph was built for
func (g *ReferralGraph) RootID() int64 {
	return g.rootID
}

// Members returns every downstream member in depth order, excluding the root
func (g *ReferralGraph) Members() []int64 {
	members := make([]int64, 0, len(g.nodes)-1)
	for _, n := range g.nodes[1:] {
		members = append(members, n.userID)
	}
	return members
}

// DownstreamCount is the number of members below the root
func (g *ReferralGraph) DownstreamCount() int {
	return len(g.nodes) - 1
}

// LineCount is the number of direct referrals
func (g *ReferralGraph) LineCount() int {
	return len(g.lineRoots)
}

// Depth returns how far below the root a member sits
func (g *ReferralGraph) Depth(userID int64) (int, bool) {
	idx, ok := g.index[userID]
	if !ok {
		return 0, false
	}
	return g.nodes[idx].depth, true
}

// Lines summarises each direct referral's subtree using the given per-member investment
func (g *ReferralGraph) Lines(investments map[int64]decimal.Decimal) []entities.LineSummary {
	lines := make([]entities.LineSummary, len(g.lineRoots))
	for i, rootIdx := range g.lineRoots {
		lines[i] = entities.LineSummary{
			RootUserID:      g.nodes[rootIdx].userID,
			TotalInvestment: decimal.Zero,
		}
	}

	for _, n := range g.nodes[1:] {
		line := &lines[n.line]
		line.Members = append(line.Members, n.userID)
		line.MemberCount++
		if amount, ok := investments[n.userID]; ok {
			line.TotalInvestment = line.TotalInvestment.Add(amount)
		}
	}

	return lines
}
