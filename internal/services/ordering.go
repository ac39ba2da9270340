package services

import (
	"fmt"

	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
)

// The order planner maintains a dense 1..N OrderIndex over one sibling group
// (modules in a course, lessons in a module, questions in a quiz lesson). It is
// a pure function layer over (id, index) pairs: callers load the current group,
// compute the next-state assignments here, and persist them in one transaction.

// OrderedItem is one member of a sibling group as currently persisted.
type OrderedItem struct {
	ID         uint
	OrderIndex int
}

// NextOrderIndex returns the index a newly appended sibling receives: one past
// the current maximum, or 1 for an empty group.
func NextOrderIndex(group []OrderedItem) int {
	max := 0
	for _, item := range group {
		if item.OrderIndex > max {
			max = item.OrderIndex
		}
	}
	return max + 1
}

// PlanMove computes the full next-state assignment for moving one sibling to
// newIndex. Targets outside [1, N] are rejected so the dense-index invariant
// cannot be violated by caller input. Moving an item onto its own index yields
// an empty plan.
func PlanMove(group []OrderedItem, itemID uint, newIndex int) ([]repositories.OrderUpdate, error) {
	if newIndex < 1 || newIndex > len(group) {
		return nil, fmt.Errorf("%w: target %d, group size %d", ErrInvalidOrderTarget, newIndex, len(group))
	}

	oldIndex, found := 0, false
	for _, item := range group {
		if item.ID == itemID {
			oldIndex = item.OrderIndex
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: item %d", ErrOrderItemMissing, itemID)
	}

	if oldIndex == newIndex {
		return nil, nil
	}

	updates := make([]repositories.OrderUpdate, 0, len(group))
	for _, item := range group {
		next := item.OrderIndex
		switch {
		case item.ID == itemID:
			next = newIndex
		case oldIndex < newIndex && item.OrderIndex > oldIndex && item.OrderIndex <= newIndex:
			// Moving later: everything in (oldIndex, newIndex] steps back.
			next = item.OrderIndex - 1
		case oldIndex > newIndex && item.OrderIndex >= newIndex && item.OrderIndex < oldIndex:
			// Moving earlier: everything in [newIndex, oldIndex) steps forward.
			next = item.OrderIndex + 1
		}
		updates = append(updates, repositories.OrderUpdate{ID: item.ID, OrderIndex: next})
	}

	return updates, nil
}

// PlanRemoval computes the next-state assignment for the siblings that remain
// after removing itemID, closing the gap its index leaves behind. The removed
// item itself is not part of the plan.
func PlanRemoval(group []OrderedItem, itemID uint) ([]repositories.OrderUpdate, error) {
	removedIndex, found := 0, false
	for _, item := range group {
		if item.ID == itemID {
			removedIndex = item.OrderIndex
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: item %d", ErrOrderItemMissing, itemID)
	}

	var updates []repositories.OrderUpdate
	for _, item := range group {
		if item.ID == itemID {
			continue
		}
		next := item.OrderIndex
		if item.OrderIndex > removedIndex {
			next = item.OrderIndex - 1
		}
		updates = append(updates, repositories.OrderUpdate{ID: item.ID, OrderIndex: next})
	}

	return updates, nil
}
