// Package view derives read-only projections of the board for rendering.
package view

import "lifeboard/domain"

// Section is one rendered category block: its tasks in flat-order, category
// labelled. Empty categories produce no section at all.
type Section struct {
	Category domain.Category    `json:"category"`
	Tasks    []domain.TaskState `json:"tasks"`
}

// ByCategory partitions states by category, preserving the relative flat
// order inside each section. Sections appear in board display order and
// only when non-empty.
func ByCategory(states []domain.TaskState) []Section {
	buckets := make(map[domain.Category][]domain.TaskState)
	for _, s := range states {
		buckets[s.Category] = append(buckets[s.Category], s)
	}
	sections := make([]Section, 0, len(buckets))
	for _, c := range domain.Categories() {
		if tasks := buckets[c]; len(tasks) > 0 {
			sections = append(sections, Section{Category: c, Tasks: tasks})
		}
	}
	return sections
}

// States adapts plain tasks into flag-less states, for projections built
// from a committed snapshot.
func States(tasks []domain.Task) []domain.TaskState {
	out := make([]domain.TaskState, len(tasks))
	for i, t := range tasks {
		out[i] = domain.TaskState{Task: t}
	}
	return out
}
