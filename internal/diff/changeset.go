package diff

import (
	"fmt"

	"github.com/everstacklabs/scout/internal/catalog"
)

// ChangeSet is the difference between two consecutive catalog snapshots.
type ChangeSet struct {
	Source          string
	Added           []ModelChange
	Updated         []ModelUpdate
	Removed         []ModelChange
	PossibleRenames []RenamePair
	Unchanged       int
}

// ModelChange is a model that appeared or disappeared.
type ModelChange struct {
	ID    string
	Model catalog.ModelRecord
}

// ModelUpdate is a model present in both snapshots whose fields changed.
type ModelUpdate struct {
	ID      string
	Model   catalog.ModelRecord
	Changes []FieldChange
}

// FieldChange records a single field change.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// RenamePair is a possible rename (old model disappeared, new appeared).
type RenamePair struct {
	OldID  string
	NewID  string
	Reason string // e.g., "same provider, similar context/price"
}

// HasChanges reports whether the changeset has any modifications.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Added) > 0 || len(cs.Updated) > 0 || len(cs.Removed) > 0
}

// TotalChanged returns the count of added + updated models.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.Added) + len(cs.Updated)
}

// Repriced returns the ids of updated models whose token prices changed.
func (cs *ChangeSet) Repriced() []string {
	var ids []string
	for _, u := range cs.Updated {
		for _, c := range u.Changes {
			if c.Field == FieldPromptPrice || c.Field == FieldCompletionPrice {
				ids = append(ids, u.ID)
				break
			}
		}
	}
	return ids
}

// Summary renders a one-line description of the changeset.
func (cs *ChangeSet) Summary() string {
	return fmt.Sprintf("%s: %d added, %d updated (%d repriced), %d removed, %d possible renames, %d unchanged",
		cs.Source, len(cs.Added), len(cs.Updated), len(cs.Repriced()), len(cs.Removed), len(cs.PossibleRenames), cs.Unchanged)
}
