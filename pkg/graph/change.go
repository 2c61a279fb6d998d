package graph

import (
	"errors"
	"fmt"

	"github.com/conceptgraph/graphvc/pkg/ident"
)

// ChangeType is the kind of mutation a Change describes.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// ItemType is the kind of graph item a Change mutates.
type ItemType string

const (
	ItemTypeNode         ItemType = "node"
	ItemTypeRelationship ItemType = "relationship"
)

var (
	ErrInvalidChange       = errors.New("invalid change")
	ErrMissingItemID       = fmt.Errorf("missing item id: %w", ErrInvalidChange)
	ErrUnknownChangeType   = fmt.Errorf("unknown change type: %w", ErrInvalidChange)
	ErrUnknownItemType     = fmt.Errorf("unknown item type: %w", ErrInvalidChange)
	ErrUnexpectedPrevious  = fmt.Errorf("create must not carry previous data: %w", ErrInvalidChange)
	ErrUnexpectedNewData   = fmt.Errorf("delete must not carry new data: %w", ErrInvalidChange)
	ErrMissingPreviousData = fmt.Errorf("update and delete require previous data: %w", ErrInvalidChange)
	ErrMissingNewData      = fmt.Errorf("create and update require new data: %w", ErrInvalidChange)
)

func (t ChangeType) Validate() error {
	switch t {
	case ChangeTypeCreate, ChangeTypeUpdate, ChangeTypeDelete:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChangeType, string(t))
	}
}

func (t ItemType) Validate() error {
	switch t {
	case ItemTypeNode, ItemTypeRelationship:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownItemType, string(t))
	}
}

// Metadata is free-form annotation on a change (author tool, review flags).
type Metadata map[string]string

// Change is an atomic create/update/delete of one node or relationship.
// Changes are immutable values once committed.
type Change struct {
	Type         ChangeType `json:"change_type"`
	ItemType     ItemType   `json:"item_type"`
	ItemID       string     `json:"item_id"`
	PreviousData Properties `json:"previous_data,omitempty"`
	NewData      Properties `json:"new_data,omitempty"`
	Metadata     Metadata   `json:"metadata,omitempty"`
}

// Validate enforces the change invariants: create carries no previous data,
// delete carries no new data, the item id is never empty.
func (c Change) Validate() error {
	if c.ItemID == "" {
		return ErrMissingItemID
	}
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if err := c.ItemType.Validate(); err != nil {
		return err
	}
	switch c.Type {
	case ChangeTypeCreate:
		if len(c.PreviousData) > 0 {
			return fmt.Errorf("item %s: %w", c.ItemID, ErrUnexpectedPrevious)
		}
		if len(c.NewData) == 0 {
			return fmt.Errorf("item %s: %w", c.ItemID, ErrMissingNewData)
		}
	case ChangeTypeUpdate:
		if len(c.PreviousData) == 0 {
			return fmt.Errorf("item %s: %w", c.ItemID, ErrMissingPreviousData)
		}
		if len(c.NewData) == 0 {
			return fmt.Errorf("item %s: %w", c.ItemID, ErrMissingNewData)
		}
	case ChangeTypeDelete:
		if len(c.PreviousData) == 0 {
			return fmt.Errorf("item %s: %w", c.ItemID, ErrMissingPreviousData)
		}
		if len(c.NewData) > 0 {
			return fmt.Errorf("item %s: %w", c.ItemID, ErrUnexpectedNewData)
		}
	}
	return nil
}

// Invert returns the change that undoes this one: create and delete swap
// types, update keeps its type with payloads swapped.
func (c Change) Invert() Change {
	inverted := Change{
		ItemType:     c.ItemType,
		ItemID:       c.ItemID,
		PreviousData: c.NewData.Copy(),
		NewData:      c.PreviousData.Copy(),
		Metadata:     c.Metadata,
	}
	switch c.Type {
	case ChangeTypeCreate:
		inverted.Type = ChangeTypeDelete
	case ChangeTypeDelete:
		inverted.Type = ChangeTypeCreate
	default:
		inverted.Type = ChangeTypeUpdate
	}
	return inverted
}

func (c Change) Identity() []byte {
	previous, _ := c.PreviousData.CanonicalJSON()
	next, _ := c.NewData.CanonicalJSON()
	b := ident.NewAddressWriter()
	b.MarshalString("change:v1")
	b.MarshalString(string(c.Type))
	b.MarshalString(string(c.ItemType))
	b.MarshalString(c.ItemID)
	b.MarshalBytes(previous)
	b.MarshalBytes(next)
	b.MarshalStringMap(c.Metadata)
	return b.Identity()
}

// Changes is an ordered sequence of Change. Order is semantically
// significant: later changes to the same item win.
type Changes []Change

func (cs Changes) Identity() []byte {
	b := ident.NewAddressWriter()
	entities := make([]ident.Identifiable, len(cs))
	for i := range cs {
		entities[i] = cs[i]
	}
	b.MarshalIdentifiableSlice(entities)
	return b.Identity()
}
