package graph_test

import (
	"testing"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/stretchr/testify/require"
)

func TestChange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		change  graph.Change
		wantErr error
	}{
		{
			name: "valid create",
			change: graph.Change{
				Type:     graph.ChangeTypeCreate,
				ItemType: graph.ItemTypeNode,
				ItemID:   "n1",
				NewData:  graph.Properties{"name": "Block"},
			},
		},
		{
			name: "valid update",
			change: graph.Change{
				Type:         graph.ChangeTypeUpdate,
				ItemType:     graph.ItemTypeNode,
				ItemID:       "n1",
				PreviousData: graph.Properties{"name": "Block"},
				NewData:      graph.Properties{"name": "BlockV2"},
			},
		},
		{
			name: "valid delete",
			change: graph.Change{
				Type:         graph.ChangeTypeDelete,
				ItemType:     graph.ItemTypeRelationship,
				ItemID:       "r1",
				PreviousData: graph.Properties{"kind": "contains"},
			},
		},
		{
			name: "missing item id",
			change: graph.Change{
				Type:     graph.ChangeTypeCreate,
				ItemType: graph.ItemTypeNode,
				NewData:  graph.Properties{"name": "Block"},
			},
			wantErr: graph.ErrMissingItemID,
		},
		{
			name: "create with previous data",
			change: graph.Change{
				Type:         graph.ChangeTypeCreate,
				ItemType:     graph.ItemTypeNode,
				ItemID:       "n1",
				PreviousData: graph.Properties{"name": "Old"},
				NewData:      graph.Properties{"name": "Block"},
			},
			wantErr: graph.ErrUnexpectedPrevious,
		},
		{
			name: "delete with new data",
			change: graph.Change{
				Type:         graph.ChangeTypeDelete,
				ItemType:     graph.ItemTypeNode,
				ItemID:       "n1",
				PreviousData: graph.Properties{"name": "Block"},
				NewData:      graph.Properties{"name": "Block"},
			},
			wantErr: graph.ErrUnexpectedNewData,
		},
		{
			name: "update without previous data",
			change: graph.Change{
				Type:     graph.ChangeTypeUpdate,
				ItemType: graph.ItemTypeNode,
				ItemID:   "n1",
				NewData:  graph.Properties{"name": "Block"},
			},
			wantErr: graph.ErrMissingPreviousData,
		},
		{
			name: "unknown change type",
			change: graph.Change{
				Type:     graph.ChangeType("rename"),
				ItemType: graph.ItemTypeNode,
				ItemID:   "n1",
			},
			wantErr: graph.ErrUnknownChangeType,
		},
		{
			name: "unknown item type",
			change: graph.Change{
				Type:     graph.ChangeTypeCreate,
				ItemType: graph.ItemType("edge"),
				ItemID:   "n1",
				NewData:  graph.Properties{"name": "Block"},
			},
			wantErr: graph.ErrUnknownItemType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestChange_Invert(t *testing.T) {
	create := graph.Change{
		Type:     graph.ChangeTypeCreate,
		ItemType: graph.ItemTypeNode,
		ItemID:   "n1",
		NewData:  graph.Properties{"name": "Block"},
	}
	inverted := create.Invert()
	require.Equal(t, graph.ChangeTypeDelete, inverted.Type)
	require.Equal(t, create.NewData, inverted.PreviousData)
	require.Empty(t, inverted.NewData)
	require.NoError(t, inverted.Validate())

	// inverting twice restores the original mutation
	restored := inverted.Invert()
	require.Equal(t, create.Type, restored.Type)
	require.Equal(t, create.NewData, restored.NewData)

	update := graph.Change{
		Type:         graph.ChangeTypeUpdate,
		ItemType:     graph.ItemTypeNode,
		ItemID:       "n1",
		PreviousData: graph.Properties{"name": "Block"},
		NewData:      graph.Properties{"name": "BlockV2"},
	}
	inverted = update.Invert()
	require.Equal(t, graph.ChangeTypeUpdate, inverted.Type)
	require.Equal(t, update.NewData, inverted.PreviousData)
	require.Equal(t, update.PreviousData, inverted.NewData)
}

func TestProperties_Equal(t *testing.T) {
	left := graph.Properties{"name": "Block", "tags": []interface{}{"a", "b"}}
	right := graph.Properties{"tags": []interface{}{"a", "b"}, "name": "Block"}
	require.True(t, left.Equal(right))

	require.False(t, left.Equal(graph.Properties{"name": "Other"}))
	require.True(t, graph.Properties{}.Equal(nil))
}

func TestChange_IdentityStable(t *testing.T) {
	change := graph.Change{
		Type:     graph.ChangeTypeCreate,
		ItemType: graph.ItemTypeNode,
		ItemID:   "n1",
		NewData:  graph.Properties{"name": "Block", "weight": 3.5},
		Metadata: graph.Metadata{"tool": "importer"},
	}
	require.Equal(t, change.Identity(), change.Identity())

	other := change
	other.NewData = graph.Properties{"name": "Block", "weight": 3.6}
	require.NotEqual(t, change.Identity(), other.Identity())
}
