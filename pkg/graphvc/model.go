package graphvc

import (
	"time"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/ident"
)

// function/methods receiving the following basic types may assume they passed validation

// BranchID is an identifier for a branch
type BranchID string

// CommitID is a content addressable hash representing a Commit object
type CommitID string

// TagID represents a named tag pointing at a commit
type TagID string

// DefaultBranchID always exists and is the default integration target.
const DefaultBranchID = BranchID("main")

// FirstCommitMsg is the message of the root commit created with the store
const FirstCommitMsg = "Graph initialized"

func (id BranchID) String() string { return string(id) }
func (id CommitID) String() string { return string(id) }
func (id TagID) String() string    { return string(id) }

type CommitParents []CommitID

func (cp CommitParents) Identity() []byte {
	commits := make([]string, len(cp))
	for i, v := range cp {
		commits[i] = string(v)
	}
	b := ident.NewAddressWriter()
	b.MarshalStringSlice(commits)
	return b.Identity()
}

func (cp CommitParents) Contains(commitID CommitID) bool {
	for _, c := range cp {
		if c == commitID {
			return true
		}
	}
	return false
}

func (cp CommitParents) AsStringSlice() []string {
	stringSlice := make([]string, len(cp))
	for i, p := range cp {
		stringSlice[i] = string(p)
	}
	return stringSlice
}

// Commit is an immutable, content-addressed record of a set of graph changes
// plus parent linkage. One parent for a normal commit, two for a merge
// commit, zero for the root commit.
type Commit struct {
	Parents      CommitParents `json:"parents"`
	AuthorID     string        `json:"author_id"`
	AuthorName   string        `json:"author_name"`
	Message      string        `json:"message"`
	CreationDate time.Time     `json:"timestamp"`
	Changes      graph.Changes `json:"changes"`
	Metadata     graph.Metadata `json:"metadata,omitempty"`
}

func NewCommit() Commit {
	return Commit{
		CreationDate: time.Now().UTC().Truncate(time.Second),
	}
}

// Identity is the canonical content of a commit for addressing purposes.
// AuthorName and Metadata are annotations and deliberately excluded: two
// commits with the same logical content hash identically.
func (c Commit) Identity() []byte {
	b := ident.NewAddressWriter()
	b.MarshalString("commit:v1")
	b.MarshalIdentifiable(c.Parents)
	b.MarshalString(c.AuthorID)
	b.MarshalString(c.CreationDate.UTC().Format(time.RFC3339))
	b.MarshalString(c.Message)
	b.MarshalIdentifiable(c.Changes)
	return b.Identity()
}

// CommitRecord holds CommitID with the associated Commit data
type CommitRecord struct {
	CommitID CommitID `json:"commit_hash"`
	*Commit
}

// Branch is a named mutable pointer to a commit (its HEAD)
type Branch struct {
	CommitID      CommitID `json:"head_commit_hash,omitempty"`
	BaseCommitID  CommitID `json:"base_commit,omitempty"`
	CreatedBy     string   `json:"created_by"`
	CreatedByName string   `json:"created_by_name"`
	Description   string   `json:"description,omitempty"`
}

// BranchRecord holds BranchID with the associated Branch data
type BranchRecord struct {
	BranchID BranchID `json:"branch_name"`
	*Branch
}

// Tag is a named immutable pointer to a commit
type Tag struct {
	CommitID CommitID `json:"commit_hash"`
	AuthorID string   `json:"author_id"`
	Message  string   `json:"message,omitempty"`
}

// TagRecord holds TagID with the associated Tag data
type TagRecord struct {
	TagID TagID `json:"tag_name"`
	*Tag
}

// CommitParams are the caller-supplied fields of a new commit
type CommitParams struct {
	AuthorID   string
	AuthorName string
	Message    string
	// Date overrides the commit creation date (Unix epoch seconds)
	Date     *int64
	Changes  graph.Changes
	Metadata graph.Metadata
}

// BranchParams are the caller-supplied fields of a new branch
type BranchParams struct {
	AuthorID    string
	AuthorName  string
	Description string
}

// TagParams are the caller-supplied fields of a new tag
type TagParams struct {
	AuthorID string
	Message  string
}

// BranchStatus reports a branch's divergence from a base branch
type BranchStatus struct {
	Ahead          int
	Behind         int
	CommonAncestor CommitID
}

// GraphDiff is the net set of changes separating two commits, bucketed by
// item type and net effect. Derived, never persisted.
type GraphDiff struct {
	BaseID   CommitID
	TargetID CommitID

	AddedNodes    []graph.Change
	DeletedNodes  []graph.Change
	ModifiedNodes []graph.Change

	AddedRelationships    []graph.Change
	DeletedRelationships  []graph.Change
	ModifiedRelationships []graph.Change
}

// Empty reports whether the diff carries no net change in any category.
func (d *GraphDiff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.DeletedNodes) == 0 && len(d.ModifiedNodes) == 0 &&
		len(d.AddedRelationships) == 0 && len(d.DeletedRelationships) == 0 && len(d.ModifiedRelationships) == 0
}

// Changes flattens the diff back into a single net change sequence, ordered
// deterministically by item type then item id.
func (d *GraphDiff) Changes() graph.Changes {
	out := make(graph.Changes, 0,
		len(d.AddedNodes)+len(d.DeletedNodes)+len(d.ModifiedNodes)+
			len(d.AddedRelationships)+len(d.DeletedRelationships)+len(d.ModifiedRelationships))
	for _, bucket := range [][]graph.Change{
		d.AddedNodes, d.DeletedNodes, d.ModifiedNodes,
		d.AddedRelationships, d.DeletedRelationships, d.ModifiedRelationships,
	} {
		out = append(out, bucket...)
	}
	sortChanges(out)
	return out
}

// MergeStrategy selects how overlapping edits are resolved
type MergeStrategy string

const (
	// MergeStrategyAuto resolves conflicts by preferring the target branch's
	// version. An automatic merge never fails on conflicting edits.
	MergeStrategyAuto MergeStrategy = "auto"
	// MergeStrategyManual surfaces conflicts to the caller without committing.
	MergeStrategyManual MergeStrategy = "manual"
)

func (s MergeStrategy) Validate() error {
	switch s {
	case MergeStrategyAuto, MergeStrategyManual:
		return nil
	default:
		return ErrInvalidMergeStrategy
	}
}

// MergeParams are the caller-supplied fields of a merge attempt
type MergeParams struct {
	AuthorID   string
	AuthorName string
	Message    string
	Strategy   MergeStrategy
	// Resolution maps a conflicting item id to the change chosen for it,
	// completing a merge previously returned with conflicts.
	Resolution map[string]graph.Change
}

// ConflictRecord describes two changes to the same item that cannot be
// auto-merged, or the audit trail of how they were resolved.
type ConflictRecord struct {
	ItemID       string
	ItemType     graph.ItemType
	SourceChange graph.Change
	TargetChange graph.Change
	Reason       string
}

// MergeResult is the outcome of a merge attempt. Conflicts under the auto
// strategy are resolved target-wins and recorded here for audit; under the
// manual strategy they fail the attempt without creating a commit.
type MergeResult struct {
	Success   bool
	Strategy  MergeStrategy
	AttemptID string
	Conflicts []ConflictRecord
	CommitID  CommitID
}
