package tags_test

import (
	"maps"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/cfn-keypair/internal/tags"
)

func TestReconcileIdenticalMapsYieldsNothing(t *testing.T) {
	t.Parallel()

	a := map[string]string{"env": "dev", "team": "platform"}
	b := map[string]string{"team": "platform", "env": "dev"}

	add, remove := tags.Reconcile(a, b)
	assert.Empty(t, add)
	assert.Empty(t, remove)
}

func TestReconcileEmptyMaps(t *testing.T) {
	t.Parallel()

	add, remove := tags.Reconcile(nil, nil)
	assert.Empty(t, add)
	assert.Empty(t, remove)

	add, remove = tags.Reconcile(map[string]string{}, map[string]string{})
	assert.Empty(t, add)
	assert.Empty(t, remove)
}

func TestReconcileValueChange(t *testing.T) {
	t.Parallel()

	add, remove := tags.Reconcile(
		map[string]string{"env": "dev"},
		map[string]string{"env": "prod"},
	)

	assert.Equal(t, map[string]string{"env": "prod"}, add)
	assert.Empty(t, remove)
}

func TestReconcileAddAndRemove(t *testing.T) {
	t.Parallel()

	add, remove := tags.Reconcile(
		map[string]string{"env": "dev", "owner": "alice"},
		map[string]string{"env": "dev", "team": "platform"},
	)

	assert.Equal(t, map[string]string{"team": "platform"}, add)
	assert.Equal(t, []string{"owner"}, remove)
}

// Applying the computed delta to a map initially tagged old must produce
// exactly new.
func TestReconcileApplyRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		old, new map[string]string
	}{
		{"disjoint", map[string]string{"a": "1"}, map[string]string{"b": "2"}},
		{"overlap", map[string]string{"a": "1", "b": "2"}, map[string]string{"b": "3", "c": "4"}},
		{"shrink", map[string]string{"a": "1", "b": "2", "c": "3"}, map[string]string{"a": "1"}},
		{"grow", map[string]string{}, map[string]string{"a": "1", "b": "2"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			add, remove := tags.Reconcile(tc.old, tc.new)

			result := make(map[string]string)
			maps.Copy(result, tc.old)
			maps.Copy(result, add)
			for _, k := range remove {
				delete(result, k)
			}

			assert.Equal(t, tc.new, result)
		})
	}
}

func TestReconcileProvenanceTagsInvisibleToDiff(t *testing.T) {
	t.Parallel()

	prov := tags.Provenance{
		StackID:   "arn:aws:cloudformation:us-east-1:123456789012:stack/app/abc",
		StackName: "app",
		LogicalID: "KeyPair1",
	}

	old := prov.Apply(map[string]string{"env": "dev"})
	new := prov.Apply(map[string]string{"env": "prod"})

	add, remove := tags.Reconcile(old, new)

	assert.Equal(t, map[string]string{"env": "prod"}, add)
	assert.Empty(t, remove, "provenance tags must never be scheduled for removal")
}

func TestProvenanceApplyInjectsOwnership(t *testing.T) {
	t.Parallel()

	prov := tags.Provenance{StackID: "sid", StackName: "sname", LogicalID: "lid"}
	merged := prov.Apply(map[string]string{"env": "dev"})

	require.Equal(t, tags.OwnershipTagValue, merged[tags.OwnershipTag])
	assert.Equal(t, "sid", merged[tags.StackIDTag])
	assert.Equal(t, "sname", merged[tags.StackNameTag])
	assert.Equal(t, "lid", merged[tags.LogicalIDTag])
	assert.Equal(t, "dev", merged["env"])
}

func TestProvenanceApplyDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	user := map[string]string{"env": "dev"}
	tags.Provenance{}.Apply(user)

	keys := make([]string, 0, len(user))
	for k := range user {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"env"}, keys)
}
