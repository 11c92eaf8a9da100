// Package tags computes tag deltas between lifecycle events and injects the
// provenance tags every resource created by this system must carry. The same
// reconciliation is applied to EC2 key pairs and Secrets Manager secrets.
package tags

import "maps"

// Provenance tag keys. OwnershipTag marks a resource as created by this
// custom resource; IAM policies scope mutation permissions to it, so it must
// be present from the moment a resource exists.
const (
	OwnershipTag      = "CreatedByCfnCustomResource"
	OwnershipTagValue = "CFN::Resource::Custom::EC2-Key-Pair"

	StackIDTag   = "cfn:stack-id"
	StackNameTag = "cfn:stack-name"
	LogicalIDTag = "cfn:logical-id"
)

// Provenance identifies the stack and logical resource a tag set belongs to.
type Provenance struct {
	StackID   string
	StackName string
	LogicalID string
}

// Apply merges the user tags with the provenance tags into a fresh map.
// Provenance tags win on key collision.
func (p Provenance) Apply(userTags map[string]string) map[string]string {
	merged := make(map[string]string, len(userTags)+4)
	maps.Copy(merged, userTags)
	merged[OwnershipTag] = OwnershipTagValue
	merged[StackIDTag] = p.StackID
	merged[StackNameTag] = p.StackName
	merged[LogicalIDTag] = p.LogicalID
	return merged
}

// Reconcile computes the delta that turns oldTags into newTags.
//
// add contains every entry of newTags whose value differs from (or is absent
// in) oldTags; removeKeys contains every key of oldTags absent from newTags.
// Structurally identical maps short-circuit to empty outputs so callers can
// skip the remote tagging calls entirely.
//
// Provenance tags are expected to be present and identical on both sides of
// an Update (stack id, stack name and logical id do not change), so they
// never show up in either output and are never removed.
func Reconcile(oldTags, newTags map[string]string) (add map[string]string, removeKeys []string) {
	if maps.Equal(oldTags, newTags) {
		return nil, nil
	}

	add = make(map[string]string)
	for k, v := range newTags {
		if old, ok := oldTags[k]; !ok || old != v {
			add[k] = v
		}
	}
	for k := range oldTags {
		if _, ok := newTags[k]; !ok {
			removeKeys = append(removeKeys, k)
		}
	}
	if len(add) == 0 {
		add = nil
	}
	return add, removeKeys
}
