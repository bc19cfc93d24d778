package mirror

import "notisync/pkg/utils"

// TableNamingPolicy computes destination table names from owner identity and
// collection name in one place, instead of ad hoc at call sites.
type TableNamingPolicy struct {
	Prefix string
}

func NewTableNamingPolicy() TableNamingPolicy {
	return TableNamingPolicy{Prefix: "notion"}
}

// TableName returns the mirror table for one owner's collection. The owner
// fragment keeps tables of different tenants apart even when collection
// names collide.
func (p TableNamingPolicy) TableName(ownerID, collectionName string) string {
	collection := utils.SanitizeIdentifier(collectionName)
	if collection == "" {
		collection = "collection"
	}

	owner := utils.SanitizeIdentifier(ownerID)
	if len(owner) > 8 {
		owner = owner[:8]
	}
	if owner == "" {
		owner = "shared"
	}

	return p.Prefix + "_" + collection + "_" + owner
}
