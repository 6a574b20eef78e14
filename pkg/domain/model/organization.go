package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// Organization represents one Snyk organization as returned by the group
// listing API. Raw holds the full upstream object so fields this tool does
// not interpret survive a snapshot round trip.
type Organization struct {
	ID   types.OrgID
	Name string
	Raw  map[string]any
}

// NewOrganization creates an organization record with the given identifier and name
func NewOrganization(id types.OrgID, name string) Organization {
	return Organization{ID: id, Name: name}
}

// HasID reports whether the organization carries a usable identifier.
// Organizations without an id cannot be connected and are skipped.
func (o Organization) HasID() bool {
	return o.ID != ""
}

// UnmarshalJSON decodes an organization object, capturing id and name and
// retaining every upstream field in Raw
func (o *Organization) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return goerr.Wrap(err, "organization is not a JSON object")
	}

	o.Raw = m
	o.ID = ""
	o.Name = ""
	if id, ok := m["id"].(string); ok {
		o.ID = types.OrgID(id)
	}
	if name, ok := m["name"].(string); ok {
		o.Name = name
	}
	return nil
}

// MarshalJSON emits the retained upstream object with id and name kept in sync
func (o Organization) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Raw)+2)
	for k, v := range o.Raw {
		m[k] = v
	}
	if o.ID != "" {
		m["id"] = o.ID.String()
	}
	if o.Name != "" {
		m["name"] = o.Name
	}
	return json.Marshal(m)
}

// DefaultOrgName returns the name of the platform-generated default
// organization for a group
func DefaultOrgName(groupName string) string {
	return groupName + "-default"
}

// IsGroupDefault reports whether this organization is the platform-generated
// default organization of the named group. The comparison is case-insensitive.
func (o Organization) IsGroupDefault(groupName string) bool {
	return strings.EqualFold(o.Name, DefaultOrgName(groupName))
}

// ExcludeDefaultOrg partitions organizations into kept and excluded. Every
// organization whose name matches the group default is excluded, so duplicate
// matches all land in excluded.
func ExcludeDefaultOrg(orgs []Organization, groupName string) (kept, excluded []Organization) {
	for _, org := range orgs {
		if org.IsGroupDefault(groupName) {
			excluded = append(excluded, org)
		} else {
			kept = append(kept, org)
		}
	}
	return kept, excluded
}
