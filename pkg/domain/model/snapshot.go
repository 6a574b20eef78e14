package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// OrgsPage is one page of the group organization listing. Base carries the
// response fields other than the orgs list (group name and anything else the
// API returns alongside it).
type OrgsPage struct {
	Name string
	Orgs []Organization
	Base map[string]any
}

// DecodeOrgsPage parses a group listing response body
func DecodeOrgsPage(data []byte) (*OrgsPage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, goerr.Wrap(err, "organization listing is not a JSON object", goerr.T(ErrTagSchema))
	}

	page := &OrgsPage{
		Base: make(map[string]any, len(fields)),
	}
	for key, raw := range fields {
		if key == "orgs" {
			if err := json.Unmarshal(raw, &page.Orgs); err != nil {
				return nil, goerr.Wrap(err, "orgs field is not a list of organizations", goerr.T(ErrTagSchema))
			}
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, goerr.Wrap(err, "failed to decode listing field", goerr.T(ErrTagSchema), goerr.V("field", key))
		}
		page.Base[key] = value
	}
	if name, ok := page.Base["name"].(string); ok {
		page.Name = name
	}
	return page, nil
}

// SnapshotMetadata describes how and when a snapshot was collected
type SnapshotMetadata struct {
	GroupID            types.GroupID `json:"group_id"`
	GroupName          string        `json:"group_name"`
	Timestamp          time.Time     `json:"timestamp"`
	TotalOrganizations int           `json:"total_organizations"`
	OriginalCount      int           `json:"original_count"`
	ExcludedCount      int           `json:"excluded_count"`
	FilterCriteria     string        `json:"filter_criteria"`
	APIEndpoint        string        `json:"api_endpoint"`
}

// Snapshot is the durable artifact handed from the collector to the
// applicator. Organizations holds the kept set, Excluded the organizations
// filtered out at collection time, and Base the non-organization fields of
// the first listing page. A snapshot is written once and never mutated.
type Snapshot struct {
	Metadata      SnapshotMetadata
	Base          map[string]any
	Organizations []Organization
	Excluded      []Organization
}

// NewSnapshot builds a snapshot from a completed collection run
func NewSnapshot(groupID types.GroupID, groupName string, base map[string]any, kept, excluded []Organization, endpoint string) *Snapshot {
	return &Snapshot{
		Metadata: SnapshotMetadata{
			GroupID:            groupID,
			GroupName:          groupName,
			Timestamp:          time.Now(),
			TotalOrganizations: len(kept),
			OriginalCount:      len(kept) + len(excluded),
			ExcludedCount:      len(excluded),
			FilterCriteria:     fmt.Sprintf("Excluded organization named '%s'", DefaultOrgName(groupName)),
			APIEndpoint:        endpoint,
		},
		Base:          base,
		Organizations: kept,
		Excluded:      excluded,
	}
}

// Kept returns the effective organization list: every organization whose id
// appears in Excluded is removed again here, so a hand-edited snapshot cannot
// smuggle an excluded organization back in. Organizations without an id never
// match an exclusion entry.
func (s *Snapshot) Kept() []Organization {
	if len(s.Excluded) == 0 {
		return s.Organizations
	}

	excludedIDs := make(map[types.OrgID]bool, len(s.Excluded))
	for _, org := range s.Excluded {
		if org.ID != "" {
			excludedIDs[org.ID] = true
		}
	}

	kept := make([]Organization, 0, len(s.Organizations))
	for _, org := range s.Organizations {
		if !excludedIDs[org.ID] {
			kept = append(kept, org)
		}
	}
	return kept
}

// MarshalJSON writes the enriched snapshot shape: metadata, the first page's
// base fields with the kept orgs list folded back in, and the excluded set
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	organizations := make(map[string]any, len(s.Base)+1)
	for k, v := range s.Base {
		organizations[k] = v
	}
	orgs := s.Organizations
	if orgs == nil {
		orgs = []Organization{}
	}
	organizations["orgs"] = orgs

	excluded := s.Excluded
	if excluded == nil {
		excluded = []Organization{}
	}

	return json.Marshal(map[string]any{
		"metadata":               s.Metadata,
		"organizations":          organizations,
		"excluded_organizations": excluded,
	})
}

// DecodeSnapshot normalizes any of the three historical snapshot shapes into
// one Snapshot:
//
//	(a) {"organizations": {"orgs": [...], ...}, "excluded_organizations": [...]}
//	(b) {"orgs": [...]} with optional "excluded_organizations"
//	(c) a bare list of organizations
//
// Anything else is rejected with a schema error naming the structure found.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, goerr.New("snapshot file is empty", goerr.T(ErrTagSchema))
	}

	switch trimmed[0] {
	case '[':
		return decodeOrgListSnapshot(data)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, goerr.Wrap(err, "snapshot is not valid JSON", goerr.T(ErrTagSchema))
		}
		if raw, ok := fields["organizations"]; ok {
			return decodeEnvelopedSnapshot(fields, raw)
		}
		if _, ok := fields["orgs"]; ok {
			return decodeFlatSnapshot(fields)
		}
		return nil, goerr.New("unsupported snapshot structure: expected an 'organizations' or 'orgs' key",
			goerr.T(ErrTagSchema),
			goerr.V("keys", sortedKeys(fields)))
	default:
		return nil, goerr.New("unsupported snapshot structure: expected a JSON object or list",
			goerr.T(ErrTagSchema))
	}
}

// decodeEnvelopedSnapshot handles the metadata-enriched shape written by the
// collector, where organizations is the listing object with the orgs folded in
func decodeEnvelopedSnapshot(fields map[string]json.RawMessage, organizations json.RawMessage) (*Snapshot, error) {
	page, err := DecodeOrgsPage(organizations)
	if err != nil {
		return nil, goerr.Wrap(err, "unsupported snapshot structure in organizations field")
	}

	snap := &Snapshot{
		Base:          page.Base,
		Organizations: page.Orgs,
	}
	if raw, ok := fields["metadata"]; ok {
		if err := json.Unmarshal(raw, &snap.Metadata); err != nil {
			return nil, goerr.Wrap(err, "failed to decode snapshot metadata", goerr.T(ErrTagSchema))
		}
	}
	if err := decodeExcluded(fields, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// decodeFlatSnapshot handles a raw listing response saved as-is
func decodeFlatSnapshot(fields map[string]json.RawMessage) (*Snapshot, error) {
	var orgs []Organization
	if err := json.Unmarshal(fields["orgs"], &orgs); err != nil {
		return nil, goerr.Wrap(err, "orgs field is not a list of organizations", goerr.T(ErrTagSchema))
	}

	snap := &Snapshot{Organizations: orgs}
	if err := decodeExcluded(fields, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// decodeOrgListSnapshot handles a bare organization list with no exclusions
func decodeOrgListSnapshot(data []byte) (*Snapshot, error) {
	var orgs []Organization
	if err := json.Unmarshal(data, &orgs); err != nil {
		return nil, goerr.Wrap(err, "unsupported snapshot structure: not a list of organizations",
			goerr.T(ErrTagSchema))
	}
	return &Snapshot{Organizations: orgs}, nil
}

func decodeExcluded(fields map[string]json.RawMessage, snap *Snapshot) error {
	raw, ok := fields["excluded_organizations"]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, &snap.Excluded); err != nil {
		return goerr.Wrap(err, "excluded_organizations is not a list of organizations", goerr.T(ErrTagSchema))
	}
	return nil
}

func sortedKeys(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
