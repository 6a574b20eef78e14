package types

import (
	"github.com/google/uuid"
)

// GroupID represents a Snyk group identifier
type GroupID string

// String returns the string representation
func (id GroupID) String() string {
	return string(id)
}

// OrgID represents a Snyk organization identifier
type OrgID string

// String returns the string representation
func (id OrgID) String() string {
	return string(id)
}

// TenantID represents a Snyk tenant identifier
type TenantID string

// String returns the string representation
func (id TenantID) String() string {
	return string(id)
}

// ConnectionID represents a Universal Broker connection identifier
type ConnectionID string

// String returns the string representation
func (id ConnectionID) String() string {
	return string(id)
}

// IntegrationID represents the integration bound to a broker connection
type IntegrationID string

// String returns the string representation
func (id IntegrationID) String() string {
	return string(id)
}

// RunID represents a single connection run identifier
type RunID string

// String returns the string representation
func (id RunID) String() string {
	return string(id)
}

// NewRunID creates a new RunID
func NewRunID() RunID {
	return RunID(uuid.New().String())
}
