// Package events fans record changes out to connected websocket clients.
package events

import "time"

const (
	ProspectCreated = "prospect.created"
	ProspectUpdated = "prospect.updated"
	ProspectDeleted = "prospect.deleted"
	AuditPublished  = "audit.published"
	AssetUploaded   = "asset.uploaded"
	AssetDeleted    = "asset.deleted"
)

type Event struct {
	Type       string    `json:"type"`
	ProspectID string    `json:"prospect_id,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	AssetID    string    `json:"asset_id,omitempty"`
	Label      string    `json:"label,omitempty"`
	Score      *int      `json:"score,omitempty"`
	At         time.Time `json:"at"`
}
