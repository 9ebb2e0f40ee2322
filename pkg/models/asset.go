package models

import "time"

const AssetKindScreenshot = "screenshot"

type Asset struct {
	ID         string    `json:"id"`
	ProspectID string    `json:"prospect_id"`
	Kind       string    `json:"kind"`
	Label      string    `json:"label"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}
