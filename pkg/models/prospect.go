package models

import "time"

type Prospect struct {
	ID               string    `json:"id"`
	CompanyName      string    `json:"company_name"`
	CompanySlug      string    `json:"company_slug"`
	OwnerName        string    `json:"owner_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Website          string    `json:"website"`
	Instagram        string    `json:"instagram"`
	Facebook         string    `json:"facebook"`
	GMBURL           string    `json:"gmb_url"`
	City             string    `json:"city"`
	TopOpportunities string    `json:"top_opportunities"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProspectPatch carries a partial update. Nil fields are left untouched.
type ProspectPatch struct {
	CompanyName      *string `json:"company_name"`
	CompanySlug      *string `json:"company_slug"`
	OwnerName        *string `json:"owner_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	Website          *string `json:"website"`
	Instagram        *string `json:"instagram"`
	Facebook         *string `json:"facebook"`
	GMBURL           *string `json:"gmb_url"`
	City             *string `json:"city"`
	TopOpportunities *string `json:"top_opportunities"`
}

// Empty reports whether the patch changes nothing.
func (p ProspectPatch) Empty() bool {
	return p.CompanyName == nil && p.CompanySlug == nil && p.OwnerName == nil &&
		p.Email == nil && p.Phone == nil && p.Website == nil && p.Instagram == nil &&
		p.Facebook == nil && p.GMBURL == nil && p.City == nil && p.TopOpportunities == nil
}
