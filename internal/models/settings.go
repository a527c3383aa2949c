package models

import "time"

// StoreSettingsID is the id of the singleton settings document.
const StoreSettingsID = "store"

// StoreSettings holds branding and the list of valid category labels
type StoreSettings struct {
	HeroImageURL *string   `json:"heroImageUrl,omitempty"`
	LogoImageURL *string   `json:"logoImageUrl,omitempty"`
	Categories   []string  `json:"categories"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BrandingUpdate changes hero and/or logo images; nil fields are left untouched
type BrandingUpdate struct {
	HeroImageURL *string `json:"heroImageUrl"`
	LogoImageURL *string `json:"logoImageUrl"`
}
