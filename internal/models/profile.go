// internal/models/profile.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies which side of the marketplace a profile belongs to.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

var ErrInvalidProfile = errors.New("INVALID_PROFILE")

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleBrand || r == RoleInfluencer
}

// Opposite returns the role a viewer of r is matched against.
func (r Role) Opposite() Role {
	switch r {
	case RoleBrand:
		return RoleInfluencer
	case RoleInfluencer:
		return RoleBrand
	}
	return ""
}

// ParseRole accepts the lower-case role names used on the wire.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type InfluencerMetrics struct {
	FollowerCount  int64   `json:"followerCount" yaml:"followerCount"`
	EngagementRate float64 `json:"engagementRate" yaml:"engagementRate"` // percent
}

type BudgetRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

type BrandMetrics struct {
	Budget BudgetRange `json:"budgetRange" yaml:"budgetRange"`
}

// Profile is a brand or influencer candidate. CategoryTags holds the niche
// list for influencers and the single industry for brands. A nil metrics
// pointer means the facts were never collected.
type Profile struct {
	ID           string             `json:"id" yaml:"id"`
	Role         Role               `json:"role" yaml:"role"`
	DisplayName  string             `json:"displayName" yaml:"displayName"`
	CategoryTags []string           `json:"categoryTags" yaml:"categoryTags"`
	Rating       float64            `json:"rating" yaml:"rating"`
	Location     string             `json:"location,omitempty" yaml:"location"`
	Bio          string             `json:"bio,omitempty" yaml:"bio"`
	Influencer   *InfluencerMetrics `json:"influencer,omitempty" yaml:"influencer"`
	Brand        *BrandMetrics      `json:"brand,omitempty" yaml:"brand"`
	CreatedAt    time.Time          `json:"createdAt,omitempty" yaml:"createdAt"`
}

// FollowerCount returns 0 when influencer metrics are absent.
func (p Profile) FollowerCount() int64 {
	if p.Influencer == nil {
		return 0
	}
	return p.Influencer.FollowerCount
}

// EngagementRate returns 0 when influencer metrics are absent.
func (p Profile) EngagementRate() float64 {
	if p.Influencer == nil {
		return 0
	}
	return p.Influencer.EngagementRate
}

// Budget returns a zero range when brand metrics are absent.
func (p Profile) Budget() BudgetRange {
	if p.Brand == nil {
		return BudgetRange{}
	}
	return p.Brand.Budget
}

// PrimaryCategory is the dominant niche or the industry, "" if untagged.
func (p Profile) PrimaryCategory() string {
	if len(p.CategoryTags) == 0 {
		return ""
	}
	return p.CategoryTags[0]
}

// HasCategory reports exact, case-sensitive membership of c in the tags.
func (p Profile) HasCategory(c string) bool {
	for _, t := range p.CategoryTags {
		if t == c {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Profile) Clone() Profile {
	out := p
	if p.CategoryTags != nil {
		out.CategoryTags = append([]string(nil), p.CategoryTags...)
	}
	if p.Influencer != nil {
		m := *p.Influencer
		out.Influencer = &m
	}
	if p.Brand != nil {
		m := *p.Brand
		out.Brand = &m
	}
	return out
}

// Validate checks the invariants a registered profile must hold.
func (p Profile) Validate() error {
	if !p.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidProfile, p.Role)
	}
	if p.DisplayName == "" {
		return fmt.Errorf("%w: displayName is required", ErrInvalidProfile)
	}
	if len(p.CategoryTags) == 0 {
		return fmt.Errorf("%w: at least one category tag is required", ErrInvalidProfile)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: rating %.2f outside [0,5]", ErrInvalidProfile, p.Rating)
	}
	if p.Influencer != nil && p.Influencer.FollowerCount < 0 {
		return fmt.Errorf("%w: negative follower count", ErrInvalidProfile)
	}
	if p.Brand != nil {
		b := p.Brand.Budget
		if b.Min < 0 || b.Max < 0 {
			return fmt.Errorf("%w: budget must be non-negative", ErrInvalidProfile)
		}
		if b.Min > b.Max {
			return fmt.Errorf("%w: budget min %.0f > max %.0f", ErrInvalidProfile, b.Min, b.Max)
		}
	}
	return nil
}
