package models

import (
	"strings"
	"time"

	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/email"
	pkgstrings "accessgate/pkg/platform/strings"
)

// RequirementKind selects how a tier's membership rule is checked.
type RequirementKind string

const (
	RequirementDomainMatch      RequirementKind = "DOMAIN_MATCH"
	RequirementAddressListMatch RequirementKind = "ADDRESS_LIST_MATCH"
)

func (k RequirementKind) IsValid() bool {
	return k == RequirementDomainMatch || k == RequirementAddressListMatch
}

// Institution owns the email domains and addresses its members use.
type Institution struct {
	ID          id.InstitutionID `json:"id"`
	ShortName   string           `json:"short_name"`
	DisplayName string           `json:"display_name"`
	// BypassCreditsExpiration exempts affiliated users' initial credits from
	// expiry.
	BypassCreditsExpiration bool      `json:"bypass_credits_expiration"`
	CreatedAt               time.Time `json:"created_at"`
}

func NewInstitution(instID id.InstitutionID, shortName, displayName string, bypassCredits bool, now time.Time) (*Institution, error) {
	shortName = strings.TrimSpace(shortName)
	if shortName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution short name cannot be empty")
	}
	if len(shortName) > 80 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution short name must be 80 characters or less")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = shortName
	}
	return &Institution{
		ID:                      instID,
		ShortName:               shortName,
		DisplayName:             displayName,
		BypassCreditsExpiration: bypassCredits,
		CreatedAt:               now,
	}, nil
}

// TierRequirement is the membership rule of one institution for one tier.
type TierRequirement struct {
	InstitutionID id.InstitutionID `json:"institution_id"`
	Tier          string           `json:"tier"`
	Kind          RequirementKind  `json:"kind"`
	Domains       []string         `json:"domains"`
	Addresses     []string         `json:"addresses"`
}

// NewTierRequirement normalizes the lists and checks they fit the kind.
func NewTierRequirement(instID id.InstitutionID, tier string, kind RequirementKind, domains, addresses []string) (*TierRequirement, error) {
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown requirement kind: "+string(kind))
	}
	req := &TierRequirement{
		InstitutionID: instID,
		Tier:          tier,
		Kind:          kind,
		Domains:       pkgstrings.NormalizeDomains(domains),
		Addresses:     pkgstrings.DedupeAndTrimLower(addresses),
	}
	if req.Domains == nil {
		req.Domains = []string{}
	}
	if req.Addresses == nil {
		req.Addresses = []string{}
	}
	for _, a := range req.Addresses {
		if _, ok := email.Normalize(a); !ok {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid address in list: "+a)
		}
	}
	switch kind {
	case RequirementDomainMatch:
		if len(req.Domains) == 0 {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "domain match requires at least one domain")
		}
	case RequirementAddressListMatch:
		if len(req.Addresses) == 0 {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "address list match requires at least one address")
		}
	}
	return req, nil
}

// Affiliation is a user's verified membership of an institution. A user has
// at most one.
type Affiliation struct {
	UserID        id.UserID        `json:"user_id"`
	InstitutionID id.InstitutionID `json:"institution_id"`
	Role          string           `json:"role"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
