package eligibility

import (
	"accessgate/internal/access/models"
)

// Decision reasons. Module reasons are ReasonModuleUnsatisfied + ":" + name.
const (
	ReasonUserDisabled          = "user_disabled"
	ReasonInstitutionIneligible = "institution_ineligible"
	ReasonModuleUnsatisfied     = "module_unsatisfied"
)

// Inputs is everything a tier decision depends on.
type Inputs struct {
	Disabled            bool
	InstitutionEligible bool
	// Modules holds the evaluated compliance of each required module.
	Modules []models.ModuleCompliance
}

// Decision is the pure outcome of Decide. Reasons lists every failing
// condition, not just the first.
type Decision struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
}

func (d Decision) Status() models.Status {
	if d.Eligible {
		return models.StatusEnabled
	}
	return models.StatusDisabled
}

// Decide grants a tier iff the user is not disabled, the institution rule
// matches and every required module is compliant.
func Decide(in Inputs) Decision {
	var reasons []string
	if in.Disabled {
		reasons = append(reasons, ReasonUserDisabled)
	}
	if !in.InstitutionEligible {
		reasons = append(reasons, ReasonInstitutionIneligible)
	}
	for _, m := range in.Modules {
		if !m.Compliant {
			reasons = append(reasons, ReasonModuleUnsatisfied+":"+string(m.Module.Name))
		}
	}
	return Decision{Eligible: len(reasons) == 0, Reasons: reasons}
}
