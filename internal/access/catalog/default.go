package catalog

import "accessgate/internal/access/models"

const (
	TierRegistered = "registered"
	TierControlled = "controlled"
)

// DefaultModules is the built-in module list.
func DefaultModules() []models.AccessModule {
	return []models.AccessModule{
		{Name: models.ModuleTwoFactorAuth, Evaluator: models.EvaluatorTwoFactor, DisplayName: "Google 2-Step Verification", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleEraCommons, Evaluator: models.EvaluatorFederalRegistration, DisplayName: "eRA Commons Account", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleComplianceTraining, Evaluator: models.EvaluatorTrainingProvider, DisplayName: "Registered Tier Training", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleCTComplianceTraining, Evaluator: models.EvaluatorTrainingProvider, DisplayName: "Controlled Tier Training", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleCodeOfConduct, Evaluator: models.EvaluatorAcknowledgment, DisplayName: "Data User Code of Conduct", Kind: models.KindInternalAcknowledgment, Bypassable: true},
		{Name: models.ModuleRasLoginGov, Evaluator: models.EvaluatorIdentityLogin, DisplayName: "Verify your identity with Login.gov", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleRasIDMe, Evaluator: models.EvaluatorIdentityLogin, DisplayName: "Verify your identity with ID.me", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleIdentity, Evaluator: models.EvaluatorIdentityLogin, DisplayName: "Identity verification", Kind: models.KindExternalCredential, Bypassable: true},
		{Name: models.ModuleProfileConfirmation, Evaluator: models.EvaluatorAcknowledgment, DisplayName: "Update your profile", Kind: models.KindInternalAcknowledgment},
		{Name: models.ModulePublicationConfirmation, Evaluator: models.EvaluatorAcknowledgment, DisplayName: "Report any publications", Kind: models.KindInternalAcknowledgment},
	}
}

// DefaultTiers is the built-in tier list. Controlled requires everything
// registered does.
func DefaultTiers() []models.AccessTier {
	registered := []models.ModuleName{
		models.ModuleTwoFactorAuth,
		models.ModuleComplianceTraining,
		models.ModuleCodeOfConduct,
		models.ModuleIdentity,
	}
	controlled := append(append([]models.ModuleName{}, registered...),
		models.ModuleCTComplianceTraining,
		models.ModuleEraCommons,
	)
	return []models.AccessTier{
		{
			ShortName:       TierRegistered,
			DisplayName:     "Registered Tier",
			AuthDomainID:    "registered-tier-users",
			DataPerimeterID: "registered-perimeter",
			RequiredModules: registered,
		},
		{
			ShortName:       TierControlled,
			DisplayName:     "Controlled Tier",
			AuthDomainID:    "controlled-tier-users",
			DataPerimeterID: "controlled-perimeter",
			RequiredModules: controlled,
		},
	}
}

// Default builds the built-in catalog with every module enforced.
func Default(opts ...Option) *Catalog {
	c, err := New(DefaultModules(), DefaultTiers(), opts...)
	if err != nil {
		panic("invalid built-in catalog: " + err.Error())
	}
	return c
}
