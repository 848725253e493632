// Package catalog holds the static list of access modules and tiers, plus the
// per-environment switches that decide which modules are enforced.
package catalog

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"accessgate/internal/access/models"
	"accessgate/internal/platform/config"
)

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	modules     map[models.ModuleName]models.AccessModule
	order       []models.ModuleName
	tiers       []models.AccessTier
	disabled    map[models.ModuleName]bool
	renewalDays map[models.ModuleName]int
	currentDUCC []int
}

type Option func(*Catalog)

// WithDisabledModules marks modules as not enforced in this environment.
// A disabled module counts as satisfied for tier evaluation.
func WithDisabledModules(names ...models.ModuleName) Option {
	return func(c *Catalog) {
		for _, n := range names {
			c.disabled[n] = true
		}
	}
}

// WithRenewalDays makes a module expire renewalDays after completion.
func WithRenewalDays(name models.ModuleName, days int) Option {
	return func(c *Catalog) {
		if days > 0 {
			c.renewalDays[name] = days
		}
	}
}

// WithCurrentCodeOfConductVersions sets the DUCC versions that still count as
// signed.
func WithCurrentCodeOfConductVersions(versions ...int) Option {
	return func(c *Catalog) {
		c.currentDUCC = slices.Clone(versions)
	}
}

// New validates the definitions and builds a Catalog.
func New(modules []models.AccessModule, tiers []models.AccessTier, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		modules:     make(map[models.ModuleName]models.AccessModule, len(modules)),
		disabled:    make(map[models.ModuleName]bool),
		renewalDays: make(map[models.ModuleName]int),
	}
	for _, m := range modules {
		if !m.Name.IsValid() {
			return nil, fmt.Errorf("unknown module %q", m.Name)
		}
		if !m.Evaluator.IsValid() {
			return nil, fmt.Errorf("module %s: unknown evaluator %q", m.Name, m.Evaluator)
		}
		if !m.Kind.IsValid() {
			return nil, fmt.Errorf("module %s: unknown kind %q", m.Name, m.Kind)
		}
		if _, dup := c.modules[m.Name]; dup {
			return nil, fmt.Errorf("duplicate module %s", m.Name)
		}
		c.modules[m.Name] = m
		c.order = append(c.order, m.Name)
	}

	seenTiers := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		if t.ShortName == "" {
			return nil, fmt.Errorf("tier short name is required")
		}
		if seenTiers[t.ShortName] {
			return nil, fmt.Errorf("duplicate tier %s", t.ShortName)
		}
		seenTiers[t.ShortName] = true
		for _, req := range t.RequiredModules {
			if _, ok := c.modules[req]; !ok {
				return nil, fmt.Errorf("tier %s requires undefined module %s", t.ShortName, req)
			}
		}
		t.RequiredModules = slices.Clone(t.RequiredModules)
		c.tiers = append(c.tiers, t)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromConfig builds the catalog for an environment: definitions come from
// cfg.CatalogPath when set, otherwise from Default.
func FromConfig(cfg config.AccessConfig) (*Catalog, error) {
	modules, tiers := DefaultModules(), DefaultTiers()
	if cfg.CatalogPath != "" {
		var err error
		modules, tiers, err = LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
	}
	return New(modules, tiers, EnvironmentOptions(cfg)...)
}

// EnvironmentOptions translates the environment switches into catalog options.
// IDENTITY is enforced iff at least one RAS login is.
func EnvironmentOptions(cfg config.AccessConfig) []Option {
	var disabled []models.ModuleName
	if !cfg.ComplianceTrainingEnabled {
		disabled = append(disabled, models.ModuleComplianceTraining, models.ModuleCTComplianceTraining)
	}
	if !cfg.EraCommonsEnabled {
		disabled = append(disabled, models.ModuleEraCommons)
	}
	if !cfg.RasLoginGovEnabled {
		disabled = append(disabled, models.ModuleRasLoginGov)
	}
	if !cfg.RasIDMeEnabled {
		disabled = append(disabled, models.ModuleRasIDMe)
	}
	if !cfg.RasLoginGovEnabled && !cfg.RasIDMeEnabled {
		disabled = append(disabled, models.ModuleIdentity)
	}

	opts := []Option{
		WithDisabledModules(disabled...),
		WithCurrentCodeOfConductVersions(cfg.CurrentDUCCVersions...),
	}
	for name, days := range cfg.RenewalDays {
		opts = append(opts, WithRenewalDays(models.ModuleName(name), days))
	}
	return opts
}

// Module returns the catalog entry for name.
func (c *Catalog) Module(name models.ModuleName) (models.AccessModule, bool) {
	m, ok := c.modules[name]
	return m, ok
}

// Modules returns every module in catalog order.
func (c *Catalog) Modules() []models.AccessModule {
	out := make([]models.AccessModule, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.modules[n])
	}
	return out
}

// ModulesFor returns the modules verified by the given evaluator.
func (c *Catalog) ModulesFor(key models.EvaluatorKey) []models.ModuleName {
	var out []models.ModuleName
	for _, n := range c.order {
		if c.modules[n].Evaluator == key {
			out = append(out, n)
		}
	}
	return out
}

func (c *Catalog) Tiers() []models.AccessTier {
	out := make([]models.AccessTier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

func (c *Catalog) Tier(shortName string) (models.AccessTier, bool) {
	for _, t := range c.tiers {
		if t.ShortName == shortName {
			return t, true
		}
	}
	return models.AccessTier{}, false
}

// IsEnabled reports whether the module is enforced in this environment.
func (c *Catalog) IsEnabled(name models.ModuleName) bool {
	_, known := c.modules[name]
	return known && !c.disabled[name]
}

// RenewalDays returns the renewal period of an expirable module.
func (c *Catalog) RenewalDays(name models.ModuleName) (int, bool) {
	d, ok := c.renewalDays[name]
	return d, ok
}

// IsCurrentCodeOfConductVersion reports whether a signed DUCC version is
// still accepted.
func (c *Catalog) IsCurrentCodeOfConductVersion(version int) bool {
	return slices.Contains(c.currentDUCC, version)
}

// ExpiresAt returns when a completed, non-bypassed expirable module lapses.
func (c *Catalog) ExpiresAt(state *models.UserAccessModule) *time.Time {
	if state == nil || state.CompletionTime == nil || state.BypassTime != nil {
		return nil
	}
	days, ok := c.renewalDays[state.Module]
	if !ok {
		return nil
	}
	t := state.CompletionTime.AddDate(0, 0, days)
	return &t
}

// Evaluate computes the compliance of one module. state may be nil when the
// user has no record; signedDUCC is the user's signed code of conduct
// version, if any.
func (c *Catalog) Evaluate(name models.ModuleName, state *models.UserAccessModule, signedDUCC *int, now time.Time) models.ModuleCompliance {
	mod := c.modules[name]
	res := models.ModuleCompliance{
		Module:    mod,
		Enabled:   c.IsEnabled(name),
		State:     state,
		Satisfied: state.IsSatisfied(),
		ExpiresAt: c.ExpiresAt(state),
	}
	if res.ExpiresAt != nil && !res.ExpiresAt.After(now) {
		res.Expired = true
	}

	switch {
	case !res.Enabled:
		res.Compliant = true
	case !res.Satisfied || res.Expired:
		res.Compliant = false
	case name == models.ModuleCodeOfConduct && !state.IsBypassed():
		res.Compliant = signedDUCC != nil && c.IsCurrentCodeOfConductVersion(*signedDUCC)
	default:
		res.Compliant = true
	}
	return res
}

type fileModule struct {
	Name        string `yaml:"name"`
	Evaluator   string `yaml:"evaluator"`
	DisplayName string `yaml:"display_name"`
	Kind        string `yaml:"kind"`
	Bypassable  bool   `yaml:"bypassable"`
}

type fileTier struct {
	ShortName       string   `yaml:"short_name"`
	DisplayName     string   `yaml:"display_name"`
	AuthDomainID    string   `yaml:"auth_domain_id"`
	DataPerimeterID string   `yaml:"data_perimeter_id"`
	RequiredModules []string `yaml:"required_modules"`
}

type fileCatalog struct {
	Modules []fileModule `yaml:"modules"`
	Tiers   []fileTier   `yaml:"tiers"`
}

// LoadFile reads module and tier definitions from a YAML file.
func LoadFile(path string) ([]models.AccessModule, []models.AccessTier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML catalog definitions. Validation happens in New.
func Parse(raw []byte) ([]models.AccessModule, []models.AccessTier, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}
	modules := make([]models.AccessModule, 0, len(fc.Modules))
	for _, m := range fc.Modules {
		modules = append(modules, models.AccessModule{
			Name:        models.ModuleName(m.Name),
			Evaluator:   models.EvaluatorKey(m.Evaluator),
			DisplayName: m.DisplayName,
			Kind:        models.ModuleKind(m.Kind),
			Bypassable:  m.Bypassable,
		})
	}
	tiers := make([]models.AccessTier, 0, len(fc.Tiers))
	for _, t := range fc.Tiers {
		required := make([]models.ModuleName, 0, len(t.RequiredModules))
		for _, r := range t.RequiredModules {
			required = append(required, models.ModuleName(r))
		}
		tiers = append(tiers, models.AccessTier{
			ShortName:       t.ShortName,
			DisplayName:     t.DisplayName,
			AuthDomainID:    t.AuthDomainID,
			DataPerimeterID: t.DataPerimeterID,
			RequiredModules: required,
		})
	}
	return modules, tiers, nil
}
