package statutory

import (
	"fmt"
	"sort"
	"strings"
)

type Contribution string

const (
	ContributionNSSF        Contribution = "NSSF"
	ContributionHousingLevy Contribution = "HOUSING_LEVY"
)

const (
	PolicyCurrent        = "current"
	PolicyLegacyCasual   = "legacy-casual"
	PolicyContractExempt = "contract-exempt"
)

// Exemption removes one contribution for one employment type.
type Exemption struct {
	EmploymentType EmploymentType `json:"employmentType"`
	Contribution   Contribution   `json:"contribution"`
	Reason         string         `json:"reason"`
}

type exemptionKey struct {
	employmentType EmploymentType
	contribution   Contribution
}

// ExemptionPolicy is a lookup table of exemptions keyed by employment type
// and contribution. The zero value exempts nothing.
type ExemptionPolicy struct {
	name  string
	rules map[exemptionKey]string
}

func NewExemptionPolicy(name string, exemptions ...Exemption) ExemptionPolicy {
	rules := make(map[exemptionKey]string, len(exemptions))
	for _, e := range exemptions {
		rules[exemptionKey{e.EmploymentType, e.Contribution}] = e.Reason
	}
	return ExemptionPolicy{name: name, rules: rules}
}

func (p ExemptionPolicy) Name() string {
	if p.name == "" {
		return PolicyCurrent
	}
	return p.name
}

// Exempt reports whether the contribution is waived and why.
func (p ExemptionPolicy) Exempt(t EmploymentType, c Contribution) (string, bool) {
	reason, ok := p.rules[exemptionKey{t, c}]
	return reason, ok
}

func (p ExemptionPolicy) Exemptions() []Exemption {
	out := make([]Exemption, 0, len(p.rules))
	for key, reason := range p.rules {
		out = append(out, Exemption{EmploymentType: key.employmentType, Contribution: key.contribution, Reason: reason})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmploymentType == out[j].EmploymentType {
			return out[i].Contribution < out[j].Contribution
		}
		return out[i].EmploymentType < out[j].EmploymentType
	})
	return out
}

var exemptionPolicies = map[string]func() ExemptionPolicy{
	PolicyCurrent: func() ExemptionPolicy {
		return NewExemptionPolicy(PolicyCurrent)
	},
	PolicyLegacyCasual: func() ExemptionPolicy {
		return NewExemptionPolicy(PolicyLegacyCasual,
			Exemption{EmploymentCasual, ContributionNSSF, "Casual workers are exempt from NSSF contributions"},
		)
	},
	PolicyContractExempt: func() ExemptionPolicy {
		return NewExemptionPolicy(PolicyContractExempt,
			Exemption{EmploymentContract, ContributionNSSF, "Contract employees are exempt from NSSF contributions"},
			Exemption{EmploymentContract, ContributionHousingLevy, "Contract employees are exempt from Housing Levy contributions"},
		)
	},
}

// ExemptionPolicyByName resolves one of the named presets.
func ExemptionPolicyByName(name string) (ExemptionPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = PolicyCurrent
	}
	build, ok := exemptionPolicies[normalized]
	if !ok {
		return ExemptionPolicy{}, fmt.Errorf("unknown exemption policy %q", name)
	}
	return build(), nil
}

func ExemptionPolicyNames() []string {
	names := make([]string, 0, len(exemptionPolicies))
	for name := range exemptionPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
