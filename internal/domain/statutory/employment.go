package statutory

import "strings"

type EmploymentType string

const (
	EmploymentPermanent EmploymentType = "PERMANENT"
	EmploymentContract  EmploymentType = "CONTRACT"
	EmploymentCasual    EmploymentType = "CASUAL"
	EmploymentIntern    EmploymentType = "INTERN"
)

var employmentTypes = []EmploymentType{
	EmploymentPermanent,
	EmploymentContract,
	EmploymentCasual,
	EmploymentIntern,
}

// EmploymentTypes lists every recognised employment type.
func EmploymentTypes() []EmploymentType {
	out := make([]EmploymentType, len(employmentTypes))
	copy(out, employmentTypes)
	return out
}

func ParseEmploymentType(raw string) (EmploymentType, error) {
	normalized := EmploymentType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range employmentTypes {
		if normalized == candidate {
			return candidate, nil
		}
	}
	return "", invalidInput("employmentType", "must be one of PERMANENT, CONTRACT, CASUAL, INTERN")
}

func (t EmploymentType) Valid() bool {
	_, err := ParseEmploymentType(string(t))
	return err == nil
}
