package types

import (
	"fmt"
	"strings"
)

type BloodType string

const (
	BloodTypeONeg  BloodType = "O-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeAPos  BloodType = "A+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeABPos BloodType = "AB+"
)

// AllBloodTypes lists every blood type in canonical order.
var AllBloodTypes = []BloodType{
	BloodTypeONeg,
	BloodTypeOPos,
	BloodTypeANeg,
	BloodTypeAPos,
	BloodTypeBNeg,
	BloodTypeBPos,
	BloodTypeABNeg,
	BloodTypeABPos,
}

func (b BloodType) Valid() bool {
	for _, t := range AllBloodTypes {
		if b == t {
			return true
		}
	}
	return false
}

func ParseBloodType(s string) (BloodType, error) {
	b := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("%w: unknown blood type %q", ErrInvalidRequest, s)
	}
	return b, nil
}

// Urgency is ordered: UrgencyNormal < UrgencyUrgent < UrgencyCritical.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Rank() int {
	switch u {
	case UrgencyNormal:
		return 1
	case UrgencyUrgent:
		return 2
	case UrgencyCritical:
		return 3
	default:
		return 0
	}
}

func (u Urgency) Valid() bool {
	return u.Rank() > 0
}

func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if u == "" {
		return UrgencyNormal, nil
	}
	if !u.Valid() {
		return "", fmt.Errorf("%w: unknown urgency %q", ErrInvalidRequest, s)
	}
	return u, nil
}
