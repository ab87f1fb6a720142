// Package compat holds the fixed donor to recipient transfusion table.
package compat

import "bloodlink/pkg/types"

// eligibleDonors maps a recipient blood type to the donor types that can supply it.
var eligibleDonors = map[types.BloodType][]types.BloodType{
	types.BloodTypeONeg:  {types.BloodTypeONeg},
	types.BloodTypeOPos:  {types.BloodTypeONeg, types.BloodTypeOPos},
	types.BloodTypeANeg:  {types.BloodTypeONeg, types.BloodTypeANeg},
	types.BloodTypeAPos:  {types.BloodTypeONeg, types.BloodTypeOPos, types.BloodTypeANeg, types.BloodTypeAPos},
	types.BloodTypeBNeg:  {types.BloodTypeONeg, types.BloodTypeBNeg},
	types.BloodTypeBPos:  {types.BloodTypeONeg, types.BloodTypeOPos, types.BloodTypeBNeg, types.BloodTypeBPos},
	types.BloodTypeABNeg: {types.BloodTypeONeg, types.BloodTypeANeg, types.BloodTypeBNeg, types.BloodTypeABNeg},
	types.BloodTypeABPos: {
		types.BloodTypeONeg, types.BloodTypeOPos, types.BloodTypeANeg, types.BloodTypeAPos,
		types.BloodTypeBNeg, types.BloodTypeBPos, types.BloodTypeABNeg, types.BloodTypeABPos,
	},
}

// CanDonate reports whether blood of donorType can be given to a recipient of recipientType.
func CanDonate(donorType, recipientType types.BloodType) bool {
	for _, t := range eligibleDonors[recipientType] {
		if t == donorType {
			return true
		}
	}
	return false
}

// EligibleDonorTypes returns the donor types that can supply recipientType, in
// canonical order. The returned slice is a copy.
func EligibleDonorTypes(recipientType types.BloodType) []types.BloodType {
	return append([]types.BloodType(nil), eligibleDonors[recipientType]...)
}

// RecipientTypes returns the recipient types donorType can supply.
func RecipientTypes(donorType types.BloodType) []types.BloodType {
	out := make([]types.BloodType, 0, len(types.AllBloodTypes))
	for _, recipient := range types.AllBloodTypes {
		if CanDonate(donorType, recipient) {
			out = append(out, recipient)
		}
	}
	return out
}
