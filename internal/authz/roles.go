package authz

// Role is the account type code carried on users and OTP challenges.
// It only decides where the client lands, never what it may do.
type Role int

const (
	RoleUser       Role = 1
	RoleContractor Role = 3
	RoleDeveloper  Role = 4 // real-estate developer
)

// NavTarget names the screen the client should open next.
type NavTarget string

const (
	TargetContractorProfileCompletion NavTarget = "contractor-profile-completion"
	TargetRealEstateContractorHome    NavTarget = "realstate-contractor-home"
	TargetUserHome                    NavTarget = "user-home"
)

var destinations = map[Role]NavTarget{
	RoleContractor: TargetContractorProfileCompletion,
	RoleDeveloper:  TargetRealEstateContractorHome,
}

// Destination maps a role to its landing screen. Unknown roles land on the user home.
func Destination(role Role) NavTarget {
	if t, ok := destinations[role]; ok {
		return t
	}
	return TargetUserHome
}

func IsKnown(role Role) bool {
	return role == RoleUser || role == RoleContractor || role == RoleDeveloper
}
