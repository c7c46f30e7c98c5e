package identity

import (
	"parley/internal/identity/store"
)

// Project maps a raw identity-store record into an OpenID Connect profile.
//
// Unmapped standard claims (picture, website, zoneinfo, address) are emitted
// as fixed empty placeholders and locale is pinned to "en";
// phone_number_verified is asserted true regardless of store data. Note that
// email_verified is deliberately not set here; see Account.Claims.
func Project(record *store.UserRecord) Profile {
	return Profile{
		"accountId":             record.SubjectID,
		"sub":                   record.SubjectID,
		"name":                  record.FirstName,
		"given_name":            record.FirstName,
		"family_name":           record.LastName,
		"email":                 record.Email,
		"picture":               "",
		"locale":                "en",
		"updated_at":            record.UpdatedAt,
		"website":               "",
		"zoneinfo":              "",
		"birthdate":             record.Birthdate,
		"phone_number":          record.Telephone,
		"phone_number_verified": true,
		"address":               "",
	}
}
