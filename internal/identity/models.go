package identity

import (
	"github.com/google/uuid"
)

// AccountKind distinguishes real accounts projected from the identity store
// from the synthetic demo account. The explicit tag replaces a "profile is
// empty" check so claim dispatch is never implicit.
type AccountKind string

const (
	KindReal AccountKind = "real"
	KindDemo AccountKind = "demo"
)

// Profile is a claim name → value mapping.
type Profile map[string]any

// Account is a resolved end-user identity with a stable subject identifier.
// For direct logins the subject equals the identity store's native id; for
// federated logins it is synthesized as "{provider}.{externalSubject}".
type Account struct {
	SubjectID string
	Kind      AccountKind
	Profile   Profile
}

// NewAccount creates a real account. An empty subject gets a generated one.
func NewAccount(subjectID string, profile Profile) *Account {
	if subjectID == "" {
		subjectID = uuid.NewString()
	}
	return &Account{SubjectID: subjectID, Kind: KindReal, Profile: profile}
}

// NewDemoAccount creates the synthetic demo account. Its claims are a fixed
// sample set unrelated to any real user.
func NewDemoAccount(subjectID string) *Account {
	if subjectID == "" {
		subjectID = uuid.NewString()
	}
	return &Account{SubjectID: subjectID, Kind: KindDemo}
}

// Claims returns the claim set handed to the engine for token/userinfo
// assembly. The use ("id_token" or "userinfo") and scope parameters are part
// of the engine's contract; claim masking by scope happens engine-side.
//
// For real accounts, email_verified is only emitted when the profile carries
// it. The projector never populates it today, so the claim is absent in
// practice; populating it from the store is a pending product decision.
func (a *Account) Claims(use, scope string) Profile {
	_ = use
	_ = scope

	if a.Kind == KindDemo {
		return demoClaims(a.SubjectID)
	}

	claims := Profile{
		// The sub claim must always be present.
		"sub":         a.SubjectID,
		"email":       a.Profile["email"],
		"family_name": a.Profile["family_name"],
		"given_name":  a.Profile["given_name"],
		"locale":      a.Profile["locale"],
		"name":        a.Profile["name"],
	}
	if verified, ok := a.Profile["email_verified"]; ok {
		claims["email_verified"] = verified
	}
	return claims
}

func demoClaims(subjectID string) Profile {
	return Profile{
		"sub": subjectID,
		"address": map[string]string{
			"country":        "000",
			"formatted":      "000",
			"locality":       "000",
			"postal_code":    "000",
			"region":         "000",
			"street_address": "000",
		},
		"birthdate":             "1987-10-16",
		"email":                 "johndoe@example.com",
		"email_verified":        false,
		"family_name":           "Doe",
		"gender":                "male",
		"given_name":            "John",
		"locale":                "en-US",
		"middle_name":           "Middle",
		"name":                  "John Doe",
		"nickname":              "Johny",
		"phone_number":          "+49 000 000000",
		"phone_number_verified": false,
		"picture":               "http://lorempixel.com/400/200/",
		"preferred_username":    "johnny",
		"profile":               "https://johnswebsite.com",
		"updated_at":            1454704946,
		"website":               "http://example.com",
		"zoneinfo":              "Europe/Berlin",
	}
}
