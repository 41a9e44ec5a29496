package auth

import (
	"time"

	"github.com/shopaiassist/containerapp/pkg/entitlement"
)

// Session lifetimes. The preliminary orchestration token only needs to
// survive the authorization checks during login; the final token backs the
// whole session.
const (
	AuthorizationSessionTimeout   = time.Hour
	DefaultAbsoluteSessionTimeout = 14 * 24 * time.Hour
)

// tokenPropertyPrefix namespaces entitlement properties embedded in the
// final orchestration token.
const tokenPropertyPrefix = "ShopAIAssist."

// Organization identifies the user's customer organization.
type Organization struct {
	ID                  string `json:"id"`
	LocationCountryCode string `json:"locationCountryCode"`
}

// User is the logged in user's identity.
type User struct {
	Email           string       `json:"email"`
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	UserGuid        string       `json:"userGuid"`
	RegistrationKey string       `json:"registrationKey"`
	Organization    Organization `json:"organization"`
}

// BannerAndGuideMetadata identifies the user and their organization to the
// banner and guide system, for trial banners and product guides.
type BannerAndGuideMetadata struct {
	Visitor struct {
		// ID is the OnePass ID so the user inherits metadata from other
		// products.
		ID      string `json:"id"`
		PrismID string `json:"prismid"`
	} `json:"visitor"`
	Account struct {
		ID                 string `json:"id"`
		PaymentGroupNumber string `json:"paymentGroupNumber"`
	} `json:"account"`
}

// LoggedInUser is the complete login result, stored in the session and
// returned verbatim by /api/user/me.
type LoggedInUser struct {
	// OrchestrationToken is the final OnePass orchestration token.
	OrchestrationToken string `json:"orchestrationToken"`

	// User is the user and org details.
	User User `json:"user"`

	// Permissions are the product permissions for the user.
	Permissions entitlement.UserPermissions `json:"permissions"`

	// BannerAndGuideMetadata identifies the user to the banner and guide
	// system.
	BannerAndGuideMetadata BannerAndGuideMetadata `json:"bannerAndGuideMetadata"`

	// JWT is the session token handed to downstream micro frontends.
	JWT string `json:"jwt"`
}

// NotAuthorizedLoginError means the user authenticated with OnePass but is
// not entitled to use the product. Handlers route it to the no-access page
// rather than an error response.
type NotAuthorizedLoginError struct {
	UserIdentifier string
}

func (e *NotAuthorizedLoginError) Error() string {
	return "user " + e.UserIdentifier + " is not entitled to use ShopAIAssist"
}
