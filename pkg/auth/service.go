package auth

import (
	"context"
	"time"

	"github.com/shopaiassist/containerapp/pkg/cariauth"
	"github.com/shopaiassist/containerapp/pkg/entitlement"
	"github.com/shopaiassist/containerapp/pkg/observability"
	"github.com/shopaiassist/containerapp/pkg/onepass"
)

// OnePassClient is the part of the OnePass API the login flow uses.
// Implemented by onepass.Client.
type OnePassClient interface {
	AuthenticateSignOnToken(ctx context.Context, signOnToken string) (*onepass.AuthenticateSignOnTokenResponse, error)
	CreateOrchestrationToken(ctx context.Context, userIdentifier, registrationKey, seamlessToken string, lifetime time.Duration, extraProperties map[string]string) (*onepass.CreateOrchestrationTokenResponse, error)
}

// UserDetailFetcher looks up user and org details. Implemented by
// cariauth.Client.
type UserDetailFetcher interface {
	FetchUserAndOrgDetails(ctx context.Context, authorizationToken, productID, registrationKey string) (*cariauth.UserAndOrgDetail, error)
}

// EntitlementReader reads and reformats user permissions. Implemented by
// entitlement.Service.
type EntitlementReader interface {
	FetchEntitlementsForUser(ctx context.Context, authorizationToken, productID string) (*entitlement.UserPermissions, error)
	FlatFormatEntitlements(permissions *entitlement.UserPermissions) map[string]bool
}

// Service authenticates and logs in users.
type Service struct {
	onePass      OnePassClient
	cariAuth     UserDetailFetcher
	entitlements EntitlementReader
	signer       *JWTSigner
	logger       *observability.Logger
	metrics      *observability.Metrics
}

// NewService creates an auth service. metrics may be nil.
func NewService(onePass OnePassClient, cariAuth UserDetailFetcher, entitlements EntitlementReader, signer *JWTSigner, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		onePass:      onePass,
		cariAuth:     cariAuth,
		entitlements: entitlements,
		signer:       signer,
		logger:       logger.WithField("component", "auth"),
		metrics:      metrics,
	}
}

// LoginUser runs the full login flow for a sign-on token received in the
// OnePass callback:
//
//  1. The sign-on token is validated and exchanged for a seamless token.
//  2. The seamless token mints a short lived preliminary orchestration
//     token.
//  3. The preliminary token is used to check entitlements. A user without
//     product access fails here with NotAuthorizedLoginError.
//  4. The preliminary token is used to fetch the user GUID and org details.
//  5. The seamless token mints the final orchestration token, carrying the
//     user, org, and entitlement properties, with the session's absolute
//     lifetime.
//  6. The final token is wrapped in the session JWT.
//
// The returned LoggedInUser is what the caller stores in the session.
func (s *Service) LoginUser(ctx context.Context, signOnToken string) (*LoggedInUser, error) {
	start := time.Now()

	user, err := s.loginUser(ctx, signOnToken)
	if err != nil {
		if _, notAuthorized := err.(*NotAuthorizedLoginError); notAuthorized {
			s.metrics.ObserveLogin(observability.LoginOutcomeNotAuthorized, time.Since(start))
		} else {
			s.metrics.ObserveLogin(observability.LoginOutcomeError, time.Since(start))
		}
		return nil, err
	}

	s.metrics.ObserveLogin(observability.LoginOutcomeSuccess, time.Since(start))
	return user, nil
}

func (s *Service) loginUser(ctx context.Context, signOnToken string) (*LoggedInUser, error) {
	s.logger.Debug("Authenticating sign-on token")
	authResp, err := s.onePass.AuthenticateSignOnToken(ctx, signOnToken)
	if err != nil {
		return nil, err
	}
	profile := authResp.Profile

	// Later steps and their upstream calls log under the user's identity.
	ctx = observability.WithUserID(ctx, profile.Identifier)
	logger := observability.FromContext(ctx)

	logger.Debug("Creating preliminary orchestration token")
	preliminary, err := s.onePass.CreateOrchestrationToken(ctx, profile.Identifier, authResp.RegistrationKey, authResp.SeamlessToken, AuthorizationSessionTimeout, nil)
	if err != nil {
		return nil, err
	}

	logger.Debug("Checking entitlements")
	permissions, err := s.entitlements.FetchEntitlementsForUser(ctx, preliminary.Token, onepass.ProductIdentifier)
	if err != nil {
		return nil, err
	}
	if !permissions.CanUseShopAIAssist {
		logger.Warn("User is not entitled to use the product")
		return nil, &NotAuthorizedLoginError{UserIdentifier: profile.Identifier}
	}

	logger.Debug("Fetching user and org details")
	detail, err := s.cariAuth.FetchUserAndOrgDetails(ctx, preliminary.Token, onepass.ProductIdentifier, authResp.RegistrationKey)
	if err != nil {
		return nil, err
	}

	logger.Debug("Creating final orchestration token")
	final, err := s.onePass.CreateOrchestrationToken(ctx, profile.Identifier, authResp.RegistrationKey, authResp.SeamlessToken, DefaultAbsoluteSessionTimeout, s.formatTokenData(detail, permissions))
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating session token")
	sessionJWT, err := s.signer.GenerateUserJWT(final.Token)
	if err != nil {
		return nil, err
	}

	logger.WithField("user_guid", detail.UserGuid).Info("Login complete")
	return &LoggedInUser{
		OrchestrationToken: final.Token,
		User:               formatUserProfile(profile, authResp.RegistrationKey, detail),
		Permissions:        *permissions,
		BannerAndGuideMetadata: formatBannerAndGuideMetadata(profile, detail),
		JWT:                sessionJWT,
	}, nil
}

// formatTokenData builds the final orchestration token properties: the user
// and org identifiers plus every flat entitlement as a True/False string.
func (s *Service) formatTokenData(detail *cariauth.UserAndOrgDetail, permissions *entitlement.UserPermissions) map[string]string {
	data := map[string]string{
		"UserGuid": detail.UserGuid,
		"OrgId":    detail.OrgHeadquartersZWNbr,
		"Country":  detail.OrgLocationCountryCode,
	}
	for name, granted := range s.entitlements.FlatFormatEntitlements(permissions) {
		value := "False"
		if granted {
			value = "True"
		}
		data[tokenPropertyPrefix+name] = value
	}
	return data
}

func formatUserProfile(profile onepass.Profile, registrationKey string, detail *cariauth.UserAndOrgDetail) User {
	return User{
		Email:           profile.EmailAddress,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		UserGuid:        detail.UserGuid,
		RegistrationKey: registrationKey,
		Organization: Organization{
			ID:                  detail.OrgHeadquartersZWNbr,
			LocationCountryCode: detail.OrgLocationCountryCode,
		},
	}
}

func formatBannerAndGuideMetadata(profile onepass.Profile, detail *cariauth.UserAndOrgDetail) BannerAndGuideMetadata {
	var meta BannerAndGuideMetadata
	meta.Visitor.ID = profile.Identifier
	meta.Visitor.PrismID = detail.UserGuid
	meta.Account.ID = detail.OrgHeadquartersZWNbr
	meta.Account.PaymentGroupNumber = detail.OrgPaymentGroupZPNbr
	return meta
}
