package cariauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopaiassist/containerapp/pkg/observability"
)

// API paths under the configured base URL.
const (
	pathCheckPermission = "/api/v1/check-permission"
	pathUserGuid        = "/api/v1/user-guid"
	pathOrgDetails      = "/api/v1/org-details"
)

// applicationFeature is the feature block FAC checks are batched under.
const applicationFeature = "APPLICATION"

const defaultRequestTimeout = 30 * time.Second

// Error is a failed CARI Auth call. StatusCode and Body carry the upstream
// response when one was received.
type Error struct {
	StatusCode int
	Body       string
	message    string
}

func (e *Error) Error() string {
	return e.message
}

// UserAndOrgDetail is the combined result of the user-guid and org-details
// lookups.
type UserAndOrgDetail struct {
	UserGuid string `json:"userGuid"`

	// SalesOrg is the sales org for this customer, e.g. "WEST".
	SalesOrg string `json:"salesOrg"`
	// OrgLocationZBNbr sometimes matches OrgHeadquartersZWNbr.
	OrgLocationZBNbr string `json:"orgLocationZBNbr"`
	// OrgHeadquartersZWNbr is the org ID, e.g. "1004637433".
	OrgHeadquartersZWNbr string `json:"orgHeadquartersZWNbr"`
	// OrgPaymentGroupZPNbr sometimes matches OrgHeadquartersZWNbr.
	OrgPaymentGroupZPNbr string `json:"orgPaymentGroupZPNbr"`
	// OrgLocationCountryCode is a country code, e.g. "US".
	OrgLocationCountryCode string `json:"orgLocationCountryCode"`
	// BusSystemDataOwner is a system identifier, e.g. "SAP".
	BusSystemDataOwner string `json:"busSystemDataOwner"`
}

type checkPermissionResponse struct {
	FeaturePermissions []struct {
		Feature             string `json:"feature"`
		ResourcePermissions []struct {
			Resource   string `json:"resource"`
			Permission string `json:"permission"`
		} `json:"resourcePermissions"`
	} `json:"featurePermissions"`
}

type userGuidResponse struct {
	UserGuid string `json:"UserGuid"`
}

type orgDetailsResponse struct {
	SalesOrg               string `json:"salesOrg"`
	OrgLocationZBNbr       string `json:"orgLocationZBNbr"`
	OrgHeadquartersZWNbr   string `json:"orgHeadquartersZWNbr"`
	OrgPaymentGroupZPNbr   string `json:"orgPaymentGroupZPNbr"`
	OrgLocationCountryCode string `json:"orgLocationCountryCode"`
	BusSystemDataOwner     string `json:"busSystemDataOwner"`
}

// Client is a CARI Auth service client. Callers authenticate users with a
// OnePass orchestration token sent as a bearer credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewClient creates a CARI Auth client. metrics may be nil.
func NewClient(baseURL string, logger *observability.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger.WithField("component", "cariauth"),
		metrics:    metrics,
	}
}

// FetchFeatureAccessControls checks every named FAC for the user in one
// batched call and returns the grant decision per FAC.
func (c *Client) FetchFeatureAccessControls(ctx context.Context, authorizationToken, productID string, facNames []string) (*FacGrants, error) {
	body := map[string][]string{applicationFeature: facNames}

	var resp checkPermissionResponse
	if err := c.do(ctx, http.MethodPost, "check_permission", pathCheckPermission, authorizationToken, productID, "", body, &resp); err != nil {
		return nil, err
	}

	for _, fp := range resp.FeaturePermissions {
		if fp.Feature != applicationFeature {
			continue
		}
		values := make(map[string]string, len(fp.ResourcePermissions))
		for _, rp := range fp.ResourcePermissions {
			values[rp.Resource] = rp.Permission
		}
		return NewFacGrants(values), nil
	}

	// A response without the APPLICATION block means the service did not
	// evaluate the request; treating it as all-deny would mask the fault.
	raw, _ := json.Marshal(resp)
	return nil, &Error{message: fmt.Sprintf("invalid server response: %s", raw)}
}

// FetchUserAndOrgDetails looks up the user's GUID and organization details.
func (c *Client) FetchUserAndOrgDetails(ctx context.Context, authorizationToken, productID, registrationKey string) (*UserAndOrgDetail, error) {
	var userResp userGuidResponse
	if err := c.do(ctx, http.MethodGet, "user_guid", pathUserGuid, authorizationToken, productID, registrationKey, nil, &userResp); err != nil {
		return nil, err
	}

	var orgResp orgDetailsResponse
	if err := c.do(ctx, http.MethodGet, "org_details", pathOrgDetails, authorizationToken, productID, registrationKey, nil, &orgResp); err != nil {
		return nil, err
	}

	return &UserAndOrgDetail{
		UserGuid:               userResp.UserGuid,
		SalesOrg:               orgResp.SalesOrg,
		OrgLocationZBNbr:       orgResp.OrgLocationZBNbr,
		OrgHeadquartersZWNbr:   orgResp.OrgHeadquartersZWNbr,
		OrgPaymentGroupZPNbr:   orgResp.OrgPaymentGroupZPNbr,
		OrgLocationCountryCode: orgResp.OrgLocationCountryCode,
		BusSystemDataOwner:     orgResp.BusSystemDataOwner,
	}, nil
}

func (c *Client) do(ctx context.Context, method, operation, path, authorizationToken, productID, registrationKey string, body, out interface{}) error {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authorizationToken)
	req.Header.Set("product-Id", productID)
	if registrationKey != "" {
		req.Header.Set("reg-key", registrationKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream("cariauth", operation, "transport_error", time.Since(start))
		return &Error{message: fmt.Sprintf("error connecting to CARI Auth service: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveUpstream("cariauth", operation, "read_error", time.Since(start))
		return &Error{StatusCode: resp.StatusCode, message: fmt.Sprintf("error reading CARI Auth response: %v", err)}
	}

	c.metrics.ObserveUpstream("cariauth", operation, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(map[string]interface{}{
			"operation": operation,
			"status":    resp.StatusCode,
		}).Error("CARI Auth request failed")
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			message:    fmt.Sprintf("error %d connecting to CARI Auth service: %s", resp.StatusCode, respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, message: fmt.Sprintf("failed to decode CARI Auth response: %v", err)}
	}
	return nil
}
