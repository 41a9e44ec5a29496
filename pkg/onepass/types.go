package onepass

// ProductIdentifier is the product name registered with OnePass. It is sent
// in the Header of every request and prefixes product scoped token
// properties.
const ProductIdentifier = "ShopAIAssist"

// RegistrationKeyProperty is the orchestration token property carrying the
// user's registration key.
const RegistrationKeyProperty = "orig-regkey"

// Header is the common request/response header envelope.
type Header struct {
	ProductIdentifier string `json:"ProductIdentifier"`
	SlideInformation  string `json:"SlideInformation,omitempty"`
	UserHostIpAddress string `json:"UserHostIpAddress,omitempty"`
	Version           string `json:"Version,omitempty"`
}

// ServiceStatus reports the outcome of a OnePass operation. StatusDescription
// is the authoritative error text when a request fails.
type ServiceStatus struct {
	ElapsedTime       int    `json:"ElapsedTime"`
	StartTime         string `json:"StartTime"`
	StatusCode        int    `json:"StatusCode"`
	StatusDescription string `json:"StatusDescription"`
}

// Trace is the request correlation envelope. Requests send it empty; OnePass
// fills it in on responses.
type Trace struct {
	ParentGuid        string `json:"ParentGuid,omitempty"`
	Product           string `json:"Product,omitempty"`
	RootGuid          string `json:"RootGuid,omitempty"`
	ServerInformation string `json:"ServerInformation,omitempty"`
	SessionGuid       string `json:"SessionGuid,omitempty"`
	TransactionGuid   string `json:"TransactionGuid,omitempty"`
}

// Profile is the user's OnePass profile.
type Profile struct {
	EmailAddress           string `json:"EmailAddress"`
	EmailAddressVerified   bool   `json:"EmailAddressVerified"`
	FirstName              string `json:"FirstName"`
	Identifier             string `json:"Identifier"`
	LastName               string `json:"LastName"`
	PasswordExpirationDate string `json:"PasswordExpirationDate"`
	PasswordLifetime       int    `json:"PasswordLifetime"`
	ProfileType            string `json:"ProfileType"`
	Username               string `json:"Username"`
}

// Property is a key/value pair embedded in an orchestration token.
type Property struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// baseRequest carries the fields common to every OnePass call, including the
// HMAC request signature.
type baseRequest struct {
	Header     Header `json:"Header"`
	Trace      Trace  `json:"Trace"`
	APIKey     string `json:"APIKey"`
	APIKeyHash string `json:"APIKeyHash"`
	Nonce      string `json:"Nonce"`
}

type authenticateSignOnTokenRequest struct {
	baseRequest
	IncludeProfile            bool   `json:"IncludeProfile"`
	IncludeRegisteredProducts bool   `json:"IncludeRegisteredProducts"`
	SignonToken               string `json:"SignonToken"`
}

// AuthenticateSignOnTokenResponse is the /authenticate/signontoken response.
// SeamlessToken is the input to orchestration token creation; RegistrationKey
// identifies the user's product registration.
type AuthenticateSignOnTokenResponse struct {
	Header          Header        `json:"Header"`
	ServiceStatus   ServiceStatus `json:"ServiceStatus"`
	Trace           Trace         `json:"Trace"`
	Identifier      string        `json:"Identifier"`
	Profile         Profile       `json:"Profile"`
	SeamlessToken   string        `json:"SeamlessToken"`
	RegistrationKey string        `json:"RegistrationKey"`
	SelectedCulture string        `json:"SelectedCulture"`
	Strength        int           `json:"Strength"`
	TraceId         string        `json:"TraceId"`
}

type createOrchestrationTokenRequest struct {
	baseRequest
	Properties    []Property `json:"Properties"`
	SeamlessToken string     `json:"SeamlessToken"`
	Lifetime      int64      `json:"Lifetime,omitempty"`
}

// CreateOrchestrationTokenResponse is the /create/orchestrationtoken
// response. Token is the newly minted orchestration token.
type CreateOrchestrationTokenResponse struct {
	Header        Header        `json:"Header"`
	ServiceStatus ServiceStatus `json:"ServiceStatus"`
	Trace         Trace         `json:"Trace"`
	Token         string        `json:"Token"`
}

// errorResponse is the error body shape OnePass returns on failures.
type errorResponse struct {
	ServiceStatus ServiceStatus `json:"ServiceStatus"`
}
