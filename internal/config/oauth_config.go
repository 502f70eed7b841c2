package config

// DefaultScope matches the vendor permissions the updater needs on Basalam.
const DefaultScope = "vendor.profile.read vendor.product.read vendor.product.write customer.profile.read"

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetScope() string
	GetAuthURL() string
	GetTokenURL() string
	GetAPIBaseURL() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetClientID() string {
	return GetEnv("BASALAM_CLIENT_ID", "")
}

func (OAuth) GetClientSecret() string {
	return GetEnv("BASALAM_CLIENT_SECRET", "")
}

func (OAuth) GetRedirectURI() string {
	return GetEnv("BASALAM_REDIRECT_URI", "")
}

func (OAuth) GetScope() string {
	return GetEnv("BASALAM_SCOPE", DefaultScope)
}

func (OAuth) GetAuthURL() string {
	return GetEnv("BASALAM_AUTH_URL", "https://basalam.com/accounts/sso")
}

func (OAuth) GetTokenURL() string {
	return GetEnv("BASALAM_TOKEN_URL", "https://auth.basalam.com/oauth/token")
}

func (OAuth) GetAPIBaseURL() string {
	return GetEnv("BASALAM_API_BASE", "https://core.basalam.com")
}
