package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/gsharma/indiainfo/internal/config"
	"github.com/gsharma/indiainfo/internal/models"
	"github.com/gsharma/indiainfo/internal/repository"
)

// OAuthProfile contains user information fetched from OAuth providers.
type OAuthProfile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// OAuthService defines the OAuth authentication interface.
type OAuthService interface {
	// GetAuthURL returns the OAuth authorization URL for the given provider.
	GetAuthURL(provider, state string) (string, error)

	// HandleCallback exchanges the code, links or creates the local account,
	// and returns the user with a session token.
	HandleCallback(ctx context.Context, provider, code string) (*models.User, string, error)

	// LinkOrCreate finds the local account for a provider profile, creating
	// one on first login.
	LinkOrCreate(ctx context.Context, provider string, profile *OAuthProfile) (*models.User, error)

	// GetSupportedProviders returns a list of configured OAuth providers.
	GetSupportedProviders() []string
}

type oauthService struct {
	configs map[string]*oauth2.Config
	users   repository.UserRepository
	auth    AuthService

	// Profile endpoints, overridable in tests.
	googleUserInfoURL   string
	facebookUserInfoURL string
}

// NewOAuthService creates a new OAuth service with the given configuration.
func NewOAuthService(
	cfg *config.AuthConfig,
	users repository.UserRepository,
	auth AuthService,
) OAuthService {
	callbackBaseURL := cfg.OAuthCallbackURL
	configs := make(map[string]*oauth2.Config)

	// Configure Google OAuth if credentials are provided
	if cfg.OAuthGoogleID != "" && cfg.OAuthGoogleSecret != "" {
		configs[models.ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.OAuthGoogleID,
			ClientSecret: cfg.OAuthGoogleSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  callbackBaseURL + "/auth/google/callback",
			Scopes:       []string{"email", "profile"},
		}
	}

	// Configure Facebook OAuth if credentials are provided
	if cfg.OAuthFacebookID != "" && cfg.OAuthFacebookSecret != "" {
		configs[models.ProviderFacebook] = &oauth2.Config{
			ClientID:     cfg.OAuthFacebookID,
			ClientSecret: cfg.OAuthFacebookSecret,
			Endpoint:     facebook.Endpoint,
			RedirectURL:  callbackBaseURL + "/auth/facebook/callback",
			Scopes:       []string{"email"},
		}
	}

	return &oauthService{
		configs:             configs,
		users:               users,
		auth:                auth,
		googleUserInfoURL:   "https://www.googleapis.com/oauth2/v2/userinfo",
		facebookUserInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture",
	}
}

func (s *oauthService) GetAuthURL(provider, state string) (string, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return "", fmt.Errorf("unknown or unconfigured provider: %s", provider)
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, code string) (*models.User, string, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown or unconfigured provider: %s", provider)
	}

	// Exchange authorization code for access token
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("token exchange failed: %w", err)
	}

	// Fetch the profile from the provider
	profile, err := s.fetchProfile(ctx, provider, token)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch user info: %w", err)
	}

	user, err := s.LinkOrCreate(ctx, provider, profile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find or create user: %w", err)
	}

	sessionToken, err := s.auth.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, sessionToken, nil
}

func (s *oauthService) GetSupportedProviders() []string {
	providers := make([]string, 0, len(s.configs))
	for provider := range s.configs {
		providers = append(providers, provider)
	}
	return providers
}

func (s *oauthService) fetchProfile(ctx context.Context, provider string, token *oauth2.Token) (*OAuthProfile, error) {
	// Create HTTP client with the OAuth token
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	switch provider {
	case models.ProviderGoogle:
		return s.fetchGoogleProfile(client)
	case models.ProviderFacebook:
		return s.fetchFacebookProfile(client)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func (s *oauthService) fetchGoogleProfile(client *http.Client) (*OAuthProfile, error) {
	resp, err := client.Get(s.googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API returned status %d", resp.StatusCode)
	}

	var data struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode Google user response: %w", err)
	}

	return &OAuthProfile{
		ID:      data.ID,
		Email:   data.Email,
		Name:    data.Name,
		Picture: data.Picture,
	}, nil
}

func (s *oauthService) fetchFacebookProfile(client *http.Client) (*OAuthProfile, error) {
	resp, err := client.Get(s.facebookUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Facebook user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook API returned status %d", resp.StatusCode)
	}

	var data struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode Facebook user response: %w", err)
	}

	return &OAuthProfile{
		ID:      data.ID,
		Email:   data.Email,
		Name:    data.Name,
		Picture: data.Picture.Data.URL,
	}, nil
}

// LinkOrCreate looks the profile up by email. An existing account wins as-is:
// no field is overwritten on repeat login, so a changed provider photo does
// not propagate. New accounts capture name and photo at creation time, carry
// the provider name, and never get a password or username.
func (s *oauthService) LinkOrCreate(ctx context.Context, provider string, profile *OAuthProfile) (*models.User, error) {
	email := profile.Email
	if email == "" {
		if profile.ID == "" {
			return nil, fmt.Errorf("provider profile has no email and no id")
		}
		// Facebook can withhold the email; synthesize a stable placeholder.
		email = fmt.Sprintf("%s@%s.invalid", profile.ID, provider)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		Email:        email,
		AuthProvider: provider,
	}
	if profile.Name != "" {
		user.Name = &profile.Name
	}
	if profile.Picture != "" {
		user.ProfilePicture = &profile.Picture
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// Re-fetch to pick up store-assigned defaults.
	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("user %s not found after create", user.ID)
	}
	return created, nil
}

// Compile-time check to ensure oauthService implements OAuthService.
var _ OAuthService = (*oauthService)(nil)
