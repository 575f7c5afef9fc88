package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/klokku/notebook/internal/auth"
	"github.com/klokku/notebook/internal/config"
	"github.com/klokku/notebook/internal/rest"
	"github.com/klokku/notebook/internal/utils"
	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
)

const stateTtl = 10 * time.Minute

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	states       StateRepository
	userService  user.Service
	tokens       *auth.Tokens
	oauthConfig  *oauth2.Config
	fetchProfile ProfileFetcher
	clock        utils.Clock
	host         string
}

func NewOAuthConfig(cfg config.Application) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  strings.TrimSuffix(cfg.Host, "/") + "/api/auth/google/callback",
		Scopes:       []string{oauth2api.OpenIDScope, oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope},
	}
}

func NewGoogleAuth(
	states StateRepository,
	userService user.Service,
	tokens *auth.Tokens,
	oauthConfig *oauth2.Config,
	fetchProfile ProfileFetcher,
	clock utils.Clock,
	host string,
) *GoogleAuth {
	return &GoogleAuth{
		states:       states,
		userService:  userService,
		tokens:       tokens,
		oauthConfig:  oauthConfig,
		fetchProfile: fetchProfile,
		clock:        clock,
		host:         strings.TrimSuffix(host, "/"),
	}
}

// OAuthLogin godoc
// @Summary Start Google sign-in
// @Description Returns the Google consent url. After sign-in the browser is sent to finalUrl with the token in the fragment.
// @Tags Auth
// @Produce json
// @Param finalUrl query string false "Where to return after sign-in, relative or on this host"
// @Success 200 {object} googleAuthRedirect
// @Failure 400 {object} rest.ErrorResponse "Invalid final url"
// @Router /api/auth/google/login [get]
func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	finalUrl, ok := g.finalUrl(r.URL.Query().Get("finalUrl"))
	if !ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid final url", "finalUrl must be a path or an url on "+g.host)
		return
	}

	stateNonce := uuid.New().String()
	if err := g.states.Store(r.Context(), stateNonce, finalUrl, g.clock.Now()); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(stateNonce)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(googleAuthRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// OAuthCallback godoc
// @Summary Finish Google sign-in
// @Description Exchanges the code, registers the user on first sign-in and redirects to the final url with #token=
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State nonce"
// @Success 302 "Redirect to the final url"
// @Failure 400 {object} rest.ErrorResponse "Unknown or expired state"
// @Router /api/auth/google/callback [get]
func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	nonce := r.FormValue("state")

	finalUrl, createdAt, err := g.states.Take(r.Context(), nonce)
	if err != nil {
		log.Debugf("unknown oauth state %q: %v", nonce, err)
		rest.WriteError(w, http.StatusBadRequest, "Unknown sign-in state", "Please sign in again")
		return
	}
	if g.clock.Now().Sub(createdAt) > stateTtl {
		rest.WriteError(w, http.StatusBadRequest, "Sign-in expired", "Please sign in again")
		return
	}
	if code == "" {
		redirectWithFragment(w, r, finalUrl, "error", "access_denied")
		return
	}

	token, err := g.signIn(r.Context(), code)
	if err != nil {
		log.Errorf("Google sign-in failed: %v", err)
		redirectWithFragment(w, r, finalUrl, "error", "signin_failed")
		return
	}
	redirectWithFragment(w, r, finalUrl, "token", token)
}

func (g *GoogleAuth) signIn(ctx context.Context, code string) (string, error) {
	oauthToken, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	profile, err := g.fetchProfile(ctx, g.oauthConfig.TokenSource(ctx, oauthToken))
	if err != nil {
		return "", err
	}

	signedIn, err := g.userService.FindOrCreate(ctx, user.User{
		Uid:         "google:" + profile.Subject,
		Username:    profile.Email,
		DisplayName: profile.Name,
		Email:       profile.Email,
	})
	if err != nil {
		return "", err
	}
	log.Infof("User %s signed in", signedIn.Uid)

	token, _, err := g.tokens.Issue(signedIn.Uid)
	return token, err
}

// finalUrl accepts relative paths and absolute urls on this host. Empty means the root page.
// Browsers read a backslash as a slash and drop tabs and newlines, so `/\host` and `/<tab>/host`
// point at another host.
func (g *GoogleAuth) finalUrl(raw string) (string, bool) {
	if raw == "" {
		return "/", true
	}
	if strings.ContainsFunc(raw, unicode.IsControl) {
		return "", false
	}
	normalized := strings.ReplaceAll(raw, "\\", "/")
	if strings.HasPrefix(normalized, "//") {
		return "", false
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" && parsed.Host == "" && parsed.User == nil {
		if strings.HasPrefix(parsed.Path, "/") {
			return raw, true
		}
		return "", false
	}
	if g.host == "" {
		return "", false
	}
	host, err := url.Parse(g.host)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != host.Scheme || parsed.Host != host.Host || parsed.User != nil {
		return "", false
	}
	return raw, true
}

func redirectWithFragment(w http.ResponseWriter, r *http.Request, finalUrl, key, value string) {
	target := strings.SplitN(finalUrl, "#", 2)[0]
	http.Redirect(w, r, target+"#"+key+"="+url.QueryEscape(value), http.StatusFound)
}
