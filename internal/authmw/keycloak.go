package authmw

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
)

// Service wraps the Keycloak admin API for the user-directory operations the
// board service needs: resolving invite emails to user ids and enriching
// member listings with display names and avatars.
type Service struct {
	Client       *gocloak.GoCloak
	Realm        string
	clientID     string
	clientSecret string

	KCAuth *KeycloakAuth

	mu          sync.Mutex
	adminToken  string
	tokenExpiry time.Time
}

// DirectoryUser is the slice of a Keycloak user the service exposes.
type DirectoryUser struct {
	ID     string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"image,omitempty"`
}

const avatarAttribute = "avatar_url"

func NewService(baseURL, realm, clientID, issuer, aud, clientSecret string) (*Service, error) {
	client := gocloak.NewClient("http://" + baseURL)

	kcAuth, err := NewKeycloakAuth(
		fmt.Sprintf(
			"http://%s/realms/%s/protocol/openid-connect/certs",
			baseURL,
			realm,
		),
		issuer,
		aud,
		clientID,
	)
	if err != nil {
		log.Printf("failed to instantiate the kc authenticator middleware: %v", err)

		return nil, err
	}

	s := &Service{
		Client:       client,
		Realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		KCAuth:       kcAuth,
	}

	if err := s.selfTest(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) selfTest() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := s.adminLogin(ctx)
	if err != nil {
		return fmt.Errorf("keycloak auth failed: %w", err)
	}

	// Minimal permission check (safe & cheap)
	if _, err := s.Client.GetRealm(ctx, token, s.Realm); err != nil {
		return fmt.Errorf("keycloak permission check failed: %w", err)
	}

	return nil
}

// adminLogin returns a service-account token, reusing the cached one while
// it is still comfortably within its lifetime.
func (s *Service) adminLogin(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adminToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.adminToken, nil
	}

	jwt, err := s.Client.LoginClient(ctx, s.clientID, s.clientSecret, s.Realm)
	if err != nil {
		return "", err
	}

	s.adminToken = jwt.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(jwt.ExpiresIn-30) * time.Second)

	return s.adminToken, nil
}

// LookupUserByEmail resolves an email to a directory user. Returns nil (no
// error) when nobody matches, so callers can produce their own not-found
// semantics.
func (s *Service) LookupUserByEmail(ctx context.Context, email string) (*DirectoryUser, error) {
	token, err := s.adminLogin(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.Client.GetUsers(ctx, token, s.Realm, gocloak.GetUsersParams{
		Email: gocloak.StringP(email),
		Exact: gocloak.BoolP(true),
		Max:   gocloak.IntP(2),
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	u := toDirectoryUser(users[0])

	return &u, nil
}

// UsersByIDs fetches directory entries for the given user ids. Missing ids
// are silently skipped; stale memberships should not break a listing.
func (s *Service) UsersByIDs(ctx context.Context, ids []string) (map[string]DirectoryUser, error) {
	token, err := s.adminLogin(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]DirectoryUser, len(ids))
	for _, id := range ids {
		u, err := s.Client.GetUserByID(ctx, token, s.Realm, id)
		if err != nil {
			continue
		}
		out[id] = toDirectoryUser(u)
	}

	return out, nil
}

// UpdateProfile sets the display name and/or avatar URL on the Keycloak
// user. Empty arguments leave the corresponding attribute untouched.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, avatarURL string) error {
	token, err := s.adminLogin(ctx)
	if err != nil {
		return err
	}

	user, err := s.Client.GetUserByID(ctx, token, s.Realm, userID)
	if err != nil {
		return err
	}

	if name != "" {
		user.FirstName = gocloak.StringP(name)
		user.LastName = gocloak.StringP("")
	}
	if avatarURL != "" {
		attrs := map[string][]string{}
		if user.Attributes != nil {
			attrs = *user.Attributes
		}
		attrs[avatarAttribute] = []string{avatarURL}
		user.Attributes = &attrs
	}

	return s.Client.UpdateUser(ctx, token, s.Realm, *user)
}

func toDirectoryUser(u *gocloak.User) DirectoryUser {
	d := DirectoryUser{}
	if u.ID != nil {
		d.ID = *u.ID
	}
	if u.Email != nil {
		d.Email = *u.Email
	}
	name := ""
	if u.FirstName != nil {
		name = *u.FirstName
	}
	if u.LastName != nil && *u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += *u.LastName
	}
	if name == "" && u.Username != nil {
		name = *u.Username
	}
	d.Name = name

	if u.Attributes != nil {
		if vals, ok := (*u.Attributes)[avatarAttribute]; ok && len(vals) > 0 {
			d.Avatar = vals[0]
		}
	}

	return d
}
