package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"tidyup-backend/dao"
	"tidyup-backend/model"
	"tidyup-backend/pkg/auth"
	"tidyup-backend/pkg/idgen"
)

type UserStore interface {
	Insert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id, name, bio string, locationID *string) error
	CreateSSOLink(ctx context.Context, link *model.SSOLink) error
	GetSSOLink(ctx context.Context, provider, subject string) (*model.SSOLink, error)
	ListSSOLinks(ctx context.Context, userID string) ([]model.SSOLink, error)
	DeleteSSOLink(ctx context.Context, userID, provider string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID, role string) (string, error)
}

type SSOVerifier interface {
	Verify(provider, idToken string) (*auth.SSOIdentity, error)
}

// Session is returned by every sign-in path.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type UserUsecase struct {
	repo           UserStore
	catalog        CatalogStore
	tokens         TokenIssuer
	sso            SSOVerifier
	events         EventRecorder
	audit          Auditor
	startingTokens float64
	log            *zap.Logger
}

func NewUserUsecase(repo UserStore, catalog CatalogStore, tokens TokenIssuer, sso SSOVerifier, events EventRecorder, audit Auditor, startingTokens float64, log *zap.Logger) *UserUsecase {
	return &UserUsecase{
		repo:           repo,
		catalog:        catalog,
		tokens:         tokens,
		sso:            sso,
		events:         events,
		audit:          audit,
		startingTokens: startingTokens,
		log:            log,
	}
}

func (u *UserUsecase) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("invalid email address")
	}
	if utf8.RuneCountInString(password) < 8 {
		return nil, invalid("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := u.newUser(name, email, &hash)
	if err := u.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, dao.ErrDuplicate) {
			return nil, conflict("email already registered")
		}
		return nil, err
	}
	u.audit.Audit(ctx, user.ID, "auth.register", "user", user.ID, "")
	return u.session(user)
}

func (u *UserUsecase) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := u.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, password) {
		return nil, unauthorized("invalid email or password")
	}
	u.audit.Audit(ctx, user.ID, "auth.login", "user", user.ID, "password")
	track(ctx, u.events, u.log, user.ID, model.EventDailyLogin)
	return u.session(user)
}

// LoginSSO signs in with a provider id token, linking or creating the account.
func (u *UserUsecase) LoginSSO(ctx context.Context, provider, idToken string) (*Session, error) {
	identity, err := u.sso.Verify(provider, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			return nil, invalid("unknown sso provider")
		}
		return nil, unauthorized("invalid sso token")
	}

	link, err := u.repo.GetSSOLink(ctx, identity.Provider, identity.Subject)
	if err != nil {
		return nil, err
	}

	var user *model.User
	if link != nil {
		if user, err = u.repo.GetByID(ctx, link.UserID); err != nil {
			return nil, err
		}
	} else {
		if user, err = u.repo.GetByEmail(ctx, identity.Email); err != nil {
			return nil, err
		}
		if user == nil {
			name := identity.Email
			if at := strings.Index(name, "@"); at > 0 {
				name = name[:at]
			}
			if utf8.RuneCountInString(name) > 50 {
				name = string([]rune(name)[:50])
			}
			user = u.newUser(name, identity.Email, nil)
			if err := u.repo.Insert(ctx, user); err != nil {
				return nil, err
			}
			u.audit.Audit(ctx, user.ID, "auth.register", "user", user.ID, "sso:"+identity.Provider)
		}
		link = &model.SSOLink{
			ID:        idgen.New(),
			UserID:    user.ID,
			Provider:  identity.Provider,
			Subject:   identity.Subject,
			Email:     identity.Email,
			CreatedAt: time.Now(),
		}
		if err := u.repo.CreateSSOLink(ctx, link); err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, unauthorized("linked account no longer exists")
	}

	u.audit.Audit(ctx, user.ID, "auth.login", "user", user.ID, "sso:"+identity.Provider)
	track(ctx, u.events, u.log, user.ID, model.EventDailyLogin)
	return u.session(user)
}

func (u *UserUsecase) ListSSOLinks(ctx context.Context, userID string) ([]model.SSOLink, error) {
	links, err := u.repo.ListSSOLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []model.SSOLink{}
	}
	return links, nil
}

func (u *UserUsecase) UnlinkSSO(ctx context.Context, userID, provider string) error {
	provider = strings.ToLower(provider)
	user, err := u.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound("user")
	}
	links, err := u.repo.ListSSOLinks(ctx, userID)
	if err != nil {
		return err
	}
	// every link for provider goes, so count what is left afterwards
	remaining := 0
	for _, l := range links {
		if l.Provider != provider {
			remaining++
		}
	}
	if remaining == len(links) {
		return notFound("sso link")
	}
	if user.PasswordHash == nil && remaining == 0 {
		return conflict("cannot remove the only sign-in method")
	}
	if _, err := u.repo.DeleteSSOLink(ctx, userID, provider); err != nil {
		return err
	}
	u.audit.Audit(ctx, userID, "auth.sso_unlink", "user", userID, provider)
	return nil
}

func (u *UserUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

func (u *UserUsecase) UpdateProfile(ctx context.Context, userID, name, bio string, locationID *string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(bio) > 500 {
		return nil, invalid("bio must be at most 500 characters")
	}
	if locationID != nil && *locationID == "" {
		locationID = nil
	}
	if locationID != nil {
		loc, err := u.catalog.GetLocation(ctx, *locationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, invalid("unknown location")
		}
	}
	if err := u.repo.UpdateProfile(ctx, userID, name, bio, locationID); err != nil {
		return nil, err
	}
	return u.Me(ctx, userID)
}

func (u *UserUsecase) PublicProfile(ctx context.Context, id string) (*model.PublicProfile, error) {
	user, err := u.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Public()
	return &p, nil
}

func (u *UserUsecase) newUser(name, email string, hash *string) *model.User {
	now := time.Now()
	return &model.User{
		ID:           idgen.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		TokenBalance: u.startingTokens,
		Level:        1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *UserUsecase) session(user *model.User) (*Session, error) {
	token, err := u.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > 50 {
		return invalid("name must be 1 to 50 characters")
	}
	return nil
}
