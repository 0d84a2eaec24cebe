// Package session handles phone/password accounts, signed session tokens
// and the per-request current user.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"paymordomo/apperr"
	"paymordomo/kv"
	"paymordomo/models"
	"paymordomo/store"
	"paymordomo/validate"
)

// Rows is the subset of store.Store the session service needs.
type Rows interface {
	SelectOne(ctx context.Context, table string, f store.Filter, dest any) error
	Insert(ctx context.Context, table string, rows any) error
	Update(ctx context.Context, table string, f store.Filter, fields map[string]any) (int64, error)
}

type Config struct {
	Secret     string
	Expiry     time.Duration
	BcryptCost int
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type Service struct {
	rows  Rows
	cache kv.Store
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
}

// Always compared on unknown phones so response time does not leak which
// numbers are registered.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

var errBadCredentials = apperr.Unauthorized("Celular ou senha incorretos")

func NewService(rows Rows, cache kv.Store, cfg Config, log *zap.Logger) *Service {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{rows: rows, cache: cache, cfg: cfg, log: log, now: time.Now}
}

// Secret is the HMAC key, shared with the JWT middleware.
func (s *Service) Secret() []byte { return []byte(s.cfg.Secret) }

func (s *Service) Signup(ctx context.Context, name, phone, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Nome é obrigatório")
	}
	if !validate.Phone(phone) {
		return nil, apperr.Validation(validate.Message("phone", "phone_br"))
	}
	if !validate.Password(password) {
		return nil, apperr.Validation(validate.Message("password", "password"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Phone:        nonDigits.ReplaceAllString(phone, ""),
		Email:        PhoneToEmail(phone),
		PasswordHash: string(hash),
	}
	if err := s.rows.Insert(ctx, store.TableUsers, u); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, apperr.Wrap(apperr.KindConflict, "Este celular já está cadastrado", err)
		}
		return nil, err
	}
	s.log.Info("user signed up", zap.String("user_id", u.ID))
	return u, nil
}

func (s *Service) Login(ctx context.Context, phone, password string) (*Session, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return nil, apperr.Validation("Celular e senha são obrigatórios")
	}

	var u models.User
	err := s.rows.SelectOne(ctx, store.TableUsers, store.Filter{"email": PhoneToEmail(phone)}, &u)
	if apperr.KindOf(err) == apperr.KindNotFound {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		s.log.Warn("login failed", zap.String("reason", "unknown phone"))
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.log.Warn("login failed", zap.String("user_id", u.ID), zap.String("reason", "bad password"))
		return nil, errBadCredentials
	}

	sid := uuid.NewString()
	exp := s.now().Add(s.cfg.Expiry)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"sid":     sid,
		"iat":     s.now().Unix(),
		"exp":     exp.Unix(),
	})
	signed, err := tok.SignedString(s.Secret())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := kv.PutSession(ctx, s.cache, sid, signed, &u, s.cfg.Expiry); err != nil {
		s.log.Warn("session cache write failed", zap.Error(err))
	}

	s.log.Info("user logged in", zap.String("user_id", u.ID))
	return &Session{Token: signed, User: &u, ExpiresAt: exp}, nil
}

type claims struct {
	UserID    string
	SID       string
	ExpiresAt time.Time
}

func (s *Service) parse(token string, verify bool) (claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if verify {
		opts = append(opts, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	t, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return s.Secret(), nil }, opts...)
	if err != nil {
		return claims{}, apperr.Wrap(apperr.KindUnauthorized, "Sessão inválida ou expirada", err)
	}
	mc, _ := t.Claims.(jwt.MapClaims)
	uid, _ := mc["user_id"].(string)
	sid, _ := mc["sid"].(string)
	if uid == "" {
		return claims{}, apperr.Unauthorized("Sessão inválida ou expirada")
	}
	c := claims{UserID: uid, SID: sid}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Logout drops the cached session and revokes the token until it would have
// expired. Unknown or malformed tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	c, err := s.parse(token, false)
	if err != nil || c.SID == "" {
		return nil
	}
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return kv.DropSession(ctx, s.cache, c.SID)
	}
	if err := kv.Revoke(ctx, s.cache, c.SID, ttl); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	s.log.Info("user logged out", zap.String("user_id", c.UserID))
	return nil
}

// Restore verifies token and returns its user, from cache when possible and
// otherwise from the users table. A logged-out session fails.
func (s *Service) Restore(ctx context.Context, token string) (*models.User, error) {
	c, err := s.parse(token, true)
	if err != nil {
		return nil, err
	}

	if c.SID != "" {
		if revoked, err := kv.Revoked(ctx, s.cache, c.SID); err != nil {
			s.log.Warn("session cache read failed", zap.Error(err))
		} else if revoked {
			return nil, apperr.Unauthorized("Sessão encerrada")
		}

		cachedTok, err := kv.SessionToken(ctx, s.cache, c.SID)
		switch {
		case errors.Is(err, kv.ErrMiss):
		case err != nil:
			s.log.Warn("session cache read failed", zap.Error(err))
		case cachedTok != token:
			return nil, apperr.Unauthorized("Sessão inválida ou expirada")
		default:
			if u, err := kv.SessionUser(ctx, s.cache, c.SID); err == nil && u.ID == c.UserID {
				return u, nil
			}
		}
	}

	var u models.User
	if err := s.rows.SelectOne(ctx, store.TableUsers, store.Filter{"id": c.UserID}, &u); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("Usuário não autenticado")
		}
		return nil, err
	}
	if c.SID != "" {
		if err := kv.PutSession(ctx, s.cache, c.SID, token, &u, s.cfg.Expiry); err != nil {
			s.log.Warn("session cache write failed", zap.Error(err))
		}
	}
	return &u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID, name string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Usuário não autenticado")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Nome é obrigatório")
	}
	n, err := s.rows.Update(ctx, store.TableUsers, store.Filter{"id": userID}, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound("Usuário não encontrado")
	}
	var u models.User
	if err := s.rows.SelectOne(ctx, store.TableUsers, store.Filter{"id": userID}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func HasPermission(u *models.User, perm string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.PermissionList(), perm)
}
