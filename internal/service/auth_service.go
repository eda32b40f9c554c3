package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/authz"
	coreauth "github.com/gbi46/photo-share/internal/core/auth"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
	"github.com/gbi46/photo-share/pkg/utils"
)

type AuthOptions struct {
	DefaultRole string
	// 历史兼容：升权注册时额外挂基础 user 角色
	GrantBaselineRole bool
}

type AuthService struct {
	db     *gorm.DB
	users  *repo.UserRepo
	tokens *repo.TokenRepo
	boot   *authz.Bootstrap
	jwter  *coreauth.JWTer
	opts   AuthOptions
	log    *zap.Logger
}

func NewAuthService(
	db *gorm.DB,
	users *repo.UserRepo,
	tokens *repo.TokenRepo,
	boot *authz.Bootstrap,
	jwter *coreauth.JWTer,
	opts AuthOptions,
	log *zap.Logger,
) *AuthService {
	if opts.DefaultRole == "" {
		opts.DefaultRole = authz.RoleUser
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{db: db, users: users, tokens: tokens, boot: boot, jwter: jwter, opts: opts, log: log}
}

type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string // 为空按配置默认（user）
}

// Signup 注册并完成授权初态：库里还没有任何用户时，
// 第一个注册者强制成为 admin，无视其请求的角色
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if existing, err := s.users.FindByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.users.FindByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	roleName := in.Role
	if roleName == "" {
		roleName = s.opts.DefaultRole
	}

	anyUser, err := s.users.Any(ctx)
	if err != nil {
		return nil, err
	}
	if !anyUser {
		roleName = authz.RoleAdmin
	}

	return s.provision(ctx, in, roleName)
}

// provision 建用户行并把角色关联落在同一个事务里，要么全有要么全无
func (s *AuthService) provision(ctx context.Context, in SignupInput, roleName string) (*domain.User, error) {
	role, err := s.boot.EnsureRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	roles := []domain.Role{{ID: role.ID, Name: role.Name}}
	if s.opts.GrantBaselineRole && roleName != authz.RoleUser {
		base, err := s.boot.EnsureRole(ctx, authz.RoleUser)
		if err != nil {
			return nil, err
		}
		roles = append(roles, domain.Role{ID: base.ID, Name: base.Name})
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Status:       domain.StatusActive,
		Roles:        roles,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 角色行已提交，这里只写 users + user_roles
		return tx.Omit("Roles.*").Create(u).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user provisioned",
		zap.String("user_id", u.ID),
		zap.String("username", u.Username),
		zap.String("role", roleName),
	)
	return u, nil
}

// Login 校验口令后签双 token，refresh 持久化备轮换
func (s *AuthService) Login(ctx context.Context, username, password string) (coreauth.TokenPair, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return coreauth.TokenPair{}, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return coreauth.TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return coreauth.TokenPair{}, ErrUserInactive
	}
	return s.issueAndStore(ctx, u.ID)
}

// Refresh 轮换：旧 token 必须在库且未吊销未过期，验完即吊销
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (coreauth.TokenPair, error) {
	claims, err := s.jwter.ParseRefresh(refreshToken)
	if err != nil {
		return coreauth.TokenPair{}, ErrInvalidRefreshToken
	}

	row, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return coreauth.TokenPair{}, err
	}
	if row == nil || row.Revoked() || time.Now().After(row.ExpiresAt) {
		return coreauth.TokenPair{}, ErrInvalidRefreshToken
	}

	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return coreauth.TokenPair{}, err
	}
	if u == nil || !u.IsActive() {
		return coreauth.TokenPair{}, ErrUserInactive
	}

	if err := s.tokens.Revoke(ctx, row.ID); err != nil {
		return coreauth.TokenPair{}, err
	}
	return s.issueAndStore(ctx, u.ID)
}

func (s *AuthService) issueAndStore(ctx context.Context, userID string) (coreauth.TokenPair, error) {
	pair, err := s.jwter.IssuePair(userID)
	if err != nil {
		return coreauth.TokenPair{}, err
	}
	expiresAt := time.Now().Add(s.jwter.RefreshTTL)
	if err := s.tokens.Store(ctx, userID, pair.RefreshToken, expiresAt); err != nil {
		return coreauth.TokenPair{}, err
	}
	return pair, nil
}
