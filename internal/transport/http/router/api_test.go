package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gbi46/photo-share/internal/authz"
	coreauth "github.com/gbi46/photo-share/internal/core/auth"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
	"github.com/gbi46/photo-share/internal/service"
	resp "github.com/gbi46/photo-share/internal/transport/http/response"
)

type harness struct {
	db     *gorm.DB
	api    *gin.Engine
	admin  *gin.Engine
	engine *authz.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Role{}, &domain.Permission{},
		&domain.User{}, &domain.RefreshToken{},
		&domain.Post{}, &domain.Tag{}, &domain.Comment{}, &domain.PostRating{},
	))

	jwter := &coreauth.JWTer{
		Secret:        []byte("test-access"),
		RefreshSecret: []byte("test-refresh"),
		Issuer:        "photo-share-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
	userRepo := repo.NewUserRepo(db)
	tokenRepo := repo.NewTokenRepo(db)
	postRepo := repo.NewPostRepo(db)
	commentRepo := repo.NewCommentRepo(db)

	boot := authz.NewBootstrap(db, nil, nil)
	engine := authz.NewEngine(db, nil)

	deps := Deps{
		Log:    zap.NewNop(),
		JWTer:  jwter,
		Users:  userRepo,
		Engine: engine,
		Auth: service.NewAuthService(db, userRepo, tokenRepo, boot, jwter, service.AuthOptions{
			DefaultRole: authz.RoleUser,
		}, nil),
		Accounts: service.NewUserService(userRepo),
		Posts: service.NewPostService(postRepo, service.PostOptions{
			MaxTags: 5, BaseURL: "http://127.0.0.1:8080",
		}),
		Comments: service.NewCommentService(commentRepo, postRepo),
	}

	return &harness{
		db:     db,
		api:    NewAPIEngine(deps),
		admin:  NewAdminEngine(deps, db),
		engine: engine,
	}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (h *harness) do(t *testing.T, eng *gin.Engine, method, path, token string, body any) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	eng.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (h *harness) signup(t *testing.T, username, role string) {
	t.Helper()
	in := gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	}
	if role != "" {
		in["role"] = role
	}
	env := h.do(t, h.api, http.MethodPost, "/api/v1/auth/signup", "", in)
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
}

func (h *harness) login(t *testing.T, username string) string {
	t.Helper()
	env := h.do(t, h.api, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": username, "password": "secret1",
	})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	var pair struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.api.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupLoginMeFlow(t *testing.T) {
	h := newHarness(t)

	h.signup(t, "alice", "")
	tok := h.login(t, "alice")

	env := h.do(t, h.api, http.MethodGet, "/api/v1/me", tok, nil)
	require.Equal(t, resp.CodeOK, env.Code)

	var me struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice", me.Username)
	// 空库第一人强制 admin
	assert.Equal(t, []string{authz.RoleAdmin}, me.Roles)
}

func TestMeRequiresToken(t *testing.T) {
	h := newHarness(t)
	env := h.do(t, h.api, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, resp.CodeUnauthorized, env.Code)
}

func TestPostCrudThroughAccessEngine(t *testing.T) {
	h := newHarness(t)

	// alice 是空库第一人 → admin；bob 发帖，carol 旁观
	h.signup(t, "alice", "")
	h.signup(t, "bob", authz.RoleUser)
	h.signup(t, "carol", authz.RoleUser)
	aliceTok := h.login(t, "alice")
	bobTok := h.login(t, "bob")
	carolTok := h.login(t, "carol")

	// bob 发帖
	env := h.do(t, h.api, http.MethodPost, "/api/v1/posts", bobTok, gin.H{
		"title": "sunset", "tags": []string{"sky"},
	})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	// 公共读不登录也行
	env = h.do(t, h.api, http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	assert.Equal(t, resp.CodeOK, env.Code)

	// carol 改不了别人的帖子
	env = h.do(t, h.api, http.MethodPut, "/api/v1/posts/"+post.ID, carolTok, gin.H{"description": "x"})
	assert.Equal(t, resp.CodeForbidden, env.Code)

	// bob 自己能改
	env = h.do(t, h.api, http.MethodPut, "/api/v1/posts/"+post.ID, bobTok, gin.H{"description": "evening"})
	assert.Equal(t, resp.CodeOK, env.Code)

	// 改不存在的帖子先报 404
	env = h.do(t, h.api, http.MethodPut, "/api/v1/posts/missing-id", bobTok, gin.H{"description": "x"})
	assert.Equal(t, resp.CodeNotFound, env.Code)

	// admin 走角色捷径删除
	env = h.do(t, h.api, http.MethodDelete, "/api/v1/posts/"+post.ID, aliceTok, nil)
	assert.Equal(t, resp.CodeOK, env.Code)

	env = h.do(t, h.api, http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	assert.Equal(t, resp.CodeNotFound, env.Code)
}

func TestCommentRoutesEnforceAsymmetry(t *testing.T) {
	h := newHarness(t)

	// alice 占掉 admin 席位；bob 是帖主，mia 是版主
	h.signup(t, "alice", "")
	h.signup(t, "bob", authz.RoleUser)
	h.signup(t, "mia", authz.RoleModerator)
	bobTok := h.login(t, "bob")
	miaTok := h.login(t, "mia")

	env := h.do(t, h.api, http.MethodPost, "/api/v1/posts", bobTok, gin.H{"title": "t"})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	env = h.do(t, h.api, http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", bobTok, gin.H{"message": "hi"})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	var comment struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &comment))

	// moderator 没有 update_all_comments：角色身份不够
	env = h.do(t, h.api, http.MethodPut, "/api/v1/comments/"+comment.ID, miaTok, gin.H{"message": "edit"})
	assert.Equal(t, resp.CodeForbidden, env.Code)

	// 但 delete_all_comments 在默认集里
	env = h.do(t, h.api, http.MethodDelete, "/api/v1/comments/"+comment.ID, miaTok, nil)
	assert.Equal(t, resp.CodeOK, env.Code)
}

func TestModeratorCannotCreatePostWithoutUserRole(t *testing.T) {
	h := newHarness(t)

	h.signup(t, "alice", "")
	h.signup(t, "mia", authz.RoleModerator)
	miaTok := h.login(t, "mia")

	// 发帖闸是字面 user 角色
	env := h.do(t, h.api, http.MethodPost, "/api/v1/posts", miaTok, gin.H{"title": "t"})
	assert.Equal(t, resp.CodeForbidden, env.Code)
}

func TestAccountRoutes(t *testing.T) {
	h := newHarness(t)

	h.signup(t, "alice", "") // admin
	h.signup(t, "bob", authz.RoleUser)
	h.signup(t, "carol", authz.RoleUser)
	aliceTok := h.login(t, "alice")
	bobTok := h.login(t, "bob")

	var bob domain.User
	require.NoError(t, h.db.Where("username = ?", "bob").First(&bob).Error)

	// 本人可看可改
	env := h.do(t, h.api, http.MethodGet, "/api/v1/users/account/"+bob.ID, bobTok, nil)
	assert.Equal(t, resp.CodeOK, env.Code)
	env = h.do(t, h.api, http.MethodPut, "/api/v1/users/account/"+bob.ID, bobTok, gin.H{
		"username": "bob", "email": "bob@example.com", "first_name": "Bob",
	})
	assert.Equal(t, resp.CodeOK, env.Code)

	// 他人不行
	carolTok := h.login(t, "carol")
	env = h.do(t, h.api, http.MethodGet, "/api/v1/users/account/"+bob.ID, carolTok, nil)
	assert.Equal(t, resp.CodeForbidden, env.Code)

	// admin 可以，且能封禁
	env = h.do(t, h.api, http.MethodGet, "/api/v1/users/account/"+bob.ID, aliceTok, nil)
	assert.Equal(t, resp.CodeOK, env.Code)
	env = h.do(t, h.api, http.MethodPut, "/api/v1/users/account/"+bob.ID+"/status", aliceTok, gin.H{"status": "ban"})
	assert.Equal(t, resp.CodeOK, env.Code)

	// 封了就登不进
	envLogin := h.do(t, h.api, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "bob", "password": "secret1",
	})
	assert.Equal(t, resp.CodeForbidden, envLogin.Code)

	// 普通用户碰不到封禁口
	env = h.do(t, h.api, http.MethodPut, "/api/v1/users/account/"+bob.ID+"/status", carolTok, gin.H{"status": "active"})
	assert.Equal(t, resp.CodeForbidden, env.Code)
}

func TestProfileRoute(t *testing.T) {
	h := newHarness(t)

	h.signup(t, "alice", "")
	tok := h.login(t, "alice")

	env := h.do(t, h.api, http.MethodGet, "/api/v1/users/profile/alice", tok, nil)
	require.Equal(t, resp.CodeOK, env.Code)

	env = h.do(t, h.api, http.MethodGet, "/api/v1/users/profile/nobody", tok, nil)
	assert.Equal(t, resp.CodeNotFound, env.Code)
}

func TestRatingAndQRRoutes(t *testing.T) {
	h := newHarness(t)

	h.signup(t, "alice", "")
	h.signup(t, "bob", authz.RoleUser)
	bobTok := h.login(t, "bob")

	env := h.do(t, h.api, http.MethodPost, "/api/v1/posts", bobTok, gin.H{"title": "t"})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	env = h.do(t, h.api, http.MethodPost, "/api/v1/posts/"+post.ID+"/rating", bobTok, gin.H{"rating": 4})
	require.Equal(t, resp.CodeOK, env.Code)
	var rated struct {
		AvgRating float64 `json:"avgRating"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rated))
	assert.Equal(t, 4.0, rated.AvgRating)

	env = h.do(t, h.api, http.MethodGet, "/api/v1/posts/"+post.ID+"/qr", "", nil)
	require.Equal(t, resp.CodeOK, env.Code)
	var share struct {
		QRCode string `json:"qr_code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &share))
	assert.Contains(t, share.QRCode, "data:image/png;base64,")
}

func TestAdminEngineGuardsAndActions(t *testing.T) {
	h := newHarness(t)

	h.signup(t, "alice", "") // admin
	h.signup(t, "bob", authz.RoleUser)
	aliceTok := h.login(t, "alice")
	bobTok := h.login(t, "bob")

	// 非 admin 全拒
	env := h.do(t, h.admin, http.MethodGet, "/admin/v1/users", bobTok, nil)
	assert.Equal(t, resp.CodeForbidden, env.Code)

	// admin 列表 + 搜索
	env = h.do(t, h.admin, http.MethodGet, "/admin/v1/users?q=bob", aliceTok, nil)
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	var list struct {
		Total int64 `json:"total"`
		Items []struct {
			Username string `json:"username"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.EqualValues(t, 1, list.Total)
	assert.Equal(t, "bob", list.Items[0].Username)

	// 封禁走状态位
	var bob domain.User
	require.NoError(t, h.db.Where("username = ?", "bob").First(&bob).Error)
	env = h.do(t, h.admin, http.MethodPut, "/admin/v1/users/"+bob.ID+"/status", aliceTok, gin.H{"status": "ban"})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)

	require.NoError(t, h.db.Where("username = ?", "bob").First(&bob).Error)
	assert.Equal(t, domain.StatusBan, bob.Status)

	// 不存在的用户
	env = h.do(t, h.admin, http.MethodPut, "/admin/v1/users/missing-id/status", aliceTok, gin.H{"status": "ban"})
	assert.Equal(t, resp.CodeNotFound, env.Code)
}
