// 包 auth 提供登录协作者：
// - Authenticator：可替换的凭据校验（默认 Static，读取配置中的 bcrypt 哈希）
// - Manager：登录/登出，在缓存中维护登录标记 {username, loginTime}
// - Tokens：HTTP 接口使用的 JWT 会话令牌
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"linkedin-analytics/internal/config"
	"linkedin-analytics/internal/logx"
	"linkedin-analytics/internal/store"
)

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator 校验凭据。
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// Static 为固定用户表，密码以 bcrypt 哈希保存。
type Static struct {
	users map[string][]byte
}

// NewStatic 由配置构造用户表。
func NewStatic(users []config.User) *Static {
	s := &Static{users: make(map[string][]byte, len(users))}
	for _, u := range users {
		s.users[u.Username] = []byte(u.PasswordHash)
	}
	return s
}

// dummyHash 用于未知用户时仍执行一次比较，使响应耗时与已知用户一致。
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("linkedin-analytics"), bcrypt.MinCost)

func (s *Static) Authenticate(_ context.Context, username, password string) error {
	hash, ok := s.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword 生成可写入配置的 bcrypt 哈希。
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Marker 为缓存中的登录标记。
type Marker struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
}

// Session 为一次成功登录的结果。
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	LoginTime time.Time `json:"login_time"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager 组合凭据校验、登录标记与会话令牌。
type Manager struct {
	authn  Authenticator
	cache  store.BlobStore
	tokens *Tokens

	mu      sync.Mutex
	revoked map[string]time.Time // jti → 过期时间
	now     func() time.Time
}

func NewManager(authn Authenticator, cache store.BlobStore, tokens *Tokens) *Manager {
	return &Manager{
		authn:   authn,
		cache:   cache,
		tokens:  tokens,
		revoked: map[string]time.Time{},
		now:     time.Now,
	}
}

// Login 校验凭据，写入登录标记（尽力而为）并签发令牌。
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := m.authn.Authenticate(ctx, username, password); err != nil {
		return nil, err
	}
	now := m.now()
	m.writeMarker(ctx, Marker{Username: username, LoginTime: now})
	s := &Session{Username: username, LoginTime: now}
	if m.tokens != nil {
		tok, exp, err := m.tokens.Issue(username, now)
		if err != nil {
			return nil, err
		}
		s.Token, s.ExpiresAt = tok, exp
	}
	logx.Infof("用户登录：%s", username)
	return s, nil
}

// Logout 删除登录标记；claims 非空时同时吊销该令牌。
func (m *Manager) Logout(ctx context.Context, claims *Claims) {
	if claims != nil && claims.ID != "" {
		m.mu.Lock()
		exp := m.now().Add(24 * time.Hour)
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		m.revoked[claims.ID] = exp
		m.mu.Unlock()
	}
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, store.KeyUser); err != nil {
		logx.Warnf("删除登录标记失败：%v", err)
	}
}

// Current 读取登录标记；不存在或损坏时返回 false，损坏的标记会被删除。
func (m *Manager) Current(ctx context.Context) (*Marker, bool) {
	if m.cache == nil {
		return nil, false
	}
	b, err := m.cache.Get(ctx, store.KeyUser)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logx.Warnf("读取登录标记失败：%v", err)
		}
		return nil, false
	}
	var mk Marker
	if err := json.Unmarshal(b, &mk); err != nil || mk.Username == "" {
		logx.Warnf("登录标记损坏，已清除")
		_ = m.cache.Delete(ctx, store.KeyUser)
		return nil, false
	}
	return &mk, true
}

// Verify 校验令牌并检查是否已被吊销。
func (m *Manager) Verify(token string) (*Claims, error) {
	if m.tokens == nil {
		return nil, errors.New("tokens not configured")
	}
	c, err := m.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
	if _, ok := m.revoked[c.ID]; ok {
		return nil, errors.New("token revoked")
	}
	return c, nil
}

func (m *Manager) writeMarker(ctx context.Context, mk Marker) {
	if m.cache == nil {
		return
	}
	b, err := json.Marshal(mk)
	if err != nil {
		logx.Warnf("编码登录标记失败：%v", err)
		return
	}
	if err := m.cache.Put(ctx, store.KeyUser, b); err != nil {
		logx.Warnf("写入登录标记失败：%v", err)
	}
}
