package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const DefaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// KakaoVerifier 用 access token 调用户信息接口换取邮箱
type KakaoVerifier struct {
	userInfoURL string
	http        *http.Client
}

func NewKakao(userInfoURL string, timeout time.Duration) *KakaoVerifier {
	if userInfoURL == "" {
		userInfoURL = DefaultKakaoUserInfoURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KakaoVerifier{userInfoURL: userInfoURL, http: &http.Client{Timeout: timeout}}
}

type kakaoUser struct {
	ID      int64 `json:"id"`
	Account struct {
		Email           string `json:"email"`
		IsEmailVerified bool   `json:"is_email_verified"`
		Profile         struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (k *KakaoVerifier) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrInvalidCredential
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, k.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao user info: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredential
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("kakao user info: unexpected status %d", resp.StatusCode)
	}

	var u kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("kakao user info: decode: %w", err)
	}
	if u.Account.Email == "" || !u.Account.IsEmailVerified {
		return nil, fmt.Errorf("%w: no verified email", ErrInvalidCredential)
	}
	return &Identity{
		Provider: "kakao",
		Subject:  strconv.FormatInt(u.ID, 10),
		Email:    strings.ToLower(u.Account.Email),
		Name:     u.Account.Profile.Nickname,
	}, nil
}
