package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	timeFormat  = "2006-01-02 15:04:05"
	authKeyTpl  = "auth:%s" // auth:${member}
	tokenPrefix = "sk-krdmm-"
)

// TokenInfo mirrors the redis hash kept per member token.
type TokenInfo struct {
	Token           string `json:"token"`
	Role            string `json:"role"`
	RequestCount    int    `json:"request_count"`
	LastRequestDttm string `json:"last_request_dttm_utc"`
	CreatedDttm     string `json:"created_dttm_utc"`
}

// TokenManager issues and looks up API tokens; the bot is its main consumer.
type TokenManager struct {
	redis *redis.Client
}

func NewTokenManager(redis *redis.Client) *TokenManager {
	return &TokenManager{redis: redis}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// FetchOrCreateMemberToken returns the member's API token, minting one with
// the given role if none exists yet. The second result reports whether the
// token is new.
func (tm *TokenManager) FetchOrCreateMemberToken(ctx context.Context, memberID, role string) (*TokenInfo, bool, error) {
	memberID = strings.ToUpper(strings.TrimSpace(memberID))
	key := fmt.Sprintf(authKeyTpl, memberID)

	token, err := tm.redis.HGet(ctx, key, "token").Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to check token: %w", err)
	}

	now := time.Now().UTC()
	isNewToken := false

	if err == redis.Nil {
		token, err = generateToken()
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate token: %w", err)
		}

		pipe := tm.redis.Pipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"token":                 token,
			"role":                  role,
			"request_count":         0,
			"created_dttm_utc":      now.Format(timeFormat),
			"last_request_dttm_utc": now.Format(timeFormat),
		})
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to store token: %w", err)
		}
		isNewToken = true
	}

	fields, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read token info: %w", err)
	}

	info := &TokenInfo{
		Token:           token,
		Role:            fields["role"],
		CreatedDttm:     fields["created_dttm_utc"],
		LastRequestDttm: fields["last_request_dttm_utc"],
	}
	return info, isNewToken, nil
}
