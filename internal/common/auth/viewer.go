// internal/common/auth/viewer.go
package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	ErrMissingToken  = stderrors.New("MISSING_TOKEN")
	ErrNoProfileRole = stderrors.New("NO_PROFILE_ROLE")
)

// MetricsSource looks up the social metrics a user has connected. It returns
// nil metrics and no error when the user has none.
type MetricsSource interface {
	ConnectedMetrics(ctx context.Context, userID string) (*models.ConnectedMetrics, error)
}

// ViewerResolver turns a bearer token into the ViewerContext the matching
// engine is called with.
type ViewerResolver struct {
	tokens   TokenValidator
	metrics  MetricsSource
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewViewerResolver builds a resolver. metrics and redis may be nil.
func NewViewerResolver(tokens TokenValidator, metrics MetricsSource, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *ViewerResolver {
	return &ViewerResolver{
		tokens:   tokens,
		metrics:  metrics,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "viewer-resolver"}),
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Resolve validates token and builds the viewer. Connected metrics are best
// effort: a lookup failure leaves them nil.
func (r *ViewerResolver) Resolve(ctx context.Context, token string) (models.ViewerContext, error) {
	if token == "" {
		return models.ViewerContext{}, errors.NewViewerResolutionFailedError(ErrMissingToken)
	}

	info, err := r.tokens.ValidateToken(ctx, token)
	if err != nil {
		return models.ViewerContext{}, errors.NewViewerResolutionFailedError(err)
	}

	role, err := roleFromToken(info)
	if err != nil {
		return models.ViewerContext{}, errors.NewViewerResolutionFailedError(err)
	}

	viewer := models.ViewerContext{Role: role, UserID: info.Sub}
	viewer.Connected = r.LookupMetrics(ctx, info.Sub)
	return viewer, nil
}

func roleFromToken(info *TokenInfo) (models.Role, error) {
	switch {
	case info.HasRole(string(models.RoleBrand)):
		return models.RoleBrand, nil
	case info.HasRole(string(models.RoleInfluencer)):
		return models.RoleInfluencer, nil
	}
	return "", fmt.Errorf("%w: subject %s", ErrNoProfileRole, info.Sub)
}

func metricsCacheKey(userID string) string {
	return "viewer:metrics:" + userID
}

// LookupMetrics returns the user's connected metrics from Redis, falling back
// to the metrics source. Failures are logged and yield nil.
func (r *ViewerResolver) LookupMetrics(ctx context.Context, userID string) *models.ConnectedMetrics {
	if r.metrics == nil || userID == "" {
		return nil
	}

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, metricsCacheKey(userID)).Result(); err == nil {
			var cm models.ConnectedMetrics
			if err := json.Unmarshal([]byte(val), &cm); err == nil {
				return &cm
			}
		}
	}

	cm, err := r.metrics.ConnectedMetrics(ctx, userID)
	if err != nil {
		r.logger.Warn("failed to load connected metrics", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		return nil
	}
	if cm == nil {
		return nil
	}

	if r.redis != nil {
		data, _ := json.Marshal(cm)
		if err := r.redis.Set(ctx, metricsCacheKey(userID), data, r.cacheTTL).Err(); err != nil {
			r.logger.Warn("failed to cache connected metrics", map[string]interface{}{"userId": userID, "error": err})
		}
	}
	return cm
}
