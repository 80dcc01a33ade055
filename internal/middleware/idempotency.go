package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"

	// replayTTL is how long a completed order response is replayed.
	replayTTL = 24 * time.Hour
	// claimTTL bounds how long a crashed request blocks its key.
	claimTTL = 30 * time.Second
)

const (
	entryInFlight  = "in_flight"
	entryCompleted = "completed"
)

// idempotencyEntry is the record kept per key. An in-flight entry marks a
// request still being processed; a completed one carries the response.
type idempotencyEntry struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// bodyRecorder tees the handler's response into a buffer.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// errClaimExpired reports a claim that expired between SETNX and GET.
var errClaimExpired = errors.New("idempotency claim expired")

type idempotencyStore struct {
	client *redis.Client
}

// claim marks key as in flight. When the key is already taken the existing
// entry is returned instead.
func (s idempotencyStore) claim(ctx context.Context, key, fingerprint string) (*idempotencyEntry, error) {
	data, err := json.Marshal(idempotencyEntry{State: entryInFlight, Fingerprint: fingerprint})
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, key, data, claimTTL).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errClaimExpired
	}
	if err != nil {
		return nil, err
	}

	var existing idempotencyEntry
	if err := json.Unmarshal(raw, &existing); err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s idempotencyStore) complete(ctx context.Context, key string, entry idempotencyEntry) error {
	entry.State = entryCompleted
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, replayTTL).Err()
}

func (s idempotencyStore) release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// IdempotencyMiddleware makes order creation safe to retry. A repeated
// Idempotency-Key with the same body replays the first successful response, a
// repeat while the first request is still running gets 409 and a repeat with
// a different body gets 422. Keys are scoped to the caller and route.
// Failed responses release the key so the client can retry for real.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if redisClient == nil || key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		fingerprint, err := requestFingerprint(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		store := idempotencyStore{client: redisClient}
		ctx := c.Request.Context()
		redisKey := idempotencyKey(c, key)

		existing, err := store.claim(ctx, redisKey, fingerprint)
		if err != nil {
			// Redis unavailable; serve without idempotency.
			c.Next()
			return
		}

		if existing != nil {
			switch {
			case existing.Fingerprint != fingerprint:
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
					"error": "Idempotency-Key was already used with a different request body",
				})
			case existing.State == entryInFlight:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "a request with this Idempotency-Key is still in progress",
				})
			default:
				c.Header("Idempotent-Replayed", "true")
				c.Data(existing.StatusCode, existing.ContentType, existing.Body)
				c.Abort()
			}
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		// The request context may already be cancelled once the client has
		// its response.
		storeCtx := context.WithoutCancel(ctx)
		status := recorder.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			_ = store.release(storeCtx, redisKey)
			return
		}

		_ = store.complete(storeCtx, redisKey, idempotencyEntry{
			Fingerprint: fingerprint,
			StatusCode:  status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
	}
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// requestFingerprint hashes the request body and restores it for the handler.
func requestFingerprint(c *gin.Context) (string, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func idempotencyKey(c *gin.Context, key string) string {
	owner := "anonymous"
	if principal, ok := PrincipalFrom(c); ok {
		owner = principal.ID
	}

	return fmt.Sprintf("idempotency:%s:%s:%s:%s", owner, c.Request.Method, c.FullPath(), key)
}
