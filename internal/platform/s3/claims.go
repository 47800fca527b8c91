package s3

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/claims"
)

// TokenPrefix is the key prefix of stored cluster tokens.
const TokenPrefix = "tokens/"

// objectStore is the subset of Client the claim backends use.
type objectStore interface {
	CreateBucket(ctx context.Context, bucket string) (bool, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, bool, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// BucketBackend resolves object-container claims. The bucket name is the
// claim's logical name.
type BucketBackend struct {
	store objectStore
	log   logr.Logger
}

// NewBucketBackend creates a backend for backup containers.
func NewBucketBackend(c *Client, log logr.Logger) *BucketBackend {
	return &BucketBackend{store: c, log: log}
}

// Probe implements claims.Backend.
func (b *BucketBackend) Probe(ctx context.Context, req claims.Request) (claims.ProbeResult, error) {
	exists, err := b.store.BucketExists(ctx, req.LogicalName)
	if err != nil {
		return claims.ProbeResult{}, err
	}
	if !exists {
		return claims.ProbeResult{}, nil
	}
	return claims.ProbeResult{Found: true, ResourceID: req.LogicalName}, nil
}

// Create implements claims.Backend.
func (b *BucketBackend) Create(ctx context.Context, req claims.Request) (claims.ProbeResult, error) {
	existed, err := b.store.CreateBucket(ctx, req.LogicalName)
	if err != nil {
		return claims.ProbeResult{}, err
	}
	if existed {
		b.log.Info("bucket names are global; keeping the existing bucket", "bucket", req.LogicalName)
	}
	return claims.ProbeResult{Found: true, ResourceID: req.LogicalName, Existed: existed}, nil
}

// TokenBackend resolves credential claims by storing generated secrets as
// objects in a state bucket. Every creation is a new generation under
// tokens/<name>/; earlier generations stay stored and probes bind the newest.
type TokenBackend struct {
	store  objectStore
	bucket string
	log    logr.Logger
}

// NewTokenBackend creates a backend storing tokens in bucket.
func NewTokenBackend(c *Client, bucket string, log logr.Logger) *TokenBackend {
	return &TokenBackend{store: c, bucket: bucket, log: log}
}

func (b *TokenBackend) prefix(req claims.Request) string {
	return TokenPrefix + req.LogicalName + "/"
}

func (b *TokenBackend) resourceID(key string) string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, key)
}

// newest returns the key and number of the latest generation, or "" and 0.
func (b *TokenBackend) newest(ctx context.Context, req claims.Request) (string, int, error) {
	keys, err := b.store.ListObjects(ctx, b.bucket, b.prefix(req))
	if err != nil {
		return "", 0, err
	}
	var latest string
	var gen int
	for _, key := range keys {
		n, err := strconv.Atoi(strings.TrimPrefix(key, b.prefix(req)))
		if err != nil || n <= gen {
			continue
		}
		latest, gen = key, n
	}
	return latest, gen, nil
}

// Probe implements claims.Backend.
func (b *TokenBackend) Probe(ctx context.Context, req claims.Request) (claims.ProbeResult, error) {
	key, _, err := b.newest(ctx, req)
	if err != nil || key == "" {
		return claims.ProbeResult{}, err
	}
	data, found, err := b.store.GetObject(ctx, b.bucket, key)
	if err != nil {
		return claims.ProbeResult{}, err
	}
	if !found || len(data) == 0 {
		return claims.ProbeResult{}, nil
	}
	return claims.ProbeResult{Found: true, ResourceID: b.resourceID(key), Secret: string(data)}, nil
}

// Create implements claims.Backend. The token is written as the next
// generation; older tokens are left in place.
func (b *TokenBackend) Create(ctx context.Context, req claims.Request) (claims.ProbeResult, error) {
	if _, err := b.store.CreateBucket(ctx, b.bucket); err != nil {
		return claims.ProbeResult{}, err
	}
	_, gen, err := b.newest(ctx, req)
	if err != nil {
		return claims.ProbeResult{}, err
	}
	token, err := newToken()
	if err != nil {
		return claims.ProbeResult{}, err
	}
	key := fmt.Sprintf("%s%06d", b.prefix(req), gen+1)
	if err := b.store.PutObject(ctx, b.bucket, key, []byte(token)); err != nil {
		return claims.ProbeResult{}, err
	}
	b.log.V(1).Info("stored cluster token", "bucket", b.bucket, "key", key)
	return claims.ProbeResult{Found: true, ResourceID: b.resourceID(key), Secret: token}, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

var (
	_ claims.Backend = (*BucketBackend)(nil)
	_ claims.Backend = (*TokenBackend)(nil)
)
