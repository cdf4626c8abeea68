// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultKeySetTTL is how long a CachingResolver keeps a key set when no ttl
// is given.
const DefaultKeySetTTL = 15 * time.Minute

// CachingResolver keeps successfully fetched key sets for a ttl in front of
// another KeySetFetcher. Failed fetches are never cached.
type CachingResolver struct {
	next  KeySetFetcher
	cache *cache.Cache
}

// NewCachingResolver wraps next. A ttl <= 0 means DefaultKeySetTTL.
func NewCachingResolver(next KeySetFetcher, ttl time.Duration) *CachingResolver {
	if ttl <= 0 {
		ttl = DefaultKeySetTTL
	}
	return &CachingResolver{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Fetch returns a cached key set for jwksURL or fetches it from the wrapped
// fetcher.
func (c *CachingResolver) Fetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	if v, ok := c.cache.Get(jwksURL); ok {
		return v.(*KeySet), nil
	}
	ks, err := c.next.Fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}
	c.cache.Set(jwksURL, ks, cache.DefaultExpiration)
	return ks, nil
}

// Invalidate drops the cached key set for jwksURL, e.g. after a signature
// failure caused by key rotation.
func (c *CachingResolver) Invalidate(jwksURL string) {
	c.cache.Delete(jwksURL)
}
