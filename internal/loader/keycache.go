package loader

import (
	"github.com/patrickmn/go-cache"
)

// Dimension names a conformed dimension of the star schema.
type Dimension string

const (
	DimSentiment Dimension = "sentiment"
	DimSource    Dimension = "source"
	DimProduct   Dimension = "product"
	DimClient    Dimension = "client"
	DimTime      Dimension = "time"
)

// KeyCache maps natural keys to surrogate keys for one Loader. It is a
// derived copy of the store and can be rebuilt with Loader.WarmCache.
type KeyCache struct {
	items *cache.Cache
}

func NewKeyCache() *KeyCache {
	return &KeyCache{items: cache.New(cache.NoExpiration, 0)}
}

func cacheKey(dim Dimension, natural string) string {
	return string(dim) + ":" + natural
}

func (k *KeyCache) Get(dim Dimension, natural string) (int, bool) {
	v, ok := k.items.Get(cacheKey(dim, natural))
	if !ok {
		return 0, false
	}
	key, ok := v.(int)
	return key, ok
}

func (k *KeyCache) Set(dim Dimension, natural string, key int) {
	k.items.Set(cacheKey(dim, natural), key, cache.NoExpiration)
}

func (k *KeyCache) Len() int {
	return k.items.ItemCount()
}

func (k *KeyCache) Reset() {
	k.items.Flush()
}

// pendingKeys overlays keys resolved inside an open transaction. They reach
// the shared cache only on commit, so a rolled back batch leaves no key
// behind that the store does not hold.
type pendingKeys struct {
	base   *KeyCache
	staged map[string]int
}

func newPendingKeys(base *KeyCache) *pendingKeys {
	return &pendingKeys{base: base, staged: make(map[string]int)}
}

func (p *pendingKeys) Get(dim Dimension, natural string) (int, bool) {
	if key, ok := p.staged[cacheKey(dim, natural)]; ok {
		return key, true
	}
	return p.base.Get(dim, natural)
}

func (p *pendingKeys) Set(dim Dimension, natural string, key int) {
	p.staged[cacheKey(dim, natural)] = key
}

func (p *pendingKeys) commit() {
	for k, v := range p.staged {
		p.base.items.Set(k, v, cache.NoExpiration)
	}
	p.staged = make(map[string]int)
}
