package fetcher

import (
	"math/rand"
	"sync"

	"github.com/IshaanNene/PriceGoat/internal/config"
)

// Identity is the browser persona a session presents to a site.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
}

const defaultAcceptLanguage = "es-PE,es;q=0.9,en;q=0.8"

// IdentityPool hands out random identities from the configured lists.
// The random source is supplied by the caller so runs can be reproduced.
type IdentityPool struct {
	mu         sync.Mutex
	rng        *rand.Rand
	userAgents []string
	languages  []string
}

// NewIdentityPool creates a pool. A nil rng is replaced by a fixed-seed source.
func NewIdentityPool(userAgents, languages []string, rng *rand.Rand) *IdentityPool {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &IdentityPool{
		rng:        rng,
		userAgents: append([]string(nil), userAgents...),
		languages:  append([]string(nil), languages...),
	}
}

// Random returns a new identity. Safe for concurrent use.
func (p *IdentityPool) Random() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := Identity{
		UserAgent:      "PriceGoat/" + config.Version,
		AcceptLanguage: defaultAcceptLanguage,
	}
	if len(p.userAgents) > 0 {
		id.UserAgent = p.userAgents[p.rng.Intn(len(p.userAgents))]
	}
	if len(p.languages) > 0 {
		id.AcceptLanguage = p.languages[p.rng.Intn(len(p.languages))]
	}
	return id
}
