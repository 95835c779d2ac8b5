package vault

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lexpraxis/LexPraxis/app/models"
	"github.com/lexpraxis/LexPraxis/app/repository"
	"github.com/lexpraxis/LexPraxis/internal/pkg/env"
)

// cacheTTL bounds how long a cached secret can be served without hitting the
// store. Secret rotations become visible to each process once its own cache
// expires; there is no cross-process invalidation.
const cacheTTL = 5 * time.Minute

// Vault is a time-cached, environment-scoped secret store. It is passed by
// reference to every collaborator that needs credentials; the cache is the
// only shared mutable state in the subsystem.
//
// The environment is derived once at construction and never re-read. Rotating
// the deployment environment requires a new instance.
type Vault struct {
	repo        repository.SecretRepository
	environment string

	mu        sync.Mutex
	cache     map[string]string
	expiresAt time.Time

	now func() time.Time
}

// New creates a vault scoped to the environment from APP_ENV.
func New(repo repository.SecretRepository) *Vault {
	return NewWithEnvironment(repo, env.GetEnv("APP_ENV", models.EnvironmentProd))
}

// NewWithEnvironment creates a vault scoped to an explicit environment.
func NewWithEnvironment(repo repository.SecretRepository, environment string) *Vault {
	return &Vault{
		repo:        repo,
		environment: strings.TrimSpace(environment),
		cache:       make(map[string]string),
		now:         time.Now,
	}
}

// Environment returns the environment this vault was constructed for.
func (v *Vault) Environment() string {
	return v.environment
}

// GetSecret resolves one secret by name. The whole environment's secret set is
// re-synchronized when the cache is expired, or once more when the key is not
// present in a still-valid cache. Store errors degrade to not-found.
func (v *Vault) GetSecret(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	refreshed := false
	if v.expiredLocked() {
		if err := v.refreshLocked(); err != nil {
			return "", false
		}
		refreshed = true
	}

	value, ok := v.cache[name]
	if !ok && !refreshed {
		if err := v.refreshLocked(); err != nil {
			return "", false
		}
		value, ok = v.cache[name]
	}
	return value, ok
}

// GetAllSecrets refreshes the cache and returns a snapshot of the full set.
func (v *Vault) GetAllSecrets() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.refreshLocked(); err != nil {
		return map[string]string{}
	}

	out := make(map[string]string, len(v.cache))
	for k, val := range v.cache {
		out[k] = val
	}
	return out
}

// SecretNames refreshes the cache and returns the stored secret names. The
// admin API lists names only; values never leave through this path.
func (v *Vault) SecretNames() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.refreshLocked(); err != nil {
		return nil
	}

	names := make([]string, 0, len(v.cache))
	for k := range v.cache {
		names = append(names, k)
	}
	return names
}

// SetSecret upserts a secret scoped to (name, environment) and eagerly updates
// the cache entry. A false return means the credential operation did not take
// effect; callers should not treat it as fatal by default.
func (v *Vault) SetSecret(name, value, description string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	secret := &models.Secret{
		Name:        name,
		Value:       value,
		Description: strings.TrimSpace(description),
		Environment: v.environment,
	}
	if err := v.repo.Upsert(secret); err != nil {
		log.Printf("vault: failed to upsert secret %q: %v", name, err)
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cache == nil {
		v.cache = make(map[string]string)
	}
	v.cache[name] = value
	return true
}

// DeleteSecret deletes the scoped row and evicts the cache entry.
func (v *Vault) DeleteSecret(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	if err := v.repo.Delete(name, v.environment); err != nil {
		log.Printf("vault: failed to delete secret %q: %v", name, err)
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cache, name)
	return true
}

// ClearCache forces the next read to refresh from the store.
func (v *Vault) ClearCache() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache = make(map[string]string)
	v.expiresAt = time.Time{}
}

// Refresh synchronously re-synchronizes the cache from the store.
func (v *Vault) Refresh() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshLocked()
}

func (v *Vault) expiredLocked() bool {
	return !v.now().Before(v.expiresAt)
}

// refreshLocked replaces the full cached set for this environment. A bulk
// refresh rather than point reads keeps a single stale key from diverging from
// a concurrent bulk update for longer than the TTL.
func (v *Vault) refreshLocked() error {
	secrets, err := v.repo.GetAllByEnvironment(v.environment)
	if err != nil {
		log.Printf("vault: cache refresh failed for environment %q: %v", v.environment, err)
		return err
	}

	fresh := make(map[string]string, len(secrets))
	for _, s := range secrets {
		fresh[s.Name] = s.Value
	}
	v.cache = fresh
	v.expiresAt = v.now().Add(cacheTTL)
	return nil
}
