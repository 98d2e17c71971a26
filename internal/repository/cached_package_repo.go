package repository

import (
	"context"
	"log"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
)

const (
	packageListKeyPrefix = "packages:list:"
	packageByIDKeyPrefix = "packages:id:"
	packageGenKeyPrefix  = "packages:gen:"
)

// CachedPackageRepository wraps a PackageRepository with Redis caching.
// Every write invalidates the list and the document key of its catalogue and
// bumps the catalogue generation. A read-through fill only lands when the
// generation is unchanged since before the store read, so a read racing a
// write cannot put the old document back.
type CachedPackageRepository struct {
	store domain.PackageRepository
	cache *RedisCacheRepository
	ttl   time.Duration
}

// NewCachedPackageRepository creates a new cached package repository
func NewCachedPackageRepository(store domain.PackageRepository, cache *RedisCacheRepository, ttl time.Duration) *CachedPackageRepository {
	return &CachedPackageRepository{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

func listKey(pkgType domain.PackageType) string {
	return packageListKeyPrefix + string(pkgType)
}

func generationKey(pkgType domain.PackageType) string {
	return packageGenKeyPrefix + string(pkgType)
}

func packageKey(pkgType domain.PackageType, id string) string {
	return packageByIDKeyPrefix + string(pkgType) + ":" + id
}

func (r *CachedPackageRepository) List(ctx context.Context, pkgType domain.PackageType) ([]*domain.Package, error) {
	var packages []*domain.Package
	if err := r.cache.Get(ctx, listKey(pkgType), &packages); err == nil {
		return packages, nil
	}

	gen, genErr := r.cache.Generation(ctx, generationKey(pkgType))
	packages, err := r.store.List(ctx, pkgType)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	if genErr == nil {
		_, _ = r.cache.SetIfGeneration(ctx, generationKey(pkgType), gen, listKey(pkgType), packages, r.ttl)
	}
	return packages, nil
}

func (r *CachedPackageRepository) GetByID(ctx context.Context, pkgType domain.PackageType, id string) (*domain.Package, error) {
	var pkg domain.Package
	if err := r.cache.Get(ctx, packageKey(pkgType, id), &pkg); err == nil {
		return &pkg, nil
	}

	gen, genErr := r.cache.Generation(ctx, generationKey(pkgType))
	result, err := r.store.GetByID(ctx, pkgType, id)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		_, _ = r.cache.SetIfGeneration(ctx, generationKey(pkgType), gen, packageKey(pkgType, id), result, r.ttl)
	}
	return result, nil
}

func (r *CachedPackageRepository) Create(ctx context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	if err := r.store.Create(ctx, pkgType, pkg); err != nil {
		return err
	}
	r.invalidate(ctx, pkgType, pkg.ID)
	return nil
}

// Save always invalidates, also on version conflicts, so the retry reads fresh state.
func (r *CachedPackageRepository) Save(ctx context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	err := r.store.Save(ctx, pkgType, pkg)
	r.invalidate(ctx, pkgType, pkg.ID)
	return err
}

func (r *CachedPackageRepository) Delete(ctx context.Context, pkgType domain.PackageType, id string) error {
	err := r.store.Delete(ctx, pkgType, id)
	r.invalidate(ctx, pkgType, id)
	return err
}

func (r *CachedPackageRepository) invalidate(ctx context.Context, pkgType domain.PackageType, id string) {
	if err := r.cache.BumpGeneration(ctx, generationKey(pkgType)); err != nil {
		log.Printf("Warning: failed to bump package cache generation for %s: %v", pkgType, err)
	}
	if err := r.cache.Delete(ctx, listKey(pkgType), packageKey(pkgType, id)); err != nil {
		log.Printf("Warning: failed to invalidate package cache for %s/%s: %v", pkgType, id, err)
	}
}

// InvalidateCatalogue drops every cached entry of one catalogue. Used by
// tools that write to the document store without going through this cache.
func (r *CachedPackageRepository) InvalidateCatalogue(ctx context.Context, pkgType domain.PackageType) error {
	if err := r.cache.BumpGeneration(ctx, generationKey(pkgType)); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, listKey(pkgType)); err != nil {
		return err
	}
	return r.cache.DeleteByPattern(ctx, packageByIDKeyPrefix+string(pkgType)+":*")
}
