package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
)

// memPackages is an in-memory PackageRepository with the same version rules as the real stores
type memPackages struct {
	mu   sync.Mutex
	docs map[domain.PackageType]map[string]*domain.Package

	// conflicts makes the next N saves fail as if another session wrote first
	conflicts int
	saves     int
	listErr   error
}

func newMemPackages() *memPackages {
	return &memPackages{docs: map[domain.PackageType]map[string]*domain.Package{}}
}

func (r *memPackages) put(pkgType domain.PackageType, pkg *domain.Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docs[pkgType] == nil {
		r.docs[pkgType] = map[string]*domain.Package{}
	}
	if pkg.Version == 0 {
		pkg.Version = 1
	}
	pkg.Normalize()
	r.docs[pkgType][pkg.ID] = pkg.Clone()
}

func (r *memPackages) stored(pkgType domain.PackageType, id string) *domain.Package {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[pkgType][id].Clone()
}

func (r *memPackages) List(_ context.Context, pkgType domain.PackageType) ([]*domain.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Package, 0, len(r.docs[pkgType]))
	for _, p := range r.docs[pkgType] {
		out = append(out, p.Clone())
	}
	domain.SortPackages(out)
	return out, nil
}

func (r *memPackages) GetByID(_ context.Context, pkgType domain.PackageType, id string) (*domain.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.docs[pkgType][id]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	return p.Clone(), nil
}

func (r *memPackages) Create(_ context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docs[pkgType] == nil {
		r.docs[pkgType] = map[string]*domain.Package{}
	}
	existing := make([]*domain.Package, 0, len(r.docs[pkgType]))
	for _, p := range r.docs[pkgType] {
		existing = append(existing, p)
	}
	pkg.ID = domain.NextPackageID(existing)
	pkg.Version = 1
	pkg.Normalize()
	r.docs[pkgType][pkg.ID] = pkg.Clone()
	return nil
}

func (r *memPackages) Save(_ context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[pkgType][pkg.ID]
	if !ok {
		return domain.ErrPackageNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored.Version++
		return domain.ErrVersionConflict
	}
	if stored.Version != pkg.Version {
		return domain.ErrVersionConflict
	}
	r.saves++
	pkg.Version++
	pkg.UpdatedAt = time.Now()
	r.docs[pkgType][pkg.ID] = pkg.Clone()
	return nil
}

func (r *memPackages) Delete(_ context.Context, pkgType domain.PackageType, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[pkgType][id]; !ok {
		return domain.ErrPackageNotFound
	}
	delete(r.docs[pkgType], id)
	return nil
}

// memMembers is an in-memory TripMemberRepository
type memMembers struct {
	mu      sync.Mutex
	members map[string]*domain.TripMember
	nextID  int

	// countErr fails CountByDateRange for the given date range ids
	countErr map[string]error
}

func newMemMembers() *memMembers {
	return &memMembers{members: map[string]*domain.TripMember{}, countErr: map[string]error{}}
}

func (r *memMembers) insert(m domain.TripMember) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = fmt.Sprintf("m%d", r.nextID)
	r.members[m.ID] = &m
}

func (r *memMembers) ListByDateRange(_ context.Context, packageID, dateRangeID string) ([]*domain.TripMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TripMember
	for _, m := range r.members {
		if m.PackageID == packageID && m.DateRangeID == dateRangeID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMembers) CountByDateRange(ctx context.Context, packageID, dateRangeID string) (int, error) {
	r.mu.Lock()
	err := r.countErr[dateRangeID]
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}
	members, _ := r.ListByDateRange(ctx, packageID, dateRangeID)
	return len(members), nil
}

func (r *memMembers) CountByPackage(_ context.Context, pkgType domain.PackageType, packageID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.members {
		if m.PackageType == pkgType && m.PackageID == packageID {
			n++
		}
	}
	return n, nil
}

func (r *memMembers) GetByID(_ context.Context, id string) (*domain.TripMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMembers) Create(_ context.Context, member *domain.TripMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	member.ID = fmt.Sprintf("m%d", r.nextID)
	cp := *member
	r.members[member.ID] = &cp
	return nil
}

func (r *memMembers) Update(_ context.Context, member *domain.TripMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[member.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	cp := *member
	r.members[member.ID] = &cp
	return nil
}

func (r *memMembers) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *memMembers) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// memSchemas is an in-memory DetailSchemaRepository
type memSchemas struct {
	mu      sync.Mutex
	schemas map[domain.PackageType]domain.DetailSchema
}

func newMemSchemas() *memSchemas {
	return &memSchemas{schemas: map[domain.PackageType]domain.DetailSchema{}}
}

func (r *memSchemas) Get(_ context.Context, pkgType domain.PackageType) (*domain.DetailSchema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[pkgType]
	if !ok {
		return &domain.DetailSchema{PackageType: pkgType, Categories: []domain.DetailCategory{}}, nil
	}
	cp := s
	cp.Categories = make([]domain.DetailCategory, len(s.Categories))
	for i, c := range s.Categories {
		c.Fields = append([]string(nil), c.Fields...)
		cp.Categories[i] = c
	}
	return &cp, nil
}

func (r *memSchemas) Save(_ context.Context, schema *domain.DetailSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schema.PackageType] = *schema
	return nil
}

// mutexLocker serialises per key in-process
type mutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMutexLocker() *mutexLocker {
	return &mutexLocker{locks: map[string]*sync.Mutex{}}
}

func (l *mutexLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// memFiles is an in-memory FileRepository
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	types map[string]string
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}, types: map[string]string{}}
}

func (r *memFiles) Upload(_ context.Context, file []byte, filename string, contentType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[filename] = file
	r.types[filename] = contentType
	return "https://blob.test/media/" + filename, nil
}

func (r *memFiles) Delete(_ context.Context, filenames ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range filenames {
		delete(r.files, f)
		delete(r.types, f)
	}
	return nil
}

func (r *memFiles) Exists(_ context.Context, filename string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.files[filename]
	return ok, nil
}
