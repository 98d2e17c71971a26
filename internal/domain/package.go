package domain

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PackageType selects which catalogue (and document collection) a package lives in
type PackageType string

const (
	PackageTypeSurf      PackageType = "surf"
	PackageTypeSnowboard PackageType = "snowboard"
)

// PackageTypes lists every catalogue, in display order
var PackageTypes = []PackageType{PackageTypeSurf, PackageTypeSnowboard}

// ParsePackageType validates a path/query value
func ParsePackageType(s string) (PackageType, error) {
	switch PackageType(strings.ToLower(strings.TrimSpace(s))) {
	case PackageTypeSurf:
		return PackageTypeSurf, nil
	case PackageTypeSnowboard:
		return PackageTypeSnowboard, nil
	}
	return "", NewValidationError("packageType", "must be one of: surf, snowboard")
}

// Collection returns the document collection holding packages of this type
func (t PackageType) Collection() string {
	return string(t) + "Packages"
}

// Package is a travel offering. Date ranges are embedded by value.
type Package struct {
	ID          string                       `json:"id" bson:"_id" firestore:"id"`
	Name        string                       `json:"name" bson:"name" firestore:"name"`
	Description string                       `json:"description" bson:"description" firestore:"description"`
	Price       Money                        `json:"price" bson:"price" firestore:"price"`
	Duration    string                       `json:"duration" bson:"duration" firestore:"duration"`
	Featured    bool                         `json:"featured" bson:"featured" firestore:"featured"`
	Image       string                       `json:"image" bson:"image" firestore:"image"`
	Highlights  []string                     `json:"highlights" bson:"highlights" firestore:"highlights"`
	DateRanges  []DateRange                  `json:"dateRanges" bson:"dateRanges" firestore:"dateRanges"`
	Details     map[string]map[string]string `json:"details" bson:"details" firestore:"details"`
	Version     int64                        `json:"version" bson:"version" firestore:"version"`
	CreatedAt   time.Time                    `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

// FindDateRange returns the index of the date range with the given id, or -1
func (p *Package) FindDateRange(id string) int {
	for i := range p.DateRanges {
		if p.DateRanges[i].ID == id {
			return i
		}
	}
	return -1
}

// DateRange returns a pointer into DateRanges, or nil
func (p *Package) DateRange(id string) *DateRange {
	if i := p.FindDateRange(id); i >= 0 {
		return &p.DateRanges[i]
	}
	return nil
}

// Normalize replaces nil collections so documents and JSON always carry
// empty sequences instead of null.
func (p *Package) Normalize() {
	if p.Highlights == nil {
		p.Highlights = []string{}
	}
	if p.DateRanges == nil {
		p.DateRanges = []DateRange{}
	}
	if p.Details == nil {
		p.Details = map[string]map[string]string{}
	}
}

// Clone returns a deep copy so read-modify-write cycles never alias cached state.
func (p *Package) Clone() *Package {
	c := *p
	c.Highlights = append([]string(nil), p.Highlights...)
	c.DateRanges = make([]DateRange, len(p.DateRanges))
	for i, dr := range p.DateRanges {
		c.DateRanges[i] = dr
		if dr.MaxParticipants != nil {
			c.DateRanges[i].MaxParticipants = IntPtr(*dr.MaxParticipants)
		}
	}
	c.Details = make(map[string]map[string]string, len(p.Details))
	for cat, fields := range p.Details {
		m := make(map[string]string, len(fields))
		for k, v := range fields {
			m[k] = v
		}
		c.Details[cat] = m
	}
	return &c
}

// NextPackageID returns max(numeric ids)+1, or "1" when there are none.
// Non-numeric ids are ignored.
func NextPackageID(existing []*Package) string {
	max := 0
	for _, p := range existing {
		n, err := strconv.Atoi(p.ID)
		if err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// SortPackages orders packages by numeric id
func SortPackages(pkgs []*Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, errA := strconv.Atoi(pkgs[i].ID)
		b, errB := strconv.Atoi(pkgs[j].ID)
		if errA != nil || errB != nil {
			return pkgs[i].ID < pkgs[j].ID
		}
		return a < b
	})
}

// PackageInput holds the admin-editable package fields.
// Date ranges are managed separately.
type PackageInput struct {
	Name        string                       `json:"name" validate:"required,max=200"`
	Description string                       `json:"description"`
	Price       Money                        `json:"price"`
	Duration    string                       `json:"duration"`
	Featured    bool                         `json:"featured"`
	Image       string                       `json:"image" validate:"omitempty,url"`
	Highlights  []string                     `json:"highlights"`
	Details     map[string]map[string]string `json:"details"`
}

// Apply copies the editable fields onto pkg
func (in PackageInput) Apply(pkg *Package) {
	pkg.Name = strings.TrimSpace(in.Name)
	pkg.Description = in.Description
	pkg.Price = ParseMoney(in.Price)
	pkg.Duration = in.Duration
	pkg.Featured = in.Featured
	pkg.Image = in.Image
	pkg.Highlights = make([]string, 0, len(in.Highlights))
	for _, h := range in.Highlights {
		if h = strings.TrimSpace(h); h != "" {
			pkg.Highlights = append(pkg.Highlights, h)
		}
	}
	if in.Details != nil {
		pkg.Details = in.Details
	}
	pkg.Normalize()
}

// PackageRepository persists package documents per catalogue.
// Save is a full-document overwrite guarded by Version: it fails with
// ErrVersionConflict when the stored version differs, and bumps Version on success.
type PackageRepository interface {
	List(ctx context.Context, pkgType PackageType) ([]*Package, error)
	GetByID(ctx context.Context, pkgType PackageType, id string) (*Package, error)
	Create(ctx context.Context, pkgType PackageType, pkg *Package) error
	Save(ctx context.Context, pkgType PackageType, pkg *Package) error
	Delete(ctx context.Context, pkgType PackageType, id string) error
}
