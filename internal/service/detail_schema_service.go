package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SchemaChange is the result of a schema edit
type SchemaChange struct {
	Schema           *domain.DetailSchema `json:"schema"`
	PackagesMigrated int                  `json:"packagesMigrated"`
}

// DetailSchemaService edits the per-catalogue details schema and keeps every
// package's details map in step with it.
type DetailSchemaService struct {
	schemas  domain.DetailSchemaRepository
	packages domain.PackageRepository
	retries  int
}

func NewDetailSchemaService(schemas domain.DetailSchemaRepository, packages domain.PackageRepository, retries int) *DetailSchemaService {
	if retries < 1 {
		retries = DefaultConflictRetries
	}
	return &DetailSchemaService{schemas: schemas, packages: packages, retries: retries}
}

func (s *DetailSchemaService) GetSchema(ctx context.Context, pkgType domain.PackageType) (*domain.DetailSchema, error) {
	return s.schemas.Get(ctx, pkgType)
}

func (s *DetailSchemaService) AddCategory(ctx context.Context, pkgType domain.PackageType, name string, fields []string) (*SchemaChange, error) {
	name = strings.TrimSpace(name)
	id := domain.CategoryID(name)
	if id == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	schema, err := s.schemas.Get(ctx, pkgType)
	if err != nil {
		return nil, err
	}
	if schema.Category(id) >= 0 {
		return nil, domain.NewValidationError("name", fmt.Sprintf("category %q already exists", id))
	}

	cleaned := make([]string, 0, len(fields))
	category := domain.DetailCategory{ID: id, Name: name}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || category.HasField(f) {
			continue
		}
		category.Fields = append(category.Fields, f)
		cleaned = append(cleaned, f)
	}
	if category.Fields == nil {
		category.Fields = []string{}
	}
	schema.Categories = append(schema.Categories, category)

	return s.saveAndMigrate(ctx, schema, domain.DetailMigration{CategoryID: id, Fields: cleaned})
}

func (s *DetailSchemaService) RemoveCategory(ctx context.Context, pkgType domain.PackageType, categoryID string) (*SchemaChange, error) {
	schema, err := s.schemas.Get(ctx, pkgType)
	if err != nil {
		return nil, err
	}
	idx := schema.Category(categoryID)
	if idx < 0 {
		return nil, domain.ErrCategoryNotFound
	}
	schema.Categories = append(schema.Categories[:idx], schema.Categories[idx+1:]...)

	return s.saveAndMigrate(ctx, schema, domain.DetailMigration{CategoryID: categoryID, Remove: true})
}

func (s *DetailSchemaService) AddField(ctx context.Context, pkgType domain.PackageType, categoryID, field string) (*SchemaChange, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, domain.NewValidationError("field", "is required")
	}

	schema, err := s.schemas.Get(ctx, pkgType)
	if err != nil {
		return nil, err
	}
	idx := schema.Category(categoryID)
	if idx < 0 {
		return nil, domain.ErrCategoryNotFound
	}
	category := &schema.Categories[idx]
	if category.HasField(field) {
		return nil, domain.NewValidationError("field", fmt.Sprintf("field %q already exists", field))
	}
	category.Fields = append(category.Fields, field)

	return s.saveAndMigrate(ctx, schema, domain.DetailMigration{CategoryID: categoryID, Field: field})
}

func (s *DetailSchemaService) RemoveField(ctx context.Context, pkgType domain.PackageType, categoryID, field string) (*SchemaChange, error) {
	schema, err := s.schemas.Get(ctx, pkgType)
	if err != nil {
		return nil, err
	}
	idx := schema.Category(categoryID)
	if idx < 0 {
		return nil, domain.ErrCategoryNotFound
	}
	category := &schema.Categories[idx]
	pos := -1
	for i, f := range category.Fields {
		if f == field {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("details field %q %w", field, domain.ErrNotFound)
	}
	category.Fields = append(category.Fields[:pos], category.Fields[pos+1:]...)

	return s.saveAndMigrate(ctx, schema, domain.DetailMigration{CategoryID: categoryID, Field: field, Remove: true})
}

// saveAndMigrate persists the schema and applies m to every package of the
// catalogue. Packages that fail to migrate are logged and reported together.
func (s *DetailSchemaService) saveAndMigrate(ctx context.Context, schema *domain.DetailSchema, m domain.DetailMigration) (*SchemaChange, error) {
	ctx, span := tracer.Start(ctx, "DetailSchemaService.Migrate",
		trace.WithAttributes(
			attribute.String("package.type", string(schema.PackageType)),
			attribute.String("category.id", m.CategoryID),
		),
	)
	defer span.End()

	schema.UpdatedAt = time.Now().UTC()
	if err := s.schemas.Save(ctx, schema); err != nil {
		return nil, err
	}

	packages, err := s.packages.List(ctx, schema.PackageType)
	if err != nil {
		return nil, err
	}

	change := &SchemaChange{Schema: schema}
	var errs []error
	for _, p := range packages {
		if !m.ApplyTo(p.Clone()) {
			continue
		}
		_, err := updatePackage(ctx, s.packages, s.retries, schema.PackageType, p.ID, func(pkg *domain.Package) error {
			m.ApplyTo(pkg)
			return nil
		})
		if err != nil {
			log.Printf("Warning: failed to migrate details of %s package %s: %v", schema.PackageType, p.ID, err)
			errs = append(errs, fmt.Errorf("package %s: %w", p.ID, err))
			continue
		}
		change.PackagesMigrated++
	}

	span.SetAttributes(attribute.Int("packages.migrated", change.PackagesMigrated))
	if len(errs) > 0 {
		return change, errors.Join(errs...)
	}
	return change, nil
}
