// Package store is the document store every content collection lives in:
// one table of JSON documents keyed by collection, with equality filters,
// page-based reads, per-collection uniqueness and a bounded history of
// previous versions.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tessera/models"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrConflict        = errors.New("document conflicts with an existing one")
	ErrTenantImmutable = errors.New("tenant cannot be changed once set")
	ErrForbidden       = errors.New("access denied")
)

// MaxVersions is how many previous copies of a document are kept.
const MaxVersions = 15

const defaultLimit = 10

// Collections
const (
	Tenants         = "tenants"
	Pages           = "pages"
	Homepages       = "homepages"
	Posts           = "posts"
	Media           = "media"
	Forms           = "forms"
	FormSubmissions = "form-submissions"
	NavigationMenus = "navigation-menus"
	Headers         = "headers"
	Footers         = "footers"
)

// uniqueKeys lists, per collection, the data keys whose combined values
// identify at most one document.
var uniqueKeys = map[string][]string{
	Tenants:         {"code"},
	Pages:           {"tenant", "slug"},
	Homepages:       {"tenant"},
	Posts:           {"tenant", "slug"},
	Forms:           {"tenant", "slug"},
	Headers:         {"tenant"},
	Footers:         {"tenant"},
	NavigationMenus: {"tenant", "title"},
}

// columns are the data keys mirrored into indexed columns.
var columns = map[string]bool{"id": true, "tenant": true, "slug": true, "status": true}

type Op string

const (
	OpRead   Op = "read"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Guard decides whether the caller in ctx may run op on collection. A
// non-nil filter narrows the documents the operation may touch. data is
// the incoming document for creates and nil otherwise.
type Guard interface {
	Check(ctx context.Context, collection string, op Op, data Doc) (bool, Filter)
}

// Populator expands references inside a document read with Depth >= 1.
type Populator interface {
	Populate(ctx context.Context, collection string, doc Doc) Doc
}

type FindOptions struct {
	Limit int
	// Page is 1-based.
	Page  int
	Depth int
	// Sort is "createdAt", "updatedAt" or "slug", "-" prefixed for
	// descending. Default is creation order.
	Sort           string
	OverrideAccess bool
}

type FindResult struct {
	Docs        []Doc
	TotalDocs   int64
	Page        int
	HasNextPage bool
}

type WriteOptions struct {
	OverrideAccess bool
}

type Store struct {
	db        *gorm.DB
	guard     Guard
	populator Populator
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithGuard returns a store whose operations are checked by g unless
// OverrideAccess is set.
func (s *Store) WithGuard(g Guard) *Store {
	return &Store{db: s.db, guard: g, populator: s.populator}
}

func (s *Store) SetPopulator(p Populator) {
	s.populator = p
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) check(ctx context.Context, collection string, op Op, data Doc, override bool) (Filter, error) {
	if override || s.guard == nil {
		return nil, nil
	}
	allow, filter := s.guard.Check(ctx, collection, op, data)
	if !allow {
		return nil, fmt.Errorf("%w: %s on %s", ErrForbidden, op, collection)
	}
	return filter, nil
}

func where(q *gorm.DB, filter Filter) *gorm.DB {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := filter[k]
		if columns[k] {
			q = q.Where(k+" = ?", fmt.Sprint(v))
			continue
		}
		q = q.Where(datatypes.JSONQuery("data").Equals(v, strings.Split(k, ".")...))
	}
	return q
}

func (s *Store) query(ctx context.Context, collection string, filters ...Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Document{}).Where("collection = ?", collection)
	for _, f := range filters {
		q = where(q, f)
	}
	return q
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"slug":      "slug",
}

func orderBy(sort string) string {
	desc := strings.HasPrefix(sort, "-")
	col, ok := sortColumns[strings.TrimPrefix(sort, "-")]
	if !ok {
		return "created_at, id"
	}
	if desc {
		return col + " DESC, id DESC"
	}
	return col + ", id"
}

// Find returns one page of the documents of collection matching filter.
func (s *Store) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) (*FindResult, error) {
	access, err := s.check(ctx, collection, OpRead, nil, opts.OverrideAccess)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.query(ctx, collection, filter, access).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count %s: %w", collection, err)
	}

	var rows []models.Document
	err = s.query(ctx, collection, filter, access).
		Order(orderBy(opts.Sort)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	result := &FindResult{
		Docs:        make([]Doc, 0, len(rows)),
		TotalDocs:   total,
		Page:        page,
		HasNextPage: int64(page*limit) < total,
	}
	for i := range rows {
		doc, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result.Docs = append(result.Docs, s.populate(ctx, collection, doc, opts.Depth))
	}
	return result, nil
}

// FindOne returns the first document matching filter.
func (s *Store) FindOne(ctx context.Context, collection string, filter Filter, opts FindOptions) (Doc, error) {
	opts.Limit, opts.Page = 1, 1
	res, err := s.Find(ctx, collection, filter, opts)
	if err != nil {
		return nil, err
	}
	if len(res.Docs) == 0 {
		return nil, ErrNotFound
	}
	return res.Docs[0], nil
}

func (s *Store) FindByID(ctx context.Context, collection, id string, opts FindOptions) (Doc, error) {
	return s.FindOne(ctx, collection, Filter{"id": id}, opts)
}

func (s *Store) populate(ctx context.Context, collection string, doc Doc, depth int) Doc {
	if depth < 1 || s.populator == nil {
		return doc
	}
	return s.populator.Populate(ctx, collection, doc)
}

func (s *Store) checkUnique(tx *gorm.DB, collection, id string, data Doc) error {
	keys, ok := uniqueKeys[collection]
	if !ok {
		return nil
	}
	filter := Filter{}
	for _, k := range keys {
		v, ok := data[k]
		if !ok || v == nil || v == "" {
			return nil
		}
		filter[k] = v
	}
	var count int64
	q := where(tx.Model(&models.Document{}).Where("collection = ?", collection), filter)
	if id != "" {
		q = q.Where("id <> ?", id)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s with the same %s", ErrConflict, collection, strings.Join(keys, "+"))
	}
	return nil
}

// Create stores data as a new document of collection and returns it.
func (s *Store) Create(ctx context.Context, collection string, data Doc, opts WriteOptions) (Doc, error) {
	data = stripReserved(data)
	access, err := s.check(ctx, collection, OpCreate, data, opts.OverrideAccess)
	if err != nil {
		return nil, err
	}
	if access != nil && !data.Matches(access) {
		return nil, fmt.Errorf("%w: create on %s", ErrForbidden, collection)
	}

	row, err := toRow(uuid.NewString(), collection, data)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUnique(tx, collection, "", data); err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	return fromRow(row)
}

// Update merges patch into the stored document and keeps the previous copy
// in its version history.
func (s *Store) Update(ctx context.Context, collection, id string, patch Doc, opts WriteOptions) (Doc, error) {
	access, err := s.check(ctx, collection, OpUpdate, nil, opts.OverrideAccess)
	if err != nil {
		return nil, err
	}

	var row models.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := where(tx.Where("collection = ?", collection), access)
		if err := q.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		current, err := fromRow(&row)
		if err != nil {
			return err
		}
		merged := stripReserved(current)
		for k, v := range stripReserved(patch) {
			merged[k] = v
		}
		if row.Tenant != "" && merged.String("tenant") != row.Tenant {
			return ErrTenantImmutable
		}
		if err := s.checkUnique(tx, collection, id, merged); err != nil {
			return err
		}

		previous := models.DocumentVersion{DocumentID: id, Collection: collection, Data: row.Data}
		if err := tx.Create(&previous).Error; err != nil {
			return err
		}
		if err := pruneVersions(tx, id); err != nil {
			return err
		}

		next, err := toRow(id, collection, merged)
		if err != nil {
			return err
		}
		row.Tenant, row.Slug, row.Status, row.Data = next.Tenant, next.Slug, next.Status, next.Data
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return fromRow(&row)
}

func pruneVersions(tx *gorm.DB, documentID string) error {
	var keep []uint
	err := tx.Model(&models.DocumentVersion{}).
		Where("document_id = ?", documentID).
		Order("id DESC").
		Limit(MaxVersions).
		Pluck("id", &keep).Error
	if err != nil || len(keep) < MaxVersions {
		return err
	}
	return tx.Where("document_id = ? AND id NOT IN ?", documentID, keep).
		Delete(&models.DocumentVersion{}).Error
}

// Delete removes a document and its history.
func (s *Store) Delete(ctx context.Context, collection, id string, opts WriteOptions) error {
	access, err := s.check(ctx, collection, OpDelete, nil, opts.OverrideAccess)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := where(tx.Where("collection = ?", collection), access)
		res := q.Where("id = ?", id).Delete(&models.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("document_id = ?", id).Delete(&models.DocumentVersion{}).Error
	})
}

// Versions returns the stored previous copies of a document, newest first.
func (s *Store) Versions(ctx context.Context, id string) ([]Doc, error) {
	var rows []models.DocumentVersion
	err := s.db.WithContext(ctx).Where("document_id = ?", id).Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Doc, 0, len(rows))
	for _, v := range rows {
		doc, err := fromRow(&models.Document{ID: v.DocumentID, Collection: v.Collection, Data: v.Data, CreatedAt: v.CreatedAt, UpdatedAt: v.CreatedAt})
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
