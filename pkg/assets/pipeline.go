package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/metrics"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/jordanlanch/freelancecrm/pkg/search"
)

const table = "assets"

// DefaultMaxBytes is the per-file size ceiling (25 MiB).
const DefaultMaxBytes int64 = 25 * 1024 * 1024

// ListLimit caps List results.
const ListLimit = 200

var columns = []string{
	"id", "filename", "stored_path", "mime_type", "size_bytes", "tags",
	"project_id", "contact_id", "notes", "created_at",
}

// Pipeline validates, deduplicates and stores uploaded assets
type Pipeline struct {
	db       *database.Client
	activity *activity.Service
	storage  Storage
	metrics  *metrics.Metrics
	log      logger.Logger
	maxBytes int64
}

// NewPipeline creates a new asset pipeline. A maxBytes of zero or less uses
// DefaultMaxBytes.
func NewPipeline(db *database.Client, activity *activity.Service, storage Storage, m *metrics.Metrics, log logger.Logger, maxBytes int64) *Pipeline {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Pipeline{
		db:       db,
		activity: activity,
		storage:  storage,
		metrics:  m,
		log:      log,
		maxBytes: maxBytes,
	}
}

// Upload is one submitted file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Metadata is shared by every file of an upload request.
type Metadata struct {
	Tags      string            `json:"tags" form:"tags" validate:"max=500"`
	ProjectID parse.OptionalInt `json:"project_id" form:"project_id"`
	ContactID parse.OptionalInt `json:"contact_id" form:"contact_id"`
	Notes     string            `json:"notes" form:"notes"`
}

// BatchResult is the outcome of UploadBatch.
type BatchResult struct {
	Created    []*models.Asset `json:"created"`
	Duplicates []string        `json:"duplicates"`
}

// AllDuplicates reports that no file in the batch produced a new asset.
func (r *BatchResult) AllDuplicates() bool {
	return len(r.Created) == 0
}

// Filter narrows List.
type Filter struct {
	Q         string
	ProjectID *int64
	ContactID *int64
	FileType  string // image, video, document or other; anything else is ignored
}

// checked is an upload that passed validation.
type checked struct {
	filename string
	mimeType string
	data     []byte
}

// Upload ingests one file. A nil asset with a nil error means an identical
// asset (same filename, size and type) already exists and nothing was stored.
func (p *Pipeline) Upload(ctx context.Context, u Upload, meta Metadata) (*models.Asset, error) {
	if err := models.Validate(meta); err != nil {
		return nil, err
	}
	c, err := p.check(u)
	if err != nil {
		return nil, err
	}
	return p.ingest(ctx, c, meta)
}

// UploadBatch validates every file before storing any, then ingests each
// one independently.
func (p *Pipeline) UploadBatch(ctx context.Context, uploads []Upload, meta Metadata) (*BatchResult, error) {
	if len(uploads) == 0 {
		return nil, models.NewValidationError("files", "at least one file is required")
	}
	if err := models.Validate(meta); err != nil {
		return nil, err
	}

	batch := make([]*checked, 0, len(uploads))
	for _, u := range uploads {
		c, err := p.check(u)
		if err != nil {
			return nil, err
		}
		batch = append(batch, c)
	}

	result := &BatchResult{Created: []*models.Asset{}, Duplicates: []string{}}
	for _, c := range batch {
		asset, err := p.ingest(ctx, c, meta)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			result.Duplicates = append(result.Duplicates, c.filename)
			continue
		}
		result.Created = append(result.Created, asset)
	}
	return result, nil
}

func (p *Pipeline) check(u Upload) (*checked, error) {
	name := baseName(u.Filename)
	if name == "" {
		return nil, models.NewValidationError("filename", "is required")
	}
	if size := int64(len(u.Data)); size > p.maxBytes {
		return nil, &models.SizeLimitError{Size: size, Limit: p.maxBytes}
	}
	mimeType := resolveType(name, u.ContentType, u.Data)
	if !allowed(name, mimeType) {
		return nil, &models.UnsupportedTypeError{Filename: name, MimeType: mimeType}
	}
	return &checked{filename: name, mimeType: mimeType, data: u.Data}, nil
}

func (p *Pipeline) ingest(ctx context.Context, c *checked, meta Metadata) (*models.Asset, error) {
	size := int64(len(c.data))
	asset := &models.Asset{
		Filename:   c.filename,
		StoredPath: storedName(c.filename),
		MimeType:   &c.mimeType,
		SizeBytes:  &size,
		Tags:       models.StrPtr(strings.TrimSpace(meta.Tags)),
		ProjectID:  meta.ProjectID.Ptr(),
		ContactID:  meta.ContactID.Ptr(),
		Notes:      models.StrPtr(strings.TrimSpace(meta.Notes)),
		CreatedAt:  database.Now(),
	}

	duplicate, saved := false, false
	err := p.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		duplicate, err = exists(ctx, tx, c.filename, size, c.mimeType)
		if err != nil || duplicate {
			return err
		}

		if err := p.storage.Save(ctx, asset.StoredPath, c.data, c.mimeType); err != nil {
			return err
		}
		saved = true

		id, err := database.Insert(ctx, tx, database.Builder().Insert(table).
			Columns(columns[1:]...).
			Values(asset.Filename, asset.StoredPath, c.mimeType, size, database.Value(asset.Tags),
				database.Value(asset.ProjectID), database.Value(asset.ContactID), database.Value(asset.Notes),
				asset.CreatedAt))
		if err != nil {
			return database.WriteError("create asset", err)
		}
		asset.ID = id

		_, err = p.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionUpload,
			EntityType: models.EntityAsset,
			EntityID:   &asset.ID,
			Summary:    "Uploaded asset: " + asset.Filename,
			Changes:    models.Changes{"size_bytes": size, "mime_type": c.mimeType},
		})
		return err
	})
	if err != nil {
		if saved {
			p.removeStored(ctx, asset.StoredPath)
		}
		return nil, err
	}

	if duplicate {
		p.metrics.RecordAssetDuplicate()
		p.log.Info("asset upload skipped as duplicate", "filename", c.filename, "size_bytes", size, "mime_type", c.mimeType)
		return nil, nil
	}
	p.metrics.RecordAssetUploaded()
	p.log.Info("asset uploaded", "asset_id", asset.ID, "filename", asset.Filename, "size_bytes", size)
	return asset, nil
}

// Delete removes an asset record with its DELETE activity, then removes the
// stored file. A file that is already gone is not an error.
func (p *Pipeline) Delete(ctx context.Context, id int64) error {
	var asset *models.Asset
	err := p.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		asset, err = get(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := database.Exec(ctx, tx, database.Builder().Delete(table).Where(entsql.EQ("id", id))); err != nil {
			return fmt.Errorf("failed to delete asset: %w", err)
		}

		_, err = p.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionDelete,
			EntityType: models.EntityAsset,
			EntityID:   &id,
			Summary:    "Deleted asset: " + asset.Filename,
		})
		return err
	})
	if err != nil {
		return err
	}

	p.removeStored(ctx, asset.StoredPath)
	return nil
}

func (p *Pipeline) removeStored(ctx context.Context, name string) {
	if err := p.storage.Delete(ctx, name); err != nil {
		p.log.Warn("failed to remove stored asset", "stored_path", name, "error", err)
	}
}

// Get returns an asset by id.
func (p *Pipeline) Get(ctx context.Context, id int64) (*models.Asset, error) {
	return get(ctx, p.db.DB(), id)
}

// Open returns the stored bytes of an asset by stored name.
func (p *Pipeline) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	return p.storage.Open(ctx, storedName)
}

// List returns the newest assets matching f, at most ListLimit.
func (p *Pipeline) List(ctx context.Context, f Filter) ([]*models.Asset, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(ListLimit)

	var preds []*entsql.Predicate
	if m := search.Match(f.Q, "filename", "tags", "notes"); m != nil {
		preds = append(preds, m)
	}
	if f.ProjectID != nil {
		preds = append(preds, entsql.EQ("project_id", *f.ProjectID))
	}
	if f.ContactID != nil {
		preds = append(preds, entsql.EQ("contact_id", *f.ContactID))
	}
	if t := fileTypePredicate(f.FileType); t != nil {
		preds = append(preds, t)
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	query, args := sel.Query()
	rows, err := p.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []*models.Asset{}
	for rows.Next() {
		asset, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func fileTypePredicate(fileType string) *entsql.Predicate {
	switch fileType {
	case FileTypeImage:
		return entsql.HasPrefix("mime_type", "image/")
	case FileTypeVideo:
		return entsql.HasPrefix("mime_type", "video/")
	case FileTypeDocument:
		return entsql.HasPrefix("mime_type", "application/")
	case FileTypeOther:
		return entsql.Or(
			entsql.IsNull("mime_type"),
			entsql.And(
				entsql.Not(entsql.HasPrefix("mime_type", "image/")),
				entsql.Not(entsql.HasPrefix("mime_type", "video/")),
				entsql.Not(entsql.HasPrefix("mime_type", "application/")),
			),
		)
	}
	return nil
}

// exists reports whether an asset with the same fingerprint is stored.
func exists(ctx context.Context, q database.Querier, filename string, size int64, mimeType string) (bool, error) {
	b := database.Builder()
	n, err := database.Count(ctx, q, b.Select().Count().From(b.Table(table)).Where(entsql.And(
		entsql.EQ("filename", filename),
		entsql.EQ("size_bytes", size),
		entsql.EQ("mime_type", mimeType),
	)))
	if err != nil {
		return false, fmt.Errorf("failed to check asset fingerprint: %w", err)
	}
	return n > 0, nil
}

// baseName strips directory components, accepting both separators.
func baseName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	if filename == "." || filename == ".." {
		return ""
	}
	return filename
}

// maxStoredName is the longest file name most filesystems and object keys
// accept, in bytes.
const maxStoredName = 255

// storedName prefixes filename with a random token. Long names are cut so the
// result fits in maxStoredName; the extension is kept so the served type
// still resolves.
func storedName(filename string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "") + "_"
	return token + truncateName(filename, maxStoredName-len(token))
}

func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > limit/2 {
		ext = ""
	}
	stem := name[:limit-len(ext)]
	for len(stem) > 0 && !utf8.ValidString(stem) {
		stem = stem[:len(stem)-1]
	}
	return stem + ext
}

func get(ctx context.Context, q database.Querier, id int64) (*models.Asset, error) {
	b := database.Builder()
	query, args := b.Select(columns...).From(b.Table(table)).Where(entsql.EQ("id", id)).Query()

	asset, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(models.EntityAsset, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

func scan(row database.Scanner) (*models.Asset, error) {
	var (
		a         models.Asset
		mimeType  sql.NullString
		size      sql.NullInt64
		tags      sql.NullString
		projectID sql.NullInt64
		contactID sql.NullInt64
		notes     sql.NullString
	)
	err := row.Scan(&a.ID, &a.Filename, &a.StoredPath, &mimeType, &size, &tags,
		&projectID, &contactID, &notes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.MimeType = database.StringPtr(mimeType)
	a.SizeBytes = database.Int64Ptr(size)
	a.Tags = database.StringPtr(tags)
	a.ProjectID = database.Int64Ptr(projectID)
	a.ContactID = database.Int64Ptr(contactID)
	a.Notes = database.StringPtr(notes)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
