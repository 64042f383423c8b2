package entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/emberfall/lorekeep/internal/apperror"
)

// EntityRepository defines the data access contract for entity operations.
// Relationship links are stored as JSON on the entity row and mirrored into
// the entity_links index table so reverse lookups stay a single query.
type EntityRepository interface {
	Create(ctx context.Context, entity *Entity) error
	FindByID(ctx context.Context, id string) (*Entity, error)
	FindBySlug(ctx context.Context, campaignID, slug string) (*Entity, error)
	Update(ctx context.Context, entity *Entity) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, campaignID, slug string) (bool, error)

	// ListByCampaign returns entities filtered by campaign, optional type,
	// and player visibility. playerOnly excludes GM-only entities.
	ListByCampaign(ctx context.Context, campaignID, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error)

	// Search performs a FULLTEXT search on entity names. Falls back to LIKE
	// for queries shorter than 4 characters (MariaDB ft_min_word_len default).
	Search(ctx context.Context, campaignID, query, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error)

	// CountByType returns entity counts per type key for sidebar badges.
	CountByType(ctx context.Context, campaignID string, playerOnly bool) (map[string]int, error)

	// FindLinkingTo resolves reverse relationship edges: every entity in
	// the campaign holding a link whose target is id.
	FindLinkingTo(ctx context.Context, id string) ([]Entity, error)

	// ListNames returns id/name pairs for a campaign, for mention scanning.
	ListNames(ctx context.Context, campaignID string) (map[string]string, error)
}

// entityRepository implements EntityRepository with MariaDB queries.
type entityRepository struct {
	db *sql.DB
}

// NewEntityRepository creates a new entity repository.
func NewEntityRepository(db *sql.DB) EntityRepository {
	return &entityRepository{db: db}
}

const entityColumns = `e.id, e.campaign_id, e.type, e.name, e.slug,
	e.description, e.summary, e.notes, e.image_url, e.player_visible,
	e.tags, e.fields, e.metadata, e.links,
	e.created_by, e.created_at, e.updated_at`

// Create inserts a new entity row and its link index entries atomically.
func (r *entityRepository) Create(ctx context.Context, entity *Entity) error {
	tagsJSON, fieldsJSON, metaJSON, linksJSON, err := marshalEntityBlobs(entity)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO entities (id, campaign_id, type, name, slug, description, summary, notes,
	          image_url, player_visible, tags, fields, metadata, links, created_by, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		entity.ID, entity.CampaignID, entity.Type, entity.Name, entity.Slug,
		entity.Description, entity.Summary, entity.Notes,
		entity.ImageURL, entity.PlayerVisible,
		tagsJSON, fieldsJSON, metaJSON, linksJSON,
		entity.CreatedBy, entity.CreatedAt, entity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}

	if err := replaceLinkIndex(ctx, tx, entity); err != nil {
		return err
	}

	return tx.Commit()
}

// FindByID retrieves an entity by ID.
func (r *entityRepository) FindByID(ctx context.Context, id string) (*Entity, error) {
	query := fmt.Sprintf(`SELECT %s FROM entities e WHERE e.id = ?`, entityColumns)
	return scanEntity(r.db.QueryRowContext(ctx, query, id))
}

// FindBySlug retrieves an entity by campaign ID and slug.
func (r *entityRepository) FindBySlug(ctx context.Context, campaignID, slug string) (*Entity, error) {
	query := fmt.Sprintf(`SELECT %s FROM entities e WHERE e.campaign_id = ? AND e.slug = ?`, entityColumns)
	return scanEntity(r.db.QueryRowContext(ctx, query, campaignID, slug))
}

// Update modifies an existing entity and rebuilds its link index entries.
func (r *entityRepository) Update(ctx context.Context, entity *Entity) error {
	tagsJSON, fieldsJSON, metaJSON, linksJSON, err := marshalEntityBlobs(entity)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE entities SET name = ?, slug = ?, description = ?, summary = ?, notes = ?,
	          image_url = ?, player_visible = ?, tags = ?, fields = ?, metadata = ?, links = ?,
	          updated_at = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query,
		entity.Name, entity.Slug, entity.Description, entity.Summary, entity.Notes,
		entity.ImageURL, entity.PlayerVisible,
		tagsJSON, fieldsJSON, metaJSON, linksJSON,
		entity.UpdatedAt, entity.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound(fmt.Sprintf("entity %s not found", entity.ID))
	}

	if err := replaceLinkIndex(ctx, tx, entity); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an entity; the entity_links rows cascade via foreign key.
func (r *entityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound(fmt.Sprintf("entity %s not found", id))
	}
	return nil
}

// SlugExists returns true if an entity with the given slug exists in the campaign.
func (r *entityRepository) SlugExists(ctx context.Context, campaignID, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM entities WHERE campaign_id = ? AND slug = ?)`,
		campaignID, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug existence: %w", err)
	}
	return exists, nil
}

// ListByCampaign returns entities with pagination and optional type filtering.
func (r *entityRepository) ListByCampaign(ctx context.Context, campaignID, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error) {
	where := "WHERE e.campaign_id = ?"
	args := []any{campaignID}

	if typeKey != "" {
		where += " AND e.type = ?"
		args = append(args, typeKey)
	}
	if playerOnly {
		where += " AND e.player_visible = true"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM entities e %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting entities: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM entities e %s ORDER BY e.name LIMIT ? OFFSET ?`,
		entityColumns, where)
	pageArgs := append(args, opts.PerPage, opts.Offset())
	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	list, err := collectEntities(rows)
	return list, total, err
}

// Search performs a text search on entity names with visibility filtering.
// Uses FULLTEXT for queries >= 4 chars, LIKE for shorter queries.
func (r *entityRepository) Search(ctx context.Context, campaignID, query, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error) {
	where := "WHERE e.campaign_id = ?"
	args := []any{campaignID}

	if len(query) >= 4 {
		where += " AND MATCH(e.name) AGAINST(? IN BOOLEAN MODE)"
		args = append(args, query+"*")
	} else {
		where += " AND e.name LIKE ?"
		args = append(args, "%"+query+"%")
	}

	if typeKey != "" {
		where += " AND e.type = ?"
		args = append(args, typeKey)
	}
	if playerOnly {
		where += " AND e.player_visible = true"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM entities e %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting search results: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM entities e %s ORDER BY e.name LIMIT ? OFFSET ?`,
		entityColumns, where)
	pageArgs := append(args, opts.PerPage, opts.Offset())
	rows, err := r.db.QueryContext(ctx, selectQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	list, err := collectEntities(rows)
	return list, total, err
}

// CountByType returns a map of type key -> count.
func (r *entityRepository) CountByType(ctx context.Context, campaignID string, playerOnly bool) (map[string]int, error) {
	query := `SELECT type, COUNT(*) FROM entities WHERE campaign_id = ?`
	if playerOnly {
		query += " AND player_visible = true"
	}
	query += " GROUP BY type"

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("counting entities by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typeKey string
		var count int
		if err := rows.Scan(&typeKey, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[typeKey] = count
	}
	return counts, rows.Err()
}

// FindLinkingTo returns entities whose links point at the given id, via the
// entity_links index.
func (r *entityRepository) FindLinkingTo(ctx context.Context, id string) ([]Entity, error) {
	query := fmt.Sprintf(`SELECT %s FROM entities e
	          INNER JOIN entity_links l ON l.source_id = e.id
	          WHERE l.target_id = ?
	          ORDER BY e.name`, entityColumns)

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("finding linking entities: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

// ListNames returns the id -> name map for a campaign.
func (r *entityRepository) ListNames(ctx context.Context, campaignID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM entities WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing entity names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning name row: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// --- Scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row *sql.Row) (*Entity, error) {
	e, err := scanEntityFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("entity not found")
	}
	return e, err
}

func scanEntityFrom(row rowScanner) (*Entity, error) {
	e := &Entity{}
	var tagsRaw, fieldsRaw, metaRaw, linksRaw []byte
	err := row.Scan(
		&e.ID, &e.CampaignID, &e.Type, &e.Name, &e.Slug,
		&e.Description, &e.Summary, &e.Notes, &e.ImageURL, &e.PlayerVisible,
		&tagsRaw, &fieldsRaw, &metaRaw, &linksRaw,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Fields = make(map[string]any)
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &e.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling entity fields: %w", err)
		}
	}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &e.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling entity tags: %w", err)
		}
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling entity metadata: %w", err)
		}
	}
	e.Links = []Link{}
	if len(linksRaw) > 0 {
		if err := json.Unmarshal(linksRaw, &e.Links); err != nil {
			return nil, fmt.Errorf("unmarshaling entity links: %w", err)
		}
	}
	return e, nil
}

func collectEntities(rows *sql.Rows) ([]Entity, error) {
	var out []Entity
	for rows.Next() {
		e, err := scanEntityFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func marshalEntityBlobs(entity *Entity) (tags, fields, meta, links []byte, err error) {
	if entity.Tags == nil {
		entity.Tags = []string{}
	}
	if entity.Fields == nil {
		entity.Fields = make(map[string]any)
	}
	if entity.Links == nil {
		entity.Links = []Link{}
	}

	if tags, err = json.Marshal(entity.Tags); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling tags: %w", err)
	}
	if fields, err = json.Marshal(entity.Fields); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling fields: %w", err)
	}
	if meta, err = json.Marshal(entity.Metadata); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	if links, err = json.Marshal(entity.Links); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling links: %w", err)
	}
	return tags, fields, meta, links, nil
}

// replaceLinkIndex rebuilds the entity_links rows for an entity inside the
// caller's transaction.
func replaceLinkIndex(ctx context.Context, tx *sql.Tx, entity *Entity) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entity_links WHERE source_id = ?`, entity.ID); err != nil {
		return fmt.Errorf("clearing link index: %w", err)
	}

	for _, link := range entity.Links {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entity_links (source_id, target_id, relationship) VALUES (?, ?, ?)`,
			entity.ID, link.TargetID, link.Relationship)
		if err != nil {
			return fmt.Errorf("indexing link %s -> %s: %w", entity.ID, link.TargetID, err)
		}
	}
	return nil
}
