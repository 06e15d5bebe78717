package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/model"
	"github.com/sakif/cofounder-match/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

const profileColumns = `id, token_identifier, external_id, name, username, image_url, role,
	bio, currently_building, social, photos, project_video_urls, products_worked_on,
	work_items, onboarding_completed, created_at, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (db *DB) Create(ctx context.Context, p *model.Profile) (bool, error) {
	id := xid.New().String()

	social, err := encodeSocial(p.Social)
	if err != nil {
		return false, err
	}
	lists, err := encodeLists(p.Photos, p.ProjectVideoURLs, p.ProductsWorkedOn, p.WorkItems)
	if err != nil {
		return false, err
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (token_identifier) DO NOTHING`,
		id,
		p.TokenIdentifier,
		mapStringNull(p.ExternalID),
		mapStringNull(p.Name),
		mapStringNull(p.Username),
		mapStringNull(p.ImageURL),
		mapStringNull(string(p.Role)),
		mapStringNull(p.Bio),
		mapStringNull(p.CurrentlyBuilding),
		social,
		lists[0], lists[1], lists[2], lists[3],
		p.OnboardingCompleted,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: creating profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	p.ID = id
	return true, nil
}

func (db *DB) GetByTokenIdentifier(ctx context.Context, tokenIdentifier string) (*model.Profile, error) {
	return getProfile(ctx, db.conn, "token_identifier", tokenIdentifier)
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return getProfile(ctx, db.conn, "id", id)
}

// column is always a literal from this file.
func getProfile(ctx context.Context, q queryer, column, value string) (*model.Profile, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE `+column+` = ?`,
		value,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", value)
		}
		return nil, fmt.Errorf("sqlite: getting profile by %s: %w", column, err)
	}
	return p, nil
}

func (db *DB) Update(ctx context.Context, id string, fn repository.UpdateFunc) (*model.Profile, error) {
	var updated *model.Profile

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getProfile(ctx, tx, "id", id)
		if err != nil {
			return err
		}

		patch, err := fn(current)
		if err != nil {
			return err
		}

		if err := execPatch(ctx, tx, id, patch); err != nil {
			return err
		}

		patch.Apply(current)
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// execPatch writes only the columns the patch sets or clears.
func execPatch(ctx context.Context, tx *sql.Tx, id string, patch model.ProfilePatch) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	text := func(column string, f model.Field[string]) {
		if !f.IsUnset() {
			add(column, mapStringNull(f.Value()))
		}
	}
	text("external_id", patch.ExternalID)
	text("name", patch.Name)
	text("username", patch.Username)
	text("image_url", patch.ImageURL)
	text("bio", patch.Bio)
	text("currently_building", patch.CurrentlyBuilding)

	if !patch.Role.IsUnset() {
		add("role", mapStringNull(string(patch.Role.Value())))
	}

	switch {
	case patch.Social.IsSet():
		social := patch.Social.Value()
		encoded, err := encodeSocial(&social)
		if err != nil {
			return err
		}
		add("social", encoded)
	case patch.Social.IsClear():
		add("social", sql.NullString{})
	}

	lists := []struct {
		column string
		unset  bool
		value  any
	}{
		{"photos", patch.Photos.IsUnset(), patch.Photos.Value()},
		{"project_video_urls", patch.ProjectVideoURLs.IsUnset(), patch.ProjectVideoURLs.Value()},
		{"products_worked_on", patch.ProductsWorkedOn.IsUnset(), patch.ProductsWorkedOn.Value()},
		{"work_items", patch.WorkItems.IsUnset(), patch.WorkItems.Value()},
	}
	for _, l := range lists {
		if l.unset {
			continue
		}
		encoded, err := encodeList(l.value)
		if err != nil {
			return err
		}
		add(l.column, encoded)
	}

	if !patch.OnboardingCompleted.IsUnset() {
		add("onboarding_completed", patch.OnboardingCompleted.Value())
	}
	if patch.UpdatedAt != 0 {
		add("updated_at", patch.UpdatedAt)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	_, err := tx.ExecContext(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}
	return nil
}

func (db *DB) ListDiscoverable(ctx context.Context, opts repository.DiscoverOptions) ([]model.Profile, error) {
	limit := opts.Limit
	if limit <= 0 || limit > repository.DiscoverLimit {
		limit = repository.DiscoverLimit
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE onboarding_completed = 1 AND token_identifier != ?
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ?`,
		opts.ExcludeTokenIdentifier,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]model.Profile, 0, limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profiles: %w", err)
	}

	return profiles, nil
}

func scanProfile(s scanner) (*model.Profile, error) {
	var (
		p                                                        model.Profile
		externalID, name, username, imageURL, role, bio, current sql.NullString
		social                                                   sql.NullString
		photos, videos, products, workItems                      string
	)

	if err := s.Scan(
		&p.ID, &p.TokenIdentifier, &externalID, &name, &username, &imageURL, &role,
		&bio, &current, &social, &photos, &videos, &products,
		&workItems, &p.OnboardingCompleted, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.ExternalID = mapNullString(externalID)
	p.Name = mapNullString(name)
	p.Username = mapNullString(username)
	p.ImageURL = mapNullString(imageURL)
	p.Role = model.Role(mapNullString(role))
	p.Bio = mapNullString(bio)
	p.CurrentlyBuilding = mapNullString(current)

	if social.Valid {
		p.Social = &model.Social{}
		if err := json.Unmarshal([]byte(social.String), p.Social); err != nil {
			return nil, fmt.Errorf("decoding social: %w", err)
		}
	}

	if err := decodeList(photos, &p.Photos); err != nil {
		return nil, fmt.Errorf("decoding photos: %w", err)
	}
	if err := decodeList(videos, &p.ProjectVideoURLs); err != nil {
		return nil, fmt.Errorf("decoding project video urls: %w", err)
	}
	if err := decodeList(products, &p.ProductsWorkedOn); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	if err := decodeList(workItems, &p.WorkItems); err != nil {
		return nil, fmt.Errorf("decoding work items: %w", err)
	}

	return &p, nil
}

func encodeSocial(s *model.Social) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqlite: encoding social: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func encodeLists(values ...any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		encoded, err := encodeList(v)
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}

// encodeList stores a nil slice as "[]" so list columns are never null.
func encodeList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding list: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func decodeList[T any](raw string, dst *[]T) error {
	*dst = []T{}
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
