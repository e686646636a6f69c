package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

const recommendationColumns = `
	id, track_id, song, artist, album, cover_url, provider_url, preview_url,
	explanation, image_ref, image_features, genres,
	valence, energy, danceability, instrumentalness, tempo,
	preview_energy, created_at`

// SaveRecommendation stores rec for user. Saving the same id twice replaces the row.
func (a *Adapter) SaveRecommendation(ctx context.Context, user domain.User, rec domain.Recommendation) error {
	if user.ID == "" {
		return fmt.Errorf("save recommendation: missing user id: %w", domain.ErrInvalidInput)
	}

	features, err := json.Marshal(rec.ImageFeatures)
	if err != nil {
		return fmt.Errorf("failed to encode image features: %w", err)
	}
	genres := rec.Genres
	if genres == nil {
		genres = []string{}
	}
	genresJSON, err := json.Marshal(genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = a.now()
	}

	// track_id keeps the provider's own identifier, the last segment of its URL.
	trackID := domain.TrackIDFromURL(rec.ProviderURL)
	if trackID == "" {
		trackID = rec.TrackCandidate.ID
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO recommendations (
			id, user_id, track_id, song, artist, album, cover_url, provider_url, preview_url,
			explanation, image_ref, image_features, genres,
			valence, energy, danceability, instrumentalness, tempo, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			track_id=excluded.track_id,
			song=excluded.song,
			artist=excluded.artist,
			album=excluded.album,
			cover_url=excluded.cover_url,
			provider_url=excluded.provider_url,
			preview_url=excluded.preview_url,
			explanation=excluded.explanation,
			image_ref=excluded.image_ref,
			image_features=excluded.image_features,
			genres=excluded.genres,
			valence=excluded.valence,
			energy=excluded.energy,
			danceability=excluded.danceability,
			instrumentalness=excluded.instrumentalness,
			tempo=excluded.tempo
		WHERE recommendations.user_id = excluded.user_id;
	`,
		rec.ID,
		user.ID,
		trackID,
		rec.Song,
		rec.Artist,
		rec.Album,
		rec.AlbumCoverURL,
		rec.ProviderURL,
		rec.PreviewURL,
		rec.Explanation,
		rec.ImageRef,
		string(features),
		string(genresJSON),
		rec.Profile.Valence,
		rec.Profile.Energy,
		rec.Profile.Danceability,
		rec.Profile.Instrumentalness,
		rec.Profile.Tempo,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save recommendation %s: %w", rec.ID, err)
	}
	return nil
}

// GetRecommendation returns one of userID's recommendations.
func (a *Adapter) GetRecommendation(ctx context.Context, userID, id string) (domain.Recommendation, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT"+recommendationColumns+" FROM recommendations WHERE id = ? AND user_id = ?",
		id, userID)

	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Recommendation{}, domain.ErrNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("failed to load recommendation: %w", err)
	}
	return rec, nil
}

// ListRecommendations returns userID's recommendations, newest first.
func (a *Adapter) ListRecommendations(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := a.db.QueryContext(ctx,
		"SELECT"+recommendationColumns+" FROM recommendations WHERE user_id = ? ORDER BY created_at DESC, id ASC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	out := []domain.Recommendation{}
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	return out, nil
}

// UpdatePreviewEnergy records the loudness measured from the track preview.
func (a *Adapter) UpdatePreviewEnergy(ctx context.Context, recommendationID string, energy float64) error {
	res, err := a.db.ExecContext(ctx, "UPDATE recommendations SET preview_energy = ? WHERE id = ?", energy, recommendationID)
	if err != nil {
		return fmt.Errorf("failed to update preview energy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update preview energy: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(s scanner) (domain.Recommendation, error) {
	var rec domain.Recommendation
	var album, coverURL, providerURL, previewURL, imageRef sql.NullString
	var features, genres string
	var previewEnergy sql.NullFloat64

	if err := s.Scan(
		&rec.ID,
		&rec.TrackCandidate.ID,
		&rec.Song,
		&rec.Artist,
		&album,
		&coverURL,
		&providerURL,
		&previewURL,
		&rec.Explanation,
		&imageRef,
		&features,
		&genres,
		&rec.Profile.Valence,
		&rec.Profile.Energy,
		&rec.Profile.Danceability,
		&rec.Profile.Instrumentalness,
		&rec.Profile.Tempo,
		&previewEnergy,
		&rec.CreatedAt,
	); err != nil {
		return domain.Recommendation{}, err
	}

	rec.Album = album.String
	rec.AlbumCoverURL = coverURL.String
	rec.ProviderURL = providerURL.String
	rec.PreviewURL = previewURL.String
	rec.ImageRef = imageRef.String
	if previewEnergy.Valid {
		v := previewEnergy.Float64
		rec.PreviewEnergy = &v
	}

	var f domain.ImageFeatures
	if err := json.Unmarshal([]byte(features), &f); err != nil {
		return domain.Recommendation{}, fmt.Errorf("decode image features: %w", err)
	}
	rec.ImageFeatures = f.Normalized()
	if err := json.Unmarshal([]byte(genres), &rec.Genres); err != nil {
		return domain.Recommendation{}, fmt.Errorf("decode genres: %w", err)
	}
	return rec, nil
}
