package postgresql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// CreatePlayer inserts a new player record. Returns ErrAlreadyExists if a
// record for the user ID is present.
func (pm *playerManager) CreatePlayer(ctx context.Context, player *models.Player) apperrors.Error {
	if player == nil || player.UserID == "" {
		return dberror.ErrMissingUserID
	}

	if player.Level == 0 {
		player.Level = 1
	}

	query := `
		INSERT INTO players (user_id, display_name, level, experience, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING user_id;
	`
	var insertedUserID string
	errDb := pm.conn().QueryRowContext(ctx, query,
		player.UserID, player.DisplayName, player.Level,
		player.Experience, player.Currency).Scan(&insertedUserID)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return dberror.ErrAlreadyExists.Msg("player already exists")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("user_id", player.UserID).Msg("failed to insert player")
		return dberror.ErrDatabase.Err(errDb)
	}
	return nil
}

// GetPlayer retrieves a player record by user ID.
func (pm *playerManager) GetPlayer(ctx context.Context, userID string) (*models.Player, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}

	query := `
		SELECT user_id, display_name, level, experience, currency,
		       COALESCE(active_game_session_id, ''), session_setup, setup_version,
		       created_at, updated_at
		FROM players
		WHERE user_id = $1;
	`
	player := &models.Player{}
	var setup []byte
	err := pm.conn().QueryRowContext(ctx, query, userID).Scan(
		&player.UserID, &player.DisplayName, &player.Level, &player.Experience,
		&player.Currency, &player.ActiveGameSessionID, &setup,
		&player.SetupVersion, &player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("player not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to get player")
		return nil, dberror.ErrDatabase.Err(err)
	}
	if len(setup) > 0 {
		player.SessionSetup = &models.SessionSetup{}
		if err := unmarshalJSONB(setup, player.SessionSetup); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to decode session setup")
			return nil, dberror.ErrDatabase.Err(err)
		}
	}
	return player, nil
}

// UpdateSessionSetup replaces the player's session setup document, guarded by
// the expected setup version. A nil setup clears the document. Returns the
// new setup version; a zero-row update is disambiguated into ErrNotFound or
// ErrVersionConflict.
func (pm *playerManager) UpdateSessionSetup(ctx context.Context, userID string, setup *models.SessionSetup, expectedVersion int64) (int64, apperrors.Error) {
	if userID == "" {
		return 0, dberror.ErrMissingUserID
	}

	doc, err := marshalJSONB(setup)
	if err != nil {
		return 0, dberror.ErrInvalidInput.Err(err)
	}

	query := `
		UPDATE players
		SET session_setup = $2,
		    setup_version = setup_version + 1,
		    updated_at = NOW()
		WHERE user_id = $1 AND setup_version = $3
		RETURNING setup_version;
	`
	var newVersion int64
	errDb := pm.conn().QueryRowContext(ctx, query, userID, doc, expectedVersion).Scan(&newVersion)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			// Either the player does not exist or the version moved.
			var exists bool
			if chkErr := pm.conn().QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM players WHERE user_id = $1)`, userID).Scan(&exists); chkErr != nil {
				return 0, dberror.ErrDatabase.Err(chkErr)
			}
			if !exists {
				return 0, dberror.ErrNotFound.Msg("player not found")
			}
			return 0, dberror.ErrVersionConflict.Msg("session setup was modified concurrently")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("user_id", userID).Msg("failed to update session setup")
		return 0, dberror.ErrDatabase.Err(errDb)
	}
	return newVersion, nil
}
