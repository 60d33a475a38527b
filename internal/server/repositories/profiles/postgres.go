package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/dbx"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {

	query :=
		`INSERT INTO profiles (id, encryption_salt)
         VALUES ($1, $2)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.ID, p.EncryptionSalt).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT id, encryption_salt, encrypted_user_master_key, created_at, updated_at FROM profiles
		 WHERE id = $1
		 `

	p := &models.Profile{}
	var key sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.EncryptionSalt, &key, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if key.Valid {
		p.EncryptedUserMasterKey = &key.String
	}

	return p, nil
}

func (r *PostgresRepository) SetEncryptedMasterKey(ctx context.Context, id string, blob string) error {
	query :=
		`UPDATE profiles SET encrypted_user_master_key = $2, updated_at = now()
		 WHERE id = $1 AND encrypted_user_master_key IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, blob)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 1 {
		return nil
	}

	// nothing updated: either the profile is unknown or the key is set
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return common.ErrMasterKeyAlreadySet
}
