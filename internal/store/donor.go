package store

import (
	"context"
	"fmt"

	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const donorTableName = "bloodlink.donors"

var donorColumns = utils.StructTagValues(types.Donor{})

type DonorRepository struct {
	pool *pgxpool.Pool
}

func NewDonorRepository(pool *pgxpool.Pool) *DonorRepository {
	return &DonorRepository{pool: pool}
}

func (r *DonorRepository) Donor(ctx context.Context, donorID string) (*types.Donor, error) {

	query, args, err := psql().Select(donorColumns...).From(donorTableName).
		Where(sq.Eq{"id": donorID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor query: %w", err)
	}

	var donor = new(types.Donor)
	err = pgxscan.Get(ctx, r.pool, donor, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrDonorNotFound
	}

	return donor, nil
}

// AllDonors loads every donor, active or not, to hydrate the registry.
func (r *DonorRepository) AllDonors(ctx context.Context) ([]*types.Donor, error) {

	query, args, err := psql().Select(donorColumns...).From(donorTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donors query: %w", err)
	}

	var donors = make([]*types.Donor, 0)
	err = pgxscan.Select(ctx, r.pool, &donors, query, args...)
	return donors, utils.ErrorWrapOrNil(err, "failed to fetch donors")
}

// SaveDonor upserts the donor. Blood type and creation time never change
// once written.
func (r *DonorRepository) SaveDonor(ctx context.Context, donor *types.Donor) error {

	query, args, err := psql().
		Insert(donorTableName).
		SetMap(utils.StructToMap(donor)).
		Suffix(upsertSuffix("id", donorColumns, "blood_type", "created_at")).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert donor query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert donor")
}
