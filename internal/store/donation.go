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

const donationTableName = "bloodlink.donations"

var donationColumns = utils.StructTagValues(types.Donation{})

// A response schedules at most one donation; replays keep the first.
const donationInsertSuffix = "ON CONFLICT (response_id) DO NOTHING"

// DonationRepository stores scheduled donations. It satisfies
// lifecycle.DonationStore.
type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) SaveDonation(ctx context.Context, donation *types.Donation) error {

	query, args, err := psql().
		Insert(donationTableName).
		SetMap(utils.StructToMap(donation)).
		Suffix(donationInsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}

	return nil
}

func (r *DonationRepository) DonorDonations(ctx context.Context, donorID string) ([]*types.Donation, error) {
	return r.donations(ctx, sq.Eq{"donor_id": donorID})
}

func (r *DonationRepository) HospitalDonations(ctx context.Context, hospitalID string) ([]*types.Donation, error) {
	return r.donations(ctx, sq.Eq{"hospital_id": hospitalID})
}

func (r *DonationRepository) donations(ctx context.Context, where sq.Eq) ([]*types.Donation, error) {

	query, args, err := donationsQuery(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	if err := pgxscan.Select(ctx, r.pool, &donations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}

	return donations, nil
}

func donationsQuery(where sq.Eq) sq.SelectBuilder {
	return psql().Select(donationColumns...).From(donationTableName).
		Where(where).
		OrderBy("scheduled_at DESC", "id")
}
