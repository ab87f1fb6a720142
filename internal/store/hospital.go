package store

import (
	"context"
	"fmt"

	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const hospitalTableName = "bloodlink.hospitals"

var hospitalColumns = utils.StructTagValues(types.Hospital{})

type HospitalRepository struct {
	pool *pgxpool.Pool
}

func NewHospitalRepository(pool *pgxpool.Pool) *HospitalRepository {
	return &HospitalRepository{pool: pool}
}

func (r *HospitalRepository) Hospitals(ctx context.Context) ([]*types.Hospital, error) {

	query, args, err := psql().Select(hospitalColumns...).From(hospitalTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate hospitals query: %w", err)
	}

	var hospitals = make([]*types.Hospital, 0)
	err = pgxscan.Select(ctx, r.pool, &hospitals, query, args...)
	return hospitals, utils.ErrorWrapOrNil(err, "failed to fetch hospitals")
}

func (r *HospitalRepository) SaveHospital(ctx context.Context, hospital *types.Hospital) error {

	query, args, err := psql().
		Insert(hospitalTableName).
		SetMap(utils.StructToMap(hospital)).
		Suffix(upsertSuffix("id", hospitalColumns, "created_at")).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert hospital query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert hospital")
}
