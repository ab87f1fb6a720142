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

const (
	requestTableName  = "bloodlink.blood_requests"
	responseTableName = "bloodlink.responses"
)

var (
	requestColumns  = utils.StructTagValues(types.BloodRequest{})
	responseColumns = utils.StructTagValues(types.Response{})
)

// requestUpsertSuffix only lets an upsert touch a row that is still open, so a
// closed request can never be reopened or receive new responses.
var requestUpsertSuffix = upsertSuffix("id", requestColumns, "hospital_id", "blood_type", "origin_lat", "origin_lon", "created_at") +
	" WHERE blood_requests.state = 'open'"

// Distance and note are frozen when a response is recorded.
var responseUpsertSuffix = upsertSuffix("id", responseColumns, "request_id", "donor_id", "note", "distance_km", "responded_at")

// RequestRepository stores blood requests and their responses. It satisfies
// lifecycle.Store.
type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.BloodRequest, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate blood request query: %w", err)
	}

	var req = new(types.BloodRequest)
	err = pgxscan.Get(ctx, r.pool, req, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrRequestNotFound
	}

	if err := r.attachResponses(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

func (r *RequestRepository) OpenRequests(ctx context.Context) ([]*types.BloodRequest, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"state": types.RequestStateOpen}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate open requests query: %w", err)
	}

	var requests = make([]*types.BloodRequest, 0)
	if err := pgxscan.Select(ctx, r.pool, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch open requests: %w", err)
	}

	if err := r.attachResponses(ctx, requests...); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *RequestRepository) HospitalRequests(ctx context.Context, hospitalID string, state types.RequestState) ([]*types.BloodRequest, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"hospital_id": hospitalID, "state": state}).
		OrderBy("closed_at DESC NULLS LAST", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate hospital requests query: %w", err)
	}

	var requests = make([]*types.BloodRequest, 0)
	if err := pgxscan.Select(ctx, r.pool, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch hospital requests: %w", err)
	}

	if err := r.attachResponses(ctx, requests...); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *RequestRepository) attachResponses(ctx context.Context, requests ...*types.BloodRequest) error {
	if len(requests) == 0 {
		return nil
	}

	byID := make(map[string]*types.BloodRequest, len(requests))
	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		req.Responses = make([]*types.Response, 0)
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	query, args, err := psql().Select(responseColumns...).From(responseTableName).
		Where(sq.Eq{"request_id": ids}).
		OrderBy("responded_at", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate responses query: %w", err)
	}

	var responses = make([]*types.Response, 0)
	if err := pgxscan.Select(ctx, r.pool, &responses, query, args...); err != nil {
		return fmt.Errorf("failed to fetch responses: %w", err)
	}

	for _, resp := range responses {
		if req, ok := byID[resp.RequestID]; ok {
			req.Responses = append(req.Responses, resp)
		}
	}

	return nil
}

// SaveRequest upserts the request row and every response in one transaction.
// Saving over a request that is already closed fails with ErrRequestClosed.
func (r *RequestRepository) SaveRequest(ctx context.Context, req *types.BloodRequest) error {

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin blood request transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := psql().
		Insert(requestTableName).
		SetMap(utils.StructToMap(req)).
		Suffix(requestUpsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert blood request query: %w", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert blood request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRequestClosed
	}

	if len(req.Responses) > 0 {
		insertBuilder := psql().
			Insert(responseTableName).
			Columns(responseColumns...)

		for _, resp := range req.Responses {
			insertBuilder = insertBuilder.Values(rowValues(responseColumns, utils.StructToMap(resp))...)
		}

		responseQuery, responseArgs, err := insertBuilder.Suffix(responseUpsertSuffix).ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate upsert responses query: %w", err)
		}

		if _, err := tx.Exec(ctx, responseQuery, responseArgs...); err != nil {
			return fmt.Errorf("failed to upsert responses: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit blood request transaction: %w", err)
	}

	return nil
}
