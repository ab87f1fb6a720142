package store

import (
	"strings"
	"testing"

	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSuffix(t *testing.T) {
	got := upsertSuffix("id", []string{"id", "name", "blood_type", "updated_at"}, "blood_type")
	assert.Equal(t, "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at", got)
}

func TestRequestUpsertOnlyTouchesOpenRows(t *testing.T) {
	assert.True(t, strings.HasSuffix(requestUpsertSuffix, "WHERE blood_requests.state = 'open'"))
	for _, frozen := range []string{"blood_type =", "hospital_id =", "created_at ="} {
		assert.NotContains(t, requestUpsertSuffix, frozen)
	}
	assert.Contains(t, requestUpsertSuffix, "state = EXCLUDED.state")
	assert.Contains(t, requestUpsertSuffix, "units_needed = EXCLUDED.units_needed")
}

func TestResponseUpsertFreezesDistance(t *testing.T) {
	assert.NotContains(t, responseUpsertSuffix, "distance_km =")
	assert.NotContains(t, responseUpsertSuffix, "note =")
	assert.Contains(t, responseUpsertSuffix, "state = EXCLUDED.state")
}

func TestColumnsSkipNonPersistedFields(t *testing.T) {
	assert.NotContains(t, requestColumns, "responses")
	assert.Contains(t, requestColumns, "accepted_response_id")
	assert.Contains(t, donorColumns, "is_available")
	assert.Contains(t, hospitalColumns, "latitude")
}

func TestRowValuesFollowColumnOrder(t *testing.T) {
	resp := &types.Response{
		ID:         "resp-1",
		RequestID:  "req-1",
		DonorID:    "donor-1",
		State:      types.ResponseStatePending,
		DistanceKm: utils.Float64Ptr(3.2),
	}

	values := rowValues(responseColumns, utils.StructToMap(resp))
	require.Len(t, values, len(responseColumns))
	for i, column := range responseColumns {
		switch column {
		case "id":
			assert.Equal(t, "resp-1", values[i])
		case "donor_id":
			assert.Equal(t, "donor-1", values[i])
		case "state":
			assert.Equal(t, types.ResponseStatePending, values[i])
		}
	}
}

func TestSelectQueriesUseDollarPlaceholders(t *testing.T) {
	query, args, err := psql().Select(responseColumns...).From(responseTableName).
		Where(map[string]any{"request_id": []string{"a", "b"}}).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "request_id IN ($1,$2)")
	assert.Len(t, args, 2)
}

func TestDonationsQuery(t *testing.T) {
	query, args, err := donationsQuery(map[string]any{"donor_id": "donor-1"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "FROM bloodlink.donations WHERE donor_id = $1 ORDER BY scheduled_at DESC, id")
	assert.Equal(t, []any{"donor-1"}, args)

	assert.Contains(t, donationColumns, "response_id")
	assert.Contains(t, donationColumns, "scheduled_at")
	assert.Equal(t, "ON CONFLICT (response_id) DO NOTHING", donationInsertSuffix)
}
