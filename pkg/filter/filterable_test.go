package filter

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitype "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
)

func TestFilterOptionsFromRequest(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		wantSortField string
		wantSort      apitype.Sort
		wantLimit     int
		wantItems     int
		wantLink      LinkOperator
		bad           bool
	}{
		{
			name:          "defaults when nothing given",
			url:           "/api/events",
			wantSortField: "date",
			wantSort:      apitype.SortAscending,
		},
		{
			name:          "explicit sort and limit",
			url:           "/api/events?sortField=time_of_day&sort=desc&limit=25",
			wantSortField: "time_of_day",
			wantSort:      apitype.SortDescending,
			wantLimit:     25,
		},
		{
			name:          "single filter item",
			url:           `/api/events?filter={"items":[{"columnField":"origin","operatorValue":"equals","value":"imported"}]}`,
			wantSortField: "date",
			wantSort:      apitype.SortAscending,
			wantItems:     1,
		},
		{
			name:          "chained filters with or",
			url:           `/api/events?filter={"items":[{"columnField":"origin","operatorValue":"equals","value":"imported"},{"columnField":"time_of_day","operatorValue":">","value":"480"}],"linkOperator":"or"}`,
			wantSortField: "date",
			wantSort:      apitype.SortAscending,
			wantItems:     2,
			wantLink:      LinkOperatorOr,
		},
		{
			name: "malformed filter json",
			url:  `/api/events?filter={not-json`,
			bad:  true,
		},
		{
			name: "non numeric limit",
			url:  "/api/events?limit=many",
			bad:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.url, nil)
			opts, err := FilterOptionsFromRequest(req, "date", apitype.SortAscending)
			if tc.bad {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSortField, opts.SortField)
			assert.Equal(t, tc.wantSort, opts.Sort)
			assert.Equal(t, tc.wantLimit, opts.Limit)
			require.Len(t, opts.Filter.Items, tc.wantItems)
			assert.Equal(t, tc.wantLink, opts.Filter.LinkOperator)
		})
	}
}

func TestFilterItemUnmarshal(t *testing.T) {
	req := httptest.NewRequest("GET",
		`/api/events?filter={"items":[{"columnField":"device_id","not":true,"operatorValue":"starts%20with","value":"rep-"}]}`, nil)
	opts, err := FilterOptionsFromRequest(req, "date", apitype.SortAscending)
	require.NoError(t, err)

	require.Len(t, opts.Filter.Items, 1)
	item := opts.Filter.Items[0]
	assert.Equal(t, "device_id", item.Field)
	assert.True(t, item.Not)
	assert.Equal(t, OperatorStartsWith, item.Operator)
	assert.Equal(t, "rep-", item.Value)
}
