package documents

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
)

func TestStartOfWeekIsSunday(t *testing.T) {
	wed := time.Date(2024, 5, 8, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), StartOfWeek(wed))

	sun := time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), StartOfWeek(sun))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	achats := []backend.Achat{
		{ID: 1, FournisseurID: 3, DateAchat: "2024-05-08", MontantTotal: decimal.NewFromInt(100)},
		{ID: 2, FournisseurID: 3, DateAchat: "2024-05-06"},
		{ID: 3, FournisseurID: 4, DateAchat: "2024-05-04T10:00:00Z"},
		{ID: 4, FournisseurID: 5, DateAchat: "not a date"},
		{ID: 5, FournisseurID: 4, DateAchat: "2024-05-08", Fournisseur: &backend.Fournisseur{Nom: "Koffi", Prenom: "Ama"}},
	}
	records := achatRecords(achats, time.UTC, func(id int64) string {
		if id == 3 {
			return "Kouassi"
		}
		return ""
	})

	stats := ComputeStats(records, now)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Today)
	assert.Equal(t, 3, stats.ThisWeek)
	assert.Equal(t, 3, stats.DistinctParties)

	require.Len(t, stats.Records, 5)
	ids := make([]int64, 0, 5)
	for _, r := range stats.Records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{5, 1, 2, 3, 4}, ids)
	assert.Equal(t, "Ama Koffi", stats.Records[0].PartyName)
	assert.Equal(t, "Kouassi", stats.Records[1].PartyName)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.DistinctParties)
	assert.Empty(t, stats.Records)
}
