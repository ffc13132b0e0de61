package documents

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soleilcom/gestion/internal/backend"
)

// Record is one stored document as shown on a state page.
type Record struct {
	ID        int64
	Kind      Kind
	PartyID   int64
	PartyName string
	Date      time.Time
	RawDate   string
	Lines     int
	Total     decimal.Decimal
}

// Stats summarises the stored documents of one kind.
type Stats struct {
	Total           int
	Today           int
	ThisWeek        int
	DistinctParties int
	Records         []Record
}

// StartOfWeek returns the Sunday 00:00 that opens the week of now.
func StartOfWeek(now time.Time) time.Time {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// ComputeStats counts records for today and the current week and orders
// them newest first. Records without a parseable date are listed last and
// counted only in the total.
func ComputeStats(records []Record, now time.Time) Stats {
	stats := Stats{Total: len(records)}
	weekStart := StartOfWeek(now)
	ny, nm, nd := now.Date()
	parties := make(map[int64]struct{})
	for _, rec := range records {
		parties[rec.PartyID] = struct{}{}
		if rec.Date.IsZero() {
			continue
		}
		local := rec.Date.In(now.Location())
		if y, m, d := local.Date(); y == ny && m == nm && d == nd {
			stats.Today++
		}
		if !local.Before(weekStart) {
			stats.ThisWeek++
		}
	}
	stats.DistinctParties = len(parties)

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date.Equal(b.Date) {
			return a.ID > b.ID
		}
		return a.Date.After(b.Date)
	})
	stats.Records = sorted
	return stats
}

func achatRecords(achats []backend.Achat, loc *time.Location, supplierName func(int64) string) []Record {
	out := make([]Record, 0, len(achats))
	for _, a := range achats {
		date, _ := backend.ParseDate(a.DateAchat, loc)
		name := ""
		if a.Fournisseur != nil {
			name = a.Fournisseur.DisplayName()
		}
		if name == "" && supplierName != nil {
			name = supplierName(a.FournisseurID)
		}
		out = append(out, Record{
			ID:        a.ID,
			Kind:      KindAchat,
			PartyID:   a.FournisseurID,
			PartyName: name,
			Date:      date,
			RawDate:   a.DateAchat,
			Lines:     len(a.ArticlesData),
			Total:     a.MontantTotal,
		})
	}
	return out
}

func venteRecords(ventes []backend.Vente, loc *time.Location, clientName func(int64) string) []Record {
	out := make([]Record, 0, len(ventes))
	for _, v := range ventes {
		date, _ := backend.ParseDate(v.DateVente, loc)
		name := ""
		if v.Client != nil {
			name = v.Client.DisplayName()
		}
		if name == "" && clientName != nil {
			name = clientName(v.ClientID)
		}
		out = append(out, Record{
			ID:        v.ID,
			Kind:      KindVente,
			PartyID:   v.ClientID,
			PartyName: name,
			Date:      date,
			RawDate:   v.DateVente,
			Lines:     len(v.ArticleData),
			Total:     v.MontantTotal,
		})
	}
	return out
}
