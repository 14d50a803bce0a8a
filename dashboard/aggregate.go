package dashboard

import (
	"math"
	"time"

	"github.com/mbolis/conect-insights/model"
)

var WindowPresets = []int{7, 14, 30, 60}

const (
	DefaultWindow     = 14
	RecentLimit       = 30
	TopPerformerScore = 8.5
	UnknownName       = "unknown"
)

func ValidWindow(days int) bool {
	for _, d := range WindowPresets {
		if d == days {
			return true
		}
	}
	return false
}

// FilterByWindow keeps the submissions recorded at or after now minus days calendar days,
// preserving input order.
func FilterByWindow(submissions []model.Submission, days int, now time.Time) []model.Submission {
	cutoff := now.AddDate(0, 0, -days)
	filtered := make([]model.Submission, 0, len(submissions))
	for _, s := range submissions {
		if !s.Timestamp.Before(cutoff) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

type StoreStat struct {
	StoreID      string  `json:"storeId"`
	StoreName    string  `json:"storeName"`
	AverageNPS   float64 `json:"averageNps"`
	Count        int     `json:"count"`
	TopPerformer bool    `json:"topPerformer"`
}

// PerStoreStats averages NPS per store in store-list order. Stores without submissions
// are left out.
func PerStoreStats(submissions []model.Submission, stores []model.Store) []StoreStat {
	sums := make(map[string]int, len(stores))
	counts := make(map[string]int, len(stores))
	for _, s := range submissions {
		sums[s.StoreID] += s.NPSScore
		counts[s.StoreID]++
	}

	stats := []StoreStat{}
	for _, st := range stores {
		n := counts[st.ID]
		if n == 0 {
			continue
		}
		avg := roundTenth(float64(sums[st.ID]) / float64(n))
		stats = append(stats, StoreStat{
			StoreID:      st.ID,
			StoreName:    st.Name,
			AverageNPS:   avg,
			Count:        n,
			TopPerformer: avg >= TopPerformerScore,
		})
	}
	return stats
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

type Category string

const (
	Promoter  Category = "promoter"
	Passive   Category = "passive"
	Detractor Category = "detractor"
)

func Categorize(score int) Category {
	switch {
	case score >= 9:
		return Promoter
	case score <= 6:
		return Detractor
	}
	return Passive
}

type RecentSubmission struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	StoreName    string    `json:"storeName"`
	NPSScore     int       `json:"npsScore"`
	Category     Category  `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
}

// Recent lists the first n submissions with resolved store names.
func Recent(submissions []model.Submission, stores []model.Store, n int) []RecentSubmission {
	names := storeNames(stores)
	if n > len(submissions) {
		n = len(submissions)
	}
	recent := make([]RecentSubmission, 0, n)
	for _, s := range submissions[:n] {
		recent = append(recent, RecentSubmission{
			ID:           s.ID,
			CustomerName: s.CustomerName,
			StoreName:    lookup(names, s.StoreID),
			NPSScore:     s.NPSScore,
			Category:     Categorize(s.NPSScore),
			Timestamp:    s.Timestamp,
		})
	}
	return recent
}

func storeNames(stores []model.Store) map[string]string {
	names := make(map[string]string, len(stores))
	for _, st := range stores {
		names[st.ID] = st.Name
	}
	return names
}

func lookup(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownName
}

type Summary struct {
	Days        int                `json:"days"`
	Total       int                `json:"total"`
	Stores      []StoreStat        `json:"stores"`
	Submissions []RecentSubmission `json:"submissions"`
}

func Summarize(submissions []model.Submission, stores []model.Store, days int, now time.Time) Summary {
	filtered := FilterByWindow(submissions, days, now)
	return Summary{
		Days:        days,
		Total:       len(filtered),
		Stores:      PerStoreStats(filtered, stores),
		Submissions: Recent(filtered, stores, RecentLimit),
	}
}
