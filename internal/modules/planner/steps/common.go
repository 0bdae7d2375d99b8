package steps

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/envutil"
)

func mustJSON(v any) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func hoursFromSeconds(seconds int64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(seconds) / 3600.0
}

func fmtHours(h float64) string {
	return strconv.FormatFloat(round2(h), 'f', -1, 64)
}

func fmtInt(n int) string {
	return strconv.Itoa(n)
}

func fmtDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// envInt and envFloat reject non-positive overrides; the tunables they feed
// (cadences, quotas, hour floors) are meaningless at zero or below.
func envInt(key string, def int) int {
	if v := envutil.Int(key, def); v > 0 {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := envutil.Float64(key, def); v > 0 {
		return v
	}
	return def
}

// masteryByCode indexes mastery rows by concept code. Absent entries mean
// probability 0.
func masteryByCode(rows []*domain.ConceptMastery) map[string]float64 {
	out := make(map[string]float64, len(rows))
	for _, m := range rows {
		if m == nil || m.ConceptCode == "" {
			continue
		}
		out[m.ConceptCode] = m.Probability
	}
	return out
}

func conceptsByCode(rows []*domain.Concept) map[string]*domain.Concept {
	out := make(map[string]*domain.Concept, len(rows))
	for _, c := range rows {
		if c == nil || c.Code == "" {
			continue
		}
		out[c.Code] = c
	}
	return out
}

func titlesFor(codes []string, byCode map[string]*domain.Concept) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if c, ok := byCode[code]; ok && strings.TrimSpace(c.Title) != "" {
			out = append(out, c.Title)
			continue
		}
		out = append(out, code)
	}
	return out
}

func joinWithLimit(parts []string, sep string, max int) string {
	if max > 0 && len(parts) > max {
		kept := parts[:max]
		return strings.Join(kept, sep) + fmt.Sprintf("%s and %d more", sep, len(parts)-max)
	}
	return strings.Join(parts, sep)
}
