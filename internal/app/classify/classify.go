// Package classify maps noisy category text from spreadsheets onto the closed
// enumerations of the models package. Every mapper is total: unmatched input
// falls back to a default instead of failing.
package classify

import (
	"strings"
	"time"

	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/pkg/textnorm"
)

var (
	doctoralKeywords  = []string{"دكتور", "دكتورا", "phd", "p.h.d"}
	assistantKeywords = []string{"معيد", "assistant"}

	registeredKeywords = []string{"مسجل", "registered"}
	discussedKeywords  = []string{"ناقش", "مناقش", "نوقش", "تمت المناقشة", "discussed"}
	cancelledKeywords  = []string{"الغاء", "إلغاء", "cancel"}
	dismissedKeywords  = []string{"فصل", "dismissed"}
)

// StatusResult is the outcome of mapping a raw status cell.
type StatusResult struct {
	Status models.Status
	Note   string
	Date   *time.Time
}

// Degree returns PHD when raw mentions a doctoral term, MA otherwise.
func Degree(raw any) models.Degree {
	if containsAny(lower(raw), doctoralKeywords) {
		return models.DegreePhD
	}
	return models.DegreeMA
}

// Kind returns ASSISTANT when raw carries the assistant keyword, RESEARCHER otherwise.
func Kind(raw any) models.SubjectKind {
	if containsAny(lower(raw), assistantKeywords) {
		return models.KindAssistant
	}
	return models.KindResearcher
}

// Status tests raw against keyword sets in priority order: registered,
// discussed, cancelled, dismissed. Empty input is Registered with no note.
// Anything unmatched is Other and keeps the raw text as a note for review.
func Status(raw any) StatusResult {
	s := textnorm.Text(raw)
	if s == "" {
		return StatusResult{Status: models.StatusRegistered}
	}

	l := strings.ToLower(s)
	switch {
	case containsAny(l, registeredKeywords):
		return StatusResult{Status: models.StatusRegistered}
	case containsAny(l, discussedKeywords):
		return StatusResult{Status: models.StatusDiscussed, Note: s}
	case containsAny(l, cancelledKeywords):
		return StatusResult{Status: models.StatusCancelled, Note: s}
	case containsAny(l, dismissedKeywords):
		return StatusResult{Status: models.StatusDismissed, Note: s}
	}
	return StatusResult{Status: models.StatusOther, Note: s}
}

func lower(raw any) string {
	return strings.ToLower(textnorm.Text(raw))
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
