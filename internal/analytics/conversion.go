package analytics

import (
	"regexp"

	"github.com/chatforge/backend/internal/storage/models"
)

// conversionMarkers are the fixed textual patterns an assistant reply
// carries after a successful external action (booking, ticket, handoff).
// The chat layer emits these verbatim, in the product's two languages.
var conversionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)booking confirmed`),
	regexp.MustCompile(`(?i)appointment (booked|confirmed|scheduled)`),
	regexp.MustCompile(`(?i)reserva confirmada`),
	regexp.MustCompile(`(?i)cita (agendada|confirmada|reservada)`),
	regexp.MustCompile(`(?i)ticket #?\d* ?(created|creado|abierto)`),
	regexp.MustCompile(`(?i)(he|hemos) creado (tu|su) ticket`),
	regexp.MustCompile(`(?i)your request has been (submitted|forwarded)`),
	regexp.MustCompile(`(?i)(tu|su) solicitud ha sido (enviada|registrada)`),
}

// countConversions marks a session converted when any assistant message
// matches a marker. Rate is a percentage with one decimal; an empty
// window yields 0, not a division error.
func countConversions(sessions []models.ConversationSession) (int, float64) {
	conversions := 0
	for _, s := range sessions {
		if sessionConverted(s) {
			conversions++
		}
	}

	if len(sessions) == 0 {
		return 0, 0
	}
	rate := roundRate(float64(conversions) / float64(len(sessions)) * 100)
	return conversions, rate
}

func sessionConverted(s models.ConversationSession) bool {
	for _, m := range s.Messages {
		if m.Role != models.RoleAssistant {
			continue
		}
		for _, marker := range conversionMarkers {
			if marker.MatchString(m.Content) {
				return true
			}
		}
	}
	return false
}
