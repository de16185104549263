package analytics

import (
	"regexp"
	"sort"
	"strings"

	prose "github.com/jdkato/prose/v2"

	"github.com/chatforge/backend/internal/storage/models"
)

// nonWordRe strips everything outside the lowercase alphabet plus the
// accented letters of the product's primary locale.
var nonWordRe = regexp.MustCompile(`[^a-záéíóúüñ]`)

// stopwords covers the primary locale and English, which mixes into
// customer messages constantly.
var stopwords = map[string]bool{
	// Spanish
	"para": true, "pero": true, "porque": true, "como": true, "cuando": true,
	"donde": true, "dónde": true, "este": true, "esta": true, "esto": true,
	"estos": true, "estas": true, "ellos": true, "ellas": true, "nosotros": true,
	"usted": true, "ustedes": true, "tiene": true, "tienen": true, "tengo": true,
	"hace": true, "hacer": true, "puede": true, "puedo": true, "pueden": true,
	"quiero": true, "quisiera": true, "necesito": true, "sobre": true, "entre": true,
	"desde": true, "hasta": true, "también": true, "tambien": true, "más": true,
	"menos": true, "mucho": true, "muchas": true, "muchos": true, "poco": true,
	"algo": true, "alguien": true, "algún": true, "alguna": true, "gracias": true,
	"hola": true, "buenas": true, "buenos": true, "días": true, "dias": true,
	"tardes": true, "noches": true, "favor": true, "saber": true, "sería": true,
	"seria": true, "está": true, "están": true, "estoy": true, "estamos": true,
	// English
	"this": true, "that": true, "with": true, "have": true, "what": true,
	"when": true, "where": true, "which": true, "would": true, "could": true,
	"should": true, "about": true, "there": true, "their": true, "they": true,
	"your": true, "yours": true, "from": true, "will": true, "want": true,
	"need": true, "please": true, "thanks": true, "thank": true, "hello": true,
	"does": true, "know": true, "like": true, "just": true, "been": true,
	"much": true, "many": true, "more": true, "some": true, "also": true,
}

// buildWordcloud tallies term frequency across every user message in the
// window and returns the top limit terms by descending count, ties broken
// by first encounter.
func buildWordcloud(sessions []models.ConversationSession, limit int) []WordCount {
	var sb strings.Builder
	for _, s := range sessions {
		for _, m := range s.Messages {
			if m.Role == models.RoleUser {
				sb.WriteString(m.Content)
				sb.WriteByte('\n')
			}
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return []WordCount{}
	}

	counts := make(map[string]int)
	var order []string

	for _, token := range tokenize(text) {
		word := nonWordRe.ReplaceAllString(strings.ToLower(token), "")
		if len([]rune(word)) <= 3 || stopwords[word] {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	cloud := make([]WordCount, 0, len(order))
	for _, word := range order {
		cloud = append(cloud, WordCount{Word: word, Count: counts[word]})
	}

	// Stable sort keeps first-encounter order among equal counts.
	sort.SliceStable(cloud, func(i, j int) bool {
		return cloud[i].Count > cloud[j].Count
	})

	if len(cloud) > limit {
		cloud = cloud[:limit]
	}
	return cloud
}

// tokenize runs the prose tokenizer with tagging and entity extraction
// disabled, falling back to whitespace splitting if it fails.
func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.Fields(text)
	}

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Text)
	}
	return out
}
