package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/chatforge/backend/internal/storage/models"
)

func sessionWithMessages(messages ...models.Message) models.ConversationSession {
	return models.ConversationSession{
		ID:        "s1",
		BotID:     "b1",
		Messages:  messages,
		CreatedAt: time.Now(),
	}
}

func userMsg(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content, Timestamp: time.Now()}
}

func assistantMsg(content string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: content, Timestamp: time.Now()}
}

func findWord(cloud []WordCount, word string) (WordCount, bool) {
	for _, wc := range cloud {
		if wc.Word == word {
			return wc, true
		}
	}
	return WordCount{}, false
}

func TestWordcloudCountsUserMessagesOnly(t *testing.T) {
	sessions := []models.ConversationSession{
		sessionWithMessages(
			userMsg("problema con factura"),
			assistantMsg("lamento escuchar del inconveniente reportado"),
			userMsg("factura duplicada otra factura"),
		),
	}

	cloud := buildWordcloud(sessions, 50)

	wc, ok := findWord(cloud, "factura")
	if !ok {
		t.Fatalf("expected 'factura' in cloud: %v", cloud)
	}
	if wc.Count != 3 {
		t.Errorf("expected 'factura' count 3, got %d", wc.Count)
	}
	if _, ok := findWord(cloud, "inconveniente"); ok {
		t.Error("assistant vocabulary must not appear in the wordcloud")
	}
}

func TestWordcloudFiltersShortAndStopwords(t *testing.T) {
	sessions := []models.ConversationSession{
		sessionWithMessages(userMsg("hola quiero saber sobre los envíos por favor")),
	}

	cloud := buildWordcloud(sessions, 50)

	for _, banned := range []string{"hola", "quiero", "saber", "sobre", "favor", "los", "por"} {
		if _, ok := findWord(cloud, banned); ok {
			t.Errorf("expected %q filtered out, cloud: %v", banned, cloud)
		}
	}
	if _, ok := findWord(cloud, "envíos"); !ok {
		t.Errorf("expected accented term 'envíos' kept, cloud: %v", cloud)
	}
}

func TestWordcloudOrderingAndTies(t *testing.T) {
	sessions := []models.ConversationSession{
		sessionWithMessages(
			userMsg("pedido pedido pedido envío envío garantía"),
			userMsg("devolución"),
		),
	}

	cloud := buildWordcloud(sessions, 50)

	if len(cloud) != 4 {
		t.Fatalf("expected 4 entries, got %v", cloud)
	}
	if cloud[0].Word != "pedido" || cloud[0].Count != 3 {
		t.Errorf("expected 'pedido'(3) first, got %+v", cloud[0])
	}
	if cloud[1].Word != "envío" || cloud[1].Count != 2 {
		t.Errorf("expected 'envío'(2) second, got %+v", cloud[1])
	}
	// garantía and devolución tie at 1; first encountered wins.
	if cloud[2].Word != "garantía" || cloud[3].Word != "devolución" {
		t.Errorf("tie must preserve first-encounter order, got %+v", cloud[2:])
	}
}

func TestWordcloudTopLimit(t *testing.T) {
	var messages []models.Message
	for i := 0; i < 60; i++ {
		word := fmt.Sprintf("palabra%c%c", 'a'+i%26, 'a'+(i/26)%26)
		// Repeat each word a distinct number of times so counts differ.
		for j := 0; j <= i; j++ {
			messages = append(messages, userMsg(word))
		}
	}
	sessions := []models.ConversationSession{sessionWithMessages(messages...)}

	cloud := buildWordcloud(sessions, 50)

	if len(cloud) != 50 {
		t.Fatalf("expected top 50, got %d", len(cloud))
	}
	for i := 1; i < len(cloud); i++ {
		if cloud[i].Count > cloud[i-1].Count {
			t.Fatalf("cloud not sorted by descending count at %d: %v > %v", i, cloud[i], cloud[i-1])
		}
	}
}
