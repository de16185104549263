package textutil

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// NormalizeQuestion produces the dedup key for a knowledge question:
// lowercased, trimmed, inner whitespace collapsed, trailing question
// marks removed. Two questions with the same key are the same question.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.TrimRight(q, "?¿ ")
	return strings.Join(strings.Fields(q), " ")
}

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
