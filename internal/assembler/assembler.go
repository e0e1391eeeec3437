// Package assembler produces templated answers from retrieved chunks.
//
// Generation is a pure mapping: a topic tag is derived from the query by
// keyword scan, then dispatched to a fixed template catalog per output
// language. No generative model is involved.
package assembler

import (
	"fmt"
	"strings"

	"github.com/medrag-labs/medragd/internal/language"
)

// Topic is a tag from the finite topic set the catalog covers.
type Topic string

const (
	TopicDiabetes     Topic = "diabetes"
	TopicHypertension Topic = "hypertension"
	TopicGeneral      Topic = "general"
)

// topicKeywords maps topics to the keywords that select them. English
// keywords cover translated queries; the Japanese terms catch queries whose
// translation degraded.
var topicKeywords = map[Topic][]string{
	TopicDiabetes:     {"diabetes", "blood sugar", "glucose", "a1c", "糖尿病", "血糖"},
	TopicHypertension: {"hypertension", "blood pressure", "high bp", "高血圧", "血圧"},
}

// Classify derives the topic tag from a query by keyword scan.
func Classify(query string) Topic {
	q := strings.ToLower(query)
	for _, topic := range []Topic{TopicDiabetes, TopicHypertension} {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(q, kw) {
				return topic
			}
		}
	}
	return TopicGeneral
}

// Generate assembles an answer for the query in the requested language,
// citing the number of retrieved source documents.
func Generate(query string, lang language.Language, sourceCount int) string {
	catalog, ok := templates[lang]
	if !ok {
		catalog = templates[language.EN]
	}
	answer, ok := catalog[Classify(query)]
	if !ok {
		answer = catalog[TopicGeneral]
	}

	if sourceCount > 0 {
		if lang == language.JA {
			answer += fmt.Sprintf("\n\n**参照された医療ソース:** %d件の文書を分析しました。", sourceCount)
		} else {
			answer += fmt.Sprintf("\n\n**Referenced Medical Sources:** %d document(s) analyzed.", sourceCount)
		}
	}
	return answer
}
