package gita

import "strings"

type Chapter struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Slug                string `json:"slug,omitempty"`
	NameTransliterated  string `json:"name_transliterated"`
	NameTranslated      string `json:"name_translated"`
	VersesCount         int    `json:"verses_count"`
	ChapterNumber       int    `json:"chapter_number"`
	NameMeaning         string `json:"name_meaning"`
	ChapterSummary      string `json:"chapter_summary"`
	ChapterSummaryHindi string `json:"chapter_summary_hindi,omitempty"`
}

type Translation struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	AuthorName  string `json:"author_name"`
	Language    string `json:"language"`
}

type Commentary struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	AuthorName  string `json:"author_name"`
	Language    string `json:"language"`
}

type Verse struct {
	ID              int           `json:"id"`
	VerseNumber     int           `json:"verse_number"`
	ChapterNumber   int           `json:"chapter_number"`
	Slug            string        `json:"slug,omitempty"`
	Text            string        `json:"text"`
	Transliteration string        `json:"transliteration,omitempty"`
	WordMeanings    string        `json:"word_meanings,omitempty"`
	Translations    []Translation `json:"translations"`
	Commentaries    []Commentary  `json:"commentaries"`
}

// Translation returns the first translation in language, falling back to
// the first translation of any language.
func (v Verse) Translation(language string) (Translation, bool) {
	for _, t := range v.Translations {
		if strings.EqualFold(t.Language, language) {
			return t, true
		}
	}
	if len(v.Translations) > 0 {
		return v.Translations[0], true
	}
	return Translation{}, false
}

// Preview returns at most n runes of the verse text, trimmed.
func (v Verse) Preview(n int) string {
	text := strings.TrimSpace(v.Text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n]))
}
