package domain

// WordPair is one row of the external vocabulary table.
// Rows are immutable and unique on (EnglishWord, TranslatedWord, TargetLanguage).
type WordPair struct {
	ID             string   `json:"id"`
	EnglishWord    string   `json:"english_word"`
	TranslatedWord string   `json:"translated_word"`
	TargetLanguage Language `json:"target_language"`
}
