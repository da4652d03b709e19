package llm

import "context"

// LetterAttributes is the normalized shape we want from the LLM.
type LetterAttributes struct {
	Sender            string `json:"sender"`
	Receiver          string `json:"receiver"` // bare person name, no titles/addresses
	Organisation      string `json:"organisation,omitempty"`
	DateOfWriting     string `json:"date_of_writing"` // YYYY-MM-DD
	LetterType        string `json:"letter_type"`     // ultra-short summary, max 5 words
	ResponsiblePerson string `json:"responsible_person,omitempty"`
}

type ExtractRequest struct {
	Text         string   // raw OCR text of the letter
	Language     string   // language for the letter_type summary
	HintNames    []string // known worker identities, offered as responsible-person hints
	FilenameHint string
}

// AttributeExtractor is the interface the pipeline depends on.
type AttributeExtractor interface {
	ExtractAttributes(ctx context.Context, req ExtractRequest) (LetterAttributes, []byte /*rawJSON*/, error)
}
