package pii

// Span is a half-open byte range [Start, End) of the scanned text together
// with the text it covers. Detector names the rule that produced it and is not
// part of the serialised record.
type Span struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
	Detector string `json:"-"`
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}
