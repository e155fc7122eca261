package pii

import "strings"

// Canonical detector names.
const (
	Address    = "address"
	CaseID     = "case-id"
	CashAmount = "cash-amount"
	Email      = "email"
	IPAddress  = "ip_address"
	NINO       = "nino"
	Postcode   = "postcode"
	Tag        = "tag"
	Telephone  = "telephone"
)

const (
	// number with optional thousands separators and up to two decimals
	amount   = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`
	currency = `(?:GBP|USD|EUR)`
	octet    = `(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)`
	hextet   = `[0-9A-Fa-f]{1,4}`
	postcode = `[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}`
	roadType = `(?:Street|St|Road|Rd|Avenue|Ave|Lane|Ln|Drive|Dr|Close|Way|Court|Ct|Place|Pl|Crescent|Terrace|Grove|Gardens|Square|Hill|Park)`
)

// builtin is the fixed catalogue in canonical order.
var builtin = []Definition{
	// House number, capitalised street name and road type, optionally
	// followed by a town and a postcode.
	{
		Name: Address,
		Pattern: `\b\d{1,5}[A-Za-z]?\s+(?:[A-Z][a-z]+\s+){1,4}` + roadType + `\b` +
			`(?:,\s*[A-Z][a-z]+(?:\s[A-Z][a-z]+)?)?` +
			`(?:,?\s+` + postcode + `\b)?`,
		// Street and town words stay capitalised; only the road type and
		// postcode fold.
		FoldPattern: `\b\d{1,5}[A-Za-z]?\s+(?:[A-Z][a-z]+\s+){1,4}(?i:` + roadType + `)\b` +
			`(?:,\s*[A-Z][a-z]+(?:\s[A-Z][a-z]+)?)?` +
			`(?:,?\s+(?i:` + postcode + `)\b)?`,
	},
	// Reference after a "case" label; only the reference is reported.
	{
		Name:    CaseID,
		Pattern: `\b(?i:case)\s*(?i:id|ref(?:erence)?|no\.?|number)?\s*[:#]?\s*([A-Z]{0,3}\d{5,12})\b`,
		Group:   1,
	},
	// Symbol-prefixed amounts and ISO code amounts on either side.
	{
		Name: CashAmount,
		Pattern: `[£$€]\s?` + amount +
			`|\b` + currency + `\s?` + amount +
			`|\b` + amount + `\s?` + currency + `\b`,
		Accept: amountBoundary,
	},
	{
		Name:    Email,
		Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
	},
	// Dotted IPv4 with range-checked octets, full IPv6, and IPv6 with one
	// "::" compression.
	{
		Name: IPAddress,
		Pattern: `\b(?:` + octet + `\.){3}` + octet + `\b` +
			`|\b(?:` + hextet + `:){7}` + hextet + `\b` +
			`|\b(?:` + hextet + `:){1,6}(?::` + hextet + `){1,6}\b`,
		Accept: listBoundary,
	},
	// National insurance number: two prefix letters, six digits, suffix A-D.
	{
		Name:    NINO,
		Pattern: `\b[A-CEGHJ-PR-TW-Z][A-CEGHJ-NPR-TW-Z] ?\d{2} ?\d{2} ?\d{2} ?[A-D]\b`,
		Accept:  validNINOPrefix,
	},
	{
		Name:    Postcode,
		Pattern: `\b` + postcode + `\b`,
	},
	// @handle not preceded by a word character, so email local parts are
	// left to the email rule.
	{
		Name:    Tag,
		Pattern: `(?:^|[^\w@])(@[A-Za-z0-9_]{2,30})\b`,
		Group:   1,
	},
	// UK numbers (+44 or trunk 0), bracketed area codes, and the plain
	// ten-digit form.
	{
		Name: Telephone,
		Pattern: `(?:\+44\s?(?:\(0\)\s?)?|\b0)(?:\d{2}\s?\d{4}\s?\d{4}|\d{3}\s?\d{3}\s?\d{4}|\d{4}\s?\d{6}|\d{4}\s?\d{3}\s?\d{3})\b` +
			`|\(0\d{2,4}\)\s?\d{3,4}\s?\d{4}\b` +
			`|\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`,
		Accept: listBoundary,
	},
}

// Builtin returns a copy of the built-in detector definitions in canonical
// order.
func Builtin() []Definition {
	defs := make([]Definition, len(builtin))
	copy(defs, builtin)
	return defs
}

// Prefixes that are never issued.
var reservedNINOPrefixes = map[string]bool{
	"BG": true, "GB": true, "KN": true, "NK": true,
	"NT": true, "TN": true, "ZZ": true,
}

func validNINOPrefix(text string, start, _ int) bool {
	return !reservedNINOPrefixes[strings.ToUpper(text[start:start+2])]
}

// amountBoundary rejects an amount that is a fragment of a longer number,
// such as "£1,23" inside "£1,234". A comma between digits is read as a
// thousands separator.
func amountBoundary(text string, start, end int) bool {
	return numericBoundary(text, start, end, ".,")
}

// listBoundary rejects an address or number that continues past the match,
// as "1.2.3.4" does inside "1.2.3.4.5". A comma between digits separates
// list items.
func listBoundary(text string, start, end int) bool {
	return numericBoundary(text, start, end, ".")
}

func numericBoundary(text string, start, end int, seps string) bool {
	if start > 0 {
		prev := text[start-1]
		if isDigit(prev) {
			return false
		}
		if strings.IndexByte(seps, prev) >= 0 && start > 1 && isDigit(text[start-2]) {
			return false
		}
	}
	if end < len(text) {
		next := text[end]
		if isDigit(next) {
			return false
		}
		if strings.IndexByte(seps, next) >= 0 && end+1 < len(text) && isDigit(text[end+1]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
