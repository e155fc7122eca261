package cleaner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

var corpus = []string{
	"My NINO is AB123456C and I live at 123 Main St, London SW1A 1AA",
	"Contact me at john.doe@example.com or call 07700 900123",
	"Case ID: 987654, amount: £1,234.50, IP: 192.168.1.1",
	"Address: 456 Oak St, Manchester M1 1AA",
	"Case: 123456, Email: admin@site.org",
	"IP address: 192.168.1.100",
	"NINO AB123456C, email test@example.com, amount £1,500",
	"ping @support_team about case ref #AB123456 at 10 Downing Street",
	"No sensitive information in this text",
	"",
}

func mustNew(t *testing.T, sel Selection, opts ...Option) *Cleaner {
	t.Helper()
	c, err := New(sel, opts...)
	if err != nil {
		t.Fatalf("New(%v): %v", sel, err)
	}
	return c
}

func TestDetectPII_NINOAndEmailOrdered(t *testing.T) {
	text := "My NINO is AB123456C and email john@x.com"
	spans := DetectPII(text)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2: %+v", len(spans), spans)
	}
	if spans[0].Text != "AB123456C" || spans[1].Text != "john@x.com" {
		t.Errorf("spans = %q, %q", spans[0].Text, spans[1].Text)
	}
	if spans[0].End > spans[1].Start {
		t.Errorf("NINO span %+v not strictly before email span %+v", spans[0], spans[1])
	}
	for _, s := range spans {
		if text[s.Start:s.End] != s.Text {
			t.Errorf("text[%d:%d] = %q, want %q", s.Start, s.End, text[s.Start:s.End], s.Text)
		}
	}
}

func TestCleanPII_NINO(t *testing.T) {
	got, err := CleanPII("NINO: AB123456C", "redact")
	if err != nil {
		t.Fatal(err)
	}
	if got != "NINO: " {
		t.Errorf("redact = %q, want %q", got, "NINO: ")
	}

	got, err = CleanPII("NINO: AB123456C", "replace")
	if err != nil {
		t.Fatal(err)
	}
	if got != "NINO: "+redact.Placeholder {
		t.Errorf("replace = %q, want %q", got, "NINO: "+redact.Placeholder)
	}
}

func TestDetectPIIWithCleaners_EmailOnly(t *testing.T) {
	spans, err := DetectPIIWithCleaners("Phone 07700 900123, email a@b.com", []string{"email"})
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 || spans[0].Text != "a@b.com" {
		t.Errorf("spans = %+v, want only a@b.com", spans)
	}
}

func TestDetectPII_NoPII(t *testing.T) {
	if spans := DetectPII("No sensitive information in this text"); len(spans) != 0 {
		t.Errorf("spans = %+v, want none", spans)
	}
}

func TestDetect_AddressSubsumesPostcode(t *testing.T) {
	text := "123 Main St, London SW1A 1AA"
	for _, sel := range []Selection{Names("postcode", "address"), Names("address", "postcode"), All()} {
		spans := mustNew(t, sel).Detect(text)
		if len(spans) != 1 {
			t.Fatalf("%v: got %d spans, want 1: %+v", sel, len(spans), spans)
		}
		if spans[0].Text != text || spans[0].Detector != pii.Address {
			t.Errorf("%v: span = %+v, want whole address", sel, spans[0])
		}
	}
}

func TestEqualLengthTieGoesToFirstRequested(t *testing.T) {
	text := "Case 1234567890"
	spans := mustNew(t, Names("telephone", "case-id")).Detect(text)
	if len(spans) != 1 || spans[0].Detector != pii.Telephone {
		t.Errorf("telephone first: %+v", spans)
	}
	spans = mustNew(t, Names("case-id", "telephone")).Detect(text)
	if len(spans) != 1 || spans[0].Detector != pii.CaseID {
		t.Errorf("case-id first: %+v", spans)
	}
}

func TestProperties(t *testing.T) {
	c := mustNew(t, All())
	for _, text := range corpus {
		spans := c.Detect(text)

		for i := 1; i < len(spans); i++ {
			if spans[i-1].End > spans[i].Start {
				t.Errorf("%q: spans %d and %d overlap: %+v %+v", text, i-1, i, spans[i-1], spans[i])
			}
		}

		redacted := c.Clean(text, redact.Redact)
		replaced := c.Clean(text, redact.Replace)
		if len(spans) == 0 {
			if redacted != text || replaced != text {
				t.Errorf("%q: clean changed text with no detections", text)
			}
		}

		removed := 0
		var kept strings.Builder
		pos := 0
		for _, s := range spans {
			removed += s.Len()
			kept.WriteString(text[pos:s.Start])
			pos = s.End
		}
		kept.WriteString(text[pos:])

		if len(redacted) != len(text)-removed {
			t.Errorf("%q: redacted length %d, want %d", text, len(redacted), len(text)-removed)
		}
		if redacted != kept.String() {
			t.Errorf("%q: redacted = %q, want %q", text, redacted, kept.String())
		}
		if got := strings.ReplaceAll(replaced, redact.Placeholder, ""); got != kept.String() {
			t.Errorf("%q: replace without placeholders = %q, want %q", text, got, kept.String())
		}
		if again := c.Detect(replaced); len(again) != 0 {
			t.Errorf("%q: cleaned text still has PII: %+v", text, again)
		}

		if !reflect.DeepEqual(spans, c.Detect(text)) {
			t.Errorf("%q: Detect not deterministic", text)
		}
	}
}

func TestNew_UnknownName(t *testing.T) {
	_, err := New(Names("not_a_real_cleaner"))
	var unknown *pii.UnknownDetectorError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownDetectorError, got %v", err)
	}
	if unknown.Name != "not_a_real_cleaner" {
		t.Errorf("Name = %q", unknown.Name)
	}
}

func TestNew_Placeholder(t *testing.T) {
	_, err := New(All(), WithPlaceholder("a@b.com"))
	var cfgErr *pii.InvalidConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "placeholder" {
		t.Fatalf("expected placeholder error, got %v", err)
	}

	_, err = New(All(), WithPlaceholder(""))
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected error for empty placeholder, got %v", err)
	}

	c := mustNew(t, Names("nino"), WithPlaceholder("a@b.com"))
	if got := c.Clean("id AB123456C", redact.Replace); got != "id a@b.com" {
		t.Errorf("Clean = %q", got)
	}
}

func TestIgnoreCase(t *testing.T) {
	text := "nino ab123456c"
	if spans := mustNew(t, Names("nino")).Detect(text); len(spans) != 0 {
		t.Errorf("case-sensitive detect = %+v", spans)
	}
	spans := mustNew(t, Names("nino"), WithIgnoreCase(true)).Detect(text)
	if len(spans) != 1 || spans[0].Text != "ab123456c" {
		t.Errorf("ignore-case detect = %+v", spans)
	}
}

func TestIgnoreCase_ProseIsNotAnAddress(t *testing.T) {
	c := mustNew(t, All(), WithIgnoreCase(true))
	for _, text := range []string{"I walked 3 times around the park", "we saw 2 birds on the hill"} {
		if spans := c.Detect(text); len(spans) != 0 {
			t.Errorf("Detect(%q) = %+v, want none", text, spans)
		}
	}
}

func TestClean_CommaSeparatedValues(t *testing.T) {
	c := mustNew(t, All())
	tests := []struct {
		input string
		want  string
	}{
		{"IPs: 192.168.1.1,10.0.0.2", "IPs: [REDACTED],[REDACTED]"},
		{"phones 07700 900123,07700 900124", "phones [REDACTED],[REDACTED]"},
	}
	for _, tt := range tests {
		if got := c.Clean(tt.input, redact.Replace); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectors(t *testing.T) {
	c := mustNew(t, Names("telephone", "email", "telephone"))
	want := []string{"telephone", "email"}
	if got := c.Detectors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Detectors() = %v, want %v", got, want)
	}
}

func TestAvailableCleaners(t *testing.T) {
	got := AvailableCleaners()
	for _, name := range []string{"address", "case-id", "cash-amount", "email", "ip_address", "nino", "postcode", "tag", "telephone"} {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("AvailableCleaners() missing %q", name)
		}
	}
}

func TestCleanPII_BadStrategy(t *testing.T) {
	_, err := CleanPII("x", "shred")
	var cfgErr *pii.InvalidConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected InvalidConfigurationError, got %v", err)
	}
}

func TestBatch(t *testing.T) {
	c := mustNew(t, All(), WithWorkers(3))
	ctx := context.Background()

	cleaned, err := c.CleanBatch(ctx, corpus, redact.Replace)
	if err != nil {
		t.Fatal(err)
	}
	detected, err := c.DetectBatch(ctx, corpus)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != len(corpus) || len(detected) != len(corpus) {
		t.Fatalf("lengths = %d, %d, want %d", len(cleaned), len(detected), len(corpus))
	}
	for i, text := range corpus {
		if want := c.Clean(text, redact.Replace); cleaned[i] != want {
			t.Errorf("CleanBatch[%d] = %q, want %q", i, cleaned[i], want)
		}
		if want := c.Detect(text); !reflect.DeepEqual(detected[i], want) {
			t.Errorf("DetectBatch[%d] = %+v, want %+v", i, detected[i], want)
		}
	}
}

func TestBatch_Empty(t *testing.T) {
	c := mustNew(t, All())
	out, err := c.CleanBatch(context.Background(), nil, redact.Redact)
	if err != nil || len(out) != 0 {
		t.Errorf("CleanBatch(nil) = %v, %v", out, err)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	c := mustNew(t, All())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.DetectBatch(ctx, corpus); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestValues(t *testing.T) {
	c := mustNew(t, All())
	ctx := context.Background()

	out, err := c.CleanValues(ctx, []any{"mail a@b.com", "nothing"}, redact.Redact)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != "mail " || out[1] != "nothing" {
		t.Errorf("CleanValues = %q", out)
	}

	_, err = c.DetectValues(ctx, []any{"a@b.com", 42, nil})
	var inputErr *pii.InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if inputErr.Index != 1 {
		t.Errorf("Index = %d, want 1", inputErr.Index)
	}
}
