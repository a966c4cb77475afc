package certpdf_test

import (
	"strings"
	"testing"

	"github.com/lvillar/certpdf"
)

func request(c certpdf.Category, start, end string) certpdf.Request {
	return certpdf.Request{
		Category:         c,
		PatientName:      "Jane Doe",
		ConsultationDate: start,
		StartDate:        start,
		EndDate:          end,
		CertificateRef:   "MC-TEST-0001",
		IssueDate:        start,
	}
}

func TestBodyTextSingleDayWork(t *testing.T) {
	req := certpdf.Request{
		Category:         certpdf.Work,
		PatientName:      "John Smith",
		ConsultationDate: "18 February 2026",
		StartDate:        "18 February 2026",
		EndDate:          "18 February 2026",
		CertificateRef:   "MC-2026-000123",
		IssueDate:        "18 February 2026",
	}

	body := certpdf.BodyText(req)
	if !strings.Contains(body, "John Smith") {
		t.Errorf("body %q does not name the patient", body)
	}
	if !strings.HasSuffix(body, "unfit to attend work on 18 February 2026.") {
		t.Errorf("body %q has the wrong ending", body)
	}
	if got, want := certpdf.ReturnText(req), "They are expected to be fit to return to work the following day."; got != want {
		t.Errorf("ReturnText = %q, want %q", got, want)
	}
}

func TestBodyTextMultiDayStudy(t *testing.T) {
	req := certpdf.Request{
		Category:         certpdf.Study,
		PatientName:      "Ana Lee",
		ConsultationDate: "10 March 2026",
		StartDate:        "10 March 2026",
		EndDate:          "14 March 2026",
		IssueDate:        "10 March 2026",
	}

	body := certpdf.BodyText(req)
	if !strings.Contains(body, "from 10 March 2026 to 14 March 2026 inclusive") {
		t.Errorf("body %q is missing the date range", body)
	}
	closing := certpdf.ReturnText(req)
	if !strings.HasPrefix(closing, "They should be able to resume academic activities on 14 March 2026.") {
		t.Errorf("closing %q has the wrong return date", closing)
	}
	if !strings.HasSuffix(closing, certpdf.SpecialConsideration) {
		t.Errorf("closing %q is missing the special consideration sentence", closing)
	}
}

func TestWordingPerCategory(t *testing.T) {
	tests := []struct {
		category certpdf.Category
		body     string
		closing  string
	}{
		{certpdf.Work, "unfit to attend work", "fit to return to work"},
		{certpdf.Study, "unfit to attend their studies, classes or examinations", "resume academic activities"},
		{certpdf.Carer, "required to provide care and support", "return to their usual duties"},
	}

	for _, tt := range tests {
		for _, span := range []struct {
			name       string
			start, end string
			phrase     string
			when       string
		}{
			{"single", "1 May 2026", "1 May 2026", "on 1 May 2026", "the following day"},
			{"range", "1 May 2026", "3 May 2026", "from 1 May 2026 to 3 May 2026 inclusive", "on 3 May 2026"},
		} {
			t.Run(tt.category.String()+"/"+span.name, func(t *testing.T) {
				req := request(tt.category, span.start, span.end)
				body := certpdf.BodyText(req)
				if !strings.Contains(body, tt.body) {
					t.Errorf("body %q does not contain %q", body, tt.body)
				}
				if !strings.Contains(body, "Jane Doe") {
					t.Errorf("body %q does not name the patient", body)
				}
				if !strings.HasSuffix(body, span.phrase+".") {
					t.Errorf("body %q does not end with %q", body, span.phrase)
				}
				closing := certpdf.ReturnText(req)
				if !strings.Contains(closing, tt.closing) {
					t.Errorf("closing %q does not contain %q", closing, tt.closing)
				}
				if !strings.Contains(closing, span.when) {
					t.Errorf("closing %q does not contain %q", closing, span.when)
				}
				hasSupport := strings.Contains(closing, certpdf.SpecialConsideration)
				if hasSupport != (tt.category == certpdf.Study) {
					t.Errorf("special consideration present = %v for %s", hasSupport, tt.category)
				}
			})
		}
	}
}

func TestDatePhraseComparesDisplayStrings(t *testing.T) {
	req := request(certpdf.Work, "1 May 2026", "01 May 2026")
	if got := certpdf.DatePhrase(req); !strings.HasPrefix(got, "from ") {
		t.Errorf("DatePhrase = %q, want a range for differing strings", got)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    certpdf.Category
		wantErr bool
	}{
		{"work", certpdf.Work, false},
		{"Study", certpdf.Study, false},
		{" CARER ", certpdf.Carer, false},
		{"school", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := certpdf.ParseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	var c certpdf.Category
	if err := c.UnmarshalText([]byte("carer")); err != nil || c != certpdf.Carer {
		t.Errorf("UnmarshalText(carer) = %v, %v", c, err)
	}
	if _, err := certpdf.Category(7).MarshalText(); err == nil {
		t.Error("expected MarshalText to reject an unknown category")
	}
}
