package certpdf

import "fmt"

// Salutation is the fixed opening line of every certificate.
const Salutation = "To whom it may concern,"

// SpecialConsideration is appended to the closing paragraph of study
// certificates.
const SpecialConsideration = "I am happy to support any application for special consideration in relation to assessments affected during this period."

// DatePhrase returns "on {consultation}" for a single-day certificate and
// "from {start} to {end} inclusive" otherwise.
func DatePhrase(req Request) string {
	if req.SingleDay() {
		return "on " + req.ConsultationDate
	}
	return fmt.Sprintf("from %s to %s inclusive", req.StartDate, req.EndDate)
}

// BodyText returns the opening statement of the certificate.
func BodyText(req Request) string {
	phrase := DatePhrase(req)
	switch req.Category {
	case Study:
		return fmt.Sprintf("This is to certify that I have assessed %s and, in my professional opinion, they have a medical condition that rendered them unfit to attend their studies, classes or examinations %s.", req.PatientName, phrase)
	case Carer:
		return fmt.Sprintf("This is to certify that I have been informed that %s is required to provide care and support to an immediate family or household member who is unwell, and was therefore unable to attend their usual duties %s.", req.PatientName, phrase)
	default:
		return fmt.Sprintf("This is to certify that I have assessed %s and, in my professional opinion, they have a medical condition that rendered them unfit to attend work %s.", req.PatientName, phrase)
	}
}

// ReturnText returns the closing, return-to-duty statement.
func ReturnText(req Request) string {
	when := "the following day"
	if !req.SingleDay() {
		when = "on " + req.EndDate
	}
	switch req.Category {
	case Study:
		return fmt.Sprintf("They should be able to resume academic activities %s. %s", when, SpecialConsideration)
	case Carer:
		return fmt.Sprintf("They are expected to be able to return to their usual duties %s.", when)
	default:
		return fmt.Sprintf("They are expected to be fit to return to work %s.", when)
	}
}
