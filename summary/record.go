// Package summary holds the canonical discharge-summary record and the pure
// transforms applied to it: normalization of raw model output, and the merge
// of a stored record with a reviewer's edits.
package summary

// NA is the placeholder for any scalar the source does not state.
const NA = "N/A"

// AdvisoryLiteral must appear in every Diagnosis list.
const AdvisoryLiteral = "ADVICE: MEDICAL MANAGEMENT"

// MedicationSlots is the number of medication rows a review form submits and
// a template renders.
const MedicationSlots = 10

// Vitals recorded at discharge.
type Vitals struct {
	TEMP string `json:"TEMP"`
	PR   string `json:"PR"`
	BP   string `json:"BP"`
	SPo2 string `json:"SPo2"`
	RR   string `json:"RR"`
}

// Examination findings by system.
type Examination struct {
	CVS string `json:"CVS"`
	RS  string `json:"RS"`
	CNS string `json:"CNS"`
	PA  string `json:"PA"`
}

// Medication is one discharge prescription row. Form and Name may be empty;
// Dosage, Freq and Time are "N/A" when not stated.
type Medication struct {
	Form   string `json:"form"`
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Freq   string `json:"freq"`
	Time   string `json:"time"`
}

// Record is the canonical form of one discharge summary. JSON keys match the
// keys the model is asked to produce, including the "admision_number"
// spelling.
type Record struct {
	// Identity fields. Immutable after extraction.
	Name            string `json:"name"`
	AgeGender       string `json:"age/gender"`
	Address1        string `json:"ad1"`
	Address2        string `json:"ad2"`
	Mobile          string `json:"mob"`
	AdmissionNumber string `json:"admision_number"`
	UMR             string `json:"umr"`
	Ward            string `json:"ward"`
	AdmissionDate   string `json:"admission_date"`
	DischargeDate   string `json:"discharge_date"`

	// Medical content. Editable during review.
	Diagnosis       []string     `json:"Diagnosis"`
	Riskfactors     []string     `json:"Riskfactors"`
	PastHistory     []string     `json:"PastHistory"`
	ChiefComplaints string       `json:"ChiefComplaints"`
	Course          []string     `json:"Course"`
	Vitals          Vitals       `json:"Vitals"`
	Examination     Examination  `json:"Examination"`
	Medications     []Medication `json:"Medications"`
}

// Edits are the raw form values submitted by a reviewer, keyed by field name
// (Diagnosis, TEMP, TAB3_form, DOSAGE3, ...).
type Edits map[string]string

// Has reports whether key was submitted at all, even if blank.
func (e Edits) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Get returns the trimmed value of key, or "" when absent.
func (e Edits) Get(key string) string {
	return trim(e[key])
}

// Final is a merged record ready for rendering, together with the derived
// values the template needs.
type Final struct {
	Record Record `json:"record"`

	// AdmitDisplay and DischargeDisplay are the dates as DD-Mon-YYYY, or the
	// stored value unchanged when it is not an ISO date.
	AdmitDisplay     string `json:"admit_display"`
	DischargeDisplay string `json:"discharge_display"`

	// History is Riskfactors followed by PastHistory, deduplicated.
	History []string `json:"history"`
}
