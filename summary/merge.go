package summary

import (
	"fmt"
	"strings"
)

// Merge combines a stored record with a reviewer's edits. original is not
// modified.
//
// Identity fields and dates always come from original, whatever edits holds
// for those keys. A list field is replaced when its key is present in edits
// (one entry per non-blank line) and otherwise keeps the original entries.
// Scalar medical fields take the edit when it is non-blank, then the original
// value, then "N/A". Submitted medication slots are appended after the
// original medications.
func Merge(original *Record, edits Edits) *Final {
	if original == nil {
		original = &Record{}
	}

	rec := Record{
		Name:            original.Name,
		AgeGender:       original.AgeGender,
		Address1:        original.Address1,
		Address2:        original.Address2,
		Mobile:          original.Mobile,
		AdmissionNumber: original.AdmissionNumber,
		UMR:             original.UMR,
		Ward:            original.Ward,
		AdmissionDate:   original.AdmissionDate,
		DischargeDate:   original.DischargeDate,

		Diagnosis:       mergeLines(edits, "Diagnosis", original.Diagnosis),
		Riskfactors:     mergeLines(edits, "Riskfactors", original.Riskfactors),
		PastHistory:     mergeLines(edits, "PastHistory", original.PastHistory),
		ChiefComplaints: firstNonBlank(edits["ChiefComplaints"], original.ChiefComplaints),
		Course:          mergeLines(edits, "Course", original.Course),
		Vitals: Vitals{
			TEMP: firstNonBlank(edits["TEMP"], original.Vitals.TEMP),
			PR:   firstNonBlank(edits["PR"], original.Vitals.PR),
			BP:   firstNonBlank(edits["BP"], original.Vitals.BP),
			SPo2: firstNonBlank(edits["SPo2"], original.Vitals.SPo2),
			RR:   firstNonBlank(edits["RR"], original.Vitals.RR),
		},
		Examination: Examination{
			CVS: firstNonBlank(edits["CVS"], original.Examination.CVS),
			RS:  firstNonBlank(edits["RS"], original.Examination.RS),
			CNS: firstNonBlank(edits["CNS"], original.Examination.CNS),
			PA:  firstNonBlank(edits["PA"], original.Examination.PA),
		},
		Medications: mergeMedications(original.Medications, edits),
	}
	rec.Diagnosis = EnsureAdvisory(rec.Diagnosis)

	history := make([]string, 0, len(rec.Riskfactors)+len(rec.PastHistory))
	history = append(history, rec.Riskfactors...)
	history = append(history, rec.PastHistory...)

	return &Final{
		Record:           rec,
		AdmitDisplay:     FormatDisplayDate(rec.AdmissionDate),
		DischargeDisplay: FormatDisplayDate(rec.DischargeDate),
		History:          Dedupe(history),
	}
}

func mergeLines(edits Edits, key string, original []string) []string {
	if edits.Has(key) {
		return ParseMultiline(edits[key])
	}
	return ParseMultiline(FormatMultiline(original))
}

// mergeMedications copies original and appends every submitted slot with at
// least one non-blank sub-field.
func mergeMedications(original []Medication, edits Edits) []Medication {
	meds := make([]Medication, 0, len(original)+MedicationSlots)
	meds = append(meds, original...)

	for i := 1; i <= MedicationSlots; i++ {
		form := edits.Get(fmt.Sprintf("TAB%d_form", i))
		name := edits.Get(fmt.Sprintf("TAB%d_name", i))
		dosage := edits.Get(fmt.Sprintf("DOSAGE%d", i))
		freq := edits.Get(fmt.Sprintf("FREQ%d", i))
		timing := edits.Get(fmt.Sprintf("TOM%d", i))

		if form == "" && name == "" && dosage == "" && freq == "" && timing == "" {
			continue
		}
		meds = append(meds, Medication{
			Form:   strings.ToUpper(form),
			Name:   name,
			Dosage: orNA(dosage),
			Freq:   orNA(freq),
			Time:   orNA(timing),
		})
	}
	return meds
}

// FormValues renders rec as the review form's initial values: list fields one
// entry per line, and the nested fields under their own keys. Medication
// slots are left empty; they only carry additions.
func FormValues(rec *Record) Edits {
	return Edits{
		"Diagnosis":       FormatMultiline(rec.Diagnosis),
		"Riskfactors":     FormatMultiline(rec.Riskfactors),
		"PastHistory":     FormatMultiline(rec.PastHistory),
		"ChiefComplaints": rec.ChiefComplaints,
		"Course":          FormatMultiline(rec.Course),
		"TEMP":            rec.Vitals.TEMP,
		"PR":              rec.Vitals.PR,
		"BP":              rec.Vitals.BP,
		"SPo2":            rec.Vitals.SPo2,
		"RR":              rec.Vitals.RR,
		"CVS":             rec.Examination.CVS,
		"RS":              rec.Examination.RS,
		"CNS":             rec.Examination.CNS,
		"PA":              rec.Examination.PA,
	}
}
