package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"discharge_backend/core"
)

// RequiredFields must be present and non-blank in every raw record, checked
// in this order.
var RequiredFields = []string{"name", "age/gender", "admission_date", "discharge_date"}

// admissionNumberKeys lists the accepted spellings, preferred first.
var admissionNumberKeys = []string{"admision_number", "admission_number"}

// ValidateRequired fails with a *core.ValidationError naming the first
// required field that is missing or blank in raw.
func ValidateRequired(raw map[string]interface{}) error {
	for _, field := range RequiredFields {
		if scalar(raw[field]) == "" {
			return &core.ValidationError{Field: field}
		}
	}
	return nil
}

// Validate checks the required fields of an already canonical record, in
// the same order as ValidateRequired.
func (r *Record) Validate() error {
	values := []string{r.Name, r.AgeGender, r.AdmissionDate, r.DischargeDate}
	for i, field := range RequiredFields {
		if trim(values[i]) == "" {
			return &core.ValidationError{Field: field}
		}
	}
	return nil
}

// Normalize converts a decoded model response into a canonical Record.
//
// List fields accept a string (wrapped as one entry) or a list. Scalars that
// are missing, null, false, zero or blank become "N/A". Medications is always
// a slice. The result is checked against CanonicalSchema before it is
// returned.
func Normalize(raw map[string]interface{}) (*Record, error) {
	if err := ValidateRequired(raw); err != nil {
		return nil, err
	}

	admissionNumber := ""
	for _, key := range admissionNumberKeys {
		if admissionNumber = scalar(raw[key]); admissionNumber != "" {
			break
		}
	}

	vitals := object(raw["Vitals"])
	exam := object(raw["Examination"])

	rec := &Record{
		Name:            scalarOrNA(raw["name"]),
		AgeGender:       scalarOrNA(raw["age/gender"]),
		Address1:        scalarOrNA(raw["ad1"]),
		Address2:        scalarOrNA(raw["ad2"]),
		Mobile:          scalarOrNA(raw["mob"]),
		AdmissionNumber: orNA(admissionNumber),
		UMR:             scalarOrNA(raw["umr"]),
		Ward:            scalarOrNA(raw["ward"]),
		AdmissionDate:   scalarOrNA(raw["admission_date"]),
		DischargeDate:   scalarOrNA(raw["discharge_date"]),

		Diagnosis:       list(raw["Diagnosis"]),
		Riskfactors:     list(raw["Riskfactors"]),
		PastHistory:     list(raw["PastHistory"]),
		ChiefComplaints: scalarOrNA(raw["ChiefComplaints"]),
		Course:          list(raw["Course"]),
		Vitals: Vitals{
			TEMP: scalarOrNA(vitals["TEMP"]),
			PR:   scalarOrNA(vitals["PR"]),
			BP:   scalarOrNA(vitals["BP"]),
			SPo2: scalarOrNA(vitals["SPo2"]),
			RR:   scalarOrNA(vitals["RR"]),
		},
		Examination: Examination{
			CVS: scalarOrNA(exam["CVS"]),
			RS:  scalarOrNA(exam["RS"]),
			CNS: scalarOrNA(exam["CNS"]),
			PA:  scalarOrNA(exam["PA"]),
		},
		Medications: medications(raw["Medications"]),
	}

	if err := ValidateCanonical(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// NormalizeJSON decodes data and normalizes it. It is used for records stored
// or passed around as JSON files.
func NormalizeJSON(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return Normalize(raw)
}

// scalar renders v as trimmed text. Falsy values (nil, false, 0, "") and
// objects yield "". Lists are joined one entry per line.
func scalar(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return trim(val)
	case bool:
		if !val {
			return ""
		}
		return strconv.FormatBool(val)
	case json.Number:
		return formatNumber(val)
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		if val == 0 {
			return ""
		}
		return strconv.Itoa(val)
	case []interface{}:
		return FormatMultiline(list(val))
	default:
		return ""
	}
}

func scalarOrNA(v interface{}) string {
	return orNA(scalar(v))
}

func formatNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		if i == 0 {
			return ""
		}
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil {
		return trim(n.String())
	}
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// list converts a string or a list into trimmed non-blank entries.
func list(v interface{}) []string {
	switch val := v.(type) {
	case string:
		if s := trim(val); s != "" {
			return []string{s}
		}
		return []string{}
	case []string:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := trim(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if _, nested := item.([]interface{}); nested {
				continue
			}
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func object(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func medications(v interface{}) []Medication {
	items, ok := v.([]interface{})
	if !ok {
		return []Medication{}
	}

	meds := make([]Medication, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case map[string]interface{}:
			meds = append(meds, Medication{
				Form:   scalar(val["form"]),
				Name:   scalar(val["name"]),
				Dosage: scalarOrNA(val["dosage"]),
				Freq:   scalarOrNA(val["freq"]),
				Time:   scalarOrNA(val["time"]),
			})
		case string:
			if name := trim(val); name != "" {
				meds = append(meds, Medication{Name: name, Dosage: NA, Freq: NA, Time: NA})
			}
		}
	}
	return meds
}
