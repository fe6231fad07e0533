package llm

import (
	"fmt"
	"strings"

	"discharge_backend/summary"
)

// extractionSkeleton is the JSON shape the model is asked to fill. Key order
// and spelling (including "admision_number") are part of the contract with
// the templates and must not change.
const extractionSkeleton = `{
  "name":            "Patient's full name",
  "age/gender":      "Age and gender",
  "ad1":             "Address line 1",
  "ad2":             "Address line 2",
  "mob":             "Mobile number",
  "admision_number": "Admission number",
  "umr":             "Unique Medical Record number",
  "ward":            "Ward name/number",
  "admission_date":  "YYYY-MM-DD",
  "discharge_date":  "YYYY-MM-DD",
  "Diagnosis":       ["Primary diagnosis", "Secondary diagnosis", "ADVICE: MEDICAL MANAGEMENT"],
  "Riskfactors":     ["Hypertension", "Hypothyroidism"],
  "PastHistory":     ["Past history 1", "Past history 2"],
  "ChiefComplaints": "Chief complaints text",
  "Course":          ["Hospital course point 1", "Point 2"],
  "Vitals": {
    "TEMP": "Temperature",
    "PR":   "Pulse rate",
    "BP":   "Blood pressure",
    "SPo2": "Oxygen saturation",
    "RR":   "Respiratory rate"
  },
  "Examination": {
    "CVS": "CVS findings",
    "RS":  "RS findings",
    "CNS": "CNS findings",
    "PA":  "PA findings"
  },
  "Medications": [
    {
      "form":   "Tab/Cap/Inj",
      "name":   "Medicine name",
      "dosage": "10MG",
      "freq":   "ONCE DAILY",
      "time":   "8PM AFTER FOOD"
    }
  ]
}`

var extractionRules = []string{
	`If the summary shows "Risk Factors / Past History" combined, split it into the Riskfactors and PastHistory arrays.`,
	`Diagnosis must include "` + summary.AdvisoryLiteral + `".`,
	`If any field is missing, use "N/A". Never use null and never omit a key.`,
	`Every medication must carry its form (Tab/Cap/Inj) together with its name.`,
	`Output only one raw JSON object, with no commentary or code fences.`,
}

// BuildExtractionPrompt returns the instruction sent to the model for one
// discharge summary. It is pure: the same text always yields the same prompt.
func BuildExtractionPrompt(pdfText string) string {
	var sb strings.Builder
	sb.WriteString("You are a strict JSON generator for medical discharge summaries. ONLY respond with raw JSON.\n\n")
	sb.WriteString("Convert this discharge summary into JSON with the format:\n")
	sb.WriteString(extractionSkeleton)
	sb.WriteString("\n\nRULES:\n")
	for i, rule := range extractionRules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	sb.WriteString("PDF text:\n\"\"\"\n")
	sb.WriteString(pdfText)
	sb.WriteString("\n\"\"\"\n")
	return sb.String()
}
