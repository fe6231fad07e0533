// Package docrender flattens a merged discharge summary into the key/value
// context a document template consumes, and renders DOCX or XLSX templates
// with it.
package docrender

import (
	"fmt"
	"strings"
	"time"

	"discharge_backend/summary"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Context is the flat template context. Every value is a string.
type Context map[string]string

// Timestamp formats for the generated date and time keys.
const (
	CurrentDateLayout = "02-Jan-2006"
	CurrentTimeLayout = "03:04 PM"
)

// ContextBuilder turns a summary.Final into a Context. It is safe for
// concurrent use.
type ContextBuilder struct {
	aliases AliasTable
	now     func() time.Time
}

// NewContextBuilder creates a builder that adds aliases to every context.
// A nil table means DefaultAliases.
func NewContextBuilder(aliases AliasTable) *ContextBuilder {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &ContextBuilder{
		aliases: aliases,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for current_date and current_time.
func (b *ContextBuilder) WithClock(now func() time.Time) *ContextBuilder {
	b.now = now
	return b
}

// Build flattens final. The output depends only on final and the clock.
func (b *ContextBuilder) Build(final *summary.Final) Context {
	rec := final.Record
	title := cases.Title(language.Und)
	now := b.now()

	ctx := Context{
		"umr":             rec.UMR,
		"name":            title.String(rec.Name),
		"age":             rec.AgeGender,
		"ad1":             title.String(rec.Address1),
		"ad2":             title.String(rec.Address2),
		"mob":             rec.Mobile,
		"admision":        rec.AdmissionNumber,
		"ward":            strings.ToUpper(rec.Ward),
		"admit":           final.AdmitDisplay,
		"discharge":       final.DischargeDisplay,
		"Diagnosis":       summary.FormatMultiline(rec.Diagnosis),
		"ChiefComplaints": strings.ToUpper(rec.ChiefComplaints),
		"Riskfactors":     summary.FormatMultiline(final.History),
		"Course":          summary.FormatMultiline(rec.Course),
		"TEMP":            rec.Vitals.TEMP,
		"BP":              rec.Vitals.BP,
		"PR":              rec.Vitals.PR,
		"SPo2":            rec.Vitals.SPo2,
		"RR":              rec.Vitals.RR,
		"CVS":             rec.Examination.CVS,
		"RS":              rec.Examination.RS,
		"CNS":             rec.Examination.CNS,
		"PA":              rec.Examination.PA,
		"current_date":    now.Format(CurrentDateLayout),
		"current_time":    now.Format(CurrentTimeLayout),
	}

	for i := 0; i < summary.MedicationSlots; i++ {
		var med summary.Medication
		if i < len(rec.Medications) {
			med = rec.Medications[i]
		}
		slot := i + 1
		ctx[fmt.Sprintf("TAB%d", slot)] = strings.TrimSpace(med.Form + " " + med.Name)
		ctx[fmt.Sprintf("DOSAGE%d", slot)] = orNA(med.Dosage)
		ctx[fmt.Sprintf("FREQ%d", slot)] = orNA(med.Freq)
		ctx[fmt.Sprintf("TOM%d", slot)] = orNA(med.Time)
	}

	b.aliases.Apply(ctx)
	return ctx
}

func orNA(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return summary.NA
	}
	return s
}
