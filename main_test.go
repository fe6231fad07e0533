package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"discharge_backend/core"
	"discharge_backend/pdfprocessor/pdftest"
	"discharge_backend/summary"

	"github.com/xuri/excelize/v2"
)

// setTestEnv isolates a command run from the developer's environment.
func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "test.log"))
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "false")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_BASE_URL", "")
	t.Setenv("TEMPLATE_PATH", "")
	t.Setenv("TEMPLATE_ALIASES_FILE", "")
	t.Setenv("RETRY_DELAY", "0")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func geminiServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		text, _ := json.Marshal(answer)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%s}]}}]}`, text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Version(t *testing.T) {
	setTestEnv(t)
	code, stdout, _ := runCLI(t, "version")
	if code != core.ExitCodeSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, core.GetVersion()) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	setTestEnv(t)
	if code, _, _ := runCLI(t, "frobnicate"); code != core.ExitCodeError {
		t.Errorf("exit code = %d, want %d", code, core.ExitCodeError)
	}
}

func TestRun_Extract(t *testing.T) {
	setTestEnv(t)
	srv := geminiServer(t, "```json\n"+`{"name":"John Smith","age/gender":"45/M",`+
		`"admission_date":"2024-01-05","discharge_date":"2024-01-10","mob":9876543210}`+"\n```")
	t.Setenv("GEMINI_BASE_URL", srv.URL)
	t.Setenv("GEMINI_API_KEY", "AIzaTestKey")

	pdf := writeFile(t, "summary.pdf", pdftest.Build("DISCHARGE SUMMARY\nName: John Smith"))
	code, stdout, stderr := runCLI(t, "extract", pdf)
	if code != core.ExitCodeSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}

	var rec summary.Record
	if err := json.Unmarshal([]byte(stdout), &rec); err != nil {
		t.Fatalf("stdout is not a record: %v\n%s", err, stdout)
	}
	if rec.Name != "John Smith" || rec.Mobile != "9876543210" || rec.Ward != summary.NA {
		t.Errorf("record = %+v", rec)
	}
	if strings.Contains(stderr, "AIzaTestKey") {
		t.Error("API key leaked into the log")
	}
}

func TestRun_ExtractToFile(t *testing.T) {
	setTestEnv(t)
	srv := geminiServer(t, `{"name":"A","age/gender":"30/F","admission_date":"x","discharge_date":"y"}`)
	t.Setenv("GEMINI_BASE_URL", srv.URL)
	t.Setenv("GEMINI_API_KEY", "AIzaTestKey")

	pdf := writeFile(t, "summary.pdf", pdftest.Build("text"))
	out := filepath.Join(t.TempDir(), "record.json")
	if code, _, stderr := runCLI(t, "extract", pdf, "-o", out); code != core.ExitCodeSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := summary.NormalizeJSON(data); err != nil {
		t.Errorf("written record does not normalize: %v", err)
	}
}

func TestRun_ExtractErrors(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		pdf        []byte
		missing    bool
		wantCode   int
		wantStderr string
	}{
		{
			name:       "missing api key",
			pdf:        pdftest.Build("text"),
			wantCode:   core.ExitCodeConfig,
			wantStderr: "GEMINI_API_KEY",
		},
		{
			name:       "unreadable pdf",
			apiKey:     "AIzaTestKey",
			pdf:        []byte("plain text"),
			wantCode:   core.ExitCodeError,
			wantStderr: "unreadable PDF",
		},
		{
			name:       "missing pdf file",
			apiKey:     "AIzaTestKey",
			missing:    true,
			wantCode:   core.ExitCodeError,
			wantStderr: "unreadable PDF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTestEnv(t)
			srv := geminiServer(t, "{}")
			t.Setenv("GEMINI_BASE_URL", srv.URL)
			t.Setenv("GEMINI_API_KEY", tt.apiKey)

			path := filepath.Join(t.TempDir(), "absent.pdf")
			if !tt.missing {
				path = writeFile(t, "in.pdf", tt.pdf)
			}
			code, _, stderr := runCLI(t, "extract", path)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want it to mention %q", stderr, tt.wantStderr)
			}
		})
	}
}

func writeXLSXTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "{{ name }}")
	f.SetCellValue("Sheet1", "A2", "{{ TEMP }}")
	f.SetCellValue("Sheet1", "A3", "{{ Diagnosis }}")
	f.SetCellValue("Sheet1", "A4", "{{ admit }}")

	path := filepath.Join(t.TempDir(), "template.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeRecord(t *testing.T, rec summary.Record) string {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	return writeFile(t, "record.json", data)
}

func TestRun_Render(t *testing.T) {
	setTestEnv(t)
	template := writeXLSXTemplate(t)
	record := writeRecord(t, summary.Record{
		Name:          "john smith",
		AgeGender:     "45/M",
		AdmissionDate: "2024-01-05",
		DischargeDate: "2024-01-10",
		Diagnosis:     []string{"Fever"},
	})
	edits := writeFile(t, "edits.yaml", []byte("TEMP: 98.6F\nDiagnosis: |\n  Dengue fever\n  Thrombocytopenia\n"))
	outDir := t.TempDir()

	code, stdout, stderr := runCLI(t, "render", record, "--edits", edits, "--template", template, "-o", outDir)
	if code != core.ExitCodeSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}

	path := strings.TrimSpace(stdout)
	if filepath.Dir(path) != outDir || filepath.Ext(path) != ".xlsx" {
		t.Fatalf("output path = %q", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cells := map[string]string{
		"A1": "John Smith",
		"A2": "98.6F",
		"A4": "05-Jan-2024",
	}
	for cell, want := range cells {
		if got, _ := f.GetCellValue("Sheet1", cell); got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
	diagnosis, _ := f.GetCellValue("Sheet1", "A3")
	for _, want := range []string{"Dengue fever", "Thrombocytopenia", summary.AdvisoryLiteral} {
		if !strings.Contains(diagnosis, want) {
			t.Errorf("A3 = %q, want it to contain %q", diagnosis, want)
		}
	}
}

func TestRun_RenderErrors(t *testing.T) {
	t.Run("missing template", func(t *testing.T) {
		setTestEnv(t)
		record := writeRecord(t, summary.Record{Name: "A", AgeGender: "1", AdmissionDate: "x", DischargeDate: "y"})
		code, _, _ := runCLI(t, "render", record, "--template", filepath.Join(t.TempDir(), "none.docx"))
		if code != core.ExitCodeConfig {
			t.Errorf("exit code = %d, want %d", code, core.ExitCodeConfig)
		}
	})

	t.Run("record missing a required field", func(t *testing.T) {
		setTestEnv(t)
		record := writeRecord(t, summary.Record{Name: "A", AgeGender: "1", AdmissionDate: "x"})
		code, _, stderr := runCLI(t, "render", record, "--template", writeXLSXTemplate(t))
		if code != core.ExitCodeError || !strings.Contains(stderr, "discharge_date") {
			t.Errorf("exit code = %d, stderr = %q", code, stderr)
		}
	})
}

func TestLoadEdits(t *testing.T) {
	edits, err := loadEdits("")
	if err != nil || len(edits) != 0 {
		t.Errorf("loadEdits(\"\") = %v, %v", edits, err)
	}

	path := writeFile(t, "edits.yaml", []byte("RR: \"18\"\nCourse: |\n  Day 1\n  Day 2\n"))
	edits, err = loadEdits(path)
	if err != nil {
		t.Fatal(err)
	}
	if edits["RR"] != "18" || edits["Course"] != "Day 1\nDay 2\n" {
		t.Errorf("edits = %v", edits)
	}

	bad := writeFile(t, "bad.yaml", []byte("- a\n- b\n"))
	if _, err := loadEdits(bad); err == nil {
		t.Error("loadEdits(list) expected error")
	}
}
