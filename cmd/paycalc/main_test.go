package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepayroll/internal/domain/payroll"
	"kepayroll/internal/domain/statutory"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "paycalc", root.Use)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"calculate", "bands", "register", "rules", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestCalculateJSON(t *testing.T) {
	out, err := run(t, "calculate", "--gross", "50000", "--type", "permanent", "--format", "json")
	require.NoError(t, err)

	var result statutory.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "2160.00", result.NSSF.EmployeeAmount.StringFixed(2))
	assert.Equal(t, "6735.35", result.PAYE.Tax.StringFixed(2))
	assert.Equal(t, "38979.65", result.Totals.NetPay.StringFixed(2))
}

func TestCalculateText(t *testing.T) {
	out, err := run(t, "calculate", "--gross", "50000", "--annual")
	require.NoError(t, err)
	assert.Contains(t, out, "PAYE")
	assert.Contains(t, out, "6735.35")
	assert.Contains(t, out, "38979.65")
	assert.Contains(t, out, "467755.80")
	assert.Contains(t, out, "ke-2024-10")
}

func TestCalculateAnnualJSON(t *testing.T) {
	out, err := run(t, "calculate", "--gross", "50000", "--annual", "-f", "json")
	require.NoError(t, err)

	var annual statutory.AnnualResult
	require.NoError(t, json.Unmarshal([]byte(out), &annual))
	assert.Equal(t, "467755.80", annual.NetPay.StringFixed(2))
}

func TestCalculatePolicyAndReliefFlags(t *testing.T) {
	out, err := run(t, "calculate", "--gross", "80000", "--type", "CONTRACT", "--policy", "contract-exempt", "-f", "json")
	require.NoError(t, err)
	var exempt statutory.Result
	require.NoError(t, json.Unmarshal([]byte(out), &exempt))
	assert.True(t, exempt.NSSF.EmployeeAmount.IsZero())
	assert.True(t, exempt.HousingLevy.EmployerAmount.IsZero())

	recorded, err := run(t, "calculate", "--gross", "80000", "--pension", "20000", "-f", "json")
	require.NoError(t, err)
	applied, err := run(t, "calculate", "--gross", "80000", "--pension", "20000", "--relief-mode", "apply", "-f", "json")
	require.NoError(t, err)

	var r, a statutory.Result
	require.NoError(t, json.Unmarshal([]byte(recorded), &r))
	require.NoError(t, json.Unmarshal([]byte(applied), &a))
	assert.True(t, a.PAYE.Tax.LessThan(r.PAYE.Tax))
}

func TestCalculateErrors(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		target error
	}{
		{"missing gross", []string{"calculate"}, nil},
		{"negative gross", []string{"calculate", "--gross=-10"}, statutory.ErrInvalidInput},
		{"unknown type", []string{"calculate", "--gross", "100", "--type", "FREELANCE"}, statutory.ErrInvalidInput},
		{"before first rule set", []string{"calculate", "--gross", "100", "--date", "2020-01-01"}, statutory.ErrNoRuleSet},
		{"bad date", []string{"calculate", "--gross", "100", "--date", "tomorrow"}, nil},
		{"unknown policy", []string{"calculate", "--gross", "100", "--policy", "nobody"}, nil},
		{"unknown format", []string{"calculate", "--gross", "100", "-f", "xml"}, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.args...)
			require.Error(t, err)
			if tc.target != nil {
				assert.True(t, errors.Is(err, tc.target), "got %v", err)
			}
		})
	}
}

func TestBands(t *testing.T) {
	out, err := run(t, "bands")
	require.NoError(t, err)
	assert.Contains(t, out, "ke-2024-10")
	assert.Contains(t, out, "32.5%")
	assert.Contains(t, out, "and above")
	assert.Contains(t, out, "Personal relief: 2400.00")

	demo := filepath.Join("..", "..", "internal", "domain", "statutory", "testdata", "demo_rules.yaml")
	out, err = run(t, "bands", "--rules", demo, "--date", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "demo-mock")
}

func writeSheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "may.csv")
	sheet := strings.Join([]string{
		"employee_id,employee_name,employment_type,bank_account,basic_salary,house_allowance,loan_deductions",
		"E-1,Wanjiru Kamau,PERMANENT,001,40000,10000,2000",
		"E-2,Kiprono Cheruiyot,CASUAL,,12000,,",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o600))
	return path
}

func TestRegisterCSVOutput(t *testing.T) {
	out, err := run(t, "register", writeSheet(t), "--pay-date", "2025-05-28")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "E-1", rows[1][0])
	assert.Equal(t, "E-2", rows[2][0])
	assert.Contains(t, rows[1], "2025-05-28")
}

func TestRegisterSummaryAndPayslips(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "register", writeSheet(t), "-f", "summary", "--period", "May 2025", "--pay-date", "2025-05-28", "--payslips", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "May 2025 (2 employees)")
	assert.Contains(t, out, "62000.00")
	assert.Contains(t, out, "warning: "+payroll.WarningMissingBank+" x1")

	for _, id := range []string{"E-1", "E-2"} {
		data, err := os.ReadFile(filepath.Join(dir, "payslip-"+id+"-2025-05.pdf"))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	}
}

func TestRegisterJSONToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "register.json")
	_, err := run(t, "register", writeSheet(t), "-f", "json", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var register payroll.Register
	require.NoError(t, json.Unmarshal(data, &register))
	assert.Equal(t, 2, register.Summary.EmployeeCount)
}

func TestRegisterRejectsBadSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("employee_id,employment_type,basic_salary\nE-1,PERMANENT,plenty\n"), 0o600))
	_, err := run(t, "register", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	_, err = run(t, "register", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestRulesExportAndValidate(t *testing.T) {
	out, err := run(t, "rules", "export")
	require.NoError(t, err)
	sets, err := statutory.DecodeRuleSetsYAML(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "ke-2024-10", sets[0].Version)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))
	out, err = run(t, "rules", "validate", path)
	require.NoError(t, err)
	assert.Equal(t, "ok ke-2024-10 effective 2024-10-01\n", out)
}

func TestRulesValidateRejectsUnknownFields(t *testing.T) {
	fixture := filepath.Join("..", "..", "internal", "domain", "statutory", "testdata", "unknown_field.yaml")
	_, err := run(t, "rules", "validate", fixture)
	require.Error(t, err)
}

func TestRulesImportNeedsDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	out, err := run(t, "rules", "export")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

	_, err = run(t, "rules", "import", path, "--database-url=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestRulesHistoryFlags(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"--format", "xml"}, "unknown format"},
		{"bad limit", []string{"--limit", "0"}, "--limit"},
		{"no database", []string{"--database-url="}, "DATABASE_URL"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, append([]string{"rules", "history"}, tc.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "paycalc dev (commit none"))
}
