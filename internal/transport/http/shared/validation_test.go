package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepayroll/internal/domain/statutory"
)

type samplePayload struct {
	Name  string   `json:"name" validate:"required"`
	Rate  *float64 `json:"rate" validate:"required,gte=0,lte=1"`
	Kind  string   `json:"kind" validate:"omitempty,oneof=earning deduction"`
	Items []struct {
		Label string `json:"label" validate:"required"`
	} `json:"items" validate:"max=2,dive"`
}

func issuesByField(v *Validator) map[string]string {
	out := map[string]string{}
	for _, issue := range v.Issues() {
		out[issue.Field] = issue.Reason
	}
	return out
}

func TestValidatorStruct(t *testing.T) {
	rate := 1.5
	payload := samplePayload{Rate: &rate, Kind: "bonus"}
	payload.Items = make([]struct {
		Label string `json:"label" validate:"required"`
	}, 3)

	v := NewValidator()
	v.Struct(&payload)
	issues := issuesByField(v)
	assert.Equal(t, "is required", issues["name"])
	assert.Equal(t, "must be less than or equal to 1", issues["rate"])
	assert.Equal(t, "must be one of earning, deduction", issues["kind"])
	assert.Equal(t, "must have at most 2 items", issues["items"])
}

func TestValidatorStructDivesIntoSlices(t *testing.T) {
	rate := 0.5
	payload := samplePayload{Name: "levy", Rate: &rate}
	payload.Items = make([]struct {
		Label string `json:"label" validate:"required"`
	}, 1)

	v := NewValidator()
	v.Struct(&payload)
	assert.Equal(t, map[string]string{"items[0].label": "is required"}, issuesByField(v))
}

func TestValidatorErrorKeepsInputField(t *testing.T) {
	v := NewValidator()
	_, err := statutory.MoneyFromFloat("basicSalary", -1)
	v.Error("employees[2].earnings", err)
	v.Error("", errors.New("something else"))

	issues := issuesByField(v)
	assert.Equal(t, "must not be negative", issues["employees[2].earnings.basicSalary"])
	assert.Equal(t, "something else", issues[""])
}

func TestValidatorDates(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("startDate", "2025-05-31")
	require.True(t, ok)
	end, ok := v.Date("endDate", "2025-05-01T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, "2025-05-01", end.Format("2006-01-02"))

	_, ok = v.Date("payDate", "next friday")
	assert.False(t, ok)
	v.DateOrder("startDate", start, "endDate", end)

	issues := issuesByField(v)
	assert.Contains(t, issues, "payDate")
	assert.Equal(t, "must be on or before endDate", issues["startDate"])
	assert.Equal(t, "must be on or after startDate", issues["endDate"])
}

func TestValidatorEnum(t *testing.T) {
	v := NewValidator()
	v.Enum("format", " PDF ", []string{"json", "pdf"}, "unsupported")
	v.Enum("format", "", []string{"json"}, "unsupported")
	assert.False(t, v.HasIssues())
	v.Enum("format", "xml", []string{"json", "pdf"}, "unsupported")
	assert.True(t, v.HasIssues())
}

func TestRejectWritesEnvelope(t *testing.T) {
	v := NewValidator()
	assert.False(t, v.Reject(httptest.NewRecorder(), "req-1"))

	v.Add("grossSalary", "is required")
	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, []ValidationIssue{{Field: "grossSalary", Reason: "is required"}}, body.Error.Details.Fields)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestDecodeJSON(t *testing.T) {
	type target struct {
		Gross float64 `json:"grossSalary"`
	}
	cases := []struct {
		name   string
		body   string
		field  string
		reason string
	}{
		{"valid", `{"grossSalary": 10}`, "", ""},
		{"empty", ``, "", "request body is required"},
		{"malformed", `{"grossSalary": `, "", "malformed JSON"},
		{"wrong type", `{"grossSalary": true}`, "grossSalary", "must be a number"},
		{"unknown field", `{"grossSalary": 1, "net": 2}`, "net", "is not a recognised field"},
		{"trailing data", `{"grossSalary": 1} {"grossSalary": 2}`, "", "body must contain a single JSON object"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			v := NewValidator()
			var dst target
			require.NoError(t, DecodeJSON(r, &dst, v))
			if tc.reason == "" {
				assert.False(t, v.HasIssues())
				return
			}
			assert.Equal(t, tc.reason, issuesByField(v)[tc.field])
		})
	}
}

func TestDecodeJSONTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"grossSalary": 1000000000000}`))
	r.Body = http.MaxBytesReader(rec, r.Body, 8)
	var dst map[string]any
	err := DecodeJSON(r, &dst, NewValidator())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestParseDate(t *testing.T) {
	zero, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	d, err := ParseDate("2025-02-28T23:30:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", d.Format("2006-01-02"))

	_, err = ParseDate("28-02-2025")
	assert.Error(t, err)
}

func TestValidatorPage(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		page   Page
		issues map[string]string
	}{
		{"defaults", "", Page{Limit: 50}, map[string]string{}},
		{"explicit", "?limit=10&offset=20", Page{Limit: 10, Offset: 20}, map[string]string{}},
		{"clamped", "?limit=5000", Page{Limit: 200}, map[string]string{}},
		{"bad limit", "?limit=abc", Page{Limit: 50}, map[string]string{"limit": "must be a positive integer"}},
		{"negative offset", "?offset=-1", Page{Limit: 50}, map[string]string{"offset": "must be zero or a positive integer"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator()
			page := v.Page(httptest.NewRequest(http.MethodGet, "/events"+tc.query, nil), 50, 200)
			assert.Equal(t, tc.page, page)
			assert.Equal(t, tc.issues, issuesByField(v))
		})
	}
}
