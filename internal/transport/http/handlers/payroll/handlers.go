package payrollhandler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kepayroll/internal/domain/payroll"
	"kepayroll/internal/domain/statutory"
	"kepayroll/internal/requestctx"
	"kepayroll/internal/transport/http/api"
	"kepayroll/internal/transport/http/middleware"
	"kepayroll/internal/transport/http/shared"
)

// CalculationRecorder counts calculations by employment type and outcome.
type CalculationRecorder interface {
	RecordCalculation(employmentType string, err error)
}

// RuleCatalog lists every loaded rule set and looks one up by version.
type RuleCatalog interface {
	All() []statutory.RuleSet
	Version(version string) (statutory.RuleSet, bool)
}

type Handler struct {
	Service *payroll.Service
	Catalog RuleCatalog
	Metrics CalculationRecorder
}

func NewHandler(service *payroll.Service, catalog RuleCatalog, metrics CalculationRecorder) *Handler {
	return &Handler{Service: service, Catalog: catalog, Metrics: metrics}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/calculate", h.handleCalculate)
		r.Post("/calculate/annual", h.handleCalculateAnnual)
		r.Get("/rules", h.handleActiveRules)
		r.Get("/rules/versions", h.handleListRuleVersions)
		r.Get("/rules/versions/{version}", h.handleGetRuleVersion)
		r.Post("/payslips", h.handlePayslip)
		r.Post("/register", h.handleRegister)
	})
}

type rulesResponse struct {
	RuleSet         statutory.RuleSet     `json:"ruleSet"`
	ExemptionPolicy string                `json:"exemptionPolicy"`
	Exemptions      []statutory.Exemption `json:"exemptions"`
	ReliefMode      statutory.ReliefMode  `json:"reliefMode"`
}

type ruleVersion struct {
	Version       string    `json:"version"`
	EffectiveFrom time.Time `json:"effectiveFrom"`
	Description   string    `json:"description,omitempty"`
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalculateAnnual(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}
	api.Success(w, statutory.Annualize(result), middleware.GetRequestID(r.Context()))
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (statutory.Result, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload calculateRequest
	v := shared.NewValidator()
	if !decode(w, r, &payload, v) {
		return statutory.Result{}, false
	}
	at := optionalDate(v, "payDate", payload.PayDate)
	if v.Reject(w, reqID) {
		return statutory.Result{}, false
	}

	input, err := payload.raw().Parse()
	if err != nil {
		h.recordCalculation("invalid", err)
		v.Error("", err)
		v.Reject(w, reqID)
		return statutory.Result{}, false
	}
	calc, err := h.Service.Calculator(at)
	if err != nil {
		h.writeError(w, r, err)
		return statutory.Result{}, false
	}
	result, err := calc.Calculate(input)
	h.recordCalculation(string(input.EmploymentType), err)
	if err != nil {
		h.writeError(w, r, err)
		return statutory.Result{}, false
	}
	return result, true
}

func (h *Handler) handleActiveRules(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	at := optionalDate(v, "date", r.URL.Query().Get("date"))
	if v.Reject(w, reqID) {
		return
	}
	calc, err := h.Service.Calculator(at)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, rulesResponse{
		RuleSet:         calc.Rules(),
		ExemptionPolicy: calc.Policy().Name(),
		Exemptions:      calc.Policy().Exemptions(),
		ReliefMode:      calc.ReliefMode(),
	}, reqID)
}

func (h *Handler) handleListRuleVersions(w http.ResponseWriter, r *http.Request) {
	versions := []ruleVersion{}
	if h.Catalog != nil {
		for _, set := range h.Catalog.All() {
			versions = append(versions, ruleVersion{
				Version:       set.Version,
				EffectiveFrom: set.EffectiveFrom,
				Description:   set.Description,
			})
		}
	}
	api.Success(w, versions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRuleVersion(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	version := chi.URLParam(r, "version")
	if h.Catalog == nil {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "rule set not found", reqID)
		return
	}
	set, ok := h.Catalog.Version(version)
	if !ok {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, fmt.Sprintf("rule set %q not found", version), reqID)
		return
	}
	api.Success(w, set, reqID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	format, ok := outputFormat(w, r, "pdf")
	if !ok {
		return
	}
	var payload payslipRequest
	v := shared.NewValidator()
	if !decode(w, r, &payload, v) {
		return
	}
	input := payload.toInput(v, "")
	if v.Reject(w, reqID) {
		return
	}

	slip, err := h.Service.BuildPayslip(r.Context(), input)
	h.recordCalculation(string(input.EmploymentType), err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if format == "pdf" {
		var buf bytes.Buffer
		if err := payroll.WritePayslipPDF(&buf, slip); err != nil {
			h.writeError(w, r, fmt.Errorf("render payslip: %w", err))
			return
		}
		writeAttachment(w, "application/pdf", fmt.Sprintf("payslip-%s-%s.pdf", fileSafe(slip.EmployeeID), slip.PayDate.Format("2006-01")), buf.Bytes())
		return
	}
	api.Success(w, slip, reqID)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	format, ok := outputFormat(w, r, "csv")
	if !ok {
		return
	}
	var payload registerRequest
	v := shared.NewValidator()
	if !decode(w, r, &payload, v) {
		return
	}
	period := payload.Period.toPeriod(v)
	inputs := make([]payroll.PayslipInput, len(payload.Employees))
	for i := range payload.Employees {
		inputs[i] = payload.Employees[i].toInput(v, fmt.Sprintf("employees[%d]", i))
	}
	if v.Reject(w, reqID) {
		return
	}

	register, err := h.Service.RunRegister(r.Context(), period, inputs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for _, slip := range register.Payslips {
		h.recordCalculation(string(slip.Statutory.EmploymentType), nil)
	}
	if format == "csv" {
		var buf bytes.Buffer
		if err := payroll.WriteRegisterCSV(&buf, register.Payslips); err != nil {
			h.writeError(w, r, fmt.Errorf("render register: %w", err))
			return
		}
		name := period.Name
		if name == "" {
			name = register.Payslips[0].PayDate.Format("2006-01")
		}
		writeAttachment(w, "text/csv; charset=utf-8", fmt.Sprintf("register-%s.csv", fileSafe(name)), buf.Bytes())
		return
	}
	api.Success(w, register, reqID)
}

// writeError maps domain failures onto the envelope. Anything unrecognised
// is logged and reported as a bare internal error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, statutory.ErrInvalidInput), errors.Is(err, statutory.ErrComputationOverflow):
		v := shared.NewValidator()
		v.Error("", err)
		v.Reject(w, reqID)
	case errors.Is(err, payroll.ErrEmptyRegister), errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, api.CodeValidation, err.Error(), reqID)
	case errors.Is(err, statutory.ErrNoRuleSet):
		api.Fail(w, http.StatusUnprocessableEntity, api.CodeNoRuleSet, "no statutory rule set is in force for that date", reqID)
	default:
		requestctx.Logger(r.Context()).Error("payroll request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, api.CodeInternal, "internal server error", reqID)
	}
}

func (h *Handler) recordCalculation(employmentType string, err error) {
	if h.Metrics != nil {
		h.Metrics.RecordCalculation(employmentType, err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any, v *shared.Validator) bool {
	reqID := middleware.GetRequestID(r.Context())
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		api.Fail(w, http.StatusUnsupportedMediaType, api.CodeUnsupportedMedia, "content type must be application/json", reqID)
		return false
	}
	if err := shared.DecodeJSON(r, dst, v); err != nil {
		api.Fail(w, http.StatusRequestEntityTooLarge, api.CodePayloadTooLarge, "request body too large", reqID)
		return false
	}
	if !v.HasIssues() {
		v.Struct(dst)
	}
	return true
}

// optionalDate parses raw when present. The zero time means "today" to the
// payroll service.
func optionalDate(v *shared.Validator, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	at, _ := v.Date(field, raw)
	return at
}

// outputFormat reads ?format=, accepting json and the one alternative the
// route can render.
func outputFormat(w http.ResponseWriter, r *http.Request, alternative string) (string, bool) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	v := shared.NewValidator()
	v.Enum("format", format, []string{"json", alternative}, "must be json or "+alternative)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return "", false
	}
	if format == "" {
		return "json", true
	}
	return format, true
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func fileSafe(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, value)
}
