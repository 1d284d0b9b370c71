package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

type reportPage struct {
	page
	Report services.MonthlyReport
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	params := ParseReportParams(r.URL.Query())
	rep, err := s.dashboard.MonthlyReport(r.Context(), params.Month, params.View)
	if err != nil {
		s.serverError(w, r, "Failed to load report", err)
		return
	}

	p := newPage("Monthly report", "report", "/report", params.View)
	p.Month = rep.Month
	s.render(w, r, NewHTMXResponse(), "report.html", reportPage{page: p, Report: rep})
}

// handleExportCSV downloads the selected month's table in the selected view.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	params := ParseReportParams(r.URL.Query())
	rep, err := s.dashboard.MonthlyReport(r.Context(), params.Month, params.View)
	if err != nil {
		s.serverError(w, r, "Failed to load report", err)
		return
	}
	if rep.Month == "" {
		NotFoundError("No transactions to export.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := rep.Table.WriteCSV(&buf); err != nil {
		s.serverError(w, r, "Failed to build CSV", err)
		return
	}

	s.reqLogger(r).InfoContext(r.Context(), "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, rep.Month,
		"rows", len(rep.Table.Rows),
		"view", string(params.View))

	NewHTMXResponse().
		Header("Content-Type", "text/csv; charset=utf-8").
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.ExportFilename(rep.Month))).
		Body(buf.Bytes()).
		Write(w)
}

type insightsPage struct {
	page
	Charts        services.Charts
	Categories    []core.Category
	CategoryTypes []core.TxType
	Currencies    []report.Currency
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := ParseChartParams(r.URL.Query())

	charts, err := s.dashboard.Charts(ctx, params.Currency, params.Month)
	if err != nil {
		s.serverError(w, r, "Failed to load charts", err)
		return
	}
	cats, err := s.entry.Categories(ctx)
	if err != nil {
		s.serverError(w, r, "Failed to load categories", err)
		return
	}

	s.render(w, r, NewHTMXResponse(), "insights.html", insightsPage{
		page:          newPage("Insights", "insights", "/insights", core.ViewEUR),
		Charts:        charts,
		Categories:    cats,
		CategoryTypes: []core.TxType{core.Expense, core.Income, core.Debt, core.DebtPayment, core.Other},
		Currencies:    []report.Currency{report.EUR, report.BDT},
	})
}

// handleCreateCategory adds a category. An empty name is rejected with 422 and
// an existing name with 409.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	c, err := s.entry.AddCategory(ctx, p.Get("name"), p.Get("type"))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrCategoryExists):
			ConflictError("Category already exists.").Write(w)
		case services.IsInputError(err):
			UnprocessableEntityError(inputMessage(err)).Write(w)
		default:
			s.serverError(w, r, "Failed to create category", err)
		}
		return
	}

	s.reqLogger(r).InfoContext(ctx, "Category created",
		log.FieldCategory, c.Name,
		log.FieldTxType, string(c.Type))
	b := NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerCategoryCreated(c.Name).
		TriggerSuccessNotification("Category created")
	s.render(w, r, b, "category_saved.html", c)
}

// handleCharts serves the insights series as JSON.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	params := ParseChartParams(r.URL.Query())
	charts, err := s.dashboard.Charts(r.Context(), params.Currency, params.Month)
	if err != nil {
		s.reqLogger(r).ErrorContext(r.Context(), "Failed to load charts", log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load charts"})
		return
	}
	writeJSON(w, http.StatusOK, charts)
}
