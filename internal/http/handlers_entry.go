package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// page carries what the shared header and view selector need.
type page struct {
	Title  string
	Active string
	Path   string
	View   core.View
	Views  []core.View
	Month  string
}

func newPage(title, active, path string, v core.View) page {
	return page{Title: title, Active: active, Path: path, View: v, Views: core.Views()}
}

type indexPage struct {
	page
	Summary    report.Summary
	Count      int
	Form       services.EntryForm
	Categories []string
	Types      []core.TxType
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := core.ParseView(r.URL.Query().Get("view"))

	ov, err := s.dashboard.Overview(ctx, view)
	if err != nil {
		s.serverError(w, r, "Failed to load transactions", err)
		return
	}
	form, cats, err := s.entry.NewForm(ctx)
	if err != nil {
		s.serverError(w, r, "Failed to load categories", err)
		return
	}

	s.render(w, r, NewHTMXResponse(), "index.html", indexPage{
		page:       newPage("Entry", "entry", "/", view),
		Summary:    ov.Summary,
		Count:      ov.Count,
		Form:       form,
		Categories: cats,
		Types:      core.TxTypes(),
	})
}

// handleQuote renders the locked rate and BDT preview for the form's date and
// amount. Failures are shown in the partial with the save button disabled.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	quote := s.entry.Quote(ctx, sanitizeInput(q.Get("date")), sanitizeInput(q.Get("amount")))
	if quote.Err != nil && !services.IsInputError(quote.Err) {
		s.reqLogger(r).WarnContext(ctx, "Exchange rate unavailable",
			log.FieldRateDate, quote.Date.String(),
			log.FieldError, quote.Err)
	}
	s.render(w, r, NewHTMXResponse(), "quote.html", quote)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	tx, err := s.entry.Record(ctx, p.EntryForm())
	if err != nil {
		switch {
		case services.IsInputError(err):
			s.countRejected()
			UnprocessableEntityError(inputMessage(err)).Write(w)
		case errors.Is(err, rates.ErrRateUnavailable), errors.Is(err, rates.ErrTodayOnly):
			s.countRejected()
			s.reqLogger(r).WarnContext(ctx, "Entry blocked without exchange rate", log.FieldError, err)
			UnprocessableEntityError("Cannot save entry without exchange rate: " + rootCause(err)).Write(w)
		default:
			s.serverError(w, r, "Failed to save entry", err)
		}
		return
	}

	s.countRecorded()
	_, cats, err := s.entry.NewForm(ctx)
	if err != nil {
		s.reqLogger(r).WarnContext(ctx, "Failed to reload categories after save", log.FieldError, err)
	}
	b := NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerTransactionCreated(tx.ID, tx.Date).
		TriggerFormReset(p.EntryForm().Reset(cats, s.entry.Today())).
		TriggerSuccessNotification("Entry saved successfully")
	s.render(w, r, b, "transaction_saved.html", tx)
}

// inputMessage turns a validation sentinel into the text shown under the form.
func inputMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a number greater than zero."
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must be a valid YYYY-MM-DD date."
	case errors.Is(err, core.ErrInvalidType):
		return "Unknown transaction type."
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category name is required."
	case errors.Is(err, core.ErrRemarksLength):
		return "Remarks are too long (max 500 characters)."
	default:
		return "Invalid input."
	}
}

// rootCause strips the service's own prefix so the partial shows the
// provider failures only.
func rootCause(err error) string {
	if u := errors.Unwrap(err); u != nil {
		return u.Error()
	}
	return err.Error()
}

// reqLogger returns the logger tagged with the request ID.
func (s *Server) reqLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context())
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
	log.NewStructuredLogger(s.reqLogger(r)).LogError(r.Context(), msg, err, log.ComponentHTTP, log.OpRender, fields)
	InternalServerError(msg).Write(w)
}
