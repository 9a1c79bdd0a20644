package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"smartinvoice/internal/core"
	"smartinvoice/internal/extract"
)

// placeholderImageURL stands in for uploaded files; image bytes are not
// retained after extraction.
const placeholderImageURL = "/static/img/placeholder-invoice.svg"

const maxUploadBytes = 10 << 20 // 10 MiB

type invoiceRowData struct {
	ID       string
	Vendor   string
	Amount   string
	Date     string
	Status   string
	ImageURL string
}

type invoiceListData struct {
	pageData
	Items []invoiceRowData
}

type reviewFormData struct {
	Vendor string
	Amount string
	Date   string
}

func invoiceRow(inv core.Invoice) invoiceRowData {
	return invoiceRowData{
		ID:       inv.ID,
		Vendor:   inv.VendorName,
		Amount:   core.FormatDollars(inv.Amount.Cents),
		Date:     inv.InvoiceDate.ISO(),
		Status:   string(inv.Status),
		ImageURL: inv.ImageURL,
	}
}

// amountInputValue renders cents as a plain decimal for form inputs.
func amountInputValue(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleInvoicesPage(w, r)
	case http.MethodPost:
		s.handleCreateInvoice(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleInvoicesPage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	list, err := s.invoiceOps.ListInvoices(r.Context(), user.ID)
	if err != nil {
		// The page still renders; the table shows its empty state.
		slog.ErrorContext(r.Context(), "List invoices failed",
			"user_id", user.ID, "error", err)
		list = nil
	}

	data := invoiceListData{
		pageData: pageData{Title: "Invoices", Active: "invoices", User: user},
	}
	for _, inv := range list {
		data.Items = append(data.Items, invoiceRow(inv))
	}
	s.render(w, r, "invoices.html", data)
}

// handleInvoiceRows renders the table body partial the page refreshes after
// every create and delete.
func (s *Server) handleInvoiceRows(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	list, err := s.invoiceOps.ListInvoices(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List invoice rows failed",
			"user_id", user.ID, "error", err)
		list = nil
	}

	data := struct{ Items []invoiceRowData }{}
	for _, inv := range list {
		data.Items = append(data.Items, invoiceRow(inv))
	}
	s.render(w, r, "invoice_rows.html", data)
}

// handleUploadModal renders the upload dialog in its initial state. Every
// open starts fresh; nothing is carried over from an abandoned run.
func (s *Server) handleUploadModal(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "upload_modal.html", nil)
}

// handleExtract receives the uploaded image and responds with the editable
// review form pre-filled from extraction.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "Multipart parse failed", "error", err)
		BadRequestError("Invalid upload").
			TriggerErrorNotification("Invalid upload").
			Write(w)
		return
	}

	file, header, err := r.FormFile("invoice")
	if err != nil {
		UnprocessableEntityError("Choose a file first").
			TriggerErrorNotification("Choose a file first").
			Write(w)
		return
	}
	defer file.Close()

	result, err := s.extractor.Extract(r.Context(), extract.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Extraction failed",
			"filename", header.Filename, "error", err)
		InternalServerError("Extraction failed, please try again").
			TriggerErrorNotification("Extraction failed, please try again").
			Write(w)
		return
	}

	s.render(w, r, "review_form.html", reviewFormData{
		Vendor: result.VendorName,
		Amount: amountInputValue(result.Amount.Cents),
		Date:   result.InvoiceDate.ISO(),
	})
}

// handleCreateInvoice saves the reviewed form. All extracted fields may have
// been edited by the user; the amount's sign and size are accepted as-is.
func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	vendor := formValue(r, "vendor_name")
	amountStr := formValue(r, "amount")
	dateStr := formValue(r, "invoice_date")
	status := core.InvoiceStatus(formValue(r, "status"))
	if status == "" {
		status = core.StatusPending
	}

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").
			TriggerErrorNotification("Invalid amount").
			Write(w)
		return
	}
	invoiceDate, err := core.ParseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid date").
			TriggerErrorNotification("Invalid date").
			Write(w)
		return
	}

	user := currentUser(r)
	inv := core.Invoice{
		UserID:      user.ID,
		VendorName:  vendor,
		Amount:      core.Money{Cents: cents},
		InvoiceDate: invoiceDate,
		Status:      status,
		ImageURL:    placeholderImageURL,
	}
	if err := inv.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).
			TriggerErrorNotification(err.Error()).
			Write(w)
		return
	}

	created, err := s.invoiceOps.CreateInvoice(r.Context(), inv)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create invoice failed",
			"user_id", user.ID, "vendor_name", vendor, "error", err)
		InternalServerError("Could not save the invoice").
			TriggerErrorNotification("Could not save the invoice").
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerInvoiceCreated(created.ID).
		TriggerSuccessNotification("Invoice saved").
		BodyHTML(`<div class="upload-saved" id="upload-state">Saved</div>`).
		Write(w)
}

func (s *Server) handleInvoiceByID(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/invoices/")
	if id == "" || strings.Contains(id, "/") {
		NotFoundError("Invoice not found").Write(w)
		return
	}

	err := s.invoiceOps.DeleteInvoice(r.Context(), currentUser(r).ID, id)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			NotFoundError("Invoice not found").
				TriggerErrorNotification("Invoice not found").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Delete invoice failed",
			"invoice_id", id, "error", err)
		InternalServerError("Could not delete the invoice").
			TriggerErrorNotification("Could not delete the invoice").
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerInvoiceDeleted(id).
		TriggerSuccessNotification("Invoice deleted").
		Write(w)
}
