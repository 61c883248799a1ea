package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
)

const (
	MinMessageLength = 10
	MaxMessageLength = 2000
	MaxTxIDLength    = 128
	MaxRefLength     = 100

	DefaultListLimit = 50
	MaxListLimit     = 100
	MaxSearchLength  = 100
	SearchLimit      = 50
)

// ValidationError carries every rejected field of a request.
type ValidationError struct {
	Fields []dto.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation error: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string, value interface{}) {
	e.Fields = append(e.Fields, dto.FieldError{Field: field, Message: message, Value: value})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// newReport is a validated, normalized create request.
type newReport struct {
	message        string
	txID           string
	timestamp      int64
	isAnonymous    bool
	policeRef      *string
	ipfsCid        *string
	incidentDate   *time.Time
	status         models.ReportStatus
	accountAddress *string
}

func validateCreate(req *dto.CreateReportRequest) (*newReport, error) {
	verr := &ValidationError{}
	out := &newReport{status: models.StatusConfirmed}

	if n := utf8.RuneCountInString(req.Message); n < MinMessageLength || n > MaxMessageLength {
		verr.add("message", "Message must be between 10 and 2000 characters", req.Message)
	}
	out.message = req.Message

	switch {
	case req.TxID == "":
		verr.add("txId", "Transaction ID is required", req.TxID)
	case len(req.TxID) > MaxTxIDLength:
		verr.add("txId", "Transaction ID must be under 128 characters", req.TxID)
	}
	out.txID = req.TxID

	if req.Timestamp == nil || *req.Timestamp < 0 {
		verr.add("timestamp", "Timestamp must be a positive integer", req.Timestamp)
	} else {
		out.timestamp = *req.Timestamp
	}

	if req.IsAnonymous == nil {
		verr.add("isAnonymous", "isAnonymous must be a boolean", nil)
	} else {
		out.isAnonymous = *req.IsAnonymous
	}

	out.policeRef = optional(req.PoliceRef)
	if out.policeRef != nil && utf8.RuneCountInString(*out.policeRef) > MaxRefLength {
		verr.add("policeRef", "Police reference must be under 100 characters", *out.policeRef)
	}

	out.ipfsCid = optional(req.IPFSCid)
	if out.ipfsCid != nil && len(*out.ipfsCid) > MaxRefLength {
		verr.add("ipfsCid", "IPFS CID must be under 100 characters", *out.ipfsCid)
	}

	if s := optional(req.IncidentDate); s != nil {
		t, err := ParseISODate(*s)
		if err != nil {
			verr.add("incidentDate", "Incident date must be in ISO8601 format", *s)
		} else {
			out.incidentDate = &t
		}
	}

	if req.Status != nil {
		st := models.ReportStatus(*req.Status)
		if !st.Valid() {
			verr.add("status", "Invalid status", *req.Status)
		} else {
			out.status = st
		}
	}

	if req.AccountAddress != nil {
		if n := utf8.RuneCountInString(*req.AccountAddress); n < 1 || n > MaxRefLength {
			verr.add("accountAddress", "Invalid account address", *req.AccountAddress)
		}
	}
	// Anonymous reports never keep the submitter address.
	if !out.isAnonymous {
		out.accountAddress = optional(req.AccountAddress)
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListParams are the filters of GET /api/reports.
type ListParams struct {
	Limit  int
	Offset int
	Status string
}

// DefaultListParams returns the first page with the default page size.
func DefaultListParams() ListParams {
	return ListParams{Limit: DefaultListLimit}
}

func (p ListParams) validate() error {
	verr := &ValidationError{}
	if p.Limit < 1 || p.Limit > MaxListLimit {
		verr.add("limit", "Limit must be between 1 and 100", p.Limit)
	}
	if p.Offset < 0 {
		verr.add("offset", "Offset must be a non-negative integer", p.Offset)
	}
	if p.Status != "" && !models.ReportStatus(p.Status).Valid() {
		verr.add("status", "Invalid status", p.Status)
	}
	return verr.orNil()
}

func validateSearch(q string) error {
	if n := utf8.RuneCountInString(q); n < 1 || n > MaxSearchLength {
		verr := &ValidationError{}
		verr.add("q", "Search query must be between 1 and 100 characters", q)
		return verr
	}
	return nil
}

func validateStatus(status string) (models.ReportStatus, error) {
	st := models.ReportStatus(status)
	if !st.Valid() {
		verr := &ValidationError{}
		verr.add("status", "Invalid status", status)
		return "", verr
	}
	return st, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISODate accepts the ISO-8601 shapes browsers and form inputs send.
// Values without a zone are read as UTC.
func ParseISODate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
