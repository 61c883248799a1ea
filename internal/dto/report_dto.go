package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/contentkey"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"github.com/google/uuid"
)

// CreateReportRequest is the body of POST /api/reports. Pointer fields are
// required-or-optional markers: nil means the client did not send them.
type CreateReportRequest struct {
	Message        string  `json:"message"`
	TxID           string  `json:"txId"`
	Timestamp      *int64  `json:"timestamp"`
	IsAnonymous    *bool   `json:"isAnonymous"`
	PoliceRef      *string `json:"policeRef,omitempty"`
	IPFSCid        *string `json:"ipfsCid,omitempty"`
	IncidentDate   *string `json:"incidentDate,omitempty"`
	Status         *string `json:"status,omitempty"`
	AccountAddress *string `json:"accountAddress,omitempty"`
}

// FieldDecodeError is a request field whose JSON value has an unusable type.
type FieldDecodeError struct {
	FieldError
}

func (e *FieldDecodeError) Error() string {
	return e.Field + ": " + e.Message
}

// UnmarshalJSON also accepts timestamp as a numeric string and isAnonymous
// as "true", "false", "1" or "0", the forms form posts send.
func (r *CreateReportRequest) UnmarshalJSON(data []byte) error {
	type plain CreateReportRequest
	aux := struct {
		*plain
		Timestamp   json.RawMessage `json:"timestamp"`
		IsAnonymous json.RawMessage `json:"isAnonymous"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Timestamp, r.IsAnonymous = nil, nil
	if raw := unquote(aux.Timestamp); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return &FieldDecodeError{FieldError{Field: "timestamp", Message: "Timestamp must be a positive integer", Value: raw}}
		}
		r.Timestamp = &n
	}
	if raw := unquote(aux.IsAnonymous); raw != "" {
		var b bool
		switch raw {
		case "true", "1":
			b = true
		case "false", "0":
		default:
			return &FieldDecodeError{FieldError{Field: "isAnonymous", Message: "isAnonymous must be a boolean", Value: raw}}
		}
		r.IsAnonymous = &b
	}
	return nil
}

// unquote returns the text of a JSON scalar, "" for absent or null.
func unquote(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	}
	return string(raw)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ReportResponse is the wire form of a stored report.
type ReportResponse struct {
	ID             uuid.UUID           `json:"id"`
	Message        string              `json:"message"`
	TxID           string              `json:"txId"`
	Timestamp      int64               `json:"timestamp"`
	IsAnonymous    bool                `json:"isAnonymous"`
	PoliceRef      *string             `json:"policeRef"`
	IPFSCid        *string             `json:"ipfsCid"`
	IncidentDate   *string             `json:"incidentDate"`
	Status         models.ReportStatus `json:"status"`
	AccountAddress *string             `json:"accountAddress"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func NewReportResponse(r *models.Report) ReportResponse {
	resp := ReportResponse{
		ID:             r.ID,
		Message:        r.Message,
		TxID:           r.TxID,
		Timestamp:      r.Timestamp,
		IsAnonymous:    r.IsAnonymous,
		PoliceRef:      r.PoliceRef,
		IPFSCid:        r.IPFSCid,
		Status:         r.Status,
		AccountAddress: r.AccountAddress,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.IncidentDate != nil {
		s := r.IncidentDate.UTC().Format(contentkey.ISOLayout)
		resp.IncidentDate = &s
	}
	return resp
}

func NewReportResponses(reports []models.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, NewReportResponse(&reports[i]))
	}
	return out
}
