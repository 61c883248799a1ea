// Package submission runs the reporter side of a report: evidence upload,
// content key derivation, the ledger write and the backend mirror insert.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/apiclient"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/contentkey"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/evidence"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/ledger"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/services"
)

var (
	ErrInvalidMessage = errors.New("message must be between 10 and 2000 characters")
	// ErrAlreadyRecorded means the ledger already holds a box for this
	// content key, so a new write would duplicate the report.
	ErrAlreadyRecorded = errors.New("report content already recorded on ledger")
	// ErrNotRecorded means no box exists yet for the content key, so there
	// is nothing to persist.
	ErrNotRecorded = errors.New("report content not recorded on ledger")
	ErrMissingTxID = errors.New("transaction id is required")
)

type Ledger interface {
	SubmitReport(ctx context.Context, sender string, key contentkey.Key, signer ledger.Signer) (*ledger.Receipt, error)
	BoxExists(ctx context.Context, key contentkey.Key) (bool, error)
}

type EvidenceStore interface {
	Upload(ctx context.Context, filename string, data []byte) (*evidence.Upload, error)
}

type ReportAPI interface {
	CreateReport(ctx context.Context, req *dto.CreateReportRequest) (*dto.ReportResponse, error)
}

// Input is what the reporter typed in plus an optional evidence file.
// EvidenceCID names evidence that is already pinned; it wins over Evidence.
type Input struct {
	Message      string
	IncidentDate *time.Time
	PoliceRef    string
	Anonymous    bool
	EvidenceName string
	Evidence     []byte
	EvidenceCID  string
}

type Result struct {
	Key            contentkey.Key
	TxID           string
	ConfirmedRound uint64
	EvidenceCID    string
	Report         *dto.ReportResponse
	// AlreadyStored is set by Reconcile when the API already had the tx id.
	AlreadyStored  bool
}

type Pipeline struct {
	ledger   Ledger
	evidence EvidenceStore
	api      ReportAPI
	signer   ledger.Signer
	now      func() time.Time
}

// New builds a pipeline. store may be nil when evidence uploads are not
// configured.
func New(l Ledger, store EvidenceStore, api ReportAPI, signer ledger.Signer) *Pipeline {
	return &Pipeline{ledger: l, evidence: store, api: api, signer: signer, now: time.Now}
}

// Submit runs the full pipeline. A failure before the ledger confirms
// writes nothing to the backend. On ledger.ErrConfirmationTimeout the
// result carries the tx id so the caller can reconcile.
func (p *Pipeline) Submit(ctx context.Context, in Input) (*Result, error) {
	msg := strings.TrimSpace(in.Message)
	if n := utf8.RuneCountInString(msg); n < services.MinMessageLength || n > services.MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	res := &Result{EvidenceCID: strings.TrimSpace(in.EvidenceCID)}
	if res.EvidenceCID == "" && len(in.Evidence) > 0 {
		res.EvidenceCID = p.uploadEvidence(ctx, in.EvidenceName, in.Evidence)
	}
	res.Key = deriveKey(in, msg, res.EvidenceCID)

	exists, err := p.ledger.BoxExists(ctx, res.Key)
	if err != nil {
		return nil, err
	}
	if exists {
		return res, ErrAlreadyRecorded
	}

	sender := p.signer.Address()
	receipt, err := p.ledger.SubmitReport(ctx, sender, res.Key, p.signer)
	if receipt != nil {
		res.TxID = receipt.TxID
		res.ConfirmedRound = receipt.ConfirmedRound
	}
	if err != nil {
		return res, err
	}
	slog.Info("report confirmed on ledger", "tx_id", res.TxID, "round", res.ConfirmedRound, "key", res.Key.String())

	report, err := p.api.CreateReport(ctx, p.buildRequest(in, msg, sender, res))
	if err != nil {
		return res, fmt.Errorf("ledger write %s confirmed but backend insert failed: %w", res.TxID, err)
	}
	res.Report = report
	return res, nil
}

// Reconcile stores a ledger write whose confirmation the caller did not see,
// typically after Submit returned ledger.ErrConfirmationTimeout. in must carry
// the same metadata and EvidenceCID as the original write. The backend insert
// runs only once the content box exists; a 409 from the API means the row is
// already there and is not an error.
func (p *Pipeline) Reconcile(ctx context.Context, in Input, txID string) (*Result, error) {
	msg := strings.TrimSpace(in.Message)
	if n := utf8.RuneCountInString(msg); n < services.MinMessageLength || n > services.MaxMessageLength {
		return nil, ErrInvalidMessage
	}
	txID = strings.TrimSpace(txID)
	if txID == "" {
		return nil, ErrMissingTxID
	}

	res := &Result{TxID: txID, EvidenceCID: strings.TrimSpace(in.EvidenceCID)}
	res.Key = deriveKey(in, msg, res.EvidenceCID)

	exists, err := p.ledger.BoxExists(ctx, res.Key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return res, ErrNotRecorded
	}

	report, err := p.api.CreateReport(ctx, p.buildRequest(in, msg, p.signer.Address(), res))
	if errors.Is(err, apiclient.ErrConflict) {
		slog.Info("ledger write already stored by the API", "tx_id", txID, "key", res.Key.String())
		res.AlreadyStored = true
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("backend insert for ledger write %s failed: %w", txID, err)
	}
	slog.Info("ledger write reconciled", "tx_id", txID, "key", res.Key.String())
	res.Report = report
	return res, nil
}

func deriveKey(in Input, msg, cid string) contentkey.Key {
	return contentkey.Derive(contentkey.Metadata{
		Message:      msg,
		IncidentDate: in.IncidentDate,
		PoliceRef:    in.PoliceRef,
		EvidenceCID:  cid,
		Anonymous:    in.Anonymous,
	})
}

// uploadEvidence returns the CID, or "" when the upload is skipped or fails.
// A failed upload does not block the report.
func (p *Pipeline) uploadEvidence(ctx context.Context, name string, data []byte) string {
	if p.evidence == nil {
		slog.Warn("evidence provided but uploads are not configured, submitting without evidence")
		return ""
	}
	up, err := p.evidence.Upload(ctx, name, data)
	if err != nil {
		slog.Warn("evidence upload failed, submitting without evidence", "file", name, "error", err)
		return ""
	}
	slog.Info("evidence pinned", "cid", up.CID, "url", up.URL)
	return up.CID
}

func (p *Pipeline) buildRequest(in Input, msg, sender string, res *Result) *dto.CreateReportRequest {
	ts := p.now().UnixMilli()
	anon := in.Anonymous
	status := string(models.StatusConfirmed)
	req := &dto.CreateReportRequest{
		Message:     msg,
		TxID:        res.TxID,
		Timestamp:   &ts,
		IsAnonymous: &anon,
		Status:      &status,
	}
	if in.PoliceRef != "" {
		ref := in.PoliceRef
		req.PoliceRef = &ref
	}
	if res.EvidenceCID != "" {
		cid := res.EvidenceCID
		req.IPFSCid = &cid
	}
	if in.IncidentDate != nil {
		d := in.IncidentDate.UTC().Format(contentkey.ISOLayout)
		req.IncidentDate = &d
	}
	if !anon {
		req.AccountAddress = &sender
	}
	return req
}
