package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/apiclient"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/contentkey"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/evidence"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/ledger"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) SubmitReport(ctx context.Context, sender string, key contentkey.Key, signer ledger.Signer) (*ledger.Receipt, error) {
	ret := m.Called(ctx, sender, key, signer)
	var r0 *ledger.Receipt
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Receipt)
	}
	return r0, ret.Error(1)
}

func (m *MockLedger) BoxExists(ctx context.Context, key contentkey.Key) (bool, error) {
	ret := m.Called(ctx, key)
	return ret.Bool(0), ret.Error(1)
}

type MockEvidenceStore struct {
	mock.Mock
}

func (m *MockEvidenceStore) Upload(ctx context.Context, filename string, data []byte) (*evidence.Upload, error) {
	ret := m.Called(ctx, filename, data)
	var r0 *evidence.Upload
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*evidence.Upload)
	}
	return r0, ret.Error(1)
}

type MockReportAPI struct {
	mock.Mock
}

func (m *MockReportAPI) CreateReport(ctx context.Context, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
	ret := m.Called(ctx, req)
	var r0 *dto.ReportResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dto.ReportResponse)
	}
	return r0, ret.Error(1)
}

type stubSigner struct{}

func (stubSigner) Address() string { return "SENDERADDR" }
func (stubSigner) Sign(context.Context, types.Transaction) ([]byte, error) {
	return []byte("signed"), nil
}

const msg = "Witnessed harassment on the bus"

func newPipeline(l *MockLedger, store EvidenceStore, api *MockReportAPI) *Pipeline {
	p := New(l, store, api, stubSigner{})
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p
}

func TestSubmitHappyPath(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	date := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	key := contentkey.Derive(contentkey.Metadata{Message: msg, IncidentDate: &date, PoliceRef: "CASE-1"})

	l.On("BoxExists", mock.Anything, key).Return(false, nil)
	l.On("SubmitReport", mock.Anything, "SENDERADDR", key, mock.Anything).
		Return(&ledger.Receipt{TxID: "TX1", ConfirmedRound: 42, Key: key}, nil)
	api.On("CreateReport", mock.Anything, mock.MatchedBy(func(req *dto.CreateReportRequest) bool {
		return req.TxID == "TX1" &&
			req.Message == msg &&
			*req.Timestamp == 1700000000000 &&
			!*req.IsAnonymous &&
			*req.PoliceRef == "CASE-1" &&
			*req.IncidentDate == "2024-03-09T18:30:00.000Z" &&
			*req.AccountAddress == "SENDERADDR" &&
			req.IPFSCid == nil
	})).Return(&dto.ReportResponse{TxID: "TX1"}, nil)

	res, err := newPipeline(l, nil, api).Submit(context.Background(), Input{
		Message:      "  " + msg + " ",
		IncidentDate: &date,
		PoliceRef:    "CASE-1",
	})
	require.NoError(t, err)

	assert.Equal(t, key, res.Key)
	assert.Equal(t, "TX1", res.TxID)
	assert.Equal(t, uint64(42), res.ConfirmedRound)
	assert.Equal(t, "TX1", res.Report.TxID)
	l.AssertExpectations(t)
	api.AssertExpectations(t)
}

func TestSubmitWithEvidence(t *testing.T) {
	l, api, store := &MockLedger{}, &MockReportAPI{}, &MockEvidenceStore{}
	key := contentkey.Derive(contentkey.Metadata{Message: msg, EvidenceCID: "bafy1", Anonymous: true})

	store.On("Upload", mock.Anything, "scene.png", []byte("png")).Return(&evidence.Upload{CID: "bafy1"}, nil)
	l.On("BoxExists", mock.Anything, key).Return(false, nil)
	l.On("SubmitReport", mock.Anything, "SENDERADDR", key, mock.Anything).Return(&ledger.Receipt{TxID: "TX2"}, nil)
	api.On("CreateReport", mock.Anything, mock.MatchedBy(func(req *dto.CreateReportRequest) bool {
		return *req.IPFSCid == "bafy1" && *req.IsAnonymous && req.AccountAddress == nil
	})).Return(&dto.ReportResponse{TxID: "TX2"}, nil)

	res, err := newPipeline(l, store, api).Submit(context.Background(), Input{
		Message: msg, Anonymous: true, EvidenceName: "scene.png", Evidence: []byte("png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bafy1", res.EvidenceCID)
	store.AssertExpectations(t)
	api.AssertExpectations(t)
}

func TestSubmitEvidenceFailureDegrades(t *testing.T) {
	l, api, store := &MockLedger{}, &MockReportAPI{}, &MockEvidenceStore{}
	key := contentkey.Derive(contentkey.Metadata{Message: msg})

	store.On("Upload", mock.Anything, "scene.png", mock.Anything).Return(nil, &evidence.UpstreamError{StatusCode: 500})
	l.On("BoxExists", mock.Anything, key).Return(false, nil)
	l.On("SubmitReport", mock.Anything, "SENDERADDR", key, mock.Anything).Return(&ledger.Receipt{TxID: "TX3"}, nil)
	api.On("CreateReport", mock.Anything, mock.MatchedBy(func(req *dto.CreateReportRequest) bool {
		return req.IPFSCid == nil
	})).Return(&dto.ReportResponse{TxID: "TX3"}, nil)

	res, err := newPipeline(l, store, api).Submit(context.Background(), Input{
		Message: msg, EvidenceName: "scene.png", Evidence: []byte("png"),
	})
	require.NoError(t, err)
	assert.Empty(t, res.EvidenceCID)
	assert.Equal(t, key, res.Key)
}

func TestSubmitRejectsShortMessage(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	_, err := newPipeline(l, nil, api).Submit(context.Background(), Input{Message: "  short   "})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	l.AssertNotCalled(t, "SubmitReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRefusesExistingBox(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	l.On("BoxExists", mock.Anything, mock.Anything).Return(true, nil)

	_, err := newPipeline(l, nil, api).Submit(context.Background(), Input{Message: msg})
	assert.ErrorIs(t, err, ErrAlreadyRecorded)
	l.AssertNotCalled(t, "SubmitReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "CreateReport", mock.Anything, mock.Anything)
}

func TestSubmitLedgerFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		receipt *ledger.Receipt
		err     error
		txID    string
	}{
		{"signing rejected", nil, ledger.ErrSigningRejected, ""},
		{"upstream", nil, &ledger.UpstreamError{Op: "send transaction", Err: errors.New("down")}, ""},
		{"timeout", &ledger.Receipt{TxID: "TXT"}, ledger.ErrConfirmationTimeout, "TXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, api := &MockLedger{}, &MockReportAPI{}
			l.On("BoxExists", mock.Anything, mock.Anything).Return(false, nil)
			l.On("SubmitReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.receipt, tt.err)

			res, err := newPipeline(l, nil, api).Submit(context.Background(), Input{Message: msg})
			assert.ErrorIs(t, err, tt.err)
			require.NotNil(t, res)
			assert.Equal(t, tt.txID, res.TxID)
			api.AssertNotCalled(t, "CreateReport", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitBackendFailureKeepsTxID(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	l.On("BoxExists", mock.Anything, mock.Anything).Return(false, nil)
	l.On("SubmitReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&ledger.Receipt{TxID: "TX9"}, nil)
	backendErr := errors.New("connection refused")
	api.On("CreateReport", mock.Anything, mock.Anything).Return(nil, backendErr)

	res, err := newPipeline(l, nil, api).Submit(context.Background(), Input{Message: msg})
	assert.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "TX9")
	assert.Equal(t, "TX9", res.TxID)
}

func TestReconcileAfterConfirmationTimeout(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	in := Input{Message: msg, PoliceRef: "CASE-7"}
	key := contentkey.Derive(contentkey.Metadata{Message: msg, PoliceRef: "CASE-7"})
	p := newPipeline(l, nil, api)

	l.On("BoxExists", mock.Anything, key).Return(false, nil).Once()
	l.On("SubmitReport", mock.Anything, "SENDERADDR", key, mock.Anything).
		Return(&ledger.Receipt{TxID: "TX-A", Key: key}, ledger.ErrConfirmationTimeout).Once()

	first, err := p.Submit(context.Background(), in)
	require.ErrorIs(t, err, ledger.ErrConfirmationTimeout)
	require.Equal(t, "TX-A", first.TxID)

	// The transaction confirms later and its box appears.
	l.On("BoxExists", mock.Anything, key).Return(true, nil)
	api.On("CreateReport", mock.Anything, mock.MatchedBy(func(req *dto.CreateReportRequest) bool {
		return req.TxID == "TX-A" && *req.PoliceRef == "CASE-7" && *req.AccountAddress == "SENDERADDR"
	})).Return(&dto.ReportResponse{TxID: "TX-A"}, nil).Once()

	res, err := p.Reconcile(context.Background(), in, first.TxID)
	require.NoError(t, err)
	assert.Equal(t, key, res.Key)
	assert.Equal(t, "TX-A", res.Report.TxID)
	assert.False(t, res.AlreadyStored)
	l.AssertNumberOfCalls(t, "SubmitReport", 1)
	api.AssertNumberOfCalls(t, "CreateReport", 1)
}

func TestReconcileIsIdempotent(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	l.On("BoxExists", mock.Anything, mock.Anything).Return(true, nil)
	api.On("CreateReport", mock.Anything, mock.Anything).Return(nil, apiclient.ErrConflict)

	res, err := newPipeline(l, nil, api).Reconcile(context.Background(), Input{Message: msg}, "TX-A")
	require.NoError(t, err)
	assert.True(t, res.AlreadyStored)
	assert.Nil(t, res.Report)
}

func TestReconcileUsesPinnedEvidence(t *testing.T) {
	l, api, store := &MockLedger{}, &MockReportAPI{}, &MockEvidenceStore{}
	key := contentkey.Derive(contentkey.Metadata{Message: msg, EvidenceCID: "bafy1"})
	l.On("BoxExists", mock.Anything, key).Return(true, nil)
	api.On("CreateReport", mock.Anything, mock.MatchedBy(func(req *dto.CreateReportRequest) bool {
		return *req.IPFSCid == "bafy1"
	})).Return(&dto.ReportResponse{TxID: "TX-B"}, nil)

	res, err := newPipeline(l, store, api).Reconcile(context.Background(), Input{Message: msg, EvidenceCID: "bafy1"}, "TX-B")
	require.NoError(t, err)
	assert.Equal(t, "bafy1", res.EvidenceCID)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileRefusesUnrecordedContent(t *testing.T) {
	l, api := &MockLedger{}, &MockReportAPI{}
	l.On("BoxExists", mock.Anything, mock.Anything).Return(false, nil)

	_, err := newPipeline(l, nil, api).Reconcile(context.Background(), Input{Message: msg}, "TX-A")
	assert.ErrorIs(t, err, ErrNotRecorded)
	api.AssertNotCalled(t, "CreateReport", mock.Anything, mock.Anything)

	_, err = newPipeline(l, nil, api).Reconcile(context.Background(), Input{Message: msg}, "  ")
	assert.ErrorIs(t, err, ErrMissingTxID)
}
