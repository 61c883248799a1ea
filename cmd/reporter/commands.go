package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/apiclient"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/contentkey"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/evidence"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/ledger"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/logging"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/submission"
)

func runKey(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("key", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var meta metadataFlags
	meta.register(fs, true)
	var showNormalized bool
	fs.BoolVar(&showNormalized, "normalized", false, "also print the normalized metadata that is hashed")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(meta.message) == "" {
		fmt.Fprintln(stderr, "key requires --message")
		return 1
	}

	m, err := meta.metadata()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if showNormalized {
		fmt.Fprintf(stdout, "%q\n", contentkey.Normalize(m))
	}
	fmt.Fprintln(stdout, contentkey.Derive(m).String())
	return 0
}

func runSubmit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var meta metadataFlags
	meta.register(fs, true)
	var evidencePath, txID string
	var verbose bool
	fs.StringVar(&evidencePath, "evidence", "", "evidence file to pin on IPFS (image, PDF, DOC, DOCX; max 10MB)")
	fs.StringVar(&txID, "tx-id", "", "store an already sent transaction instead of sending a new one")
	fs.BoolVar(&verbose, "verbose", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	logging.SetupCLI(stderr, verbose)

	cfg := config.Load()
	if cfg.ReporterMnemonic == "" {
		fmt.Fprintln(stderr, "REPORTER_MNEMONIC is required to sign ledger transactions")
		return 1
	}

	date, err := meta.incidentDate()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	in := submission.Input{
		Message:      meta.message,
		IncidentDate: date,
		PoliceRef:    strings.TrimSpace(meta.policeRef),
		Anonymous:    meta.anonymous,
		EvidenceCID:  strings.TrimSpace(meta.evidenceCID),
	}
	if evidencePath != "" && txID != "" {
		fmt.Fprintln(stderr, "--tx-id takes --evidence-cid, not --evidence")
		return 1
	}
	if evidencePath != "" {
		data, err := os.ReadFile(evidencePath)
		if err != nil {
			fmt.Fprintf(stderr, "read evidence: %v\n", err)
			return 1
		}
		in.EvidenceName = evidencePath
		in.Evidence = data
	}

	signer, err := ledger.NewMnemonicSigner(cfg.ReporterMnemonic)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	chain, err := newLedger(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var store submission.EvidenceStore
	if cfg.EvidenceEnabled() {
		store = evidence.NewClient(evidence.Config{
			APIURL:     cfg.PinataAPIURL,
			APIKey:     cfg.PinataAPIKey,
			SecretKey:  cfg.PinataSecretKey,
			GatewayURL: cfg.IPFSGatewayURL,
			Timeout:    cfg.UploadTimeout,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := submission.New(chain, store, apiclient.New(cfg.APIBaseURL, 0), signer)
	if txID != "" {
		return runReconcile(ctx, pipeline, in, txID, stdout, stderr)
	}
	res, err := pipeline.Submit(ctx, in)
	if err != nil {
		return reportSubmitError(stderr, res, err)
	}

	fmt.Fprintf(stdout, "key:   %s\n", res.Key)
	fmt.Fprintf(stdout, "tx:    %s (round %d)\n", res.TxID, res.ConfirmedRound)
	if res.EvidenceCID != "" {
		fmt.Fprintf(stdout, "cid:   %s\n", res.EvidenceCID)
		fmt.Fprintf(stdout, "url:   %s\n", evidence.GatewayURL(cfg.IPFSGatewayURL, res.EvidenceCID, ""))
	}
	if res.Report != nil {
		fmt.Fprintf(stdout, "id:    %s\n", res.Report.ID)
	}
	return 0
}

func runReconcile(ctx context.Context, p *submission.Pipeline, in submission.Input, txID string, stdout, stderr io.Writer) int {
	res, err := p.Reconcile(ctx, in, txID)
	switch {
	case errors.Is(err, submission.ErrNotRecorded):
		fmt.Fprintf(stderr, "key %s is not on the ledger yet; wait for %s to confirm or submit again without --tx-id\n", res.Key, txID)
		return 2
	case err != nil:
		slog.Error("reconcile failed", "tx_id", txID, "error", err)
		return 1
	}

	fmt.Fprintf(stdout, "key:   %s\n", res.Key)
	fmt.Fprintf(stdout, "tx:    %s\n", res.TxID)
	if res.AlreadyStored {
		fmt.Fprintln(stdout, "already stored by the API")
		return 0
	}
	fmt.Fprintf(stdout, "id:    %s\n", res.Report.ID)
	return 0
}

func reportSubmitError(stderr io.Writer, res *submission.Result, err error) int {
	switch {
	case errors.Is(err, submission.ErrAlreadyRecorded):
		fmt.Fprintf(stderr, "report already recorded on ledger under key %s\n", res.Key)
	case errors.Is(err, ledger.ErrConfirmationTimeout):
		fmt.Fprintf(stderr, "transaction %s was sent but not confirmed yet; once `check --key %s` reports it recorded, rerun submit with the same flags plus --tx-id %s", res.TxID, res.Key, res.TxID)
		if res.EvidenceCID != "" {
			fmt.Fprintf(stderr, " --evidence-cid %s", res.EvidenceCID)
		}
		fmt.Fprintln(stderr)
	case errors.Is(err, ledger.ErrSigningRejected):
		fmt.Fprintln(stderr, "signing cancelled, nothing was submitted")
	case errors.Is(err, apiclient.ErrConflict):
		fmt.Fprintf(stderr, "transaction %s is already stored by the API\n", res.TxID)
	default:
		slog.Error("submission failed", "error", err)
	}
	return 1
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var meta metadataFlags
	meta.register(fs, true)
	var keyHex string
	fs.StringVar(&keyHex, "key", "", "content key (64 hex characters)")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	var key contentkey.Key
	switch {
	case keyHex != "":
		k, err := contentkey.Parse(keyHex)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		key = k
	case strings.TrimSpace(meta.message) != "":
		m, err := meta.metadata()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		key = contentkey.Derive(m)
	default:
		fmt.Fprintln(stderr, "check requires --key or --message")
		return 1
	}

	logging.SetupCLI(stderr, false)
	chain, err := newLedger(config.Load())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	exists, err := chain.BoxExists(context.Background(), key)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !exists {
		fmt.Fprintf(stdout, "%s not recorded\n", key)
		return 2
	}
	fmt.Fprintf(stdout, "%s recorded\n", key)
	return 0
}

func newLedger(cfg *config.Config) (*ledger.Client, error) {
	return ledger.NewClient(ledger.Config{
		Server:     cfg.AlgodServer,
		Token:      cfg.AlgodToken,
		AppID:      cfg.AppID,
		WaitRounds: cfg.AlgodWaitRounds,
	})
}
