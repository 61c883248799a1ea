package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/contentkey"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/services"
)

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(args, stderr)
		return 1
	}

	switch args[1] {
	case "key":
		return runKey(args[2:], stdout, stderr)
	case "submit":
		return runSubmit(args[2:], stdout, stderr)
	case "check":
		return runCheck(args[2:], stdout, stderr)
	}

	usage(args, stderr)
	return 1
}

func usage(args []string, w io.Writer) {
	name := "reporter"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(w, "usage:\n")
	fmt.Fprintf(w, "  %s key --message <text> [--date <iso8601>] [--police-ref <ref>] [--evidence-cid <cid>] [--anonymous]\n", name)
	fmt.Fprintf(w, "  %s submit --message <text> [--date <iso8601>] [--police-ref <ref>] [--evidence <file> | --evidence-cid <cid>] [--anonymous] [--tx-id <id>] [--verbose]\n", name)
	fmt.Fprintf(w, "  %s check (--key <hex> | --message <text> [metadata flags])\n", name)
	fmt.Fprintf(w, "\nenvironment: REPORTER_MNEMONIC, ALGOD_SERVER, ALGOD_TOKEN, ALGORAND_APP_ID, ALGOD_WAIT_ROUNDS,\n")
	fmt.Fprintf(w, "  API_BASE_URL, PINATA_API_KEY, PINATA_SECRET_KEY, PINATA_API_URL, IPFS_GATEWAY_URL, UPLOAD_TIMEOUT\n")
}

// metadataFlags are the report fields that feed the content key.
type metadataFlags struct {
	message     string
	date        string
	policeRef   string
	evidenceCID string
	anonymous   bool
}

func (m *metadataFlags) register(fs *flag.FlagSet, withCID bool) {
	fs.StringVar(&m.message, "message", "", "report message")
	fs.StringVar(&m.date, "date", "", "incident date (ISO 8601)")
	fs.StringVar(&m.policeRef, "police-ref", "", "police reference number")
	fs.BoolVar(&m.anonymous, "anonymous", false, "submit anonymously")
	if withCID {
		fs.StringVar(&m.evidenceCID, "evidence-cid", "", "IPFS CID of already pinned evidence")
	}
}

func (m *metadataFlags) incidentDate() (*time.Time, error) {
	if strings.TrimSpace(m.date) == "" {
		return nil, nil
	}
	t, err := services.ParseISODate(strings.TrimSpace(m.date))
	if err != nil {
		return nil, fmt.Errorf("parse --date: %w", err)
	}
	return &t, nil
}

func (m *metadataFlags) metadata() (contentkey.Metadata, error) {
	date, err := m.incidentDate()
	if err != nil {
		return contentkey.Metadata{}, err
	}
	return contentkey.Metadata{
		Message:      m.message,
		IncidentDate: date,
		PoliceRef:    strings.TrimSpace(m.policeRef),
		EvidenceCID:  strings.TrimSpace(m.evidenceCID),
		Anonymous:    m.anonymous,
	}, nil
}
