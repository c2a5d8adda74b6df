package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ebfe/scard"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/scenario"
	"github.com/gregLibert/sim-trace/pkg/trace"
	"github.com/gregLibert/sim-trace/pkg/validate"
)

func main() {
	var (
		tracePath    = flag.String("trace", "", "trace document to analyze (JSON)")
		scenarioPath = flag.String("scenario", "", "optional scenario definition to match (JSON)")
		serversPath  = flag.String("servers", "", "optional server map: JSON object of IP -> label")
		capture      = flag.Bool("capture", false, "read the ICCID from a physical card instead of a trace file")
		maxGap       = flag.Int("max-gap-seconds", 0, "override the scenario's maximum step gap (0 keeps the definition)")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
		logFile      = flag.String("log-file", "", "also write logs to this file (rotated)")
	)
	flag.Parse()

	setupLogger(*logLevel, *logFile)

	runID := uuid.New()
	log.Debug().Str("run_id", runID.String()).Msg("starting analysis run")

	switch {
	case *capture:
		runCapture(runID)
	case *tracePath != "":
		runAnalysis(runID, *tracePath, *scenarioPath, *serversPath, *maxGap)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func setupLogger(level, file string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	var w io.Writer = console
	if file != "" {
		w = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    20, // MB
			MaxBackups: 3,
		})
	}

	log.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// =========================================================================
// Trace analysis
// =========================================================================

func runAnalysis(runID uuid.UUID, tracePath, scenarioPath, serversPath string, maxGapSeconds int) {
	data, err := os.ReadFile(tracePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", tracePath).Msg("cannot read trace document")
	}

	doc, err := trace.Load(data)
	if err != nil {
		log.Fatal().Err(err).Str("path", tracePath).Msg("cannot parse trace document")
	}
	log.Info().
		Int("records", len(doc.Records)).
		Int("sessions", len(doc.Sessions)).
		Msg("trace loaded")

	// Step 1: validation engine — single forward pass over the records.
	issues := validate.Run(doc.Records)

	fmt.Printf("=== VALIDATION REPORT (run %s) ===\n", runID)
	if len(issues) == 0 {
		fmt.Println("No findings.")
	}
	for _, is := range issues {
		fmt.Println(is.String())
	}

	// Step 2: optional scenario matching on top of the findings.
	if scenarioPath == "" {
		return
	}

	scn := loadScenario(scenarioPath, maxGapSeconds)
	labeler := loadLabeler(serversPath)

	result := scenario.Run(doc.Records, doc.Sessions, issues, scn, labeler)

	fmt.Println()
	fmt.Println(result.Describe())

	if result.Verdict == scenario.VerdictFail {
		os.Exit(1)
	}
}

func loadScenario(path string, maxGapSeconds int) *scenario.Scenario {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot read scenario definition")
	}

	scn, err := scenario.Parse(data)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot parse scenario definition")
	}

	if maxGapSeconds > 0 {
		scn.Gap.Enabled = true
		scn.Gap.MaxGap = time.Duration(maxGapSeconds) * time.Second
	}
	return scn
}

// loadLabeler builds the server labeler from a flat JSON object mapping peer
// IPs to labels. Without a map, every non-local session is "unknown".
func loadLabeler(path string) scenario.Labeler {
	byIP := map[string]string{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("cannot read server map")
		}
		if !gjson.ValidBytes(data) {
			log.Fatal().Str("path", path).Msg("server map is not valid JSON")
		}
		gjson.ParseBytes(data).ForEach(func(ip, label gjson.Result) bool {
			byIP[ip.String()] = label.String()
			return true
		})
		log.Debug().Int("entries", len(byIP)).Msg("server map loaded")
	}

	return func(ips []string) string {
		if len(ips) == 0 {
			return "device"
		}
		for _, ip := range ips {
			if label, ok := byIP[ip]; ok {
				return label
			}
		}
		return "unknown"
	}
}

// =========================================================================
// Live capture
// =========================================================================

// runCapture reads EF_ICCID from a physical card through PC/SC and feeds
// the resulting exchange to the validation engine, so a live card can be
// checked with the same rules as a recorded trace.
func runCapture(runID uuid.UUID) {
	ctx, card := connectToCard()

	defer func() {
		if err := ctx.Release(); err != nil {
			log.Warn().Err(err).Msg("failed to release context")
		}
	}()

	defer func() {
		if err := card.Disconnect(scard.LeaveCard); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect card")
		}
	}()

	client := apdu.NewClient(card)

	commands := []struct {
		summary string
		cmd     *apdu.CommandAPDU
	}{
		{"SELECT - MF", apdu.SelectByFileID(apdu.ClaUICC, apdu.FileMF)},
		{"SELECT - EF_ICCID", apdu.SelectByFileID(apdu.ClaUICC, apdu.FileICCID)},
		{"READ BINARY - EF_ICCID", apdu.ReadBinary(apdu.ClaUICC, 0, 10)},
	}

	var records []trace.Record
	for _, step := range commands {
		exchange, err := client.Send(step.cmd)
		if err != nil {
			log.Fatal().Err(err).Str("command", step.summary).Msg("card exchange failed")
		}
		records = append(records, exchangeToRecords(step.summary, exchange)...)
	}

	issues := validate.Run(records)

	fmt.Printf("=== CAPTURE REPORT (run %s) ===\n", runID)
	if len(issues) == 0 {
		fmt.Println("No findings.")
	}
	for _, is := range issues {
		fmt.Println(is.String())
	}
}

// connectToCard handles the PC/SC context establishment and reader
// connection.
func connectToCard() (*scard.Context, *scard.Card) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		log.Fatal().Err(err).Msg("error establishing PC/SC context")
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		if relErr := ctx.Release(); relErr != nil {
			log.Warn().Err(relErr).Msg("failed to release context during error handling")
		}
		log.Fatal().Msg("no smart card reader found")
	}

	log.Info().Str("reader", readers[0]).Msg("using reader")

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := ctx.Connect(readers[0], scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if relErr := ctx.Release(); relErr != nil {
			log.Warn().Err(relErr).Msg("failed to release context during error handling")
		}
		log.Fatal().Err(err).Msg("error connecting to card")
	}

	return ctx, card
}

// exchangeToRecords converts one logical card exchange (possibly several
// physical transactions, after 61XX/6CXX handling) into trace records the
// validation engine understands.
func exchangeToRecords(summary string, exchange apdu.Trace) []trace.Record {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var records []trace.Record
	for _, tx := range exchange {
		raw, err := tx.Command.Bytes()
		if err != nil {
			continue
		}
		records = append(records, trace.Record{
			Summary:   summary,
			Payload:   fmt.Sprintf("%X", raw),
			Timestamp: now,
			Kind:      trace.KindCommand,
		})

		respPayload := fmt.Sprintf("%X%04X", tx.Response.Data, uint16(tx.Response.Status))
		records = append(records, trace.Record{
			Summary:   summary + " RESPONSE",
			Payload:   respPayload,
			Timestamp: now,
			Kind:      trace.KindResponse,
		})
	}
	return records
}
