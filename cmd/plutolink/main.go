// Command plutolink runs one transmit-and-receive cycle: frame a payload,
// transmit it cyclically over the selected radio device and search the
// receive stream until the frame decodes or the read budget runs out.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/francoispqt/gojay"

	"github.com/plutolink/plutolink/internal/sim"
	"github.com/plutolink/plutolink/payload"
	"github.com/plutolink/plutolink/radio"
	"github.com/plutolink/plutolink/session"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	message    = flag.String("message", "", "inline text payload")
	filePath   = flag.String("file", "", "file payload, sent verbatim")
	wavPath    = flag.String("wav", "", "WAV payload, data chunk only")
	codeRate   = flag.String("rate", "", "code rate: 1/2, 1/3, 2/3 or 3/4")
	sps        = flag.Int("sps", 0, "samples per symbol")
	txGain     = flag.Int("tx-gain", 0, "transmit gain in dB")
	rxGain     = flag.Int("rx-gain", 0, "receive gain in dB")
	maxReads   = flag.Int("max-reads", 0, "receive read budget")
	radioName  = flag.String("radio", "sim", "radio driver (only \"sim\" is built in)")
	simNoise   = flag.Float64("sim-noise", 200, "simulated channel noise sigma")
	simLeadIn  = flag.Int("sim-lead-in", 0, "simulated noise-only reads before the signal appears")
	simSeed    = flag.Int64("sim-seed", 0, "simulated channel seed (0 = fixed default)")
	simAlign   = flag.Int("sim-align", 0, "quantize simulated replay offsets to this many samples (0 = arbitrary)")
	metricsAt  = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	statsJSON  = flag.Bool("stats-json", false, "print the final stats snapshot as JSON")
	verbose    = flag.Bool("verbose", false, "debug logging")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "plutolink",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	src, err := pickSource()
	if err != nil {
		logger.Fatal("payload", "err", err)
	}
	dev, err := pickDevice()
	if err != nil {
		logger.Fatal("radio", "err", err)
	}

	observers := session.Observers{session.LogObserver{L: logger}}
	if *metricsAt != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, session.NewMetrics(reg))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(*metricsAt, mux); err != nil {
				logger.Error("metrics endpoint", "err", err)
			}
		}()
	}

	ctrl := session.New(dev, observers)
	if err := ctrl.Start(cfg, src); err != nil {
		logger.Fatal("start session", "err", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Warn("interrupted, stopping session")
		ctrl.Stop()
	}()

	ctrl.Wait()
	st := ctrl.Stats()

	if *statsJSON {
		b, err := gojay.MarshalJSONObject(&st)
		if err != nil {
			logger.Error("marshal stats", "err", err)
		} else {
			fmt.Println(string(b))
		}
	}
	if st.Decodes == 0 {
		os.Exit(1)
	}
}

// loadConfig merges the YAML file (if any) with explicitly set flags;
// flags win.
func loadConfig() (session.Config, error) {
	var cfg session.Config
	if *configPath != "" {
		var err error
		cfg, err = session.LoadConfig(*configPath)
		if err != nil {
			return session.Config{}, err
		}
	}
	if flag.CommandLine.Changed("rate") {
		cfg.CodeRate = *codeRate
	}
	if flag.CommandLine.Changed("sps") {
		cfg.SamplesPerSymbol = *sps
	}
	if flag.CommandLine.Changed("tx-gain") {
		cfg.TXGainDB = *txGain
	}
	if flag.CommandLine.Changed("rx-gain") {
		cfg.RXGainDB = *rxGain
	}
	if flag.CommandLine.Changed("max-reads") {
		cfg.MaxReads = *maxReads
	}
	return cfg, nil
}

func pickSource() (payload.Source, error) {
	set := 0
	for _, s := range []string{*message, *filePath, *wavPath} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("pick one of --message, --file, --wav")
	}
	switch {
	case *filePath != "":
		return payload.File(*filePath), nil
	case *wavPath != "":
		return payload.WAV(*wavPath), nil
	case *message != "":
		return payload.Text(*message), nil
	}
	return payload.Text("HELLO WORLD"), nil
}

func pickDevice() (radio.Device, error) {
	if *radioName != "sim" {
		return nil, fmt.Errorf("unknown radio driver %q; hardware drivers plug in via the radio.Device interface", *radioName)
	}
	return sim.NewChannel(sim.Options{
		NoiseStdDev:  *simNoise,
		LeadInReads:  *simLeadIn,
		AlignSamples: *simAlign,
		Seed:         *simSeed,
	}), nil
}
