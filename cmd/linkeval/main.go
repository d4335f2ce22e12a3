// Command linkeval sweeps the link's code rates across channel corruption
// probabilities and reports decode success rates as JSON records, one per
// line. A RaptorQ block code runs alongside as a reference point for what
// a modern erasure code achieves on the same budget.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/plutolink/plutolink/fec"
	"github.com/plutolink/plutolink/internal/dropper"
)

var (
	payloadBytes = flag.Int("bytes", 256, "payload size per trial")
	trials       = flag.Int("trials", 200, "trials per scheme and probability")
	probsArg     = flag.String("probs", "0.001,0.005,0.01,0.02,0.05", "comma-separated corruption probabilities")
	seed         = flag.Int64("seed", 1, "base RNG seed")
	workers      = flag.Int("workers", 4, "concurrent sweep goroutines")
)

type record struct {
	Scheme string  `json:"scheme"`
	Prob   float64 `json:"prob"`
	Trials int     `json:"trials"`
	OK     int     `json:"ok"`
	OKRate float64 `json:"ok_rate"`
}

type scheme struct {
	name string
	run  func(rng *rand.Rand, prob float64) bool
}

func main() {
	flag.Parse()
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "linkeval"})

	probs, err := parseProbs(*probsArg)
	if err != nil {
		logger.Fatal("probs", "err", err)
	}

	schemes := []scheme{
		{"1/2", rateTrial(fec.RateHalf)},
		{"1/3", rateTrial(fec.RateThird)},
		{"2/3", rateTrial(fec.RateTwoThirds)},
		{"3/4", rateTrial(fec.RateThreeQuarters)},
		{"raptorq", raptorqTrial},
	}

	type combo struct {
		scheme scheme
		prob   float64
	}
	var combos []combo
	for _, s := range schemes {
		for _, p := range probs {
			combos = append(combos, combo{s, p})
		}
	}

	results := make([]record, len(combos))
	var g errgroup.Group
	g.SetLimit(*workers)
	for i, cb := range combos {
		i, cb := i, cb
		g.Go(func() error {
			rng := rand.New(rand.NewSource(*seed + int64(i)))
			ok := 0
			for t := 0; t < *trials; t++ {
				if cb.scheme.run(rng, cb.prob) {
					ok++
				}
			}
			results[i] = record{
				Scheme: cb.scheme.name,
				Prob:   cb.prob,
				Trials: *trials,
				OK:     ok,
				OKRate: float64(ok) / float64(*trials),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("sweep", "err", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			logger.Fatal("encode", "err", err)
		}
	}
	logger.Info("done", "schemes", len(schemes), "probs", len(probs), "trials", *trials)
}

func parseProbs(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("probability %v out of range", p)
		}
		out = append(out, p)
	}
	return out, nil
}

// rateTrial round-trips one random payload through a code rate with each
// encoded bit flipped at the given probability, decoding over the same
// window the receiver would use.
func rateTrial(rate fec.Rate) func(rng *rand.Rand, prob float64) bool {
	return func(rng *rand.Rand, prob float64) bool {
		payload := make([]byte, *payloadBytes)
		rng.Read(payload)
		bits := fec.BytesToBits(payload)

		enc := rate.Encode(bits)
		flip := dropper.New(prob, rng)
		for i := range enc {
			if flip.Hit() {
				enc[i] ^= 1
			}
		}

		window := int(math.Ceil(float64(len(bits)) * rate.Expansion()))
		dec := rate.Decode(enc[:window])
		if len(dec) < len(bits) {
			return false
		}
		return bytes.Equal(fec.BitsToBytes(dec[:len(bits)]), payload)
	}
}

// raptorqTrial runs the reference block code: the payload is split into
// k source symbols, n-k repair symbols are added, and whole symbols are
// erased at a probability matched to the per-bit corruption rate.
func raptorqTrial(rng *rand.Rand, prob float64) bool {
	const n, k = 32, 26
	l := (*payloadBytes + k - 1) / k
	payload := make([]byte, *payloadBytes)
	rng.Read(payload)

	symbols, err := fec.RaptorQEncodeBlock(payload, n, k, l)
	if err != nil {
		return false
	}
	// A symbol survives only if all of its bits do.
	pSym := 1 - math.Pow(1-prob, float64(l*8))
	drop := dropper.New(pSym, rng)
	var kept []fec.Symbol
	for _, s := range symbols {
		if !drop.Hit() {
			kept = append(kept, s)
		}
	}
	dec, ok := fec.RaptorQDecodeBytes(kept, n, l, *payloadBytes)
	return ok && bytes.Equal(dec, payload)
}
