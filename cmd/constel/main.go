package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/jeongseonghan/constel/constellation"
	"github.com/jeongseonghan/constel/internal/config"
	"github.com/jeongseonghan/constel/internal/fec"
	"github.com/jeongseonghan/constel/internal/server"
	"github.com/jeongseonghan/constel/internal/sim"
)

func main() {
	mode := pflag.String("mode", "info", "Mode: info, ber, coded, lut, serve")
	configPath := pflag.String("config", "", "YAML constellation definition")
	builtin := pflag.String("constellation", "qpsk", "Builtin constellation when no config file is given")
	noise := pflag.Float64("noise", 0.1, "Channel noise power")
	symbols := pflag.Int("symbols", 100000, "Symbols per simulation run")
	precision := pflag.Int("precision", 8, "Soft-decision table precision (bits per axis)")
	seed := pflag.Int64("seed", 0, "Random seed (0 means nondeterministic)")
	addr := pflag.String("addr", "127.0.0.1:8080", "Server address for serve mode")
	payload := pflag.String("payload", "the quick brown fox jumps over the lazy dog", "Payload for coded mode")
	erasure := pflag.Float64("erasure-threshold", 0.5, "Minimum per-byte |LLR| below which a byte is erased in coded mode")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "constel",
	})

	cfg, err := loadConfig(*configPath, *builtin, *noise, *precision)
	if err != nil {
		logger.Fatal("load configuration", "err", err)
	}

	decider, err := cfg.Build()
	if err != nil {
		logger.Fatal("build decider", "err", err)
	}
	soft, err := cfg.BuildSoftDecider()
	if err != nil {
		logger.Fatal("build soft decider", "err", err)
	}

	switch *mode {
	case "info":
		printInfo(cfg.Name, decider)
	case "ber":
		runBER(logger, decider, soft, *noise, *symbols, *seed)
	case "coded":
		runCoded(logger, decider, soft, *noise, *seed, *erasure, []byte(*payload))
	case "lut":
		printLUT(logger, decider.PointSet(), *precision, *noise)
	case "serve":
		h := server.NewHandlers(cfg.Name, decider, soft, logger)
		if err := server.NewServer(*addr, h, logger).Start(); err != nil {
			logger.Fatal("server", "err", err)
		}
	default:
		logger.Fatal("unknown mode", "mode", *mode)
	}
}

func loadConfig(path, builtin string, noise float64, precision int) (*config.Constellation, error) {
	if path != "" {
		return config.Load(path)
	}
	c := &config.Constellation{Name: builtin, Builtin: builtin}
	c.SoftDecision.NoisePower = noise
	c.SoftDecision.Precision = precision
	return c, nil
}

func printInfo(name string, decider constellation.Decider) {
	ps := decider.PointSet()
	fmt.Printf("%s: %d points, %d bits/symbol, dimensionality %d, rotational symmetry %d\n",
		name, ps.Arity(), ps.BitsPerSymbol(), ps.Dimensionality(), ps.RotationalSymmetry())
	b := ps.BoundingBox()
	fmt.Printf("scale factor %.6f, bounds re [%.4f, %.4f] im [%.4f, %.4f]\n",
		ps.ScaleFactor(), b.ReMin, b.ReMax, b.ImMin, b.ImMax)
	fmt.Printf("registered variants: %s\n", strings.Join(constellation.RegisteredDeciders(), ", "))
	for i := 0; i < ps.Arity(); i++ {
		tuple := ps.MapToPoint(i)
		parts := make([]string, len(tuple))
		for d, p := range tuple {
			parts[d] = fmt.Sprintf("(%+.4f%+.4fi)", real(p), imag(p))
		}
		fmt.Printf("  symbol %2d: %s\n", i, strings.Join(parts, " "))
	}
}

func runBER(logger *log.Logger, decider constellation.Decider, soft *constellation.SoftDecider, noise float64, symbols int, seed int64) {
	res, err := sim.Run(sim.Params{
		Decider:    decider,
		Soft:       soft,
		NoisePower: noise,
		Symbols:    symbols,
		Seed:       seed,
	})
	if err != nil {
		logger.Fatal("simulation", "err", err)
	}
	logger.Info("uncoded run complete",
		"symbols", res.Symbols,
		"ser", fmt.Sprintf("%.3e", res.SER()),
		"ber", fmt.Sprintf("%.3e", res.BER()),
		"softBer", fmt.Sprintf("%.3e", res.SoftBER()))
}

func runCoded(logger *log.Logger, decider constellation.Decider, soft *constellation.SoftDecider, noise float64, seed int64, erasureThreshold float64, payload []byte) {
	coder, err := fec.NewBlockCoder()
	if err != nil {
		logger.Fatal("build coder", "err", err)
	}
	res, err := sim.RunCoded(sim.CodedParams{
		Decider:          decider,
		Soft:             soft,
		Coder:            coder,
		NoisePower:       noise,
		Payload:          payload,
		Seed:             seed,
		ErasureThreshold: erasureThreshold,
	})
	if err != nil {
		logger.Fatal("coded run", "err", err)
	}
	logger.Info("coded run complete",
		"channelByteErrors", res.ChannelByteErrors,
		"erasures", res.Erasures,
		"recovered", res.Recovered)
	if res.Recovered {
		fmt.Printf("payload: %q\n", res.Payload)
	}
}

func printLUT(logger *log.Logger, ps *constellation.PointSet, precision int, noise float64) {
	if ps.Dimensionality() != 1 {
		logger.Fatal("lookup tables require dimensionality 1")
	}
	table := ps.BuildSoftDecisionTable(precision, noise)
	b := table.Bounds()
	fmt.Printf("grid %dx%d, re [%.4f, %.4f], im [%.4f, %.4f]\n",
		1<<precision, 1<<precision, b.ReMin, b.ReMax, b.ImMin, b.ImMax)
	for i, cell := range table.Values() {
		parts := make([]string, len(cell))
		for j, v := range cell {
			parts[j] = fmt.Sprintf("%+.4f", v)
		}
		fmt.Printf("%6d: %s\n", i, strings.Join(parts, " "))
	}
}
