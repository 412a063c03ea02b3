package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/nevisdale/nescore/internal/config"
	"github.com/nevisdale/nescore/internal/nes"
	"github.com/nevisdale/nescore/internal/ui"
	"github.com/pkg/profile"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON config file")
		romPath    = flag.String("rom", "", "path to an iNES ROM (overrides config)")
		maxSteps   = flag.Int("steps", 0, "instruction budget, headless or in the viewer (overrides config)")
		trace      = flag.Bool("trace", false, "log every executed instruction")
		withUI     = flag.Bool("ui", false, "open the debug viewer")
		profMode   = flag.String("profile", "", "profile mode: cpu, mem or trace")
		saveConfig = flag.String("save-config", "", "write the effective config to this path and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("couldn't load config: %s\n", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rom":
			cfg.ROM = *romPath
		case "steps":
			cfg.Emulation.MaxSteps = *maxSteps
		case "trace":
			cfg.Debug.Trace = *trace
		case "ui":
			cfg.Debug.UI = *withUI
		case "profile":
			cfg.Debug.Profile = *profMode
		}
	})
	if cfg.ROM == "" && flag.NArg() > 0 {
		cfg.ROM = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalln(err)
	}
	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if cfg.ROM == "" {
		log.Fatalln("no ROM given: use -rom or set \"rom\" in the config")
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	defer startProfile(cfg.Debug).Stop()

	cart, err := nes.NewCartFromFile(cfg.ROM)
	if err != nil {
		log.Printf("couldn't load cartridge: %s\n", err)
		return 1
	}
	h := cart.Header()
	mirroring := "horizontal"
	if h.Mirror() == 1 {
		mirroring = "vertical"
	}
	log.Printf("loaded %s: PRG %dx16KB, CHR %dx8KB, mapper %d, %s mirroring, trainer %t\n",
		cfg.ROM, h.PrgRomSize, h.ChrRomSize, h.MapperID(), mirroring, h.HasTrainer())

	opts := nes.Options{
		PPUTicksPerCycle: cfg.Emulation.PPUTicksPerCycle,
		MaxSteps:         cfg.Emulation.MaxSteps,
	}
	if cfg.Debug.Trace {
		opts.Tracer = log.New(os.Stderr, "", 0)
	}
	bus := nes.NewBus(opts)
	if err := bus.LoadCart(cart); err != nil {
		log.Printf("couldn't load cartridge: %s\n", err)
		return 1
	}

	if cfg.Debug.UI {
		err = ui.RunUI(ui.New(bus))
	} else {
		err = bus.Run(cfg.Emulation.MaxSteps)
	}

	switch {
	case err == nil:
		log.Printf("stopped after %d instructions\n", bus.Steps())
		return 0
	case errors.Is(err, nes.ErrHalted):
		log.Printf("%s after %d instructions\n", err, bus.Steps())
		return 0
	default:
		log.Printf("emulation failed: %s\n", err)
		return 1
	}
}

type stopper interface {
	Stop()
}

type noopStopper struct{}

func (noopStopper) Stop() {}

func startProfile(cfg config.DebugConfig) stopper {
	opts := []func(*profile.Profile){profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook}
	switch cfg.Profile {
	case config.ProfileCPU:
		opts = append(opts, profile.CPUProfile)
	case config.ProfileMem:
		opts = append(opts, profile.MemProfile)
	case config.ProfileTrace:
		opts = append(opts, profile.TraceProfile)
	default:
		return noopStopper{}
	}
	return profile.Start(opts...)
}
