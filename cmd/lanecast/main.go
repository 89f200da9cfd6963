// Command lanecast replays a recorded scenario of tracked obstacles through
// the cruise behavior predictor. In online mode it prints per-sequence
// probabilities and time-to-lane-center; in offline mode it records raw
// feature vectors into the sqlite feature store for training.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadmetrics/lanecast/internal/config"
	"github.com/roadmetrics/lanecast/internal/featurestore"
	"github.com/roadmetrics/lanecast/internal/predict"
	"github.com/roadmetrics/lanecast/internal/predict/mlp"
	"github.com/roadmetrics/lanecast/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to JSON/YAML config file (optional)")
	scenarioPath = flag.String("scenario", "", "Path to recorded scenario JSON (required)")
	offline      = flag.Bool("offline", false, "Force offline recording mode")
	storePath    = flag.String("store", "", "Override feature store path")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// Scenario is the replay input: obstacles with history and lane graphs, as
// exported by the tracking subsystem.
type Scenario struct {
	Obstacles []*predict.Obstacle `json:"obstacles"`
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("lanecast %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "lanecast").Logger()

	if *scenarioPath == "" {
		flag.Usage()
		logger.Fatal().Msg("-scenario is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	}
	if *offline {
		cfg.Predictor.OfflineMode = true
	}
	if *storePath != "" {
		cfg.FeatureStorePath = *storePath
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *scenarioPath).Msg("failed to load scenario")
	}
	logger.Info().Int("obstacles", len(scenario.Obstacles)).Msg("scenario loaded")

	registry := predict.NewObstacleStore()
	for _, obstacle := range scenario.Obstacles {
		registry.Put(obstacle)
	}

	var goModel, cutinModel mlp.Model
	if !cfg.Predictor.OfflineMode {
		g, err := mlp.Load(cfg.GoModelPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.GoModelPath).Msg("failed to load go model")
		}
		c, err := mlp.Load(cfg.CutinModelPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.CutinModelPath).Msg("failed to load cut-in model")
		}
		goModel, cutinModel = g, c
		logger.Info().Str("go", g.Name()).Str("cutin", c.Name()).Msg("models loaded")
	}

	var sink predict.FeatureSink
	if cfg.Predictor.OfflineMode {
		store, err := featurestore.Open(cfg.FeatureStorePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.FeatureStorePath).Msg("failed to open feature store")
		}
		defer store.Close()
		sink = store
		logger.Info().Str("session", store.Session()).Str("path", cfg.FeatureStorePath).Msg("recording features")
	}

	evaluator, err := predict.NewEvaluator(cfg.Predictor, registry, goModel, cutinModel, sink, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct evaluator")
	}

	for _, obstacle := range scenario.Obstacles {
		results := evaluator.Evaluate(obstacle)
		for _, res := range results {
			if cfg.Predictor.OfflineMode {
				fmt.Printf("obstacle %d seq %d: features recorded\n", obstacle.ID, res.SequenceIndex)
				continue
			}
			fmt.Printf("obstacle %d seq %d: probability=%.4f time_to_lane_center=%.2fs\n",
				obstacle.ID, res.SequenceIndex, res.Probability, res.TimeToLaneCenter)
		}
	}
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenario Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}
