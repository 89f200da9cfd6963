// Command feature-plot renders the lane-geometry block of recorded cruise
// feature vectors as relative-frame path charts. Useful for eyeballing
// whether recorded lane sequences look sane before training on them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roadmetrics/lanecast/internal/featurestore"
	"github.com/roadmetrics/lanecast/internal/predict"
)

var (
	dbPath        = flag.String("db", "cruise_features.db", "Path to the feature store database")
	outputDir     = flag.String("out", "plots", "Output directory for PNG files")
	historyWindow = flag.Int("history-window", predict.DefaultConfig().HistoryWindow, "History window (W) the features were recorded with")
	lanePoints    = flag.Int("lane-points", predict.DefaultConfig().LanePointCount, "Lane point count (P) the features were recorded with")
	maxRecords    = flag.Int("max-records", 50, "Maximum number of records to plot")
)

func main() {
	flag.Parse()

	cfg := predict.DefaultConfig()
	cfg.HistoryWindow = *historyWindow
	cfg.LanePointCount = *lanePoints
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid block sizes: %v", err)
	}

	store, err := featurestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open feature store: %v", err)
	}
	defer store.Close()

	records, err := store.Records()
	if err != nil {
		log.Fatalf("failed to read records: %v", err)
	}
	if len(records) == 0 {
		log.Fatal("no records in feature store")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	plotted := 0
	for _, record := range records {
		if plotted >= *maxRecords {
			break
		}
		if err := plotRecord(record, cfg, *outputDir); err != nil {
			log.Printf("skipping record %d: %v", record.ID, err)
			continue
		}
		plotted++
	}
	log.Printf("wrote %d plots to %s", plotted, *outputDir)
}

// plotRecord draws every sequence's lane-geometry points of one record onto
// a single chart, longitudinal on X and lateral on Y.
func plotRecord(record featurestore.Record, cfg predict.Config, outputDir string) error {
	laneStart := cfg.ObstacleFeatureSize() + predict.InteractionFeatureSize

	p := plot.New()
	p.Title.Text = fmt.Sprintf("obstacle %d @ %.2f", record.ObstacleID, record.Timestamp)
	p.X.Label.Text = "longitudinal s (m)"
	p.Y.Label.Text = "lateral l (m)"

	curves := 0
	for seqIdx, features := range record.Features {
		if len(features) != cfg.TotalFeatureSize() {
			return fmt.Errorf("sequence %d has %d values, want %d", seqIdx, len(features), cfg.TotalFeatureSize())
		}
		laneBlock := features[laneStart:]
		pts := make(plotter.XYs, 0, cfg.LanePointCount)
		for i := 0; i+3 < len(laneBlock); i += 4 {
			// Tuple layout is [l, s, heading, kappa].
			pts = append(pts, plotter.XY{X: laneBlock[i+1], Y: laneBlock[i]})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		line.Color = plotutil.Color(seqIdx)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("seq %d", seqIdx), line)
		curves++
	}
	if curves == 0 {
		return fmt.Errorf("record has no sequences")
	}

	name := fmt.Sprintf("record_%04d_obstacle_%d.png", record.ID, record.ObstacleID)
	return p.Save(8*vg.Inch, 6*vg.Inch, filepath.Join(outputDir, name))
}
