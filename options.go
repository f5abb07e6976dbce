package osm2edits

import (
	"fmt"
	"log/slog"
)

// mapOptions are collaborators and settings used by NewMap
type mapOptions struct {
	config    MapConfig
	geometer  IntersectionGeometer
	snapper   LaneSnapper
	baseline  BaselineDeriver
	editsDir  string
	logger    *slog.Logger
	verbose   bool
	strictMap bool
}

func (opts *mapOptions) String() string {
	return fmt.Sprintf(`
Map options:
	driving_side: '%s'
	bikes_can_use_bus_lanes: %t
	inferred_sidewalks: %t
	edits_dir: '%s'
	strict mode enabled?: %t
	verbose?: %t
	`,
		opts.config.DrivingSide,
		opts.config.BikesCanUseBusLanes,
		opts.config.InferredSidewalks,
		opts.editsDir,
		opts.strictMap,
		opts.verbose,
	)
}

func defaultMapOptions() *mapOptions {
	return &mapOptions{
		config:   DefaultMapConfig(),
		geometer: NewDefaultGeometer(),
		snapper:  NewQuadtreeSnapper(),
		baseline: OSMBaseline{},
		editsDir: "edits",
		logger:   slog.Default(),
	}
}

// MapOption configures NewMap
type MapOption func(*mapOptions)

func WithConfig(config MapConfig) MapOption {
	return func(opts *mapOptions) {
		opts.config = config
	}
}

func WithGeometer(geometer IntersectionGeometer) MapOption {
	return func(opts *mapOptions) {
		opts.geometer = geometer
	}
}

func WithSnapper(snapper LaneSnapper) MapOption {
	return func(opts *mapOptions) {
		opts.snapper = snapper
	}
}

func WithBaseline(baseline BaselineDeriver) MapOption {
	return func(opts *mapOptions) {
		opts.baseline = baseline
	}
}

// WithEditsDir sets root directory for saved edits. Files are laid out as <dir>/<city>/<map>/<edits name>.json
func WithEditsDir(editsDir string) MapOption {
	return func(opts *mapOptions) {
		opts.editsDir = editsDir
	}
}

func WithLogger(logger *slog.Logger) MapOption {
	return func(opts *mapOptions) {
		opts.logger = logger
	}
}

func WithVerbose(verbose bool) MapOption {
	return func(opts *mapOptions) {
		opts.verbose = verbose
	}
}

// WithStrictMode makes NewMap fail on entities which can't be connected to lanes instead of skipping them
func WithStrictMode(strictMode bool) MapOption {
	return func(opts *mapOptions) {
		opts.strictMap = strictMode
	}
}
