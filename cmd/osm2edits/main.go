package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/LdDl/osm2edits"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	mapFileName string
	cityName    string
	mapName     string
	wgs84       bool
	configFile  string
	editsDir    string
	verbose     bool
	geomFormat  string
	outFileName string
	strictMode  bool

	rootCmd = &cobra.Command{
		Use:   "osm2edits",
		Short: "Applies saved edits to a road network and reports what changed",
		Long: `osm2edits builds lanes, intersections and turns from a GeoJSON road network,
then applies saved proposals of edits to it.`,
		SilenceUsage: true,
	}
	applyCmd = &cobra.Command{
		Use:   "apply [edits file]",
		Short: "Applies edits and exports changed roads and intersections",
		Args:  cobra.ExactArgs(1),
		RunE:  runApply,
	}
	compressCmd = &cobra.Command{
		Use:   "compress [edits file]",
		Short: "Applies edits and saves them compressed into the edits directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompress,
	}
	checksumCmd = &cobra.Command{
		Use:   "checksum [edits file]",
		Short: "Prints checksum of edits resolved against the map",
		Args:  cobra.ExactArgs(1),
		RunE:  runChecksum,
	}
	describeCmd = &cobra.Command{
		Use:   "describe [edits file]",
		Short: "Lists commands of edits",
		Args:  cobra.ExactArgs(1),
		RunE:  runDescribe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&mapFileName, "map", "map.geojson", "Filename of GeoJSON road network")
	rootCmd.PersistentFlags().StringVar(&cityName, "city", "city", "Name of the city")
	rootCmd.PersistentFlags().StringVar(&mapName, "name", "map", "Name of the map within the city")
	rootCmd.PersistentFlags().BoolVar(&wgs84, "wgs84", false, "Coordinates are longitude/latitude and must be projected")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file with map config")
	rootCmd.PersistentFlags().StringVar(&editsDir, "edits-dir", "edits", "Root directory for saved edits")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "Fail on buildings and stops which can't be connected")
	applyCmd.Flags().StringVar(&geomFormat, "geomf", "wkt", "Format of output geometry. Expected values: wkt / geojson")
	applyCmd.Flags().StringVar(&outFileName, "out", "", "Output file. Standard output if empty")
	rootCmd.AddCommand(applyCmd, compressCmd, checksumCmd, describeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func prepareMap() (*osm2edits.Map, error) {
	st := time.Now()
	cfg := osm2edits.DefaultMapConfig()
	if configFile != "" {
		var err error
		cfg, err = osm2edits.LoadMapConfig(configFile)
		if err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(mapFileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read map file")
	}
	raw, err := osm2edits.RawMapFromGeoJSON(data, osm2edits.MapName{City: cityName, Map: mapName}, wgs84)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	m, err := osm2edits.NewMap(raw,
		osm2edits.WithConfig(cfg),
		osm2edits.WithEditsDir(editsDir),
		osm2edits.WithLogger(logger),
		osm2edits.WithVerbose(verbose),
		osm2edits.WithStrictMode(strictMode),
	)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Map '%s' is prepared. Done in %v\n", m.Name(), time.Since(st))
	}
	return m, nil
}

func prepareEdits(fname string) (*osm2edits.Map, *osm2edits.MapEdits, error) {
	m, err := prepareMap()
	if err != nil {
		return nil, nil, err
	}
	edits, err := osm2edits.LoadEditsFromFile(m, fname)
	if err != nil {
		return nil, nil, err
	}
	return m, edits, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	m, edits, err := prepareEdits(args[0])
	if err != nil {
		return err
	}
	effects := m.MustApplyEdits(edits)
	if err := m.RecalculatePathfindingAfterEdits(); err != nil {
		return err
	}
	var output []byte
	switch strings.ToLower(geomFormat) {
	case "wkt":
		output = []byte(osm2edits.EffectsToWKT(m, effects))
	case "geojson":
		output, err = osm2edits.EffectsToGeoJSON(m, effects)
		if err != nil {
			return err
		}
	default:
		return errors.Errorf("Geometry format should be 'wkt' or 'geojson', but got '%s'", geomFormat)
	}
	if outFileName == "" {
		_, err = os.Stdout.Write(output)
		return err
	}
	return os.WriteFile(outFileName, output, 0644)
}

func runCompress(cmd *cobra.Command, args []string) error {
	m, edits, err := prepareEdits(args[0])
	if err != nil {
		return err
	}
	m.MustApplyEdits(edits)
	if err := m.SaveEdits(); err != nil {
		return err
	}
	fmt.Printf("Saved to '%s'\n", m.EditsPath(edits.EditsName))
	return nil
}

func runChecksum(cmd *cobra.Command, args []string) error {
	m, edits, err := prepareEdits(args[0])
	if err != nil {
		return err
	}
	checksum, err := edits.GetChecksum(m)
	if err != nil {
		return err
	}
	fmt.Println(checksum)
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	m, edits, err := prepareEdits(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d commands)\n", edits.GetTitle(), len(edits.Commands))
	for _, editCmd := range edits.Commands {
		summary, details := editCmd.Describe(m)
		if len(details) == 0 {
			fmt.Printf("\t%s\n", summary)
			continue
		}
		fmt.Printf("\t%s: %s\n", summary, strings.Join(details, ", "))
	}
	return nil
}
