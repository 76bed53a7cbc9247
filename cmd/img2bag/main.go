// img2bag converts directories of images into a ROS 2 bag, pairing every
// image with a synthesized camera info message.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/tstromberg/img2bag/pkg/bag"
	"github.com/tstromberg/img2bag/pkg/img2bag"
)

var version = "dev"

func main() {
	klog.InitFlags(nil)

	// An interrupted bag is left unfinalized.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr)
		klog.Flush()
		os.Exit(1)
	}()

	err := newApp().Run(os.Args)
	klog.Flush()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	red, reset := "", ""
	if isatty.IsTerminal(os.Stderr.Fd()) {
		red, reset = "\033[91m", "\033[0m"
	}
	fmt.Fprintf(os.Stderr, "%sError:%s %v\n", red, reset, err)
}

func newApp() *cli.App {
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}

	return &cli.App{
		Name:            "img2bag",
		Usage:           "convert image directories into a ROS 2 bag",
		Version:         version,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML, JSON or TOML file with default values for the flags below",
			},
			&cli.StringSliceFlag{
				Name:    "directories",
				Aliases: []string{"d"},
				Usage:   "directories containing images, one per topic",
			},
			&cli.StringSliceFlag{
				Name:    "topics",
				Aliases: []string{"t"},
				Usage:   "image topics, paired with --directories by position",
			},
			&cli.StringFlag{
				Name:    "camera-info-topic",
				Aliases: []string{"c"},
				Value:   img2bag.DefaultCameraInfoTopic,
				Usage:   "camera info topic name, relative to each frame id",
			},
			&cli.StringFlag{
				Name:    "image-size",
				Aliases: []string{"s"},
				Usage:   `resize to "WIDTH" (keep aspect ratio), "WIDTHxHEIGHT" or "WIDTH,HEIGHT"`,
			},
			&cli.Int64Flag{
				Name:        "timestamp",
				Aliases:     []string{"ts"},
				Usage:       "starting Unix timestamp in seconds",
				DefaultText: "now",
			},
			&cli.Float64Flag{
				Name:    "rate",
				Aliases: []string{"r"},
				Value:   1.0,
				Usage:   "playback rate of the image topics in Hz",
			},
			&cli.BoolFlag{
				Name:    "recursive-dirs",
				Aliases: []string{"rd"},
				Usage:   "search directories recursively",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "bag directory to create",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(bag.MCAP),
				Usage:   fmt.Sprintf("storage format, one of %v", bag.Formats),
			},
			&cli.IntFlag{
				Name:  "v",
				Usage: "log verbosity",
			},
		},
		Action: convert,
	}
}

func convert(c *cli.Context) error {
	if err := flag.Set("v", strconv.Itoa(c.Int("v"))); err != nil {
		return fmt.Errorf("set verbosity: %w", err)
	}

	cfg, output, err := options(c)
	if err != nil {
		return err
	}

	cv, err := img2bag.New(cfg)
	if err != nil {
		return err
	}

	s, err := cv.Convert(output)
	if err != nil {
		return err
	}

	klog.Infof("Wrote %d images to %d topics, skipped %d files", s.Written(), len(s.Topics), s.Skipped())
	return nil
}

// options merges flags over the --config file. Unset values get their
// defaults here, including the start time.
func options(c *cli.Context) (img2bag.Config, string, error) {
	fc := &fileConfig{}
	if p := c.String("config"); p != "" {
		var err error
		fc, err = loadConfigFile(p)
		if err != nil {
			return img2bag.Config{}, "", fmt.Errorf("config: %w", err)
		}
	}

	str := func(name string, fv string) string {
		if c.IsSet(name) || fv == "" {
			return c.String(name)
		}
		return fv
	}
	list := func(name string, fv []string) []string {
		if c.IsSet(name) || len(fv) == 0 {
			return splitList(c.StringSlice(name))
		}
		return splitList(fv)
	}

	cfg := img2bag.Config{
		Directories:     list("directories", fc.Directories),
		Topics:          list("topics", fc.Topics),
		CameraInfoTopic: str("camera-info-topic", fc.CameraInfoTopic),
		Recursive:       c.Bool("recursive-dirs") || (!c.IsSet("recursive-dirs") && fc.RecursiveDirs),
	}

	format, err := bag.ParseFormat(str("format", fc.Format))
	if err != nil {
		return cfg, "", &img2bag.ConfigError{Field: "format", Msg: err.Error()}
	}
	cfg.Format = format

	if s := str("image-size", fc.ImageSize); s != "" {
		cfg.ImageSize, err = img2bag.ParseSize(s)
		if err != nil {
			return cfg, "", &img2bag.ConfigError{Field: "image-size", Msg: err.Error()}
		}
	}

	cfg.Rate = c.Float64("rate")
	if !c.IsSet("rate") && fc.Rate != 0 {
		cfg.Rate = fc.Rate
	}

	start := time.Now().Unix()
	switch {
	case c.IsSet("timestamp"):
		start = c.Int64("timestamp")
	case fc.Timestamp != 0:
		start = fc.Timestamp
	}
	cfg.Start = float64(start)

	output := str("output", fc.Output)
	if output == "" {
		return cfg, "", &img2bag.ConfigError{Field: "output", Msg: "an output path is required"}
	}
	output, err = filepath.Abs(output)
	if err != nil {
		return cfg, "", fmt.Errorf("output: %w", err)
	}

	return cfg, output, nil
}
