// mtconv is a CLI utility for inspecting and converting skinned 3D models.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/modelkit/internal/config"
	"github.com/Faultbox/modelkit/internal/logger"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	case "formats":
		cmdFormats()
		return
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fail(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}
	defer logger.Sync()

	app := &app{cfg: cfg, out: newPrinter(os.Stdout)}
	switch command {
	case "info":
		err = app.cmdInfo(args)
	case "convert", "c":
		err = app.cmdConvert(args)
	case "merge":
		err = app.cmdMerge(args)
	case "strips":
		err = app.cmdStrips(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Sync()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`mtconv - skinned model converter

Usage:
  mtconv [flags] <command> [args]

Commands:
  info <model>                 Show joints, meshes, materials and bounds
  convert <in> <out>           Convert a model, keeping its skeleton
  merge <out> <in> [in...]     Combine several models into one scene (no skeleton)
  strips <model> [mesh]        Show triangle strips built for each mesh
  formats                      List format ids and codec support

Flags:`)
	flag.PrintDefaults()
	fmt.Println(`
Examples:
  mtconv info hero.glb
  mtconv convert hero.obj hero.glb
  mtconv -format stlb convert hero.glb hero.stl
  mtconv merge props.gltf tree.obj rock.obj`)
}
