package main

import (
	"os"

	"github.com/achilleasa/dynbvh/cmd"
	"github.com/achilleasa/dynbvh/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "dynbvh"
	app.Usage = "compile triangle scenes into GPU-friendly BVH data"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile text scene representation into a binary compressed format",
			Description: `
Parse a scene definition from a wavefront obj file, incrementally build a BVH
tree over the scene triangles and package the flattened tree, triangles and
materials in a GPU-friendly format.

The optimized scene data is then written to a zip archive. Multiple scene
files are compiled concurrently.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out-dir, o",
					Usage: "write compiled scenes to this folder instead of next to their sources",
				},
			},
			Action: cmd.CompileScene,
		},
		{
			Name:  "tree",
			Usage: "dump the BVH tree of a scene",
			Description: `
Rebuild the BVH tree for a wavefront obj or compiled zip scene and print an
indented representation of its nodes followed by tree statistics.`,
			ArgsUsage: "scene_file.(obj|zip)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "max-leaves",
					Value: 4096,
					Usage: "refuse to dump trees with more leaves than this value; 0 disables the check",
				},
			},
			Action: cmd.DumpTree,
		},
		{
			Name:      "stats",
			Usage:     "display scene statistics",
			ArgsUsage: "scene_file.(obj|zip)",
			Action:    cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("dynbvh").Error(err.Error())
		os.Exit(1)
	}
}
