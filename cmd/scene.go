package cmd

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/achilleasa/dynbvh/asset/scene/reader"
	"github.com/achilleasa/dynbvh/asset/scene/writer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

// Compile scene to binary format.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing scene files")
	}

	sceneFiles := make([]string, 0, ctx.NArg())
	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}
		sceneFiles = append(sceneFiles, sceneFile)
	}

	return compileScenes(context.Background(), sceneFiles, ctx.String("out-dir"))
}

// Compile each scene file in its own goroutine. The first failure cancels
// any compilations that have not started yet.
func compileScenes(ctx context.Context, sceneFiles []string, outDir string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, sceneFile := range sceneFiles {
		sceneFile := sceneFile
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			logger.Noticef("parsing and compiling scene: %s", sceneFile)
			sc, err := reader.ReadScene(sceneFile)
			if err != nil {
				return errors.Wrap(err, sceneFile)
			}

			// Display compiled scene info
			logger.Noticef("scene information for %s:\n%s", sceneFile, sc.Stats())

			return writer.WriteScene(sc, zipFileFor(sceneFile, outDir))
		})
	}

	return g.Wait()
}

// Get the path of the compiled archive for a scene file.
func zipFileFor(sceneFile, outDir string) string {
	zipFile := strings.TrimSuffix(sceneFile, ".obj") + ".zip"
	if outDir != "" {
		zipFile = filepath.Join(outDir, filepath.Base(zipFile))
	}
	return zipFile
}

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return nil
}
