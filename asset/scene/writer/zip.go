package writer

import (
	"archive/zip"
	"encoding/gob"
	"os"
	"time"

	"github.com/achilleasa/dynbvh/asset/scene"
	"github.com/achilleasa/dynbvh/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	dataFile = "scene.bin"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) (err error) {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, zipFile.Close())
	}()

	// Create zip writer
	zw := zip.NewWriter(zipFile)
	defer func() {
		err = multierr.Append(err, zw.Close())
	}()

	// Write scene data
	cw, err := zw.Create(dataFile)
	if err != nil {
		return err
	}
	encoder := gob.NewEncoder(cw)
	err = encoder.Encode(sc)
	if err != nil {
		return errors.Wrapf(err, "zipSceneWriter: could not encode %s", dataFile)
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
