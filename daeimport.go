package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mogaika/daeimport/config"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/importer"
	"github.com/mogaika/daeimport/report"
	"github.com/mogaika/daeimport/utils"
	"github.com/mogaika/daeimport/utils/gltfutils"
	"github.com/mogaika/daeimport/web"
)

func main() {
	var input, output, optsPath, reportPath, addr string
	var dump, verbose bool
	flag.StringVar(&input, "i", "", "COLLADA document to import")
	flag.StringVar(&output, "o", "", "Output glb path, defaults to the input name with .glb")
	flag.StringVar(&optsPath, "opts", "", "YAML import options")
	flag.StringVar(&reportPath, "report", "", "Write an html import report")
	flag.BoolVar(&dump, "dump", false, "Dump the imported collection")
	flag.StringVar(&addr, "web", "", "Address of conversion server, e.g. :8000")
	flag.BoolVar(&verbose, "v", false, "Verbose diagnostics")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if addr != "" {
		if err := web.StartServer(addr); err != nil {
			logger.Fatal(err)
		}
		return
	}
	if input == "" {
		flag.PrintDefaults()
		return
	}

	opts := config.DefaultImportOptions()
	if optsPath != "" {
		var err error
		if opts, err = config.LoadImportOptions(optsPath); err != nil {
			logger.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	diags := diag.NewLog()
	sink := diag.Tee(diags, diag.NewLogrusSink(logger.WithField("file", filepath.Base(input))))

	var progressLock sync.Mutex
	lastStep := -1
	progress := func(p float32) {
		progressLock.Lock()
		defer progressLock.Unlock()
		if step := int(p * 10); step > lastStep {
			lastStep = step
			logger.Debugf("Import %d%%", step*10)
		}
	}

	col, err := importer.Import(ctx, input, opts, progress, sink)
	if err != nil {
		logger.Fatalf("Import failed: %v", err)
	}
	logger.Infof("Imported %d meshes with %d diagnostics", col.SubMeshCount(), diags.Len())

	if dump {
		utils.Dump(col)
	}

	if reportPath != "" {
		html, err := report.HTML(col, diags.Records())
		if err != nil {
			logger.Fatal(err)
		}
		if err := os.WriteFile(reportPath, html, 0666); err != nil {
			logger.Fatalf("Failed to write report: %v", err)
		}
	}

	doc, err := gltfutils.ExportCollection(col, sink)
	if err != nil {
		logger.Fatalf("Export failed: %v", err)
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".glb"
	}
	f, err := os.Create(output)
	if err != nil {
		logger.Fatalf("Failed to create %q: %v", output, err)
	}
	defer f.Close()
	if err := gltfutils.ExportBinary(f, doc); err != nil {
		logger.Fatalf("Failed to write %q: %v", output, err)
	}
	logger.Infof("Saved %s", output)
}
