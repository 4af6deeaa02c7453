package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"go.uber.org/multierr"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/config"
	"github.com/pipe01/sassy/sass"
)

var (
	styleSet, outDirSet, indentedSet, seedSet bool

	styleName  = kingpin.Flag("style", "Output style").Default("expanded").IsSetByUser(&styleSet).Enum("expanded", "compressed")
	outDir     = kingpin.Flag("out-dir", "Folder to put compiled files on").Short('o').Default(".").IsSetByUser(&outDirSet).String()
	loadPaths  = kingpin.Flag("load-path", "Folder to search for imports, may be repeated").Short('I').Strings()
	indented   = kingpin.Flag("indented", "Read every input as indented syntax").IsSetByUser(&indentedSet).Bool()
	seed       = kingpin.Flag("seed", "Seed for random() and unique-id()").IsSetByUser(&seedSet).Int64()
	watch      = kingpin.Flag("watch", "Watch files for changes and recompile automatically").Short('w').Bool()
	toStdout   = kingpin.Flag("stdout", "Print compiled CSS instead of writing files").Bool()
	configPath = kingpin.Flag("config", "YAML or JSONC file with default options").ExistingFile()
	verbose    = kingpin.Flag("verbose", "Log more, may be repeated").Short('v').Counter()
	patterns   = kingpin.Arg("files", "Files or glob patterns to compile").Required().Strings()

	log = commonlog.GetLogger("sassy")
)

func main() {
	kingpin.Parse()

	commonlog.Configure(2+*verbose, nil)

	if *configPath != "" {
		if err := applyConfig(*configPath); err != nil {
			kingpin.Fatalf("%s", err)
		}
	}

	*outDir, _ = filepath.Abs(*outDir)

	files, err := expandInputs(*patterns)
	if err != nil {
		kingpin.Fatalf("%s", err)
	}

	if *watch {
		err := watchFiles(files)
		if err != nil {
			kingpin.Fatalf("failed to watch files: %s", err)
		}
	} else {
		err := compileAll(files)
		if err != nil {
			kingpin.Fatalf("%d of %d files failed to compile", len(multierr.Errors(err)), len(files))
		}
	}
}

// applyConfig fills in every option that wasn't given on the command line.
func applyConfig(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if cfg.Style != "" && !styleSet {
		if _, err := sass.ParseStyle(cfg.Style); err != nil {
			return fmt.Errorf("config %q: %w", path, err)
		}
		*styleName = cfg.Style
	}
	if cfg.OutDir != "" && !outDirSet {
		*outDir = cfg.OutDir
	}
	if !indentedSet {
		*indented = cfg.Indented
	}
	if cfg.Seed != nil && !seedSet {
		*seed = *cfg.Seed
		seedSet = true
	}

	*loadPaths = append(*loadPaths, cfg.LoadPaths...)
	return nil
}

// expandInputs resolves glob patterns into a sorted list of files. Partials,
// whose names start with an underscore, are only compiled through imports.
func expandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}

		for _, m := range matches {
			if strings.HasPrefix(filepath.Base(m), "_") {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}

			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	sort.Sort(natural.StringSlice(files))
	return files, nil
}

func compileOptions() sass.Options {
	style, _ := sass.ParseStyle(*styleName)

	opts := sass.Options{
		Style:    style,
		Resolver: &sass.DirResolver{LoadPaths: *loadPaths},
	}
	if *indented {
		opts.Syntax = sass.SyntaxIndented
	}
	if seedSet {
		opts.Rand = rand.New(rand.NewSource(*seed))
	}

	return opts
}

// compileAll compiles every file, carrying on past failures. The returned
// error holds one entry per failed file.
func compileAll(files []string) (err error) {
	for _, fname := range files {
		if _, ferr := compileFile(fname); ferr != nil {
			report(ferr)
			err = multierr.Append(err, ferr)
		}
	}

	return err
}

// compileFile compiles fname and writes the result, returning the files it
// imported.
func compileFile(fname string) (imports []string, err error) {
	res, err := sass.CompileFile(fname, compileOptions())
	if err != nil {
		return nil, err
	}

	if *toStdout {
		if _, err := os.Stdout.WriteString(res.CSS); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
		return res.Imports, nil
	}

	base := filepath.Base(fname)
	outPath := filepath.Join(*outDir, strings.TrimSuffix(base, filepath.Ext(base))+".css")

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(res.CSS), 0o644); err != nil {
		return nil, fmt.Errorf("write output file: %w", err)
	}

	log.Infof("compiled %s to %s", fname, outPath)
	return res.Imports, nil
}

// report logs err together with the line of source it points at.
func report(err error) {
	var cerr *serrors.CompileError
	if !errors.As(err, &cerr) || cerr.File == "" || cerr.Line == 0 {
		log.Error(err.Error())
		return
	}

	src, rerr := os.ReadFile(cerr.File)
	if rerr != nil {
		log.Error(err.Error())
		return
	}

	_, _, context := parse.Position(bytes.NewReader(src), cerr.Offset)
	log.Errorf("%s\n%s", err, context)
}

func watchFiles(files []string) error {
	watcher, err := NewWatcher(compileFile)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, f := range files {
		if err := watcher.Add(f); err != nil {
			return fmt.Errorf("watch file %q: %w", f, err)
		}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	log.Notice("watching files for changes...")

	<-ch
	return nil
}
