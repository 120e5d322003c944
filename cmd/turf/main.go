// Package main is the main entrypoint to the turf application
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"github.com/tanema/turffile"
	"github.com/tanema/turffile/src/conf"
	"github.com/tanema/turffile/src/runtime"
	"github.com/tanema/turffile/src/turf"
)

var (
	logger      *log.Logger
	showVersion bool
	executeStat string
	interactive bool
	warningsOn  bool
	autoInit    bool
	configPath  string
	unpackPath  string
	outputTmpl  string
)

func init() {
	flag.BoolVar(&showVersion, "v", false, "show version information")
	flag.StringVar(&executeStat, "e", "", "execute string 'stat'")
	flag.BoolVar(&interactive, "i", false, "enter interactive mode after executing statements")
	flag.BoolVar(&warningsOn, "W", false, "turn debug logging on")
	flag.BoolVar(&autoInit, "r", false, "run init_(require) before any statement")
	flag.StringVar(&configPath, "c", "", "path to a toml config file")
	flag.StringVar(&unpackPath, "u", "", "unpack a packed file and print it as json")
	flag.StringVar(&outputTmpl, "o", "", "output path for packed files, strftime patterns are expanded")
}

func main() {
	if os.Getenv("TURF_PROFILE") != "" {
		defer runProfiling(os.Getenv("TURF_PROFILE"))()
	}
	flag.Usage = printUsage
	flag.Parse()

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "turf"})
	cfg, err := conf.Load(configPath)
	checkErr(err)
	level, err := log.ParseLevel(cfg.LogLevel)
	checkErr(err)
	if warningsOn {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	if outputTmpl != "" {
		cfg.Output = outputTmpl
	}

	opts := []turf.Option{turf.WithByteOrder(byteOrder(cfg.ByteOrder)), turf.WithLogger(logger)}
	args := flag.Args()

	if showVersion {
		printVersion()
	}
	if unpackPath != "" {
		checkErr(unpackFile(unpackPath, os.Stdout, opts))
		return
	} else if len(args) > 0 {
		checkErr(packFiles(args, cfg.Output, time.Now(), opts))
		return
	}

	mod := runtime.New(opts...)
	if autoInit {
		_, err := mod.Call("init_", runtime.Require)
		checkErr(err)
	}
	if stat, _ := os.Stdin.Stat(); (stat.Mode() & os.ModeCharDevice) == 0 {
		checkErr(mod.Run(os.Stdin, os.Stdout))
	} else if executeStat != "" {
		res, err := mod.Exec(executeStat)
		checkErr(err)
		for _, val := range res {
			fmt.Fprintln(os.Stdout, runtime.ToString(val))
		}
		if interactive {
			runREPL(mod)
		}
	} else if !showVersion {
		runREPL(mod)
	}
}

func byteOrder(name string) binary.ByteOrder {
	if name == "big" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// outputPath expands tmpl for the source file src. Besides the strftime
// patterns, %f is the name of src without its extension.
func outputPath(tmpl, src string, now time.Time) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	strf, err := strftime.New(tmpl, strftime.WithSpecification('f', strftime.Verbatim(stem)))
	if err != nil {
		return "", fmt.Errorf("invalid output template '%v': %w", tmpl, err)
	}
	return strf.FormatString(now), nil
}

func packFiles(paths []string, tmpl string, now time.Time, opts []turf.Option) error {
	dests := make([]string, len(paths))
	sources := make(map[string]string, len(paths))
	for i, path := range paths {
		dest, err := outputPath(tmpl, path, now)
		if err != nil {
			return err
		}
		if prev, taken := sources[dest]; taken {
			return fmt.Errorf("%v and %v would both be packed to %v", prev, path, dest)
		}
		sources[dest] = path
		dests[i] = dest
	}
	for i, path := range paths {
		if err := packFile(path, dests[i], opts); err != nil {
			return err
		}
	}
	return nil
}

func packFile(path, dest string, opts []turf.Option) error {
	out, err := turffile.File(path, opts...)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return err
	}
	logger.Info("packed", "src", path, "dest", dest, "bytes", len(out))
	return nil
}

func unpackFile(path string, out io.Writer, opts []turf.Option) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	packer, err := turf.Init(turf.DefaultLoader, opts...)
	if err != nil {
		return err
	}
	shapes, turfs, err := packer.Unpack(data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(turffile.Document{Shapes: shapes, Turfs: turfs})
}

func printVersion() {
	fmt.Fprintf(os.Stderr, "%v\n", conf.FullVersion())
}

func printUsage() {
	printVersion()
	fmt.Fprint(os.Stderr, "\nUsage: turf [options] [file.json ...]\n")
	flag.PrintDefaults()
}

func checkErr(err error) {
	if err != nil {
		if logger != nil {
			logger.Error(err)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

func runREPL(mod *runtime.Module) {
	printVersion()
	fmt.Fprint(os.Stderr, "Press ctrl-c to quit or clear current buffer.\n")
	checkErr(mod.REPL())
}

func runProfiling(filename string) func() {
	f, err := os.Create(filename)
	checkErr(err)
	checkErr(pprof.StartCPUProfile(f))
	return pprof.StopCPUProfile
}
