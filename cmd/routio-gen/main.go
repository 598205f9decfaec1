// Command routio-gen compiles message description files into C++ or
// Python source (§4.7, §6). With no files it reads one description from
// standard input and writes the generated code to standard output.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lukacu/routio/dsl"
	"github.com/lukacu/routio/pkg/worker"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("routio-gen", flag.ContinueOnError)
	lang := fs.String("language", "cpp", "output language: cpp or python")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	language, err := parseLanguage(*lang)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	files := fs.Args()
	if len(files) == 0 {
		return runStdin(language)
	}
	return runFiles(files, language)
}

func parseLanguage(s string) (dsl.Language, error) {
	switch s {
	case "cpp":
		return dsl.LanguageCPP, nil
	case "python":
		return dsl.LanguagePython, nil
	default:
		return "", fmt.Errorf("unknown output language: %s", s)
	}
}

func runStdin(lang dsl.Language) int {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	desc, err := dsl.Parse("input", string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out, err := dsl.Emit(desc, lang)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(out)
	return 0
}

// runFiles compiles each input file independently and in parallel, the way
// a batch of message descriptions in a build tree has no dependency on one
// another. Every file is attempted even if an earlier one fails, so a
// single typo in a large tree doesn't hide failures in the rest of it.
func runFiles(files []string, lang dsl.Language) int {
	workers := len(files)
	if workers > 8 {
		workers = 8
	}

	var (
		mu     sync.Mutex
		failed bool
	)

	pool := worker.NewPool[string](workers, len(files), func(ctx context.Context, filename string) error {
		if err := compileFile(filename, lang); err != nil {
			mu.Lock()
			fmt.Fprintln(os.Stderr, err)
			failed = true
			mu.Unlock()
		}
		return nil
	})

	if err := pool.Start(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, filename := range files {
		if err := pool.Submit(filename); err != nil {
			fmt.Fprintf(os.Stderr, "failed to queue input file: %s: %v\n", filename, err)
			mu.Lock()
			failed = true
			mu.Unlock()
		}
	}
	if err := pool.Stop(30 * time.Second); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if failed {
		return 1
	}
	return 0
}

func compileFile(filename string, lang dsl.Language) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to open input file: %s", filename)
	}
	desc, err := dsl.Parse(filename, string(data))
	if err != nil {
		return err
	}
	out, err := dsl.Emit(desc, lang)
	if err != nil {
		return err
	}
	outFilename := outputFilename(filename, lang)
	if err := os.WriteFile(outFilename, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %s", outFilename)
	}
	return nil
}

func outputFilename(inputFilename string, lang dsl.Language) string {
	base := filepath.Base(inputFilename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(inputFilename)
	switch lang {
	case dsl.LanguagePython:
		return filepath.Join(dir, base+".py")
	default:
		return filepath.Join(dir, base+".cpp")
	}
}
