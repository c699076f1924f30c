// Command staticlint is the static analysis binary of the users service.
//
// It runs, through a single multichecker.Main invocation:
//   - a fixed set of analyzers from golang.org/x/tools;
//   - the ineffassign and nilerr third-party analyzers;
//   - the project noosexit analyzer (no os.Exit in main.main);
//   - the staticcheck analyzers listed in config.json.
//
// config.json is looked up next to the executable unless the
// STATICLINT_CONFIG environment variable points elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/usersvc/cmd/staticlint/noosexit"
)

const configFileName = `config.json`

type configData struct {
	Staticcheck []string
}

func loadConfig() (configData, error) {
	path := os.Getenv("STATICLINT_CONFIG")
	if path == "" {
		appfile, err := os.Executable()
		if err != nil {
			return configData{}, err
		}
		path = filepath.Join(filepath.Dir(appfile), configFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return configData{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return configData{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

func analyzers(cfg configData) []*analysis.Analyzer {
	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer, // unclosed response bodies in the router tests
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
	}

	enabled := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}

	for _, v := range staticcheck.Analyzers {
		if enabled[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	return checks
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	multichecker.Main(analyzers(cfg)...)
}
