package main

import (
	"context"
	"time"

	"pymigrate/internal/acquisition"
	"pymigrate/internal/adapters"
	"pymigrate/internal/config"
	"pymigrate/internal/engine"
	"pymigrate/internal/knowledge"
	"pymigrate/internal/logging"
	"pymigrate/internal/patchstore"
	"pymigrate/internal/scanner"
	"pymigrate/internal/transform"
)

// buildEngine wires the full collaborator graph for one CLI invocation:
// the on-disk patch store, the acquisition pipeline backed by its three
// caches, the HTTP-backed source fetcher / extraction oracle / rewrite
// oracle (all disabled gracefully if no API key is configured), and the
// Tier-1 transformer registry.
func buildEngine(cfg *config.Config, logger *logging.Logger) (*engine.Engine, *patchstore.Store, error) {
	store, err := patchstore.Open(projectRootFlag)
	if err != nil {
		return nil, nil, err
	}

	cache, err := acquisition.OpenCache(store.CacheDir())
	if err != nil {
		return nil, nil, err
	}
	negative, err := acquisition.OpenNegativeCache(store.CacheDir() + "/negative.db")
	if err != nil {
		return nil, nil, err
	}
	docs, err := acquisition.OpenDocumentCache(store.CacheDir())
	if err != nil {
		return nil, nil, err
	}

	apiKey := oracleAPIKeyFromEnv()
	quota := adapters.NewQuotaGate(apiKey, 60)
	timeout := time.Duration(cfg.Engine.OracleTimeoutMs) * time.Millisecond
	baseURL := oracleBaseURLFromEnv()

	fetcher := adapters.NewHTTPSourceFetcher(baseURL, timeout, quota)
	extractor := adapters.NewHTTPExtractionOracle(baseURL, timeout, quota)
	pipeline := acquisition.New(fetcher, extractor, cache, negative, docs, logger)

	var rewriteOracle engine.RewriteOracle
	if apiKey != "" {
		rewriteOracle = adapters.NewHTTPRewriteOracle(baseURL, timeout, quota)
	}

	eng := engine.New(&cfg.Engine, transform.Registry(), pipeline, rewriteOracle, logger)
	return eng, store, nil
}

// mustOpenStore opens the project's .pymigrate patch store or exits with
// a diagnostic.
func mustOpenStore() *patchstore.Store {
	store, err := patchstore.Open(projectRootFlag)
	if err != nil {
		fail("failed to open patch store: %v", err)
	}
	return store
}

// resolveVersions determines the (from, to) version pair for each
// requested library: an explicit override from .pymigrate-overrides.toml
// wins; otherwise from comes from the project's declared dependency
// constraint and to comes from the PyPI version resolver.
func resolveVersions(ctx context.Context, libraries []string) map[string]engine.VersionPair {
	overrides, _ := adapters.LoadVersionOverrides(projectRootFlag)
	deps, _ := adapters.NewDependencyLister().List(projectRootFlag)
	depByName := map[string]adapters.Dependency{}
	for _, d := range deps {
		depByName[d.Name] = d
	}
	resolver := adapters.NewVersionResolver()

	out := make(map[string]engine.VersionPair, len(libraries))
	for _, lib := range libraries {
		if o, ok := overrides[lib]; ok {
			out[lib] = engine.VersionPair{From: o.From, To: o.To}
			continue
		}
		vp := engine.VersionPair{From: depByName[lib].Constraint}
		if latest, err := resolver.Latest(ctx, lib); err == nil {
			vp.To = latest
		}
		out[lib] = vp
	}
	return out
}

// scanProject runs the scanner over projectRootFlag and reports
// diagnostics for any file that couldn't be parsed, without failing the
// whole run.
func scanProject(ctx context.Context, cfg *config.Config, logger *logging.Logger) ([]*scanner.SourceFile, []scanner.FileDiagnostic, error) {
	sc := scanner.New(&cfg.Scanner, logger)
	return sc.Scan(ctx, projectRootFlag)
}

// requestedLibraries returns the libraries to migrate: explicit args if
// given, otherwise every library with a registered Tier-1 transformer
// that the project actually declares a dependency on.
func requestedLibraries(args []string) []string {
	if len(args) > 0 {
		return args
	}
	deps, _ := adapters.NewDependencyLister().List(projectRootFlag)
	var out []string
	registry := transform.Registry()
	for _, d := range deps {
		if _, ok := registry[d.Name]; ok {
			out = append(out, d.Name)
		}
	}
	return out
}

// confidenceLabel renders a knowledge.Confidence for human output.
func confidenceLabel(c knowledge.Confidence) string {
	if c == "" {
		return "medium"
	}
	return string(c)
}
