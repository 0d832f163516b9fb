package analysis

import (
	"log"

	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// TranslationUnit bundles one analyzed translation unit: the frozen
// parse state and the analysis result.
type TranslationUnit struct {
	SM       *source.SourceManager
	Main     *source.File
	Context  *AnalysisContext
	Recorder *Recorder
	Result   *Result
}

// Config is the complete analysis configuration of one run.
type Config struct {
	Policy  Policy
	Stdlib  bool
	Options Options
}

// AnalyzeSource parses content as the main file named filename,
// resolving includes through resolver, and runs the analyzer over the
// recorded state.
//
// The record phase is serial with the parse; the analyze phase is a
// pure function of the frozen recorder. Analysis never fails: code the
// frontend cannot make sense of is skipped and the remaining references
// are still processed.
func AnalyzeSource(filename, content string, resolver cc.FileResolver, cfg Config) *TranslationUnit {
	sm := source.NewSourceManager()
	main := sm.AddFile(filename, content)

	pp := cc.NewPreprocessor(sm, resolver, nil)
	ctx := NewAnalysisContext(cfg.Policy, cfg.Stdlib, sm, pp)
	rec := NewRecorder(ctx)
	pp.SetCallbacks(rec)

	toks := pp.Preprocess(main)
	parser := cc.NewParser(sm, toks, rec.TopLevelDecl)
	parser.ParseTranslationUnit()

	log.Printf("analysis: %s: %d includes, %d top-level decls, %d macro refs",
		filename, len(rec.Includes.All()), len(rec.Roots), len(rec.MacroRefs))

	return &TranslationUnit{
		SM:       sm,
		Main:     main,
		Context:  ctx,
		Recorder: rec,
		Result:   Analyze(ctx, rec, cfg.Options),
	}
}
