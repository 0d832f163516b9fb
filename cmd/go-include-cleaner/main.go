package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/jpvetterli/args"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-include-cleaner/internal/analysis"
	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/lsp"
	"github.com/CWBudde/go-include-cleaner/internal/server"
)

const (
	version = "0.1.0"
)

// options collects every command-line parameter.
type options struct {
	help      bool
	satisfied bool
	recover   bool
	stdlib    bool

	construction bool
	members      bool
	operators    bool

	includeDirs []string
	files       []string

	lspMode  bool
	tcpMode  bool
	tcpPort  int64
	logFile  string
}

func defineParams(a *args.Parser, opts *options) {
	a.Doc(
		"go-include-cleaner version "+version,
		"",
		"Reports unused #include directives and unsatisfied references",
		"in C/C++ translation units.",
	)

	a.Def("help", &opts.help).Aka("-help").Aka("--help").Aka("-h").Opt().Doc("print this help")
	a.Def("satisfied", &opts.satisfied).Opt().Doc("also report satisfied references and used includes")
	a.Def("recover", &opts.recover).Opt().Doc("suppress repeated errors for the same missing header")
	a.Def("stdlib", &opts.stdlib).Opt().Doc("enable standard-library analysis")
	a.Def("construction", &opts.construction).Opt().Doc("count un-named constructor calls as references")
	a.Def("members", &opts.members).Opt().Doc("count member accesses as references")
	a.Def("operators", &opts.operators).Opt().Doc("count overloaded operator uses as references")
	a.Def("I", &opts.includeDirs).Opt().Doc("include search directory (repeatable)")
	a.Def("", &opts.files).Opt().Doc("source files to analyze")
	a.Def("lsp", &opts.lspMode).Opt().Doc("run as an LSP server on stdio")
	a.Def("tcp", &opts.tcpMode).Opt().Doc("run the LSP server over TCP (for debugging)")
	a.Def("port", &opts.tcpPort).Opt().Doc("TCP port to listen on (used with tcp)")
	a.Def("log-file", &opts.logFile).Opt().Doc("log file path (default: stderr)")
}

func main() {
	opts := options{recover: true, tcpPort: 8765}

	a := args.NewParser(nil)
	defineParams(a, &opts)

	if err := a.ParseStrings(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error()+" (try help)")
		os.Exit(2)
	}

	if opts.help {
		a.PrintDoc(os.Stdout)
		os.Exit(0)
	}

	setupLogging(opts.logFile)

	cfg := analysis.Config{
		Policy: analysis.Policy{
			Construction: opts.construction,
			Members:      opts.members,
			Operators:    opts.operators,
		},
		Stdlib: opts.stdlib,
		Options: analysis.Options{
			Satisfied: opts.satisfied,
			Recover:   opts.recover,
		},
	}

	if opts.lspMode || opts.tcpMode {
		runLSP(&opts, cfg)
		return
	}

	if len(opts.files) == 0 {
		fmt.Fprintln(os.Stderr, "no input files (try help)")
		os.Exit(2)
	}

	os.Exit(runTool(&opts, cfg))
}

// runTool analyzes every operand file and prints the diagnostics,
// returning the process exit status.
func runTool(opts *options, cfg analysis.Config) int {
	outputs := make([]string, len(opts.files))
	hadError := make([]bool, len(opts.files))

	// Analysis of distinct translation units shares nothing; run them
	// concurrently and print in operand order.
	var g errgroup.Group
	for i, file := range opts.files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				outputs[i] = fmt.Sprintf("%s: error: %v\n", file, err)
				hadError[i] = true
				return nil
			}

			resolver := &cc.PathResolver{
				IncludeDirs: append([]string{dirOf(file)}, opts.includeDirs...),
			}
			tu := analysis.AnalyzeSource(file, string(content), resolver, cfg)
			outputs[i], hadError[i] = renderDiagnostics(tu)
			return nil
		})
	}
	_ = g.Wait()

	status := 0
	for i := range outputs {
		fmt.Print(outputs[i])
		if hadError[i] {
			status = 1
		}
	}
	return status
}

func dirOf(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		return file[:i]
	}
	return "."
}

// renderDiagnostics formats one translation unit's diagnostics for the
// terminal.
func renderDiagnostics(tu *analysis.TranslationUnit) (string, bool) {
	var b strings.Builder
	hadError := false

	diags := make([]analysis.Diagnostic, len(tu.Result.Diagnostics))
	copy(diags, tu.Result.Diagnostics)
	sort.SliceStable(diags, func(i, j int) bool {
		return tu.SM.Line(diags[i].Loc) < tu.SM.Line(diags[j].Loc)
	})

	for _, d := range diags {
		if d.Severity == analysis.SeverityError {
			hadError = true
		}
		fmt.Fprintf(&b, "%s: %s: %s\n", tu.SM.Position(d.Loc), severityName(d.Severity), d.Message)
	}
	return b.String(), hadError
}

func severityName(s analysis.Severity) string {
	switch s {
	case analysis.SeverityError:
		return "error"
	case analysis.SeverityWarning:
		return "warning"
	case analysis.SeverityRemark:
		return "remark"
	case analysis.SeverityNote:
		return "note"
	}
	return "info"
}

// runLSP starts the language server over stdio or TCP.
func runLSP(opts *options, cfg analysis.Config) {
	fmt.Fprintf(os.Stderr, "go-include-cleaner version %s starting...\n", version)
	fmt.Fprintf(os.Stderr, "Transport: ")
	if opts.tcpMode {
		fmt.Fprintf(os.Stderr, "TCP (port %d)\n", opts.tcpPort)
	} else {
		fmt.Fprintf(os.Stderr, "STDIO\n")
	}

	srv := server.New(&server.Config{
		IncludeDirs: opts.includeDirs,
		Analysis:    cfg,
	})

	handler := protocol.Handler{
		Initialize:            lsp.Initialize,
		Initialized:           lsp.Initialized,
		Shutdown:              lsp.Shutdown,
		TextDocumentDidOpen:   lsp.DidOpen,
		TextDocumentDidChange: lsp.DidChange,
		TextDocumentDidClose:  lsp.DidClose,
		TextDocumentCodeAction: lsp.CodeAction,
		SetTrace: func(context *glsp.Context, params *protocol.SetTraceParams) error { return nil },
	}

	glspServer := glspserver.NewServer(&handler, lsp.SourceName, false)

	lsp.SetServer(srv)

	if opts.tcpMode {
		fmt.Fprintf(os.Stderr, "Starting TCP server on port %d...\n", opts.tcpPort)
		if err := glspServer.RunTCP(fmt.Sprintf("127.0.0.1:%d", opts.tcpPort)); err != nil {
			log.Fatalf("TCP server error: %v", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Starting STDIO server...\n")
		if err := glspServer.RunStdio(); err != nil {
			log.Fatalf("STDIO server error: %v", err)
		}
	}
}

// setupLogging configures the logging system based on command-line flags.
func setupLogging(logFile string) {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		log.SetOutput(f)
	} else {
		log.SetOutput(os.Stderr)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
