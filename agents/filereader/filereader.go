// Package filereader is the file ingestion sub-agent: it extracts text from
// the request's input files (PDF, DOCX, plain text) and summarizes it into
// the description field.
package filereader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/structured"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// ErrNoContent is returned when no input file yields text.
var ErrNoContent = errors.New("filereader: no readable content")

// ErrOutsideRoot is returned for paths that leave the configured root.
var ErrOutsideRoot = errors.New("filereader: path outside documents root")

// Extracted holds the concatenated text of the input files.
var Extracted = workflow.ReplaceKey("extracted_text", "")

// Schema is the file reader graph state.
var Schema = workflow.MustSchema(append(nodes.Fields(), Extracted)...)

// DefaultMaxChars bounds the text sent to the summarizer.
const DefaultMaxChars = 20000

const summaryPrompt = `당신은 금융 백오피스 고객 지원 담당자입니다.
고객이 보낸 첨부 문서의 내용을 읽고, 고객 요청과 관련된 핵심 내용을 한국어로 간결하게 요약하세요.
문서에 요청 사항(변경 대상, 변경 내용, 회사명 등)이 있으면 빠짐없이 포함하세요.`

// Option configures the file reader.
type Option func(*Agent)

// WithRoot resolves relative input paths against dir and rejects any path
// that leaves it.
func WithRoot(dir string) Option {
	return func(a *Agent) { a.root = dir }
}

// WithExtractor registers e for a file extension such as ".hwp".
func WithExtractor(ext string, e Extractor) Option {
	return func(a *Agent) { a.extractors[strings.ToLower(ext)] = e }
}

// WithReadFile replaces os.ReadFile.
func WithReadFile(fn func(path string) ([]byte, error)) Option {
	return func(a *Agent) { a.readFile = fn }
}

// WithMaxChars bounds the extracted text passed to the model.
func WithMaxChars(n int) Option {
	return func(a *Agent) { a.maxChars = n }
}

// WithGraphOptions passes options to the underlying graph.
func WithGraphOptions(opts ...workflow.Option) Option {
	return func(a *Agent) { a.graphOpts = append(a.graphOpts, opts...) }
}

// Agent is the file reader sub-agent.
type Agent struct {
	env        nodes.Env
	root       string
	extractors map[string]Extractor
	readFile   func(path string) ([]byte, error)
	maxChars   int
	graphOpts  []workflow.Option
	graph      *workflow.Graph
}

var _ workflow.SubAgent = (*Agent)(nil)

// New builds the file reader graph.
func New(env nodes.Env, opts ...Option) *Agent {
	a := &Agent{
		env:        env,
		extractors: DefaultExtractors(),
		readFile:   os.ReadFile,
		maxChars:   DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(a)
	}
	root := workflow.NewChain("filereader",
		workflow.NewNode("extract", a.extract),
		workflow.NewNode("summarize", a.summarize),
	)
	a.graph = workflow.NewGraph("filereader", Schema, root, a.graphOpts...)
	return a
}

// Graph implements workflow.SubAgent.
func (a *Agent) Graph() *workflow.Graph { return a.graph }

// ProjectInput carries the conversation and file paths.
func (a *Agent) ProjectInput(outer *workflow.State) workflow.Update {
	u := workflow.With(nil, nodes.Messages, workflow.Get(outer, nodes.Messages))
	return workflow.With(u, nodes.InputFilepaths, workflow.Get(outer, nodes.InputFilepaths))
}

// ProjectOutput returns the summary as description.
func (a *Agent) ProjectOutput(inner *workflow.State) workflow.Update {
	return workflow.With(nil, nodes.Description, workflow.Get(inner, nodes.Description))
}

// Read extracts the text of one file.
func (a *Agent) Read(path string) (string, error) {
	e, err := extractorFor(a.extractors, path)
	if err != nil {
		return "", err
	}
	path, err = a.resolve(path)
	if err != nil {
		return "", err
	}
	content, err := a.readFile(path)
	if err != nil {
		return "", err
	}
	return e.Extract(content)
}

func (a *Agent) resolve(path string) (string, error) {
	if a.root == "" {
		return path, nil
	}
	root, err := filepath.Abs(a.root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, path)
	}
	return path, nil
}

func (a *Agent) extract(ctx context.Context, s *workflow.State) (workflow.Update, error) {
	paths := workflow.Get(s, nodes.InputFilepaths)
	var (
		b    strings.Builder
		errs []error
	)
	for _, path := range paths {
		text, err := a.Read(path)
		if err != nil {
			a.env.Log().Warn("skipping unreadable file", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[파일: %s]\n%s\n\n", filepath.Base(path), text)
	}
	if b.Len() == 0 {
		return nil, errors.Join(append([]error{ErrNoContent}, errs...)...)
	}

	text := strings.TrimSpace(b.String())
	if r := []rune(text); a.maxChars > 0 && len(r) > a.maxChars {
		text = string(r[:a.maxChars])
	}
	return workflow.With(nil, Extracted, text), nil
}

func (a *Agent) summarize(ctx context.Context, s *workflow.State) (workflow.Update, error) {
	input := "[문서 내용]\n" + workflow.Get(s, Extracted)
	if msg := nodes.Latest(s); msg != "" {
		input = "[고객 메시지]\n" + msg + "\n\n" + input
	}
	msgs := []ai.Message{
		ai.SystemMessage(summaryPrompt),
		ai.UserMessage(input),
	}
	summary, err := structured.Text(ctx, a.env.Model, msgs, a.env.ChatOptions...)
	if err != nil {
		return nil, err
	}
	return workflow.With(nil, nodes.Description, summary), nil
}
