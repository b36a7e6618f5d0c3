// Package shell implements the interactive query editor behind `firefly shell`.
//
// The shell edits the query of a browser.Model one command at a time and runs
// fetches in the background, so a long enrichment pass can be cancelled or
// superseded from the prompt. Line editing lives in the cmd layer; this package
// only parses and executes command lines.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pterm/pterm"

	"firefly/cli/internal/browser"
	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/logging"
	"firefly/cli/internal/render"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

type command struct {
	name  string
	usage string
	help  string
	run   func(s *Shell, args string) error
}

var commands []command

func init() {
	commands = []command{
		{"add", "add <attribute> <op> <value>", "append a clause", (*Shell).add},
		{"edit", "edit <id> attr|op|value <new>", "change one field of a clause", (*Shell).edit},
		{"rm", "rm <id>", "remove a clause", (*Shell).remove},
		{"clear", "clear", "remove every clause", (*Shell).clear},
		{"list", "list", "show the query", (*Shell).list},
		{"fetch", "fetch", "run the query in the background", (*Shell).fetch},
		{"cancel", "cancel", "cancel the running fetch", (*Shell).cancel},
		{"show", "show [limit]", "print the fetched domains", (*Shell).show},
		{"attrs", "attrs", "list the queryable attributes", (*Shell).attrs},
		{"status", "status", "show fetch progress", (*Shell).status},
		{"help", "help", "show this help", (*Shell).help},
		{"quit", "quit", "leave the shell", func(*Shell, string) error { return ErrQuit }},
	}
}

// Commands returns the command names in help order.
func Commands() []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = c.name
	}
	return out
}

// Shell executes command lines against a model. Output of background fetches is
// written to the same writer, serialized with command output.
type Shell struct {
	ctx    context.Context
	model  *browser.Model
	schema browser.Schema
	log    *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	wg sync.WaitGroup
	// seq numbers fetch and cancel commands; only the latest fetch reports
	seq atomic.Int64
}

// New creates a shell. Fetches started from it run under ctx.
func New(ctx context.Context, model *browser.Model, schema browser.Schema, out io.Writer, log *slog.Logger) *Shell {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Shell{ctx: ctx, model: model, schema: schema, out: out, log: log}
}

// Exec runs one command line. Blank lines are ignored. Errors are meant to be
// shown to the user; ErrQuit ends the session.
func (s *Shell) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	name, args, _ := strings.Cut(line, " ")
	switch name {
	case "exit":
		name = "quit"
	case "?":
		name = "help"
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(s, strings.TrimSpace(args))
		}
	}
	return fmt.Errorf("unknown command %q (try 'help')", name)
}

// Wait blocks until every background fetch has returned.
func (s *Shell) Wait() { s.wg.Wait() }

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) add(args string) error {
	c, err := browser.ParseClause(args)
	if err != nil {
		return err
	}
	id := s.model.AddClause(c.Attribute, c.Op, c.Value)
	if _, known := s.schema.Lookup(c.Attribute); !known {
		s.printf("note: %q is not a known attribute\n", c.Attribute)
	}
	s.printf("added clause %d\n", id)
	return nil
}

func (s *Shell) edit(args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return ferrors.New(ferrors.InvalidClause, "usage: edit <id> attr|op|value <new>")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return err
	}
	rest := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	field, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)

	var edit browser.ClauseEdit
	switch field {
	case "attr", "attribute":
		if value == "" || strings.ContainsAny(value, " \t") {
			return ferrors.Newf(ferrors.InvalidClause, "bad attribute name %q", value)
		}
		edit.Attribute = &value
	case "op":
		op, ok := hsds.ParseOperator(value)
		if !ok {
			return ferrors.Newf(ferrors.InvalidClause, "unknown operator %q", value)
		}
		edit.Op = &op
	case "value":
		wire := browser.QuoteInput(value)
		edit.Value = &wire
	default:
		// a whole clause replaces all three fields
		c, err := browser.ParseClause(rest)
		if err != nil {
			return err
		}
		edit = browser.ClauseEdit{Attribute: &c.Attribute, Op: &c.Op, Value: &c.Value}
	}
	if err := s.model.EditClause(id, edit); err != nil {
		return err
	}
	s.printf("updated clause %d\n", id)
	return nil
}

func (s *Shell) remove(args string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := s.model.RemoveClause(id); err != nil {
		return err
	}
	s.printf("removed clause %d\n", id)
	return nil
}

func (s *Shell) clear(string) error {
	s.model.ClearQuery()
	s.printf("query cleared\n")
	return nil
}

func (s *Shell) list(string) error {
	query := s.model.Query()
	if len(query) == 0 {
		s.printf("no clauses; fetch lists every domain in %s\n", s.model.Options().Folder)
		return nil
	}
	wire := make([]hsds.Clause, len(query))
	for i, c := range query {
		s.printf("  [%d] %s %s %s\n", c.ID, c.Attribute, c.Op, browser.Unquote(c.Value))
		wire[i] = hsds.Clause{Attribute: c.Attribute, Op: c.Op, Value: c.Value}
	}
	s.printf("query: %s\n", hsds.Predicate(wire))
	return nil
}

func (s *Shell) fetch(string) error {
	my := s.seq.Add(1)
	s.printf("fetching...\n")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.model.Fetch(s.ctx)
		if s.seq.Load() != my {
			return
		}
		if err != nil {
			s.printf("fetch failed: %s\n", logging.PresentError("", err))
			if hint := logging.Hint(err); hint != "" {
				s.printf("%s\n", hint)
			}
			return
		}
		rows := s.model.Data()
		s.printf("fetched %d domains, %d enriched\n", len(rows), countEnriched(rows))
	}()
	return nil
}

func (s *Shell) cancel(string) error {
	if s.model.State() == browser.StateIdle {
		s.printf("nothing to cancel\n")
		return nil
	}
	s.seq.Add(1)
	s.model.Cancel()
	s.printf("fetch cancelled\n")
	return nil
}

func (s *Shell) show(args string) error {
	rows := s.model.Data()
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			return fmt.Errorf("bad limit %q", args)
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}
	if len(rows) == 0 {
		s.printf("no domains\n")
		return nil
	}
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithData(render.Rows(rows, browser.Columns(s.schema))).
		Srender()
	if err != nil {
		return err
	}
	s.printf("%s\n", out)
	return nil
}

func (s *Shell) attrs(string) error {
	for _, a := range s.schema {
		s.printf("  %-24s %s\n", a.Name, a.Kind)
	}
	return nil
}

func (s *Shell) status(string) error {
	rows := s.model.Data()
	session := s.model.SessionID()
	if session == "" {
		session = "-"
	}
	s.printf("state: %s  domains: %d  enriched: %d  session: %s\n",
		s.model.State(), len(rows), countEnriched(rows), session)
	return nil
}

func (s *Shell) help(string) error {
	for _, c := range commands {
		s.printf("  %-32s %s\n", c.usage, c.help)
	}
	s.printf("operators: ")
	for i, op := range hsds.Operators() {
		if i > 0 {
			s.printf(" ")
		}
		s.printf("%s", op)
	}
	s.printf("\n")
	return nil
}

// Complete returns candidate lines for liner's tab completion.
func (s *Shell) Complete(line string) []string {
	name, rest, spaced := strings.Cut(line, " ")
	if !spaced {
		return prefixed("", Commands(), name)
	}
	switch name {
	case "add":
		if strings.ContainsAny(rest, " <>=") {
			return nil
		}
		return prefixed("add ", s.schema.Names(), rest)
	case "edit":
		f := strings.Fields(rest)
		if len(f) == 3 && f[1] == "attr" && !strings.HasSuffix(rest, " ") {
			return prefixed("edit "+f[0]+" attr ", s.schema.Names(), f[2])
		}
		if len(f) == 1 && strings.HasSuffix(rest, " ") {
			return prefixed("edit "+f[0]+" ", []string{"attr", "op", "value"}, "")
		}
		if len(f) == 2 && !strings.HasSuffix(rest, " ") {
			return prefixed("edit "+f[0]+" ", []string{"attr", "op", "value"}, f[1])
		}
	}
	return nil
}

func prefixed(lead string, words []string, partial string) []string {
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, partial) {
			out = append(out, lead+w)
		}
	}
	slices.Sort(out)
	return out
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ferrors.Newf(ferrors.NotFound, "%q is not a clause id", s)
	}
	return id, nil
}

func countEnriched(rows []browser.Record) int {
	n := 0
	for _, r := range rows {
		if r.Enriched() {
			n++
		}
	}
	return n
}
