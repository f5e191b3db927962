// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"fmt"
	"github.com/cheynewallace/tabby"
	"github.com/diffeo/go-glpi/glpi"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"io"
	"os"
	"sort"
	"text/tabwriter"
)

// Output formats.
const (
	formatJSON  = "json"
	formatTable = "table"
)

func (e *env) table(header ...interface{}) *tabby.Tabby {
	t := tabby.NewCustom(tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0))
	t.AddHeader(header...)
	return t
}

// printJSON writes v as one line of JSON.
func (e *env) printJSON(v interface{}) error {
	b, err := glpidata.Encode(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "%s\n", b)
	return err
}

func (e *env) printJSONOrLine(v interface{}) error {
	if e.format == formatJSON {
		return e.printJSON(v)
	}
	_, err := fmt.Fprintln(e.out, v)
	return err
}

// printItem writes a single object, as a two-column table of fields
// in table format.
func (e *env) printItem(item glpidata.Item) error {
	if e.format == formatJSON {
		return e.printJSON(item)
	}
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := e.table("FIELD", "VALUE")
	for _, k := range keys {
		t.AddLine(k, item.String(k))
	}
	t.Print()
	return nil
}

// columns returns the union of the keys of items, "id" first, then
// "name", then the rest in order.
func columns(items []glpidata.Item) []string {
	seen := map[string]bool{}
	var rest []string
	for _, item := range items {
		for k := range item {
			if !seen[k] {
				seen[k] = true
				if k != "id" && k != "name" {
					rest = append(rest, k)
				}
			}
		}
	}
	sort.Strings(rest)
	var result []string
	for _, k := range []string{"id", "name"} {
		if seen[k] {
			result = append(result, k)
		}
	}
	return append(result, rest...)
}

// printItems writes a list of objects.  In table format labels, if
// non-nil, renames column headers.
func (e *env) printItems(items []glpidata.Item, labels map[string]string) error {
	if e.format == formatJSON {
		return e.printJSON(items)
	}
	cols := columns(items)
	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col
		if label, ok := labels[col]; ok {
			header[i] = label
		}
	}
	t := e.table(header...)
	for _, item := range items {
		line := make([]interface{}, len(cols))
		for i, col := range cols {
			line[i] = item.String(col)
		}
		t.AddLine(line...)
	}
	t.Print()
	return nil
}

// printError reports a failure, in red if w is a terminal.  GLPI error
// keys are shown separately from their messages.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if f, isFile := w.(*os.File); !isFile || !isatty.IsTerminal(f.Fd()) {
		red.DisableColor()
	}
	errs := []error{err}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	}
	for _, err := range errs {
		_, _ = red.Fprint(w, "error: ")
		_, _ = fmt.Fprintln(w, err)
		if status := glpi.StatusCode(err); status != 0 {
			_, _ = fmt.Fprintf(w, "  (HTTP status %d)\n", status)
		}
	}
}
