// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"bytes"
	"fmt"
	"github.com/diffeo/go-glpi/glpi"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func (e *env) commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "profiles",
			Usage:  "list the user's profiles",
			Action: e.withClient(e.profiles),
		},
		{
			Name:  "profile",
			Usage: "show or change the active profile",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "set", Usage: "make profile `ID` active", Value: -1},
			},
			Action: e.withClient(e.profile),
		},
		{
			Name:  "entities",
			Usage: "list the entities the user can switch to",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "recursive", Usage: "include sub-entities"},
			},
			Action: e.withClient(e.entities),
		},
		{
			Name:  "entity",
			Usage: "show or change the active entity",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "set", Usage: "make entity `ID` (or \"all\") active"},
				cli.BoolFlag{Name: "recursive", Usage: "also activate sub-entities"},
			},
			Action: e.withClient(e.entity),
		},
		{
			Name:   "session",
			Usage:  "show the server-side session",
			Action: e.withClient(e.session),
		},
		{
			Name:   "config",
			Usage:  "show the server configuration",
			Action: e.withClient(e.glpiConfig),
		},
		{
			Name:      "get",
			Usage:     "show one object",
			ArgsUsage: "ITEMTYPE ID",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "expand", Usage: "show names instead of dropdown ids"},
			},
			Action: e.withClient(e.get),
		},
		{
			Name:      "list",
			Usage:     "list objects of an itemtype",
			ArgsUsage: "ITEMTYPE",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "range", Usage: "page of results, e.g. 0-49"},
				cli.BoolFlag{Name: "deleted", Usage: "list objects in the trash"},
				cli.BoolFlag{Name: "expand", Usage: "show names instead of dropdown ids"},
			},
			Action: e.withClient(e.list),
		},
		{
			Name:      "subitems",
			Usage:     "list objects attached to an object",
			ArgsUsage: "ITEMTYPE ID SUBITEMTYPE",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "range", Usage: "page of results, e.g. 0-49"},
			},
			Action: e.withClient(e.subitems),
		},
		{
			Name:      "multi",
			Usage:     "show several objects at once",
			ArgsUsage: "ITEMTYPE:ID...",
			Action:    e.withClient(e.multi),
		},
		{
			Name:      "options",
			Usage:     "list the search options of an itemtype",
			ArgsUsage: "ITEMTYPE",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "raw", Usage: "show options as the core defines them"},
			},
			Action: e.withClient(e.options),
		},
		{
			Name:      "field",
			Usage:     "translate between a search option uid and its id",
			ArgsUsage: "ITEMTYPE UID|ID",
			Action:    e.withClient(e.field),
		},
		{
			Name:      "search",
			Usage:     "search objects of an itemtype",
			ArgsUsage: "ITEMTYPE",
			Flags: []cli.Flag{
				cli.StringSliceFlag{Name: "criteria", Usage: "FIELD:SEARCHTYPE:VALUE[:LINK] (repeatable)"},
				cli.StringSliceFlag{Name: "display", Usage: "also show `FIELD` (repeatable)"},
				cli.StringFlag{Name: "sort", Usage: "sort on `FIELD`"},
				cli.StringFlag{Name: "order", Usage: "ASC or DESC"},
				cli.StringFlag{Name: "range", Usage: "page of results, e.g. 0-49"},
			},
			Action: e.withClient(e.search),
		},
		{
			Name:      "add",
			Usage:     "create objects from a JSON object or list",
			ArgsUsage: "ITEMTYPE JSON",
			Action:    e.withClient(e.add),
		},
		{
			Name:      "update",
			Usage:     "change objects from a JSON object or list; each needs an id",
			ArgsUsage: "ITEMTYPE JSON",
			Action:    e.withClient(e.update),
		},
		{
			Name:      "delete",
			Usage:     "move objects to the trash",
			ArgsUsage: "ITEMTYPE ID...",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "purge", Usage: "delete permanently"},
			},
			Action: e.withClient(e.deleteItems),
		},
		{
			Name:      "upload",
			Usage:     "upload a file as a new document",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name", Usage: "document name (default: the file name)"},
			},
			Action: e.withClient(e.upload),
		},
		{
			Name:      "download",
			Usage:     "save the content of a document",
			ArgsUsage: "ID FILE",
			Action:    e.withClient(e.download),
		},
	}
}

// args checks the number of positional arguments.
func args(c *cli.Context, min, max int) ([]string, error) {
	a := c.Args()
	if len(a) < min || (max >= 0 && len(a) > max) {
		return nil, errors.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return a, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("%q is not an object id", s)
	}
	return id, nil
}

// parseItems reads a JSON object or list of objects.
func parseItems(s string) ([]glpidata.Item, error) {
	var v interface{}
	if err := glpidata.Decode("", strings.NewReader(s), &v); err != nil {
		return nil, errors.Wrap(err, "parsing JSON input")
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
	default:
		return nil, errors.New("JSON input must be an object or a list of objects")
	}
	return glpidata.ToItems(v), nil
}

var links = map[string]string{
	"AND":     glpidata.LinkAnd,
	"OR":      glpidata.LinkOr,
	"AND NOT": glpidata.LinkAndNot,
	"OR NOT":  glpidata.LinkOrNot,
}

// parseCriterion parses FIELD:SEARCHTYPE:VALUE[:LINK].  The value may
// contain colons as long as it is not followed by something that looks
// like a link.
func parseCriterion(s string) (glpidata.Criterion, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return glpidata.Criterion{}, errors.Errorf("criterion %q is not FIELD:SEARCHTYPE:VALUE[:LINK]", s)
	}
	c := glpidata.Criterion{Field: parts[0], SearchType: parts[1]}
	rest := parts[2:]
	if len(rest) > 1 {
		if link, isLink := links[strings.ToUpper(rest[len(rest)-1])]; isLink {
			c.Link = link
			rest = rest[:len(rest)-1]
		}
	}
	c.Value = strings.Join(rest, ":")
	return c, nil
}

func (e *env) profiles(c *cli.Context, client *glpi.Client) error {
	profiles, err := client.GetMyProfiles(e.ctx)
	if err != nil {
		return errors.Wrap(err, "getting profiles")
	}
	if e.format == formatJSON {
		return e.printJSON(profiles)
	}
	t := e.table("ID", "NAME", "ENTITIES")
	for _, p := range profiles {
		names := make([]string, len(p.Entities))
		for i, entity := range p.Entities {
			names[i] = entity.Name
		}
		t.AddLine(p.ID, p.Name, strings.Join(names, ", "))
	}
	t.Print()
	return nil
}

func (e *env) profile(c *cli.Context, client *glpi.Client) error {
	if id := c.Int("set"); id >= 0 {
		if err := client.SetActiveProfile(e.ctx, id); err != nil {
			return errors.Wrapf(err, "changing to profile %d", id)
		}
	}
	profile, err := client.GetActiveProfile(e.ctx)
	if err != nil {
		return errors.Wrap(err, "getting active profile")
	}
	return e.printItem(profile)
}

func (e *env) entities(c *cli.Context, client *glpi.Client) error {
	entities, err := client.GetMyEntities(e.ctx, c.Bool("recursive"))
	if err != nil {
		return errors.Wrap(err, "getting entities")
	}
	if e.format == formatJSON {
		return e.printJSON(entities)
	}
	t := e.table("ID", "NAME")
	for _, entity := range entities {
		t.AddLine(entity.ID, entity.Name)
	}
	t.Print()
	return nil
}

func (e *env) entity(c *cli.Context, client *glpi.Client) error {
	if set := c.String("set"); set != "" {
		id := glpi.AllEntities
		if set != "all" {
			var err error
			if id, err = parseID(set); err != nil {
				return err
			}
		}
		if err := client.SetActiveEntities(e.ctx, id, c.Bool("recursive")); err != nil {
			return errors.Wrapf(err, "changing to entity %s", set)
		}
	}
	active, err := client.GetActiveEntities(e.ctx)
	if err != nil {
		return errors.Wrap(err, "getting active entities")
	}
	if e.format == formatJSON {
		return e.printJSON(active)
	}
	ids := make([]string, len(active.ActiveEntities))
	for i, ref := range active.ActiveEntities {
		ids[i] = strconv.Itoa(ref.ID)
	}
	t := e.table("ID", "RECURSIVE", "ACTIVE")
	t.AddLine(active.ID, active.Recursive, strings.Join(ids, ","))
	t.Print()
	return nil
}

func (e *env) session(c *cli.Context, client *glpi.Client) error {
	session, err := client.GetFullSession(e.ctx)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	return e.printItem(session)
}

func (e *env) glpiConfig(c *cli.Context, client *glpi.Client) error {
	cfg, err := client.GetConfig(e.ctx)
	if err != nil {
		return errors.Wrap(err, "getting configuration")
	}
	return e.printItem(cfg)
}

func (e *env) get(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 2, 2)
	if err != nil {
		return err
	}
	id, err := parseID(a[1])
	if err != nil {
		return err
	}
	item, err := client.GetItem(e.ctx, a[0], id, glpidata.Params{"expand_dropdowns": c.Bool("expand")})
	if err != nil {
		return errors.Wrapf(err, "getting %s %d", a[0], id)
	}
	if item == nil {
		return errors.Errorf("%s %d not found", a[0], id)
	}
	return e.printItem(item)
}

func (e *env) list(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	params := glpidata.Params{
		"is_deleted":       c.Bool("deleted"),
		"expand_dropdowns": c.Bool("expand"),
	}
	if r := c.String("range"); r != "" {
		params["range"] = r
	}
	items, err := client.GetAllItems(e.ctx, a[0], params)
	if err != nil {
		return errors.Wrapf(err, "listing %s", a[0])
	}
	return e.printItems(items, nil)
}

func (e *env) subitems(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 3, 3)
	if err != nil {
		return err
	}
	id, err := parseID(a[1])
	if err != nil {
		return err
	}
	var params glpidata.Params
	if r := c.String("range"); r != "" {
		params = glpidata.Params{"range": r}
	}
	items, err := client.GetSubItems(e.ctx, a[0], id, a[2], params)
	if err != nil {
		return errors.Wrapf(err, "listing %s of %s %d", a[2], a[0], id)
	}
	return e.printItems(items, nil)
}

func (e *env) multi(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 1, -1)
	if err != nil {
		return err
	}
	refs := make([]glpidata.ItemRef, len(a))
	for i, arg := range a {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return errors.Errorf("%q is not ITEMTYPE:ID", arg)
		}
		id, err := parseID(parts[1])
		if err != nil {
			return err
		}
		refs[i] = glpidata.ItemRef{Itemtype: parts[0], ID: id}
	}
	items, err := client.GetMultipleItems(e.ctx, nil, refs...)
	if err != nil {
		return errors.Wrap(err, "getting items")
	}
	return e.printItems(items, nil)
}

// sortedOptionIDs orders search option ids numerically, with
// non-numeric section headers last.
func sortedOptionIDs(options map[string]glpidata.SearchOption) []string {
	ids := make([]string, 0, len(options))
	for id := range options {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.Atoi(ids[i])
		b, bErr := strconv.Atoi(ids[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (e *env) options(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	options, err := client.ListSearchOptions(e.ctx, a[0], c.Bool("raw"))
	if err != nil {
		return errors.Wrapf(err, "listing search options of %s", a[0])
	}
	if e.format == formatJSON {
		return e.printJSON(options)
	}
	t := e.table("ID", "UID", "NAME", "TYPE")
	for _, id := range sortedOptionIDs(options) {
		option := options[id]
		if option.Table == "" {
			continue
		}
		t.AddLine(id, option.UID, option.Name, option.DataType)
	}
	t.Print()
	return nil
}

func (e *env) field(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 2, 2)
	if err != nil {
		return err
	}
	if glpidata.IsFieldID(a[1]) {
		id, _ := strconv.Atoi(a[1])
		uid, err := client.FieldUID(e.ctx, a[0], id, false)
		if err != nil {
			return err
		}
		return e.printJSONOrLine(uid)
	}
	id, err := client.FieldID(e.ctx, a[0], a[1], false)
	if err != nil {
		return err
	}
	return e.printJSONOrLine(id)
}

func (e *env) search(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	itemtype := a[0]
	q := glpidata.SearchQuery{
		ForceDisplay: c.StringSlice("display"),
		Sort:         c.String("sort"),
		Order:        strings.ToUpper(c.String("order")),
		Range:        c.String("range"),
	}
	for _, s := range c.StringSlice("criteria") {
		criterion, err := parseCriterion(s)
		if err != nil {
			return err
		}
		q.Criteria = append(q.Criteria, criterion)
	}
	result, err := client.Search(e.ctx, itemtype, q)
	if err != nil {
		return errors.Wrapf(err, "searching %s", itemtype)
	}
	if e.format == formatJSON {
		return e.printJSON(result.Data)
	}
	// Label columns with uids where the server knows them.
	labels := map[string]string{}
	for _, row := range result.Data {
		for key := range row {
			if _, done := labels[key]; done {
				continue
			}
			labels[key] = key
			if id, err := strconv.Atoi(key); err == nil {
				if uid, err := client.FieldUID(e.ctx, itemtype, id, false); err == nil {
					labels[key] = uid
				}
			}
		}
	}
	err = e.printItems(result.Data, labels)
	if err == nil && result.Count < result.TotalCount {
		e.log.Warnf("showing %d of %d results (%s)", result.Count, result.TotalCount, result.ContentRange)
	}
	return err
}

func (e *env) add(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 2, 2)
	if err != nil {
		return err
	}
	items, err := parseItems(a[1])
	if err != nil {
		return err
	}
	results, err := client.Add(e.ctx, a[0], items...)
	if err != nil {
		return errors.Wrapf(err, "adding %s", a[0])
	}
	return e.printItems(results, nil)
}

func (e *env) update(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 2, 2)
	if err != nil {
		return err
	}
	items, err := parseItems(a[1])
	if err != nil {
		return err
	}
	results, err := client.Update(e.ctx, a[0], items...)
	if err != nil {
		return errors.Wrapf(err, "updating %s", a[0])
	}
	return e.printItems(results, nil)
}

func (e *env) deleteItems(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 2, -1)
	if err != nil {
		return err
	}
	items := make([]glpidata.Item, 0, len(a)-1)
	for _, arg := range a[1:] {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		items = append(items, glpidata.Item{"id": id})
	}
	var params glpidata.Params
	if c.Bool("purge") {
		params = glpidata.Params{"force_purge": true}
	}
	results, err := client.Delete(e.ctx, a[0], params, items...)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", a[0])
	}
	return e.printItems(results, nil)
}

func (e *env) upload(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	content, err := afero.ReadFile(e.fs, a[0])
	if err != nil {
		return errors.Wrap(err, "reading upload")
	}
	result, err := client.UploadDocument(e.ctx, c.String("name"), filepath.Base(a[0]), bytes.NewReader(content))
	if err != nil {
		return errors.Wrapf(err, "uploading %s", a[0])
	}
	if e.format == formatJSON {
		return e.printJSON(result)
	}
	_, err = fmt.Fprintf(e.out, "Uploaded %s (%s) as Document %s\n",
		a[0], humanize.Bytes(uint64(len(content))), result.String("id"))
	return err
}

func (e *env) download(c *cli.Context, client *glpi.Client) error {
	a, err := args(c, 2, 2)
	if err != nil {
		return err
	}
	id, err := parseID(a[0])
	if err != nil {
		return err
	}
	// Download next to the target and rename on success, so a
	// failure never leaves a partial file under the requested name.
	f, err := afero.TempFile(e.fs, filepath.Dir(a[1]), "."+filepath.Base(a[1])+".*")
	if err != nil {
		return errors.Wrap(err, "creating download file")
	}
	n, err := client.DownloadDocument(e.ctx, id, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = e.fs.Rename(f.Name(), a[1])
	}
	if err != nil {
		_ = e.fs.Remove(f.Name())
		return errors.Wrapf(err, "downloading Document %d", id)
	}
	if e.format == formatJSON {
		return e.printJSON(map[string]interface{}{"file": a[1], "bytes": n})
	}
	_, err = fmt.Fprintf(e.out, "Wrote %s to %s\n", humanize.Bytes(uint64(n)), a[1])
	return err
}
