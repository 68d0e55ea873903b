package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gogotex/docstore/internal/config"
	"github.com/gogotex/docstore/pkg/couchhttp"
	"github.com/gogotex/docstore/pkg/document"
)

func newApp(cc config.ClientConfig) *cli.App {
	return &cli.App{
		Name:  "docstorectl",
		Usage: "Read, write, copy and move documents on a docstore server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Base URL of the store",
				Value: cc.URL,
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Database to operate on",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: cc.Timeout,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print the document stored at ID",
				ArgsUsage: "ID",
				Action:    cmdGet,
			},
			{
				Name:      "put",
				Usage:     "Save a JSON document; reads stdin when no argument is given",
				ArgsUsage: "[JSON]",
				Action:    cmdPut,
			},
			{
				Name:      "delete",
				Usage:     "Delete the current revision of the document at ID",
				ArgsUsage: "ID",
				Action:    cmdDelete,
			},
			{
				Name:      "copy",
				Usage:     "Copy the document at SRC to DEST (DEST may be \"id?rev=REV\")",
				ArgsUsage: "SRC DEST",
				Flags:     []cli.Flag{overwriteFlag},
				Action:    cmdCopy,
			},
			{
				Name:      "move",
				Usage:     "Move the document at SRC to DEST (DEST may be \"id?rev=REV\")",
				ArgsUsage: "SRC DEST",
				Flags:     []cli.Flag{overwriteFlag},
				Action:    cmdMove,
			},
			{
				Name:      "bulk",
				Usage:     "Save a JSON array of documents as bulk writes; reads stdin when FILE is \"-\" or absent",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch",
						Usage: "Flush every N documents (0 sends one batch)",
					},
				},
				Action: cmdBulk,
			},
		},
	}
}

var overwriteFlag = &cli.BoolFlag{
	Name:    "overwrite",
	Aliases: []string{"f"},
	Usage:   "Overwrite DEST at its current revision",
}

func openDatabase(c *cli.Context, opts ...document.Option) *document.Database {
	client := couchhttp.New(c.String("url"), couchhttp.WithTimeout(c.Duration("timeout")))
	return document.NewDatabase(c.String("db"), client, opts...)
}

func args(c *cli.Context, n int) ([]string, error) {
	if c.NArg() != n {
		return nil, cli.Exit(fmt.Sprintf("%s: expected %d argument(s), got %d", c.Command.Name, n, c.NArg()), 2)
	}
	return c.Args().Slice(), nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func readInput(c *cli.Context, name string) ([]byte, error) {
	if name == "" || name == "-" {
		r := c.App.Reader
		if r == nil {
			r = os.Stdin
		}
		return io.ReadAll(r)
	}
	return os.ReadFile(name)
}

func cmdGet(c *cli.Context) error {
	a, err := args(c, 1)
	if err != nil {
		return err
	}
	doc, err := openDatabase(c).Get(c.Context, a[0])
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, doc)
}

func cmdPut(c *cli.Context) error {
	var data []byte
	var err error
	if c.NArg() > 0 {
		data = []byte(c.Args().First())
	} else if data, err = readInput(c, "-"); err != nil {
		return err
	}
	doc := document.New()
	if err := json.Unmarshal(data, doc); err != nil {
		return cli.Exit(fmt.Sprintf("put: invalid document: %v", err), 2)
	}
	res, err := openDatabase(c).SaveDoc(c.Context, doc, document.Direct)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func cmdDelete(c *cli.Context) error {
	a, err := args(c, 1)
	if err != nil {
		return err
	}
	db := openDatabase(c)
	doc, err := db.Get(c.Context, a[0])
	if err != nil {
		return err
	}
	rev := doc.Rev()
	if err := doc.Destroy(c.Context, document.Direct); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "deleted %s at %s\n", a[0], rev)
	return err
}

// destination resolves DEST, fetching its current revision for --overwrite.
func destination(c *cli.Context, db *document.Database, dest string) (document.Destination, error) {
	if !c.Bool("overwrite") {
		return document.ParseDestination(dest), nil
	}
	existing, err := db.Get(c.Context, dest)
	if err != nil {
		return document.Destination{}, fmt.Errorf("overwrite %s: %w", dest, err)
	}
	return document.Overwrite(existing), nil
}

func cmdCopy(c *cli.Context) error {
	a, err := args(c, 2)
	if err != nil {
		return err
	}
	db := openDatabase(c)
	src, err := db.Get(c.Context, a[0])
	if err != nil {
		return err
	}
	dest, err := destination(c, db, a[1])
	if err != nil {
		return err
	}
	res, err := db.CopyDoc(c.Context, src, dest)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func cmdMove(c *cli.Context) error {
	a, err := args(c, 2)
	if err != nil {
		return err
	}
	db := openDatabase(c)
	src, err := db.Get(c.Context, a[0])
	if err != nil {
		return err
	}
	dest, err := destination(c, db, a[1])
	if err != nil {
		return err
	}
	if err := src.Move(c.Context, dest); err != nil {
		return err
	}
	return printJSON(c.App.Writer, document.Result{OK: true, ID: src.ID(), Rev: src.Rev()})
}

func cmdBulk(c *cli.Context) error {
	data, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}
	var docs []*document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return cli.Exit(fmt.Sprintf("bulk: expected a JSON array of documents: %v", err), 2)
	}

	var results []document.BulkResult
	db := openDatabase(c)
	batch := c.Int("batch")
	for i, doc := range docs {
		if _, err := db.SaveDoc(c.Context, doc, document.Bulk); err != nil {
			return err
		}
		if batch > 0 && (i+1)%batch == 0 {
			res, err := db.BulkSave(c.Context)
			if err != nil {
				return err
			}
			results = append(results, res...)
		}
	}
	if db.Pending() > 0 {
		res, err := db.BulkSave(c.Context)
		if err != nil {
			return err
		}
		results = append(results, res...)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if err := printJSON(c.App.Writer, results); err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("bulk: %d of %d documents failed", failed, len(results)), 1)
	}
	return nil
}
