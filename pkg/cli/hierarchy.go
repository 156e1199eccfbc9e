package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gxtest/uitest/pkg/core"
)

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Print the element tree of the app in the foreground",
	Description: `Print the current UI hierarchy as an indented tree, as CSV with
--compact, or as the raw host XML with --xml.

Examples:
  gxuitest hierarchy
  gxuitest hierarchy --compact > screen.csv
  gxuitest --wda-url http://10.0.0.5:8100 hierarchy --xml`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "Output in CSV format",
		},
		&cli.BoolFlag{
			Name:  "xml",
			Usage: "Output the raw page source",
		},
	},
	Action: runHierarchy,
}

func runHierarchy(c *cli.Context) error {
	if c.Bool("compact") && c.Bool("xml") {
		return fmt.Errorf("--compact and --xml are mutually exclusive")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sess, err := newSession(cfg, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	w := c.App.Writer
	if c.Bool("xml") {
		src, err := sess.RawSource()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, src)
		return err
	}

	root, err := sess.Driver().Source()
	if err != nil {
		return err
	}
	if c.Bool("compact") {
		return writeHierarchyCSV(w, root)
	}
	printHierarchy(w, root, 0)
	return nil
}

func printHierarchy(w io.Writer, e *core.Element, depth int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), e.String())
	for _, child := range e.Children {
		printHierarchy(w, child, depth+1)
	}
}

var hierarchyColumns = []string{"depth", "type", "identifier", "label", "value", "x", "y", "width", "height", "enabled", "visible"}

func writeHierarchyCSV(w io.Writer, root *core.Element) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(hierarchyColumns); err != nil {
		return err
	}

	var walk func(e *core.Element, depth int) error
	walk = func(e *core.Element, depth int) error {
		row := []string{
			strconv.Itoa(depth),
			e.Type.String(),
			e.Identifier,
			e.Label,
			e.Value,
			strconv.Itoa(e.Bounds.X),
			strconv.Itoa(e.Bounds.Y),
			strconv.Itoa(e.Bounds.Width),
			strconv.Itoa(e.Bounds.Height),
			strconv.FormatBool(e.Enabled),
			strconv.FormatBool(e.Visible),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		for _, child := range e.Children {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
