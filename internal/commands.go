package internal

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/starford/adr/internal/engine"
	"github.com/starford/adr/internal/parser"
)

var (
	colorAccepted   = color.New(color.FgGreen).SprintFunc()
	colorSuperseded = color.New(color.FgYellow).SprintFunc()
	colorProposed   = color.New(color.FgCyan).SprintFunc()
	colorRejected   = color.New(color.FgRed).SprintFunc()
	colorDim        = color.New(color.Faint).SprintFunc()
)

// colorStatus colours a record status for terminal output.
func colorStatus(status string) string {
	switch strings.ToLower(status) {
	case "accepted":
		return colorAccepted(status)
	case strings.ToLower(parser.StatusSuperseded):
		return colorSuperseded(status)
	case "proposed", "draft":
		return colorProposed(status)
	case "rejected", "deprecated":
		return colorRejected(status)
	case "":
		return colorDim("-")
	default:
		return status
	}
}

func (a *application) runInit(ctx context.Context, e *engine.Engine) error {
	rec, err := e.Init(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path.Join(e.Store().Dir(), rec.Filename))
	return nil
}

func (a *application) runNew(ctx context.Context, e *engine.Engine, o NewOp) error {
	rec, err := e.New(ctx, o.Title, o.Supersedes)
	var partial *engine.PartialError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	fmt.Fprintln(a.stdout, e.Store().Path(rec))
	return err
}

func (a *application) runList(ctx context.Context, e *engine.Engine, o ListOp) error {
	recs, err := e.List(ctx)
	if err != nil {
		return err
	}
	if !o.Long {
		for _, r := range recs {
			fmt.Fprintln(a.stdout, r.Filename)
		}
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tFILE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, colorStatus(r.Status), r.Title, r.Filename)
	}
	return tw.Flush()
}

func (a *application) runLink(ctx context.Context, e *engine.Engine, o LinkOp) error {
	rec, err := e.Link(ctx, o.ID, o.Supersedes)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s supersedes %s\n", rec.Filename, strings.Join(o.Supersedes, ", "))
	return nil
}

func (a *application) runShow(ctx context.Context, e *engine.Engine, o ShowOp) error {
	_, body, err := e.Show(ctx, o.ID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, body)
	return err
}

// ErrDrift is returned by check when links are out of sync.
var ErrDrift = errors.New("supersede links out of sync")

func (a *application) runCheck(ctx context.Context, e *engine.Engine) error {
	drift, err := e.Check(ctx)
	if err != nil {
		return err
	}
	for _, d := range drift {
		fmt.Fprintln(a.stdout, d.String())
	}
	if len(drift) > 0 {
		return fmt.Errorf("%w: %d problem(s)", ErrDrift, len(drift))
	}
	return nil
}
