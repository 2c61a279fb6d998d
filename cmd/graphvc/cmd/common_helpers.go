package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	internalErrorCode = 2
	userErrorCode     = 1
)

func Die(err string, code int) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(code)
}

func DieFmt(msg string, args ...interface{}) {
	Die(fmt.Sprintf(msg, args...), userErrorCode)
}

func DieErr(err error) {
	code := internalErrorCode
	switch {
	case errors.Is(err, graphvc.ErrNotFound),
		errors.Is(err, graphvc.ErrNotUnique),
		errors.Is(err, graphvc.ErrInvalidValue),
		errors.Is(err, graphvc.ErrConcurrentModification):
		code = userErrorCode
	}
	Die(err.Error(), code)
}

func Fmt(msg string, args ...interface{}) {
	fmt.Printf(msg, args...)
}

// PrintTable renders rows with the given header to stdout.
func PrintTable(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}
